package parking

import "errors"

// Business-rule failures. Callers match them with errors.Is; they are always
// wrapped with the slot, plate or session they concern.
var (
	ErrNotFound               = errors.New("not found")
	ErrNotAvailable           = errors.New("slot not available")
	ErrTypeMismatch           = errors.New("slot type not compatible with vehicle type")
	ErrChargerUnavailable     = errors.New("ev slot has no charger")
	ErrNoSlotAvailable        = errors.New("no slot available")
	ErrDuplicateActiveSession = errors.New("vehicle already has an active session")
	ErrInvalidInterval        = errors.New("exit time precedes entry time")
	ErrMissingPricingConfig   = errors.New("pricing config missing")
	ErrInvalidInput           = errors.New("invalid input")
	ErrSessionNotActive       = errors.New("session is not active")
	ErrLockTimeout            = errors.New("lock not acquired")
)
