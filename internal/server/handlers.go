package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"mall-parking/internal/logging"
	"mall-parking/internal/parking"
	"mall-parking/internal/report"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	parkingLot  *parking.InstrumentedParkingLot
	reports     *report.Reporter
	store       Pinger
	serviceName string
}

func NewHandler(lot *parking.InstrumentedParkingLot, reports *report.Reporter, store Pinger, serviceName string) *Handler {
	return &Handler{
		parkingLot:  lot,
		reports:     reports,
		store:       store,
		serviceName: serviceName,
	}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	resp := HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Store:   "ok",
		Meta:    extractMeta(ctx),
	}

	status := http.StatusOK
	if err := h.store.Ping(ctx); err != nil {
		logging.Warn(ctx, "store ping failed", logging.Err(err))
		resp.Status = "unhealthy"
		resp.Store = "unreachable"
		status = http.StatusServiceUnavailable
	}

	WriteJSON(w, status, resp)
}

func (h *Handler) ListSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var filter parking.SlotFilter
	if v := r.URL.Query().Get("slotType"); v != "" {
		st, err := parking.ParseSlotType(v)
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}
		filter.Type = st
	}
	if v := r.URL.Query().Get("status"); v != "" {
		status, err := parking.ParseSlotStatus(v)
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}
		filter.Status = status
	}

	slots, err := h.parkingLot.ListSlots(ctx, filter)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", slots)
}

func (h *Handler) DashboardCounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := h.reports.DashboardCounts(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", counts)
}

func (h *Handler) UpdateSlotStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SlotStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status, err := parking.ParseSlotStatus(req.Status)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	slot, err := h.parkingLot.SetSlotStatus(ctx, chi.URLParam(r, "number"), status)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Slot status updated", slot)
}

func (h *Handler) SeedSlots(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	slots, err := h.parkingLot.SeedSlots(ctx, parking.DefaultSlotSpecs())
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteCreated(ctx, w, "Slots seeded", slots)
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	vehicleType, err := parking.ParseVehicleType(req.VehicleType)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}
	billingType, err := parking.ParseBillingType(req.BillingType)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	result, err := h.parkingLot.CheckIn(ctx, parking.CheckInRequest{
		NumberPlate: req.NumberPlate,
		VehicleType: vehicleType,
		BillingType: billingType,
		ManualSlot:  req.ManualSlotID,
	})
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	message := "Vehicle checked in"
	if result.Fallback != parking.FallbackNone {
		message = "Vehicle checked in to a fallback slot"
	}

	WriteCreated(ctx, w, message, CheckInResponse{
		Session:      result.Session,
		AssignedSlot: result.Slot,
		Fallback:     result.Fallback,
	})
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.parkingLot.CheckOut(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle checked out", CheckOutResponse{Session: *session})
}

func (h *Handler) SearchSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session, err := h.parkingLot.FindActiveSession(ctx, r.URL.Query().Get("numberPlate"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", session)
}

func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	pricing, err := h.parkingLot.Pricing(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", pricing)
}

func (h *Handler) UpdateHourlyPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req HourlyPricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxHourlyCap == nil {
		WriteError(ctx, w, http.StatusBadRequest, "hourlyRates and maxHourlyCap are required")
		return
	}

	cfg, err := h.parkingLot.UpdateHourlyPricing(ctx, req.HourlyRates, *req.MaxHourlyCap)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Hourly pricing updated", cfg)
}

func (h *Handler) UpdateDayPassPricing(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DayPassPricingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DayPassRate == nil {
		WriteError(ctx, w, http.StatusBadRequest, "dayPassRate is required")
		return
	}

	cfg, err := h.parkingLot.UpdateDayPassPricing(ctx, *req.DayPassRate)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Day pass pricing updated", cfg)
}

func (h *Handler) RevenueSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.reports.RevenueSummary(ctx)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", summary)
}

func (h *Handler) DailyRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date := r.URL.Query().Get("date")
	if date == "" {
		WriteError(ctx, w, http.StatusBadRequest, "Please provide a date (YYYY-MM-DD)")
		return
	}
	day, err := report.ParseDate(date)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	buckets, err := h.reports.DailyRevenue(ctx, day)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", buckets)
}

func (h *Handler) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	year, errYear := strconv.Atoi(r.URL.Query().Get("year"))
	month, errMonth := strconv.Atoi(r.URL.Query().Get("month"))
	if errYear != nil || errMonth != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Please provide year and month")
		return
	}

	buckets, err := h.reports.MonthlyRevenue(ctx, year, time.Month(month))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", buckets)
}

func (h *Handler) PeakHours(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var day *time.Time
	if date := r.URL.Query().Get("date"); date != "" {
		parsed, err := report.ParseDate(date)
		if err != nil {
			writeServiceError(ctx, w, err)
			return
		}
		day = &parsed
	}

	buckets, err := h.reports.PeakHours(ctx, day)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", buckets)
}

func (h *Handler) SlotUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var periodDays int
	if v := r.URL.Query().Get("periodDays"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteError(ctx, w, http.StatusBadRequest, "periodDays must be a whole number")
			return
		}
		periodDays = n
	}

	usage, err := h.reports.SlotUtilization(ctx, periodDays)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "", usage)
}

// statusFor maps a parking error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, parking.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrInvalidInput),
		errors.Is(err, parking.ErrNotAvailable),
		errors.Is(err, parking.ErrTypeMismatch),
		errors.Is(err, parking.ErrChargerUnavailable),
		errors.Is(err, parking.ErrNoSlotAvailable),
		errors.Is(err, parking.ErrDuplicateActiveSession),
		errors.Is(err, parking.ErrInvalidInterval),
		errors.Is(err, parking.ErrSessionNotActive):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrLockTimeout):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()

	if status == http.StatusInternalServerError && !errors.Is(err, parking.ErrMissingPricingConfig) {
		logging.Error(ctx, "request error", logging.Err(err))
		message = "Internal server error"
	}

	WriteError(ctx, w, status, message)
}
