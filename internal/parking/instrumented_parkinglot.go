package parking

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"mall-parking/internal/logging"
)

type InstrumentedParkingLot struct {
	*ParkingLot
	telemetry *TelemetryProvider

	// Metrics
	checkInOperations   metric.Int64Counter
	checkOutOperations  metric.Int64Counter
	fallbackAssignments metric.Int64Counter
	revenueCounter      metric.Float64Counter
	operationDuration   metric.Float64Histogram
}

func NewInstrumentedParkingLot(lot *ParkingLot, telemetry *TelemetryProvider) (*InstrumentedParkingLot, error) {
	meter := telemetry.Meter()

	checkInOperations, err := meter.Int64Counter("parking_checkins_total",
		metric.WithDescription("Total number of check-in attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	checkOutOperations, err := meter.Int64Counter("parking_checkouts_total",
		metric.WithDescription("Total number of check-out attempts"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	fallbackAssignments, err := meter.Int64Counter("parking_fallback_assignments_total",
		metric.WithDescription("Automatic assignments made under a relaxed compatibility rule"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	// Occupancy is read from the store on every collection, so it is right
	// from the first export after a restart.
	_, err = meter.Int64ObservableGauge("parking_lot_occupancy",
		metric.WithDescription("Parking slots by status"),
		metric.WithUnit("1"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			counts, err := lot.store.CountSlotsByStatus(ctx)
			if err != nil {
				return err
			}
			for status, n := range counts {
				o.Observe(int64(n), metric.WithAttributes(attribute.String("status", string(status))))
			}
			return nil
		}))
	if err != nil {
		return nil, err
	}

	revenueCounter, err := meter.Float64Counter("parking_revenue_total",
		metric.WithDescription("Billed amount of completed sessions"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &InstrumentedParkingLot{
		ParkingLot:          lot,
		telemetry:           telemetry,
		checkInOperations:   checkInOperations,
		checkOutOperations:  checkOutOperations,
		fallbackAssignments: fallbackAssignments,
		revenueCounter:      revenueCounter,
		operationDuration:   operationDuration,
	}, nil
}

func (ipl *InstrumentedParkingLot) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInResult, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.check_in",
		trace.WithAttributes(
			attribute.String("vehicle.number_plate", NormalizePlate(req.NumberPlate)),
			attribute.String("vehicle.type", string(req.VehicleType)),
			attribute.String("billing.type", string(req.BillingType)),
			attribute.Bool("slot.manual", req.ManualSlot != ""),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_slot")

	result, err := ipl.ParkingLot.CheckIn(ctx, req)

	labels := []attribute.KeyValue{
		attribute.String("operation", "check_in"),
		attribute.String("vehicle_type", string(req.VehicleType)),
	}

	if err != nil {
		recordFailure(span, err)
		logging.Warn(ctx, "check-in rejected",
			logging.Plate(NormalizePlate(req.NumberPlate)),
			"vehicle_type", req.VehicleType,
			logging.Err(err))
		labels = append(labels, attribute.String("status", failureStatus(err)))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("slot_type", string(result.Slot.Type)),
		)
		span.SetAttributes(
			attribute.String("slot.number", result.Slot.Number),
			attribute.String("session.id", result.Session.ID),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.String("slot_number", result.Slot.Number),
		))

		if result.Fallback != FallbackNone {
			span.AddEvent("fallback_assignment", trace.WithAttributes(
				attribute.String("fallback", string(result.Fallback)),
			))
			ipl.fallbackAssignments.Add(ctx, 1, metric.WithAttributes(
				attribute.String("fallback", string(result.Fallback)),
			))
			logging.Warn(ctx, "slot assigned under fallback rule",
				logging.Plate(result.Session.NumberPlate),
				logging.Slot(result.Slot.Number),
				logging.Fallback(string(result.Fallback)))
		}

		logging.Info(ctx, "vehicle checked in",
			logging.Plate(result.Session.NumberPlate),
			logging.Slot(result.Slot.Number),
			logging.Session(result.Session.ID))
	}

	ipl.checkInOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return result, err
}

func (ipl *InstrumentedParkingLot) CheckOut(ctx context.Context, sessionID string) (*Session, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.check_out",
		trace.WithAttributes(
			attribute.String("session.id", sessionID),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("pricing_session")

	session, err := ipl.ParkingLot.CheckOut(ctx, sessionID)

	labels := []attribute.KeyValue{
		attribute.String("operation", "check_out"),
	}

	if err != nil {
		recordFailure(span, err)
		logging.Warn(ctx, "check-out rejected", logging.Session(sessionID), logging.Err(err))
		labels = append(labels, attribute.String("status", failureStatus(err)))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("billing_type", string(session.BillingType)),
		)
		span.SetAttributes(
			attribute.String("slot.number", session.SlotNumber),
			attribute.Float64("billing.amount", session.Amount),
			attribute.Int64("billing.minutes", BillableMinutes(session.EntryTime, *session.ExitTime)),
		)
		span.AddEvent("slot_released")

		ipl.revenueCounter.Add(ctx, session.Amount, metric.WithAttributes(
			attribute.String("billing_type", string(session.BillingType)),
		))
		logging.Info(ctx, "vehicle checked out",
			logging.Plate(session.NumberPlate),
			logging.Slot(session.SlotNumber),
			logging.Session(session.ID),
			logging.Amount(session.Amount),
			logging.Duration(session.Duration()))
	}

	ipl.checkOutOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return session, err
}

func (ipl *InstrumentedParkingLot) SetSlotStatus(ctx context.Context, number string, status SlotStatus) (*Slot, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.set_slot_status",
		trace.WithAttributes(
			attribute.String("slot.number", number),
			attribute.String("slot.status", string(status)),
		))
	defer span.End()

	start := time.Now()

	slot, err := ipl.ParkingLot.SetSlotStatus(ctx, number, status)

	labels := []attribute.KeyValue{
		attribute.String("operation", "set_slot_status"),
	}
	if err != nil {
		recordFailure(span, err)
		labels = append(labels, attribute.String("status", failureStatus(err)))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		logging.Info(ctx, "slot status changed", logging.Slot(number), "status", status)
	}

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return slot, err
}

func (ipl *InstrumentedParkingLot) FindActiveSession(ctx context.Context, plate string) (*Session, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.find_active_session",
		trace.WithAttributes(
			attribute.String("vehicle.number_plate", NormalizePlate(plate)),
		))
	defer span.End()

	span.AddEvent("searching_by_plate")

	session, err := ipl.ParkingLot.FindActiveSession(ctx, plate)
	if err != nil {
		span.AddEvent("session_not_found")
	} else {
		span.SetAttributes(attribute.String("slot.number", session.SlotNumber))
	}

	return session, err
}

func recordFailure(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// failureStatus maps an error to a low-cardinality metric label.
func failureStatus(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoSlotAvailable):
		return "no_slot"
	case errors.Is(err, ErrDuplicateActiveSession):
		return "duplicate"
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidInterval):
		return "invalid"
	case errors.Is(err, ErrNotAvailable), errors.Is(err, ErrTypeMismatch), errors.Is(err, ErrChargerUnavailable):
		return "rejected"
	default:
		return "failed"
	}
}
