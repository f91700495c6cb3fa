package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell is the operator console: one command per line.
type Shell struct {
	lot       *InstrumentedParkingLot
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
	warn      *color.Color
	fail      *color.Color
}

func NewShell(lot *InstrumentedParkingLot, in io.Reader, out io.Writer, telemetry *TelemetryProvider) *Shell {
	return &Shell{
		lot:       lot,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: telemetry,
		warn:      color.New(color.FgYellow),
		fail:      color.New(color.FgRed),
	}
}

func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	for {
		if ctx.Err() != nil || !s.scanner.Scan() {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "seed":
		s.handleSeed(ctx)
	case "checkin":
		s.handleCheckIn(ctx, parts)
	case "checkout":
		s.handleCheckOut(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "find":
		s.handleFind(ctx, parts)
	case "maintenance":
		s.handleSlotStatus(ctx, parts, StatusMaintenance)
	case "available":
		s.handleSlotStatus(ctx, parts, StatusAvailable)
	case "pricing":
		s.handlePricing(ctx)
	default:
		fmt.Fprintf(s.out, "Unknown command: %s\n", parts[0])
	}
}

func (s *Shell) handleSeed(ctx context.Context) {
	slots, err := s.lot.SeedSlots(ctx, DefaultSlotSpecs())
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}
	fmt.Fprintf(s.out, "Seeded %d slots\n", len(slots))
}

func (s *Shell) handleCheckIn(ctx context.Context, parts []string) {
	if len(parts) != 4 && len(parts) != 5 {
		fmt.Fprintln(s.out, "Usage: checkin <number_plate> <vehicle_type> <billing_type> [slot_number]")
		return
	}

	vehicleType, err := ParseVehicleType(parts[2])
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}
	billingType, err := ParseBillingType(parts[3])
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	req := CheckInRequest{
		NumberPlate: parts[1],
		VehicleType: vehicleType,
		BillingType: billingType,
	}
	if len(parts) == 5 {
		req.ManualSlot = parts[4]
	}

	result, err := s.lot.CheckIn(ctx, req)
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	if result.Fallback != FallbackNone {
		s.warn.Fprintf(s.out, "Warning: slot %s assigned by fallback (%s)\n", result.Slot.Number, result.Fallback)
	}
	fmt.Fprintf(s.out, "Allocated slot %s, session %s\n", result.Slot.Number, result.Session.ID)
}

func (s *Shell) handleCheckOut(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		fmt.Fprintln(s.out, "Usage: checkout <session_id>")
		return
	}

	session, err := s.lot.CheckOut(ctx, parts[1])
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	fmt.Fprintf(s.out, "Slot %s is free, amount due %.2f\n", session.SlotNumber, session.Amount)
}

func (s *Shell) handleStatus(ctx context.Context) {
	slots, err := s.lot.ListSlots(ctx, SlotFilter{})
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}
	if len(slots) == 0 {
		fmt.Fprintln(s.out, "No slots. Run seed first")
		return
	}

	fmt.Fprintln(s.out, "Slot\tType\tStatus\tCharger\tVehicle\tSince")
	for _, slot := range slots {
		vehicle, since := "-", "-"
		if slot.CurrentSession != nil {
			vehicle = slot.CurrentSession.NumberPlate
			since = slot.CurrentSession.EntryTime.Format("15:04")
		}
		fmt.Fprintf(s.out, "%s\t%s\t%s\t%t\t%s\t%s\n", slot.Number, slot.Type, slot.Status, slot.ChargerAvailable, vehicle, since)
	}
}

func (s *Shell) handleFind(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		fmt.Fprintln(s.out, "Usage: find <number_plate>")
		return
	}

	session, err := s.lot.FindActiveSession(ctx, parts[1])
	if errors.Is(err, ErrNotFound) {
		fmt.Fprintln(s.out, "Not found")
		return
	}
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	fmt.Fprintf(s.out, "%s\t%s\t%s\t%s\n", session.ID, session.SlotNumber, session.BillingType, session.EntryTime.Format("2006-01-02 15:04"))
}

func (s *Shell) handleSlotStatus(ctx context.Context, parts []string, status SlotStatus) {
	if len(parts) != 2 {
		fmt.Fprintf(s.out, "Usage: %s <slot_number>\n", parts[0])
		return
	}

	slot, err := s.lot.SetSlotStatus(ctx, parts[1], status)
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	fmt.Fprintf(s.out, "Slot %s is now %s\n", slot.Number, slot.Status)
}

func (s *Shell) handlePricing(ctx context.Context) {
	pricing, err := s.lot.Pricing(ctx)
	if err != nil {
		s.fail.Fprintf(s.out, "Error: %s\n", err)
		return
	}

	for _, tier := range pricing.Hourly.Tiers {
		fmt.Fprintf(s.out, "up to %gh\t%.2f\n", tier.DurationHours, tier.Amount)
	}
	fmt.Fprintf(s.out, "cap\t%.2f\n", pricing.Hourly.MaxCap)
	fmt.Fprintf(s.out, "day pass\t%.2f\n", pricing.DayPass.Rate)
}
