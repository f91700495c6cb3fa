package logging

import (
	"log/slog"
	"time"
)

// Keys shared by every parking log line, so plates and sessions can be
// searched the same way across check-in, check-out and the HTTP layer.
const (
	KeyPlate    = "parking.plate"
	KeySlot     = "parking.slot"
	KeySession  = "parking.session_id"
	KeyFallback = "parking.fallback"
	KeyAmount   = "parking.amount"
)

func Plate(plate string) slog.Attr {
	return slog.String(KeyPlate, plate)
}

func Slot(number string) slog.Attr {
	return slog.String(KeySlot, number)
}

func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

func Fallback(rule string) slog.Attr {
	return slog.String(KeyFallback, rule)
}

func Amount(amount float64) slog.Attr {
	return slog.Float64(KeyAmount, amount)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("parking.duration", d)
}

// Err is the error attribute; a nil error logs nothing.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}
