package server

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"mall-parking/internal/parking"
)

type Meta struct {
	TraceID   string `json:"trace_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Store   string `json:"store"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type CheckInRequest struct {
	NumberPlate  string `json:"numberPlate"`
	VehicleType  string `json:"vehicleType"`
	BillingType  string `json:"billingType"`
	ManualSlotID string `json:"manualSlotId,omitempty"`
}

type CheckInResponse struct {
	Session      parking.Session  `json:"session"`
	AssignedSlot parking.Slot     `json:"assignedSlot"`
	Fallback     parking.Fallback `json:"fallback,omitempty"`
}

type CheckOutResponse struct {
	Session parking.Session `json:"session"`
}

type SlotStatusRequest struct {
	Status string `json:"status"`
}

type HourlyPricingRequest struct {
	HourlyRates  []parking.Tier `json:"hourlyRates"`
	MaxHourlyCap *float64       `json:"maxHourlyCap"`
}

type DayPassPricingRequest struct {
	DayPassRate *float64 `json:"dayPassRate"`
}

func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func extractMeta(ctx context.Context) *Meta {
	meta := &Meta{}

	span := trace.SpanFromContext(ctx)
	if span.SpanContext().HasTraceID() {
		meta.TraceID = span.SpanContext().TraceID().String()
	}

	if reqID, ok := ctx.Value(RequestIDKey).(string); ok {
		meta.RequestID = reqID
	}

	return meta
}

func WriteSuccess(ctx context.Context, w http.ResponseWriter, message string, data any) {
	writeSuccess(ctx, w, http.StatusOK, message, data)
}

func WriteCreated(ctx context.Context, w http.ResponseWriter, message string, data any) {
	writeSuccess(ctx, w, http.StatusCreated, message, data)
}

func writeSuccess(ctx context.Context, w http.ResponseWriter, status int, message string, data any) {
	WriteJSON(w, status, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta:    extractMeta(ctx),
	})
}

func WriteError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Response{
		Success: false,
		Error:   message,
		Meta:    extractMeta(ctx),
	})
}
