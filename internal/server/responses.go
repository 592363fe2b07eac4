package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"parking-allocator/internal/parking"
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
	Meta    *Meta  `json:"meta,omitempty"`
}

type ParkVehicleRequest struct {
	LicensePlate string `json:"license_plate"`
	VehicleType  string `json:"vehicle_type"`
}

type UnparkVehicleRequest struct {
	LicensePlate string `json:"license_plate"`
}

type TransferVehicleRequest struct {
	LicensePlate string `json:"license_plate"`
	SlotID       string `json:"slot_id"`
}

type VehicleInfoResponse struct {
	LicensePlate  string              `json:"license_plate"`
	VehicleType   parking.VehicleType `json:"vehicle_type"`
	SlotID        string              `json:"slot_id"`
	FloorNumber   int                 `json:"floor_number"`
	TransactionID string              `json:"transaction_id"`
	EntryTime     time.Time           `json:"entry_time"`
	ElapsedHours  int64               `json:"elapsed_hours"`
	CurrentFee    float64             `json:"current_fee"`
}

type TransferResponse struct {
	Completed parking.Transaction `json:"completed"`
	Opened    parking.Transaction `json:"opened"`
}

type CloseResponse struct {
	Released     int                   `json:"released"`
	TotalBilled  float64               `json:"total_billed"`
	Transactions []parking.Transaction `json:"transactions"`
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
	WriteJSON(w, http.StatusOK, Response{
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
