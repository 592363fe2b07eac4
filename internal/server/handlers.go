package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"parking-allocator/internal/parking"
)

// Allocator is the parking surface the HTTP handlers drive.
type Allocator interface {
	Park(ctx context.Context, licensePlate string, vehicleType parking.VehicleType) (parking.Transaction, error)
	Unpark(ctx context.Context, licensePlate string) (parking.Transaction, error)
	Transfer(ctx context.Context, licensePlate, slotID string) (parking.Transaction, parking.Transaction, error)
	Close(ctx context.Context) ([]parking.Transaction, error)
	VehicleInfo(ctx context.Context, licensePlate string) (parking.VehicleInfo, error)
	Status(ctx context.Context) parking.Status
	Receipt(ctx context.Context, transactionID string) (parking.Transaction, error)
	ReceiptsByPlate(ctx context.Context, licensePlate string) ([]parking.Transaction, error)
}

type Handler struct {
	allocator   Allocator
	serviceName string
}

func NewHandler(allocator Allocator, serviceName string) *Handler {
	return &Handler{allocator: allocator, serviceName: serviceName}
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Service: h.serviceName,
		Meta:    extractMeta(r.Context()),
	})
}

func (h *Handler) ParkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ParkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.LicensePlate) == "" || req.VehicleType == "" {
		WriteError(ctx, w, http.StatusBadRequest, "License plate and vehicle type are required")
		return
	}

	vehicleType, err := parking.ParseVehicleType(req.VehicleType)
	if err != nil {
		WriteError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.allocator.Park(ctx, req.LicensePlate, vehicleType)
	if err != nil {
		writeParkingError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle parked successfully", tx)
}

func (h *Handler) UnparkVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UnparkVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.LicensePlate) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "License plate is required")
		return
	}

	tx, err := h.allocator.Unpark(ctx, req.LicensePlate)
	if err != nil {
		writeParkingError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle unparked successfully", tx)
}

func (h *Handler) TransferVehicle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req TransferVehicleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(ctx, w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.LicensePlate) == "" || strings.TrimSpace(req.SlotID) == "" {
		WriteError(ctx, w, http.StatusBadRequest, "License plate and slot id are required")
		return
	}

	completed, opened, err := h.allocator.Transfer(ctx, req.LicensePlate, req.SlotID)
	if err != nil {
		writeParkingError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle transferred successfully", TransferResponse{
		Completed: completed,
		Opened:    opened,
	})
}

func (h *Handler) CloseLot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	completed, err := h.allocator.Close(ctx)
	if err != nil {
		// the indexes disagree; whatever could be released already was
		WriteError(ctx, w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := CloseResponse{
		Released:     len(completed),
		Transactions: completed,
	}
	if resp.Transactions == nil {
		resp.Transactions = []parking.Transaction{}
	}
	for _, tx := range completed {
		resp.TotalBilled += tx.Fee
	}

	WriteSuccess(ctx, w, "Parking lot closed", resp)
}

func (h *Handler) GetVehicleInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	licensePlate := chi.URLParam(r, "plate")

	info, err := h.allocator.VehicleInfo(ctx, licensePlate)
	if err != nil {
		writeParkingError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Vehicle found", VehicleInfoResponse{
		LicensePlate:  info.Vehicle.LicensePlate,
		VehicleType:   info.Vehicle.Type,
		SlotID:        info.Vehicle.SlotID,
		FloorNumber:   info.FloorNumber,
		TransactionID: info.TransactionID,
		EntryTime:     info.Vehicle.EntryTime,
		ElapsedHours:  info.ElapsedHours,
		CurrentFee:    info.CurrentFee,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	WriteSuccess(ctx, w, "Parking lot status retrieved", h.allocator.Status(ctx))
}

func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	transactionID := chi.URLParam(r, "id")

	tx, err := h.allocator.Receipt(ctx, transactionID)
	if err != nil {
		writeParkingError(ctx, w, err)
		return
	}

	WriteSuccess(ctx, w, "Receipt found", tx)
}

// ListReceipts returns the retained receipts for ?plate=, newest exit first.
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	licensePlate := r.URL.Query().Get("plate")

	receipts, err := h.allocator.ReceiptsByPlate(ctx, licensePlate)
	if err != nil {
		writeParkingError(ctx, w, err)
		return
	}
	if receipts == nil {
		receipts = []parking.Transaction{}
	}

	WriteSuccess(ctx, w, "Receipts found", receipts)
}

func writeParkingError(ctx context.Context, w http.ResponseWriter, err error) {
	WriteError(ctx, w, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, parking.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, parking.ErrNotParked),
		errors.Is(err, parking.ErrReceiptNotFound),
		errors.Is(err, parking.ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, parking.ErrAlreadyParked),
		errors.Is(err, parking.ErrNoAvailableSlot),
		errors.Is(err, parking.ErrNoActiveTransaction),
		errors.Is(err, parking.ErrIncompatibleSlot):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
