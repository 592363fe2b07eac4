package parking

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrAlreadyParked       = errors.New("vehicle already parked")
	ErrNoAvailableSlot     = errors.New("no available slot")
	ErrNotParked           = errors.New("vehicle not parked")
	ErrNoActiveTransaction = errors.New("no active transaction")
	ErrIncompatibleSlot    = errors.New("slot cannot accommodate vehicle")
	ErrSlotAlreadyEmpty    = errors.New("slot is already empty")
	ErrSlotNotFound        = errors.New("slot not found")
	ErrReceiptNotFound     = errors.New("receipt not found")
)
