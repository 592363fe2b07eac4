package parking

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TransactionStatus string

const (
	TransactionActive    TransactionStatus = "active"
	TransactionCompleted TransactionStatus = "completed"
)

// Transaction records one park-to-unpark cycle. Vehicle and slot are
// referenced by key.
type Transaction struct {
	ID           string            `json:"transaction_id"`
	LicensePlate string            `json:"license_plate"`
	VehicleType  VehicleType       `json:"vehicle_type"`
	SlotID       string            `json:"slot_id"`
	SlotType     VehicleType       `json:"slot_type"`
	FloorNumber  int               `json:"floor_number"`
	EntryTime    time.Time         `json:"entry_time"`
	ExitTime     *time.Time        `json:"exit_time,omitempty"`
	Fee          float64           `json:"fee"`
	Status       TransactionStatus `json:"status"`
}

func newTransaction(vehicle *Vehicle, slot *Slot) *Transaction {
	return &Transaction{
		ID:           "TXN-" + uuid.NewString(),
		LicensePlate: vehicle.LicensePlate,
		VehicleType:  vehicle.Type,
		SlotID:       slot.ID,
		SlotType:     slot.Type,
		FloorNumber:  slot.FloorNumber,
		EntryTime:    vehicle.EntryTime,
		Status:       TransactionActive,
	}
}

func (t *Transaction) IsActive() bool {
	return t.Status == TransactionActive
}

func (t *Transaction) complete(fee float64, exitTime time.Time) error {
	if !t.IsActive() {
		return fmt.Errorf("%w: transaction %s is %s", ErrNoActiveTransaction, t.ID, t.Status)
	}
	t.Fee = fee
	t.ExitTime = &exitTime
	t.Status = TransactionCompleted
	return nil
}

// ParkedHours is the truncated whole-hour duration of the transaction.
func (t Transaction) ParkedHours() int64 {
	return Vehicle{EntryTime: t.EntryTime, ExitTime: t.ExitTime}.ParkedHours()
}

func (t *Transaction) snapshot() Transaction {
	out := *t
	if t.ExitTime != nil {
		exit := *t.ExitTime
		out.ExitTime = &exit
	}
	return out
}
