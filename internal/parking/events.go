package parking

import "time"

type EventType string

const (
	EventParked    EventType = "vehicle_parked"
	EventUnparked  EventType = "vehicle_unparked"
	EventTransfer  EventType = "vehicle_transferred"
	EventLotClosed EventType = "lot_closed"
)

// Event is an occupancy change published after a successful operation.
type Event struct {
	Type          EventType   `json:"type"`
	LotID         string      `json:"lot_id"`
	LicensePlate  string      `json:"license_plate,omitempty"`
	VehicleType   VehicleType `json:"vehicle_type,omitempty"`
	SlotID        string      `json:"slot_id,omitempty"`
	FromSlotID    string      `json:"from_slot_id,omitempty"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Fee           float64     `json:"fee,omitempty"`
	Released      int         `json:"released,omitempty"`
	Timestamp     time.Time   `json:"timestamp"`
}

type EventPublisher interface {
	Publish(event Event)
}

func transactionEvent(eventType EventType, lotID string, tx Transaction, at time.Time) Event {
	return Event{
		Type:          eventType,
		LotID:         lotID,
		LicensePlate:  tx.LicensePlate,
		VehicleType:   tx.VehicleType,
		SlotID:        tx.SlotID,
		TransactionID: tx.ID,
		Fee:           tx.Fee,
		Timestamp:     at,
	}
}
