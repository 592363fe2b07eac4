package parking

import "fmt"

type Slot struct {
	ID          string      `json:"slot_id"`
	FloorNumber int         `json:"floor_number"`
	Type        VehicleType `json:"slot_type"`
	IsOccupied  bool        `json:"occupied"`
	Plate       string      `json:"license_plate,omitempty"`
}

func NewSlot(id string, slotType VehicleType, floorNumber int) *Slot {
	return &Slot{
		ID:          id,
		FloorNumber: floorNumber,
		Type:        slotType,
	}
}

func (s *Slot) CanAccommodate(vehicle *Vehicle) bool {
	return !s.IsOccupied && s.Type.CanAccommodate(vehicle.Type)
}

// Park binds the vehicle to the slot and records the slot on the vehicle.
func (s *Slot) Park(vehicle *Vehicle) error {
	if !s.CanAccommodate(vehicle) {
		return fmt.Errorf("%w: slot %s (%s) for %s %s",
			ErrIncompatibleSlot, s.ID, s.Type, vehicle.Type, vehicle.LicensePlate)
	}
	s.Plate = vehicle.LicensePlate
	s.IsOccupied = true
	vehicle.SlotID = s.ID
	return nil
}

// Unpark frees the slot and returns the plate of the vehicle that left.
func (s *Slot) Unpark() (string, error) {
	if !s.IsOccupied {
		return "", fmt.Errorf("%w: slot %s", ErrSlotAlreadyEmpty, s.ID)
	}
	plate := s.Plate
	s.Plate = ""
	s.IsOccupied = false
	return plate, nil
}
