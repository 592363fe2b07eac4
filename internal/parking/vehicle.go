package parking

import (
	"fmt"
	"strings"
	"time"
)

type VehicleType int

const (
	Motorcycle VehicleType = iota + 1
	Car
	Bus
)

var vehicleTypeNames = map[VehicleType]string{
	Motorcycle: "motorcycle",
	Car:        "car",
	Bus:        "bus",
}

// VehicleTypes returns every vehicle type in declaration order.
func VehicleTypes() []VehicleType {
	return []VehicleType{Motorcycle, Car, Bus}
}

func ParseVehicleType(s string) (VehicleType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range vehicleTypeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown vehicle type %q", ErrValidation, s)
}

func (t VehicleType) String() string {
	if name, ok := vehicleTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

func (t VehicleType) Valid() bool {
	_, ok := vehicleTypeNames[t]
	return ok
}

// CanAccommodate reports whether a slot designated t can hold a vehicle of
// type other. Larger slots serve smaller vehicles, never the reverse.
func (t VehicleType) CanAccommodate(other VehicleType) bool {
	switch t {
	case Motorcycle:
		return other == Motorcycle
	case Car:
		return other == Motorcycle || other == Car
	case Bus:
		return other == Motorcycle || other == Car || other == Bus
	default:
		return false
	}
}

func (t VehicleType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unknown vehicle type %d", ErrValidation, int(t))
	}
	return []byte(t.String()), nil
}

func (t *VehicleType) UnmarshalText(text []byte) error {
	parsed, err := ParseVehicleType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

type Vehicle struct {
	LicensePlate string      `json:"license_plate"`
	Type         VehicleType `json:"vehicle_type"`
	EntryTime    time.Time   `json:"entry_time"`
	ExitTime     *time.Time  `json:"exit_time,omitempty"`
	SlotID       string      `json:"slot_id,omitempty"`
}

func NewVehicle(licensePlate string, vehicleType VehicleType, entryTime time.Time) *Vehicle {
	return &Vehicle{
		LicensePlate: licensePlate,
		Type:         vehicleType,
		EntryTime:    entryTime,
	}
}

// ParkedHours is the whole number of hours between entry and exit, truncated.
// A vehicle that has not left yet has no billable hours; use ParkedHoursAt
// with the lot's clock for a running figure.
func (v Vehicle) ParkedHours() int64 {
	if v.ExitTime == nil {
		return 0
	}
	return v.ParkedHoursAt(*v.ExitTime)
}

// ParkedHoursAt measures up to the exit time if there is one, else up to now.
func (v Vehicle) ParkedHoursAt(now time.Time) int64 {
	end := now
	if v.ExitTime != nil {
		end = *v.ExitTime
	}
	d := end.Sub(v.EntryTime)
	if d < 0 {
		return 0
	}
	return int64(d / time.Hour)
}
