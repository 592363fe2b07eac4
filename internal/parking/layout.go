package parking

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Layout describes the floors of a lot and how many slots of each type
// they carry.
type Layout struct {
	Floors []FloorLayout `yaml:"floors"`
}

type FloorLayout struct {
	Number      int `yaml:"number"`
	Motorcycles int `yaml:"motorcycle_slots"`
	Cars        int `yaml:"car_slots"`
	Buses       int `yaml:"bus_slots"`
}

// DefaultLayout is a two-floor lot: 5/10/3 and 8/15/2 motorcycle/car/bus slots.
func DefaultLayout() Layout {
	return Layout{Floors: []FloorLayout{
		{Number: 1, Motorcycles: 5, Cars: 10, Buses: 3},
		{Number: 2, Motorcycles: 8, Cars: 15, Buses: 2},
	}}
}

func LoadLayout(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, err
	}
	defer f.Close()

	return DecodeLayout(f)
}

func DecodeLayout(r io.Reader) (Layout, error) {
	var layout Layout
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&layout); err != nil {
		return Layout{}, fmt.Errorf("decode layout: %w", err)
	}
	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

func (l Layout) Validate() error {
	if len(l.Floors) == 0 {
		return fmt.Errorf("%w: layout has no floors", ErrValidation)
	}
	seen := make(map[int]bool, len(l.Floors))
	for _, f := range l.Floors {
		if seen[f.Number] {
			return fmt.Errorf("%w: duplicate floor %d", ErrValidation, f.Number)
		}
		seen[f.Number] = true
		if f.Motorcycles < 0 || f.Cars < 0 || f.Buses < 0 {
			return fmt.Errorf("%w: floor %d has a negative slot count", ErrValidation, f.Number)
		}
	}
	return nil
}

// BuildFloors builds the floors. Slot ids are F<floor>-M<n>, F<floor>-C<n> and
// F<floor>-B<n>, motorcycle slots first.
func (l Layout) BuildFloors() []*Floor {
	floors := make([]*Floor, 0, len(l.Floors))
	for _, fl := range l.Floors {
		floor := NewFloor(fl.Number)
		addSlots(floor, Motorcycle, "M", fl.Motorcycles)
		addSlots(floor, Car, "C", fl.Cars)
		addSlots(floor, Bus, "B", fl.Buses)
		floors = append(floors, floor)
	}
	return floors
}

func addSlots(floor *Floor, slotType VehicleType, prefix string, count int) {
	for i := 1; i <= count; i++ {
		id := fmt.Sprintf("F%d-%s%d", floor.Number, prefix, i)
		floor.AddSlot(NewSlot(id, slotType, floor.Number))
	}
}

// NewParkingLotFromLayout validates the layout and builds a lot from it.
func NewParkingLotFromLayout(id string, layout Layout, opts ...Option) (*ParkingLot, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	pl := NewParkingLot(id, opts...)
	for _, floor := range layout.BuildFloors() {
		if err := pl.AddFloor(floor); err != nil {
			return nil, err
		}
	}
	return pl, nil
}
