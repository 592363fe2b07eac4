package parking

// Floor is an ordered run of slots. Insertion order is the search order.
type Floor struct {
	Number int
	slots  []*Slot
}

func NewFloor(number int) *Floor {
	return &Floor{Number: number}
}

func (f *Floor) AddSlot(slot *Slot) {
	f.slots = append(f.slots, slot)
}

// FindAvailableSlot returns the first slot able to take the vehicle.
func (f *Floor) FindAvailableSlot(vehicle *Vehicle) (*Slot, bool) {
	for _, slot := range f.slots {
		if slot.CanAccommodate(vehicle) {
			return slot, true
		}
	}
	return nil, false
}

// AvailableSlots returns the free slots designated for the given type.
func (f *Floor) AvailableSlots(slotType VehicleType) []*Slot {
	var available []*Slot
	for _, slot := range f.slots {
		if slot.Type == slotType && !slot.IsOccupied {
			available = append(available, slot)
		}
	}
	return available
}

func (f *Floor) OccupiedSlots() []*Slot {
	var occupied []*Slot
	for _, slot := range f.slots {
		if slot.IsOccupied {
			occupied = append(occupied, slot)
		}
	}
	return occupied
}

func (f *Floor) Slots() []*Slot {
	slots := make([]*Slot, len(f.slots))
	copy(slots, f.slots)
	return slots
}

func (f *Floor) TotalSlots() int {
	return len(f.slots)
}

func (f *Floor) AvailableCount() int {
	return f.TotalSlots() - f.OccupiedCount()
}

func (f *Floor) OccupiedCount() int {
	count := 0
	for _, slot := range f.slots {
		if slot.IsOccupied {
			count++
		}
	}
	return count
}
