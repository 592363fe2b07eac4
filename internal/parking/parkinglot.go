package parking

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ParkingLot owns the floors, the plate indexes and the pricing strategy.
// A plate is in vehicles iff it has an active transaction iff a slot holds it.
type ParkingLot struct {
	mu           sync.RWMutex
	id           string
	floors       []*Floor
	slots        map[string]*Slot
	vehicles     map[string]*Vehicle
	transactions map[string]*Transaction
	pricing      PricingStrategy
	now          func() time.Time
}

type Option func(*ParkingLot)

func WithPricingStrategy(pricing PricingStrategy) Option {
	return func(pl *ParkingLot) {
		pl.pricing = pricing
	}
}

// WithClock replaces time.Now for entry and exit timestamps.
func WithClock(now func() time.Time) Option {
	return func(pl *ParkingLot) {
		pl.now = now
	}
}

type VehicleInfo struct {
	Vehicle       Vehicle `json:"vehicle"`
	FloorNumber   int     `json:"floor_number"`
	TransactionID string  `json:"transaction_id"`
	ElapsedHours  int64   `json:"elapsed_hours"`
	CurrentFee    float64 `json:"current_fee"`
}

type FloorStatus struct {
	Number    int `json:"floor_number"`
	Total     int `json:"total_slots"`
	Available int `json:"available_slots"`
	Occupied  int `json:"occupied_slots"`
}

type Status struct {
	AvailableByType map[VehicleType]int `json:"available_by_type"`
	OccupiedByType  map[VehicleType]int `json:"occupied_by_type"`
	TotalParked     int                 `json:"total_parked"`
	TotalSlots      int                 `json:"total_slots"`
	Floors          []FloorStatus       `json:"floors"`
}

func NewParkingLot(id string, opts ...Option) *ParkingLot {
	pl := &ParkingLot{
		id:           id,
		slots:        make(map[string]*Slot),
		vehicles:     make(map[string]*Vehicle),
		transactions: make(map[string]*Transaction),
		pricing:      NewDefaultPricing(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(pl)
	}
	return pl
}

func (pl *ParkingLot) ID() string {
	return pl.id
}

// AddFloor appends a floor. Floors are searched in the order they are added.
func (pl *ParkingLot) AddFloor(floor *Floor) error {
	if floor == nil {
		return fmt.Errorf("%w: nil floor", ErrValidation)
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	for _, existing := range pl.floors {
		if existing.Number == floor.Number {
			return fmt.Errorf("%w: duplicate floor %d", ErrValidation, floor.Number)
		}
	}

	seen := make(map[string]bool, len(floor.slots))
	for _, slot := range floor.slots {
		switch {
		case slot.ID == "":
			return fmt.Errorf("%w: slot without id on floor %d", ErrValidation, floor.Number)
		case !slot.Type.Valid():
			return fmt.Errorf("%w: slot %s has unknown type", ErrValidation, slot.ID)
		case slot.FloorNumber != floor.Number:
			return fmt.Errorf("%w: slot %s belongs to floor %d, not %d",
				ErrValidation, slot.ID, slot.FloorNumber, floor.Number)
		case slot.IsOccupied:
			return fmt.Errorf("%w: slot %s is already occupied", ErrValidation, slot.ID)
		case seen[slot.ID]:
			return fmt.Errorf("%w: duplicate slot %s", ErrValidation, slot.ID)
		}
		if _, ok := pl.slots[slot.ID]; ok {
			return fmt.Errorf("%w: duplicate slot %s", ErrValidation, slot.ID)
		}
		seen[slot.ID] = true
	}

	for _, slot := range floor.slots {
		pl.slots[slot.ID] = slot
	}
	pl.floors = append(pl.floors, floor)
	return nil
}

func (pl *ParkingLot) SetPricingStrategy(pricing PricingStrategy) {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	pl.pricing = pricing
}

// Park assigns the first compatible slot, floor by floor, to a new vehicle
// and opens an active transaction for it.
func (pl *ParkingLot) Park(licensePlate string, vehicleType VehicleType) (Transaction, error) {
	if err := validatePlate(licensePlate); err != nil {
		return Transaction{}, err
	}
	if !vehicleType.Valid() {
		return Transaction{}, fmt.Errorf("%w: unknown vehicle type %d", ErrValidation, int(vehicleType))
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	if _, ok := pl.vehicles[licensePlate]; ok {
		return Transaction{}, fmt.Errorf("%w: %s", ErrAlreadyParked, licensePlate)
	}

	vehicle := NewVehicle(licensePlate, vehicleType, pl.now())
	slot, ok := pl.findAvailableSlot(vehicle)
	if !ok {
		return Transaction{}, fmt.Errorf("%w for %s", ErrNoAvailableSlot, vehicleType)
	}

	return pl.checkin(vehicle, slot)
}

// Unpark frees the vehicle's slot, bills it and completes its transaction.
func (pl *ParkingLot) Unpark(licensePlate string) (Transaction, error) {
	if err := validatePlate(licensePlate); err != nil {
		return Transaction{}, err
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	vehicle, tx, slot, err := pl.lookupParked(licensePlate)
	if err != nil {
		return Transaction{}, err
	}

	if err := pl.checkout(vehicle, tx, slot, pl.now()); err != nil {
		return Transaction{}, err
	}
	return tx.snapshot(), nil
}

// Transfer moves a parked vehicle to the named slot. The current transaction
// is completed and billed; a new one starts on the target slot.
func (pl *ParkingLot) Transfer(licensePlate, slotID string) (Transaction, Transaction, error) {
	if err := validatePlate(licensePlate); err != nil {
		return Transaction{}, Transaction{}, err
	}
	if strings.TrimSpace(slotID) == "" {
		return Transaction{}, Transaction{}, fmt.Errorf("%w: slot id is required", ErrValidation)
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	vehicle, tx, slot, err := pl.lookupParked(licensePlate)
	if err != nil {
		return Transaction{}, Transaction{}, err
	}

	target, ok := pl.slots[slotID]
	if !ok {
		return Transaction{}, Transaction{}, fmt.Errorf("%w: %s", ErrSlotNotFound, slotID)
	}
	if target == slot {
		return Transaction{}, Transaction{}, fmt.Errorf("%w: %s is already in slot %s",
			ErrValidation, licensePlate, slotID)
	}
	if !target.CanAccommodate(vehicle) {
		return Transaction{}, Transaction{}, fmt.Errorf("%w: slot %s (%s) for %s %s",
			ErrIncompatibleSlot, target.ID, target.Type, vehicle.Type, licensePlate)
	}

	now := pl.now()
	if err := pl.checkout(vehicle, tx, slot, now); err != nil {
		return Transaction{}, Transaction{}, err
	}

	opened, err := pl.checkin(NewVehicle(licensePlate, vehicle.Type, now), target)
	if err != nil {
		return Transaction{}, Transaction{}, err
	}
	return tx.snapshot(), opened, nil
}

// Close bills every parked vehicle and empties the lot. Completed
// transactions are returned in floor and slot order. Slots whose indexes
// disagree are left untouched and reported in the joined error; the rest of
// the lot is still released.
func (pl *ParkingLot) Close() ([]Transaction, error) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	now := pl.now()
	var completed []Transaction
	var errs []error
	for _, floor := range pl.floors {
		for _, slot := range floor.slots {
			if !slot.IsOccupied {
				continue
			}
			vehicle, tx, held, err := pl.lookupParked(slot.Plate)
			if err == nil && held != slot {
				err = fmt.Errorf("%w: %s points at %s, not %s",
					ErrSlotAlreadyEmpty, slot.Plate, held.ID, slot.ID)
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("close slot %s: %w", slot.ID, err))
				continue
			}
			if err := pl.checkout(vehicle, tx, slot, now); err != nil {
				errs = append(errs, fmt.Errorf("close slot %s: %w", slot.ID, err))
				continue
			}
			completed = append(completed, tx.snapshot())
		}
	}
	return completed, errors.Join(errs...)
}

// VehicleInfo reports the live fee a parked vehicle would owe right now.
func (pl *ParkingLot) VehicleInfo(licensePlate string) (VehicleInfo, error) {
	if err := validatePlate(licensePlate); err != nil {
		return VehicleInfo{}, err
	}

	pl.mu.RLock()
	defer pl.mu.RUnlock()

	vehicle, ok := pl.vehicles[licensePlate]
	if !ok {
		return VehicleInfo{}, fmt.Errorf("%w: %s", ErrNotParked, licensePlate)
	}

	now := pl.now()
	snapshot := *vehicle
	snapshot.ExitTime = &now

	info := VehicleInfo{
		Vehicle:      *vehicle,
		ElapsedHours: vehicle.ParkedHoursAt(now),
		CurrentFee:   pl.pricing.CalculateFee(snapshot),
	}
	if slot, ok := pl.slots[vehicle.SlotID]; ok {
		info.FloorNumber = slot.FloorNumber
	}
	if tx, ok := pl.transactions[licensePlate]; ok {
		info.TransactionID = tx.ID
	}
	return info, nil
}

func (pl *ParkingLot) Status() Status {
	pl.mu.RLock()
	defer pl.mu.RUnlock()

	status := Status{
		AvailableByType: make(map[VehicleType]int),
		OccupiedByType:  make(map[VehicleType]int),
		TotalParked:     len(pl.vehicles),
		Floors:          make([]FloorStatus, 0, len(pl.floors)),
	}
	for _, t := range VehicleTypes() {
		status.AvailableByType[t] = 0
		status.OccupiedByType[t] = 0
	}

	for _, floor := range pl.floors {
		fs := FloorStatus{Number: floor.Number, Total: floor.TotalSlots()}
		for _, slot := range floor.slots {
			if slot.IsOccupied {
				status.OccupiedByType[slot.Type]++
				fs.Occupied++
			} else {
				status.AvailableByType[slot.Type]++
				fs.Available++
			}
		}
		status.TotalSlots += fs.Total
		status.Floors = append(status.Floors, fs)
	}
	return status
}

// OccupiedSlots returns copies of the occupied slots in floor and slot order.
func (pl *ParkingLot) OccupiedSlots() []Slot {
	pl.mu.RLock()
	defer pl.mu.RUnlock()

	var occupied []Slot
	for _, floor := range pl.floors {
		for _, slot := range floor.OccupiedSlots() {
			occupied = append(occupied, *slot)
		}
	}
	return occupied
}

func (pl *ParkingLot) findAvailableSlot(vehicle *Vehicle) (*Slot, bool) {
	for _, floor := range pl.floors {
		if slot, ok := floor.FindAvailableSlot(vehicle); ok {
			return slot, true
		}
	}
	return nil, false
}

// lookupParked resolves everything an exit needs and checks the indexes
// agree, so callers can mutate without failing halfway.
func (pl *ParkingLot) lookupParked(licensePlate string) (*Vehicle, *Transaction, *Slot, error) {
	vehicle, ok := pl.vehicles[licensePlate]
	if !ok {
		return nil, nil, nil, fmt.Errorf("%w: %s", ErrNotParked, licensePlate)
	}
	tx, ok := pl.transactions[licensePlate]
	if !ok || !tx.IsActive() {
		return nil, nil, nil, fmt.Errorf("%w for %s", ErrNoActiveTransaction, licensePlate)
	}
	slot, ok := pl.slots[vehicle.SlotID]
	if !ok || !slot.IsOccupied || slot.Plate != licensePlate {
		return nil, nil, nil, fmt.Errorf("%w: %s is not held by %s",
			ErrSlotAlreadyEmpty, vehicle.SlotID, licensePlate)
	}
	return vehicle, tx, slot, nil
}

func (pl *ParkingLot) checkin(vehicle *Vehicle, slot *Slot) (Transaction, error) {
	if err := slot.Park(vehicle); err != nil {
		return Transaction{}, err
	}
	tx := newTransaction(vehicle, slot)
	pl.vehicles[vehicle.LicensePlate] = vehicle
	pl.transactions[vehicle.LicensePlate] = tx
	return tx.snapshot(), nil
}

// checkout must only be called with the results of lookupParked. The
// transaction is checked before the slot is touched so a failure leaves the
// indexes as they were.
func (pl *ParkingLot) checkout(vehicle *Vehicle, tx *Transaction, slot *Slot, exit time.Time) error {
	if !tx.IsActive() {
		return fmt.Errorf("%w: transaction %s is %s", ErrNoActiveTransaction, tx.ID, tx.Status)
	}
	if _, err := slot.Unpark(); err != nil {
		return err
	}

	billed := *vehicle
	billed.ExitTime = &exit
	if err := tx.complete(pl.pricing.CalculateFee(billed), exit); err != nil {
		return err
	}

	vehicle.SlotID = ""
	vehicle.ExitTime = &exit
	delete(pl.vehicles, vehicle.LicensePlate)
	delete(pl.transactions, vehicle.LicensePlate)
	return nil
}

func validatePlate(licensePlate string) error {
	if strings.TrimSpace(licensePlate) == "" {
		return fmt.Errorf("%w: license plate is required", ErrValidation)
	}
	return nil
}
