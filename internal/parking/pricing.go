package parking

// PricingStrategy computes the fee owed by a vehicle. The vehicle passed in
// carries the exit time to bill against.
type PricingStrategy interface {
	CalculateFee(vehicle Vehicle) float64
}

var defaultHourlyRates = map[VehicleType]float64{
	Motorcycle: 1.0,
	Car:        2.0,
	Bus:        5.0,
}

// DefaultPricing bills whole parked hours at a per-type hourly rate.
type DefaultPricing struct {
	Rates map[VehicleType]float64
}

func NewDefaultPricing() *DefaultPricing {
	rates := make(map[VehicleType]float64, len(defaultHourlyRates))
	for t, r := range defaultHourlyRates {
		rates[t] = r
	}
	return &DefaultPricing{Rates: rates}
}

func (p *DefaultPricing) CalculateFee(vehicle Vehicle) float64 {
	return float64(vehicle.ParkedHours()) * p.HourlyRate(vehicle.Type)
}

// HourlyRate returns 0 for types missing from the table.
func (p *DefaultPricing) HourlyRate(vehicleType VehicleType) float64 {
	return p.Rates[vehicleType]
}

// PeakPricing scales the base fee when the vehicle entered during the
// [StartHour, EndHour) window, in the entry time's location.
type PeakPricing struct {
	Base       PricingStrategy
	Multiplier float64
	StartHour  int
	EndHour    int
}

func (p *PeakPricing) CalculateFee(vehicle Vehicle) float64 {
	fee := p.Base.CalculateFee(vehicle)
	if p.isPeak(vehicle.EntryTime.Hour()) {
		return fee * p.Multiplier
	}
	return fee
}

func (p *PeakPricing) isPeak(hour int) bool {
	if p.StartHour <= p.EndHour {
		return hour >= p.StartHour && hour < p.EndHour
	}
	// window wraps midnight
	return hour >= p.StartHour || hour < p.EndHour
}
