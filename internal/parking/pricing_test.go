package parking

import (
	"testing"
	"time"
)

func parkedFor(vt VehicleType, entry time.Time, d time.Duration) Vehicle {
	exit := entry.Add(d)
	return Vehicle{LicensePlate: "P", Type: vt, EntryTime: entry, ExitTime: &exit}
}

func TestDefaultPricing(t *testing.T) {
	pricing := NewDefaultPricing()
	entry := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		v    Vehicle
		want float64
	}{
		{"motorcycle 3h", parkedFor(Motorcycle, entry, 3*time.Hour), 3.0},
		{"car 90m", parkedFor(Car, entry, 90*time.Minute), 2.0},
		{"car 59m", parkedFor(Car, entry, 59*time.Minute), 0},
		{"bus 2h", parkedFor(Bus, entry, 2*time.Hour), 10.0},
		{"unknown type", parkedFor(VehicleType(7), entry, 5*time.Hour), 0},
		{"not left yet", Vehicle{LicensePlate: "P", Type: Car, EntryTime: entry}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pricing.CalculateFee(tt.v); got != tt.want {
				t.Errorf("Expected fee %.2f, got %.2f", tt.want, got)
			}
		})
	}
}

func TestDefaultPricingRatesAreIndependent(t *testing.T) {
	a := NewDefaultPricing()
	a.Rates[Car] = 100

	b := NewDefaultPricing()
	if b.HourlyRate(Car) != 2.0 {
		t.Errorf("Expected a fresh pricing table, got car rate %.2f", b.HourlyRate(Car))
	}
}

func TestPeakPricing(t *testing.T) {
	peak := &PeakPricing{Base: NewDefaultPricing(), Multiplier: 1.5, StartHour: 7, EndHour: 10}

	inWindow := parkedFor(Car, time.Date(2024, 1, 1, 8, 30, 0, 0, time.UTC), 2*time.Hour)
	if got := peak.CalculateFee(inWindow); got != 6.0 {
		t.Errorf("Expected peak fee 6.0, got %.2f", got)
	}

	atEnd := parkedFor(Car, time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), 2*time.Hour)
	if got := peak.CalculateFee(atEnd); got != 4.0 {
		t.Errorf("Expected off-peak fee 4.0, got %.2f", got)
	}
}

func TestPeakPricingWrapsMidnight(t *testing.T) {
	peak := &PeakPricing{Base: NewDefaultPricing(), Multiplier: 2, StartHour: 22, EndHour: 2}

	for hour, want := range map[int]float64{23: 2.0, 1: 2.0, 2: 1.0, 12: 1.0} {
		v := parkedFor(Motorcycle, time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC), time.Hour)
		if got := peak.CalculateFee(v); got != want {
			t.Errorf("Entry at %02d:00: expected %.2f, got %.2f", hour, want, got)
		}
	}
}
