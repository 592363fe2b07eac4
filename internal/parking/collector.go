package parking

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// OccupancyCollector exposes live slot counts to Prometheus. Counts are read
// from the lot on every scrape.
type OccupancyCollector struct {
	lot         *ParkingLot
	slots       *prometheus.Desc
	parked      *prometheus.Desc
	floorsSlots *prometheus.Desc
}

func NewOccupancyCollector(lot *ParkingLot) *OccupancyCollector {
	constLabels := prometheus.Labels{"lot_id": lot.ID()}
	return &OccupancyCollector{
		lot: lot,
		slots: prometheus.NewDesc("parking_slots",
			"Parking slots by designated type and state.",
			[]string{"slot_type", "state"}, constLabels),
		parked: prometheus.NewDesc("parking_vehicles_parked",
			"Vehicles currently parked.",
			nil, constLabels),
		floorsSlots: prometheus.NewDesc("parking_floor_slots",
			"Parking slots per floor and state.",
			[]string{"floor", "state"}, constLabels),
	}
}

func (c *OccupancyCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.slots
	ch <- c.parked
	ch <- c.floorsSlots
}

func (c *OccupancyCollector) Collect(ch chan<- prometheus.Metric) {
	status := c.lot.Status()

	for _, t := range VehicleTypes() {
		ch <- prometheus.MustNewConstMetric(c.slots, prometheus.GaugeValue,
			float64(status.AvailableByType[t]), t.String(), "available")
		ch <- prometheus.MustNewConstMetric(c.slots, prometheus.GaugeValue,
			float64(status.OccupiedByType[t]), t.String(), "occupied")
	}

	ch <- prometheus.MustNewConstMetric(c.parked, prometheus.GaugeValue, float64(status.TotalParked))

	for _, f := range status.Floors {
		floor := strconv.Itoa(f.Number)
		ch <- prometheus.MustNewConstMetric(c.floorsSlots, prometheus.GaugeValue,
			float64(f.Available), floor, "available")
		ch <- prometheus.MustNewConstMetric(c.floorsSlots, prometheus.GaugeValue,
			float64(f.Occupied), floor, "occupied")
	}
}
