package parking

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type mapReceipts map[string]Transaction

func (m mapReceipts) Put(tx Transaction) error {
	m[tx.ID] = tx
	return nil
}

func (m mapReceipts) Get(id string) (Transaction, bool) {
	tx, ok := m[id]
	return tx, ok
}

func (m mapReceipts) ByPlate(licensePlate string) []Transaction {
	var out []Transaction
	for _, tx := range m {
		if tx.LicensePlate == licensePlate {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExitTime.After(*out[j].ExitTime)
	})
	return out
}

type instrumentedFixture struct {
	lot       *InstrumentedParkingLot
	clock     *fakeClock
	spans     *tracetest.SpanRecorder
	reader    *sdkmetric.ManualReader
	publisher *recordingPublisher
	receipts  mapReceipts
}

func newInstrumentedFixture(t *testing.T) *instrumentedFixture {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	telemetry := NewTelemetryProviderFrom(tp, mp, nil)
	t.Cleanup(func() {
		_ = telemetry.Shutdown(context.Background())
	})

	clock := newFakeClock()
	pl, err := NewParkingLotFromLayout("PL-TEST", Layout{Floors: []FloorLayout{
		{Number: 1, Motorcycles: 1, Cars: 1, Buses: 1},
	}}, WithClock(clock.Now))
	require.NoError(t, err)

	ipl, err := NewInstrumentedParkingLot(pl, telemetry)
	require.NoError(t, err)

	publisher := &recordingPublisher{}
	receipts := mapReceipts{}
	ipl.SetPublisher(publisher)
	ipl.SetReceiptStore(receipts)

	return &instrumentedFixture{
		lot:       ipl,
		clock:     clock,
		spans:     spans,
		reader:    reader,
		publisher: publisher,
		receipts:  receipts,
	}
}

func (f *instrumentedFixture) spanNames() []string {
	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	return names
}

func (f *instrumentedFixture) sum(t *testing.T, name string) float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, f.reader.Collect(context.Background(), &rm))

	total := 0.0
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					total += float64(dp.Value)
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func TestInstrumentedParkingLotIntegration(t *testing.T) {
	f := newInstrumentedFixture(t)
	ctx := context.Background()

	parked, err := f.lot.Park(ctx, "KA01HH1234", Car)
	require.NoError(t, err)
	assert.Equal(t, "F1-C1", parked.SlotID)

	status := f.lot.Status(ctx)
	assert.Equal(t, 1, status.TotalParked)

	info, err := f.lot.VehicleInfo(ctx, "KA01HH1234")
	require.NoError(t, err)
	assert.Equal(t, parked.ID, info.TransactionID)

	f.clock.Advance(2*time.Hour + 10*time.Minute)

	left, err := f.lot.Unpark(ctx, "KA01HH1234")
	require.NoError(t, err)
	assert.Equal(t, 4.0, left.Fee)
	assert.Equal(t, TransactionCompleted, left.Status)

	receipt, err := f.lot.Receipt(ctx, left.ID)
	require.NoError(t, err)
	assert.Equal(t, left, receipt)

	assert.Equal(t, []string{
		"parking_lot.park",
		"parking_lot.get_status",
		"parking_lot.vehicle_info",
		"parking_lot.unpark",
		"parking_lot.receipt",
	}, f.spanNames())

	assert.Equal(t, []EventType{EventParked, EventUnparked}, f.publisher.types())

	assert.Equal(t, 1.0, f.sum(t, "parking_operations_total"))
	assert.Equal(t, 1.0, f.sum(t, "leaving_operations_total"))
	assert.Equal(t, 0.0, f.sum(t, "parking_lot_occupancy"))
	assert.Equal(t, 3.0, f.sum(t, "parking_lot_total_slots"))
	assert.Equal(t, 4.0, f.sum(t, "parking_fees_collected"))
}

func TestInstrumentedParkingLotFailuresAreRecorded(t *testing.T) {
	f := newInstrumentedFixture(t)
	ctx := context.Background()

	_, err := f.lot.Unpark(ctx, "GHOST")
	assert.ErrorIs(t, err, ErrNotParked)

	_, err = f.lot.Receipt(ctx, "TXN-missing")
	assert.ErrorIs(t, err, ErrReceiptNotFound)

	_, err = f.lot.VehicleInfo(ctx, "GHOST")
	assert.ErrorIs(t, err, ErrNotParked)

	ended := f.spans.Ended()
	require.NotEmpty(t, ended)
	assert.Equal(t, "parking_lot.unpark", ended[0].Name())
	assert.Equal(t, "Error", ended[0].Status().Code.String())

	assert.Empty(t, f.publisher.types())
	assert.Equal(t, 1.0, f.sum(t, "leaving_operations_total"))
}

func TestInstrumentedParkingLotTransferAndClose(t *testing.T) {
	f := newInstrumentedFixture(t)
	ctx := context.Background()

	_, err := f.lot.Park(ctx, "CAR-1", Car)
	require.NoError(t, err)
	_, err = f.lot.Park(ctx, "MOTO-1", Motorcycle)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)

	completed, opened, err := f.lot.Transfer(ctx, "CAR-1", "F1-B1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, completed.Fee)
	assert.Equal(t, "F1-B1", opened.SlotID)

	f.clock.Advance(time.Hour)

	closed, err := f.lot.Close(ctx)
	require.NoError(t, err)
	require.Len(t, closed, 2)
	assert.Equal(t, "F1-M1", closed[0].SlotID)
	assert.Equal(t, "F1-B1", closed[1].SlotID)

	assert.Len(t, f.receipts, 3)
	assert.Equal(t, 0.0, f.sum(t, "parking_lot_occupancy"))
	assert.Equal(t, 0, f.lot.Status(ctx).TotalParked)

	assert.Equal(t, []EventType{EventParked, EventParked, EventTransfer, EventLotClosed}, f.publisher.types())
	f.publisher.mu.Lock()
	transfer := f.publisher.events[2]
	closedEvent := f.publisher.events[3]
	f.publisher.mu.Unlock()
	assert.Equal(t, "F1-C1", transfer.FromSlotID)
	assert.Equal(t, "F1-B1", transfer.SlotID)
	assert.Equal(t, 2, closedEvent.Released)
}

func TestInstrumentedParkingLotReceiptsByPlate(t *testing.T) {
	f := newInstrumentedFixture(t)
	ctx := context.Background()

	_, err := f.lot.Park(ctx, "CAR-1", Car)
	require.NoError(t, err)
	f.clock.Advance(time.Hour)
	first, err := f.lot.Unpark(ctx, "CAR-1")
	require.NoError(t, err)

	_, err = f.lot.Park(ctx, "CAR-1", Car)
	require.NoError(t, err)
	f.clock.Advance(2 * time.Hour)
	second, err := f.lot.Unpark(ctx, "CAR-1")
	require.NoError(t, err)

	history, err := f.lot.ReceiptsByPlate(ctx, "CAR-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)
	assert.Equal(t, first.ID, history[1].ID)

	none, err := f.lot.ReceiptsByPlate(ctx, "NOPE")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = f.lot.ReceiptsByPlate(ctx, " ")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInstrumentedParkingLotCloseReportsBrokenSlots(t *testing.T) {
	f := newInstrumentedFixture(t)
	ctx := context.Background()

	_, err := f.lot.Park(ctx, "CAR-1", Car)
	require.NoError(t, err)
	_, err = f.lot.Park(ctx, "BUS-1", Bus)
	require.NoError(t, err)

	f.lot.ParkingLot.mu.Lock()
	delete(f.lot.ParkingLot.transactions, "CAR-1")
	f.lot.ParkingLot.mu.Unlock()

	closed, err := f.lot.Close(ctx)
	require.ErrorIs(t, err, ErrNoActiveTransaction)
	assert.Contains(t, err.Error(), "F1-C1")

	require.Len(t, closed, 1)
	assert.Equal(t, "BUS-1", closed[0].LicensePlate)

	var closeSpan sdktrace.ReadOnlySpan
	for _, s := range f.spans.Ended() {
		if s.Name() == "parking_lot.close" {
			closeSpan = s
		}
	}
	require.NotNil(t, closeSpan)
	assert.Equal(t, "Error", closeSpan.Status().Code.String())
}
