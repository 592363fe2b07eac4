package parking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type InstrumentedParkingLot struct {
	*ParkingLot
	telemetry *TelemetryProvider
	publisher EventPublisher
	receipts  ReceiptStore

	// Metrics
	parkingOperations metric.Int64Counter
	leavingOperations metric.Int64Counter
	occupancyGauge    metric.Int64UpDownCounter
	operationDuration metric.Float64Histogram
	totalSlotsGauge   metric.Int64UpDownCounter
	feesCollected     metric.Float64Counter
	parkedHours       metric.Int64Histogram
}

func NewInstrumentedParkingLot(lot *ParkingLot, telemetry *TelemetryProvider) (*InstrumentedParkingLot, error) {
	meter := telemetry.Meter()

	parkingOperations, err := meter.Int64Counter("parking_operations_total",
		metric.WithDescription("Total number of parking operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	leavingOperations, err := meter.Int64Counter("leaving_operations_total",
		metric.WithDescription("Total number of unpark operations"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	occupancyGauge, err := meter.Int64UpDownCounter("parking_lot_occupancy",
		metric.WithDescription("Current number of occupied parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	operationDuration, err := meter.Float64Histogram("operation_duration_seconds",
		metric.WithDescription("Duration of parking lot operations"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	totalSlotsGauge, err := meter.Int64UpDownCounter("parking_lot_total_slots",
		metric.WithDescription("Total number of parking slots"),
		metric.WithUnit("1"))
	if err != nil {
		return nil, err
	}

	feesCollected, err := meter.Float64Counter("parking_fees_collected",
		metric.WithDescription("Fees billed on completed transactions"),
		metric.WithUnit("{currency}"))
	if err != nil {
		return nil, err
	}

	parkedHours, err := meter.Int64Histogram("parking_duration_hours",
		metric.WithDescription("Billed hours per completed transaction"),
		metric.WithUnit("h"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 4, 8, 12, 24, 48))
	if err != nil {
		return nil, err
	}

	ipl := &InstrumentedParkingLot{
		ParkingLot:        lot,
		telemetry:         telemetry,
		parkingOperations: parkingOperations,
		leavingOperations: leavingOperations,
		occupancyGauge:    occupancyGauge,
		operationDuration: operationDuration,
		totalSlotsGauge:   totalSlotsGauge,
		feesCollected:     feesCollected,
		parkedHours:       parkedHours,
	}

	status := lot.Status()
	totalSlotsGauge.Add(context.Background(), int64(status.TotalSlots),
		metric.WithAttributes(attribute.String("lot_id", lot.ID())))

	return ipl, nil
}

// ReceiptStore retains completed transactions after the vehicle has left.
type ReceiptStore interface {
	Put(tx Transaction) error
	Get(id string) (Transaction, bool)
	// ByPlate returns the retained receipts for a plate, newest exit first.
	ByPlate(licensePlate string) []Transaction
}

func (ipl *InstrumentedParkingLot) SetReceiptStore(store ReceiptStore) {
	ipl.receipts = store
}

// SetPublisher routes occupancy events to p. A nil publisher disables events.
func (ipl *InstrumentedParkingLot) SetPublisher(p EventPublisher) {
	ipl.publisher = p
}

func (ipl *InstrumentedParkingLot) Park(ctx context.Context, licensePlate string, vehicleType VehicleType) (Transaction, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.park",
		trace.WithAttributes(
			attribute.String("vehicle.license_plate", licensePlate),
			attribute.String("vehicle.type", vehicleType.String()),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("finding_available_slot")

	tx, err := ipl.ParkingLot.Park(licensePlate, vehicleType)

	labels := []attribute.KeyValue{
		attribute.String("operation", "park"),
		attribute.String("vehicle_type", vehicleType.String()),
	}

	if err != nil {
		ipl.fail(ctx, span, err, "park failed", slog.String("license_plate", licensePlate))
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.String("transaction.id", tx.ID),
			attribute.String("allocated_slot", tx.SlotID),
		)
		span.AddEvent("slot_allocated", trace.WithAttributes(
			attribute.String("slot_id", tx.SlotID),
			attribute.Int("floor_number", tx.FloorNumber),
		))
		ipl.occupancyGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("slot_type", tx.SlotType.String())))
		ipl.telemetry.Logger().InfoContext(ctx, "vehicle parked",
			slog.String("license_plate", licensePlate),
			slog.String("slot_id", tx.SlotID),
			slog.String("transaction_id", tx.ID),
		)
		ipl.publish(transactionEvent(EventParked, ipl.ID(), tx, tx.EntryTime))
	}

	ipl.parkingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return tx, err
}

func (ipl *InstrumentedParkingLot) Unpark(ctx context.Context, licensePlate string) (Transaction, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.unpark",
		trace.WithAttributes(
			attribute.String("vehicle.license_plate", licensePlate),
		))
	defer span.End()

	start := time.Now()
	span.AddEvent("releasing_slot")

	tx, err := ipl.ParkingLot.Unpark(licensePlate)

	labels := []attribute.KeyValue{
		attribute.String("operation", "unpark"),
	}

	if err != nil {
		ipl.fail(ctx, span, err, "unpark failed", slog.String("license_plate", licensePlate))
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels,
			attribute.String("status", "success"),
			attribute.String("vehicle_type", tx.VehicleType.String()),
		)
		span.SetAttributes(
			attribute.String("transaction.id", tx.ID),
			attribute.String("slot_id", tx.SlotID),
			attribute.Float64("transaction.fee", tx.Fee),
		)
		span.AddEvent("slot_released")
		ipl.recordCompleted(ctx, tx)
		ipl.telemetry.Logger().InfoContext(ctx, "vehicle unparked",
			slog.String("license_plate", licensePlate),
			slog.String("slot_id", tx.SlotID),
			slog.String("transaction_id", tx.ID),
			slog.Float64("fee", tx.Fee),
		)
		ipl.publish(transactionEvent(EventUnparked, ipl.ID(), tx, *tx.ExitTime))
	}

	ipl.leavingOperations.Add(ctx, 1, metric.WithAttributes(labels...))
	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return tx, err
}

func (ipl *InstrumentedParkingLot) Transfer(ctx context.Context, licensePlate, slotID string) (Transaction, Transaction, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.transfer",
		trace.WithAttributes(
			attribute.String("vehicle.license_plate", licensePlate),
			attribute.String("target_slot_id", slotID),
		))
	defer span.End()

	start := time.Now()

	completed, opened, err := ipl.ParkingLot.Transfer(licensePlate, slotID)

	labels := []attribute.KeyValue{
		attribute.String("operation", "transfer"),
	}

	if err != nil {
		ipl.fail(ctx, span, err, "transfer failed",
			slog.String("license_plate", licensePlate),
			slog.String("slot_id", slotID),
		)
		labels = append(labels, attribute.String("status", "failed"))
	} else {
		labels = append(labels, attribute.String("status", "success"))
		span.SetAttributes(
			attribute.String("completed_transaction.id", completed.ID),
			attribute.String("opened_transaction.id", opened.ID),
		)
		ipl.recordCompleted(ctx, completed)
		ipl.occupancyGauge.Add(ctx, 1, metric.WithAttributes(attribute.String("slot_type", opened.SlotType.String())))
		ipl.telemetry.Logger().InfoContext(ctx, "vehicle transferred",
			slog.String("license_plate", licensePlate),
			slog.String("from_slot_id", completed.SlotID),
			slog.String("to_slot_id", opened.SlotID),
		)
		event := transactionEvent(EventTransfer, ipl.ID(), opened, opened.EntryTime)
		event.FromSlotID = completed.SlotID
		event.Fee = completed.Fee
		ipl.publish(event)
	}

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return completed, opened, err
}

// Close releases every vehicle. Completed transactions are recorded even
// when some slots could not be released.
func (ipl *InstrumentedParkingLot) Close(ctx context.Context) ([]Transaction, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.close")
	defer span.End()

	start := time.Now()

	completed, err := ipl.ParkingLot.Close()

	for _, tx := range completed {
		ipl.recordCompleted(ctx, tx)
	}

	span.SetAttributes(attribute.Int("released_vehicles", len(completed)))
	status := "success"
	if err != nil {
		status = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		ipl.telemetry.Logger().ErrorContext(ctx, "parking lot closed with inconsistent slots",
			slog.Int("released_vehicles", len(completed)),
			slog.String("error", err.Error()),
		)
	} else {
		ipl.telemetry.Logger().InfoContext(ctx, "parking lot closed",
			slog.Int("released_vehicles", len(completed)),
		)
	}
	ipl.publish(Event{
		Type:      EventLotClosed,
		LotID:     ipl.ID(),
		Released:  len(completed),
		Timestamp: time.Now(),
	})

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "close"),
		attribute.String("status", status),
	))

	return completed, err
}

func (ipl *InstrumentedParkingLot) VehicleInfo(ctx context.Context, licensePlate string) (VehicleInfo, error) {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.vehicle_info",
		trace.WithAttributes(
			attribute.String("vehicle.license_plate", licensePlate),
		))
	defer span.End()

	start := time.Now()

	info, err := ipl.ParkingLot.VehicleInfo(licensePlate)

	labels := []attribute.KeyValue{
		attribute.String("operation", "vehicle_info"),
	}

	if err != nil {
		span.AddEvent("vehicle_not_found")
		labels = append(labels, attribute.String("status", "not_found"))
	} else {
		span.SetAttributes(
			attribute.String("slot_id", info.Vehicle.SlotID),
			attribute.Float64("current_fee", info.CurrentFee),
		)
		labels = append(labels, attribute.String("status", "found"))
	}

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(labels...))

	return info, err
}

func (ipl *InstrumentedParkingLot) Status(ctx context.Context) Status {
	ctx, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.get_status")
	defer span.End()

	start := time.Now()
	span.AddEvent("retrieving_status")

	status := ipl.ParkingLot.Status()

	span.SetAttributes(
		attribute.Int("total_parked", status.TotalParked),
		attribute.Int("total_slots", status.TotalSlots),
	)

	ipl.operationDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("operation", "get_status"),
		attribute.String("status", "success"),
	))

	return status
}

// Receipt looks up a completed transaction by id.
func (ipl *InstrumentedParkingLot) Receipt(ctx context.Context, transactionID string) (Transaction, error) {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.receipt",
		trace.WithAttributes(
			attribute.String("transaction.id", transactionID),
		))
	defer span.End()

	if ipl.receipts != nil {
		if tx, ok := ipl.receipts.Get(transactionID); ok {
			return tx, nil
		}
	}
	span.AddEvent("receipt_not_found")
	return Transaction{}, fmt.Errorf("%w: %s", ErrReceiptNotFound, transactionID)
}

// ReceiptsByPlate lists the retained receipts for a plate. A plate with no
// history yields an empty slice, not an error.
func (ipl *InstrumentedParkingLot) ReceiptsByPlate(ctx context.Context, licensePlate string) ([]Transaction, error) {
	_, span := ipl.telemetry.Tracer().Start(ctx, "parking_lot.receipts_by_plate",
		trace.WithAttributes(
			attribute.String("vehicle.license_plate", licensePlate),
		))
	defer span.End()

	if err := validatePlate(licensePlate); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	receipts := []Transaction{}
	if ipl.receipts != nil {
		receipts = append(receipts, ipl.receipts.ByPlate(licensePlate)...)
	}
	span.SetAttributes(attribute.Int("receipts", len(receipts)))
	return receipts, nil
}

func (ipl *InstrumentedParkingLot) recordCompleted(ctx context.Context, tx Transaction) {
	attrs := metric.WithAttributes(attribute.String("vehicle_type", tx.VehicleType.String()))
	ipl.feesCollected.Add(ctx, tx.Fee, attrs)
	ipl.parkedHours.Record(ctx, tx.ParkedHours(), attrs)
	ipl.occupancyGauge.Add(ctx, -1, metric.WithAttributes(attribute.String("slot_type", tx.SlotType.String())))

	if ipl.receipts != nil {
		if err := ipl.receipts.Put(tx); err != nil {
			ipl.telemetry.Logger().ErrorContext(ctx, "failed to store receipt",
				slog.String("transaction_id", tx.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (ipl *InstrumentedParkingLot) fail(ctx context.Context, span trace.Span, err error, msg string, attrs ...any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	ipl.telemetry.Logger().WarnContext(ctx, msg, append(attrs, slog.String("error", err.Error()))...)
}

func (ipl *InstrumentedParkingLot) publish(event Event) {
	if ipl.publisher != nil {
		ipl.publisher.Publish(event)
	}
}
