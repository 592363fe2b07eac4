package parking

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell reads line commands and runs them against an instrumented lot.
type Shell struct {
	lot       *InstrumentedParkingLot
	scanner   *bufio.Scanner
	out       io.Writer
	telemetry *TelemetryProvider
}

func NewShell(lot *InstrumentedParkingLot, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		lot:       lot,
		scanner:   bufio.NewScanner(in),
		out:       out,
		telemetry: lot.telemetry,
	}
}

// Run processes commands until input ends, "exit" is read or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	tracer := s.telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for ctx.Err() == nil && s.scanner.Scan() {
		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}

		cmdCtx, cmdSpan := tracer.Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	command := parts[0]
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("command.name", command))

	switch command {
	case "park":
		s.handlePark(ctx, parts)
	case "unpark", "leave":
		s.handleUnpark(ctx, parts)
	case "info":
		s.handleInfo(ctx, parts)
	case "status":
		s.handleStatus(ctx)
	case "transfer":
		s.handleTransfer(ctx, parts)
	case "close":
		s.handleClose(ctx)
	case "receipt":
		s.handleReceipt(ctx, parts)
	case "receipts":
		s.handleReceipts(ctx, parts)
	case "help":
		s.printHelp()
	default:
		trace.SpanFromContext(ctx).AddEvent("unknown_command")
		s.printf("Unknown command: %s\n", command)
	}
}

func (s *Shell) handlePark(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		s.printf("Usage: park <license_plate> <motorcycle|car|bus>\n")
		return
	}

	vehicleType, err := ParseVehicleType(parts[2])
	if err != nil {
		s.printf("Invalid vehicle type: %s\n", parts[2])
		return
	}

	tx, err := s.lot.Park(ctx, parts[1], vehicleType)
	if err != nil {
		s.printError(err)
		return
	}

	s.printf("Allocated slot %s on floor %d (transaction %s)\n", tx.SlotID, tx.FloorNumber, tx.ID)
}

func (s *Shell) handleUnpark(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: unpark <license_plate>\n")
		return
	}

	tx, err := s.lot.Unpark(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	s.printf("Slot %s is free. Parked %dh, fee %.2f (transaction %s)\n",
		tx.SlotID, tx.ParkedHours(), tx.Fee, tx.ID)
}

func (s *Shell) handleInfo(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: info <license_plate>\n")
		return
	}

	info, err := s.lot.VehicleInfo(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	s.printf("%s (%s) in slot %s on floor %d since %s: %dh, current fee %.2f\n",
		info.Vehicle.LicensePlate, info.Vehicle.Type, info.Vehicle.SlotID, info.FloorNumber,
		info.Vehicle.EntryTime.Format(time.RFC3339), info.ElapsedHours, info.CurrentFee)
}

func (s *Shell) handleStatus(ctx context.Context) {
	status := s.lot.Status(ctx)

	s.printf("Total parked vehicles: %d\n", status.TotalParked)
	for _, t := range VehicleTypes() {
		s.printf("%s: %d available, %d occupied\n",
			t, status.AvailableByType[t], status.OccupiedByType[t])
	}

	occupied := s.lot.OccupiedSlots()
	if len(occupied) == 0 {
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "Slot\tFloor\tType\tLicense Plate")
	for _, slot := range occupied {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", slot.ID, slot.FloorNumber, slot.Type, slot.Plate)
	}
	w.Flush()
}

func (s *Shell) handleTransfer(ctx context.Context, parts []string) {
	if len(parts) != 3 {
		s.printf("Usage: transfer <license_plate> <slot_id>\n")
		return
	}

	completed, opened, err := s.lot.Transfer(ctx, parts[1], parts[2])
	if err != nil {
		s.printError(err)
		return
	}

	s.printf("Moved %s from %s to %s. Billed %.2f, new transaction %s\n",
		opened.LicensePlate, completed.SlotID, opened.SlotID, completed.Fee, opened.ID)
}

func (s *Shell) handleClose(ctx context.Context) {
	completed, err := s.lot.Close(ctx)

	total := 0.0
	for _, tx := range completed {
		total += tx.Fee
	}
	s.printf("Parking lot closed. Released %d vehicles, billed %.2f\n", len(completed), total)
	if err != nil {
		s.printError(err)
	}
}

func (s *Shell) handleReceipt(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: receipt <transaction_id>\n")
		return
	}

	tx, err := s.lot.Receipt(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}

	s.printf("Receipt %s: %s (%s) slot %s, %s - %s, fee %.2f\n",
		tx.ID, tx.LicensePlate, tx.VehicleType, tx.SlotID,
		tx.EntryTime.Format(time.RFC3339), tx.ExitTime.Format(time.RFC3339), tx.Fee)
}

func (s *Shell) handleReceipts(ctx context.Context, parts []string) {
	if len(parts) != 2 {
		s.printf("Usage: receipts <license_plate>\n")
		return
	}

	receipts, err := s.lot.ReceiptsByPlate(ctx, parts[1])
	if err != nil {
		s.printError(err)
		return
	}
	if len(receipts) == 0 {
		s.printf("No receipts for %s\n", parts[1])
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 8, 1, '\t', 0)
	fmt.Fprintln(w, "Transaction\tSlot\tExit\tFee")
	for _, tx := range receipts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\n", tx.ID, tx.SlotID, tx.ExitTime.Format(time.RFC3339), tx.Fee)
	}
	w.Flush()
}

func (s *Shell) printHelp() {
	s.printf("Commands: park <plate> <type>, unpark <plate>, info <plate>, status, " +
		"transfer <plate> <slot_id>, close, receipt <transaction_id>, receipts <plate>, exit\n")
}

func (s *Shell) printError(err error) {
	switch {
	case errors.Is(err, ErrNoAvailableSlot):
		s.printf("Sorry, no available slot\n")
	case errors.Is(err, ErrNotParked):
		s.printf("Not found\n")
	default:
		s.printf("Error: %s\n", err.Error())
	}
}

func (s *Shell) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
