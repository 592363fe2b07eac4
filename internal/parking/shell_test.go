package parking

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func runShell(t *testing.T, f *instrumentedFixture, input string) string {
	t.Helper()
	var out bytes.Buffer
	NewShell(f.lot, strings.NewReader(input), &out).Run(context.Background())
	return out.String()
}

func TestShellParkAndUnpark(t *testing.T) {
	f := newInstrumentedFixture(t)

	out := runShell(t, f, "park KA01 car\npark KA01 car\nunpark KA01\nunpark KA01\n")

	assert.Contains(t, out, "Allocated slot F1-C1 on floor 1")
	assert.Contains(t, out, "Error: vehicle already parked: KA01")
	assert.Contains(t, out, "Slot F1-C1 is free. Parked 0h, fee 0.00")
	assert.Contains(t, out, "Not found")
}

func TestShellNoSlot(t *testing.T) {
	f := newInstrumentedFixture(t)

	out := runShell(t, f, "park B1 bus\npark B2 bus\n")

	assert.Contains(t, out, "Allocated slot F1-B1")
	assert.Contains(t, out, "Sorry, no available slot")
}

func TestShellInfoAndStatus(t *testing.T) {
	f := newInstrumentedFixture(t)
	_, err := f.lot.Park(context.Background(), "MOTO-1", Motorcycle)
	assert.NoError(t, err)
	f.clock.Advance(2 * time.Hour)

	out := runShell(t, f, "info MOTO-1\nstatus\n")

	assert.Contains(t, out, "MOTO-1 (motorcycle) in slot F1-M1 on floor 1")
	assert.Contains(t, out, "2h, current fee 2.00")
	assert.Contains(t, out, "Total parked vehicles: 1")
	assert.Contains(t, out, "motorcycle: 0 available, 1 occupied")
	assert.Contains(t, out, "car: 1 available, 0 occupied")
	assert.Contains(t, out, "License Plate")
}

func TestShellTransferCloseAndReceipt(t *testing.T) {
	f := newInstrumentedFixture(t)
	_, err := f.lot.Park(context.Background(), "CAR-1", Car)
	assert.NoError(t, err)
	f.clock.Advance(time.Hour)

	out := runShell(t, f, "transfer CAR-1 F1-B1\ntransfer CAR-1 F1-M1\nclose\n")

	assert.Contains(t, out, "Moved CAR-1 from F1-C1 to F1-B1. Billed 2.00")
	assert.Contains(t, out, "Error: slot cannot accommodate vehicle")
	assert.Contains(t, out, "Parking lot closed. Released 1 vehicles")

	var receiptID string
	for id := range f.receipts {
		receiptID = id
		break
	}
	out = runShell(t, f, "receipt "+receiptID+"\nreceipt TXN-unknown\n")
	assert.Contains(t, out, "Receipt "+receiptID+": CAR-1 (car)")
	assert.Contains(t, out, "Error: receipt not found")
}

func TestShellReceiptsByPlate(t *testing.T) {
	f := newInstrumentedFixture(t)
	ctx := context.Background()
	_, err := f.lot.Park(ctx, "CAR-1", Car)
	assert.NoError(t, err)
	f.clock.Advance(3 * time.Hour)
	tx, err := f.lot.Unpark(ctx, "CAR-1")
	assert.NoError(t, err)

	out := runShell(t, f, "receipts CAR-1\nreceipts NOPE\nreceipts\n")

	assert.Contains(t, out, "Transaction")
	assert.Contains(t, out, tx.ID)
	assert.Contains(t, out, "6.00")
	assert.Contains(t, out, "No receipts for NOPE")
	assert.Contains(t, out, "Usage: receipts <license_plate>")
}

func TestShellUsageAndExit(t *testing.T) {
	f := newInstrumentedFixture(t)

	out := runShell(t, f, "park ONLY\npark X truck\nfly\nhelp\n\nexit\npark AFTER car\n")

	assert.Contains(t, out, "Usage: park <license_plate> <motorcycle|car|bus>")
	assert.Contains(t, out, "Invalid vehicle type: truck")
	assert.Contains(t, out, "Unknown command: fly")
	assert.Contains(t, out, "Commands:")
	assert.NotContains(t, out, "AFTER")
	assert.Equal(t, 0, f.lot.Status(context.Background()).TotalParked)
}
