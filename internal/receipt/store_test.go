package receipt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parking-allocator/internal/parking"
)

func completed(id, plate string, exit time.Time) parking.Transaction {
	return parking.Transaction{
		ID:           id,
		LicensePlate: plate,
		VehicleType:  parking.Car,
		SlotID:       "F1-C1",
		EntryTime:    exit.Add(-time.Hour),
		ExitTime:     &exit,
		Fee:          2.0,
		Status:       parking.TransactionCompleted,
	}
}

func TestStorePutGet(t *testing.T) {
	store := NewStore(time.Hour)
	now := time.Now()

	require.NoError(t, store.Put(completed("TXN-1", "CAR-1", now)))

	tx, ok := store.Get("TXN-1")
	require.True(t, ok)
	assert.Equal(t, "CAR-1", tx.LicensePlate)
	assert.Equal(t, 2.0, tx.Fee)

	_, ok = store.Get("TXN-2")
	assert.False(t, ok)
}

func TestStoreRejectsActiveTransactions(t *testing.T) {
	store := NewStore(time.Hour)

	err := store.Put(parking.Transaction{ID: "TXN-1", Status: parking.TransactionActive})
	assert.ErrorIs(t, err, parking.ErrValidation)
	_, ok := store.Get("TXN-1")
	assert.False(t, ok)
}

func TestStoreByPlate(t *testing.T) {
	store := NewStore(time.Hour)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(completed("TXN-1", "CAR-1", base)))
	require.NoError(t, store.Put(completed("TXN-2", "CAR-2", base.Add(time.Hour))))
	require.NoError(t, store.Put(completed("TXN-3", "CAR-1", base.Add(2*time.Hour))))

	history := store.ByPlate("CAR-1")
	require.Len(t, history, 2)
	assert.Equal(t, "TXN-3", history[0].ID)
	assert.Equal(t, "TXN-1", history[1].ID)

	assert.Empty(t, store.ByPlate("NOPE"))
}

func TestStoreExpiry(t *testing.T) {
	store := NewStore(20 * time.Millisecond)
	require.NoError(t, store.Put(completed("TXN-1", "CAR-1", time.Now())))

	assert.Eventually(t, func() bool {
		_, ok := store.Get("TXN-1")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
