// Package receipt keeps completed parking transactions around for a while so
// they can be fetched after the vehicle has left.
package receipt

import (
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"parking-allocator/internal/parking"
)

var _ parking.ReceiptStore = (*Store)(nil)

type Store struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewStore keeps receipts for ttl. Expired entries are swept every ttl/2.
func NewStore(ttl time.Duration) *Store {
	cleanup := ttl / 2
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Store{
		cache: cache.New(ttl, cleanup),
		ttl:   ttl,
	}
}

// Put stores a completed transaction. Active transactions are rejected.
func (s *Store) Put(tx parking.Transaction) error {
	if tx.Status != parking.TransactionCompleted {
		return fmt.Errorf("%w: transaction %s is %s", parking.ErrValidation, tx.ID, tx.Status)
	}
	s.cache.Set(tx.ID, tx, s.ttl)
	return nil
}

func (s *Store) Get(id string) (parking.Transaction, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return parking.Transaction{}, false
	}
	return v.(parking.Transaction), true
}

// ByPlate returns the unexpired receipts for a plate, newest exit first.
func (s *Store) ByPlate(licensePlate string) []parking.Transaction {
	var out []parking.Transaction
	for _, item := range s.cache.Items() {
		tx := item.Object.(parking.Transaction)
		if tx.LicensePlate == licensePlate {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ExitTime.After(*out[j].ExitTime)
	})
	return out
}
