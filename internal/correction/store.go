// Package correction records email corrections applied to bookings that were
// taken with a placeholder address. The store is keyed by the original
// booking uid; writing the same uid twice overwrites (corrections are
// idempotent per booking).
package correction

import (
	"context"
	"sync"
	"time"
)

type Record struct {
	BookingUID string `gorm:"primaryKey" json:"bookingUid"`
	// Set only when the correction rebooked the appointment under a new uid.
	NewBookingUID string    `gorm:"index" json:"newBookingUid,omitempty"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PrevName      string    `json:"prevName"`
	PrevEmail     string    `json:"prevEmail"`
	CorrectedAt   time.Time `json:"correctedAt"`
}

// Store is the correction mapping. Get returns (nil, nil) for an unknown uid.
type Store interface {
	Get(ctx context.Context, bookingUID string) (*Record, error)
	Put(ctx context.Context, rec *Record) error
}

// MemoryStore is the volatile default: corrections live for the process
// lifetime only and are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

func (s *MemoryStore) Get(_ context.Context, bookingUID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[bookingUID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.BookingUID] = *rec
	return nil
}
