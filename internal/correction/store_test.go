package correction

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Get(ctx, "unknown")
	require.NoError(t, err)
	require.Nil(t, got)

	rec := &Record{
		BookingUID:  "abc123",
		Email:       "ada@example.com",
		PrevEmail:   "pending-447700900123@pending-booking.invalid",
		CorrectedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Put(ctx, rec))

	got, err = s.Get(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", got.Email)

	// idempotent overwrite for the same uid
	rec2 := &Record{BookingUID: "abc123", Email: "ada@newmail.com"}
	require.NoError(t, s.Put(ctx, rec2))

	got, err = s.Get(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "ada@newmail.com", got.Email)
}

func TestMemoryStoreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	rec := &Record{BookingUID: "abc123", Email: "ada@example.com"}
	require.NoError(t, s.Put(ctx, rec))
	rec.Email = "mutated@example.com"

	got, err := s.Get(ctx, "abc123")
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", got.Email)
}
