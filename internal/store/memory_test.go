package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayregister/backend/internal/models"
)

func rec(email, ref string) *models.Registration {
	return &models.Registration{
		Email:        email,
		Name:         "Test",
		RegisterDate: "2031-05-20",
		ReferenceID:  ref,
		LogTime:      "2031-05-10T12:00:00Z",
		ExpiryTime:   time.Date(2031, time.May, 20, 23, 59, 59, 0, time.UTC).Unix(),
	}
}

func TestMemoryConditionalInsert(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertIfAbsent(ctx, rec("a@b.com", "AAAAAAAAAA")))
	assert.ErrorIs(t, m.InsertIfAbsent(ctx, rec("a@b.com", "BBBBBBBBBB")), ErrAlreadyExists)

	got, err := m.GetByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "AAAAAAAAAA", got.ReferenceID)
}

func TestMemoryConcurrentInsertSingleWinner(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	results := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- m.InsertIfAbsent(ctx, rec("race@b.com", "CCCCCCCCCC"))
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyExists)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestMemoryUpdateAndDeletePreconditions(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	patch := Patch{
		RegisterDate: "2031-05-25",
		ReferenceID:  "DDDDDDDDDD",
		LogTime:      "2031-05-11T08:00:00Z",
		ExpiryTime:   time.Date(2031, time.May, 25, 23, 59, 59, 0, time.UTC).Unix(),
	}
	assert.ErrorIs(t, m.UpdateIfPresent(ctx, "missing@b.com", patch), ErrNotFound)
	assert.ErrorIs(t, m.DeleteIfPresent(ctx, "missing@b.com"), ErrNotFound)

	require.NoError(t, m.InsertIfAbsent(ctx, rec("u@b.com", "EEEEEEEEEE")))
	require.NoError(t, m.UpdateIfPresent(ctx, "u@b.com", patch))

	got, err := m.GetByEmail(ctx, "u@b.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "DDDDDDDDDD", got.ReferenceID)
	assert.Equal(t, "2031-05-25", got.RegisterDate)
	assert.Equal(t, "Test", got.Name)

	require.NoError(t, m.DeleteIfPresent(ctx, "u@b.com"))
	got, err = m.GetByEmail(ctx, "u@b.com")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryGetByReference(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.InsertIfAbsent(ctx, rec("r@b.com", "FFFFFFFFFF")))

	got, err := m.GetByReference(ctx, "FFFFFFFFFF")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "r@b.com", got.Email)

	got, err = m.GetByReference(ctx, "ZZZZZZZZZZ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryLazyExpiry(t *testing.T) {
	now := time.Date(2031, time.June, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory().WithClock(func() time.Time { return now })
	ctx := context.Background()

	expired := rec("old@b.com", "GGGGGGGGGG") // expires 2031-05-20, before the clock
	require.NoError(t, m.InsertIfAbsent(ctx, expired))

	got, err := m.GetByEmail(ctx, "old@b.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	// An expired record no longer blocks a fresh insert.
	fresh := rec("old@b.com", "HHHHHHHHHH")
	fresh.ExpiryTime = now.AddDate(0, 0, 10).Unix()
	require.NoError(t, m.InsertIfAbsent(ctx, fresh))
}
