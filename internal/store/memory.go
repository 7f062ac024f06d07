package store

import (
	"context"
	"sync"
	"time"

	"github.com/dayregister/backend/internal/models"
)

// Memory is an in-process registration store for development and tests.
// A single mutex makes every conditional operation atomic. Expired records
// are dropped lazily on access, approximating the TTL eviction of the
// remote backends.
type Memory struct {
	mu      sync.Mutex
	byEmail map[string]models.Registration
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byEmail: make(map[string]models.Registration),
		now:     time.Now,
	}
}

// WithClock overrides the wall clock used for lazy expiry, for tests.
func (m *Memory) WithClock(now func() time.Time) *Memory {
	m.now = now
	return m
}

// GetByEmail returns a copy of the record for email, or (nil, nil).
func (m *Memory) GetByEmail(_ context.Context, email string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.live(email)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// GetByReference scans for the record carrying the reference code.
func (m *Memory) GetByReference(_ context.Context, reference string) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, rec := range m.byEmail {
		if rec.ReferenceID != reference {
			continue
		}
		if m.expired(rec) {
			delete(m.byEmail, email)
			continue
		}
		out := rec
		return &out, nil
	}
	return nil, nil
}

// InsertIfAbsent stores rec unless a live record with its email exists.
func (m *Memory) InsertIfAbsent(_ context.Context, rec *models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(rec.Email); ok {
		return ErrAlreadyExists
	}
	m.byEmail[rec.Email] = *rec
	return nil
}

// UpdateIfPresent rewrites the patched fields of a live record.
func (m *Memory) UpdateIfPresent(_ context.Context, email string, patch Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.live(email)
	if !ok {
		return ErrNotFound
	}
	rec.RegisterDate = patch.RegisterDate
	rec.ReferenceID = patch.ReferenceID
	rec.LogTime = patch.LogTime
	rec.ExpiryTime = patch.ExpiryTime
	m.byEmail[email] = rec
	return nil
}

// DeleteIfPresent removes a live record.
func (m *Memory) DeleteIfPresent(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live(email); !ok {
		return ErrNotFound
	}
	delete(m.byEmail, email)
	return nil
}

// live returns the record for email if it exists and has not expired,
// dropping it otherwise. Callers must hold the mutex.
func (m *Memory) live(email string) (models.Registration, bool) {
	rec, ok := m.byEmail[email]
	if !ok {
		return models.Registration{}, false
	}
	if m.expired(rec) {
		delete(m.byEmail, email)
		return models.Registration{}, false
	}
	return rec, true
}

func (m *Memory) expired(rec models.Registration) bool {
	return rec.ExpiryTime > 0 && m.now().Unix() > rec.ExpiryTime
}
