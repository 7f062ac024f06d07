// Package registration implements the registration request pipeline: method
// dispatch, input normalization and validation, and delegation to the store.
package registration

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dayregister/backend/internal/models"
	"github.com/dayregister/backend/internal/store"
)

// Kind classifies a request-handling failure for status mapping.
type Kind int

const (
	KindInvalidRequest Kind = iota
	KindNotFound
	KindConflict
	KindInternal
)

// Error is the typed failure returned by Handle. For KindInternal the
// message carries server-side detail and must not be surfaced to clients.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

const (
	// DefaultMaxDays bounds how far ahead a registration date may lie.
	DefaultMaxDays = 30

	defaultName = "Anonymous"
	dateLayout  = "2006-01-02"
)

// Params are the loosely-typed request parameters; absent fields are empty.
type Params struct {
	Name         string
	Email        string
	RegisterDate string
	Reference    string
}

// Service validates registration requests and applies them to the store.
// It holds no state of its own; given fixed inputs and a fixed clock every
// call is deterministic, so concurrent requests only interact at the store's
// atomic conditional writes.
type Service struct {
	store   store.Store
	maxDays int
	now     func() time.Time
}

// NewService creates a registration service over st. maxDays <= 0 selects
// DefaultMaxDays.
func NewService(st store.Store, maxDays int) *Service {
	if maxDays <= 0 {
		maxDays = DefaultMaxDays
	}
	return &Service{store: st, maxDays: maxDays, now: time.Now}
}

// WithClock overrides the wall clock used as the date-window anchor, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Handle routes one request to the operation selected by method.
func (s *Service) Handle(ctx context.Context, method string, p Params) (models.View, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet:
		return s.get(ctx, p)
	case http.MethodDelete:
		return s.delete(ctx, p)
	case http.MethodPost:
		return s.create(ctx, p)
	case http.MethodPatch:
		return s.update(ctx, p)
	default:
		return models.View{}, &Error{Kind: KindInternal, Message: "invalid method: " + method}
	}
}

func (s *Service) get(ctx context.Context, p Params) (models.View, error) {
	if p.Email == "" && p.Reference == "" {
		return models.View{}, &Error{Kind: KindInvalidRequest, Message: "Email or reference is required"}
	}

	var (
		rec *models.Registration
		err error
	)
	if p.Reference != "" {
		rec, err = s.store.GetByReference(ctx, strings.ToUpper(p.Reference))
		if err != nil {
			return models.View{}, internalErr("get by reference", err)
		}
		if rec == nil {
			return models.View{}, &Error{
				Kind:    KindNotFound,
				Message: fmt.Sprintf("Reference %s is not found. Please try again.", p.Reference),
			}
		}
	} else {
		email := strings.ToLower(p.Email)
		rec, err = s.store.GetByEmail(ctx, email)
		if err != nil {
			return models.View{}, internalErr("get by email", err)
		}
		if rec == nil {
			return models.View{}, &Error{
				Kind:    KindNotFound,
				Message: fmt.Sprintf("%s is not registered. Please try again.", email),
			}
		}
	}

	return models.View{
		Name:         rec.Name,
		Email:        rec.Email,
		RegisterDate: rec.RegisterDate,
		Reference:    rec.ReferenceID,
	}, nil
}

func (s *Service) create(ctx context.Context, p Params) (models.View, error) {
	email, date, verr := s.validateWrite(p)
	if verr != nil {
		return models.View{}, verr
	}
	name := p.Name
	if name == "" {
		name = defaultName
	}

	rec := &models.Registration{
		Email:        email,
		Name:         name,
		RegisterDate: date.Format(dateLayout),
		ReferenceID:  NewReferenceCode(),
		LogTime:      s.now().Format(time.RFC3339),
		ExpiryTime:   endOfDay(date).Unix(),
	}
	if err := s.store.InsertIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return models.View{}, &Error{Kind: KindConflict, Message: email + " is already registered"}
		}
		return models.View{}, internalErr("insert registration", err)
	}

	return models.View{
		Name:         rec.Name,
		Email:        rec.Email,
		RegisterDate: rec.RegisterDate,
		Reference:    rec.ReferenceID,
	}, nil
}

func (s *Service) update(ctx context.Context, p Params) (models.View, error) {
	email, date, verr := s.validateWrite(p)
	if verr != nil {
		return models.View{}, verr
	}

	patch := store.Patch{
		RegisterDate: date.Format(dateLayout),
		ReferenceID:  NewReferenceCode(),
		LogTime:      s.now().Format(time.RFC3339),
		ExpiryTime:   endOfDay(date).Unix(),
	}
	if err := s.store.UpdateIfPresent(ctx, email, patch); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.View{}, &Error{Kind: KindNotFound, Message: email + " is not registered"}
		}
		return models.View{}, internalErr("update registration", err)
	}

	return models.View{
		Email:        email,
		RegisterDate: patch.RegisterDate,
		Reference:    patch.ReferenceID,
	}, nil
}

func (s *Service) delete(ctx context.Context, p Params) (models.View, error) {
	if p.Email == "" {
		return models.View{}, &Error{Kind: KindInvalidRequest, Message: "Email is required"}
	}
	email := strings.ToLower(p.Email)
	// The store's own existence precondition decides the outcome; a prior
	// read here would reopen the read-then-write race.
	if err := s.store.DeleteIfPresent(ctx, email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.View{}, &Error{Kind: KindNotFound, Message: email + " is not registered"}
		}
		return models.View{}, internalErr("delete registration", err)
	}
	return models.View{}, nil
}

// validateWrite checks the shared create/update requirements and returns the
// normalized email and parsed date.
func (s *Service) validateWrite(p Params) (string, time.Time, *Error) {
	if p.Email == "" || p.RegisterDate == "" {
		return "", time.Time{}, &Error{Kind: KindInvalidRequest, Message: "Email and registration date are required"}
	}
	date, ok := s.parseDateInWindow(p.RegisterDate)
	if !ok {
		return "", time.Time{}, &Error{Kind: KindInvalidRequest, Message: "Invalid registration date"}
	}
	return strings.ToLower(p.Email), date, nil
}

// parseDateInWindow parses a registration date and checks it falls between
// tomorrow and today+maxDays, both inclusive, at day granularity.
func (s *Service) parseDateInWindow(raw string) (time.Time, bool) {
	var date time.Time
	parsed := false
	for _, layout := range []string{dateLayout, time.RFC3339} {
		if d, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			date = startOfDay(d)
			parsed = true
			break
		}
	}
	if !parsed {
		return time.Time{}, false
	}

	today := startOfDay(s.now())
	min := today.AddDate(0, 0, 1)
	max := today.AddDate(0, 0, s.maxDays)
	if date.Before(min) || date.After(max) {
		return time.Time{}, false
	}
	return date, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

func internalErr(op string, err error) *Error {
	return &Error{Kind: KindInternal, Message: op + ": " + err.Error()}
}
