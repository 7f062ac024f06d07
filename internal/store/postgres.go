package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dayregister/backend/internal/models"
)

// Postgres is the PostgreSQL-backed registration store. Conditional
// semantics come from single statements: ON CONFLICT DO NOTHING for inserts
// and rows-affected checks for updates and deletes. PostgreSQL has no TTL,
// so expired rows are purged by the sweeper (see internal/worker).
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a PostgreSQL store over an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const registrationColumns = "email, name, register_date, reference_id, log_time, expiry_time"

// GetByEmail returns the record for email, or (nil, nil) if absent.
func (p *Postgres) GetByEmail(ctx context.Context, email string) (*models.Registration, error) {
	const q = "SELECT " + registrationColumns + " FROM registrations WHERE email = $1"
	return p.getOne(ctx, q, email)
}

// GetByReference returns the record carrying the reference code, or (nil, nil).
func (p *Postgres) GetByReference(ctx context.Context, reference string) (*models.Registration, error) {
	const q = "SELECT " + registrationColumns + " FROM registrations WHERE reference_id = $1 LIMIT 1"
	return p.getOne(ctx, q, reference)
}

func (p *Postgres) getOne(ctx context.Context, q, arg string) (*models.Registration, error) {
	var (
		rec          models.Registration
		registerDate time.Time
		logTime      time.Time
	)
	err := p.pool.QueryRow(ctx, q, arg).
		Scan(&rec.Email, &rec.Name, &registerDate, &rec.ReferenceID, &logTime, &rec.ExpiryTime)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: query registration: %v", ErrUnavailable, err)
	}
	rec.RegisterDate = registerDate.Format("2006-01-02")
	rec.LogTime = logTime.Format(time.RFC3339)
	return &rec, nil
}

// InsertIfAbsent inserts rec; the unique email key makes the existence check
// and the write one atomic statement.
func (p *Postgres) InsertIfAbsent(ctx context.Context, rec *models.Registration) error {
	const q = `INSERT INTO registrations (email, name, register_date, reference_id, log_time, expiry_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING`
	ct, err := p.pool.Exec(ctx, q, rec.Email, rec.Name, rec.RegisterDate, rec.ReferenceID, rec.LogTime, rec.ExpiryTime)
	if err != nil {
		return fmt.Errorf("%w: insert registration: %v", ErrUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// UpdateIfPresent rewrites the patched columns; zero rows affected means the
// email was never registered.
func (p *Postgres) UpdateIfPresent(ctx context.Context, email string, patch Patch) error {
	const q = `UPDATE registrations
		SET register_date = $2, reference_id = $3, log_time = $4, expiry_time = $5
		WHERE email = $1`
	ct, err := p.pool.Exec(ctx, q, email, patch.RegisterDate, patch.ReferenceID, patch.LogTime, patch.ExpiryTime)
	if err != nil {
		return fmt.Errorf("%w: update registration: %v", ErrUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIfPresent removes the row; zero rows affected means it was absent.
func (p *Postgres) DeleteIfPresent(ctx context.Context, email string) error {
	ct, err := p.pool.Exec(ctx, "DELETE FROM registrations WHERE email = $1", email)
	if err != nil {
		return fmt.Errorf("%w: delete registration: %v", ErrUnavailable, err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired purges rows whose expiry time has passed. Called by the
// background sweeper, never from the request path.
func (p *Postgres) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ct, err := p.pool.Exec(ctx, "DELETE FROM registrations WHERE expiry_time <= $1", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: delete expired: %v", ErrUnavailable, err)
	}
	return ct.RowsAffected(), nil
}
