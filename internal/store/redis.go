package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dayregister/backend/internal/models"
)

// Key layout: reg:email:<email> holds the record JSON; reg:ref:<code> holds
// the owning email. Both keys expire at the record's ExpiryTime, so Redis
// evicts expired registrations natively. The Lua scripts below keep the
// record and its reference index consistent under one atomic execution.
const (
	emailKeyPrefix = "reg:email:"
	refKeyPrefix   = "reg:ref:"
)

// insertScript: KEYS[1] = email key. ARGV: record JSON, expire-at unix
// seconds, reference code, email. Returns 0 when the record already exists.
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('EXPIREAT', KEYS[1], ARGV[2])
redis.call('SET', 'reg:ref:' .. ARGV[3], ARGV[4])
redis.call('EXPIREAT', 'reg:ref:' .. ARGV[3], ARGV[2])
return 1
`)

// updateScript: KEYS[1] = email key. ARGV: register date, reference code,
// log time, expire-at unix seconds. Rewrites the stored JSON and swaps the
// reference index entry. Returns 0 when the record is absent.
var updateScript = redis.NewScript(`
local old = redis.call('GET', KEYS[1])
if not old then
  return 0
end
local rec = cjson.decode(old)
if rec.reference then
  redis.call('DEL', 'reg:ref:' .. rec.reference)
end
rec.registerDate = ARGV[1]
rec.reference = ARGV[2]
rec.logTime = ARGV[3]
rec.expiryTime = tonumber(ARGV[4])
redis.call('SET', KEYS[1], cjson.encode(rec))
redis.call('EXPIREAT', KEYS[1], ARGV[4])
redis.call('SET', 'reg:ref:' .. ARGV[2], rec.email)
redis.call('EXPIREAT', 'reg:ref:' .. ARGV[2], ARGV[4])
return 1
`)

// deleteScript: KEYS[1] = email key. Removes the record and its reference
// index entry. Returns 0 when the record is absent.
var deleteScript = redis.NewScript(`
local old = redis.call('GET', KEYS[1])
if not old then
  return 0
end
local rec = cjson.decode(old)
if rec.reference then
  redis.call('DEL', 'reg:ref:' .. rec.reference)
end
redis.call('DEL', KEYS[1])
return 1
`)

// Redis is the Redis-backed registration store.
type Redis struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedis creates a Redis store over an existing client.
func NewRedis(client *redis.Client, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{client: client, logger: logger}
}

// GetByEmail returns the record for email, or (nil, nil) if absent.
func (r *Redis) GetByEmail(ctx context.Context, email string) (*models.Registration, error) {
	raw, err := r.client.Get(ctx, emailKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get record: %v", ErrUnavailable, err)
	}
	var rec models.Registration
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

// GetByReference resolves the reference index entry to its email, then loads
// the record. The second read can miss if the record was deleted in between;
// that reads as absent, which is correct.
func (r *Redis) GetByReference(ctx context.Context, reference string) (*models.Registration, error) {
	email, err := r.client.Get(ctx, refKeyPrefix+reference).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get reference: %v", ErrUnavailable, err)
	}
	return r.GetByEmail(ctx, email)
}

// InsertIfAbsent writes the record and reference index atomically, failing
// if the email key already exists.
func (r *Redis) InsertIfAbsent(ctx context.Context, rec *models.Registration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	n, err := insertScript.Run(ctx, r.client,
		[]string{emailKeyPrefix + rec.Email},
		string(raw), strconv.FormatInt(rec.ExpiryTime, 10), rec.ReferenceID, rec.Email,
	).Int()
	if err != nil {
		return fmt.Errorf("%w: insert record: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// UpdateIfPresent rewrites the patched fields atomically, failing if the
// email key is absent.
func (r *Redis) UpdateIfPresent(ctx context.Context, email string, patch Patch) error {
	n, err := updateScript.Run(ctx, r.client,
		[]string{emailKeyPrefix + email},
		patch.RegisterDate, patch.ReferenceID, patch.LogTime, strconv.FormatInt(patch.ExpiryTime, 10),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: update record: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIfPresent removes the record and its reference index atomically,
// failing if the email key is absent.
func (r *Redis) DeleteIfPresent(ctx context.Context, email string) error {
	n, err := deleteScript.Run(ctx, r.client, []string{emailKeyPrefix + email}).Int()
	if err != nil {
		return fmt.Errorf("%w: delete record: %v", ErrUnavailable, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
