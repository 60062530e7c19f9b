// Package repository implements the session cache backends.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/planner/internal/cache/domain"
	apperrors "github.com/allisson/planner/internal/errors"
)

const (
	sessionPrefix   = "session:"
	settingPrefix   = "setting:"
	rateLimitPrefix = "ratelimit:"
	scanBatch       = 100
)

// rateLimitScript increments the counter and starts the window on the first hit in a
// single round trip. Returns {count, pttl}.
var rateLimitScript = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

// RedisCache is the session cache backed by redis.
type RedisCache struct {
	client      redis.UniversalClient
	maxLifetime time.Duration
	now         func() time.Time
}

// RedisConfig holds the redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient opens a redis client and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// NewRedisCache creates a RedisCache. maxLifetime caps the absolute age of a sliding
// session; zero disables the cap.
func NewRedisCache(client redis.UniversalClient, maxLifetime time.Duration) *RedisCache {
	return &RedisCache{client: client, maxLifetime: maxLifetime, now: time.Now}
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func settingKey(entityType, entityID, key string) string {
	return settingPrefix + entityType + ":" + entityID + ":" + key
}

func rateLimitKey(action, identifier string) string {
	return rateLimitPrefix + action + ":" + identifier
}

func unavailable(err error, message string) error {
	return apperrors.Join(domain.ErrCacheUnavailable, apperrors.Wrap(err, message))
}

// CreateSession stores the session with an absolute expiry of ttl.
func (r *RedisCache) CreateSession(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	session.TTLSeconds = int64(ttl / time.Second)
	if session.LastAccessedAt.IsZero() {
		session.LastAccessedAt = session.CreatedAt
	}

	data, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	if err := r.client.Set(ctx, sessionKey(session.ID), data, ttl).Err(); err != nil {
		return unavailable(err, "failed to create session")
	}
	return nil
}

func (r *RedisCache) loadSession(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, unavailable(err, "failed to get session")
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal session")
	}
	return &session, nil
}

// storeExisting rewrites an existing session. A session that vanished in the meantime
// is reported as not found rather than resurrected.
func (r *RedisCache) storeExisting(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}

	ok, err := r.client.SetXX(ctx, sessionKey(session.ID), data, ttl).Result()
	if err != nil {
		return unavailable(err, "failed to store session")
	}
	if !ok {
		return domain.ErrSessionNotFound
	}
	return nil
}

// GetSession returns the session and slides its expiry back to the original TTL.
func (r *RedisCache) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := r.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	ttl := session.SlidingTTL(now, r.maxLifetime)
	if ttl <= 0 {
		_ = r.client.Del(ctx, sessionKey(id)).Err()
		return nil, domain.ErrSessionNotFound
	}

	session.LastAccessedAt = now
	if err := r.storeExisting(ctx, session, ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession merges update into the session keeping its remaining TTL. When the
// remaining TTL cannot be read the original TTL is applied.
func (r *RedisCache) UpdateSession(
	ctx context.Context,
	id string,
	update domain.SessionUpdate,
) (*domain.Session, error) {
	session, err := r.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Apply(update)

	ttl, err := r.client.PTTL(ctx, sessionKey(id)).Result()
	if err != nil {
		return nil, unavailable(err, "failed to read session ttl")
	}
	if ttl <= 0 {
		ttl = session.TTL()
	}

	if err := r.storeExisting(ctx, session, ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session. Deleting an absent session is not an error.
func (r *RedisCache) DeleteSession(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		return unavailable(err, "failed to delete session")
	}
	return nil
}

// DeleteAllSessionsForSubject scans every session and deletes those owned by subjectID.
// The scan is not atomic: a session created while it runs may survive.
func (r *RedisCache) DeleteAllSessionsForSubject(ctx context.Context, subjectID string) (int, error) {
	deleted := 0
	iter := r.client.Scan(ctx, 0, sessionPrefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, unavailable(err, "failed to read session during scan")
		}

		var session domain.Session
		if err := json.Unmarshal(data, &session); err != nil || session.SubjectID != subjectID {
			continue
		}

		n, err := r.client.Del(ctx, key).Result()
		if err != nil {
			return deleted, unavailable(err, "failed to delete session during scan")
		}
		deleted += int(n)
	}
	if err := iter.Err(); err != nil {
		return deleted, unavailable(err, "failed to scan sessions")
	}
	return deleted, nil
}

// GetSetting returns the cached value and whether it was present.
func (r *RedisCache) GetSetting(ctx context.Context, entityType, entityID, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, settingKey(entityType, entityID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable(err, "failed to get setting")
	}
	return data, true, nil
}

// SetSetting caches value for ttl.
func (r *RedisCache) SetSetting(
	ctx context.Context,
	entityType, entityID, key string,
	value []byte,
	ttl time.Duration,
) error {
	if err := r.client.Set(ctx, settingKey(entityType, entityID, key), value, ttl).Err(); err != nil {
		return unavailable(err, "failed to set setting")
	}
	return nil
}

func (r *RedisCache) scanSettingKeys(ctx context.Context, entityType, entityID string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, settingKey(entityType, entityID, "*"), scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable(err, "failed to scan settings")
	}
	return keys, nil
}

// InvalidateSetting drops one cached setting, or every setting of the entity when key
// is domain.AllSettings.
func (r *RedisCache) InvalidateSetting(ctx context.Context, entityType, entityID, key string) error {
	keys := []string{settingKey(entityType, entityID, key)}
	if key == domain.AllSettings {
		var err error
		if keys, err = r.scanSettingKeys(ctx, entityType, entityID); err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
	}

	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return unavailable(err, "failed to invalidate setting")
	}
	return nil
}

// GetAllSettings returns every cached setting of the entity keyed by setting key.
func (r *RedisCache) GetAllSettings(ctx context.Context, entityType, entityID string) (map[string][]byte, error) {
	keys, err := r.scanSettingKeys(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}

	settings := make(map[string][]byte, len(keys))
	if len(keys) == 0 {
		return settings, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, unavailable(err, "failed to get settings")
	}

	prefix := settingKey(entityType, entityID, "")
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		settings[strings.TrimPrefix(keys[i], prefix)] = []byte(s)
	}
	return settings, nil
}

// CheckRateLimit counts one attempt for (action, identifier) in a fixed window that
// starts with the first attempt.
func (r *RedisCache) CheckRateLimit(
	ctx context.Context,
	identifier, action string,
	max int,
	window time.Duration,
) (*domain.RateLimitResult, error) {
	res, err := rateLimitScript.Run(
		ctx, r.client, []string{rateLimitKey(action, identifier)}, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, unavailable(err, "failed to check rate limit")
	}
	if len(res) != 2 {
		return nil, apperrors.New("unexpected rate limit script reply")
	}

	remaining := time.Duration(res[1]) * time.Millisecond
	if remaining < 0 {
		remaining = window
	}
	return domain.NewRateLimitResult(res[0], max, r.now().Add(remaining)), nil
}

// Ping reports whether redis is reachable.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return unavailable(err, "failed to ping redis")
	}
	return nil
}
