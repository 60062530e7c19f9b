package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/allisson/planner/internal/cache/domain"
	apperrors "github.com/allisson/planner/internal/errors"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type memoryCounter struct {
	count   int64
	resetAt time.Time
}

// MemoryCache is an in-process session cache for single-instance deployments and
// local development. Expired entries are dropped lazily on access and periodically by
// a janitor goroutine stopped with Close.
type MemoryCache struct {
	mu          sync.Mutex
	sessions    map[string]memoryEntry
	settings    map[string]memoryEntry
	counters    map[string]memoryCounter
	maxLifetime time.Duration
	now         func() time.Time
	stop        chan struct{}
	done        chan struct{}
	closeOnce   sync.Once
}

// NewMemoryCache creates a MemoryCache and starts its janitor.
func NewMemoryCache(maxLifetime, janitorInterval time.Duration) *MemoryCache {
	return newMemoryCache(maxLifetime, janitorInterval, time.Now)
}

func newMemoryCache(maxLifetime, janitorInterval time.Duration, now func() time.Time) *MemoryCache {
	m := &MemoryCache{
		sessions:    make(map[string]memoryEntry),
		settings:    make(map[string]memoryEntry),
		counters:    make(map[string]memoryCounter),
		maxLifetime: maxLifetime,
		now:         now,
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	go m.janitor(janitorInterval)
	return m
}

func (m *MemoryCache) janitor(interval time.Duration) {
	defer close(m.done)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.purge()
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryCache) purge() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, e := range m.sessions {
		if e.expired(now) {
			delete(m.sessions, k)
		}
	}
	for k, e := range m.settings {
		if e.expired(now) {
			delete(m.settings, k)
		}
	}
	for k, c := range m.counters {
		if !now.Before(c.resetAt) {
			delete(m.counters, k)
		}
	}
}

// Close stops the janitor goroutine.
func (m *MemoryCache) Close() error {
	m.closeOnce.Do(func() {
		close(m.stop)
		<-m.done
	})
	return nil
}

func (m *MemoryCache) putSession(session *domain.Session, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal session")
	}
	m.sessions[session.ID] = memoryEntry{value: data, expiresAt: m.now().Add(ttl)}
	return nil
}

// getSessionLocked returns the live session and its entry. Callers hold m.mu.
func (m *MemoryCache) getSessionLocked(id string) (*domain.Session, memoryEntry, error) {
	entry, ok := m.sessions[id]
	if !ok {
		return nil, memoryEntry{}, domain.ErrSessionNotFound
	}
	if entry.expired(m.now()) {
		delete(m.sessions, id)
		return nil, memoryEntry{}, domain.ErrSessionNotFound
	}

	var session domain.Session
	if err := json.Unmarshal(entry.value, &session); err != nil {
		return nil, memoryEntry{}, apperrors.Wrap(err, "failed to unmarshal session")
	}
	return &session, entry, nil
}

// CreateSession stores the session for ttl and records ttl on it.
func (m *MemoryCache) CreateSession(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session.TTLSeconds = int64(ttl / time.Second)
	if session.LastAccessedAt.IsZero() {
		session.LastAccessedAt = session.CreatedAt
	}
	return m.putSession(session, ttl)
}

// GetSession returns the live session and slides its expiry, bounded by the maximum
// lifetime. A session past that lifetime is removed and reported as not found.
func (m *MemoryCache) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, _, err := m.getSessionLocked(id)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	ttl := session.SlidingTTL(now, m.maxLifetime)
	if ttl <= 0 {
		delete(m.sessions, id)
		return nil, domain.ErrSessionNotFound
	}

	session.LastAccessedAt = now
	if err := m.putSession(session, ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSession applies update to the session and keeps its remaining TTL.
func (m *MemoryCache) UpdateSession(
	ctx context.Context,
	id string,
	update domain.SessionUpdate,
) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, entry, err := m.getSessionLocked(id)
	if err != nil {
		return nil, err
	}
	session.Apply(update)

	ttl := entry.expiresAt.Sub(m.now())
	if ttl <= 0 {
		ttl = session.TTL()
	}
	if err := m.putSession(session, ttl); err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the session. Removing an absent session is not an error.
func (m *MemoryCache) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, id)
	return nil
}

// DeleteAllSessionsForSubject removes every live session of the subject and returns how
// many were removed.
func (m *MemoryCache) DeleteAllSessionsForSubject(ctx context.Context, subjectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for id := range m.sessions {
		session, _, err := m.getSessionLocked(id)
		if err != nil || session.SubjectID != subjectID {
			continue
		}
		delete(m.sessions, id)
		deleted++
	}
	return deleted, nil
}

// GetSetting returns a copy of the cached setting value and whether it was found.
func (m *MemoryCache) GetSetting(ctx context.Context, entityType, entityID, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := settingKey(entityType, entityID, key)
	entry, ok := m.settings[k]
	if !ok {
		return nil, false, nil
	}
	if entry.expired(m.now()) {
		delete(m.settings, k)
		return nil, false, nil
	}
	return bytes.Clone(entry.value), true, nil
}

// SetSetting stores a copy of value. A non-positive ttl keeps it until invalidated.
func (m *MemoryCache) SetSetting(
	ctx context.Context,
	entityType, entityID, key string,
	value []byte,
	ttl time.Duration,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{value: bytes.Clone(value)}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.settings[settingKey(entityType, entityID, key)] = entry
	return nil
}

// InvalidateSetting drops one setting, or every setting of the entity when key is
// domain.AllSettings.
func (m *MemoryCache) InvalidateSetting(ctx context.Context, entityType, entityID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if key != domain.AllSettings {
		delete(m.settings, settingKey(entityType, entityID, key))
		return nil
	}

	prefix := settingKey(entityType, entityID, "")
	for k := range m.settings {
		if strings.HasPrefix(k, prefix) {
			delete(m.settings, k)
		}
	}
	return nil
}

// GetAllSettings returns copies of the live settings of the entity keyed by setting key.
func (m *MemoryCache) GetAllSettings(ctx context.Context, entityType, entityID string) (map[string][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	prefix := settingKey(entityType, entityID, "")
	settings := make(map[string][]byte)
	for k, e := range m.settings {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			settings[strings.TrimPrefix(k, prefix)] = bytes.Clone(e.value)
		}
	}
	return settings, nil
}

// CheckRateLimit counts one attempt in a fixed window that starts with the first attempt.
func (m *MemoryCache) CheckRateLimit(
	ctx context.Context,
	identifier, action string,
	max int,
	window time.Duration,
) (*domain.RateLimitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	k := rateLimitKey(action, identifier)
	counter, ok := m.counters[k]
	if !ok || !now.Before(counter.resetAt) {
		counter = memoryCounter{resetAt: now.Add(window)}
	}
	counter.count++
	m.counters[k] = counter

	return domain.NewRateLimitResult(counter.count, max, counter.resetAt), nil
}

// Ping always succeeds for the in-process cache.
func (m *MemoryCache) Ping(ctx context.Context) error {
	return nil
}
