package repository

import (
	"context"
	"sync"
	"time"

	"mietbot/internal/models"
)

// MemoryStateRepository keeps sessions in process memory. Used as the
// failover target when Redis is unavailable; expiry is enforced lazily
// on read.
type MemoryStateRepository struct {
	sessions   sync.Map
	rateLimits sync.Map
	ttl        time.Duration
}

func NewMemoryStateRepository(ttl time.Duration) *MemoryStateRepository {
	return &MemoryStateRepository{
		ttl: ttl,
	}
}

func memoryKey(channel, sender string) string {
	return channel + "|" + sender
}

func (r *MemoryStateRepository) GetSession(ctx context.Context, channel, sender string) (*models.Session, error) {
	val, ok := r.sessions.Load(memoryKey(channel, sender))
	if !ok {
		return nil, nil
	}
	session := val.(*models.Session)
	if r.ttl > 0 && !session.UpdatedAt.IsZero() && time.Since(session.UpdatedAt) > r.ttl {
		r.sessions.Delete(memoryKey(channel, sender))
		return nil, nil
	}
	return session, nil
}

func (r *MemoryStateRepository) SetSession(ctx context.Context, session *models.Session) error {
	r.sessions.Store(memoryKey(session.Channel, session.Sender), session)
	return nil
}

func (r *MemoryStateRepository) ClearSession(ctx context.Context, channel, sender string) error {
	r.sessions.Delete(memoryKey(channel, sender))
	return nil
}

type rateLimitEntry struct {
	count     int
	expiresAt time.Time
}

func (r *MemoryStateRepository) CheckRateLimit(ctx context.Context, channel, sender string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	key := memoryKey(channel, sender)
	val, ok := r.rateLimits.Load(key)

	var entry *rateLimitEntry
	if !ok {
		entry = &rateLimitEntry{
			count:     1,
			expiresAt: now.Add(window),
		}
	} else {
		entry = val.(*rateLimitEntry)
		if now.After(entry.expiresAt) {
			entry.count = 1
			entry.expiresAt = now.Add(window)
		} else {
			entry.count++
		}
	}

	r.rateLimits.Store(key, entry)
	return entry.count <= limit, nil
}
