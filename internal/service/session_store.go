package service

import (
	"context"
	"encoding/json"
	"time"

	"planboard/internal/board"
	"planboard/internal/domain"
	"planboard/pkg/logger"
	"planboard/pkg/redis"
)

// SessionSnapshot is the serialized form of one editor session. Snapshots
// are write-through after every mutation so an operator session survives a
// process restart; they are never merged into a live session.
type SessionSnapshot struct {
	SessionID string                  `json:"session_id"`
	State     *domain.BoardState      `json:"state"`
	Directory board.DirectorySnapshot `json:"directory"`
	Metrics   domain.Metrics          `json:"metrics,omitempty"`
	Advisory  *domain.ValidateResult  `json:"advisory,omitempty"`
	SavedAt   time.Time               `json:"saved_at"`
}

// SessionStore persists session snapshots in Redis, best effort.
type SessionStore struct {
	redis  *redis.Client
	logger *logger.Logger
}

func NewSessionStore(redisClient *redis.Client, log *logger.Logger) *SessionStore {
	return &SessionStore{redis: redisClient, logger: log}
}

// Save writes a snapshot. Failures are logged and swallowed; snapshotting
// must never fail an edit.
func (s *SessionStore) Save(ctx context.Context, snap *SessionSnapshot) {
	if s == nil || s.redis == nil {
		return
	}
	snap.SavedAt = time.Now().UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal session snapshot")
		return
	}
	key := s.redis.KeyBuilder.KeySessionSnapshot(snap.SessionID)
	if err := s.redis.Set(ctx, key, string(data), redis.TTLSessionSnapshot); err != nil {
		s.logger.WithError(err).WithField("session_id", snap.SessionID).Warn("Failed to store session snapshot")
	}
}

// Load reads a snapshot; a missing key returns (nil, nil).
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*SessionSnapshot, error) {
	if s == nil || s.redis == nil {
		return nil, nil
	}
	key := s.redis.KeyBuilder.KeySessionSnapshot(sessionID)
	data, err := s.redis.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("Discarding unreadable session snapshot")
		return nil, nil
	}
	return &snap, nil
}

// Delete removes a snapshot.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) {
	if s == nil || s.redis == nil {
		return
	}
	key := s.redis.KeyBuilder.KeySessionSnapshot(sessionID)
	if err := s.redis.Delete(ctx, key); err != nil {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to delete session snapshot")
	}
}

// TryPairLock acquires the idempotency lock for one synthetic pair
// persistence attempt. Returns true when acquired; false means an identical
// attempt is already in flight. Without Redis the lock degrades to open.
func (s *SessionStore) TryPairLock(ctx context.Context, compositeID domain.EntityID) (bool, error) {
	if s == nil || s.redis == nil {
		return true, nil
	}
	key := s.redis.KeyBuilder.KeyPairIdempotency(string(compositeID))
	return s.redis.SetNX(ctx, key, "1", redis.TTLPairIdempotency)
}

// ReleasePairLock frees the idempotency lock after a failed attempt so the
// operator can retry once the rollback completed.
func (s *SessionStore) ReleasePairLock(ctx context.Context, compositeID domain.EntityID) {
	if s == nil || s.redis == nil {
		return
	}
	key := s.redis.KeyBuilder.KeyPairIdempotency(string(compositeID))
	if err := s.redis.Delete(ctx, key); err != nil {
		s.logger.WithError(err).Warn("Failed to release pair idempotency lock")
	}
}
