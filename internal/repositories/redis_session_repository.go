package repositories

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/scode550/MultiRole-Chatbot/internal/models"
)

const (
	sessionKeyPrefix = "session:"
	sessionIndexKey  = "sessions:index"
)

// RedisSessionRepository implements SessionRepository on Redis. The
// session document lives under session:<id>; sessions:index is a list
// with the newest session id pushed to the head, which gives List its
// most-recent-first ordering for free.
type RedisSessionRepository struct {
	client *redis.Client
}

// NewRedisSessionRepository creates a Redis-backed session repository.
func NewRedisSessionRepository(client *redis.Client) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

// Insert stores a new session and pushes it onto the recency index.
func (r *RedisSessionRepository) Insert(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return err
	}

	exists, err := r.Exists(ctx, session.ID)
	if err != nil {
		return NewSessionRepositoryError("insert", session.ID, err, "")
	}
	if exists {
		return SessionAlreadyExistsError(session.ID)
	}

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.History == nil {
		session.History = []models.Turn{}
	}

	data, err := json.Marshal(session)
	if err != nil {
		return NewSessionRepositoryError("insert", session.ID, err, "failed to marshal session")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, data, 0)
	pipe.LPush(ctx, sessionIndexKey, session.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return NewSessionRepositoryError("insert", session.ID, err, "failed to execute transaction")
	}
	return nil
}

// Get retrieves a session by id.
func (r *RedisSessionRepository) Get(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, SessionNotFoundError(sessionID)
	}
	if err != nil {
		return nil, NewSessionRepositoryError("get", sessionID, err, "")
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, NewSessionRepositoryError("get", sessionID, err, "failed to unmarshal session")
	}
	return &session, nil
}

// List returns all sessions, newest first. Ids left dangling in the
// index (e.g. after a partial delete) are skipped.
func (r *RedisSessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	ids, err := r.client.LRange(ctx, sessionIndexKey, 0, -1).Result()
	if err != nil {
		return nil, NewSessionRepositoryError("list", "", err, "")
	}

	sessions := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		session, err := r.Get(ctx, id)
		if err != nil {
			if IsSessionNotFound(err) {
				continue
			}
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// AppendTurns reads the transcript, appends, and writes back.
func (r *RedisSessionRepository) AppendTurns(ctx context.Context, sessionID string, turns ...models.Turn) error {
	session, err := r.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	session.History = append(session.History, turns...)

	data, err := json.Marshal(session)
	if err != nil {
		return NewSessionRepositoryError("append_turns", sessionID, err, "failed to marshal session")
	}

	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, data, 0).Err(); err != nil {
		return NewSessionRepositoryError("append_turns", sessionID, err, "")
	}
	return nil
}

// Delete removes the session and its index entry.
func (r *RedisSessionRepository) Delete(ctx context.Context, sessionID string) error {
	exists, err := r.Exists(ctx, sessionID)
	if err != nil {
		return NewSessionRepositoryError("delete", sessionID, err, "")
	}
	if !exists {
		return SessionNotFoundError(sessionID)
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID)
	pipe.LRem(ctx, sessionIndexKey, 0, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return NewSessionRepositoryError("delete", sessionID, err, "failed to execute transaction")
	}
	return nil
}

// Exists checks if a session id is present.
func (r *RedisSessionRepository) Exists(ctx context.Context, sessionID string) (bool, error) {
	n, err := r.client.Exists(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Ping checks the Redis connection.
func (r *RedisSessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (r *RedisSessionRepository) Close() error {
	return r.client.Close()
}
