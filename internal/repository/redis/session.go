package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/kb-assistant/internal/domain"
)

const sessionPrefix = "session:"

// dropKeys never reach Redis. They hold per-turn artifacts that would
// otherwise grow the stored state without bound.
var dropKeys = []string{"docs", "messages", "chat_history", "retrieved_docs"}

// Sealer encrypts payloads before they are written
type Sealer interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

// SessionStore persists conversation state as JSON with a sliding TTL
type SessionStore struct {
	client *Client
	ttl    time.Duration
	sealer Sealer
}

// NewSessionStore creates a session store. A non-positive ttl means domain.SessionTTL.
func NewSessionStore(client *Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = domain.SessionTTL
	}
	return &SessionStore{client: client, ttl: ttl}
}

// WithSealer makes the store encrypt every payload it writes
func (s *SessionStore) WithSealer(sealer Sealer) *SessionStore {
	s.sealer = sealer
	return s
}

func sessionKey(sessionID string) string {
	return sessionPrefix + sessionID
}

// Load returns the stored state, or nil when the session is unknown or expired
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	data, err := s.client.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.Open(data); err != nil {
			return nil, fmt.Errorf("failed to open session: %w", err)
		}
	}

	var state domain.SessionState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &state, nil
}

// Save writes state and restarts its expiry window
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	data, err := encodeSession(state)
	if err != nil {
		return err
	}
	if s.sealer != nil {
		if data, err = s.sealer.Seal(data); err != nil {
			return fmt.Errorf("failed to seal session: %w", err)
		}
	}

	if err := s.client.rdb.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// encodeSession marshals state without the ephemeral keys
func encodeSession(state *domain.SessionState) ([]byte, error) {
	if state == nil {
		state = &domain.SessionState{}
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	for _, k := range dropKeys {
		delete(fields, k)
	}

	return json.Marshal(fields)
}
