package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/kb-assistant/internal/domain"
)

const (
	lockPrefix       = "session-lock:"
	lockPollInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLocker serializes turns of one session across server instances
type SessionLocker struct {
	client *Client
	ttl    time.Duration
	wait   time.Duration
}

// NewSessionLocker creates a locker. ttl bounds how long a crashed holder
// can block the session; wait bounds how long Lock retries.
func NewSessionLocker(client *Client, ttl, wait time.Duration) *SessionLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &SessionLocker{client: client, ttl: ttl, wait: wait}
}

// Lock acquires the session lock or fails with domain.ErrSessionBusy
func (l *SessionLocker) Lock(ctx context.Context, sessionID string) (func(), error) {
	key := lockPrefix + sessionID
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire session lock: %w", err)
		}
		if ok {
			return l.unlockFunc(key, token), nil
		}
		if !time.Now().Before(deadline) {
			return nil, domain.ErrSessionBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *SessionLocker) unlockFunc(key, token string) func() {
	return func() {
		// release even when the turn's context was cancelled
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		err := releaseScript.Run(ctx, l.client.rdb, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Str("key", key).Msg("failed to release session lock")
		}
	}
}
