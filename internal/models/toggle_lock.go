package models

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

const toggleKeyPrefix = "gigs:attendance:toggle:"

// Deletes the key only if it still holds our token, so an expired lock that
// someone else re-acquired is left alone.
var releaseToggleScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ValkeyLocker is a shared try-lock for attendance toggles so that API
// replicas agree on which toggle for a pairing is in flight.
type ValkeyLocker struct {
	client valkey.Client
	ttl    time.Duration
}

func NewValkeyLocker(client valkey.Client, ttl time.Duration) *ValkeyLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ValkeyLocker{client: client, ttl: ttl}
}

// TryLock returns a release token, or ok=false when the key is already held.
func (l *ValkeyLocker) TryLock(ctx context.Context, key string) (string, bool, error) {
	token := uuid.NewString()
	cmd := l.client.B().Set().Key(toggleKeyPrefix + key).Value(token).Nx().Px(l.ttl.Milliseconds()).Build()
	err := l.client.Do(ctx, cmd).Error()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire toggle lock: %v", err)
	}
	return token, true, nil
}

func (l *ValkeyLocker) Unlock(ctx context.Context, key, token string) error {
	err := releaseToggleScript.Exec(ctx, l.client, []string{toggleKeyPrefix + key}, []string{token}).Error()
	if err != nil && !valkey.IsValkeyNil(err) {
		return fmt.Errorf("failed to release toggle lock: %v", err)
	}
	return nil
}

// Held reports whether any process currently holds key.
func (l *ValkeyLocker) Held(ctx context.Context, key string) (bool, error) {
	n, err := l.client.Do(ctx, l.client.B().Exists().Key(toggleKeyPrefix+key).Build()).AsInt64()
	if err != nil {
		return false, fmt.Errorf("failed to check toggle lock: %v", err)
	}
	return n > 0, nil
}
