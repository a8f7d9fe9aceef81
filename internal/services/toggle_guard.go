package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/models"
)

// ToggleGuard lets at most one attendance toggle per (event, user) pairing
// run at a time. Acquire fails fast with models.ErrToggleInFlight instead of
// queueing.
type ToggleGuard interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
	InFlight(ctx context.Context, key string) bool
}

func pairingKey(eventID int64, userID uuid.UUID) string {
	return fmt.Sprintf("%d:%s", eventID, userID)
}

type MemoryToggleGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryToggleGuard() *MemoryToggleGuard {
	return &MemoryToggleGuard{held: make(map[string]struct{})}
}

func (g *MemoryToggleGuard) Acquire(ctx context.Context, key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, fmt.Errorf("%w: %s", models.ErrToggleInFlight, key)
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, nil
}

func (g *MemoryToggleGuard) InFlight(ctx context.Context, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.held[key]
	return busy
}

type toggleLocker interface {
	TryLock(ctx context.Context, key string) (string, bool, error)
	Unlock(ctx context.Context, key, token string) error
	Held(ctx context.Context, key string) (bool, error)
}

// SharedToggleGuard coordinates toggles across processes through a shared
// lock store such as models.ValkeyLocker.
type SharedToggleGuard struct {
	locker toggleLocker
	logger *slog.Logger
}

func NewSharedToggleGuard(locker toggleLocker, logger *slog.Logger) *SharedToggleGuard {
	return &SharedToggleGuard{locker: locker, logger: logger}
}

func (g *SharedToggleGuard) Acquire(ctx context.Context, key string) (func(), error) {
	token, ok, err := g.locker.TryLock(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrToggleInFlight, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := g.locker.Unlock(releaseCtx, key, token); err != nil {
				g.logger.Warn("Failed to release toggle lock", "key", key, "error", err)
			}
		})
	}, nil
}

func (g *SharedToggleGuard) InFlight(ctx context.Context, key string) bool {
	held, err := g.locker.Held(ctx, key)
	if err != nil {
		g.logger.Warn("Failed to check toggle lock", "key", key, "error", err)
		return false
	}
	return held
}
