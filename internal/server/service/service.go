package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"breakthrough/internal/server/game"
	"breakthrough/internal/server/storage"
)

const (
	MaxGames           = 1000
	MaxUsers           = 100
	PermanentSlots     = 10
	TempUserTTL        = 24 * time.Hour
	SessionTTL         = 7 * 24 * time.Hour
	CleanupJobInterval = 1 * time.Hour
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameExists        = errors.New("game already exists")
	ErrGameLimit         = errors.New("game limit reached")
	ErrGameOver          = errors.New("game is over")
	ErrGamePending       = errors.New("agent move in progress")
	ErrNotHumanTurn      = errors.New("side to move is not a human player")
	ErrNotAgentTurn      = errors.New("side to move is not an agent player")
	ErrStaleAgentMove    = errors.New("agent reply is stale")
	ErrIllegalMove       = errors.New("illegal move")
	ErrStorageDisabled   = errors.New("storage disabled")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrUserLimit         = errors.New("user limit reached")
)

// Service owns the live games, user accounts and the optional archive
type Service struct {
	games     map[string]*game.Game
	mu        sync.RWMutex
	store     *storage.Store
	jwtSecret []byte
	waiter    *WaitRegistry
}

// New creates a service, store may be nil
func New(store *storage.Store, jwtSecret []byte) *Service {
	return &Service{
		games:     make(map[string]*game.Game),
		store:     store,
		jwtSecret: jwtSecret,
		waiter:    NewWaitRegistry(),
	}
}

// GetStorageHealth returns "disabled", "ok" or "degraded"
func (s *Service) GetStorageHealth() string {
	if s.store == nil {
		return "disabled"
	}
	if s.store.IsHealthy() {
		return "ok"
	}
	return "degraded"
}

// RegisterWait returns a channel closed on the next change to the game
func (s *Service) RegisterWait(ctx context.Context, gameID string) <-chan struct{} {
	return s.waiter.RegisterWait(ctx, gameID)
}

// Shutdown releases waiters, drops live games and closes storage
func (s *Service) Shutdown(timeout time.Duration) error {
	var errs []error

	if err := s.waiter.Shutdown(timeout); err != nil {
		errs = append(errs, fmt.Errorf("wait registry: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[string]*game.Game)

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RunCleanupJob periodically removes expired temp users and sessions
func (s *Service) RunCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanupExpired()
		}
	}
}

func (s *Service) cleanupExpired() {
	if s.store == nil {
		return
	}

	if deleted, err := s.store.DeleteExpiredTempUsers(); err != nil {
		log.Printf("cleanup: failed to delete expired users: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired temp users", deleted)
	}

	if deleted, err := s.store.DeleteExpiredSessions(); err != nil {
		log.Printf("cleanup: failed to delete expired sessions: %v", err)
	} else if deleted > 0 {
		log.Printf("cleanup: deleted %d expired sessions", deleted)
	}
}
