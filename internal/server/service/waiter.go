package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout caps a single long-poll
	WaitTimeout = 25 * time.Second

	waitChannelBuffer = 1
)

// WaitRegistry tracks long-polling clients per game
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*waitRequest
	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

type waitRequest struct {
	notify chan struct{}
	timer  *time.Timer
}

func NewWaitRegistry() *WaitRegistry {
	return &WaitRegistry{
		waiters:  make(map[string][]*waitRequest),
		shutdown: make(chan struct{}),
	}
}

// RegisterWait returns a channel that is closed on the next change to the
// game, on its deletion, on ctx cancellation, or after WaitTimeout
func (w *WaitRegistry) RegisterWait(ctx context.Context, gameID string) <-chan struct{} {
	req := &waitRequest{
		notify: make(chan struct{}, waitChannelBuffer),
	}

	w.mu.Lock()
	req.timer = time.AfterFunc(WaitTimeout, func() { signal(req) })
	w.waiters[gameID] = append(w.waiters[gameID], req)
	w.mu.Unlock()

	out := make(chan struct{})
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer close(out)
		defer w.remove(gameID, req)
		select {
		case <-ctx.Done():
		case <-req.notify:
		case <-w.shutdown:
		}
	}()

	return out
}

// NotifyGame wakes every waiter of a game
func (w *WaitRegistry) NotifyGame(gameID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, req := range w.waiters[gameID] {
		signal(req)
	}
}

// RemoveGame wakes and forgets every waiter of a deleted game
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	waitList := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range waitList {
		signal(req)
	}
}

// Shutdown releases all waiters and waits for their goroutines
func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	w.once.Do(func() { close(w.shutdown) })

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out")
	}
}

// Waiters returns the number of pending waits on a game
func (w *WaitRegistry) Waiters(gameID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.waiters[gameID])
}

func signal(req *waitRequest) {
	select {
	case req.notify <- struct{}{}:
	default:
	}
}

func (w *WaitRegistry) remove(gameID string, req *waitRequest) {
	req.timer.Stop()

	w.mu.Lock()
	defer w.mu.Unlock()

	waitList := w.waiters[gameID]
	for i, r := range waitList {
		if r == req {
			w.waiters[gameID] = append(waitList[:i], waitList[i+1:]...)
			break
		}
	}
	if len(w.waiters[gameID]) == 0 {
		delete(w.waiters, gameID)
	}
}
