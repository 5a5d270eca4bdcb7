package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"breakthrough/internal/server/agent"
	"breakthrough/internal/server/board"
)

const (
	MinAgentTimeout = 100 * time.Millisecond
	MaxAgentTimeout = 30 * time.Second

	queueSize = 100
	// Extra wait for a task that sat in the queue before a worker took it
	queueGrace = 2 * time.Second
)

var (
	ErrQueueFull     = errors.New("agent queue is full")
	ErrQueueShutdown = errors.New("agent queue is shutting down")
	ErrAgentTimeout  = errors.New("agent timed out")
)

// Suggester produces a move for the side to move
type Suggester interface {
	Suggest(ctx context.Context, b board.Board, side board.Side) (board.Move, error)
}

// AgentTask is one agent query and the channel its result goes to
type AgentTask struct {
	GameID   string
	Board    board.Board
	Side     board.Side
	Timeout  time.Duration
	Response chan<- AgentResult
}

// AgentResult is the outcome of an agent query
type AgentResult struct {
	GameID  string
	Move    board.Move
	Elapsed time.Duration
	Error   error
}

// AgentQueue runs agent queries on a fixed pool of workers
type AgentQueue struct {
	agent   Suggester
	tasks   chan AgentTask
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// ClampTimeout converts a player's budget in ms to a bounded duration
func ClampTimeout(ms int) time.Duration {
	if ms <= 0 {
		return agent.DefaultTimeout
	}
	d := time.Duration(ms) * time.Millisecond
	switch {
	case d < MinAgentTimeout:
		return MinAgentTimeout
	case d > MaxAgentTimeout:
		return MaxAgentTimeout
	}
	return d
}

// NewAgentQueue creates a queue with the given worker count
func NewAgentQueue(s Suggester, workerCount int) *AgentQueue {
	if workerCount < 1 {
		workerCount = 2
	}

	ctx, cancel := context.WithCancel(context.Background())

	q := &AgentQueue{
		agent:   s,
		tasks:   make(chan AgentTask, queueSize),
		workers: workerCount,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	return q
}

func (q *AgentQueue) worker(id int) {
	defer q.wg.Done()

	for {
		select {
		case task := <-q.tasks:
			result := q.processTask(task)
			if result.Error != nil {
				log.Printf("Agent worker %d: game %s: %v", id, task.GameID, result.Error)
			}
			// Response is buffered, a late result is simply dropped
			select {
			case task.Response <- result:
			default:
			}

		case <-q.ctx.Done():
			return
		}
	}
}

func (q *AgentQueue) processTask(task AgentTask) AgentResult {
	ctx, cancel := context.WithTimeout(q.ctx, task.Timeout)
	defer cancel()

	start := time.Now()
	m, err := q.agent.Suggest(ctx, task.Board, task.Side)
	result := AgentResult{GameID: task.GameID, Move: m, Elapsed: time.Since(start)}

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %v", ErrAgentTimeout, task.Timeout)
		}
		result.Error = err
	}
	return result
}

// Submit adds a task to the queue without blocking
func (q *AgentQueue) Submit(task AgentTask) error {
	if q.ctx.Err() != nil {
		return ErrQueueShutdown
	}

	select {
	case q.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// SubmitAsync queues a query and invokes callback exactly once with its
// result, a timeout, or a shutdown error
func (q *AgentQueue) SubmitAsync(gameID string, b board.Board, side board.Side, timeout time.Duration, callback func(AgentResult)) error {
	respChan := make(chan AgentResult, 1)

	task := AgentTask{
		GameID:   gameID,
		Board:    b,
		Side:     side,
		Timeout:  timeout,
		Response: respChan,
	}

	if err := q.Submit(task); err != nil {
		return err
	}

	go func() {
		watchdog := time.NewTimer(timeout + queueGrace)
		defer watchdog.Stop()

		select {
		case result := <-respChan:
			callback(result)
		case <-watchdog.C:
			callback(AgentResult{GameID: gameID, Error: ErrAgentTimeout})
		case <-q.ctx.Done():
			callback(AgentResult{GameID: gameID, Error: ErrQueueShutdown})
		}
	}()

	return nil
}

// Shutdown stops the workers, in-flight queries are cancelled
func (q *AgentQueue) Shutdown(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout exceeded")
	}
}
