package repository

import (
	"context"
	"sync"
	"time"

	"github.com/planloom/planloom/internal/domain"
)

// BatchingTaskRepo wraps a TaskRepo and coalesces concurrent Load calls
// made within a short window into a single ListByIDs call, modeled on
// the GraphQL-layer dataloader description in §9 but kept orthogonal to
// the planner itself: nothing in internal/planning depends on it.
type BatchingTaskRepo struct {
	inner TaskRepo

	mu      sync.Mutex
	pending map[string][]chan loadResult
	timer   *time.Timer
	delay   time.Duration
}

type loadResult struct {
	task *domain.Task
	err  error
}

// NewBatchingTaskRepo wraps inner with a delay window during which
// concurrent Load calls are coalesced into one ListByIDs batch.
func NewBatchingTaskRepo(inner TaskRepo, delay time.Duration) *BatchingTaskRepo {
	if delay <= 0 {
		delay = time.Millisecond
	}
	return &BatchingTaskRepo{inner: inner, pending: make(map[string][]chan loadResult), delay: delay}
}

// Load resolves id, batched together with any other Load calls made
// before the coalescing window elapses.
func (b *BatchingTaskRepo) Load(ctx context.Context, id string) (*domain.Task, error) {
	ch := make(chan loadResult, 1)

	b.mu.Lock()
	b.pending[id] = append(b.pending[id], ch)
	if b.timer == nil {
		b.timer = time.AfterFunc(b.delay, func() { b.flush(ctx) })
	}
	b.mu.Unlock()

	select {
	case res := <-ch:
		return res.task, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *BatchingTaskRepo) flush(ctx context.Context) {
	b.mu.Lock()
	batch := b.pending
	b.pending = make(map[string][]chan loadResult)
	b.timer = nil
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	ids := make([]string, 0, len(batch))
	for id := range batch {
		ids = append(ids, id)
	}

	tasks, err := b.inner.ListByIDs(ctx, ids)
	for id, channels := range batch {
		var res loadResult
		if err != nil {
			res.err = err
		} else if t, ok := tasks[id]; ok {
			res.task = t
		} else {
			res.err = ErrNotFound
		}
		for _, ch := range channels {
			ch <- res
		}
	}
}
