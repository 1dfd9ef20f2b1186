// Package recalc implements the debounced recalculation loop (§4.G): it
// watches for modification signals, coalesces bursts of them behind a
// debounce timer, and on manual or debounce triggers rebuilds the
// scheduling problem, runs the genetic algorithm, and writes the winning
// plan back through the repository layer, all inside one transaction.
package recalc

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/planloom/planloom/internal/db"
	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/planning"
	"github.com/planloom/planloom/internal/planning/ga"
	"github.com/planloom/planloom/internal/planning/placer"
	"github.com/planloom/planloom/internal/planning/planwriter"
	"github.com/planloom/planloom/internal/repository"
)

// Loop owns the modify/manual/state channel set and runs recalculations
// against uow. Build it with NewLoop and start it with Run in its own
// goroutine.
type Loop struct {
	uow      db.UnitOfWork
	params   ga.Params
	debounce time.Duration
	observer Observer

	modify chan struct{}
	manual chan struct{}
	state  *StateBroadcaster
}

// NewLoop creates a Loop. debounce is the modify-to-recompute delay
// (§4.G names 300s as the default — see internal/config).
func NewLoop(uow db.UnitOfWork, params ga.Params, debounce time.Duration, observers ...Observer) *Loop {
	return &Loop{
		uow:      uow,
		params:   params,
		debounce: debounce,
		observer: observerOrNoop(observers),
		modify:   make(chan struct{}, 1),
		manual:   make(chan struct{}, 1),
		state:    NewStateBroadcaster(Finished),
	}
}

// Notify signals that something changed. Safe to call concurrently from
// multiple writers; bursts before the loop next selects are coalesced
// into one debounce arm, matching the broadcast-lossy semantics of the
// modify channel.
func (l *Loop) Notify() {
	select {
	case l.modify <- struct{}{}:
	default:
	}
}

// TriggerManual requests an immediate recalculation, bypassing the
// debounce timer. Multiple calls before the loop drains the previous one
// coalesce into a single trigger, since the loop only needs to know at
// least one was requested.
func (l *Loop) TriggerManual() {
	select {
	case l.manual <- struct{}{}:
	default:
	}
}

// Stop closes the manual channel, ending Run per §4.G's cancellation
// rule ("the loop stops when the manual channel is closed"). A
// recalculation already in progress is not preempted.
func (l *Loop) Stop() {
	close(l.manual)
}

// Subscribe returns a channel reporting state transitions, pre-loaded
// with the current state.
func (l *Loop) Subscribe() (<-chan State, func()) {
	return l.state.Subscribe()
}

// Run blocks, processing modify/manual triggers until Stop is called or
// ctx is done. Intended to run in its own goroutine.
func (l *Loop) Run(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case _, ok := <-l.manual:
			if !ok {
				if timer != nil {
					timer.Stop()
				}
				return
			}
			if timer != nil {
				timer.Stop()
				timerC = nil
			}
			l.recalculate(ctx, "manual")
		case <-l.modify:
			l.state.Publish(Modified)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(l.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			l.recalculate(ctx, "debounce")
		}
	}
}

func (l *Loop) recalculate(ctx context.Context, trigger string) {
	started := time.Now()
	l.state.Publish(Calculating)

	err := l.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		problem, bookingsByTask, err := buildProblem(ctx, tx)
		if err != nil {
			return fmt.Errorf("building problem: %w", err)
		}

		rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
		placeFunc := func(ind *ga.Individual) (map[string]time.Time, error) {
			return placer.Place(problem, ind).FulfilledMilestones, nil
		}
		best, _, err := ga.Run(problem, bookingsByTask, placeFunc, l.params, rng)
		if err != nil {
			return fmt.Errorf("running genetic algorithm: %w", err)
		}

		plan := placer.Place(problem, best)
		return planwriter.WriteTx(ctx, tx, problem.Issues, plan)
	})

	l.state.Publish(Finished)
	l.observer.ObserveRecalc(ctx, Event{
		State:    Finished,
		Trigger:  trigger,
		Duration: time.Since(started),
		Err:      err,
	})
}

// buildProblem reads the full current task/dependency/resource graph
// through tx-scoped repositories and hands it to the problem builder
// (§4.B-C), alongside the bookings grouped by task the GA needs to seed
// each Individual's already-committed work (§4.D).
func buildProblem(ctx context.Context, tx db.DBTX) (*planning.Problem, map[string][]domain.Allocation, error) {
	taskRepo := repository.NewSQLiteTaskRepo(tx)
	depRepo := repository.NewSQLiteDependencyRepo(tx)
	resourceRepo := repository.NewSQLiteResourceRepo(tx)
	constraintRepo := repository.NewSQLiteConstraintRepo(tx)
	holidayRepo := repository.NewSQLiteHolidayRepo(tx)
	allocRepo := repository.NewSQLiteAllocationRepo(tx)

	tasks, err := taskRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing tasks: %w", err)
	}
	for i := range tasks {
		constraints, err := constraintRepo.ListByTask(ctx, tasks[i].ID)
		if err != nil {
			return nil, nil, fmt.Errorf("listing resource constraints for task %s: %w", tasks[i].ID, err)
		}
		tasks[i].ResourceConstraints = constraints
	}

	deps, err := depRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing dependencies: %w", err)
	}

	resources, err := resourceRepo.ListAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("listing resources: %w", err)
	}

	holidays := make(map[string]*domain.Holiday)
	for _, r := range resources {
		if r.HolidayID == nil {
			continue
		}
		if _, ok := holidays[*r.HolidayID]; ok {
			continue
		}
		holiday, err := holidayRepo.GetByID(ctx, *r.HolidayID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading holiday %s: %w", *r.HolidayID, err)
		}
		holidays[*r.HolidayID] = holiday
	}

	bookings, err := allocRepo.ListByType(ctx, domain.AllocationBooking)
	if err != nil {
		return nil, nil, fmt.Errorf("listing bookings: %w", err)
	}
	bookingsByTask := make(map[string][]domain.Allocation)
	for _, b := range bookings {
		bookingsByTask[b.TaskID] = append(bookingsByTask[b.TaskID], b)
	}

	problem, err := planning.Build(planning.BuildInput{
		Tasks:        tasks,
		Dependencies: deps,
		Resources:    resources,
		Holidays:     holidays,
	})
	if err != nil {
		return nil, nil, err
	}
	return problem, bookingsByTask, nil
}
