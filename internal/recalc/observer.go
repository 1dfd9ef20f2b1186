package recalc

import (
	"context"
	"io"
	"log/slog"
	"time"
)

// Event captures one recalculation loop transition or outcome.
type Event struct {
	// State is the phase this event reports; Trigger names what started
	// the recalculation ("manual" or "debounce").
	State    State
	Trigger  string
	Duration time.Duration
	Err      error
}

// Observer receives recalculation loop events, mirroring the teacher's
// per-use-case observer shape but reporting loop state transitions and
// recompute outcomes instead of service use cases (§4.G).
type Observer interface {
	ObserveRecalc(ctx context.Context, event Event)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveRecalc(context.Context, Event) {}

type logObserver struct {
	logger *slog.Logger
}

// NewLogObserver writes recalculation events to w as structured log
// lines. A nil w yields a NoopObserver.
func NewLogObserver(w io.Writer) Observer {
	if w == nil {
		return NoopObserver{}
	}
	return &logObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logObserver) ObserveRecalc(ctx context.Context, event Event) {
	attrs := []any{"state", event.State.String()}
	if event.Trigger != "" {
		attrs = append(attrs, "trigger", event.Trigger)
	}
	if event.Duration > 0 {
		attrs = append(attrs, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.ErrorContext(ctx, "recalc", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "recalc", attrs...)
}

func observerOrNoop(observers []Observer) Observer {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopObserver{}
}
