package ga

import (
	"math/rand/v2"
	"time"

	"github.com/planloom/planloom/internal/domain"
)

// Gene is the per-task encoding the placer consumes: which resources are
// already locked in, which constraint still has freedom of choice at
// placement time, and the combined speed multiplier (§4.D).
type Gene struct {
	TaskID                string
	RequiredResourceIDs   map[string]bool
	SelectableResourceIDs []string
	IsBooked              bool
	BookingStart          *time.Time
	TotalSpeed            float32
}

// FinishedTask anchors a task that is already done: its finished-at time
// comes from a BOOKING allocation marked Final, so it needs no gene of
// its own, only a reference the placer's "finished-at" setup step can
// resolve bookings against (§4.E "Setup").
type FinishedTask struct {
	TaskID     string
	FinishedAt time.Time
}

// buildGene runs the five-step construction in §4.D for task, given its
// existing BOOKING allocations (both in-progress and final).
func buildGene(task *domain.Task, bookings []domain.Allocation, rng *rand.Rand) Gene {
	g := Gene{
		TaskID:              task.ID,
		RequiredResourceIDs: make(map[string]bool),
	}

	bookedResourceIDs := make(map[string]bool)
	var earliestStart *time.Time
	for _, b := range bookings {
		if earliestStart == nil || b.Start.Before(*earliestStart) {
			s := b.Start
			earliestStart = &s
		}
		for _, rid := range b.Resources {
			bookedResourceIDs[rid] = true
		}
	}
	g.IsBooked = len(bookings) > 0
	g.BookingStart = earliestStart

	var totalSpeed float32
	var remaining []domain.ResourceConstraint
	for _, c := range task.ResourceConstraints {
		satisfied := false
		for _, e := range c.Entries {
			if bookedResourceIDs[e.ResourceID] {
				g.RequiredResourceIDs[e.ResourceID] = true
				totalSpeed += c.Speed
				satisfied = true
				break
			}
		}
		if !satisfied {
			remaining = append(remaining, c)
		}
	}

	var required, optional []domain.ResourceConstraint
	for _, c := range remaining {
		if c.Optional {
			optional = append(optional, c)
		} else {
			required = append(required, c)
		}
	}

	if len(optional) > 0 {
		n := rng.IntN(len(optional) + 1)
		rng.Shuffle(len(optional), func(i, j int) { optional[i], optional[j] = optional[j], optional[i] })
		required = append(required, optional[:n]...)
	}

	selectableIdx := -1
	for i, c := range required {
		if selectableIdx == -1 || len(c.Entries) > len(required[selectableIdx].Entries) {
			selectableIdx = i
		}
	}
	for i, c := range required {
		if i == selectableIdx {
			for _, e := range c.Entries {
				g.SelectableResourceIDs = append(g.SelectableResourceIDs, e.ResourceID)
			}
			totalSpeed += c.Speed
			continue
		}
		if len(c.Entries) == 0 {
			continue
		}
		pick := c.Entries[rng.IntN(len(c.Entries))]
		g.RequiredResourceIDs[pick.ResourceID] = true
		totalSpeed += c.Speed
	}

	if totalSpeed < 1 {
		totalSpeed = 1
	}
	g.TotalSpeed = totalSpeed
	return g
}
