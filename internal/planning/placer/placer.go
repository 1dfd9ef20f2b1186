// Package placer implements the greedy placer (§4.E): given one
// Individual, it produces a Plan by walking tasks in a stable
// dependency-respecting order and booking each against its resources'
// availability slots.
package placer

import (
	"time"

	"github.com/google/uuid"
	"github.com/planloom/planloom/internal/availability"
	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/interval"
	"github.com/planloom/planloom/internal/planning"
	"github.com/planloom/planloom/internal/planning/ga"
)

// Plan is the placer's output for one Individual.
type Plan struct {
	Allocations         []domain.Allocation
	FulfilledMilestones map[string]time.Time
	Issues              []domain.Issue
}

// Place runs the full greedy placement algorithm for ind against
// problem's DAG and availability slots (§4.E).
func Place(problem *planning.Problem, ind *ga.Individual) *Plan {
	plan := &Plan{FulfilledMilestones: make(map[string]time.Time)}
	slots := cloneSlots(problem.Slots)

	finishedAt := make(map[string]time.Time)
	for id, t := range problem.Tasks {
		if t.Designation == domain.DesignationRequirement && t.EarliestStart != nil {
			finishedAt[id] = *t.EarliestStart
		}
	}
	for _, ft := range ind.FinishedTasks {
		finishedAt[ft.TaskID] = ft.FinishedAt
	}

	order := schedulingOrder(problem.DAG, ind)

	for _, gene := range order {
		placeOne(problem, gene, slots, finishedAt, plan)
	}

	fulfillMilestones(problem, finishedAt, plan)
	return plan
}

func cloneSlots(in map[string][]availability.Slot) map[string][]availability.Slot {
	out := make(map[string][]availability.Slot, len(in))
	for k, v := range in {
		out[k] = append([]availability.Slot(nil), v...)
	}
	return out
}

// schedulingOrder combines booked tasks (sorted by booking start) ahead
// of the unbooked remainder, then re-orders once by a stable Kahn-like
// pass: repeatedly pick the first element whose predecessors, among
// those also in this scheduling run, are already placed (§4.E).
func schedulingOrder(dag *planning.DAG, ind *ga.Individual) []ga.Gene {
	combined := make([]ga.Gene, 0, len(ind.BookedTasks)+len(ind.Tasks))
	combined = append(combined, ind.BookedTasks...)
	combined = append(combined, ind.Tasks...)

	inRun := make(map[string]bool, len(combined))
	for _, g := range combined {
		inRun[g.TaskID] = true
	}

	placed := make(map[string]bool, len(combined))
	remaining := combined
	order := make([]ga.Gene, 0, len(combined))
	for len(remaining) > 0 {
		chosen := 0
		for i, g := range remaining {
			ready := true
			for _, p := range dag.Predecessors(g.TaskID) {
				if inRun[p] && !placed[p] {
					ready = false
					break
				}
			}
			if ready {
				chosen = i
				break
			}
		}
		g := remaining[chosen]
		order = append(order, g)
		placed[g.TaskID] = true
		remaining = append(remaining[:chosen], remaining[chosen+1:]...)
	}
	return order
}

type candidate struct {
	resourceID string // empty for a primary-only candidate
	assigned   interval.Intervals[time.Time]
	end        time.Time
}

func placeOne(problem *planning.Problem, gene ga.Gene, slots map[string][]availability.Slot, finishedAt map[string]time.Time, plan *Plan) {
	task := problem.Tasks[gene.TaskID]

	var taskStart time.Time
	started := false
	for _, pred := range problem.DAG.Predecessors(gene.TaskID) {
		end, ok := finishedAt[pred]
		if !ok {
			plan.Issues = append(plan.Issues, taskPlanIssue(domain.IssuePredecessorUnfinished, gene.TaskID, "predecessor is not finished"))
			return
		}
		if !started || end.After(taskStart) {
			taskStart = end
			started = true
		}
	}
	if !started {
		taskStart = problem.Window.Start
	}

	if task.Effort == nil || *task.Effort <= 0 {
		plan.Issues = append(plan.Issues, taskPlanIssue(domain.IssueNoEffort, gene.TaskID, "task has no positive effort"))
		return
	}
	if len(gene.RequiredResourceIDs) == 0 && len(gene.SelectableResourceIDs) == 0 {
		plan.Issues = append(plan.Issues, taskPlanIssue(domain.IssueNoSlotFound, gene.TaskID, "task has no candidate resources"))
		return
	}

	effectiveHours := *task.Effort / float64(gene.TotalSpeed)
	duration := time.Duration(effectiveHours * 8 * float64(time.Hour))

	requiredIDs := make([]string, 0, len(gene.RequiredResourceIDs))
	for rid := range gene.RequiredResourceIDs {
		requiredIDs = append(requiredIDs, rid)
	}

	var primaryAvail interval.Intervals[time.Time]
	if len(requiredIDs) == 0 {
		window := interval.MustNew(interval.StartClosed(taskStart), interval.EndOpen[time.Time](problem.Window.CalculationEnd))
		primaryAvail = primaryAvail.Insert(window)
	} else {
		primaryAvail = resourceAvailable(slots[requiredIDs[0]], taskStart, problem.Window.CalculationEnd)
		for _, rid := range requiredIDs[1:] {
			primaryAvail = primaryAvail.Intersection(resourceAvailable(slots[rid], taskStart, problem.Window.CalculationEnd))
		}
	}

	var candidates []candidate
	for _, selID := range gene.SelectableResourceIDs {
		avail := resourceAvailable(slots[selID], taskStart, problem.Window.CalculationEnd)
		inter := primaryAvail.Intersection(avail)
		if dur, ok := totalDuration(inter); ok && dur >= duration {
			assigned := reduceIntervals(inter, duration)
			if hull, ok := assigned.Hull(); ok {
				if end, ok := hull.End.Value(); ok {
					candidates = append(candidates, candidate{resourceID: selID, assigned: assigned, end: end})
				}
			}
		}
	}
	if len(gene.SelectableResourceIDs) == 0 {
		if dur, ok := totalDuration(primaryAvail); ok && dur >= duration {
			assigned := reduceIntervals(primaryAvail, duration)
			if hull, ok := assigned.Hull(); ok {
				if end, ok := hull.End.Value(); ok {
					candidates = append(candidates, candidate{assigned: assigned, end: end})
				}
			}
		}
	}

	if len(candidates) == 0 {
		plan.Issues = append(plan.Issues, taskPlanIssue(domain.IssueNoSlotFound, gene.TaskID, "no resource combination covers the required duration"))
		return
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.end.Before(best.end) {
			best = c
		}
	}

	resourcesInvolved := append([]string(nil), requiredIDs...)
	if best.resourceID != "" {
		resourcesInvolved = append(resourcesInvolved, best.resourceID)
	}
	for _, rid := range resourcesInvolved {
		for _, iv := range best.assigned {
			slots[rid] = commitInterval(slots[rid], iv)
		}
	}

	// Every disjoint sub-interval taken becomes its own allocation, so a
	// vacation or holiday gap splits the booking rather than being folded
	// into one Start/End span that would cover unavailable time (§8
	// scenario 2, §8 "no two assignments to the same resource overlap").
	var latestEnd time.Time
	for i, iv := range best.assigned {
		start, _ := iv.Start.Value()
		end, _ := iv.End.Value()
		plan.Allocations = append(plan.Allocations, domain.Allocation{
			ID:             uuid.NewString(),
			TaskID:         gene.TaskID,
			Start:          start,
			End:            end,
			AllocationType: domain.AllocationPlan,
			Resources:      resourcesInvolved,
		})
		if i == 0 || end.After(latestEnd) {
			latestEnd = end
		}
	}
	finishedAt[gene.TaskID] = latestEnd
}

// fulfillMilestones walks every milestone after placement; one is
// fulfilled at max(predecessor finished-at) iff every predecessor
// finished or was placed (§4.E "Milestone fulfillment").
func fulfillMilestones(problem *planning.Problem, finishedAt map[string]time.Time, plan *Plan) {
	for id, t := range problem.Tasks {
		if t.Designation != domain.DesignationMilestone {
			continue
		}
		predecessors := problem.DAG.Predecessors(id)
		if len(predecessors) == 0 {
			plan.FulfilledMilestones[id] = problem.Window.Start
			continue
		}
		var latest time.Time
		complete := true
		for i, pred := range predecessors {
			end, ok := finishedAt[pred]
			if !ok {
				complete = false
				break
			}
			if i == 0 || end.After(latest) {
				latest = end
			}
		}
		if complete {
			plan.FulfilledMilestones[id] = latest
		}
	}
}

func taskPlanIssue(code domain.IssueCode, taskID, desc string) domain.Issue {
	id := taskID
	return domain.Issue{ID: uuid.NewString(), Code: code, Description: desc, Type: domain.IssueTypePlanningTask, TaskID: &id}
}
