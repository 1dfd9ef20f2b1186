package ga

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/planning"
)

// Individual is a candidate (task order, resource selection) pair: the
// unit the loop mutates, crosses, and scores (§4.D).
type Individual struct {
	BookedTasks   []Gene
	Tasks         []Gene
	FinishedTasks []FinishedTask
}

// Clone deep-copies ind so mutation/crossover never alias shared state.
func (ind *Individual) Clone() *Individual {
	out := &Individual{
		BookedTasks:   append([]Gene(nil), ind.BookedTasks...),
		Tasks:         make([]Gene, len(ind.Tasks)),
		FinishedTasks: append([]FinishedTask(nil), ind.FinishedTasks...),
	}
	for i, g := range ind.Tasks {
		out.Tasks[i] = cloneGene(g)
	}
	return out
}

func cloneGene(g Gene) Gene {
	required := make(map[string]bool, len(g.RequiredResourceIDs))
	for k, v := range g.RequiredResourceIDs {
		required[k] = v
	}
	return Gene{
		TaskID:                g.TaskID,
		RequiredResourceIDs:   required,
		SelectableResourceIDs: append([]string(nil), g.SelectableResourceIDs...),
		IsBooked:              g.IsBooked,
		BookingStart:          g.BookingStart,
		TotalSpeed:            g.TotalSpeed,
	}
}

// NewIndividual partitions every schedulable task in problem into booked,
// finished, and unbooked buckets, records a FinishedTask for each finished
// one, and builds genes for the booked ones and for the unbooked ones, the
// latter in a random valid topological order (§4.D).
func NewIndividual(problem *planning.Problem, bookingsByTask map[string][]domain.Allocation, rng *rand.Rand) *Individual {
	ind := &Individual{}
	var unbooked []string

	for id, t := range problem.Tasks {
		if !t.Schedulable() {
			continue
		}
		bookings := bookingsByTask[id]
		var final *domain.Allocation
		for i := range bookings {
			if bookings[i].Final {
				final = &bookings[i]
				break
			}
		}
		switch {
		case final != nil:
			ind.FinishedTasks = append(ind.FinishedTasks, FinishedTask{TaskID: id, FinishedAt: final.End})
		case len(bookings) > 0:
			ind.BookedTasks = append(ind.BookedTasks, buildGene(t, bookings, rng))
		default:
			unbooked = append(unbooked, id)
		}
	}

	sort.Slice(ind.BookedTasks, func(i, j int) bool {
		return bookingStartBefore(ind.BookedTasks[i].BookingStart, ind.BookedTasks[j].BookingStart)
	})

	order := randomTopologicalOrder(problem.DAG, unbooked, rng)
	ind.Tasks = make([]Gene, 0, len(order))
	for _, id := range order {
		ind.Tasks = append(ind.Tasks, buildGene(problem.Tasks[id], nil, rng))
	}
	return ind
}

func bookingStartBefore(a, b *time.Time) bool {
	if a == nil {
		return b != nil
	}
	if b == nil {
		return false
	}
	return a.Before(*b)
}

// randomTopologicalOrder repeatedly picks a uniformly random "ready" node
// (all of its predecessors within ids already placed) and appends it,
// matching the biased-but-simple construction documented as a known
// limitation in §9.
func randomTopologicalOrder(dag *planning.DAG, ids []string, rng *rand.Rand) []string {
	inSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		inSet[id] = true
	}
	indegree := make(map[string]int, len(ids))
	successorsOf := make(map[string][]string, len(ids))
	for _, id := range ids {
		var count int
		for _, p := range dag.Predecessors(id) {
			if inSet[p] {
				count++
			}
		}
		indegree[id] = count
		for _, s := range dag.Successors(id) {
			if inSet[s] {
				successorsOf[id] = append(successorsOf[id], s)
			}
		}
	}

	var ready []string
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(ids))
	for len(ready) > 0 {
		i := rng.IntN(len(ready))
		chosen := ready[i]
		ready[i] = ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		order = append(order, chosen)
		for _, s := range successorsOf[chosen] {
			indegree[s]--
			if indegree[s] == 0 {
				ready = append(ready, s)
			}
		}
	}
	return order
}
