// Package ga implements the genetic-algorithm planner (§4.D): it
// searches over (task order, resource selection) pairs, encoded as
// Individuals of Genes, and scores each by running it through a greedy
// placer and evaluating the resulting plan's per-milestone lateness.
package ga

// Params holds the loop's tunable defaults (§4.D "Loop").
type Params struct {
	Iterations          int
	Population          int
	KeepSeeds           int
	ProbMutationOnly    float64
	ProbCrossoverOnly   float64
	ProbBoth            float64
	ProbMutateResources float64
	ProbMutateOrder     float64
	ProbCrossoverPoint  float64
}

// DefaultParams returns the spec's documented defaults.
func DefaultParams() Params {
	return Params{
		Iterations:          100,
		Population:          100,
		KeepSeeds:           10,
		ProbMutationOnly:    0.25,
		ProbCrossoverOnly:   0.25,
		ProbBoth:            0.25,
		ProbMutateResources: 0.05,
		ProbMutateOrder:     0.2,
		ProbCrossoverPoint:  0.3,
	}
}

// Priority is a fixed medium priority index until priority metadata
// exists on tasks/milestones (§4.D "Cost function").
const Priority = 1

// CostBefore and CostAfter are the per-priority cost coefficients,
// indexed by priority (0=low, 1=medium, 2=high).
var (
	CostBefore = [3]float64{-0.2, -0.4, -0.6}
	CostAfter  = [3]float64{0.2, 0.4, 0.6}
)
