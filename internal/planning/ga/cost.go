package ga

import (
	"math"
	"time"

	"github.com/planloom/planloom/internal/domain"
	"github.com/planloom/planloom/internal/planning"
)

// Cost evaluates plan_cost over every milestone in problem, given the
// fulfillment dates a placement run produced (milestone id -> date; a
// milestone absent from fulfilled is treated as unfulfilled), per the
// formula in §4.D "Cost function".
func Cost(problem *planning.Problem, fulfilled map[string]time.Time) float64 {
	var total float64
	for id, t := range problem.Tasks {
		if t.Designation != domain.DesignationMilestone || t.ScheduleTarget == nil {
			continue
		}
		var days float64
		if at, ok := fulfilled[id]; ok {
			days = at.Sub(*t.ScheduleTarget).Hours() / 24
		} else {
			end := problem.Window.CalculationEnd
			days = end.Sub(*t.ScheduleTarget).Hours()/24 + end.Sub(problem.Window.Start).Hours()/24
		}
		if days < 0 {
			total += math.Log(math.Abs(days)+1) * CostBefore[Priority]
		} else {
			total += (days*days + days) * CostAfter[Priority]
		}
	}
	return total
}
