package planning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/planloom/planloom/internal/availability"
	"github.com/planloom/planloom/internal/domain"
)

// CalculationWindow is the [start, calculation_end) span the placer and
// availability builder compute against (§4.C).
type CalculationWindow struct {
	Start          time.Time
	ScheduleTarget time.Time
	CalculationEnd time.Time
}

// BuildInput is everything the problem builder needs, already loaded
// from the repository layer. Holidays is keyed by Holiday.ID; a resource
// with a nil HolidayID, or one not present in the map, is treated as
// having no holiday calendar.
type BuildInput struct {
	Tasks         []domain.Task
	Dependencies  []domain.Dependency
	Resources     []domain.Resource
	Holidays      map[string]*domain.Holiday
	ExistingSlots map[string][]availability.Slot
}

// Problem is the fully built scheduling problem: a reduced DAG, the
// calculation window, per-resource slots, and any structural issues
// found along the way. A Problem with a nil DAG could not be built at
// all (dependency or hierarchy cycle); Issues explains why.
type Problem struct {
	Tasks     map[string]*domain.Task
	Resources map[string]*domain.Resource
	DAG       *DAG
	Window    CalculationWindow
	Slots     map[string][]availability.Slot
	Issues    []domain.Issue
}

func generalIssue(code domain.IssueCode, desc string) domain.Issue {
	return domain.Issue{ID: uuid.NewString(), Code: code, Description: desc, Type: domain.IssueTypePlanningGeneral}
}

func taskIssue(code domain.IssueCode, taskID, desc string) domain.Issue {
	id := taskID
	return domain.Issue{ID: uuid.NewString(), Code: code, Description: desc, Type: domain.IssueTypePlanningTask, TaskID: &id}
}

// Build loads entities into a Problem: it constructs the DAG (eliminating
// groups and transitively reducing), inherits resource constraints,
// computes the calculation window, detects structural issues, and
// computes per-resource availability slots over the window.
//
// A returned error means an unrecoverable infrastructure failure (e.g. an
// unparseable resource timezone); everything else — cycles, missing
// requirements/milestones, missing resources — is reported as an Issue
// on the returned Problem, per the error-handling design (§7).
func Build(input BuildInput) (*Problem, error) {
	tasksByID := make(map[string]*domain.Task, len(input.Tasks))
	for i := range input.Tasks {
		t := &input.Tasks[i]
		tasksByID[t.ID] = t
	}
	resourcesByID := make(map[string]*domain.Resource, len(input.Resources))
	for i := range input.Resources {
		r := &input.Resources[i]
		resourcesByID[r.ID] = r
	}

	p := &Problem{
		Tasks:     tasksByID,
		Resources: resourcesByID,
		Slots:     make(map[string][]availability.Slot, len(input.Resources)),
	}

	dag, err := buildGraph(tasksByID, input.Dependencies)
	if err != nil {
		switch err {
		case ErrDependencyLoop:
			p.Issues = append(p.Issues, generalIssue(domain.IssueDependencyLoop, "dependency graph contains a cycle"))
		case ErrHierarchyLoop:
			p.Issues = append(p.Issues, generalIssue(domain.IssueHierarchyLoop, "task parent chain contains a cycle"))
		default:
			return nil, fmt.Errorf("planning: building graph: %w", err)
		}
		return p, nil
	}
	p.DAG = dag

	inheritConstraints(tasksByID)

	window, haveStart, haveTarget := calculationWindow(tasksByID)
	if !haveStart {
		p.Issues = append(p.Issues, generalIssue(domain.IssueRequirementMissing, "no requirement defines an earliest start"))
	}
	if !haveTarget {
		p.Issues = append(p.Issues, generalIssue(domain.IssueMilestoneMissing, "no milestone defines a schedule target"))
	}
	if !haveStart || !haveTarget {
		return p, nil
	}
	p.Window = window

	p.Issues = append(p.Issues, detectStructuralIssues(dag, tasksByID)...)

	for _, r := range input.Resources {
		var holiday *domain.Holiday
		if r.HolidayID != nil {
			holiday = input.Holidays[*r.HolidayID]
		}
		existing := input.ExistingSlots[r.ID]
		slots, err := availability.BuildResourceSlots(existing, r, holiday, window.Start, window.CalculationEnd)
		if err != nil {
			return nil, fmt.Errorf("planning: building slots for resource %s: %w", r.ID, err)
		}
		p.Slots[r.ID] = slots
	}

	return p, nil
}

// inheritConstraints copies a non-empty ancestor group's constraint list
// onto any descendant plain task that declares none of its own (§4.C).
func inheritConstraints(tasksByID map[string]*domain.Task) {
	for _, t := range tasksByID {
		if t.Designation != domain.DesignationTask || len(t.ResourceConstraints) > 0 {
			continue
		}
		cur := t
		for cur.ParentID != nil {
			parent, ok := tasksByID[*cur.ParentID]
			if !ok {
				break
			}
			if len(parent.ResourceConstraints) > 0 {
				inherited := make([]domain.ResourceConstraint, len(parent.ResourceConstraints))
				copy(inherited, parent.ResourceConstraints)
				t.ResourceConstraints = inherited
				break
			}
			cur = parent
		}
	}
}

// calculationWindow computes start = min(requirement.earliest_start),
// schedule_target = max(milestone.schedule_target), and
// calculation_end = start + 2*(schedule_target - start). The two bool
// results report whether a requirement / milestone, respectively, could
// be found at all.
func calculationWindow(tasksByID map[string]*domain.Task) (CalculationWindow, bool, bool) {
	var start, target *time.Time
	for _, t := range tasksByID {
		switch {
		case t.Designation == domain.DesignationRequirement && t.EarliestStart != nil:
			if start == nil || t.EarliestStart.Before(*start) {
				start = t.EarliestStart
			}
		case t.Designation == domain.DesignationMilestone && t.ScheduleTarget != nil:
			if target == nil || t.ScheduleTarget.After(*target) {
				target = t.ScheduleTarget
			}
		}
	}
	if start == nil || target == nil {
		return CalculationWindow{}, start != nil, target != nil
	}
	span := target.Sub(*start)
	return CalculationWindow{
		Start:          *start,
		ScheduleTarget: *target,
		CalculationEnd: start.Add(2 * span),
	}, true, true
}

// detectStructuralIssues walks the reduced DAG forward from every
// Requirement and backward from every Milestone, flagging any task not
// reached either way, plus any plain task with no effective resource
// constraints (§4.C).
func detectStructuralIssues(dag *DAG, tasksByID map[string]*domain.Task) []domain.Issue {
	var issues []domain.Issue

	reachedFromRequirement := make(map[string]bool)
	var roots []string
	for _, id := range dag.TaskIDs() {
		if t, ok := tasksByID[id]; ok && t.Designation == domain.DesignationRequirement {
			roots = append(roots, id)
		}
	}
	walk(dag.Successors, roots, reachedFromRequirement)

	reachesMilestone := make(map[string]bool)
	roots = roots[:0]
	for _, id := range dag.TaskIDs() {
		if t, ok := tasksByID[id]; ok && t.Designation == domain.DesignationMilestone {
			roots = append(roots, id)
		}
	}
	walk(dag.Predecessors, roots, reachesMilestone)

	for _, id := range dag.TaskIDs() {
		t, ok := tasksByID[id]
		if !ok || t.Designation == domain.DesignationRequirement {
			continue
		}
		if !reachedFromRequirement[id] {
			issues = append(issues, taskIssue(domain.IssueRequirementMissing, id, "task has no requirement ancestor"))
		}
	}
	for _, id := range dag.TaskIDs() {
		t, ok := tasksByID[id]
		if !ok || t.Designation == domain.DesignationMilestone {
			continue
		}
		if !reachesMilestone[id] {
			issues = append(issues, taskIssue(domain.IssueMilestoneMissing, id, "task does not lead to any milestone"))
		}
	}
	for _, id := range dag.TaskIDs() {
		t, ok := tasksByID[id]
		if !ok || t.Designation != domain.DesignationTask {
			continue
		}
		if len(t.ResourceConstraints) == 0 {
			issues = append(issues, taskIssue(domain.IssueResourceMissing, id, "task has no resource constraints"))
		}
	}
	return issues
}

// walk marks every node reachable from roots, inclusive, via step.
func walk(step func(string) []string, roots []string, visited map[string]bool) {
	stack := append([]string(nil), roots...)
	for _, r := range roots {
		visited[r] = true
	}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range step(n) {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
}
