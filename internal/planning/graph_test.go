package planning

import (
	"testing"

	"github.com/planloom/planloom/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func plainTask(id string, parent *string) domain.Task {
	return domain.Task{ID: id, Designation: domain.DesignationTask, ParentID: parent}
}

func TestBuildGraph_SimpleChain(t *testing.T) {
	tasks := map[string]*domain.Task{}
	req := domain.Task{ID: "req", Designation: domain.DesignationRequirement}
	mil := domain.Task{ID: "mil", Designation: domain.DesignationMilestone}
	mid := plainTask("mid", nil)
	for _, tk := range []*domain.Task{&req, &mil, &mid} {
		tasks[tk.ID] = tk
	}
	deps := []domain.Dependency{
		{PredecessorID: "req", SuccessorID: "mid"},
		{PredecessorID: "mid", SuccessorID: "mil"},
	}

	dag, err := buildGraph(tasks, deps)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"mid"}, dag.Successors("req"))
	assert.ElementsMatch(t, []string{"mil"}, dag.Successors("mid"))
	assert.ElementsMatch(t, []string{"mid"}, dag.Predecessors("mil"))
}

func TestBuildGraph_GroupEliminationPreservesInternalReachability(t *testing.T) {
	tasks := map[string]*domain.Task{}
	e := plainTask("e", nil)
	f := plainTask("f", nil)
	group := domain.Task{ID: "g", Designation: domain.DesignationGroup}
	child := plainTask("child", ptr("g"))
	msChild := domain.Task{ID: "mschild", Designation: domain.DesignationMilestone, ParentID: ptr("g")}
	for _, tk := range []*domain.Task{&e, &f, &group, &child, &msChild} {
		tasks[tk.ID] = tk
	}
	deps := []domain.Dependency{
		{PredecessorID: "e", SuccessorID: "g"},
		{PredecessorID: "g", SuccessorID: "f"},
	}

	dag, err := buildGraph(tasks, deps)
	require.NoError(t, err)

	// The group node itself must not survive.
	_, ok := dag.Node("g")
	assert.False(t, ok)

	assert.Contains(t, dag.Successors("e"), "child")
	assert.Contains(t, dag.Successors("e"), "mschild")
	assert.Contains(t, dag.Successors("child"), "f")
}

func TestBuildGraph_DependencyCycleIsReported(t *testing.T) {
	tasks := map[string]*domain.Task{}
	a := plainTask("a", nil)
	b := plainTask("b", nil)
	tasks["a"] = &a
	tasks["b"] = &b
	deps := []domain.Dependency{
		{PredecessorID: "a", SuccessorID: "b"},
		{PredecessorID: "b", SuccessorID: "a"},
	}

	_, err := buildGraph(tasks, deps)
	assert.ErrorIs(t, err, ErrDependencyLoop)
}

func TestBuildGraph_HierarchyCycleIsReported(t *testing.T) {
	tasks := map[string]*domain.Task{}
	a := domain.Task{ID: "a", Designation: domain.DesignationGroup, ParentID: ptr("b")}
	b := domain.Task{ID: "b", Designation: domain.DesignationGroup, ParentID: ptr("a")}
	tasks["a"] = &a
	tasks["b"] = &b

	_, err := buildGraph(tasks, nil)
	assert.ErrorIs(t, err, ErrHierarchyLoop)
}

func TestTransitiveReduce_RemovesRedundantDirectEdge(t *testing.T) {
	tasks := map[string]*domain.Task{}
	a := plainTask("a", nil)
	b := plainTask("b", nil)
	c := plainTask("c", nil)
	tasks["a"] = &a
	tasks["b"] = &b
	tasks["c"] = &c
	deps := []domain.Dependency{
		{PredecessorID: "a", SuccessorID: "b"},
		{PredecessorID: "b", SuccessorID: "c"},
		{PredecessorID: "a", SuccessorID: "c"}, // redundant, implied by a->b->c
	}

	dag, err := buildGraph(tasks, deps)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b"}, dag.Successors("a"), "a->c must be removed as redundant")
	assert.ElementsMatch(t, []string{"c"}, dag.Successors("b"))
}
