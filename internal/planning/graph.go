package planning

import (
	"fmt"

	"github.com/planloom/planloom/internal/domain"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// ErrDependencyLoop is returned when the predecessor/successor graph
// cannot be topologically ordered, meaning it contains a cycle. Callers
// surface this as a fatal `dependency-loop` planning issue (§4.C).
var ErrDependencyLoop = fmt.Errorf("planning: dependency cycle detected")

// ErrHierarchyLoop is returned when a task's parent chain cycles back on
// itself, violating the "parent links form a forest" invariant (§3).
var ErrHierarchyLoop = fmt.Errorf("planning: parent chain cycle detected")

type graphNodeKind int

const (
	kindTask graphNodeKind = iota
	kindRequirement
	kindMilestone
	kindGroupIn
	kindGroupOut
)

// gnode is the concrete graph.Node implementation used while the group
// boundary nodes still exist. taskID is the domain.Task this node
// represents; for kindGroupIn/kindGroupOut that is the group's own id.
type gnode struct {
	id     int64
	kind   graphNodeKind
	taskID string
}

func (n gnode) ID() int64 { return n.id }

// DAG is the reduced dependency graph over surviving Task/Requirement/
// Milestone nodes, after group elimination and transitive reduction.
type DAG struct {
	g          *simple.DirectedGraph
	nodeByTask map[string]int64
	kindByNode map[int64]graphNodeKind
	taskByNode map[int64]string
}

// Node returns the Node variant for taskID, if it survived elimination.
func (d *DAG) Node(taskID string) (Node, bool) {
	id, ok := d.nodeByTask[taskID]
	if !ok {
		return nil, false
	}
	switch d.kindByNode[id] {
	case kindRequirement:
		return RequirementNode{ID: taskID}, true
	case kindMilestone:
		return MilestoneNode{ID: taskID}, true
	default:
		return TaskNode{ID: taskID}, true
	}
}

// Predecessors returns the task ids with a direct edge into taskID.
func (d *DAG) Predecessors(taskID string) []string {
	id, ok := d.nodeByTask[taskID]
	if !ok {
		return nil
	}
	var out []string
	it := d.g.To(id)
	for it.Next() {
		out = append(out, d.taskByNode[it.Node().ID()])
	}
	return out
}

// Successors returns the task ids with a direct edge from taskID.
func (d *DAG) Successors(taskID string) []string {
	id, ok := d.nodeByTask[taskID]
	if !ok {
		return nil
	}
	var out []string
	it := d.g.From(id)
	for it.Next() {
		out = append(out, d.taskByNode[it.Node().ID()])
	}
	return out
}

// TaskIDs returns every surviving node's task id, in no particular order.
func (d *DAG) TaskIDs() []string {
	out := make([]string, 0, len(d.nodeByTask))
	for id := range d.nodeByTask {
		out = append(out, id)
	}
	return out
}

// buildGraph materializes the full node/edge set (including transient
// group in/out boundary nodes), eliminates groups, and transitively
// reduces what remains. Dependencies whose endpoints are missing from
// tasksByID are skipped, as are parent links to a task that is missing or
// not a group.
func buildGraph(tasksByID map[string]*domain.Task, deps []domain.Dependency) (*DAG, error) {
	if err := detectHierarchyLoop(tasksByID); err != nil {
		return nil, err
	}

	g := simple.NewDirectedGraph()
	var nextID int64
	nodes := make(map[int64]gnode)
	// in/out resolve to the same id for non-group tasks.
	inOf := make(map[string]int64)
	outOf := make(map[string]int64)

	newNode := func(kind graphNodeKind, taskID string) int64 {
		id := nextID
		nextID++
		n := gnode{id: id, kind: kind, taskID: taskID}
		nodes[id] = n
		g.AddNode(n)
		return id
	}

	for _, t := range tasksByID {
		switch t.Designation {
		case domain.DesignationGroup:
			in := newNode(kindGroupIn, t.ID)
			out := newNode(kindGroupOut, t.ID)
			inOf[t.ID] = in
			outOf[t.ID] = out
			g.SetEdge(simple.Edge{F: nodes[in], T: nodes[out]})
		case domain.DesignationRequirement:
			id := newNode(kindRequirement, t.ID)
			inOf[t.ID] = id
			outOf[t.ID] = id
		case domain.DesignationMilestone:
			id := newNode(kindMilestone, t.ID)
			inOf[t.ID] = id
			outOf[t.ID] = id
		default:
			id := newNode(kindTask, t.ID)
			inOf[t.ID] = id
			outOf[t.ID] = id
		}
	}

	addEdge := func(fromID, toID int64) {
		if fromID == toID {
			return
		}
		g.SetEdge(simple.Edge{F: nodes[fromID], T: nodes[toID]})
	}

	for _, t := range tasksByID {
		if t.ParentID == nil {
			continue
		}
		parent, ok := tasksByID[*t.ParentID]
		if !ok || parent.Designation != domain.DesignationGroup {
			continue
		}
		gin, gout := inOf[parent.ID], outOf[parent.ID]
		switch t.Designation {
		case domain.DesignationRequirement:
			addEdge(outOf[t.ID], gout)
		case domain.DesignationMilestone:
			addEdge(gin, inOf[t.ID])
		default:
			addEdge(gin, inOf[t.ID])
			addEdge(outOf[t.ID], gout)
		}
	}

	for _, dep := range deps {
		pre, ok := outOf[dep.PredecessorID]
		if !ok {
			continue
		}
		suc, ok := inOf[dep.SuccessorID]
		if !ok {
			continue
		}
		addEdge(pre, suc)
	}

	eliminateGroups(g, nodes)

	order, err := topo.Sort(g)
	if err != nil {
		return nil, ErrDependencyLoop
	}
	transitiveReduce(g, order)

	d := &DAG{
		g:          g,
		nodeByTask: make(map[string]int64),
		kindByNode: make(map[int64]graphNodeKind),
		taskByNode: make(map[int64]string),
	}
	for _, n := range graph.NodesOf(g.Nodes()) {
		gn := n.(gnode)
		if gn.kind == kindGroupIn || gn.kind == kindGroupOut {
			continue
		}
		d.nodeByTask[gn.taskID] = gn.id
		d.kindByNode[gn.id] = gn.kind
		d.taskByNode[gn.id] = gn.taskID
	}
	return d, nil
}

// eliminateGroups removes every group boundary node (each group
// contributes two: in and out), bypassing it by connecting every
// predecessor directly to every successor before removing it (§4.C). An
// in node is bypassed before its paired out node so that the bypass
// edges an in's elimination adds (including to the group's own children
// and to its out twin) are visible when the out node is, in turn,
// bypassed.
func eliminateGroups(g *simple.DirectedGraph, nodes map[int64]gnode) {
	var ins, outs []int64
	for id, n := range nodes {
		switch n.kind {
		case kindGroupIn:
			ins = append(ins, id)
		case kindGroupOut:
			outs = append(outs, id)
		}
	}
	bypass := func(id int64) {
		var predecessors, successors []graph.Node
		to := g.To(id)
		for to.Next() {
			predecessors = append(predecessors, to.Node())
		}
		from := g.From(id)
		for from.Next() {
			successors = append(successors, from.Node())
		}
		for _, a := range predecessors {
			for _, b := range successors {
				if a.ID() == b.ID() {
					continue
				}
				if !g.HasEdgeFromTo(a.ID(), b.ID()) {
					g.SetEdge(simple.Edge{F: a, T: b})
				}
			}
		}
		g.RemoveNode(id)
	}
	for _, id := range ins {
		bypass(id)
	}
	for _, id := range outs {
		bypass(id)
	}
}

// transitiveReduce removes every edge u->v for which a longer path
// u->...->v already exists, given a valid topological order.
func transitiveReduce(g *simple.DirectedGraph, order []graph.Node) {
	reach := make(map[int64]map[int64]bool, len(order))
	successors := make(map[int64][]int64, len(order))
	for _, n := range order {
		id := n.ID()
		it := g.From(id)
		for it.Next() {
			successors[id] = append(successors[id], it.Node().ID())
		}
	}
	for i := len(order) - 1; i >= 0; i-- {
		u := order[i].ID()
		r := make(map[int64]bool)
		for _, v := range successors[u] {
			r[v] = true
			for w := range reach[v] {
				r[w] = true
			}
		}
		reach[u] = r
	}
	for _, n := range order {
		u := n.ID()
		for _, v := range successors[u] {
			redundant := false
			for _, w := range successors[u] {
				if w == v {
					continue
				}
				if reach[w][v] {
					redundant = true
					break
				}
			}
			if redundant {
				g.RemoveEdge(u, v)
			}
		}
	}
}

// detectHierarchyLoop walks every task's ParentID chain, bounded by the
// total task count, to catch cycles in the parent forest.
func detectHierarchyLoop(tasksByID map[string]*domain.Task) error {
	for _, t := range tasksByID {
		seen := make(map[string]bool)
		cur := t
		for cur.ParentID != nil {
			if seen[cur.ID] {
				return ErrHierarchyLoop
			}
			seen[cur.ID] = true
			parent, ok := tasksByID[*cur.ParentID]
			if !ok {
				break
			}
			cur = parent
		}
	}
	return nil
}
