// Package graph holds the immutable topology traversed by the parallel engine
// together with the per-node visitation state array.
//
// Topology (node values and neighbor lists) is fixed once NewGraph returns.
// Visit states are the only mutable part. They are deliberately unsynchronized:
// every read and transition made during a traversal happens under the worker
// pool's exclusion domain, the same lock that guards the task queue, so that a
// claim and a neighbor enqueue are observed atomically relative to each other.
package graph

import "fmt"

// VisitState is the per-node visitation tag.
type VisitState uint8

const (
	// NotVisited means no task has claimed the node yet.
	NotVisited VisitState = iota
	// Processing means a task owns the node and is folding its value.
	Processing
	// Done means the value is folded and all neighbor tasks are queued.
	Done
)

// String returns the string representation of a visit state
func (s VisitState) String() string {
	switch s {
	case NotVisited:
		return "NOT_VISITED"
	case Processing:
		return "PROCESSING"
	case Done:
		return "DONE"
	default:
		return fmt.Sprintf("VisitState(%d)", uint8(s))
	}
}

// Graph is an adjacency-list graph addressed by dense integer indices.
type Graph struct {
	values    []int64
	adjacency [][]int
	visits    []VisitState
	edges     int
}

// NewGraph builds a graph from per-node values and neighbor lists.
// Both slices are copied; every neighbor index must be in [0, len(values)).
func NewGraph(values []int64, adjacency [][]int) (*Graph, error) {
	if len(adjacency) != len(values) {
		return nil, fmt.Errorf("%w: %d values, %d adjacency lists", ErrInconsistentLength, len(values), len(adjacency))
	}

	n := len(values)
	g := &Graph{
		values:    make([]int64, n),
		adjacency: make([][]int, n),
		visits:    make([]VisitState, n),
	}
	copy(g.values, values)

	for i, neighbors := range adjacency {
		for _, nb := range neighbors {
			if nb < 0 || nb >= n {
				return nil, outOfRange("NewGraph", nb, n)
			}
		}
		g.adjacency[i] = append([]int(nil), neighbors...)
		g.edges += len(neighbors)
	}

	return g, nil
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.values)
}

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Neighbors returns the ordered neighbor list of node i.
// The returned slice is shared with the graph and must not be modified.
func (g *Graph) Neighbors(i int) ([]int, error) {
	if err := g.check("Neighbors", i); err != nil {
		return nil, err
	}
	return g.adjacency[i], nil
}

// Value returns the scalar payload of node i.
func (g *Graph) Value(i int) (int64, error) {
	if err := g.check("Value", i); err != nil {
		return 0, err
	}
	return g.values[i], nil
}

// VisitState returns the current visitation state of node i.
func (g *Graph) VisitState(i int) (VisitState, error) {
	if err := g.check("VisitState", i); err != nil {
		return NotVisited, err
	}
	return g.visits[i], nil
}

// Claim moves node i from NotVisited to Processing. It reports false when
// another task already claimed the node.
func (g *Graph) Claim(i int) (bool, error) {
	if err := g.check("Claim", i); err != nil {
		return false, err
	}
	if g.visits[i] != NotVisited {
		return false, nil
	}
	g.visits[i] = Processing
	return true, nil
}

// MarkDone moves node i from Processing to Done.
func (g *Graph) MarkDone(i int) error {
	if err := g.check("MarkDone", i); err != nil {
		return err
	}
	if g.visits[i] != Processing {
		return &GraphError{
			Op:    "MarkDone",
			Index: i,
			Cause: fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, g.visits[i], Done),
		}
	}
	g.visits[i] = Done
	return nil
}

// ResetVisits returns every node to NotVisited. It must not be called while a
// traversal is running.
func (g *Graph) ResetVisits() {
	clear(g.visits)
}

// CountStates returns how many nodes are in each visit state.
func (g *Graph) CountStates() map[VisitState]int {
	counts := make(map[VisitState]int, 3)
	for _, s := range g.visits {
		counts[s]++
	}
	return counts
}

func (g *Graph) check(op string, i int) error {
	if i < 0 || i >= len(g.values) {
		return outOfRange(op, i, len(g.values))
	}
	return nil
}
