package graph

// Stats summarizes the shape of a graph.
type Stats struct {
	Nodes     int
	Edges     int
	SelfLoops int
	Isolated  int
}

// Stats computes a summary of the topology.
func (g *Graph) Stats() Stats {
	st := Stats{Nodes: len(g.values), Edges: g.edges}
	for i, neighbors := range g.adjacency {
		if len(neighbors) == 0 {
			st.Isolated++
		}
		for _, nb := range neighbors {
			if nb == i {
				st.SelfLoops++
			}
		}
	}
	return st
}

// Reachable returns the nodes reachable from root in BFS order, root first.
// It uses a private visited set and leaves the visit states untouched.
func (g *Graph) Reachable(root int) ([]int, error) {
	if err := g.check("Reachable", root); err != nil {
		return nil, err
	}

	visited := make([]bool, len(g.values))
	visited[root] = true
	order := []int{root}

	for head := 0; head < len(order); head++ {
		for _, nb := range g.adjacency[order[head]] {
			if !visited[nb] {
				visited[nb] = true
				order = append(order, nb)
			}
		}
	}

	return order, nil
}

// SequentialSum is the single-threaded reference for a traversal: the sum of
// the values of every node reachable from root.
func (g *Graph) SequentialSum(root int) (int64, error) {
	order, err := g.Reachable(root)
	if err != nil {
		return 0, err
	}

	var sum int64
	for _, idx := range order {
		sum += g.values[idx]
	}
	return sum, nil
}
