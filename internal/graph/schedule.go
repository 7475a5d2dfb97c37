package graph

// Plan is the outcome of scheduling a graph.
type Plan struct {
	// Order lists rule indices in evaluation order.
	Order []int
	// Omitted lists, ascending, the rules that never became schedulable.
	Omitted []int
}

// Schedule orders the rules of g with Kahn's algorithm. The queue is FIFO
// and seeded in index order. A rule whose pending count never reaches zero
// is left out of Order and listed in Omitted.
func Schedule(g *Graph) Plan {
	n := g.Len()
	pending := make([]int, n)
	copy(pending, g.Pending)

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if pending[i] == 0 {
			queue = append(queue, i)
		}
	}

	plan := Plan{Order: make([]int, 0, n)}
	scheduled := make([]bool, n)
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		plan.Order = append(plan.Order, i)
		scheduled[i] = true

		for _, dep := range g.DependedOnBy[i] {
			if dep == i {
				continue
			}
			pending[dep]--
			if pending[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	for i := 0; i < n; i++ {
		if !scheduled[i] {
			plan.Omitted = append(plan.Omitted, i)
		}
	}
	return plan
}

// WaitingOn returns the dependencies of rule i that are not in order.
func WaitingOn(g *Graph, order []int, i int) []int {
	done := make(map[int]bool, len(order))
	for _, j := range order {
		done[j] = true
	}
	var waiting []int
	for _, j := range g.DependsOn[i] {
		if j != i && !done[j] {
			waiting = append(waiting, j)
		}
	}
	return waiting
}
