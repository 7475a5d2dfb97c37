package graph

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Cycle is a group of rules that read each other's goals.
type Cycle struct {
	Rules   []int  `json:"rules"`   // members, ascending
	Path    []int  `json:"path"`    // e.g. [0, 2, 0]
	Message string `json:"message"`
}

// Cycles finds every strongly connected component with more than one rule.
// Self-loops alone are not cycles here since the scheduler accepts them.
//
// Nodes are visited in ascending index order, so the result is stable.
func Cycles(g *Graph) []Cycle {
	var cycles []Cycle
	for _, scc := range tarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		members := make([]int, len(scc))
		copy(members, scc)
		slices.Sort(members)

		path := cyclePath(members, g)
		cycles = append(cycles, Cycle{
			Rules:   members,
			Path:    path,
			Message: "rules read each other's goals: " + joinPath(path),
		})
	}

	slices.SortFunc(cycles, func(a, b Cycle) int {
		return cmp.Compare(a.Rules[0], b.Rules[0])
	})
	return cycles
}

// tarjanSCC walks edges from a rule to the rules it depends on.
func tarjanSCC(g *Graph) [][]int {
	var (
		index   = 0
		stack   []int
		indices = make(map[int]int)
		lowlink = make(map[int]int)
		onStack = make(map[int]bool)
		sccs    [][]int
	)

	var strongConnect func(int)
	strongConnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.DependsOn[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for v := 0; v < g.Len(); v++ {
		if _, visited := indices[v]; !visited {
			strongConnect(v)
		}
	}
	return sccs
}

// cyclePath returns the shortest closed walk from the lowest member back to
// itself, staying inside the component. Neighbours are explored in
// ascending order, so ties break the same way every time.
func cyclePath(members []int, g *Graph) []int {
	inSCC := make(map[int]bool, len(members))
	for _, m := range members {
		inSCC[m] = true
	}

	start := members[0]
	parent := map[int]int{start: -1}
	queue := []int{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, w := range g.DependsOn[u] {
			if !inSCC[w] {
				continue
			}
			if w == start {
				if u == start {
					continue
				}
				return append(walkBack(parent, u), start)
			}
			if _, seen := parent[w]; !seen {
				parent[w] = u
				queue = append(queue, w)
			}
		}
	}
	// Unreachable for a strongly connected component of two or more rules.
	return []int{start}
}

// walkBack lists the BFS tree path from the root to v.
func walkBack(parent map[int]int, v int) []int {
	var path []int
	for ; v >= 0; v = parent[v] {
		path = append(path, v)
	}
	slices.Reverse(path)
	return path
}

func joinPath(path []int) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprintf("#%d", p)
	}
	return strings.Join(parts, " -> ")
}
