package graph

// search.go: breadth-first witness search and cycle detection.

import "strings"

// EdgeFilter reports whether the edge source -> target should be ignored
// during a search. A nil filter keeps every edge.
type EdgeFilter func(source, target string) bool

// Reach runs a breadth-first search from start and returns one shortest
// path for every module accepted by isTarget, in the order the targets were
// first reached. The search does not continue past a target, and start itself
// is never reported.
//
// Neighbours are visited in sorted order and each module keeps the parent it
// was first discovered from, so among equally short paths the one whose
// modules sort first wins.
func (g *Graph) Reach(start string, isTarget func(string) bool, skip EdgeFilter) [][]string {
	if !g.Has(start) {
		return nil
	}
	parent := map[string]string{start: ""}
	queue := []string{start}
	var paths [][]string

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.out[cur] {
			if _, seen := parent[next]; seen {
				continue
			}
			if skip != nil && skip(cur, next) {
				continue
			}
			parent[next] = cur
			if isTarget(next) {
				paths = append(paths, g.trace(parent, start, next))
				continue
			}
			queue = append(queue, next)
		}
	}
	return paths
}

// ShortestPath returns one shortest path from -> to, or nil when to is not
// reachable.
func (g *Graph) ShortestPath(from, to string) []string {
	paths := g.Reach(from, func(p string) bool { return p == to }, nil)
	if len(paths) == 0 {
		return nil
	}
	return paths[0]
}

func (g *Graph) trace(parent map[string]string, start, end string) []string {
	var rev []string
	for cur := end; ; cur = parent[cur] {
		rev = append(rev, cur)
		if cur == start {
			break
		}
	}
	path := make([]string, len(rev))
	for i, p := range rev {
		path[len(rev)-1-i] = p
	}
	return path
}

// IsPath reports whether every consecutive pair of path is an edge of g.
func (g *Graph) IsPath(path []string) bool {
	if len(path) < 2 {
		return false
	}
	for i := 0; i+1 < len(path); i++ {
		if !g.HasEdge(path[i], path[i+1]) {
			return false
		}
	}
	return true
}

// Cycles returns the import cycles found by a depth-first walk over modules
// in sorted order. Each cycle starts and ends with the same module.
func (g *Graph) Cycles() [][]string {
	// 0=unvisited, 1=on stack, 2=done.
	color := make(map[string]int, len(g.order))
	var cycles [][]string
	var stack []string

	var dfs func(node string)
	dfs = func(node string) {
		switch color[node] {
		case 2:
			return
		case 1:
			for i, n := range stack {
				if n == node {
					cycle := make([]string, len(stack)-i+1)
					copy(cycle, stack[i:])
					cycle[len(cycle)-1] = node
					cycles = append(cycles, cycle)
					return
				}
			}
			return
		}
		color[node] = 1
		stack = append(stack, node)
		for _, next := range g.out[node] {
			dfs(next)
		}
		stack = stack[:len(stack)-1]
		color[node] = 2
	}

	for _, node := range g.order {
		if color[node] == 0 {
			dfs(node)
		}
	}
	return cycles
}

// FormatPath joins a witness path for display.
func FormatPath(path []string) string {
	return strings.Join(path, " -> ")
}
