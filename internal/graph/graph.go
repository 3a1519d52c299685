// Package graph implements the dependency graph used to order
// attribute resolution. Nodes are attribute names, edges are declared
// dependencies. The sort is deterministic: ties are broken by the
// order nodes were added, so identical stage configurations always
// resolve in the same order.
package graph

import (
	"fmt"
	"sort"
)

// Graph is a directed dependency graph over attribute names.
// Add a node once per setter; dependencies that never get their own
// node are created implicitly and sort before their dependents.
type Graph struct {
	order []string            // insertion order of first sighting
	deps  map[string][]string // node -> nodes it depends on
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{deps: make(map[string][]string)}
}

// Add registers a node and the nodes it depends on.
// Calling Add twice for the same node unions the dependency lists.
func (g *Graph) Add(node string, deps ...string) {
	g.touch(node)
	for _, dep := range deps {
		g.touch(dep)
		if !contains(g.deps[node], dep) {
			g.deps[node] = append(g.deps[node], dep)
		}
	}
}

func (g *Graph) touch(node string) {
	if _, ok := g.deps[node]; !ok {
		g.deps[node] = nil
		g.order = append(g.order, node)
	}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Order returns every node in dependency order: a node appears only
// after all of its dependencies. On a cycle it returns a *CycleError
// carrying the adjacency of every node left unsorted.
func (g *Graph) Order() ([]string, error) {
	indegree := make(map[string]int, len(g.order))
	dependents := make(map[string][]string, len(g.order))
	for _, node := range g.order {
		for _, dep := range g.deps[node] {
			indegree[node]++
			dependents[dep] = append(dependents[dep], node)
		}
	}

	// Kahn's algorithm with an insertion-ordered frontier.
	queue := make([]string, 0, len(g.order))
	for _, node := range g.order {
		if indegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)
		for _, dependent := range dependents[node] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(g.order) {
		stuck := make(map[string][]string)
		for _, node := range g.order {
			if indegree[node] > 0 {
				remaining := append([]string(nil), g.deps[node]...)
				sort.Strings(remaining)
				stuck[node] = remaining
			}
		}
		return nil, &CycleError{Remaining: stuck}
	}
	return sorted, nil
}

// CycleError reports that the graph cannot be ordered. Remaining maps
// each unsortable node to its declared dependencies.
type CycleError struct {
	Remaining map[string][]string
}

func (e *CycleError) Error() string {
	names := make([]string, 0, len(e.Remaining))
	for name := range e.Remaining {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("dependency cycle involving %v", names)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
