package graph

import (
	"fmt"
	"regexp"
)

// Unbounded is the level that disables the depth bound
const Unbounded = -1

// CompileExcludes compiles exclude patterns. A pattern excludes a scan root
// when it matches anywhere in the root's label.
func CompileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	excludes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		excludes = append(excludes, re)
	}
	return excludes, nil
}

// Excluded reports whether label matches any of the exclude patterns
func Excluded(label string, excludes []*regexp.Regexp) bool {
	for _, re := range excludes {
		if re.MatchString(label) {
			return true
		}
	}
	return false
}

// Project derives the graph an analyzer should emit for a subset of the
// scan roots and a depth bound.
//
// A node is present iff it is a non-excluded scan root or is reachable from
// one within level edges. Edges leave only nodes closer than level to a root,
// so the frontier at exactly level appears as leaves. Level 0 yields an empty
// graph, Unbounded yields the full reachable subgraph.
func Project(full *Graph, roots []string, excludes []*regexp.Regexp, level int) (*Graph, error) {
	out := New()
	if level == 0 {
		return out, nil
	}

	depth := make(map[string]int)
	var queue []string
	for _, root := range roots {
		if Excluded(root, excludes) {
			continue
		}
		if _, seen := depth[root]; seen {
			continue
		}
		depth[root] = 0
		queue = append(queue, root)
		if err := out.AddNode(root); err != nil {
			return nil, err
		}
	}

	// Multi-source BFS; first visit gives the shortest distance.
	var expanded []string
	for len(queue) > 0 {
		label := queue[0]
		queue = queue[1:]

		d := depth[label]
		if level != Unbounded && d >= level {
			continue
		}
		expanded = append(expanded, label)

		for _, child := range full.Children(label) {
			if _, seen := depth[child]; seen {
				continue
			}
			depth[child] = d + 1
			queue = append(queue, child)
			if err := out.AddNode(child); err != nil {
				return nil, err
			}
		}
	}

	for _, label := range expanded {
		for _, child := range full.Children(label) {
			if err := out.AddEdge(label, child); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
