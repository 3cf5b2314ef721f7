package simulator

import (
	"context"
	"regexp"

	"golang.org/x/sync/errgroup"

	"github.com/ritzau/gardener-conformance/pkg/graph"
)

// partial is what one worker learns from one scan root
type partial struct {
	present  []string
	expanded []string
}

// walk collects the nodes reachable from root within level and the nodes
// whose includes were followed
func walk(table graph.Table, root string, level int) partial {
	depth := map[string]int{root: 0}
	queue := []string{root}
	p := partial{present: []string{root}}

	for len(queue) > 0 {
		label := queue[0]
		queue = queue[1:]

		d := depth[label]
		if level != graph.Unbounded && d >= level {
			continue
		}
		p.expanded = append(p.expanded, label)

		for _, child := range table[label] {
			if _, seen := depth[child]; seen {
				continue
			}
			depth[child] = d + 1
			queue = append(queue, child)
			p.present = append(p.present, child)
		}
	}
	return p
}

// scan walks every surviving root on a pool of jobs workers. A single
// writer folds the partial results into label-keyed sets; nodes enter the
// graph in the order the writer first sees them.
func scan(ctx context.Context, table graph.Table, roots []string, excludes []*regexp.Regexp, level, jobs int) (*graph.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := graph.New()
	if level == 0 {
		return out, nil
	}

	results := make(chan partial)
	merged := make(chan struct{})

	var order []string
	present := make(map[string]bool)
	expanded := make(map[string]bool)

	go func() {
		defer close(merged)
		for p := range results {
			for _, label := range p.present {
				if !present[label] {
					present[label] = true
					order = append(order, label)
				}
			}
			for _, label := range p.expanded {
				expanded[label] = true
			}
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for _, root := range roots {
		if graph.Excluded(root, excludes) {
			continue
		}
		g.Go(func() error {
			p := walk(table, root, level)
			select {
			case results <- p:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}
	err := g.Wait()
	close(results)
	<-merged
	if err != nil {
		return nil, err
	}

	for _, label := range order {
		if err := out.AddNode(label); err != nil {
			return nil, err
		}
	}
	for _, label := range order {
		if !expanded[label] {
			continue
		}
		for _, child := range table[label] {
			if err := out.AddEdge(label, child); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
