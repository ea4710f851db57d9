// PicoClaw - Ultra-lightweight personal AI agent
// License: MIT
//
// Copyright (c) 2026 PicoClaw contributors

package team

import "fmt"

// Dag is a validated, ready-to-execute graph of DagNode keyed by task id.
// Edges run dependency -> dependent, stored in downstream for O(1) fan-out
// during scheduling.
type Dag struct {
	nodes         map[string]*DagNode
	order         []string
	downstream    map[string][]string
	membersByRole map[string]Member
}

// color states for the cycle-detection DFS, per SPEC_FULL.md §4.5's
// DFS-coloring convention (also used by pkg/agent's inheritance walker).
type color int

const (
	white color = iota
	gray
	black
)

// BuildDag validates members and tasks and materializes a Dag. It rejects:
// duplicate task ids, a task assigned to an unknown role, a dependency on
// an unknown task id, and any dependency cycle.
func BuildDag(members []Member, tasks []Task) (*Dag, error) {
	memberByRole := make(map[string]Member, len(members))
	for _, m := range members {
		memberByRole[m.Role] = m
	}

	nodes := make(map[string]*DagNode, len(tasks))
	order := make([]string, 0, len(tasks))
	for _, t := range tasks {
		if _, dup := nodes[t.ID]; dup {
			return nil, fmt.Errorf("duplicate task id %q", t.ID)
		}
		member, ok := memberByRole[t.Assignee]
		if !ok {
			return nil, fmt.Errorf("task %q assigned to unknown role %q", t.ID, t.Assignee)
		}
		if t.Review != nil {
			if _, ok := memberByRole[t.Review.Assignee]; !ok {
				return nil, fmt.Errorf("task %q review assigned to unknown role %q", t.ID, t.Review.Assignee)
			}
		}
		nodes[t.ID] = &DagNode{
			Task:    t,
			Member:  member,
			Depends: append([]string(nil), t.Depends...),
			Status:  NodePending,
		}
		order = append(order, t.ID)
	}

	downstream := make(map[string][]string, len(nodes))
	for id, n := range nodes {
		for _, dep := range n.Depends {
			if _, ok := nodes[dep]; !ok {
				return nil, fmt.Errorf("task %q depends on unknown task %q", id, dep)
			}
			downstream[dep] = append(downstream[dep], id)
		}
	}

	d := &Dag{nodes: nodes, order: order, downstream: downstream, membersByRole: memberByRole}
	if err := d.checkCycles(); err != nil {
		return nil, err
	}
	return d, nil
}

// checkCycles runs recursive DFS coloring over the dependency graph
// (node -> its Depends), failing on any back-edge into a gray node.
func (d *Dag) checkCycles() error {
	colors := make(map[string]color, len(d.nodes))
	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch colors[id] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("dependency cycle detected: %v -> %s", path, id)
		}
		colors[id] = gray
		for _, dep := range d.nodes[id].Depends {
			if err := visit(dep, append(path, id)); err != nil {
				return err
			}
		}
		colors[id] = black
		return nil
	}

	for _, id := range d.order {
		if colors[id] == white {
			if err := visit(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// Node returns the node for id, or nil.
func (d *Dag) Node(id string) *DagNode {
	return d.nodes[id]
}
