// Package org implements the federal organization hierarchy: an in-memory
// tree computed from flat organization rows at load time, and the resolver
// that places agency profiles under their hierarchy roots.
package org

import (
	"log/slog"
	"sort"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// TreeOption configures a Tree.
type TreeOption func(*Tree)

// WithTreeLogger sets the logger used for data-integrity warnings.
func WithTreeLogger(logger *slog.Logger) TreeOption {
	return func(t *Tree) {
		t.logger = logger
	}
}

// Tree is the materialized organization hierarchy. Construction is top-down:
// roots first, then children level by level, computing Depth and Path as it
// goes. Rows whose parent chain never resolves (dangling parent references,
// or cycles that leave a group unreachable from any root) are skipped and
// counted rather than guessed at. The tree is immutable after construction
// and safe for concurrent readers.
type Tree struct {
	nodes    map[string]*types.Organization
	children map[string][]string
	roots    []string
	order    []string
	skipped  int
	logger   *slog.Logger
}

// NewTree builds a Tree from flat organization rows. Input rows are copied;
// Depth and Path on the copies are overwritten with the computed values.
func NewTree(orgs []types.Organization, opts ...TreeOption) *Tree {
	t := &Tree{
		nodes:    make(map[string]*types.Organization, len(orgs)),
		children: make(map[string][]string),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	for i := range orgs {
		o := orgs[i]
		if _, dup := t.nodes[o.ID]; dup {
			t.skipped++
			t.logger.Warn("duplicate organization id, keeping first", "org", o.ID)
			continue
		}
		t.nodes[o.ID] = &o
	}

	for id, o := range t.nodes {
		if o.IsRoot() {
			t.roots = append(t.roots, id)
			continue
		}
		if _, ok := t.nodes[o.ParentID]; ok {
			t.children[o.ParentID] = append(t.children[o.ParentID], id)
		}
		// Unknown parents leave the node without an edge; the BFS below
		// never reaches it and it gets skipped.
	}

	t.sortByName(t.roots)
	for _, ids := range t.children {
		t.sortByName(ids)
	}

	visited := make(map[string]bool, len(t.nodes))
	queue := make([]string, 0, len(t.nodes))

	for _, id := range t.roots {
		root := t.nodes[id]
		root.Depth = 0
		root.Path = []string{id}
		visited[id] = true
		queue = append(queue, id)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		t.order = append(t.order, id)

		parent := t.nodes[id]
		for _, childID := range t.children[id] {
			child := t.nodes[childID]
			child.Depth = parent.Depth + 1
			child.Path = append(append(make([]string, 0, len(parent.Path)+1), parent.Path...), childID)
			visited[childID] = true
			queue = append(queue, childID)
		}
	}

	for id := range t.nodes {
		if !visited[id] {
			t.skipped++
			t.logger.Warn("organization parent never resolves, skipping record",
				"org", id, "parent", t.nodes[id].ParentID)
			delete(t.nodes, id)
		}
	}

	return t
}

// Len returns the number of organizations in the tree.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Skipped returns how many input rows were dropped during construction.
func (t *Tree) Skipped() int {
	return t.skipped
}

// Get returns the organization with the given ID.
func (t *Tree) Get(id string) (*types.Organization, bool) {
	o, ok := t.nodes[id]
	return o, ok
}

// Roots returns the top-level organizations sorted by name.
func (t *Tree) Roots() []*types.Organization {
	out := make([]*types.Organization, 0, len(t.roots))
	for _, id := range t.roots {
		out = append(out, t.nodes[id])
	}
	return out
}

// Children returns the direct children of the given organization, sorted by
// name.
func (t *Tree) Children(id string) []*types.Organization {
	ids := t.children[id]
	out := make([]*types.Organization, 0, len(ids))
	for _, childID := range ids {
		out = append(out, t.nodes[childID])
	}
	return out
}

// Subtree returns the organization and all of its descendants in breadth-first
// order, or nil if the ID is unknown.
func (t *Tree) Subtree(id string) []*types.Organization {
	if _, ok := t.nodes[id]; !ok {
		return nil
	}

	out := []*types.Organization{}
	queue := []string{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, t.nodes[cur])
		queue = append(queue, t.children[cur]...)
	}
	return out
}

// Ancestors returns the chain of ancestors of the given organization,
// root-first, excluding the organization itself. Roots get an empty chain.
func (t *Tree) Ancestors(id string) []*types.Organization {
	node, ok := t.nodes[id]
	if !ok {
		return nil
	}

	out := make([]*types.Organization, 0, len(node.Path))
	for _, ancestorID := range node.Path {
		if ancestorID == id {
			continue
		}
		if ancestor, ok := t.nodes[ancestorID]; ok {
			out = append(out, ancestor)
		}
	}
	return out
}

// Root walks parent pointers up from the given organization until it reaches
// a root. The walk is bounded by the node count; if the bound is exceeded the
// hierarchy data contains a cycle, which is logged, and the last node reached
// is returned as the effective root. A dangling parent pointer likewise makes
// the current node the effective root.
func (t *Tree) Root(id string) (*types.Organization, bool) {
	node, ok := t.nodes[id]
	if !ok {
		return nil, false
	}

	bound := len(t.nodes)
	for steps := 0; steps <= bound; steps++ {
		if node.IsRoot() {
			return node, true
		}
		parent, ok := t.nodes[node.ParentID]
		if !ok {
			t.logger.Warn("parent not found during root walk, treating as root",
				"org", node.ID, "parent", node.ParentID)
			return node, true
		}
		node = parent
	}

	t.logger.Warn("root walk exceeded node count, hierarchy contains a cycle",
		"org", id, "stopped_at", node.ID)
	return node, true
}

// All returns every organization in breadth-first order, roots first. The
// order guarantees parents precede children, which the database loader relies
// on for foreign key checks.
func (t *Tree) All() []*types.Organization {
	out := make([]*types.Organization, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.nodes[id])
	}
	return out
}

func (t *Tree) sortByName(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
}
