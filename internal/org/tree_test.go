package org

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/types"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixtureOrgs() []types.Organization {
	return []types.Organization{
		{ID: "treasury", Name: "Department of the Treasury", Level: types.OrgLevelDepartment, Active: true},
		{ID: "irs", Name: "Internal Revenue Service", Level: types.OrgLevelAgency, ParentID: "treasury", Active: true},
		{ID: "irs-it", Name: "IRS Information Technology", Level: types.OrgLevelSubcomponent, ParentID: "irs", Active: true},
		{ID: "fincen", Name: "Financial Crimes Enforcement Network", Level: types.OrgLevelAgency, ParentID: "treasury", Active: true},
		{ID: "dhs", Name: "Department of Homeland Security", Level: types.OrgLevelDepartment, Active: true},
		{ID: "cisa", Name: "Cybersecurity and Infrastructure Security Agency", Level: types.OrgLevelAgency, ParentID: "dhs", Active: true},
	}
}

func TestNewTree_DepthAndPath(t *testing.T) {
	tree := NewTree(fixtureOrgs(), WithTreeLogger(quietLogger()))

	require.Equal(t, 6, tree.Len())
	assert.Equal(t, 0, tree.Skipped())

	// Every non-root node sits exactly one level below its parent, and its
	// path is the parent's path plus its own ID.
	for _, node := range tree.All() {
		if node.IsRoot() {
			assert.Equal(t, 0, node.Depth, "root %s", node.ID)
			assert.Equal(t, []string{node.ID}, node.Path)
			continue
		}

		parent, ok := tree.Get(node.ParentID)
		require.True(t, ok, "parent of %s", node.ID)
		assert.Equal(t, parent.Depth+1, node.Depth, "depth of %s", node.ID)
		require.Len(t, node.Path, len(parent.Path)+1, "path of %s", node.ID)
		assert.Equal(t, parent.Path, node.Path[:len(node.Path)-1], "path prefix of %s", node.ID)
		assert.Equal(t, node.ID, node.Path[len(node.Path)-1])
	}

	leaf, ok := tree.Get("irs-it")
	require.True(t, ok)
	assert.Equal(t, 2, leaf.Depth)
	assert.Equal(t, []string{"treasury", "irs", "irs-it"}, leaf.Path)
}

func TestNewTree_SkipsUnresolvableParents(t *testing.T) {
	orgs := append(fixtureOrgs(),
		types.Organization{ID: "orphan", Name: "Orphan Office", Level: types.OrgLevelOffice, ParentID: "nonexistent"},
		types.Organization{ID: "orphan-child", Name: "Orphan Child", Level: types.OrgLevelOffice, ParentID: "orphan"},
	)

	tree := NewTree(orgs, WithTreeLogger(quietLogger()))

	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, 2, tree.Skipped())

	_, ok := tree.Get("orphan")
	assert.False(t, ok)
	_, ok = tree.Get("orphan-child")
	assert.False(t, ok)
}

func TestNewTree_SkipsCyclesUnreachableFromRoots(t *testing.T) {
	orgs := append(fixtureOrgs(),
		types.Organization{ID: "a", Name: "A", Level: types.OrgLevelAgency, ParentID: "b"},
		types.Organization{ID: "b", Name: "B", Level: types.OrgLevelAgency, ParentID: "a"},
	)

	tree := NewTree(orgs, WithTreeLogger(quietLogger()))

	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, 2, tree.Skipped())
}

func TestNewTree_SkipsDuplicateIDs(t *testing.T) {
	orgs := append(fixtureOrgs(),
		types.Organization{ID: "treasury", Name: "Duplicate Treasury", Level: types.OrgLevelDepartment},
	)

	tree := NewTree(orgs, WithTreeLogger(quietLogger()))

	assert.Equal(t, 6, tree.Len())
	assert.Equal(t, 1, tree.Skipped())

	kept, ok := tree.Get("treasury")
	require.True(t, ok)
	assert.Equal(t, "Department of the Treasury", kept.Name)
}

func TestTree_Root(t *testing.T) {
	tree := NewTree(fixtureOrgs(), WithTreeLogger(quietLogger()))

	root, ok := tree.Root("irs-it")
	require.True(t, ok)
	assert.Equal(t, "treasury", root.ID)

	// Resolving a root returns itself.
	root, ok = tree.Root("dhs")
	require.True(t, ok)
	assert.Equal(t, "dhs", root.ID)

	// Root is idempotent: the root of a root is itself.
	first, ok := tree.Root("cisa")
	require.True(t, ok)
	again, ok := tree.Root(first.ID)
	require.True(t, ok)
	assert.Equal(t, first.ID, again.ID)

	_, ok = tree.Root("unknown")
	assert.False(t, ok)
}

func TestTree_SubtreeAndAncestors(t *testing.T) {
	tree := NewTree(fixtureOrgs(), WithTreeLogger(quietLogger()))

	subtree := tree.Subtree("treasury")
	require.Len(t, subtree, 4)
	assert.Equal(t, "treasury", subtree[0].ID)

	ids := make([]string, 0, len(subtree))
	for _, o := range subtree {
		ids = append(ids, o.ID)
	}
	assert.Contains(t, ids, "irs")
	assert.Contains(t, ids, "irs-it")
	assert.Contains(t, ids, "fincen")
	assert.NotContains(t, ids, "cisa")

	ancestors := tree.Ancestors("irs-it")
	require.Len(t, ancestors, 2)
	assert.Equal(t, "treasury", ancestors[0].ID)
	assert.Equal(t, "irs", ancestors[1].ID)

	assert.Empty(t, tree.Ancestors("treasury"))
	assert.Nil(t, tree.Subtree("unknown"))
}

func TestTree_RootsAndChildrenOrdering(t *testing.T) {
	tree := NewTree(fixtureOrgs(), WithTreeLogger(quietLogger()))

	roots := tree.Roots()
	require.Len(t, roots, 2)
	// Sorted by name: Homeland Security before Treasury.
	assert.Equal(t, "dhs", roots[0].ID)
	assert.Equal(t, "treasury", roots[1].ID)

	children := tree.Children("treasury")
	require.Len(t, children, 2)
	assert.Equal(t, "fincen", children[0].ID)
	assert.Equal(t, "irs", children[1].ID)
}

func TestTree_AllParentsPrecedeChildren(t *testing.T) {
	tree := NewTree(fixtureOrgs(), WithTreeLogger(quietLogger()))

	seen := map[string]bool{}
	for _, node := range tree.All() {
		if !node.IsRoot() {
			assert.True(t, seen[node.ParentID], "parent of %s must come first", node.ID)
		}
		seen[node.ID] = true
	}
}
