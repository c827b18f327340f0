package database

import (
	"context"
	"errors"
	"testing"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// testOrgs returns a small hierarchy in parents-first order:
// treasury -> irs -> irs-it, plus a standalone gsa.
func testOrgs() []*types.Organization {
	return []*types.Organization{
		{
			ID:           "treasury",
			Name:         "Department of the Treasury",
			Abbreviation: "TREAS",
			Level:        types.OrgLevelDepartment,
			CFOAct:       true,
			Cabinet:      true,
			Active:       true,
			Depth:        0,
			Path:         []string{"treasury"},
		},
		{
			ID:           "gsa",
			Name:         "General Services Administration",
			Abbreviation: "GSA",
			Level:        types.OrgLevelAgency,
			CFOAct:       true,
			Active:       true,
			Depth:        0,
			Path:         []string{"gsa"},
		},
		{
			ID:           "irs",
			Name:         "Internal Revenue Service",
			Abbreviation: "IRS",
			Level:        types.OrgLevelAgency,
			ParentID:     "treasury",
			Active:       true,
			Depth:        1,
			Path:         []string{"treasury", "irs"},
		},
		{
			ID:       "irs-it",
			Name:     "IRS Information Technology",
			Level:    types.OrgLevelOffice,
			ParentID: "irs",
			Active:   true,
			Depth:    2,
			Path:     []string{"treasury", "irs", "irs-it"},
		},
	}
}

func TestOrgDAOReplaceAllAndGet(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	org, err := dao.Get(ctx, "irs")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if org.Name != "Internal Revenue Service" {
		t.Errorf("expected IRS name, got %s", org.Name)
	}
	if org.ParentID != "treasury" {
		t.Errorf("expected parent treasury, got %s", org.ParentID)
	}
	if org.Depth != 1 {
		t.Errorf("expected depth 1, got %d", org.Depth)
	}
	if len(org.Path) != 2 || org.Path[0] != "treasury" || org.Path[1] != "irs" {
		t.Errorf("unexpected path: %v", org.Path)
	}
	if !org.Active {
		t.Error("expected active organization")
	}
}

func TestOrgDAOReplaceAllIsFullReplacement(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("first ReplaceAll failed: %v", err)
	}

	// Second load with a smaller set replaces the first entirely
	smaller := []*types.Organization{
		{
			ID:     "dhs",
			Name:   "Department of Homeland Security",
			Level:  types.OrgLevelDepartment,
			Active: true,
			Depth:  0,
			Path:   []string{"dhs"},
		},
	}
	if err := dao.ReplaceAll(ctx, smaller); err != nil {
		t.Fatalf("second ReplaceAll failed: %v", err)
	}

	count, err := dao.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 organization after replacement, got %d", count)
	}

	if _, err := dao.Get(ctx, "treasury"); err == nil {
		t.Error("expected treasury to be gone after replacement")
	}
}

func TestOrgDAORootHasNullParent(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	// The root row must store NULL, not an empty string, so the
	// self-referencing FK never binds a fake edge
	var nullParents int
	err := db.Conn().QueryRow(
		"SELECT COUNT(*) FROM organizations WHERE id = 'treasury' AND parent_id IS NULL").Scan(&nullParents)
	if err != nil {
		t.Fatalf("failed to query parent_id: %v", err)
	}
	if nullParents != 1 {
		t.Error("expected root parent_id to be NULL")
	}

	org, err := dao.Get(ctx, "treasury")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !org.IsRoot() {
		t.Error("expected treasury to scan back as root")
	}
}

func TestOrgDAOGetNotFound(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)

	_, err := dao.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for missing organization")
	}

	var fedErr *types.FedlinkError
	if !errors.As(err, &fedErr) {
		t.Fatalf("expected FedlinkError, got %T", err)
	}
	if fedErr.Code != types.ORG_NOT_FOUND {
		t.Errorf("expected ORG_NOT_FOUND, got %s", fedErr.Code)
	}
}

func TestOrgDAOGetByAbbreviation(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	// Lookup is case-insensitive
	org, err := dao.GetByAbbreviation(ctx, "irs")
	if err != nil {
		t.Fatalf("GetByAbbreviation failed: %v", err)
	}
	if org.ID != "irs" {
		t.Errorf("expected irs, got %s", org.ID)
	}
}

func TestOrgDAOListOrder(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	orgs, err := dao.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(orgs) != 4 {
		t.Fatalf("expected 4 organizations, got %d", len(orgs))
	}

	// Shallowest first, name within depth
	if orgs[0].ID != "treasury" || orgs[1].ID != "gsa" {
		t.Errorf("unexpected depth-0 order: %s, %s", orgs[0].ID, orgs[1].ID)
	}
	if orgs[2].ID != "irs" || orgs[3].ID != "irs-it" {
		t.Errorf("unexpected deeper order: %s, %s", orgs[2].ID, orgs[3].ID)
	}
}

func TestOrgDAOListByLevel(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	agencies, err := dao.ListByLevel(ctx, types.OrgLevelAgency)
	if err != nil {
		t.Fatalf("ListByLevel failed: %v", err)
	}
	if len(agencies) != 2 {
		t.Fatalf("expected 2 agencies, got %d", len(agencies))
	}
	// Name order: GSA before IRS
	if agencies[0].ID != "gsa" || agencies[1].ID != "irs" {
		t.Errorf("unexpected agency order: %s, %s", agencies[0].ID, agencies[1].ID)
	}
}

func TestOrgDAOListChildren(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	if err := dao.ReplaceAll(ctx, testOrgs()); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}

	children, err := dao.ListChildren(ctx, "treasury")
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(children) != 1 || children[0].ID != "irs" {
		t.Errorf("unexpected children: %v", children)
	}

	none, err := dao.ListChildren(ctx, "irs-it")
	if err != nil {
		t.Fatalf("ListChildren failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no children for leaf, got %d", len(none))
	}
}

func TestOrgDAOReplaceAllRejectsInvalid(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewOrgDAO(db)
	ctx := context.Background()

	bad := []*types.Organization{
		{ID: "ok", Name: "Valid", Level: types.OrgLevelAgency, Path: []string{"ok"}},
		{ID: "", Name: "No ID", Level: types.OrgLevelAgency},
	}

	if err := dao.ReplaceAll(ctx, bad); err == nil {
		t.Fatal("expected validation error")
	}

	// The whole batch rolls back, including the valid row
	count, err := dao.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table after failed batch, got %d rows", count)
	}
}
