package database

import (
	"context"
	"testing"

	"github.com/fedlink-ai/fedlink/internal/types"
)

func TestMatchDAOInsertManySkipsDuplicates(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	matches := []*types.Match{
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-1", types.EntityKindProduct, "FR100001",
			types.ConfidenceHigh, "provider name match: OpenAI"),
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-2", types.EntityKindProduct, "FR100001",
			types.ConfidenceMedium, "both describe GenAI services"),
		// Same (method, source, target) as the first row
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-1", types.EntityKindProduct, "FR100001",
			types.ConfidenceLow, "duplicate natural key"),
	}

	inserted, skipped, err := dao.InsertMany(ctx, matches)
	if err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}
	if inserted != 2 {
		t.Errorf("expected 2 inserted, got %d", inserted)
	}
	if skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", skipped)
	}

	count, err := dao.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 stored matches, got %d", count)
	}

	// The first writer wins; the duplicate's confidence never lands
	stored, err := dao.ListBySource(ctx, types.EntityKindUseCase, "uc-1")
	if err != nil {
		t.Fatalf("ListBySource failed: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 match for uc-1, got %d", len(stored))
	}
	if stored[0].Confidence != types.ConfidenceHigh {
		t.Errorf("expected high confidence kept, got %s", stored[0].Confidence)
	}
}

func TestMatchDAOInsertManyAbortsOnInvalid(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	valid := types.NewMatch(types.MatchMethodAgencyFedRAMP,
		types.EntityKindAgency, "ag-1", types.EntityKindProduct, "FR1",
		types.ConfidenceHigh, "tool name matches offering")
	invalid := &types.Match{SourceID: "dangling"}

	_, _, err := dao.InsertMany(ctx, []*types.Match{valid, invalid})
	if err == nil {
		t.Fatal("expected validation error")
	}

	// Validation failures roll the whole batch back
	count, err := dao.Count(ctx)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected empty table after aborted batch, got %d", count)
	}
}

func TestMatchDAODeleteByMethod(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	matches := []*types.Match{
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-1", types.EntityKindProduct, "FR1",
			types.ConfidenceHigh, "r1"),
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-2", types.EntityKindProduct, "FR2",
			types.ConfidenceMedium, "r2"),
		types.NewMatch(types.MatchMethodIncidentProduct,
			types.EntityKindIncident, "7", types.EntityKindProduct, "FR1",
			types.ConfidenceHigh, "r3"),
	}
	if _, _, err := dao.InsertMany(ctx, matches); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	removed, err := dao.DeleteByMethod(ctx, types.MatchMethodUseCaseFedRAMP)
	if err != nil {
		t.Fatalf("DeleteByMethod failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	// Other methods are untouched
	remaining, err := dao.ListByMethod(ctx, types.MatchMethodIncidentProduct)
	if err != nil {
		t.Fatalf("ListByMethod failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("expected 1 incident match left, got %d", len(remaining))
	}
}

func TestMatchDAOListByMethodOrder(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	matches := []*types.Match{
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-b", types.EntityKindProduct, "FR2",
			types.ConfidenceLow, "later"),
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-a", types.EntityKindProduct, "FR1",
			types.ConfidenceHigh, "earlier"),
	}
	if _, _, err := dao.InsertMany(ctx, matches); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	list, err := dao.ListByMethod(ctx, types.MatchMethodUseCaseFedRAMP)
	if err != nil {
		t.Fatalf("ListByMethod failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(list))
	}
	if list[0].SourceID != "uc-a" || list[1].SourceID != "uc-b" {
		t.Errorf("unexpected order: %s, %s", list[0].SourceID, list[1].SourceID)
	}
}

func TestMatchDAOListByTarget(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	matches := []*types.Match{
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-1", types.EntityKindProduct, "FR1",
			types.ConfidenceHigh, "r"),
		types.NewMatch(types.MatchMethodIncidentProduct,
			types.EntityKindIncident, "12", types.EntityKindProduct, "FR1",
			types.ConfidenceMedium, "r"),
		types.NewMatch(types.MatchMethodIncidentProduct,
			types.EntityKindIncident, "12", types.EntityKindProduct, "FR2",
			types.ConfidenceMedium, "r"),
	}
	if _, _, err := dao.InsertMany(ctx, matches); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	hits, err := dao.ListByTarget(ctx, types.EntityKindProduct, "FR1")
	if err != nil {
		t.Fatalf("ListByTarget failed: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("expected 2 matches pointing at FR1, got %d", len(hits))
	}
}

func TestMatchDAOSemanticScoreRoundTrip(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	semantic := types.NewSemanticMatch(
		types.EntityKindIncident, "55", types.EntityKindUseCase, "uc-9", 0.8123)

	if _, _, err := dao.InsertMany(ctx, []*types.Match{semantic}); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	list, err := dao.ListByMethod(ctx, types.SemanticMethod(types.EntityKindIncident, types.EntityKindUseCase))
	if err != nil {
		t.Fatalf("ListByMethod failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 semantic match, got %d", len(list))
	}

	m := list[0]
	if m.Score == nil || *m.Score != 0.8123 {
		t.Errorf("expected score round-trip, got %v", m.Score)
	}
	if m.Confidence != types.ConfidenceHigh {
		t.Errorf("expected high confidence for 0.8123, got %s", m.Confidence)
	}
	if m.Reason != "" {
		t.Errorf("expected empty reason for semantic match, got %q", m.Reason)
	}
	if !m.Method.IsSemantic() {
		t.Error("expected semantic method")
	}
}

func TestMatchDAOCounts(t *testing.T) {
	db, cleanup := setupMigratedDB(t)
	defer cleanup()

	dao := NewMatchDAO(db)
	ctx := context.Background()

	matches := []*types.Match{
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-1", types.EntityKindProduct, "FR1",
			types.ConfidenceHigh, "r"),
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-2", types.EntityKindProduct, "FR2",
			types.ConfidenceHigh, "r"),
		types.NewMatch(types.MatchMethodUseCaseFedRAMP,
			types.EntityKindUseCase, "uc-3", types.EntityKindProduct, "FR3",
			types.ConfidenceLow, "r"),
		types.NewMatch(types.MatchMethodAgencyFedRAMP,
			types.EntityKindAgency, "ag-1", types.EntityKindProduct, "FR1",
			types.ConfidenceMedium, "r"),
	}
	if _, _, err := dao.InsertMany(ctx, matches); err != nil {
		t.Fatalf("InsertMany failed: %v", err)
	}

	counts, err := dao.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts failed: %v", err)
	}

	got := make(map[string]int)
	for _, c := range counts {
		got[c.Method.String()+"/"+c.Confidence.String()] = c.Count
	}

	if got["usecase_fedramp/high"] != 2 {
		t.Errorf("expected 2 high usecase matches, got %d", got["usecase_fedramp/high"])
	}
	if got["usecase_fedramp/low"] != 1 {
		t.Errorf("expected 1 low usecase match, got %d", got["usecase_fedramp/low"])
	}
	if got["agency_fedramp/medium"] != 1 {
		t.Errorf("expected 1 medium agency match, got %d", got["agency_fedramp/medium"])
	}
}
