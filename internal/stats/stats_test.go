package stats

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/types"
)

func setupTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fedlink-stats-test-*")
	require.NoError(t, err)

	db, err := database.Open(filepath.Join(tempDir, "fedlink.db"))
	if err != nil {
		os.RemoveAll(tempDir)
		t.Fatalf("failed to open database: %v", err)
	}

	if err := database.NewMigrator(db).Migrate(context.Background()); err != nil {
		db.Close()
		os.RemoveAll(tempDir)
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db, func() {
		db.Close()
		os.RemoveAll(tempDir)
	}
}

func seedProfile(t *testing.T, db *database.DB, name, abbrev, parent string, status types.DeploymentStatus, toolTypes ...types.ToolType) {
	t.Helper()

	profile := types.NewAgencyProfile(name)
	profile.Slug = normalize.Slugify(name)
	profile.Abbreviation = abbrev
	profile.ParentAbbreviation = parent
	profile.DeploymentStatus = status
	for i, tt := range toolTypes {
		profile.Tools = append(profile.Tools, types.AgencyAiTool{
			ID:       types.NewID(),
			AgencyID: profile.ID,
			Name:     string(tt) + "-" + string(rune('a'+i)),
			Type:     tt,
		})
	}
	require.NoError(t, database.NewAgencyDAO(db).Create(context.Background(), profile))
}

func seedProduct(t *testing.T, db *database.DB, id string, analyzed, hasAI, hasGenAI, hasLLM bool) {
	t.Helper()
	ctx := context.Background()
	dao := database.NewProductDAO(db)

	require.NoError(t, dao.Upsert(ctx, &types.FedRAMPProduct{
		ID:       id,
		Provider: "Provider for " + id,
		Offering: "Offering for " + id,
		Status:   types.FedRAMPStatusAuthorized,
	}))
	if analyzed {
		require.NoError(t, dao.UpsertAnalysis(ctx, &types.AIServiceAnalysis{
			ProductID:  id,
			HasAI:      hasAI,
			HasGenAI:   hasGenAI,
			HasLLM:     hasLLM,
			AnalyzedAt: time.Now(),
		}))
	}
}

func seedInventory(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()

	summarizer := types.NewUseCase("General Services Administration", "Contract summarizer")
	summarizer.HasGenAI = true
	summarizer.HasLLM = true
	summarizer.ProvidersDetected = []string{"Anthropic"}

	drafting := types.NewUseCase("General Services Administration", "Policy drafting aid")
	drafting.HasLLM = true

	grid := types.NewUseCase("Department of Energy", "Grid anomaly detection")
	grid.HasClassicML = true

	require.NoError(t, database.NewUseCaseDAO(db).InsertMany(ctx,
		[]*types.UseCase{summarizer, drafting, grid}))
}

func TestOverviewEmptyDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	o, err := NewReporter(db).Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, o.Organizations.Total)
	assert.Equal(t, 0, o.Agencies.Total)
	assert.Equal(t, 0, o.Products.Total)
	assert.Equal(t, 0, o.UseCases.Total)
	assert.Equal(t, 0, o.Incidents.Total)
	assert.Empty(t, o.Matches)
	assert.False(t, o.GeneratedAt.IsZero())
}

func TestOverviewCountsOrganizations(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	orgs := []*types.Organization{
		{ID: "doe", Name: "Department of Energy", Level: types.OrgLevelDepartment, Depth: 0, Path: []string{"doe"}, Active: true},
		{ID: "nnsa", Name: "National Nuclear Security Administration", Level: types.OrgLevelAgency, ParentID: "doe", Depth: 1, Path: []string{"doe", "nnsa"}, Active: true},
		{ID: "epa", Name: "Environmental Protection Agency", Level: types.OrgLevelAgency, Depth: 0, Path: []string{"epa"}, Active: true},
	}
	require.NoError(t, database.NewOrgDAO(db).ReplaceAll(ctx, orgs))

	o, err := NewReporter(db).Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, o.Organizations.Total)
	assert.Equal(t, 2, o.Organizations.Roots)
	assert.Equal(t, 1, o.Organizations.ByLevel[types.OrgLevelDepartment])
	assert.Equal(t, 2, o.Organizations.ByLevel[types.OrgLevelAgency])
}

func TestOverviewGroupsAgenciesAndTools(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedProfile(t, db, "Department of Energy", "DOE", "",
		types.DeploymentStatusAllStaff, types.ToolTypeStaffChatbot, types.ToolTypeDocumentAutomation)
	seedProfile(t, db, "Bonneville Power Administration", "BPA", "DOE",
		types.DeploymentStatusPilotLimited, types.ToolTypeCodingAssistant)
	seedProfile(t, db, "Lost Office", "LO", "GHOST",
		types.DeploymentStatusNone, types.ToolTypeNoneIdentified)

	o, err := NewReporter(db).Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, o.Agencies.Total)
	assert.Equal(t, 1, o.Agencies.ByDeploymentStatus[types.DeploymentStatusAllStaff])
	assert.Equal(t, 1, o.Agencies.ByDeploymentStatus[types.DeploymentStatusPilotLimited])
	assert.Equal(t, 1, o.Agencies.ByDeploymentStatus[types.DeploymentStatusNone])

	assert.Equal(t, 4, o.Agencies.Tools.Total)
	assert.Equal(t, 1, o.Agencies.Tools.ByType[types.ToolTypeStaffChatbot])
	assert.Equal(t, 1, o.Agencies.Tools.ByType[types.ToolTypeDocumentAutomation])
	assert.Equal(t, 1, o.Agencies.Tools.ByType[types.ToolTypeCodingAssistant])
	assert.Equal(t, 1, o.Agencies.Tools.ByType[types.ToolTypeNoneIdentified])

	// BPA rolls up under its DOE root; the dangling GHOST parent leaves
	// Lost Office as its own department.
	assert.Equal(t, 3, o.Agencies.Tools.ByDepartment["Department of Energy"])
	assert.Equal(t, 1, o.Agencies.Tools.ByDepartment["Lost Office"])
}

func TestOverviewCountsProductFlags(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedProduct(t, db, "FR100001", true, true, true, true)
	seedProduct(t, db, "FR100002", true, true, false, false)
	seedProduct(t, db, "FR100003", true, false, false, false)
	seedProduct(t, db, "FR100004", false, false, false, false)

	o, err := NewReporter(db).Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, o.Products.Total)
	assert.Equal(t, 3, o.Products.Analyzed)
	assert.Equal(t, 2, o.Products.AIFlagged)
	assert.Equal(t, 1, o.Products.GenAI)
	assert.Equal(t, 1, o.Products.LLM)
}

func TestOverviewCountsUseCases(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	seedInventory(t, db)

	o, err := NewReporter(db).Overview(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, o.UseCases.Total)
	assert.Equal(t, 1, o.UseCases.GenAI)
	assert.Equal(t, 2, o.UseCases.LLM)
	assert.Equal(t, 1, o.UseCases.Linkable)
	assert.Equal(t, map[string]int{"General Services Administration": 2}, o.UseCases.LLMByAgency)
}

func TestOverviewReportsMatchCounts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	matches := []*types.Match{
		types.NewMatch(types.MatchMethodUseCaseFedRAMP, types.EntityKindUseCase, "uc-1",
			types.EntityKindProduct, "FR100001", types.ConfidenceHigh, "provider match"),
		types.NewMatch(types.MatchMethodUseCaseFedRAMP, types.EntityKindUseCase, "uc-2",
			types.EntityKindProduct, "FR100001", types.ConfidenceMedium, "capability match"),
		types.NewMatch(types.MatchMethodIncidentProduct, types.EntityKindIncident, "101",
			types.EntityKindProduct, "FR100001", types.ConfidenceHigh, "developer match"),
	}
	_, _, err := database.NewMatchDAO(db).InsertMany(ctx, matches)
	require.NoError(t, err)

	o, err := NewReporter(db).Overview(ctx)
	require.NoError(t, err)

	require.Len(t, o.Matches, 3)
	assert.Equal(t, types.MatchMethodIncidentProduct, o.Matches[0].Method)
	assert.Equal(t, 1, o.Matches[0].Count)
	assert.Equal(t, types.MatchMethodUseCaseFedRAMP, o.Matches[1].Method)
	assert.Equal(t, types.ConfidenceHigh, o.Matches[1].Confidence)
	assert.Equal(t, types.MatchMethodUseCaseFedRAMP, o.Matches[2].Method)
	assert.Equal(t, types.ConfidenceMedium, o.Matches[2].Confidence)
}
