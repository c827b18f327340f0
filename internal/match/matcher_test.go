package match

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// setupTestDB creates a migrated database in a temp directory for matcher
// tests and returns it with a cleanup function.
func setupTestDB(t *testing.T) (*database.DB, func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "fedlink-match-test-*")
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

// createAIProduct stores a product plus the analysis row that flags it.
func createAIProduct(t *testing.T, db *database.DB, id, provider, offering string, hasGenAI, hasLLM bool) {
	t.Helper()

	dao := database.NewProductDAO(db)
	ctx := context.Background()

	require.NoError(t, dao.Upsert(ctx, &types.FedRAMPProduct{
		ID:       id,
		Provider: provider,
		Offering: offering,
		Status:   types.FedRAMPStatusAuthorized,
	}))
	require.NoError(t, dao.UpsertAnalysis(ctx, &types.AIServiceAnalysis{
		ProductID:  id,
		HasAI:      true,
		HasGenAI:   hasGenAI,
		HasLLM:     hasLLM,
		AnalyzedAt: time.Now(),
	}))
}

func createUseCase(t *testing.T, db *database.DB, uc *types.UseCase) {
	t.Helper()
	require.NoError(t, database.NewUseCaseDAO(db).Create(context.Background(), uc))
}

func TestRunUseCaseProductsProviderMatch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "Amazon Web Services, Inc.", "Bedrock", true, true)

	uc := types.NewUseCase("Department of Veterans Affairs", "Claims triage assistant")
	uc.AgencyAbbrev = "VA"
	uc.ProvidersDetected = []string{"Amazon Web Services"}
	createUseCase(t, db, uc)

	matcher := NewMatcher(db)
	result, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Sources)
	assert.Equal(t, 1, result.Candidates)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Skipped)

	matches, err := database.NewMatchDAO(db).ListByMethod(ctx, types.MatchMethodUseCaseFedRAMP)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	link := matches[0]
	assert.Equal(t, types.ConfidenceHigh, link.Confidence)
	assert.Equal(t, uc.ID.String(), link.SourceID)
	assert.Equal(t, "FR100001", link.TargetID)
	assert.Contains(t, link.Reason, "Amazon Web Services")
	assert.Contains(t, link.Reason, "Amazon Web Services, Inc.")
}

func TestRunUseCaseProductsGenAIOnlyMatch(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "Anthropic", "Claude for Government", true, true)

	// The detected provider misses the product provider, so only the
	// shared-capability rule can fire. GenAI overlaps but LLM does not.
	uc := types.NewUseCase("General Services Administration", "Public comment summarizer")
	uc.AgencyAbbrev = "GSA"
	uc.ProvidersDetected = []string{"Example Labs"}
	uc.HasGenAI = true
	uc.HasLLM = false
	createUseCase(t, db, uc)

	matcher := NewMatcher(db)
	_, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)

	matches, err := database.NewMatchDAO(db).ListByMethod(ctx, types.MatchMethodUseCaseFedRAMP)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, types.ConfidenceMedium, matches[0].Confidence)
	assert.Contains(t, matches[0].Reason, "both flagged generative AI")
}

func TestRunUseCaseProductsScopesSources(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "Anthropic", "Claude for Government", true, true)

	// Flags overlap, but without a detected provider or named product the
	// use case is out of scope for the deterministic pass.
	uc := types.NewUseCase("General Services Administration", "Public comment summarizer")
	uc.AgencyAbbrev = "GSA"
	uc.HasGenAI = true
	createUseCase(t, db, uc)

	matcher := NewMatcher(db)
	result, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Sources)
	assert.Equal(t, 0, result.Matched)

	count, err := database.NewMatchDAO(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunUseCaseProductsIdempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "Amazon Web Services, Inc.", "Bedrock", true, true)
	createAIProduct(t, db, "FR100002", "Anthropic", "Claude for Government", true, true)

	uc := types.NewUseCase("Department of Veterans Affairs", "Claims triage assistant")
	uc.AgencyAbbrev = "VA"
	uc.ProvidersDetected = []string{"Amazon Web Services"}
	uc.HasGenAI = true
	createUseCase(t, db, uc)

	matcher := NewMatcher(db)

	_, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)
	first, err := database.NewMatchDAO(db).ListByMethod(ctx, types.MatchMethodUseCaseFedRAMP)
	require.NoError(t, err)

	second, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)
	rerun, err := database.NewMatchDAO(db).ListByMethod(ctx, types.MatchMethodUseCaseFedRAMP)
	require.NoError(t, err)

	require.Equal(t, len(first), len(rerun))
	assert.Equal(t, len(rerun), second.Inserted)
	for i := range first {
		assert.Equal(t, first[i].SourceID, rerun[i].SourceID)
		assert.Equal(t, first[i].TargetID, rerun[i].TargetID)
		assert.Equal(t, first[i].Confidence, rerun[i].Confidence)
		assert.Equal(t, first[i].Reason, rerun[i].Reason)
	}
}

func TestRunClearsStaleMatches(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "Amazon Web Services, Inc.", "Bedrock", true, true)

	uc := types.NewUseCase("Department of Veterans Affairs", "Claims triage assistant")
	uc.AgencyAbbrev = "VA"
	uc.ProvidersDetected = []string{"Amazon Web Services"}
	createUseCase(t, db, uc)

	matcher := NewMatcher(db)
	_, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)

	// Drop the source; the rerun must remove its stale link
	ucDAO := database.NewUseCaseDAO(db)
	_, err = ucDAO.DeleteAll(ctx)
	require.NoError(t, err)

	result, err := matcher.RunUseCaseProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Matched)

	count, err := database.NewMatchDAO(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestRunAgencyProducts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100002", "Microsoft Corporation", "Azure OpenAI Service", true, true)

	profile := types.NewAgencyProfile("Department of Energy")
	profile.Slug = "department-of-energy"
	profile.Abbreviation = "DOE"
	profile.Tools = append(profile.Tools, types.AgencyAiTool{
		ID:       types.NewID(),
		AgencyID: profile.ID,
		Name:     "Azure OpenAI",
		Type:     types.ToolTypeDocumentAutomation,
	})
	require.NoError(t, database.NewAgencyDAO(db).Create(ctx, profile))

	matcher := NewMatcher(db)
	result, err := matcher.RunAgencyProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Matched)

	matches, err := database.NewMatchDAO(db).ListByMethod(ctx, types.MatchMethodAgencyFedRAMP)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, types.ConfidenceHigh, matches[0].Confidence)
	assert.Equal(t, profile.ID.String(), matches[0].SourceID)
	assert.Equal(t, types.EntityKindAgency, matches[0].SourceKind)
}

func TestRunIncidentPasses(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "OpenAI", "OpenAI API", true, true)

	incident := &types.Incident{
		ID:         301,
		Title:      "Chatbot leaks internal records",
		Developers: []string{"OpenAI"},
	}
	require.NoError(t, database.NewIncidentDAO(db).Upsert(ctx, incident))

	uc := types.NewUseCase("General Services Administration", "Support chatbot")
	uc.AgencyAbbrev = "GSA"
	uc.ProvidersDetected = []string{"OpenAI"}
	createUseCase(t, db, uc)

	matcher := NewMatcher(db)

	productResult, err := matcher.RunIncidentProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, productResult.Matched)

	useCaseResult, err := matcher.RunIncidentUseCases(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, useCaseResult.Matched)

	matches, err := database.NewMatchDAO(db).ListBySource(ctx, types.EntityKindIncident, "301")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestRunAll(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	createAIProduct(t, db, "FR100001", "OpenAI", "OpenAI API", true, true)

	uc := types.NewUseCase("General Services Administration", "Support chatbot")
	uc.AgencyAbbrev = "GSA"
	uc.ProvidersDetected = []string{"OpenAI"}
	createUseCase(t, db, uc)

	matcher := NewMatcher(db, WithParallelism(2))
	results, err := matcher.RunAll(ctx)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.Equal(t, types.MatchMethodUseCaseFedRAMP, results[0].Method)
	assert.Equal(t, types.MatchMethodAgencyFedRAMP, results[1].Method)
	assert.Equal(t, types.MatchMethodIncidentProduct, results[2].Method)
	assert.Equal(t, types.MatchMethodIncidentUseCase, results[3].Method)
}
