package feed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

func TestIncidentsLoadsRecords(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	path := writeFixture(t, "incidents.json", `[
		{
			"incident_id": 101,
			"title": "Chatbot leaks benefits data",
			"description": "A deployed assistant exposed claimant records.",
			"date": "2023-11-02",
			"developers": ["OpenAI"],
			"deployers": ["Example Agency"],
			"harmed_parties": ["claimants"],
			"report_count": 4,
			"source_url": "https://example.org/101"
		},
		{"incident_id": 102, "title": "Screening model bias", "report_count": 1}
	]`)

	result, err := newTestLoader(db).Incidents(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Read)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 0, result.Skipped)

	incidents := database.NewIncidentDAO(db)

	leak, err := incidents.Get(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, "Chatbot leaks benefits data", leak.Title)
	assert.Equal(t, []string{"OpenAI"}, leak.Developers)
	assert.Equal(t, []string{"Example Agency"}, leak.Deployers)
	assert.Equal(t, []string{"claimants"}, leak.HarmedParties)
	assert.Equal(t, 4, leak.ReportCount)
	require.NotNil(t, leak.Date)
	assert.Equal(t, "2023-11-02", leak.Date.Format("2006-01-02"))

	bias, err := incidents.Get(ctx, 102)
	require.NoError(t, err)
	assert.Nil(t, bias.Date)
	assert.Empty(t, bias.Developers)
}

func TestIncidentsSkipsInvalidRecords(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	path := writeFixture(t, "incidents.json", `[
		{"incident_id": 0, "title": "No identifier"},
		{"incident_id": 201, "title": ""},
		{"incident_id": 202, "title": "Kept incident"}
	]`)

	result, err := newTestLoader(db).Incidents(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Read)
	assert.Equal(t, 1, result.Loaded)
	assert.Equal(t, 2, result.Skipped)

	count, err := database.NewIncidentDAO(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIncidentsNotesUnparseableDates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	path := writeFixture(t, "incidents.json", `[
		{"incident_id": 301, "title": "Vague timeline", "date": "around March 2021"}
	]`)

	result, err := newTestLoader(db).Incidents(ctx, path)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Loaded)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "around March 2021")

	inc, err := database.NewIncidentDAO(db).Get(ctx, 301)
	require.NoError(t, err)
	assert.Nil(t, inc.Date)
}

func TestIncidentsUpsertsOnReload(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	loader := newTestLoader(db)

	first := writeFixture(t, "first.json",
		`[{"incident_id": 401, "title": "Initial title", "report_count": 1}]`)
	_, err := loader.Incidents(ctx, first)
	require.NoError(t, err)

	second := writeFixture(t, "second.json",
		`[{"incident_id": 401, "title": "Corrected title", "report_count": 3}]`)
	_, err = loader.Incidents(ctx, second)
	require.NoError(t, err)

	incidents := database.NewIncidentDAO(db)

	count, err := incidents.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	inc, err := incidents.Get(ctx, 401)
	require.NoError(t, err)
	assert.Equal(t, "Corrected title", inc.Title)
	assert.Equal(t, 3, inc.ReportCount)
}

func TestIncidentsRejectsMalformedFeed(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	path := writeFixture(t, "incidents.json", `{"incident_id": 1}`)
	_, err := newTestLoader(db).Incidents(context.Background(), path)

	var fe *types.FedlinkError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, types.FEED_PARSE_FAILED, fe.Code)
}
