package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fedlink-ai/fedlink/internal/types"
)

type incidentRecord struct {
	ID            int      `json:"incident_id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Date          string   `json:"date"`
	Developers    []string `json:"developers"`
	Deployers     []string `json:"deployers"`
	HarmedParties []string `json:"harmed_parties"`
	ReportCount   int      `json:"report_count"`
	SourceURL     string   `json:"source_url"`
}

// Incidents upserts AI harm incidents from a JSON feed. Records keep the
// external incident number as their ID, so reloads update in place.
func (l *Loader) Incidents(ctx context.Context, path string) (*LoadResult, error) {
	result := &LoadResult{Feed: "incidents"}

	data, err := readFeed(path)
	if err != nil {
		return nil, err
	}

	var records []incidentRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, types.WrapError(types.FEED_PARSE_FAILED, "incident feed is not a JSON array", err)
	}

	now := time.Now()
	for _, rec := range records {
		result.Read++

		if rec.ID <= 0 {
			result.skip("incident %q: missing or non-positive incident_id", rec.Title)
			continue
		}
		if rec.Title == "" {
			result.skip("incident %d: missing title", rec.ID)
			continue
		}

		inc := &types.Incident{
			ID:            rec.ID,
			Title:         rec.Title,
			Description:   rec.Description,
			Developers:    rec.Developers,
			Deployers:     rec.Deployers,
			HarmedParties: rec.HarmedParties,
			ReportCount:   rec.ReportCount,
			SourceURL:     rec.SourceURL,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if rec.Date != "" {
			if date, ok := parseFeedDate(rec.Date); ok {
				inc.Date = date
			} else {
				result.note("incident %d: unparseable date %q dropped", rec.ID, rec.Date)
			}
		}

		if err := l.incidents.Upsert(ctx, inc); err != nil {
			result.skip("incident %d: %v", rec.ID, err)
			continue
		}
		result.Loaded++
	}

	l.logResult(result, path)
	return result, nil
}
