package feed

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/org"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// orgRecord is one entry of the organizations feed, a JSON array covering
// the federal org chart.
type orgRecord struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Level        string `json:"level"`
	ParentID     string `json:"parent_id"`
	CFOAct       bool   `json:"cfo_act"`
	Cabinet      bool   `json:"cabinet"`
	Active       *bool  `json:"active"`
}

// Organizations replaces the organization table with the feed's contents.
// Hierarchy depth and path are computed while building the tree; records
// whose parent reference never resolves are dropped and counted. IDs
// default to the slugified name when the feed omits them.
func (l *Loader) Organizations(ctx context.Context, path string) (*LoadResult, error) {
	result := &LoadResult{Feed: "organizations"}

	data, err := readFeed(path)
	if err != nil {
		return nil, err
	}

	var records []orgRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, types.WrapError(types.FEED_PARSE_FAILED, "organizations feed is not a JSON array", err)
	}
	result.Read = len(records)

	orgs := make([]types.Organization, 0, len(records))
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			result.skip("record %d: organization name is empty", i)
			continue
		}

		level := types.OrgLevel(normalize.Fold(rec.Level))
		if !level.IsValid() {
			result.skip("record %d (%s): unknown level %q", i, rec.Name, rec.Level)
			continue
		}

		id := strings.TrimSpace(rec.ID)
		if id == "" {
			id = normalize.Slugify(rec.Name)
		}

		o := types.Organization{
			ID:           id,
			Name:         rec.Name,
			Abbreviation: rec.Abbreviation,
			Level:        level,
			ParentID:     rec.ParentID,
			CFOAct:       rec.CFOAct,
			Cabinet:      rec.Cabinet,
			Active:       true,
		}
		if rec.Active != nil {
			o.Active = *rec.Active
		}
		orgs = append(orgs, o)
	}

	tree := org.NewTree(orgs, org.WithTreeLogger(l.logger))
	if tree.Skipped() > 0 {
		result.Skipped += tree.Skipped()
		result.note("%d records dropped for unresolvable parent references", tree.Skipped())
	}

	stored := tree.All()
	if err := l.orgs.ReplaceAll(ctx, stored); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to store organizations", err)
	}
	result.Loaded = len(stored)

	l.logResult(result, path)
	return result, nil
}
