package feed

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// agencyRecord is one entry of the agency AI profile feed. org_id points
// into the organizations feed and is stored as given, resolved or not.
type agencyRecord struct {
	Name               string       `json:"name"`
	Abbreviation       string       `json:"abbreviation"`
	DepartmentName     string       `json:"department_name"`
	ParentAbbreviation string       `json:"parent_abbreviation"`
	OrgID              string       `json:"org_id"`
	DeploymentStatus   string       `json:"deployment_status"`
	SourceURL          string       `json:"source_url"`
	Tools              []toolRecord `json:"tools"`
}

// toolRecord is one inventoried AI tool nested in an agency record.
type toolRecord struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Availability string `json:"availability"`
	Pilot        bool   `json:"pilot"`
	SourceText   string `json:"source_text"`
	SourceURL    string `json:"source_url"`
	AccessedDate string `json:"accessed_date"`
}

// enumKey folds a feed enum value to its storage form: lowercase, with
// internal whitespace collapsed to single underscores.
func enumKey(s string) string {
	return strings.ReplaceAll(normalize.Fold(s), " ", "_")
}

// parseToolType maps a feed tool type to the fixed taxonomy. Unknown types
// land in ToolTypeNoneIdentified rather than dropping the tool.
func parseToolType(s string) types.ToolType {
	t := types.ToolType(enumKey(s))
	if t.IsValid() {
		return t
	}
	return types.ToolTypeNoneIdentified
}

// parseAvailability maps a feed availability value. Empty stays empty;
// unknown non-empty values land in AvailabilityUnknown.
func parseAvailability(s string) types.ToolAvailability {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	a := types.ToolAvailability(enumKey(s))
	if a.IsValid() {
		return a
	}
	return types.AvailabilityUnknown
}

// AgencyProfiles replaces the agency profile table (tools cascade on the
// delete) with the feed's contents. Slugs are minted from names, with
// numeric suffixes when two records share one. A record without a name is
// skipped; a malformed deployment status degrades to none with a note.
func (l *Loader) AgencyProfiles(ctx context.Context, path string) (*LoadResult, error) {
	result := &LoadResult{Feed: "agencies"}

	data, err := readFeed(path)
	if err != nil {
		return nil, err
	}

	var records []agencyRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, types.WrapError(types.FEED_PARSE_FAILED, "agencies feed is not a JSON array", err)
	}
	result.Read = len(records)

	if _, err := l.agencies.DeleteAll(ctx); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to clear agency profiles", err)
	}

	taken := make(map[string]bool)
	for i, rec := range records {
		if strings.TrimSpace(rec.Name) == "" {
			result.skip("record %d: agency name is empty", i)
			continue
		}

		status := types.DeploymentStatusNone
		if strings.TrimSpace(rec.DeploymentStatus) != "" {
			parsed := types.DeploymentStatus(enumKey(rec.DeploymentStatus))
			if parsed.IsValid() {
				status = parsed
			} else {
				result.note("record %d (%s): unknown deployment status %q", i, rec.Name, rec.DeploymentStatus)
			}
		}

		profile := types.NewAgencyProfile(rec.Name)
		profile.Slug = normalize.UniqueSlug(rec.Name, taken)
		profile.Abbreviation = rec.Abbreviation
		profile.DepartmentName = rec.DepartmentName
		profile.ParentAbbreviation = rec.ParentAbbreviation
		profile.OrgID = strings.TrimSpace(rec.OrgID)
		profile.DeploymentStatus = status
		profile.SourceURL = rec.SourceURL

		for j, tr := range rec.Tools {
			if strings.TrimSpace(tr.Name) == "" {
				result.note("record %d (%s): tool %d has no name", i, rec.Name, j)
				continue
			}
			tool := types.AgencyAiTool{
				ID:           types.NewID(),
				AgencyID:     profile.ID,
				Name:         tr.Name,
				Type:         parseToolType(tr.Type),
				Availability: parseAvailability(tr.Availability),
				Pilot:        tr.Pilot,
				SourceText:   tr.SourceText,
				SourceURL:    tr.SourceURL,
			}
			if date, ok := parseFeedDate(strings.TrimSpace(tr.AccessedDate)); ok {
				tool.AccessedDate = date
			} else {
				result.note("record %d (%s): tool %d has unparseable accessed date %q",
					i, rec.Name, j, tr.AccessedDate)
			}
			profile.Tools = append(profile.Tools, tool)
		}

		if err := l.agencies.Create(ctx, profile); err != nil {
			result.skip("record %d (%s): %v", i, rec.Name, err)
			continue
		}
		result.Loaded++
	}

	l.logResult(result, path)
	return result, nil
}
