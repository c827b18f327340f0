package feed

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// columnIndex maps folded header names to their positions in a CSV row.
type columnIndex map[string]int

// headerKey folds a header cell to a lookup key, so "Cloud Service
// Provider" and "cloud_service_provider" land on the same entry.
func headerKey(s string) string {
	return strings.ReplaceAll(normalize.Slugify(s), "-", "_")
}

func indexHeader(header []string) columnIndex {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[headerKey(name)] = i
	}
	return idx
}

// find returns the position of the first alias present in the header.
func (c columnIndex) find(aliases ...string) (int, bool) {
	for _, alias := range aliases {
		if i, ok := c[alias]; ok {
			return i, true
		}
	}
	return -1, false
}

// findContains falls back to substring search over the folded headers, for
// feeds whose column names are full sentences.
func (c columnIndex) findContains(fragment string) (int, bool) {
	for key, i := range c {
		if strings.Contains(key, fragment) {
			return i, true
		}
	}
	return -1, false
}

// cell returns the trimmed value at position i, or "" when the column is
// absent or the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// productDateFormats are tried in order when parsing feed dates.
var productDateFormats = []string{"2006-01-02", "01/02/2006", time.RFC3339}

func parseFeedDate(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	for _, layout := range productDateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, true
		}
	}
	return nil, false
}

// parseFedRAMPStatus maps a marketplace status cell. The export lists
// authorized offerings, so an empty cell means authorized.
func parseFedRAMPStatus(s string) (types.FedRAMPStatus, bool) {
	key := headerKey(s)
	switch {
	case key == "":
		return types.FedRAMPStatusAuthorized, true
	case strings.Contains(key, "authorized"):
		return types.FedRAMPStatusAuthorized, true
	case strings.Contains(key, "in_process"), strings.Contains(key, "in_progress"):
		return types.FedRAMPStatusInProcess, true
	case strings.Contains(key, "ready"):
		return types.FedRAMPStatusReady, true
	default:
		return "", false
	}
}

// Products loads the FedRAMP marketplace CSV export. Rows upsert by package
// ID, so reloading a newer export updates offerings in place.
func (l *Loader) Products(ctx context.Context, path string) (*LoadResult, error) {
	result := &LoadResult{Feed: "products"}

	f, err := os.Open(path)
	if err != nil {
		return nil, types.WrapError(types.FEED_OPEN_FAILED,
			fmt.Sprintf("failed to open feed file %s", path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, types.WrapError(types.FEED_PARSE_FAILED, "products feed has no header row", err)
	}
	cols := indexHeader(header)

	idCol, ok := cols.find("package_id", "id")
	if !ok {
		return nil, types.NewError(types.FEED_PARSE_FAILED, "products feed is missing a package id column")
	}
	providerCol, ok := cols.find("cloud_service_provider", "provider", "csp")
	if !ok {
		return nil, types.NewError(types.FEED_PARSE_FAILED, "products feed is missing a provider column")
	}
	offeringCol, ok := cols.find("cloud_service_offering", "service_offering", "offering", "cso")
	if !ok {
		return nil, types.NewError(types.FEED_PARSE_FAILED, "products feed is missing an offering column")
	}
	descCol, _ := cols.find("service_description", "description")
	statusCol, _ := cols.find("status", "designation")
	impactCol, _ := cols.find("impact_level", "fedramp_impact_level")
	agencyCol, _ := cols.find("authorizing_agency", "agency_authorizations", "agency")
	dateCol, _ := cols.find("authorization_date", "authorized_date")

	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Read++
			result.skip("line %d: %v", line, err)
			continue
		}
		result.Read++

		id := cell(row, idCol)
		provider := cell(row, providerCol)
		offering := cell(row, offeringCol)
		if id == "" || provider == "" || offering == "" {
			result.skip("line %d: missing package id, provider, or offering", line)
			continue
		}

		status, ok := parseFedRAMPStatus(cell(row, statusCol))
		if !ok {
			result.skip("line %d (%s): unknown status %q", line, id, cell(row, statusCol))
			continue
		}

		product := &types.FedRAMPProduct{
			ID:                id,
			Provider:          provider,
			Offering:          offering,
			Description:       cell(row, descCol),
			Status:            status,
			ImpactLevel:       cell(row, impactCol),
			AuthorizingAgency: cell(row, agencyCol),
		}
		if date, ok := parseFeedDate(cell(row, dateCol)); ok {
			product.AuthorizedDate = date
		} else {
			result.note("line %d (%s): unparseable authorization date %q", line, id, cell(row, dateCol))
		}

		if err := l.products.Upsert(ctx, product); err != nil {
			result.skip("line %d (%s): %v", line, id, err)
			continue
		}
		result.Loaded++
	}

	l.logResult(result, path)
	return result, nil
}

// analysisRecord is one entry of the AI service analysis feed.
type analysisRecord struct {
	ProductID string `json:"product_id"`
	HasAI     bool   `json:"has_ai"`
	HasGenAI  bool   `json:"has_genai"`
	HasLLM    bool   `json:"has_llm"`
	Excerpt   string `json:"excerpt"`
}

// Analyses loads the AI classification feed produced by the offline
// description scan. Records referencing unknown products are skipped; the
// products feed must load first.
func (l *Loader) Analyses(ctx context.Context, path string) (*LoadResult, error) {
	result := &LoadResult{Feed: "analyses"}

	data, err := readFeed(path)
	if err != nil {
		return nil, err
	}

	var records []analysisRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, types.WrapError(types.FEED_PARSE_FAILED, "analyses feed is not a JSON array", err)
	}
	result.Read = len(records)

	for i, rec := range records {
		if strings.TrimSpace(rec.ProductID) == "" {
			result.skip("record %d: product id is empty", i)
			continue
		}

		analysis := &types.AIServiceAnalysis{
			ProductID:  rec.ProductID,
			HasAI:      rec.HasAI,
			HasGenAI:   rec.HasGenAI,
			HasLLM:     rec.HasLLM,
			Excerpt:    rec.Excerpt,
			AnalyzedAt: time.Now(),
		}
		if err := l.products.UpsertAnalysis(ctx, analysis); err != nil {
			result.skip("record %d (%s): %v", i, rec.ProductID, err)
			continue
		}
		result.Loaded++
	}

	l.logResult(result, path)
	return result, nil
}
