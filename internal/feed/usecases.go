package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// knownProviders are the vendor names scanned for in use case free text.
// Matching is folded substring containment, the same permissive comparison
// the deterministic matcher applies downstream.
var knownProviders = []string{
	"Amazon Web Services",
	"Microsoft",
	"Google",
	"OpenAI",
	"Anthropic",
	"Palantir",
	"IBM",
	"Oracle",
	"Salesforce",
	"ServiceNow",
	"Nvidia",
	"Databricks",
	"Snowflake",
	"Adobe",
	"Esri",
	"Accenture",
	"Hugging Face",
	"Dataminr",
	"C3 AI",
}

// detectProviders scans the given free-text fields for known provider
// names and merges in the explicit vendor cell, split on semicolons.
func detectProviders(vendorCell string, fields ...string) []string {
	seen := make(map[string]bool)
	var found []string

	for _, vendor := range strings.Split(vendorCell, ";") {
		vendor = strings.TrimSpace(vendor)
		if vendor == "" {
			continue
		}
		key := normalize.Fold(vendor)
		if !seen[key] {
			seen[key] = true
			found = append(found, vendor)
		}
	}

	folded := normalize.Fold(strings.Join(fields, " "))
	for _, provider := range knownProviders {
		key := normalize.Fold(provider)
		if seen[key] || !strings.Contains(folded, key) {
			continue
		}
		seen[key] = true
		found = append(found, provider)
	}

	return found
}

// parseFeedBool reads the inventory's assorted boolean spellings.
func parseFeedBool(s string) bool {
	switch normalize.Fold(s) {
	case "true", "yes", "y", "1", "x":
		return true
	default:
		return false
	}
}

// useCaseColumns holds the resolved positions of the inventory columns the
// loader cares about. The inventory carries around forty columns whose
// headers are full sentences, so most lookups fall back to substring
// search.
type useCaseColumns struct {
	agency     int
	abbrev     int
	bureau     int
	name       int
	topic      int
	purpose    int
	outputs    int
	stage      int
	genAI      int
	llm        int
	chatbot    int
	classicML  int
	commercial int
	vendor     int
}

func resolveUseCaseColumns(cols columnIndex) (useCaseColumns, error) {
	uc := useCaseColumns{}

	var ok bool
	uc.name, ok = cols.find("use_case_name", "name_of_use_case", "name")
	if !ok {
		return uc, types.NewError(types.FEED_PARSE_FAILED, "use case feed is missing a use case name column")
	}
	uc.agency, ok = cols.find("agency", "agency_name", "department_or_agency")
	if !ok {
		return uc, types.NewError(types.FEED_PARSE_FAILED, "use case feed is missing an agency column")
	}

	uc.abbrev = findColumn(cols, []string{"agency_abbreviation", "agency_abbrev"}, "abbreviation")
	uc.bureau = findColumn(cols, []string{"bureau", "component"}, "bureau")
	uc.topic = findColumn(cols, []string{"use_case_topic_area", "topic_area", "topic"}, "topic")
	uc.purpose = findColumn(cols, []string{"purpose", "intended_purpose"}, "intended_purpose", "purpose")
	uc.outputs = findColumn(cols, []string{"outputs", "system_outputs"}, "outputs")
	uc.stage = findColumn(cols, []string{"stage_of_development", "stage"}, "stage_of")
	uc.genAI = findColumn(cols, []string{"has_genai"}, "generative")
	uc.llm = findColumn(cols, []string{"has_llm"}, "large_language_model", "llm")
	uc.chatbot = findColumn(cols, []string{"has_chatbot"}, "chatbot")
	uc.classicML = findColumn(cols, []string{"has_classic_ml"}, "classical")
	uc.commercial = findColumn(cols, []string{"commercial_product"}, "commercial")
	uc.vendor = findColumn(cols, []string{"vendor", "vendors"}, "vendor")

	return uc, nil
}

// findColumn tries exact aliases first, then substring fallbacks in order,
// and returns -1 when the column is absent.
func findColumn(cols columnIndex, aliases []string, fragments ...string) int {
	if i, ok := cols.find(aliases...); ok {
		return i
	}
	for _, fragment := range fragments {
		if i, ok := cols.findContains(fragment); ok {
			return i
		}
	}
	return -1
}

// UseCases replaces the use case table with the inventory CSV's contents.
// Boolean columns tolerate TRUE/Yes/1 spellings; provider names are
// detected by scanning the vendor cell and the free-text fields.
func (l *Loader) UseCases(ctx context.Context, path string) (*LoadResult, error) {
	result := &LoadResult{Feed: "usecases"}

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
		return nil, types.WrapError(types.FEED_PARSE_FAILED, "use case feed has no header row", err)
	}
	columns, err := resolveUseCaseColumns(indexHeader(header))
	if err != nil {
		return nil, err
	}

	var ucs []*types.UseCase
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

		agency := cell(row, columns.agency)
		name := cell(row, columns.name)
		if agency == "" || name == "" {
			result.skip("line %d: missing agency or use case name", line)
			continue
		}

		uc := types.NewUseCase(agency, name)
		uc.AgencyAbbrev = cell(row, columns.abbrev)
		uc.Bureau = cell(row, columns.bureau)
		uc.Topic = cell(row, columns.topic)
		uc.PurposeText = cell(row, columns.purpose)
		uc.OutputsText = cell(row, columns.outputs)
		uc.Stage = cell(row, columns.stage)
		uc.HasGenAI = parseFeedBool(cell(row, columns.genAI))
		uc.HasLLM = parseFeedBool(cell(row, columns.llm))
		uc.HasChatbot = parseFeedBool(cell(row, columns.chatbot))
		uc.HasClassicML = parseFeedBool(cell(row, columns.classicML))
		uc.CommercialProduct = cell(row, columns.commercial)
		uc.ProvidersDetected = detectProviders(cell(row, columns.vendor),
			name, uc.PurposeText, uc.OutputsText, uc.CommercialProduct)

		ucs = append(ucs, uc)
	}

	if _, err := l.useCases.DeleteAll(ctx); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to clear use cases", err)
	}
	if err := l.useCases.InsertMany(ctx, ucs); err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to store use cases", err)
	}
	result.Loaded = len(ucs)

	l.logResult(result, path)
	return result, nil
}
