package semantic

import (
	"strings"
	"unicode/utf8"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// useCaseText builds the embedding text for a use case from its name and
// free-text purpose and outputs fields.
func useCaseText(uc *types.UseCase) string {
	return joinText(uc.Name, uc.PurposeText, uc.OutputsText)
}

// productText builds the embedding text for an AI-flagged product.
func productText(p *types.AIProduct) string {
	return joinText(p.Offering, p.Provider, p.Description)
}

// incidentText builds the embedding text for an incident.
func incidentText(inc *types.Incident) string {
	return joinText(inc.Title, inc.Description)
}

// joinText joins the non-empty parts with ". ". The caller truncates the
// result to its configured input cap.
func joinText(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ". ")
}

// truncate cuts s to at most max bytes without splitting a multi-byte rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
