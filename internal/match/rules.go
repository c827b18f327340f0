// Package match links use cases, agency profiles, and incidents to FedRAMP
// products with ordered deterministic rules. Precedence lives in the rule
// slices below: evaluation walks each slice in order, the first rule that
// fires decides the confidence and reason, and no hit means no link.
package match

import (
	"fmt"

	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// useCaseProductRule is one precedence step for a (use case, product) pair.
// Match returns the link reason and whether the rule fired.
type useCaseProductRule struct {
	Name       string
	Confidence types.Confidence
	Match      func(uc *types.UseCase, p *types.AIProduct) (string, bool)
}

// agencyProductRule is one precedence step for an (agency profile, product)
// pair. Tool comparisons scan the profile's inventoried AI tools.
type agencyProductRule struct {
	Name       string
	Confidence types.Confidence
	Match      func(a *types.AgencyProfile, p *types.AIProduct) (string, bool)
}

// incidentProductRule is one precedence step for an (incident, product) pair.
type incidentProductRule struct {
	Name       string
	Confidence types.Confidence
	Match      func(inc *types.Incident, p *types.AIProduct) (string, bool)
}

// incidentUseCaseRule is one precedence step for an (incident, use case)
// pair.
type incidentUseCaseRule struct {
	Name       string
	Confidence types.Confidence
	Match      func(inc *types.Incident, uc *types.UseCase) (string, bool)
}

// Name comparisons use normalize.NamesMatch, whose two-way substring
// containment is intentionally loose. Short names like "AI" over-match, so
// each slice puts the most specific comparisons first.

var useCaseProductRules = []useCaseProductRule{
	{
		Name:       "provider-name",
		Confidence: types.ConfidenceHigh,
		Match: func(uc *types.UseCase, p *types.AIProduct) (string, bool) {
			detected, ok := normalize.AnyNameMatches(p.Provider, uc.ProvidersDetected)
			if !ok {
				return "", false
			}
			return fmt.Sprintf("detected provider %q matches product provider %q", detected, p.Provider), true
		},
	},
	{
		Name:       "commercial-product",
		Confidence: types.ConfidenceHigh,
		Match: func(uc *types.UseCase, p *types.AIProduct) (string, bool) {
			if !normalize.NamesMatch(uc.CommercialProduct, p.Offering) {
				return "", false
			}
			return fmt.Sprintf("named product %q matches offering %q", uc.CommercialProduct, p.Offering), true
		},
	},
	{
		Name:       "genai-and-llm",
		Confidence: types.ConfidenceMedium,
		Match: func(uc *types.UseCase, p *types.AIProduct) (string, bool) {
			if uc.HasGenAI && p.HasGenAI && uc.HasLLM && p.HasLLM {
				return "both flagged generative AI and LLM", true
			}
			return "", false
		},
	},
	{
		Name:       "shared-capability",
		Confidence: types.ConfidenceMedium,
		Match: func(uc *types.UseCase, p *types.AIProduct) (string, bool) {
			if uc.HasGenAI && p.HasGenAI {
				return "both flagged generative AI", true
			}
			if uc.HasLLM && p.HasLLM {
				return "both flagged LLM", true
			}
			return "", false
		},
	},
	{
		Name:       "chatbot-genai",
		Confidence: types.ConfidenceLow,
		Match: func(uc *types.UseCase, p *types.AIProduct) (string, bool) {
			if uc.HasChatbot && p.HasGenAI {
				return fmt.Sprintf("use case runs a chatbot and %q is generative AI", p.Offering), true
			}
			return "", false
		},
	},
}

var agencyProductRules = []agencyProductRule{
	{
		Name:       "tool-offering",
		Confidence: types.ConfidenceHigh,
		Match: func(a *types.AgencyProfile, p *types.AIProduct) (string, bool) {
			for _, tool := range a.Tools {
				if normalize.NamesMatch(tool.Name, p.Offering) {
					return fmt.Sprintf("agency tool %q matches offering %q", tool.Name, p.Offering), true
				}
			}
			return "", false
		},
	},
	{
		Name:       "tool-provider",
		Confidence: types.ConfidenceHigh,
		Match: func(a *types.AgencyProfile, p *types.AIProduct) (string, bool) {
			for _, tool := range a.Tools {
				if normalize.NamesMatch(tool.Name, p.Provider) {
					return fmt.Sprintf("agency tool %q matches product provider %q", tool.Name, p.Provider), true
				}
			}
			return "", false
		},
	},
	{
		Name:       "staff-chatbot-genai",
		Confidence: types.ConfidenceLow,
		Match: func(a *types.AgencyProfile, p *types.AIProduct) (string, bool) {
			if !p.HasGenAI {
				return "", false
			}
			for _, tool := range a.Tools {
				if tool.Type == types.ToolTypeStaffChatbot {
					return fmt.Sprintf("agency runs staff chatbot %q and %q is generative AI", tool.Name, p.Offering), true
				}
			}
			return "", false
		},
	},
}

var incidentProductRules = []incidentProductRule{
	{
		Name:       "developer-provider",
		Confidence: types.ConfidenceHigh,
		Match: func(inc *types.Incident, p *types.AIProduct) (string, bool) {
			developer, ok := normalize.AnyNameMatches(p.Provider, inc.Developers)
			if !ok {
				return "", false
			}
			return fmt.Sprintf("incident developer %q matches product provider %q", developer, p.Provider), true
		},
	},
	{
		Name:       "deployer-provider",
		Confidence: types.ConfidenceMedium,
		Match: func(inc *types.Incident, p *types.AIProduct) (string, bool) {
			deployer, ok := normalize.AnyNameMatches(p.Provider, inc.Deployers)
			if !ok {
				return "", false
			}
			return fmt.Sprintf("incident deployer %q matches product provider %q", deployer, p.Provider), true
		},
	},
}

var incidentUseCaseRules = []incidentUseCaseRule{
	{
		Name:       "developer-usecase",
		Confidence: types.ConfidenceMedium,
		Match: func(inc *types.Incident, uc *types.UseCase) (string, bool) {
			return matchIncidentParties(inc.Developers, "developer", uc)
		},
	},
	{
		Name:       "deployer-usecase",
		Confidence: types.ConfidenceMedium,
		Match: func(inc *types.Incident, uc *types.UseCase) (string, bool) {
			return matchIncidentParties(inc.Deployers, "deployer", uc)
		},
	},
}

// matchIncidentParties compares every incident party name against the use
// case's detected providers and its named commercial product.
func matchIncidentParties(parties []string, role string, uc *types.UseCase) (string, bool) {
	for _, party := range parties {
		if detected, ok := normalize.AnyNameMatches(party, uc.ProvidersDetected); ok {
			return fmt.Sprintf("incident %s %q matches detected provider %q", role, party, detected), true
		}
		if normalize.NamesMatch(party, uc.CommercialProduct) {
			return fmt.Sprintf("incident %s %q matches named product %q", role, party, uc.CommercialProduct), true
		}
	}
	return "", false
}

// evalUseCaseProduct returns the first firing rule's match for the pair, or
// nil when no rule fires.
func evalUseCaseProduct(uc *types.UseCase, p *types.AIProduct) *types.Match {
	for _, rule := range useCaseProductRules {
		if reason, ok := rule.Match(uc, p); ok {
			return types.NewMatch(types.MatchMethodUseCaseFedRAMP,
				types.EntityKindUseCase, uc.ID.String(),
				types.EntityKindProduct, p.ID,
				rule.Confidence, reason)
		}
	}
	return nil
}

func evalAgencyProduct(a *types.AgencyProfile, p *types.AIProduct) *types.Match {
	for _, rule := range agencyProductRules {
		if reason, ok := rule.Match(a, p); ok {
			return types.NewMatch(types.MatchMethodAgencyFedRAMP,
				types.EntityKindAgency, a.ID.String(),
				types.EntityKindProduct, p.ID,
				rule.Confidence, reason)
		}
	}
	return nil
}

func evalIncidentProduct(inc *types.Incident, p *types.AIProduct) *types.Match {
	for _, rule := range incidentProductRules {
		if reason, ok := rule.Match(inc, p); ok {
			return types.NewMatch(types.MatchMethodIncidentProduct,
				types.EntityKindIncident, types.IncidentKey(inc.ID),
				types.EntityKindProduct, p.ID,
				rule.Confidence, reason)
		}
	}
	return nil
}

func evalIncidentUseCase(inc *types.Incident, uc *types.UseCase) *types.Match {
	for _, rule := range incidentUseCaseRules {
		if reason, ok := rule.Match(inc, uc); ok {
			return types.NewMatch(types.MatchMethodIncidentUseCase,
				types.EntityKindIncident, types.IncidentKey(inc.ID),
				types.EntityKindUseCase, uc.ID.String(),
				rule.Confidence, reason)
		}
	}
	return nil
}
