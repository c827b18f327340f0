package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink-ai/fedlink/internal/types"
)

func linkableUseCase(name string) *types.UseCase {
	uc := types.NewUseCase("Department of Veterans Affairs", name)
	uc.AgencyAbbrev = "VA"
	return uc
}

func aiProduct(id, provider, offering string) *types.AIProduct {
	return &types.AIProduct{
		FedRAMPProduct: types.FedRAMPProduct{
			ID:       id,
			Provider: provider,
			Offering: offering,
			Status:   types.FedRAMPStatusAuthorized,
		},
		HasAI: true,
	}
}

func TestUseCaseProductPrecedence(t *testing.T) {
	// Satisfies the HIGH provider rule and the MEDIUM capability rules at
	// once; first match must win.
	uc := linkableUseCase("Claims triage assistant")
	uc.ProvidersDetected = []string{"Amazon Web Services"}
	uc.HasGenAI = true
	uc.HasLLM = true

	p := aiProduct("FR100001", "Amazon Web Services, Inc.", "Bedrock")
	p.HasGenAI = true
	p.HasLLM = true

	link := evalUseCaseProduct(uc, p)
	require.NotNil(t, link)
	assert.Equal(t, types.ConfidenceHigh, link.Confidence)
	assert.Contains(t, link.Reason, "Amazon Web Services")
	assert.Contains(t, link.Reason, "Amazon Web Services, Inc.")
}

func TestUseCaseProductRuleLadder(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(uc *types.UseCase, p *types.AIProduct)
		confidence types.Confidence
		reason     string
	}{
		{
			name: "provider name",
			setup: func(uc *types.UseCase, p *types.AIProduct) {
				uc.ProvidersDetected = []string{"OpenAI"}
				p.Provider = "OpenAI"
			},
			confidence: types.ConfidenceHigh,
			reason:     "detected provider",
		},
		{
			name: "commercial product",
			setup: func(uc *types.UseCase, p *types.AIProduct) {
				uc.CommercialProduct = "ChatGPT Enterprise"
				p.Offering = "ChatGPT Enterprise for Government"
			},
			confidence: types.ConfidenceHigh,
			reason:     "named product",
		},
		{
			name: "genai and llm",
			setup: func(uc *types.UseCase, p *types.AIProduct) {
				uc.HasGenAI = true
				uc.HasLLM = true
				p.HasGenAI = true
				p.HasLLM = true
			},
			confidence: types.ConfidenceMedium,
			reason:     "generative AI and LLM",
		},
		{
			name: "genai only",
			setup: func(uc *types.UseCase, p *types.AIProduct) {
				uc.HasGenAI = true
				p.HasGenAI = true
			},
			confidence: types.ConfidenceMedium,
			reason:     "both flagged generative AI",
		},
		{
			name: "llm only",
			setup: func(uc *types.UseCase, p *types.AIProduct) {
				uc.HasLLM = true
				p.HasLLM = true
			},
			confidence: types.ConfidenceMedium,
			reason:     "both flagged LLM",
		},
		{
			name: "chatbot against genai product",
			setup: func(uc *types.UseCase, p *types.AIProduct) {
				uc.HasChatbot = true
				p.HasGenAI = true
			},
			confidence: types.ConfidenceLow,
			reason:     "chatbot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := linkableUseCase("Claims triage assistant")
			p := aiProduct("FR100001", "Example Cloud", "Example Offering")
			tt.setup(uc, p)

			link := evalUseCaseProduct(uc, p)
			require.NotNil(t, link)
			assert.Equal(t, tt.confidence, link.Confidence)
			assert.Contains(t, link.Reason, tt.reason)
			assert.Equal(t, types.MatchMethodUseCaseFedRAMP, link.Method)
			assert.Equal(t, uc.ID.String(), link.SourceID)
			assert.Equal(t, "FR100001", link.TargetID)
			assert.Nil(t, link.Score)
		})
	}
}

func TestUseCaseProductNoRuleFires(t *testing.T) {
	uc := linkableUseCase("Claims triage assistant")
	uc.ProvidersDetected = []string{"Anthropic"}
	uc.HasClassicML = true

	p := aiProduct("FR100001", "Unrelated Hosting", "Managed File Transfer")

	assert.Nil(t, evalUseCaseProduct(uc, p))
}

func TestAgencyProductRules(t *testing.T) {
	p := aiProduct("FR100002", "Microsoft Corporation", "Azure OpenAI Service")
	p.HasGenAI = true

	profile := types.NewAgencyProfile("Department of Energy")
	profile.Slug = "department-of-energy"

	t.Run("no tools no match", func(t *testing.T) {
		assert.Nil(t, evalAgencyProduct(profile, p))
	})

	t.Run("tool name against offering", func(t *testing.T) {
		withTool := types.NewAgencyProfile("Department of Energy")
		withTool.Slug = "department-of-energy"
		withTool.Tools = append(withTool.Tools, types.AgencyAiTool{
			ID:       types.NewID(),
			AgencyID: withTool.ID,
			Name:     "Azure OpenAI",
			Type:     types.ToolTypeDocumentAutomation,
		})

		link := evalAgencyProduct(withTool, p)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceHigh, link.Confidence)
		assert.Contains(t, link.Reason, "Azure OpenAI")
		assert.Contains(t, link.Reason, "Azure OpenAI Service")
	})

	t.Run("tool name against provider", func(t *testing.T) {
		withTool := types.NewAgencyProfile("Department of Energy")
		withTool.Slug = "department-of-energy"
		withTool.Tools = append(withTool.Tools, types.AgencyAiTool{
			ID:       types.NewID(),
			AgencyID: withTool.ID,
			Name:     "Microsoft",
			Type:     types.ToolTypeNoneIdentified,
		})

		link := evalAgencyProduct(withTool, p)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceHigh, link.Confidence)
		assert.Contains(t, link.Reason, "Microsoft Corporation")
	})

	t.Run("staff chatbot against genai product", func(t *testing.T) {
		withChatbot := types.NewAgencyProfile("Department of Energy")
		withChatbot.Slug = "department-of-energy"
		withChatbot.Tools = append(withChatbot.Tools, types.AgencyAiTool{
			ID:       types.NewID(),
			AgencyID: withChatbot.ID,
			Name:     "EnergyChat",
			Type:     types.ToolTypeStaffChatbot,
		})

		link := evalAgencyProduct(withChatbot, p)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceLow, link.Confidence)
		assert.Contains(t, link.Reason, "EnergyChat")
	})

	t.Run("staff chatbot needs genai target", func(t *testing.T) {
		plain := aiProduct("FR100003", "Example Hosting", "Managed File Transfer")
		withChatbot := types.NewAgencyProfile("Department of Energy")
		withChatbot.Slug = "department-of-energy"
		withChatbot.Tools = append(withChatbot.Tools, types.AgencyAiTool{
			ID:       types.NewID(),
			AgencyID: withChatbot.ID,
			Name:     "EnergyChat",
			Type:     types.ToolTypeStaffChatbot,
		})

		assert.Nil(t, evalAgencyProduct(withChatbot, plain))
	})
}

func TestIncidentProductRules(t *testing.T) {
	p := aiProduct("FR100001", "OpenAI", "OpenAI API")

	t.Run("developer beats deployer", func(t *testing.T) {
		inc := &types.Incident{
			ID:         101,
			Title:      "Chatbot leaks internal records",
			Developers: []string{"OpenAI"},
			Deployers:  []string{"OpenAI"},
		}

		link := evalIncidentProduct(inc, p)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceHigh, link.Confidence)
		assert.Contains(t, link.Reason, "developer")
		assert.Equal(t, "101", link.SourceID)
	})

	t.Run("deployer only", func(t *testing.T) {
		inc := &types.Incident{
			ID:        102,
			Title:     "Procurement screening gone wrong",
			Deployers: []string{"OpenAI"},
		}

		link := evalIncidentProduct(inc, p)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceMedium, link.Confidence)
		assert.Contains(t, link.Reason, "deployer")
	})

	t.Run("no overlap", func(t *testing.T) {
		inc := &types.Incident{
			ID:         103,
			Title:      "Unrelated drone mishap",
			Developers: []string{"Example Robotics"},
		}

		assert.Nil(t, evalIncidentProduct(inc, p))
	})
}

func TestIncidentUseCaseRules(t *testing.T) {
	uc := linkableUseCase("Claims triage assistant")
	uc.ProvidersDetected = []string{"Anthropic"}
	uc.CommercialProduct = "Claude for Government"

	t.Run("developer against detected provider", func(t *testing.T) {
		inc := &types.Incident{
			ID:         201,
			Title:      "Model hallucination in benefits letter",
			Developers: []string{"Anthropic"},
		}

		link := evalIncidentUseCase(inc, uc)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceMedium, link.Confidence)
		assert.Contains(t, link.Reason, "developer")
		assert.Contains(t, link.Reason, "Anthropic")
	})

	t.Run("deployer against named product", func(t *testing.T) {
		inc := &types.Incident{
			ID:        202,
			Title:     "Support bot mishandles case data",
			Deployers: []string{"Claude"},
		}

		link := evalIncidentUseCase(inc, uc)
		require.NotNil(t, link)
		assert.Equal(t, types.ConfidenceMedium, link.Confidence)
		assert.Contains(t, link.Reason, "Claude for Government")
	})

	t.Run("no overlap", func(t *testing.T) {
		inc := &types.Incident{
			ID:        203,
			Title:     "Unrelated drone mishap",
			Deployers: []string{"Example Robotics"},
		}

		assert.Nil(t, evalIncidentUseCase(inc, uc))
	})
}
