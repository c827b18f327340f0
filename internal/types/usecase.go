package types

import (
	"fmt"
	"strings"
	"time"
)

// UseCase represents one row of a federal agency AI use case inventory.
// Rows arrive without stable identifiers, so fedlink mints an ID at load
// time. ProvidersDetected holds vendor names extracted from the descriptive
// text; CommercialProduct holds an explicitly named product when the
// inventory states one.
type UseCase struct {
	ID                ID        `json:"id"`
	AgencyName        string    `json:"agency_name"`
	AgencyAbbrev      string    `json:"agency_abbrev,omitempty"`
	Bureau            string    `json:"bureau,omitempty"`
	Name              string    `json:"name"`
	Topic             string    `json:"topic,omitempty"`
	PurposeText       string    `json:"purpose_text,omitempty"`
	OutputsText       string    `json:"outputs_text,omitempty"`
	Stage             string    `json:"stage,omitempty"`
	HasGenAI          bool      `json:"has_genai"`
	HasLLM            bool      `json:"has_llm"`
	HasChatbot        bool      `json:"has_chatbot"`
	HasClassicML      bool      `json:"has_classic_ml"`
	ProvidersDetected []string  `json:"providers_detected,omitempty"`
	CommercialProduct string    `json:"commercial_product,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// NewUseCase creates a UseCase with a fresh ID.
func NewUseCase(agencyName, name string) *UseCase {
	now := time.Now()
	return &UseCase{
		ID:                NewID(),
		AgencyName:        agencyName,
		Name:              name,
		ProvidersDetected: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Validate checks if the UseCase has all required fields
func (u *UseCase) Validate() error {
	if err := u.ID.Validate(); err != nil {
		return fmt.Errorf("invalid use case ID: %w", err)
	}

	if strings.TrimSpace(u.AgencyName) == "" {
		return fmt.Errorf("use case agency name cannot be empty")
	}

	if strings.TrimSpace(u.Name) == "" {
		return fmt.Errorf("use case name cannot be empty")
	}

	return nil
}

// Linkable reports whether the use case carries enough vendor signal to
// enter the deterministic candidate set: at least one detected provider or
// a named commercial product.
func (u *UseCase) Linkable() bool {
	return len(u.ProvidersDetected) > 0 || strings.TrimSpace(u.CommercialProduct) != ""
}
