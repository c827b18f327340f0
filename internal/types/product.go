package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FedRAMPStatus represents the authorization status of a FedRAMP product
type FedRAMPStatus string

const (
	FedRAMPStatusAuthorized FedRAMPStatus = "authorized"
	FedRAMPStatusInProcess  FedRAMPStatus = "in_process"
	FedRAMPStatusReady      FedRAMPStatus = "ready"
)

// String returns the string representation of FedRAMPStatus
func (s FedRAMPStatus) String() string {
	return string(s)
}

// IsValid checks if the FedRAMPStatus is a valid value
func (s FedRAMPStatus) IsValid() bool {
	switch s {
	case FedRAMPStatusAuthorized, FedRAMPStatusInProcess, FedRAMPStatusReady:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s FedRAMPStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *FedRAMPStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := FedRAMPStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid fedramp status: %s", str)
	}

	*s = status
	return nil
}

// FedRAMPProduct represents a cloud service offering in the FedRAMP
// marketplace. ID is the stable marketplace identifier assigned by the
// FedRAMP PMO (e.g., "FR1234567890"), not a fedlink-minted UUID.
type FedRAMPProduct struct {
	ID                string        `json:"id"`
	Provider          string        `json:"provider"`
	Offering          string        `json:"offering"`
	Description       string        `json:"description,omitempty"`
	Status            FedRAMPStatus `json:"status"`
	ImpactLevel       string        `json:"impact_level,omitempty"`
	AuthorizingAgency string        `json:"authorizing_agency,omitempty"`
	AuthorizedDate    *time.Time    `json:"authorized_date,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// Validate checks if the FedRAMPProduct has all required fields and valid values
func (p *FedRAMPProduct) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product ID cannot be empty")
	}

	if strings.TrimSpace(p.Provider) == "" {
		return fmt.Errorf("product provider cannot be empty")
	}

	if strings.TrimSpace(p.Offering) == "" {
		return fmt.Errorf("product offering cannot be empty")
	}

	if !p.Status.IsValid() {
		return fmt.Errorf("invalid fedramp status: %s", p.Status)
	}

	return nil
}

// AIServiceAnalysis records the AI capability classification of a FedRAMP
// product's description: whether it mentions AI at all, generative AI, or
// large language models, with the supporting excerpt.
type AIServiceAnalysis struct {
	ProductID  string    `json:"product_id"`
	HasAI      bool      `json:"has_ai"`
	HasGenAI   bool      `json:"has_genai"`
	HasLLM     bool      `json:"has_llm"`
	Excerpt    string    `json:"excerpt,omitempty"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Validate checks if the AIServiceAnalysis has all required fields
func (a *AIServiceAnalysis) Validate() error {
	if strings.TrimSpace(a.ProductID) == "" {
		return fmt.Errorf("analysis product ID cannot be empty")
	}
	return nil
}

// AIProduct pairs a FedRAMP product with its AI classification flags. The
// deterministic matcher consumes these joined rows; only products with HasAI
// set ever enter a candidate set.
type AIProduct struct {
	FedRAMPProduct
	HasAI    bool   `json:"has_ai"`
	HasGenAI bool   `json:"has_genai"`
	HasLLM   bool   `json:"has_llm"`
	Excerpt  string `json:"excerpt,omitempty"`
}
