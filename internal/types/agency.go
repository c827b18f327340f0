package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DeploymentStatus represents how far an agency has taken generative AI
// tooling into staff use: rolled out to all staff, limited to a pilot
// group, or not deployed at all.
type DeploymentStatus string

const (
	DeploymentStatusAllStaff     DeploymentStatus = "all_staff"
	DeploymentStatusPilotLimited DeploymentStatus = "pilot_limited"
	DeploymentStatusNone         DeploymentStatus = "none"
)

// String returns the string representation of DeploymentStatus
func (s DeploymentStatus) String() string {
	return string(s)
}

// IsValid checks if the DeploymentStatus is a valid value
func (s DeploymentStatus) IsValid() bool {
	switch s {
	case DeploymentStatusAllStaff, DeploymentStatusPilotLimited, DeploymentStatusNone:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s DeploymentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *DeploymentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := DeploymentStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid deployment status: %s", str)
	}

	*s = status
	return nil
}

// ToolType represents the category of an agency AI tool. NoneIdentified
// covers agencies whose profile names a tool without a recognizable
// category.
type ToolType string

const (
	ToolTypeStaffChatbot       ToolType = "staff_chatbot"
	ToolTypeCodingAssistant    ToolType = "coding_assistant"
	ToolTypeDocumentAutomation ToolType = "document_automation"
	ToolTypeNoneIdentified     ToolType = "none_identified"
)

// String returns the string representation of ToolType
func (t ToolType) String() string {
	return string(t)
}

// IsValid checks if the ToolType is a valid value
func (t ToolType) IsValid() bool {
	switch t {
	case ToolTypeStaffChatbot, ToolTypeCodingAssistant, ToolTypeDocumentAutomation,
		ToolTypeNoneIdentified:
		return true
	default:
		return false
	}
}

// ToolAvailability represents who inside the agency can reach a tool
type ToolAvailability string

const (
	AvailabilityAllStaff   ToolAvailability = "all_staff"
	AvailabilityLimited    ToolAvailability = "limited"
	AvailabilityPilotGroup ToolAvailability = "pilot_group"
	AvailabilityUnknown    ToolAvailability = "unknown"
)

// String returns the string representation of ToolAvailability
func (a ToolAvailability) String() string {
	return string(a)
}

// IsValid checks if the ToolAvailability is a valid value
func (a ToolAvailability) IsValid() bool {
	switch a {
	case AvailabilityAllStaff, AvailabilityLimited, AvailabilityPilotGroup, AvailabilityUnknown:
		return true
	default:
		return false
	}
}

// AgencyAiTool represents a single AI tool an agency has made available to
// its staff, with the source citation it was collected from.
type AgencyAiTool struct {
	ID           ID               `json:"id"`
	AgencyID     ID               `json:"agency_id"`
	Name         string           `json:"name"`
	Type         ToolType         `json:"type"`
	Availability ToolAvailability `json:"availability,omitempty"`
	Pilot        bool             `json:"pilot"`
	SourceText   string           `json:"source_text,omitempty"`
	SourceURL    string           `json:"source_url,omitempty"`
	AccessedDate *time.Time       `json:"accessed_date,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Validate checks if the AgencyAiTool has all required fields and valid values
func (t *AgencyAiTool) Validate() error {
	if err := t.ID.Validate(); err != nil {
		return fmt.Errorf("invalid tool ID: %w", err)
	}

	if err := t.AgencyID.Validate(); err != nil {
		return fmt.Errorf("invalid agency ID: %w", err)
	}

	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tool name cannot be empty")
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("invalid tool type: %s", t.Type)
	}

	if t.Availability != "" && !t.Availability.IsValid() {
		return fmt.Errorf("invalid tool availability: %s", t.Availability)
	}

	return nil
}

// AgencyProfile represents an agency's AI posture: identity, org placement
// hints, deployment status, and the tools collected for it. Slug is unique
// across profiles and derived from the agency name at load time. OrgID and
// ParentAbbreviation both come from independently sourced feeds and may
// reference organizations that do not exist; callers resolve them with a
// fallback, never assume they land.
type AgencyProfile struct {
	ID                 ID               `json:"id"`
	Name               string           `json:"name"`
	Slug               string           `json:"slug"`
	Abbreviation       string           `json:"abbreviation,omitempty"`
	DepartmentName     string           `json:"department_name,omitempty"`
	ParentAbbreviation string           `json:"parent_abbreviation,omitempty"`
	OrgID              string           `json:"org_id,omitempty"`
	DeploymentStatus   DeploymentStatus `json:"deployment_status"`
	Tools              []AgencyAiTool   `json:"tools,omitempty"`
	SourceURL          string           `json:"source_url,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// NewAgencyProfile creates an AgencyProfile with a fresh ID and default
// deployment status.
func NewAgencyProfile(name string) *AgencyProfile {
	now := time.Now()
	return &AgencyProfile{
		ID:               NewID(),
		Name:             name,
		DeploymentStatus: DeploymentStatusNone,
		Tools:            []AgencyAiTool{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate checks if the AgencyProfile has all required fields and valid values
func (p *AgencyProfile) Validate() error {
	if err := p.ID.Validate(); err != nil {
		return fmt.Errorf("invalid profile ID: %w", err)
	}

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name cannot be empty")
	}

	if strings.TrimSpace(p.Slug) == "" {
		return fmt.Errorf("profile slug cannot be empty")
	}

	if !p.DeploymentStatus.IsValid() {
		return fmt.Errorf("invalid deployment status: %s", p.DeploymentStatus)
	}

	for i := range p.Tools {
		if err := p.Tools[i].Validate(); err != nil {
			return fmt.Errorf("invalid tool %d: %w", i, err)
		}
	}

	return nil
}

// HasToolType reports whether any of the profile's tools has the given type.
func (p *AgencyProfile) HasToolType(toolType ToolType) bool {
	for i := range p.Tools {
		if p.Tools[i].Type == toolType {
			return true
		}
	}
	return false
}

// AgencyFilter represents query filters for retrieving agency profiles
type AgencyFilter struct {
	Status     *DeploymentStatus
	Department *string
	Limit      int
	Offset     int
}

// NewAgencyFilter creates a new AgencyFilter with default values
func NewAgencyFilter() *AgencyFilter {
	return &AgencyFilter{
		Limit:  100,
		Offset: 0,
	}
}

// WithStatus sets the DeploymentStatus filter
func (f *AgencyFilter) WithStatus(status DeploymentStatus) *AgencyFilter {
	f.Status = &status
	return f
}

// WithDepartment sets the department name filter
func (f *AgencyFilter) WithDepartment(department string) *AgencyFilter {
	f.Department = &department
	return f
}

// WithLimit sets the result limit
func (f *AgencyFilter) WithLimit(limit int) *AgencyFilter {
	f.Limit = limit
	return f
}

// WithOffset sets the result offset for pagination
func (f *AgencyFilter) WithOffset(offset int) *AgencyFilter {
	f.Offset = offset
	return f
}
