package types

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrgLevel represents the level of an organization in the federal hierarchy
type OrgLevel string

const (
	OrgLevelDepartment   OrgLevel = "department"
	OrgLevelAgency       OrgLevel = "agency"
	OrgLevelSubcomponent OrgLevel = "subcomponent"
	OrgLevelOffice       OrgLevel = "office"
)

// String returns the string representation of OrgLevel
func (l OrgLevel) String() string {
	return string(l)
}

// IsValid checks if the OrgLevel is a valid value
func (l OrgLevel) IsValid() bool {
	switch l {
	case OrgLevelDepartment, OrgLevelAgency, OrgLevelSubcomponent, OrgLevelOffice:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (l OrgLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(l))
}

// UnmarshalJSON implements json.Unmarshaler
func (l *OrgLevel) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	level := OrgLevel(str)
	if !level.IsValid() {
		return fmt.Errorf("invalid org level: %s", str)
	}

	*l = level
	return nil
}

// Organization represents a node in the federal organization hierarchy.
// ID is the identity assigned by the authoritative organization feed, not a
// fedlink-minted UUID. Depth and Path are materialized at load time from the
// parent chain: Depth is 0 for roots, and Path lists ancestor IDs root-first,
// ending with the organization's own ID.
type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation,omitempty"`
	Level        OrgLevel  `json:"level"`
	ParentID     string    `json:"parent_id,omitempty"`
	CFOAct       bool      `json:"cfo_act"`
	Cabinet      bool      `json:"cabinet"`
	Active       bool      `json:"active"`
	Depth        int       `json:"depth"`
	Path         []string  `json:"path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsRoot reports whether the organization has no parent.
func (o *Organization) IsRoot() bool {
	return o.ParentID == "" || o.ParentID == o.ID
}

// Validate checks if the Organization has all required fields and valid values
func (o *Organization) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return fmt.Errorf("organization ID cannot be empty")
	}

	if strings.TrimSpace(o.Name) == "" {
		return fmt.Errorf("organization name cannot be empty")
	}

	if !o.Level.IsValid() {
		return fmt.Errorf("invalid org level: %s", o.Level)
	}

	if o.Depth < 0 {
		return fmt.Errorf("depth cannot be negative")
	}

	return nil
}
