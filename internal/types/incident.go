package types

import (
	"fmt"
	"strings"
	"time"
)

// Incident represents an AI harm incident imported from an external incident
// database. ID is the external incident number, kept as-is so links back to
// the source stay stable across reloads.
type Incident struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	Developers    []string   `json:"developers,omitempty"`
	Deployers     []string   `json:"deployers,omitempty"`
	HarmedParties []string   `json:"harmed_parties,omitempty"`
	ReportCount   int        `json:"report_count"`
	SourceURL     string     `json:"source_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate checks if the Incident has all required fields
func (i *Incident) Validate() error {
	if i.ID <= 0 {
		return fmt.Errorf("incident ID must be positive")
	}

	if strings.TrimSpace(i.Title) == "" {
		return fmt.Errorf("incident title cannot be empty")
	}

	if i.ReportCount < 0 {
		return fmt.Errorf("report count cannot be negative")
	}

	return nil
}

// Entities returns the developer and deployer names of the incident as one
// slice, developers first. Matching rules that treat either role as a
// candidate entity iterate this.
func (i *Incident) Entities() []string {
	out := make([]string, 0, len(i.Developers)+len(i.Deployers))
	out = append(out, i.Developers...)
	out = append(out, i.Deployers...)
	return out
}
