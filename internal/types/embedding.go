package types

import (
	"fmt"
	"strings"
	"time"
)

// Embedding represents a stored vector for one entity's text representation.
// At most one embedding exists per (EntityKind, EntityID); the backfill skips
// entities that already have one, which is what makes re-runs idempotent.
type Embedding struct {
	EntityKind EntityKind `json:"entity_kind"`
	EntityID   string     `json:"entity_id"`
	Model      string     `json:"model"`
	Dimensions int        `json:"dimensions"`
	Vector     []float64  `json:"vector"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Validate checks if the Embedding has all required fields and valid values
func (e *Embedding) Validate() error {
	if !e.EntityKind.IsValid() {
		return fmt.Errorf("invalid entity kind: %s", e.EntityKind)
	}

	if strings.TrimSpace(e.EntityID) == "" {
		return fmt.Errorf("embedding entity ID cannot be empty")
	}

	if strings.TrimSpace(e.Model) == "" {
		return fmt.Errorf("embedding model cannot be empty")
	}

	if len(e.Vector) == 0 {
		return fmt.Errorf("embedding vector cannot be empty")
	}

	if e.Dimensions != len(e.Vector) {
		return fmt.Errorf("dimensions %d does not match vector length %d", e.Dimensions, len(e.Vector))
	}

	return nil
}
