package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EntityKind identifies which entity pool a match endpoint or embedding
// belongs to.
type EntityKind string

const (
	EntityKindUseCase  EntityKind = "usecase"
	EntityKindProduct  EntityKind = "product"
	EntityKindIncident EntityKind = "incident"
	EntityKindAgency   EntityKind = "agency"
)

// String returns the string representation of EntityKind
func (k EntityKind) String() string {
	return string(k)
}

// IsValid checks if the EntityKind is a valid value
func (k EntityKind) IsValid() bool {
	switch k {
	case EntityKindUseCase, EntityKindProduct, EntityKindIncident, EntityKindAgency:
		return true
	default:
		return false
	}
}

// MatchMethod identifies which pipeline produced a match. Deterministic
// methods have fixed names; semantic methods encode the directed kind pair
// so each pairing can be cleared and rebuilt independently.
type MatchMethod string

const (
	MatchMethodUseCaseFedRAMP  MatchMethod = "usecase_fedramp"
	MatchMethodAgencyFedRAMP   MatchMethod = "agency_fedramp"
	MatchMethodIncidentProduct MatchMethod = "incident_product"
	MatchMethodIncidentUseCase MatchMethod = "incident_usecase"
)

// SemanticMethod returns the match method for an embedding-derived link
// between the given source and target kinds, e.g. "semantic_incident_usecase".
func SemanticMethod(source, target EntityKind) MatchMethod {
	return MatchMethod("semantic_" + string(source) + "_" + string(target))
}

// String returns the string representation of MatchMethod
func (m MatchMethod) String() string {
	return string(m)
}

// IsSemantic reports whether the method names an embedding-derived pairing.
func (m MatchMethod) IsSemantic() bool {
	return strings.HasPrefix(string(m), "semantic_")
}

// Confidence represents the tier assigned to a match
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// String returns the string representation of Confidence
func (c Confidence) String() string {
	return string(c)
}

// IsValid checks if the Confidence is a valid value
func (c Confidence) IsValid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	default:
		return false
	}
}

// Rank returns a sort key for confidence tiers, high first.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 0
	case ConfidenceMedium:
		return 1
	case ConfidenceLow:
		return 2
	default:
		return 3
	}
}

// MarshalJSON implements json.Marshaler
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(c))
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	conf := Confidence(str)
	if !conf.IsValid() {
		return fmt.Errorf("invalid confidence: %s", str)
	}

	*c = conf
	return nil
}

// ConfidenceForScore maps a cosine similarity score to a confidence tier for
// embedding-derived matches: 0.75 and above is high, 0.60 and above is
// medium, everything else low.
func ConfidenceForScore(score float64) Confidence {
	switch {
	case score >= 0.75:
		return ConfidenceHigh
	case score >= 0.60:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Match represents a directed link between two entities discovered by either
// the deterministic rule matcher or the semantic linker. Source and target
// IDs are stored as strings because endpoints mix fedlink-minted UUIDs
// (use cases, agency profiles) with external identifiers (products,
// incident numbers). Score is set only for embedding-derived matches.
type Match struct {
	ID         ID          `json:"id"`
	Method     MatchMethod `json:"method"`
	SourceKind EntityKind  `json:"source_kind"`
	SourceID   string      `json:"source_id"`
	TargetKind EntityKind  `json:"target_kind"`
	TargetID   string      `json:"target_id"`
	Confidence Confidence  `json:"confidence"`
	Reason     string      `json:"reason,omitempty"`
	Score      *float64    `json:"score,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewMatch creates a deterministic Match with a fresh ID.
func NewMatch(method MatchMethod, sourceKind EntityKind, sourceID string, targetKind EntityKind, targetID string, confidence Confidence, reason string) *Match {
	return &Match{
		ID:         NewID(),
		Method:     method,
		SourceKind: sourceKind,
		SourceID:   sourceID,
		TargetKind: targetKind,
		TargetID:   targetID,
		Confidence: confidence,
		Reason:     reason,
		CreatedAt:  time.Now(),
	}
}

// NewSemanticMatch creates an embedding-derived Match with a fresh ID. The
// confidence tier is derived from the similarity score and the reason is
// left empty.
func NewSemanticMatch(sourceKind EntityKind, sourceID string, targetKind EntityKind, targetID string, score float64) *Match {
	s := score
	return &Match{
		ID:         NewID(),
		Method:     SemanticMethod(sourceKind, targetKind),
		SourceKind: sourceKind,
		SourceID:   sourceID,
		TargetKind: targetKind,
		TargetID:   targetID,
		Confidence: ConfidenceForScore(score),
		Score:      &s,
		CreatedAt:  time.Now(),
	}
}

// Validate checks if the Match has all required fields and valid values
func (m *Match) Validate() error {
	if err := m.ID.Validate(); err != nil {
		return fmt.Errorf("invalid match ID: %w", err)
	}

	if strings.TrimSpace(string(m.Method)) == "" {
		return fmt.Errorf("match method cannot be empty")
	}

	if !m.SourceKind.IsValid() {
		return fmt.Errorf("invalid source kind: %s", m.SourceKind)
	}

	if strings.TrimSpace(m.SourceID) == "" {
		return fmt.Errorf("match source ID cannot be empty")
	}

	if !m.TargetKind.IsValid() {
		return fmt.Errorf("invalid target kind: %s", m.TargetKind)
	}

	if strings.TrimSpace(m.TargetID) == "" {
		return fmt.Errorf("match target ID cannot be empty")
	}

	if !m.Confidence.IsValid() {
		return fmt.Errorf("invalid confidence: %s", m.Confidence)
	}

	if m.Score != nil && (*m.Score < -1 || *m.Score > 1) {
		return fmt.Errorf("score out of range: %f", *m.Score)
	}

	return nil
}

// Key returns the natural uniqueness key of the match, used to detect
// duplicates within a run before they reach the database constraint.
func (m *Match) Key() string {
	return string(m.Method) + "|" + m.SourceID + "|" + m.TargetID
}

// IncidentKey converts an external incident number to the string form used
// in match and embedding rows.
func IncidentKey(incidentID int) string {
	return strconv.Itoa(incidentID)
}
