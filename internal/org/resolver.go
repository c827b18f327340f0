package org

import (
	"log/slog"

	"github.com/fedlink-ai/fedlink/internal/normalize"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// ResolverOption configures a ProfileResolver.
type ResolverOption func(*ProfileResolver)

// WithResolverLogger sets the logger used for dangling-reference warnings.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *ProfileResolver) {
		r.logger = logger
	}
}

// ProfileResolver places agency profiles under their hierarchy roots by
// following ParentAbbreviation chains. It is built per batch from the full
// profile set and discarded with it; profile abbreviations are matched
// case-insensitively. A parent abbreviation that resolves to no profile makes
// the current profile its own root rather than failing the resolution.
type ProfileResolver struct {
	byAbbrev map[string]*types.AgencyProfile
	size     int
	logger   *slog.Logger
}

// NewProfileResolver indexes the given profiles by folded abbreviation.
// Profiles without an abbreviation are still resolvable as walk starting
// points, they just cannot be anyone's parent.
func NewProfileResolver(profiles []*types.AgencyProfile, opts ...ResolverOption) *ProfileResolver {
	r := &ProfileResolver{
		byAbbrev: make(map[string]*types.AgencyProfile, len(profiles)),
		size:     len(profiles),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, p := range profiles {
		key := normalize.Fold(p.Abbreviation)
		if key == "" {
			continue
		}
		if _, dup := r.byAbbrev[key]; dup {
			r.logger.Warn("duplicate agency abbreviation, keeping first", "abbreviation", p.Abbreviation)
			continue
		}
		r.byAbbrev[key] = p
	}

	return r
}

// Lookup returns the profile with the given abbreviation, if any.
func (r *ProfileResolver) Lookup(abbrev string) (*types.AgencyProfile, bool) {
	p, ok := r.byAbbrev[normalize.Fold(abbrev)]
	return p, ok
}

// RootOf walks ParentAbbreviation pointers up from the given profile until it
// reaches a profile with no parent. Dangling parent references fall back to
// the current profile as its own root. The walk is bounded by the profile
// count; exceeding it means the parent chain contains a cycle, which is
// logged, and the last profile reached is returned.
func (r *ProfileResolver) RootOf(p *types.AgencyProfile) *types.AgencyProfile {
	if p == nil {
		return nil
	}

	current := p
	for steps := 0; steps <= r.size; steps++ {
		parentKey := normalize.Fold(current.ParentAbbreviation)
		if parentKey == "" || parentKey == normalize.Fold(current.Abbreviation) {
			return current
		}

		parent, ok := r.byAbbrev[parentKey]
		if !ok {
			r.logger.Warn("parent agency not found, treating profile as its own root",
				"agency", current.Name, "parent_abbreviation", current.ParentAbbreviation)
			return current
		}
		current = parent
	}

	r.logger.Warn("agency parent walk exceeded profile count, parent chain contains a cycle",
		"agency", p.Name, "stopped_at", current.Name)
	return current
}

// DepartmentOf returns the department-level display name for a profile: its
// own DepartmentName when set, otherwise the root profile's DepartmentName,
// otherwise the root profile's name.
func (r *ProfileResolver) DepartmentOf(p *types.AgencyProfile) string {
	if p == nil {
		return ""
	}
	if p.DepartmentName != "" {
		return p.DepartmentName
	}

	root := r.RootOf(p)
	if root.DepartmentName != "" {
		return root.DepartmentName
	}
	return root.Name
}
