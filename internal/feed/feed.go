// Package feed loads the bulk source files - the federal organization
// chart, agency AI profiles, the FedRAMP marketplace export, AI service
// analyses, the federal AI use case inventory, and the AI incident dump -
// into the database. Loads are record-tolerant: a malformed record is
// skipped, counted, and reported in the result, and only an unreadable or
// unparseable file aborts a load. Malformed optional fields degrade to
// their zero value with a note instead of dropping the record.
package feed

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// LoadResult reports one feed load. Skipped counts whole records; dropped
// sub-records (an agency tool without a name) appear in Errors only.
type LoadResult struct {
	Feed    string   `json:"feed"`
	Read    int      `json:"read"`
	Loaded  int      `json:"loaded"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// skip counts a skipped record and keeps its reason.
func (r *LoadResult) skip(format string, args ...any) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// note records a non-fatal problem without skipping the record.
func (r *LoadResult) note(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Loader reads feed files and writes their records through the DAOs.
type Loader struct {
	orgs      *database.OrgDAO
	agencies  *database.AgencyDAO
	products  *database.ProductDAO
	useCases  *database.UseCaseDAO
	incidents *database.IncidentDAO
	logger    *slog.Logger
}

// LoaderOption is a functional option for configuring the Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger for feed loads.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLoader creates a Loader over the given database.
func NewLoader(db *database.DB, options ...LoaderOption) *Loader {
	l := &Loader{
		orgs:      database.NewOrgDAO(db),
		agencies:  database.NewAgencyDAO(db),
		products:  database.NewProductDAO(db),
		useCases:  database.NewUseCaseDAO(db),
		incidents: database.NewIncidentDAO(db),
		logger:    slog.Default(),
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

// readFeed reads a feed file into memory.
func readFeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.FEED_OPEN_FAILED,
			fmt.Sprintf("failed to read feed file %s", path), err)
	}
	return data, nil
}

// logResult emits the standard completion line for a load.
func (l *Loader) logResult(result *LoadResult, path string) {
	l.logger.Info("feed loaded",
		"feed", result.Feed,
		"path", path,
		"read", result.Read,
		"loaded", result.Loaded,
		"skipped", result.Skipped,
		"errors", len(result.Errors))
}
