package internal

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/types"
)

// CompletionFunc is a Cobra ValidArgsFunction that returns completion suggestions
type CompletionFunc func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective)

// CompletionContext holds an optional database handle for completions that
// suggest live data. A missing or unreadable database yields no suggestions
// rather than an error, so completions stay usable before `fedlink init`.
type CompletionContext struct {
	DB *database.DB
}

// NewCompletionContext opens the fedlink database if one exists.
func NewCompletionContext() *CompletionContext {
	cctx := &CompletionContext{}

	homeDir := os.Getenv("FEDLINK_HOME")
	if homeDir == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return cctx
		}
		homeDir = filepath.Join(userHome, ".fedlink")
	}

	dbPath := filepath.Join(homeDir, "fedlink.db")
	if _, err := os.Stat(dbPath); err != nil {
		return cctx
	}
	if db, err := database.Open(dbPath); err == nil {
		cctx.DB = db
	}

	return cctx
}

// Close closes any open resources in the completion context
func (c *CompletionContext) Close() {
	if c.DB != nil {
		_ = c.DB.Close()
	}
}

// CompleteEntityKinds returns completion suggestions for embedding entity
// kinds. Agencies carry no embeddings, so they are not offered.
func CompleteEntityKinds(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	kinds := []string{
		string(types.EntityKindUseCase),
		string(types.EntityKindProduct),
		string(types.EntityKindIncident),
	}
	return kinds, cobra.ShellCompDirectiveNoFileComp
}

// CompleteMatchMethods returns completion suggestions for deterministic match methods
func CompleteMatchMethods(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	methods := []string{
		string(types.MatchMethodUseCaseFedRAMP),
		string(types.MatchMethodAgencyFedRAMP),
		string(types.MatchMethodIncidentProduct),
		string(types.MatchMethodIncidentUseCase),
	}
	return methods, cobra.ShellCompDirectiveNoFileComp
}

// CompleteAgencyAbbrevs returns completion suggestions for loaded agency abbreviations
func CompleteAgencyAbbrevs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cctx := NewCompletionContext()
	defer cctx.Close()

	if cctx.DB == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	profiles, err := database.NewAgencyDAO(cctx.DB).ListAll(context.Background())
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	abbrevs := make([]string, 0, len(profiles))
	for _, p := range profiles {
		if p.Abbreviation != "" {
			abbrevs = append(abbrevs, p.Abbreviation)
		}
	}

	return abbrevs, cobra.ShellCompDirectiveNoFileComp
}

// CompleteOrgIDs returns completion suggestions for loaded organization IDs
func CompleteOrgIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cctx := NewCompletionContext()
	defer cctx.Close()

	if cctx.DB == nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	orgs, err := database.NewOrgDAO(cctx.DB).List(context.Background())
	if err != nil {
		return []string{}, cobra.ShellCompDirectiveNoFileComp
	}

	ids := make([]string, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.ID)
	}

	return ids, cobra.ShellCompDirectiveNoFileComp
}

// CompleteOutputFormat returns completion suggestions for output format values
func CompleteOutputFormat(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{string(FormatText), string(FormatJSON)}, cobra.ShellCompDirectiveNoFileComp
}

// CompleteFeedFile returns completion for feed files in the current directory
func CompleteFeedFile(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{"json", "csv"}, cobra.ShellCompDirectiveFilterFileExt
}

// NoCompletion returns no completion suggestions
func NoCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return []string{}, cobra.ShellCompDirectiveNoFileComp
}
