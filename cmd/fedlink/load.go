package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/cmd/fedlink/internal"
	"github.com/fedlink-ai/fedlink/internal/feed"
)

var loadFile string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load source feeds into the database",
	Long: `Load one of the public source feeds into the fedlink database.

Feeds are record-tolerant: malformed records are skipped and counted,
and the load reports every skip reason. Organization, agency, and use
case loads replace the prior snapshot; product, analysis, and incident
loads upsert on the feed's natural key.`,
}

var loadOrgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "Load the federal organization chart (JSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "organizations", func(ctx context.Context, l *feed.Loader, path string) (*feed.LoadResult, error) {
			return l.Organizations(ctx, path)
		})
	},
}

var loadAgenciesCmd = &cobra.Command{
	Use:   "agencies",
	Short: "Load agency AI profiles and their tools (JSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "agency profiles", func(ctx context.Context, l *feed.Loader, path string) (*feed.LoadResult, error) {
			return l.AgencyProfiles(ctx, path)
		})
	},
}

var loadProductsCmd = &cobra.Command{
	Use:   "products",
	Short: "Load the FedRAMP marketplace export (CSV)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "products", func(ctx context.Context, l *feed.Loader, path string) (*feed.LoadResult, error) {
			return l.Products(ctx, path)
		})
	},
}

var loadAnalysesCmd = &cobra.Command{
	Use:   "analyses",
	Short: "Load AI service analyses for loaded products (JSON)",
	Long: `Load AI service analyses. Each analysis references a FedRAMP product
by ID, so run 'fedlink load products' first; analyses for unknown
products are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "analyses", func(ctx context.Context, l *feed.Loader, path string) (*feed.LoadResult, error) {
			return l.Analyses(ctx, path)
		})
	},
}

var loadUseCasesCmd = &cobra.Command{
	Use:   "usecases",
	Short: "Load the federal AI use case inventory (CSV)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "use cases", func(ctx context.Context, l *feed.Loader, path string) (*feed.LoadResult, error) {
			return l.UseCases(ctx, path)
		})
	},
}

var loadIncidentsCmd = &cobra.Command{
	Use:   "incidents",
	Short: "Load AI incident reports (JSON)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, "incidents", func(ctx context.Context, l *feed.Loader, path string) (*feed.LoadResult, error) {
			return l.Incidents(ctx, path)
		})
	},
}

func init() {
	for _, sub := range []*cobra.Command{
		loadOrgsCmd,
		loadAgenciesCmd,
		loadProductsCmd,
		loadAnalysesCmd,
		loadUseCasesCmd,
		loadIncidentsCmd,
	} {
		sub.Flags().StringVarP(&loadFile, "file", "f", "", "Path to the feed file (required)")
		_ = sub.MarkFlagRequired("file")
		_ = sub.RegisterFlagCompletionFunc("file", internal.CompleteFeedFile)
		loadCmd.AddCommand(sub)
	}
}

// runLoad opens the database, runs one feed loader, and prints the result.
func runLoad(cmd *cobra.Command, what string, fn func(context.Context, *feed.Loader, string) (*feed.LoadResult, error)) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	loader := feed.NewLoader(db, feed.WithLogger(slog.Default()))

	result, err := fn(ctx, loader, loadFile)
	if err != nil {
		return err
	}

	formatter := internal.NewFormatter(internal.OutputFormat(flags.GetOutputFormat()), cmd.OutOrStdout())
	if flags.GetOutputFormat() == FormatJSON {
		return formatter.PrintJSON(result)
	}

	return displayLoadResult(cmd, formatter, what, result)
}

func displayLoadResult(cmd *cobra.Command, formatter internal.Formatter, what string, result *feed.LoadResult) error {
	msg := fmt.Sprintf("Loaded %d of %d %s", result.Loaded, result.Read, what)
	if result.Skipped > 0 {
		msg += fmt.Sprintf(" (%d skipped)", result.Skipped)
	}
	if err := formatter.PrintSuccess(msg); err != nil {
		return err
	}

	if len(result.Errors) > 0 {
		cmd.Println("\nProblems:")
		for _, e := range result.Errors {
			cmd.Printf("  - %s\n", e)
		}
	}

	return nil
}
