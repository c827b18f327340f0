package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/cmd/fedlink/internal"
	"github.com/fedlink-ai/fedlink/internal/match"
	"github.com/fedlink-ai/fedlink/internal/types"
)

var (
	matchMethod   string
	matchParallel int
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Run deterministic match passes",
}

var matchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run deterministic match passes over the loaded data",
	Long: `Run the deterministic rule passes. Each pass clears its own method's
prior matches and recomputes them, so reruns over unchanged data
converge to the same match set.

Without --method, every pass runs in a fixed order:

  usecase_fedramp   use cases against FedRAMP products
  agency_fedramp    agency AI tools against FedRAMP products
  incident_product  incidents against FedRAMP products
  incident_usecase  incidents against use cases`,
	RunE: runMatch,
}

func init() {
	matchRunCmd.Flags().StringVar(&matchMethod, "method", "", "Run a single pass (default: all passes)")
	matchRunCmd.Flags().IntVar(&matchParallel, "parallel", 0, "Concurrent source evaluations (default: from config)")
	_ = matchRunCmd.RegisterFlagCompletionFunc("method", internal.CompleteMatchMethods)

	matchCmd.AddCommand(matchRunCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
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

	parallelism := appConfig.Match.Parallelism
	if matchParallel > 0 {
		parallelism = matchParallel
	}

	matcher := match.NewMatcher(db,
		match.WithParallelism(parallelism),
		match.WithLogger(slog.Default()),
	)

	var results []*match.RunResult
	switch types.MatchMethod(matchMethod) {
	case "":
		results, err = matcher.RunAll(ctx)
	case types.MatchMethodUseCaseFedRAMP:
		results, err = singleRun(matcher.RunUseCaseProducts(ctx))
	case types.MatchMethodAgencyFedRAMP:
		results, err = singleRun(matcher.RunAgencyProducts(ctx))
	case types.MatchMethodIncidentProduct:
		results, err = singleRun(matcher.RunIncidentProducts(ctx))
	case types.MatchMethodIncidentUseCase:
		results, err = singleRun(matcher.RunIncidentUseCases(ctx))
	default:
		return internal.NewCLIError(internal.ExitMatchError,
			fmt.Sprintf("unknown match method %q (see 'fedlink match run --help')", matchMethod))
	}
	if err != nil {
		return err
	}

	formatter := internal.NewFormatter(internal.OutputFormat(flags.GetOutputFormat()), cmd.OutOrStdout())
	if flags.GetOutputFormat() == FormatJSON {
		return formatter.PrintJSON(results)
	}

	return displayMatchResults(formatter, results)
}

// singleRun lifts one pass result into the slice shape RunAll returns.
func singleRun(result *match.RunResult, err error) ([]*match.RunResult, error) {
	if err != nil {
		return nil, err
	}
	return []*match.RunResult{result}, nil
}

func displayMatchResults(formatter internal.Formatter, results []*match.RunResult) error {
	headers := []string{"Method", "Sources", "Candidates", "Matched", "Inserted", "Skipped", "Duration"}
	rows := make([][]string, 0, len(results))
	total := 0
	for _, r := range results {
		rows = append(rows, []string{
			string(r.Method),
			strconv.Itoa(r.Sources),
			strconv.Itoa(r.Candidates),
			strconv.Itoa(r.Matched),
			strconv.Itoa(r.Inserted),
			strconv.Itoa(r.Skipped),
			r.Duration.Round(time.Millisecond).String(),
		})
		total += r.Inserted
	}

	if err := formatter.PrintTable(headers, rows); err != nil {
		return err
	}
	return formatter.PrintSuccess(fmt.Sprintf("%d matches stored", total))
}
