package main

import (
	"log/slog"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/cmd/fedlink/internal"
	"github.com/fedlink-ai/fedlink/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the loaded corpus and its matches",
	Long: `Recompute summary statistics over everything loaded: entity counts,
organization levels, agency deployment posture, AI flags on products
and use cases, and match counts by method and confidence. Numbers are
recomputed from the database on every run.`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
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

	reporter := stats.NewReporter(db, stats.WithLogger(slog.Default()))
	overview, err := reporter.Overview(ctx)
	if err != nil {
		return err
	}

	formatter := internal.NewFormatter(internal.OutputFormat(flags.GetOutputFormat()), cmd.OutOrStdout())
	if flags.GetOutputFormat() == FormatJSON {
		return formatter.PrintJSON(overview)
	}

	return displayOverview(cmd, formatter, overview)
}

func displayOverview(cmd *cobra.Command, formatter internal.Formatter, o *stats.Overview) error {
	totalMatches := 0
	for _, m := range o.Matches {
		totalMatches += m.Count
	}

	cmd.Println("Corpus:")
	if err := formatter.PrintTable(
		[]string{"Entity", "Count"},
		[][]string{
			{"organizations", strconv.Itoa(o.Organizations.Total)},
			{"agencies", strconv.Itoa(o.Agencies.Total)},
			{"agency tools", strconv.Itoa(o.Agencies.Tools.Total)},
			{"products", strconv.Itoa(o.Products.Total)},
			{"use cases", strconv.Itoa(o.UseCases.Total)},
			{"incidents", strconv.Itoa(o.Incidents.Total)},
			{"matches", strconv.Itoa(totalMatches)},
		},
	); err != nil {
		return err
	}

	if o.Organizations.Total > 0 {
		cmd.Printf("\nOrganizations (%d roots):\n", o.Organizations.Roots)
		if err := formatter.PrintTable(
			[]string{"Level", "Count"},
			sortedCountRows(o.Organizations.ByLevel),
		); err != nil {
			return err
		}
	}

	if o.Agencies.Total > 0 {
		cmd.Println("\nAgency deployment status:")
		if err := formatter.PrintTable(
			[]string{"Status", "Count"},
			sortedCountRows(o.Agencies.ByDeploymentStatus),
		); err != nil {
			return err
		}

		if o.Agencies.Tools.Total > 0 {
			cmd.Println("\nAgency tools by type:")
			if err := formatter.PrintTable(
				[]string{"Type", "Count"},
				sortedCountRows(o.Agencies.Tools.ByType),
			); err != nil {
				return err
			}

			cmd.Println("\nAgency tools by department:")
			if err := formatter.PrintTable(
				[]string{"Department", "Count"},
				countRowsByVolume(o.Agencies.Tools.ByDepartment),
			); err != nil {
				return err
			}
		}
	}

	if o.Products.Total > 0 {
		cmd.Println("\nFedRAMP products:")
		if err := formatter.PrintTable(
			[]string{"Slice", "Count"},
			[][]string{
				{"analyzed", strconv.Itoa(o.Products.Analyzed)},
				{"AI-flagged", strconv.Itoa(o.Products.AIFlagged)},
				{"generative AI", strconv.Itoa(o.Products.GenAI)},
				{"LLM-based", strconv.Itoa(o.Products.LLM)},
			},
		); err != nil {
			return err
		}
	}

	if o.UseCases.Total > 0 {
		cmd.Println("\nUse cases:")
		if err := formatter.PrintTable(
			[]string{"Slice", "Count"},
			[][]string{
				{"generative AI", strconv.Itoa(o.UseCases.GenAI)},
				{"LLM-based", strconv.Itoa(o.UseCases.LLM)},
				{"linkable", strconv.Itoa(o.UseCases.Linkable)},
			},
		); err != nil {
			return err
		}

		if len(o.UseCases.LLMByAgency) > 0 {
			cmd.Println("\nLLM use cases by agency:")
			if err := formatter.PrintTable(
				[]string{"Agency", "Count"},
				countRowsByVolume(o.UseCases.LLMByAgency),
			); err != nil {
				return err
			}
		}
	}

	if len(o.Matches) > 0 {
		cmd.Println("\nMatches:")
		rows := make([][]string, 0, len(o.Matches))
		for _, m := range o.Matches {
			rows = append(rows, []string{string(m.Method), string(m.Confidence), strconv.Itoa(m.Count)})
		}
		if err := formatter.PrintTable([]string{"Method", "Confidence", "Count"}, rows); err != nil {
			return err
		}
	}

	cmd.Printf("\nGenerated at %s\n", o.GeneratedAt.Format("2006-01-02 15:04:05"))
	return nil
}

// sortedCountRows renders a count map as table rows sorted by key.
func sortedCountRows[K ~string](m map[K]int) [][]string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, []string{k, strconv.Itoa(m[K(k)])})
	}
	return rows
}

// countRowsByVolume renders a count map as table rows sorted by descending
// count, then key, so the biggest buckets lead.
func countRowsByVolume(m map[string]int) [][]string {
	type kv struct {
		key   string
		count int
	}
	pairs := make([]kv, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, kv{k, v})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].key < pairs[j].key
	})

	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p.key, strconv.Itoa(p.count)})
	}
	return rows
}
