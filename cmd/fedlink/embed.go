package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fedlink-ai/fedlink/cmd/fedlink/internal"
	"github.com/fedlink-ai/fedlink/internal/database"
	"github.com/fedlink-ai/fedlink/internal/semantic"
	"github.com/fedlink-ai/fedlink/internal/semantic/embedder"
	"github.com/fedlink-ai/fedlink/internal/types"
)

var (
	embedKind   string
	embedSource string
	embedTarget string
	embedTopK   int
	embedFloor  float64
	embedBatch  int
)

// backfillOrder is the fixed kind order for a full backfill run. Agencies
// never carry embeddings; only the three free-text pools do.
var backfillOrder = []types.EntityKind{
	types.EntityKindUseCase,
	types.EntityKindProduct,
	types.EntityKindIncident,
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Compute embeddings and semantic links",
}

var embedBackfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Compute embeddings for entities that do not have one yet",
	Long: `Compute and store an embedding vector for every loaded entity that
does not have one. Stored vectors are never regenerated, so a rerun
with no new entities writes nothing. Without --kind, all entity pools
are backfilled.`,
	RunE: runEmbedBackfill,
}

var embedLinkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link two entity pools by embedding similarity",
	Long: `Compute cosine similarity between the stored vectors of two entity
pools and keep the top-K targets per source at or above the similarity
floor. The pairing's prior semantic matches are replaced, so reruns
over unchanged pools produce the same links.

Run 'fedlink embed backfill' for both kinds first; linking uses only
stored vectors.`,
	RunE: runEmbedLink,
}

func init() {
	embedBackfillCmd.Flags().StringVar(&embedKind, "kind", "", "Backfill a single entity kind (default: all kinds)")
	embedBackfillCmd.Flags().IntVar(&embedBatch, "batch", 0, "Texts per provider request (default: from config)")
	_ = embedBackfillCmd.RegisterFlagCompletionFunc("kind", internal.CompleteEntityKinds)

	embedLinkCmd.Flags().StringVar(&embedSource, "source", "", "Source entity kind (required)")
	embedLinkCmd.Flags().StringVar(&embedTarget, "target", "", "Target entity kind (required)")
	embedLinkCmd.Flags().IntVar(&embedTopK, "top-k", 0, "Matches kept per source (default: from config)")
	embedLinkCmd.Flags().Float64Var(&embedFloor, "floor", 0, "Similarity floor in [-1,1] (default: from config)")
	_ = embedLinkCmd.MarkFlagRequired("source")
	_ = embedLinkCmd.MarkFlagRequired("target")
	_ = embedLinkCmd.RegisterFlagCompletionFunc("source", internal.CompleteEntityKinds)
	_ = embedLinkCmd.RegisterFlagCompletionFunc("target", internal.CompleteEntityKinds)

	embedCmd.AddCommand(embedBackfillCmd)
	embedCmd.AddCommand(embedLinkCmd)
}

// newPipeline builds the semantic pipeline from config plus any flag
// overrides set on the invoking command.
func newPipeline(cmd *cobra.Command, db *database.DB) (*semantic.Pipeline, error) {
	emb, err := embedder.New(appConfig.Embedder)
	if err != nil {
		return nil, err
	}

	topK := appConfig.Semantic.TopK
	if cmd.Flags().Changed("top-k") {
		topK = embedTopK
	}
	minScore := appConfig.Semantic.MinScore
	if cmd.Flags().Changed("floor") {
		minScore = embedFloor
	}
	batchSize := appConfig.Semantic.BatchSize
	if cmd.Flags().Changed("batch") {
		batchSize = embedBatch
	}

	return semantic.NewPipeline(db, emb,
		semantic.WithTopK(topK),
		semantic.WithMinScore(minScore),
		semantic.WithBatchSize(batchSize),
		semantic.WithMaxInputChars(appConfig.Semantic.MaxInputChars),
		semantic.WithLogger(slog.Default()),
	), nil
}

// embeddableKind parses a kind argument for the embed commands. Only the
// pools with embedding text qualify.
func embeddableKind(value string) (types.EntityKind, error) {
	kind := types.EntityKind(value)
	for _, k := range backfillOrder {
		if kind == k {
			return kind, nil
		}
	}
	return "", internal.NewCLIError(internal.ExitEmbedError,
		fmt.Sprintf("unknown embedding kind %q (usecase, product, incident)", value))
}

func runEmbedBackfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	kinds := backfillOrder
	if embedKind != "" {
		kind, err := embeddableKind(embedKind)
		if err != nil {
			return err
		}
		kinds = []types.EntityKind{kind}
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(cmd, db)
	if err != nil {
		return err
	}

	results := make([]*semantic.BackfillResult, 0, len(kinds))
	for _, kind := range kinds {
		result, err := pipeline.Backfill(ctx, kind)
		if err != nil {
			return err
		}
		results = append(results, result)
	}

	formatter := internal.NewFormatter(internal.OutputFormat(flags.GetOutputFormat()), cmd.OutOrStdout())
	if flags.GetOutputFormat() == FormatJSON {
		return formatter.PrintJSON(results)
	}

	headers := []string{"Kind", "Scanned", "Embedded", "Skipped", "Duration"}
	rows := make([][]string, 0, len(results))
	total := 0
	for _, r := range results {
		rows = append(rows, []string{
			string(r.Kind),
			strconv.Itoa(r.Scanned),
			strconv.Itoa(r.Embedded),
			strconv.Itoa(r.Skipped),
			r.Duration.Round(time.Millisecond).String(),
		})
		total += r.Embedded
	}
	if err := formatter.PrintTable(headers, rows); err != nil {
		return err
	}
	return formatter.PrintSuccess(fmt.Sprintf("%d embeddings stored", total))
}

func runEmbedLink(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	source, err := embeddableKind(embedSource)
	if err != nil {
		return err
	}
	target, err := embeddableKind(embedTarget)
	if err != nil {
		return err
	}

	db, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := newPipeline(cmd, db)
	if err != nil {
		return err
	}

	result, err := pipeline.Link(ctx, source, target)
	if err != nil {
		return err
	}

	formatter := internal.NewFormatter(internal.OutputFormat(flags.GetOutputFormat()), cmd.OutOrStdout())
	if flags.GetOutputFormat() == FormatJSON {
		return formatter.PrintJSON(result)
	}

	if err := formatter.PrintTable(
		[]string{"Method", "Sources", "Targets", "Matched", "Inserted", "Skipped", "Duration"},
		[][]string{{
			string(result.Method),
			strconv.Itoa(result.Sources),
			strconv.Itoa(result.Targets),
			strconv.Itoa(result.Matched),
			strconv.Itoa(result.Inserted),
			strconv.Itoa(result.Skipped),
			result.Duration.Round(time.Millisecond).String(),
		}},
	); err != nil {
		return err
	}
	return formatter.PrintSuccess(fmt.Sprintf("%d semantic links stored", result.Inserted))
}
