package semantic

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// LinkResult reports one semantic linking run between two entity pools.
type LinkResult struct {
	SourceKind types.EntityKind  `json:"source_kind"`
	TargetKind types.EntityKind  `json:"target_kind"`
	Method     types.MatchMethod `json:"method"`
	Sources    int               `json:"sources"`
	Targets    int               `json:"targets"`
	Matched    int               `json:"matched"`
	Inserted   int               `json:"inserted"`
	Skipped    int               `json:"skipped"`
	Duration   time.Duration     `json:"duration"`
}

// scored is one candidate target during top-K selection.
type scored struct {
	id    string
	score float64
}

// Link computes cosine similarity between every stored source vector and
// every stored target vector, keeps the top-K targets per source at or above
// the similarity floor, and replaces the pairing's prior semantic matches
// with the result. Ties are broken by score descending then target ID
// ascending, so reruns over unchanged pools produce the same links.
func (p *Pipeline) Link(ctx context.Context, source, target types.EntityKind) (*LinkResult, error) {
	ctx, span := p.tracer.Start(ctx, "semantic.link")
	defer span.End()
	span.SetAttributes(
		attribute.String("source_kind", source.String()),
		attribute.String("target_kind", target.String()),
	)

	start := time.Now()
	method := types.SemanticMethod(source, target)

	sources, err := p.embeddings.ListByKind(ctx, source)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load source embeddings", err)
	}
	targets, err := p.embeddings.ListByKind(ctx, target)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load target embeddings", err)
	}

	if len(sources) == 0 {
		return nil, types.NewError(types.MATCH_EMPTY_CORPUS,
			fmt.Sprintf("no stored embeddings for kind %s - run the backfill first", source))
	}
	if len(targets) == 0 {
		return nil, types.NewError(types.MATCH_EMPTY_CORPUS,
			fmt.Sprintf("no stored embeddings for kind %s - run the backfill first", target))
	}

	if sources[0].Dimensions != targets[0].Dimensions {
		return nil, types.NewError(types.EMBED_DIMENSION_MISMATCH,
			fmt.Sprintf("source vectors have %d dimensions but target vectors have %d - the pools were embedded with different models",
				sources[0].Dimensions, targets[0].Dimensions))
	}

	result := &LinkResult{
		SourceKind: source,
		TargetKind: target,
		Method:     method,
		Sources:    len(sources),
		Targets:    len(targets),
	}

	var links []*types.Match
	for _, src := range sources {
		var kept []scored
		for _, tgt := range targets {
			// Same-kind pools never link an entity to itself
			if source == target && src.EntityID == tgt.EntityID {
				continue
			}
			score := cosineSimilarity(src.Vector, tgt.Vector)
			if score >= p.minScore {
				kept = append(kept, scored{id: tgt.EntityID, score: score})
			}
		}

		sort.SliceStable(kept, func(i, j int) bool {
			if kept[i].score != kept[j].score {
				return kept[i].score > kept[j].score
			}
			return kept[i].id < kept[j].id
		})
		if len(kept) > p.topK {
			kept = kept[:p.topK]
		}

		for _, s := range kept {
			links = append(links, types.NewSemanticMatch(source, src.EntityID, target, s.id, s.score))
		}
	}
	result.Matched = len(links)

	if _, err := p.matches.DeleteByMethod(ctx, method); err != nil {
		return nil, types.WrapError(types.MATCH_STORE_FAILED, "failed to clear prior semantic matches", err)
	}

	inserted, skipped, err := p.matches.InsertMany(ctx, links)
	result.Inserted = inserted
	result.Skipped = skipped
	if err != nil {
		result.Duration = time.Since(start)
		return result, types.WrapError(types.MATCH_STORE_FAILED, "failed to insert semantic matches", err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("semantic link complete",
		"method", method.String(),
		"sources", result.Sources,
		"targets", result.Targets,
		"matched", result.Matched,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"duration", result.Duration)

	return result, nil
}
