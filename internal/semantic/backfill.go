package semantic

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/fedlink-ai/fedlink/internal/types"
)

// BackfillResult reports one backfill run over a single entity kind.
type BackfillResult struct {
	Kind     types.EntityKind `json:"kind"`
	Scanned  int              `json:"scanned"`
	Embedded int              `json:"embedded"`
	Skipped  int              `json:"skipped"`
	Duration time.Duration    `json:"duration"`
}

// textCandidate pairs an entity ID with its embedding text.
type textCandidate struct {
	id   string
	text string
}

// Backfill computes and stores embeddings for every entity of the kind that
// does not have one yet. Entities with stored vectors are never regenerated,
// so a rerun with no new entities writes nothing. Entities whose text is
// empty are skipped and counted. A provider failure aborts the run; batches
// committed before the failure stay.
func (p *Pipeline) Backfill(ctx context.Context, kind types.EntityKind) (*BackfillResult, error) {
	ctx, span := p.tracer.Start(ctx, "semantic.backfill")
	defer span.End()
	span.SetAttributes(attribute.String("entity_kind", kind.String()))

	start := time.Now()

	candidates, err := p.candidates(ctx, kind)
	if err != nil {
		return nil, err
	}

	result := &BackfillResult{Kind: kind, Scanned: len(candidates)}

	ids := make([]string, len(candidates))
	textByID := make(map[string]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
		textByID[c.id] = c.text
	}

	missing, err := p.embeddings.MissingIDs(ctx, kind, ids)
	if err != nil {
		return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to find unembedded entities", err)
	}
	result.Skipped = len(candidates) - len(missing)

	var pending []textCandidate
	for _, id := range missing {
		text := textByID[id]
		if text == "" {
			result.Skipped++
			p.logger.Debug("skipping entity with empty text", "kind", kind.String(), "id", id)
			continue
		}
		pending = append(pending, textCandidate{id: id, text: text})
	}

	for len(pending) > 0 {
		n := p.batchSize
		if n > len(pending) {
			n = len(pending)
		}
		batch := pending[:n]
		pending = pending[n:]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.text
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			result.Duration = time.Since(start)
			return result, types.WrapError(types.EMBED_PROVIDER_FAILED,
				fmt.Sprintf("embedding batch failed after %d entities stored", result.Embedded), err)
		}
		if len(vectors) != len(texts) {
			result.Duration = time.Since(start)
			return result, types.NewError(types.EMBED_PROVIDER_FAILED,
				fmt.Sprintf("provider returned %d vectors for %d texts", len(vectors), len(texts)))
		}

		for i, vector := range vectors {
			if len(vector) == 0 {
				result.Duration = time.Since(start)
				return result, types.NewError(types.EMBED_PROVIDER_FAILED,
					fmt.Sprintf("provider returned empty vector for %s %s", kind.String(), batch[i].id))
			}

			e := &types.Embedding{
				EntityKind: kind,
				EntityID:   batch[i].id,
				Model:      p.embedder.Model(),
				Dimensions: len(vector),
				Vector:     vector,
			}
			if err := p.embeddings.Upsert(ctx, e); err != nil {
				result.Duration = time.Since(start)
				return result, types.WrapError(types.DB_QUERY_FAILED,
					fmt.Sprintf("failed to store embedding for %s %s", kind.String(), batch[i].id), err)
			}
			result.Embedded++
		}
	}

	result.Duration = time.Since(start)
	p.logger.Info("embedding backfill complete",
		"kind", kind.String(),
		"scanned", result.Scanned,
		"embedded", result.Embedded,
		"skipped", result.Skipped,
		"duration", result.Duration)

	return result, nil
}

// candidates loads the entity pool for the kind as (id, text) pairs. The
// product pool is restricted to AI-flagged products, matching the
// deterministic matcher's target scope.
func (p *Pipeline) candidates(ctx context.Context, kind types.EntityKind) ([]textCandidate, error) {
	switch kind {
	case types.EntityKindUseCase:
		ucs, err := p.useCases.List(ctx)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load use cases", err)
		}
		out := make([]textCandidate, 0, len(ucs))
		for _, uc := range ucs {
			out = append(out, textCandidate{id: uc.ID.String(), text: truncate(useCaseText(uc), p.maxInputChars)})
		}
		return out, nil

	case types.EntityKindProduct:
		products, err := p.products.ListAIFlagged(ctx)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load AI products", err)
		}
		out := make([]textCandidate, 0, len(products))
		for _, prod := range products {
			out = append(out, textCandidate{id: prod.ID, text: truncate(productText(prod), p.maxInputChars)})
		}
		return out, nil

	case types.EntityKindIncident:
		incidents, err := p.incidents.List(ctx)
		if err != nil {
			return nil, types.WrapError(types.DB_QUERY_FAILED, "failed to load incidents", err)
		}
		out := make([]textCandidate, 0, len(incidents))
		for _, inc := range incidents {
			out = append(out, textCandidate{id: types.IncidentKey(inc.ID), text: truncate(incidentText(inc), p.maxInputChars)})
		}
		return out, nil

	default:
		return nil, types.NewError(types.MATCH_UNKNOWN_KIND,
			fmt.Sprintf("no embedding text defined for kind %s", kind))
	}
}
