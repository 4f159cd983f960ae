// Package extract turns raw article text into concept candidates and typed
// relations. Every LLM call is cache-first: results are keyed by the input
// text (and concept scope for relations) so re-processing a document never
// repeats a completed call.
package extract

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/conceptatlas/backend/internal/util"
	"github.com/conceptatlas/backend/pkg/ai"
	"github.com/conceptatlas/backend/pkg/cache"
	"github.com/conceptatlas/backend/pkg/concept"
	"github.com/conceptatlas/backend/pkg/logger"
)

// GlobalScopeText is the pseudo-text under which document-level relation
// extractions are cached. The cache key for a global pass depends on the
// concept scope, not on any unit text.
const GlobalScopeText = "global"

// ExtractorParams configures an Extractor.
type ExtractorParams struct {
	Client          ai.ConceptAIClient
	Cache           *cache.Cache
	ExtractionModel string
	ComparisonModel string
	MaxRetries      int
}

// Extractor runs concept and relation extraction over an AI client with a
// two-tier cache in front. It is stateless between calls and safe to share
// across documents processed sequentially.
type Extractor struct {
	client          ai.ConceptAIClient
	cache           *cache.Cache
	extractionModel string
	comparisonModel string
	maxRetries      int
}

// NewExtractor creates an extractor. MaxRetries below 1 is coerced to 1.
func NewExtractor(params ExtractorParams) *Extractor {
	retries := params.MaxRetries
	if retries < 1 {
		retries = 1
	}
	return &Extractor{
		client:          params.Client,
		cache:           params.Cache,
		extractionModel: params.ExtractionModel,
		comparisonModel: params.ComparisonModel,
		maxRetries:      retries,
	}
}

// Concepts extracts candidate concepts from one unit of text. A cache hit
// returns the stored candidates without an LLM call. A response that cannot
// be parsed yields an empty candidate list and is not cached, so a later run
// can retry the unit.
func (e *Extractor) Concepts(ctx context.Context, text string) ([]concept.Candidate, error) {
	key := cache.EntityKey(text)
	if raw, ok := e.cache.Get(ctx, cache.DomainEntities, key); ok {
		var cached []concept.Candidate
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		e.cache.Evict(ctx, cache.DomainEntities, key)
	}

	response, err := util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) (string, error) {
		return e.client.GenerateCompletion(ctx,
			fmt.Sprintf(ai.ExtractConceptsPrompt, text),
			ai.WithModel(e.extractionModel),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("concept extraction: %w", err)
	}

	var candidates []concept.Candidate
	if err := ai.UnmarshalFlexible(response, &candidates); err != nil {
		logger.Warn("[Extract] Could not parse concept response, treating unit as empty", "err", err)
		return nil, nil
	}

	if raw, err := json.Marshal(candidates); err == nil {
		e.cache.Put(ctx, cache.DomainEntities, key, raw)
	}
	return candidates, nil
}

type relationsEnvelope struct {
	Relations []extractedRelation `json:"relations"`
}

type extractedRelation struct {
	Source   string `json:"source"`
	Type     string `json:"relation_type"`
	Target   string `json:"target"`
	Evidence string `json:"evidence"`
}

// LocalRelations extracts relations between the given concepts within one
// unit of text. The returned relations carry no section provenance; the
// caller attaches it.
func (e *Extractor) LocalRelations(ctx context.Context, scope []*concept.Concept, text string) ([]concept.Relation, error) {
	if len(scope) < 2 {
		return nil, nil
	}
	prompt := fmt.Sprintf(ai.LocalRelationsPrompt, scopeJSON(scope), text)
	return e.relations(ctx, "local_relations",
		"Relations between known concepts grounded in one passage of text.",
		prompt, scopeIDs(scope), text)
}

// GlobalRelations extracts document-level relations over the complete concept
// set, independent of any single unit.
func (e *Extractor) GlobalRelations(ctx context.Context, scope []*concept.Concept) ([]concept.Relation, error) {
	if len(scope) < 2 {
		return nil, nil
	}
	prompt := fmt.Sprintf(ai.GlobalRelationsPrompt, scopeJSON(scope))
	return e.relations(ctx, "global_relations",
		"Document-wide relations over the full concept set.",
		prompt, scopeIDs(scope), GlobalScopeText)
}

func (e *Extractor) relations(ctx context.Context, name, description, prompt string, conceptIDs []string, text string) ([]concept.Relation, error) {
	key := cache.RelationKey(conceptIDs, text)
	if raw, ok := e.cache.Get(ctx, cache.DomainRelations, key); ok {
		var cached []concept.Relation
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		e.cache.Evict(ctx, cache.DomainRelations, key)
	}

	envelope, err := util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) (relationsEnvelope, error) {
		var out relationsEnvelope
		err := e.client.GenerateCompletionWithFormat(ctx, name, description, prompt, &out,
			ai.WithModel(e.extractionModel))
		return out, err
	})
	if err != nil {
		return nil, fmt.Errorf("%s extraction: %w", name, err)
	}

	relations := make([]concept.Relation, 0, len(envelope.Relations))
	for _, r := range envelope.Relations {
		if r.Source == "" || r.Type == "" || r.Target == "" {
			logger.Warn("[Extract] Dropping incomplete relation", "source", r.Source, "type", r.Type, "target", r.Target)
			continue
		}
		relations = append(relations, concept.Relation{
			Source:     r.Source,
			Type:       r.Type,
			Target:     r.Target,
			Evidence:   r.Evidence,
			Confidence: 1.0,
		})
	}

	if raw, err := json.Marshal(relations); err == nil {
		e.cache.Put(ctx, cache.DomainRelations, key, raw)
	}
	return relations, nil
}

func scopeIDs(scope []*concept.Concept) []string {
	ids := make([]string, 0, len(scope))
	for _, c := range scope {
		ids = append(ids, c.ID)
	}
	return ids
}

func scopeJSON(scope []*concept.Concept) string {
	type entry struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants,omitempty"`
	}
	entries := make([]entry, 0, len(scope))
	for _, c := range scope {
		entries = append(entries, entry{ID: c.ID, Variants: c.Variants()})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
