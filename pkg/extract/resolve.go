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

// Resolve matches candidate concepts against the already known ones and
// returns a map from candidate entity text to the canonical id it should
// merge into, both normalized. Candidates with no semantic equivalent are
// absent from the map. With no known concepts every candidate is new and no
// LLM call is made. A comparison response that cannot be parsed resolves to
// no matches and is not cached.
func (e *Extractor) Resolve(ctx context.Context, candidates []concept.Candidate, known []*concept.Concept) (map[string]string, error) {
	if len(candidates) == 0 || len(known) == 0 {
		return map[string]string{}, nil
	}

	candidateRefs := make([]cache.ConceptRef, 0, len(candidates))
	for _, c := range candidates {
		candidateRefs = append(candidateRefs, cache.ConceptRef{Entity: c.Entity})
	}
	knownRefs := make([]cache.ConceptRef, 0, len(known))
	for _, c := range known {
		knownRefs = append(knownRefs, cache.ConceptRef{Entity: c.ID, Variants: c.Variants()})
	}

	key := cache.ComparisonKey(knownRefs, candidateRefs)
	if raw, ok := e.cache.Get(ctx, cache.DomainComparisons, key); ok {
		var cached map[string]string
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
		e.cache.Evict(ctx, cache.DomainComparisons, key)
	}

	prompt := fmt.Sprintf(ai.CompareConceptsPrompt, refsJSON(knownRefs), refsJSON(candidateRefs))
	response, err := util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) (string, error) {
		return e.client.GenerateCompletion(ctx, prompt, ai.WithModel(e.comparisonModel))
	})
	if err != nil {
		return nil, fmt.Errorf("concept comparison: %w", err)
	}

	var rawMatches map[string]string
	if err := ai.UnmarshalFlexible(response, &rawMatches); err != nil {
		logger.Warn("[Resolve] Could not parse comparison response, treating all candidates as new", "err", err)
		return map[string]string{}, nil
	}

	matches := make(map[string]string, len(rawMatches))
	for candidate, canonical := range rawMatches {
		candidate = concept.NormalizeTerm(candidate)
		canonical = concept.NormalizeTerm(canonical)
		if candidate == "" || canonical == "" {
			continue
		}
		matches[candidate] = canonical
	}

	if raw, err := json.Marshal(matches); err == nil {
		e.cache.Put(ctx, cache.DomainComparisons, key, raw)
	}
	return matches, nil
}

func refsJSON(refs []cache.ConceptRef) string {
	raw, err := json.Marshal(refs)
	if err != nil {
		return "[]"
	}
	return string(raw)
}
