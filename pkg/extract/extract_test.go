package extract

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/conceptatlas/backend/pkg/ai"
	"github.com/conceptatlas/backend/pkg/cache"
	"github.com/conceptatlas/backend/pkg/concept"
)

// fakeClient returns scripted responses and counts calls, so tests can assert
// that cache hits skip the LLM entirely.
type fakeClient struct {
	completions       []string
	structured        []string
	err               error
	completionCalls   int
	structuredCalls   int
	lastPrompt        string
	lastStructuredOut string
}

func (f *fakeClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	f.completionCalls++
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	if len(f.completions) == 0 {
		return "", errors.New("no scripted completion")
	}
	response := f.completions[0]
	f.completions = f.completions[1:]
	return response, nil
}

func (f *fakeClient) GenerateCompletionWithFormat(ctx context.Context, name, description, prompt string, out any, opts ...ai.GenerateOption) error {
	f.structuredCalls++
	f.lastPrompt = prompt
	f.lastStructuredOut = name
	if f.err != nil {
		return f.err
	}
	if len(f.structured) == 0 {
		return errors.New("no scripted structured response")
	}
	response := f.structured[0]
	f.structured = f.structured[1:]
	return json.Unmarshal([]byte(response), out)
}

func (f *fakeClient) ResetMetrics()               {}
func (f *fakeClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func newTestExtractor(client ai.ConceptAIClient) *Extractor {
	return NewExtractor(ExtractorParams{
		Client:          client,
		Cache:           cache.New("test", nil),
		ExtractionModel: "extract-model",
		ComparisonModel: "compare-model",
		MaxRetries:      1,
	})
}

func TestConceptsCachesResult(t *testing.T) {
	client := &fakeClient{completions: []string{
		`[{"entity": "Machine Learning", "context": "intro", "evidence": "core topic", "layer": "priority"}]`,
	}}
	e := newTestExtractor(client)
	ctx := context.Background()

	first, err := e.Concepts(ctx, "ML is a field of AI.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || first[0].Entity != "Machine Learning" {
		t.Fatalf("unexpected candidates: %+v", first)
	}

	second, err := e.Concepts(ctx, "ML is a field of AI.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 1 || second[0].Entity != first[0].Entity {
		t.Errorf("cached result differs: %+v", second)
	}
	if client.completionCalls != 1 {
		t.Errorf("expected 1 LLM call, got %d", client.completionCalls)
	}
}

func TestConceptsParseFailureIsEmptyAndUncached(t *testing.T) {
	client := &fakeClient{completions: []string{
		"this is not json at all {{{",
		`[{"entity": "entropy", "layer": "secondary"}]`,
	}}
	e := newTestExtractor(client)
	ctx := context.Background()

	first, err := e.Concepts(ctx, "Entropy measures disorder.")
	if err != nil {
		t.Fatalf("parse failure must not be an error: %v", err)
	}
	if len(first) != 0 {
		t.Errorf("expected empty candidates, got %+v", first)
	}

	// The failed response must not poison the cache; the next run retries.
	second, err := e.Concepts(ctx, "Entropy measures disorder.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 1 || second[0].Entity != "entropy" {
		t.Errorf("expected retried extraction, got %+v", second)
	}
	if client.completionCalls != 2 {
		t.Errorf("expected 2 LLM calls, got %d", client.completionCalls)
	}
}

func TestConceptsTransportErrorPropagates(t *testing.T) {
	client := &fakeClient{err: errors.New("connection refused")}
	e := newTestExtractor(client)

	if _, err := e.Concepts(context.Background(), "text"); err == nil {
		t.Error("expected a transport error")
	}
}

func relationScope(ids ...string) []*concept.Concept {
	scope := make([]*concept.Concept, 0, len(ids))
	for _, id := range ids {
		scope = append(scope, concept.NewConcept(id, concept.LayerSecondary))
	}
	return scope
}

func TestLocalRelationsCachesResult(t *testing.T) {
	client := &fakeClient{structured: []string{
		`{"relations": [{"source": "a", "relation_type": "uses", "target": "b", "evidence": "a uses b"}]}`,
	}}
	e := newTestExtractor(client)
	ctx := context.Background()
	scope := relationScope("a", "b")

	first, err := e.LocalRelations(ctx, scope, "a uses b in practice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || first[0].Type != "uses" {
		t.Fatalf("unexpected relations: %+v", first)
	}

	second, err := e.LocalRelations(ctx, scope, "a uses b in practice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != 1 {
		t.Errorf("cached result differs: %+v", second)
	}
	if client.structuredCalls != 1 {
		t.Errorf("expected 1 LLM call, got %d", client.structuredCalls)
	}
}

func TestLocalRelationsScopeOrderDoesNotBustCache(t *testing.T) {
	client := &fakeClient{structured: []string{
		`{"relations": []}`,
	}}
	e := newTestExtractor(client)
	ctx := context.Background()

	if _, err := e.LocalRelations(ctx, relationScope("a", "b"), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := e.LocalRelations(ctx, relationScope("b", "a"), "text"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.structuredCalls != 1 {
		t.Errorf("scope order changed the cache key: %d calls", client.structuredCalls)
	}
}

func TestLocalRelationsSkipsTinyScope(t *testing.T) {
	client := &fakeClient{}
	e := newTestExtractor(client)

	relations, err := e.LocalRelations(context.Background(), relationScope("only"), "text")
	if err != nil || relations != nil {
		t.Errorf("expected no call for a single-concept scope, got %v, %v", relations, err)
	}
	if client.structuredCalls != 0 {
		t.Errorf("expected 0 LLM calls, got %d", client.structuredCalls)
	}
}

func TestRelationsDropIncompleteEdges(t *testing.T) {
	client := &fakeClient{structured: []string{
		`{"relations": [
			{"source": "a", "relation_type": "uses", "target": "b"},
			{"source": "a", "relation_type": "", "target": "b"},
			{"source": "", "relation_type": "uses", "target": "b"}
		]}`,
	}}
	e := newTestExtractor(client)

	relations, err := e.GlobalRelations(context.Background(), relationScope("a", "b"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(relations) != 1 {
		t.Errorf("expected incomplete edges dropped, got %+v", relations)
	}
}

func TestResolveNoKnownConceptsSkipsLLM(t *testing.T) {
	client := &fakeClient{}
	e := newTestExtractor(client)

	matches, err := e.Resolve(context.Background(),
		[]concept.Candidate{{Entity: "new thing"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
	if client.completionCalls != 0 {
		t.Errorf("expected 0 LLM calls, got %d", client.completionCalls)
	}
}

func TestResolveCachesAndNormalizes(t *testing.T) {
	client := &fakeClient{completions: []string{
		`{"ML": "Machine Learning", "quantum": ""}`,
	}}
	e := newTestExtractor(client)
	ctx := context.Background()

	candidates := []concept.Candidate{{Entity: "ML"}, {Entity: "quantum"}}
	known := relationScope("machine learning")

	matches, err := e.Resolve(ctx, candidates, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if matches["ml"] != "machine learning" {
		t.Errorf("expected normalized match, got %v", matches)
	}
	if _, ok := matches["quantum"]; ok {
		t.Error("empty canonical must mean no match")
	}

	again, err := e.Resolve(ctx, candidates, known)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again["ml"] != "machine learning" {
		t.Errorf("cached result differs: %v", again)
	}
	if client.completionCalls != 1 {
		t.Errorf("expected 1 LLM call, got %d", client.completionCalls)
	}
}

func TestResolveParseFailureMeansAllNew(t *testing.T) {
	client := &fakeClient{completions: []string{"not json"}}
	e := newTestExtractor(client)

	matches, err := e.Resolve(context.Background(),
		[]concept.Candidate{{Entity: "x"}}, relationScope("y"))
	if err != nil {
		t.Fatalf("parse failure must not be an error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}
