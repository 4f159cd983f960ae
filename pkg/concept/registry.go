package concept

import (
	"sort"

	"github.com/conceptatlas/backend/pkg/logger"
)

// Candidate is a raw concept proposal coming out of an extraction pass,
// before resolution against the registry.
type Candidate struct {
	Entity   string `json:"entity"`
	Context  string `json:"context"`
	Evidence string `json:"evidence"`
	Layer    string `json:"layer"`
}

// Registry owns the canonical concept set for one document. Lookups are
// case-insensitive and concepts are kept in first-insertion order.
type Registry struct {
	concepts map[string]*Concept
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		concepts: make(map[string]*Concept),
	}
}

// Lookup finds a concept by term, case-insensitively.
func (r *Registry) Lookup(term string) (*Concept, bool) {
	c, ok := r.concepts[NormalizeTerm(term)]
	return c, ok
}

// Len returns the number of canonical concepts.
func (r *Registry) Len() int {
	return len(r.concepts)
}

// Upsert folds a candidate into the registry. When canonical names an
// existing concept the candidate merges into it as a variant sighting;
// otherwise the candidate becomes a new concept under its own normalized
// entity text. Candidates without entity text are dropped.
func (r *Registry) Upsert(candidate Candidate, canonical string, app Appearance) {
	entity := NormalizeTerm(candidate.Entity)
	if entity == "" {
		logger.Warn("[Registry] Dropping candidate without entity text", "section", app.Section)
		return
	}

	id := entity
	if canonical != "" {
		id = NormalizeTerm(canonical)
	}

	target, ok := r.concepts[id]
	if !ok {
		// A resolver match that points at an unknown concept still creates
		// it, so stale matches never lose a sighting.
		target = NewConcept(id, ParseLayer(candidate.Layer))
		target.Evidence = candidate.Evidence
		r.concepts[id] = target
		r.order = append(r.order, id)
	} else {
		target.Promote(ParseLayer(candidate.Layer))
		if len(candidate.Evidence) > len(target.Evidence) {
			target.Evidence = candidate.Evidence
		}
	}

	app.Context = candidate.Context
	target.AddAppearance(app, entity)
}

// All returns the canonical concepts in first-insertion order.
func (r *Registry) All() []*Concept {
	concepts := make([]*Concept, 0, len(r.order))
	for _, id := range r.order {
		concepts = append(concepts, r.concepts[id])
	}
	return concepts
}

// InSection returns the concepts that have at least one appearance in the
// given section, in first-insertion order.
func (r *Registry) InSection(sectionIndex int) []*Concept {
	var concepts []*Concept
	for _, id := range r.order {
		if c := r.concepts[id]; c.HasAppearanceIn(sectionIndex) {
			concepts = append(concepts, c)
		}
	}
	return concepts
}

// InParagraph returns the concepts with an appearance in the given section
// and paragraph, in first-insertion order.
func (r *Registry) InParagraph(sectionIndex, paragraphIndex int) []*Concept {
	var concepts []*Concept
	for _, id := range r.order {
		if c := r.concepts[id]; c.HasAppearanceInParagraph(sectionIndex, paragraphIndex) {
			concepts = append(concepts, c)
		}
	}
	return concepts
}

// GetSorted returns the concept views ordered by section count descending,
// then frequency descending, then id for stability. Concepts whose ids
// collapse to the same normalized term are merged defensively before sorting.
func (r *Registry) GetSorted() []View {
	merged := make(map[string]*Concept, len(r.concepts))
	var order []string
	for _, id := range r.order {
		c := r.concepts[id]
		key := NormalizeTerm(c.ID)
		if existing, ok := merged[key]; ok {
			logger.Warn("[Registry] Merging duplicate concept entries", "id", key)
			existing.MergeFrom(c)
			continue
		}
		merged[key] = c
		order = append(order, key)
	}

	views := make([]View, 0, len(order))
	for _, key := range order {
		views = append(views, merged[key].View())
	}
	sort.SliceStable(views, func(i, j int) bool {
		if views[i].SectionCount != views[j].SectionCount {
			return views[i].SectionCount > views[j].SectionCount
		}
		if views[i].Frequency != views[j].Frequency {
			return views[i].Frequency > views[j].Frequency
		}
		return views[i].ID < views[j].ID
	})
	return views
}

// Reset drops all concepts, ready for the next document.
func (r *Registry) Reset() {
	r.concepts = make(map[string]*Concept)
	r.order = nil
}
