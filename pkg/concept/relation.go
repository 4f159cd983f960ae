package concept

import "strings"

// GlobalSectionIndex marks relations extracted over the whole document rather
// than a single unit.
const GlobalSectionIndex = -1

// GlobalSectionName is the section label attached to document-level
// relations.
const GlobalSectionName = "global"

// Relation is a typed directed edge between two concepts. Two relations are
// the same edge when source, type and target match case-insensitively;
// evidence and section provenance do not participate in identity.
type Relation struct {
	Source       string  `json:"source"`
	Type         string  `json:"relation_type"`
	Target       string  `json:"target"`
	Evidence     string  `json:"evidence"`
	Section      string  `json:"section"`
	SectionIndex int     `json:"section_index"`
	Confidence   float64 `json:"confidence"`
}

// Key returns the case-insensitive identity of the relation.
func (r Relation) Key() string {
	return strings.Join([]string{
		NormalizeTerm(r.Source),
		NormalizeTerm(r.Type),
		NormalizeTerm(r.Target),
	}, "\x1f")
}

// Tracker accumulates relations for one document. It keeps the unit-scoped
// and document-scoped pools separate and maintains a deduplicated master
// list, and it decides when a periodic document-level extraction is due.
type Tracker struct {
	threshold int
	counter   int

	local  []Relation
	global []Relation

	master    []Relation
	masterIdx map[string]int
}

// NewTracker creates a tracker that signals a document-level extraction every
// threshold processed units. A threshold below 1 is coerced to 1.
func NewTracker(threshold int) *Tracker {
	if threshold < 1 {
		threshold = 1
	}
	return &Tracker{
		threshold: threshold,
		masterIdx: make(map[string]int),
	}
}

// AddLocal records the relations extracted from one processed unit and
// advances the unit counter. The call counts as one processed unit even when
// no relations were found.
func (t *Tracker) AddLocal(relations []Relation) {
	t.counter++
	for _, rel := range relations {
		t.local = append(t.local, rel)
		t.mergeIntoMaster(rel)
	}
}

// AddGlobal records relations from a document-level extraction pass. Their
// provenance is forced to the global pseudo-section.
func (t *Tracker) AddGlobal(relations []Relation) {
	for _, rel := range relations {
		rel.Section = GlobalSectionName
		rel.SectionIndex = GlobalSectionIndex
		t.global = append(t.global, rel)
		t.mergeIntoMaster(rel)
	}
}

// ShouldExtractGlobal reports whether a periodic document-level extraction is
// due after the most recent unit.
func (t *Tracker) ShouldExtractGlobal() bool {
	return t.counter > 0 && t.counter%t.threshold == 0
}

// Counter returns the number of units processed so far.
func (t *Tracker) Counter() int {
	return t.counter
}

// Local returns the unit-scoped relations in encounter order.
func (t *Tracker) Local() []Relation {
	return append([]Relation(nil), t.local...)
}

// Global returns the document-scoped relations in encounter order.
func (t *Tracker) Global() []Relation {
	return append([]Relation(nil), t.global...)
}

// Master returns the deduplicated union of local and global relations in
// first-encounter order. When the same edge was seen more than once the
// surviving entry carries the longest evidence text.
func (t *Tracker) Master() []Relation {
	return append([]Relation(nil), t.master...)
}

func (t *Tracker) mergeIntoMaster(rel Relation) {
	key := rel.Key()
	if idx, ok := t.masterIdx[key]; ok {
		if len(rel.Evidence) > len(t.master[idx].Evidence) {
			evidence := rel.Evidence
			rel = t.master[idx]
			rel.Evidence = evidence
			t.master[idx] = rel
		}
		return
	}
	t.masterIdx[key] = len(t.master)
	t.master = append(t.master, rel)
}

// Reset clears all pools and the unit counter, ready for the next document.
func (t *Tracker) Reset() {
	t.counter = 0
	t.local = nil
	t.global = nil
	t.master = nil
	t.masterIdx = make(map[string]int)
}
