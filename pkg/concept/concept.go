// Package concept holds the canonical concept model: deduplicated concepts
// with importance layers and accumulated appearance statistics, typed
// relations between them, and the per-document registry and tracker that own
// their merge rules.
package concept

import (
	"sort"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/conceptatlas/backend/internal/util"
)

// Layer is the importance tier of a concept. Priority outranks secondary,
// which outranks tertiary.
type Layer string

const (
	LayerPriority  Layer = "priority"
	LayerSecondary Layer = "secondary"
	LayerTertiary  Layer = "tertiary"
)

// ParseLayer coerces a raw layer tag to a valid Layer. Anything outside the
// three valid values defaults to tertiary.
func ParseLayer(raw string) Layer {
	switch Layer(strings.ToLower(strings.TrimSpace(raw))) {
	case LayerPriority:
		return LayerPriority
	case LayerSecondary:
		return LayerSecondary
	case LayerTertiary:
		return LayerTertiary
	default:
		return LayerTertiary
	}
}

// Rank returns the numeric priority of a layer; higher means more important.
func (l Layer) Rank() int {
	switch l {
	case LayerPriority:
		return 3
	case LayerSecondary:
		return 2
	case LayerTertiary:
		return 1
	default:
		return 0
	}
}

// NormalizeTerm lowercases and trims a concept term. Concept ids and variants
// are always stored in this form.
func NormalizeTerm(term string) string {
	return util.NormalizeTerm(term)
}

// Appearance records a single sighting of a concept (or one of its variants)
// in a source unit. Appearances are appended, never mutated or removed.
type Appearance struct {
	ID             string `json:"id"`
	Section        string `json:"section"`
	SectionIndex   int    `json:"section_index"`
	ParagraphIndex int    `json:"paragraph_index,omitempty"`
	HeadingLevel   string `json:"heading_level"`
	Variant        string `json:"variant"`
	Context        string `json:"context"`
}

// Concept is a canonical deduplicated idea. Its frequency always equals the
// number of recorded appearances and its section count always equals the
// number of distinct section indices seen.
type Concept struct {
	ID           string
	Layer        Layer
	Evidence     string
	Frequency    int
	SectionCount int
	Appearances  []Appearance

	variants     map[string]struct{}
	sectionsSeen map[int]struct{}
}

// NewConcept creates a concept with a normalized id and a coerced layer.
func NewConcept(id string, layer Layer) *Concept {
	return &Concept{
		ID:           NormalizeTerm(id),
		Layer:        layer,
		variants:     make(map[string]struct{}),
		sectionsSeen: make(map[int]struct{}),
	}
}

// AddAppearance records a sighting of the concept under the given variant
// form, updating frequency and section bookkeeping. The variant is normalized
// and never stored when it equals the canonical id.
func (c *Concept) AddAppearance(app Appearance, variant string) {
	variant = NormalizeTerm(variant)
	if variant != "" && variant != c.ID {
		c.variants[variant] = struct{}{}
	}

	c.Frequency++

	if _, seen := c.sectionsSeen[app.SectionIndex]; !seen {
		c.sectionsSeen[app.SectionIndex] = struct{}{}
		c.SectionCount++
	}

	if app.ID == "" {
		app.ID = gonanoid.Must()
	}
	app.Variant = variant
	c.Appearances = append(c.Appearances, app)
}

// Promote raises the concept's layer when the candidate layer outranks the
// current one. Layers are never demoted.
func (c *Concept) Promote(layer Layer) {
	if layer.Rank() > c.Layer.Rank() {
		c.Layer = layer
	}
}

// Variants returns the known variant forms, sorted. The canonical id is never
// included.
func (c *Concept) Variants() []string {
	variants := make([]string, 0, len(c.variants))
	for v := range c.variants {
		variants = append(variants, v)
	}
	sort.Strings(variants)
	return variants
}

// HasAppearanceIn reports whether the concept appeared in the given section.
func (c *Concept) HasAppearanceIn(sectionIndex int) bool {
	_, seen := c.sectionsSeen[sectionIndex]
	return seen
}

// HasAppearanceInParagraph reports whether the concept appeared in the given
// section and paragraph.
func (c *Concept) HasAppearanceInParagraph(sectionIndex, paragraphIndex int) bool {
	for _, app := range c.Appearances {
		if app.SectionIndex == sectionIndex && app.ParagraphIndex == paragraphIndex {
			return true
		}
	}
	return false
}

// MergeFrom folds another concept with the same normalized id into this one:
// variants are unioned, appearances concatenated, frequency and section count
// recomputed, the higher-priority layer kept, and the longer evidence text
// retained.
func (c *Concept) MergeFrom(other *Concept) {
	for v := range other.variants {
		if v != c.ID {
			c.variants[v] = struct{}{}
		}
	}

	c.Promote(other.Layer)

	if len(other.Evidence) > len(c.Evidence) {
		c.Evidence = other.Evidence
	}

	for _, app := range other.Appearances {
		if _, seen := c.sectionsSeen[app.SectionIndex]; !seen {
			c.sectionsSeen[app.SectionIndex] = struct{}{}
			c.SectionCount++
		}
		c.Appearances = append(c.Appearances, app)
	}
	c.Frequency = len(c.Appearances)
}

// View is the serialization shape of a concept exposed to persistence and the
// visualization collaborator.
type View struct {
	ID           string       `json:"id"`
	Frequency    int          `json:"frequency"`
	SectionCount int          `json:"section_count"`
	Variants     []string     `json:"variants"`
	Appearances  []Appearance `json:"appearances"`
	Layer        Layer        `json:"layer"`
}

// View returns the concept's serialization shape.
func (c *Concept) View() View {
	appearances := make([]Appearance, len(c.Appearances))
	copy(appearances, c.Appearances)
	return View{
		ID:           c.ID,
		Frequency:    c.Frequency,
		SectionCount: c.SectionCount,
		Variants:     c.Variants(),
		Appearances:  appearances,
		Layer:        c.Layer,
	}
}
