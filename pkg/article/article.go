// Package article defines the input document schema produced by the external
// fetch collaborator and the skip-list filtering applied before processing.
package article

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Section is one titled block of an article: a list of paragraph strings plus
// at most one level of nested subsections of the same shape.
type Section struct {
	Title       string    `json:"section_title"`
	Content     []string  `json:"content"`
	Subsections []Section `json:"subsections,omitempty"`
}

// CombinedText joins the section's own paragraphs and all of its
// subsections' paragraphs into one text block.
func (s Section) CombinedText() string {
	parts := make([]string, 0, len(s.Content))
	parts = append(parts, s.Content...)
	for _, sub := range s.Subsections {
		parts = append(parts, sub.Content...)
	}
	return strings.Join(parts, "\n")
}

// OwnText joins only the section's own paragraphs, without subsections.
func (s Section) OwnText() string {
	return strings.Join(s.Content, "\n")
}

// Article is one fetched document.
type Article struct {
	Title    string    `json:"title,omitempty"`
	Category string    `json:"category"`
	Sections []Section `json:"sections"`
}

// IndexedSection pairs a section with its 1-based position in the original
// document. Positions are assigned before skip-list filtering, so indices
// stay stable no matter which sections are excluded.
type IndexedSection struct {
	Index int
	Section
}

// ProcessableSections returns the article's sections with their original
// 1-based indices, excluding those whose title appears in the skip set.
func (a Article) ProcessableSections(skip map[string]struct{}) []IndexedSection {
	var sections []IndexedSection
	for i, section := range a.Sections {
		if _, skipped := skip[section.Title]; skipped {
			continue
		}
		sections = append(sections, IndexedSection{Index: i + 1, Section: section})
	}
	return sections
}

// SkipSet builds a title lookup from a skip list.
func SkipSet(titles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(titles))
	for _, t := range titles {
		set[t] = struct{}{}
	}
	return set
}

// Collection is the on-disk shape of a fetched article batch: article titles
// mapped to their documents.
type Collection struct {
	Articles map[string]Article `json:"articles"`
}

// LoadCollection reads and parses an article batch file. An unreadable or
// unparseable file is a hard error; documents are the pipeline's only input.
func LoadCollection(path string) (*Collection, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading article file %s: %w", path, err)
	}

	var collection Collection
	if err := json.Unmarshal(raw, &collection); err != nil {
		return nil, fmt.Errorf("parsing article file %s: %w", path, err)
	}
	if len(collection.Articles) == 0 {
		// A single-article file has title and sections at the top level.
		var single Article
		if err := json.Unmarshal(raw, &single); err == nil && single.Title != "" && len(single.Sections) > 0 {
			collection.Articles = map[string]Article{single.Title: single}
		}
	}
	if len(collection.Articles) == 0 {
		return nil, fmt.Errorf("article file %s contains no articles", path)
	}
	return &collection, nil
}
