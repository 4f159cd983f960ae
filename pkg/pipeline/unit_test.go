package pipeline

import (
	"testing"

	"github.com/conceptatlas/backend/pkg/article"
)

func testArticle() article.Article {
	return article.Article{
		Category: "test",
		Sections: []article.Section{
			{
				Title:   "Introduction",
				Content: []string{"First paragraph.", "Second paragraph."},
				Subsections: []article.Section{
					{Title: "Background", Content: []string{"Background paragraph."}},
				},
			},
			{Title: "References", Content: []string{"Some reference."}},
			{Title: "History", Content: []string{"History paragraph."}},
			{Title: "Empty", Content: nil},
		},
	}
}

func skip() map[string]struct{} {
	return article.SkipSet([]string{"References"})
}

func TestBuildUnitsSectionMode(t *testing.T) {
	units, err := BuildUnits(testArticle(), ModeSection, skip(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Text != "First paragraph.\nSecond paragraph.\nBackground paragraph." {
		t.Errorf("section unit must include subsection text, got %q", units[0].Text)
	}
	if units[0].SectionIndex != 1 || units[0].HeadingLevel != "main" {
		t.Errorf("unexpected first unit: %+v", units[0])
	}
	if units[1].Section != "History" || units[1].SectionIndex != 3 {
		t.Errorf("skip list must not shift section indices, got %+v", units[1])
	}
	if units[0].ID == "" || units[0].ID == units[1].ID {
		t.Error("units must carry distinct ids")
	}
}

func TestBuildUnitsSubsectionMode(t *testing.T) {
	units, err := BuildUnits(testArticle(), ModeSubsection, skip(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(units))
	}
	if units[0].Section != "Introduction - Background" {
		t.Errorf("subsection unit name: %q", units[0].Section)
	}
	if units[0].HeadingLevel != "sub" || units[0].ParagraphIndex != 1 {
		t.Errorf("unexpected subsection unit: %+v", units[0])
	}
	if units[1].Section != "History" || units[1].HeadingLevel != "main" {
		t.Errorf("section without subsections must be one unit: %+v", units[1])
	}
}

func TestBuildUnitsParagraphMode(t *testing.T) {
	units, err := BuildUnits(testArticle(), ModeParagraph, skip(), "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// two intro paragraphs, one background paragraph, one history paragraph
	if len(units) != 4 {
		t.Fatalf("expected 4 units, got %d", len(units))
	}
	if units[0].ParagraphIndex != 1 || units[1].ParagraphIndex != 2 {
		t.Errorf("paragraph indices must be 1-based per section, got %d and %d",
			units[0].ParagraphIndex, units[1].ParagraphIndex)
	}
	if units[2].Section != "Introduction - Background" || units[2].HeadingLevel != "sub" {
		t.Errorf("unexpected subsection paragraph unit: %+v", units[2])
	}
	if units[3].Section != "History" || units[3].SectionIndex != 3 {
		t.Errorf("unexpected history unit: %+v", units[3])
	}
}

func TestBuildUnitsUnknownMode(t *testing.T) {
	if _, err := BuildUnits(testArticle(), "chapter", skip(), "", 0); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}
