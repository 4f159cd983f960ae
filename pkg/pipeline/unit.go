package pipeline

import (
	"fmt"
	"strings"

	"github.com/conceptatlas/backend/pkg/article"
	"github.com/conceptatlas/backend/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/pkoukk/tiktoken-go"
)

// Processing granularities. Section mode folds subsection text into its
// parent section, subsection mode makes each subsection its own unit, and
// paragraph mode processes every paragraph separately.
const (
	ModeSection    = "section"
	ModeSubsection = "subsection"
	ModeParagraph  = "paragraph"
)

// Heading level tags recorded on appearances.
const (
	headingMain = "main"
	headingSub  = "sub"
)

// Unit is one block of text fed through extraction. Section indices are
// 1-based positions in the original document, assigned before skip-list
// filtering so they stay stable across configurations.
type Unit struct {
	ID             string
	Text           string
	Section        string
	SectionIndex   int
	ParagraphIndex int
	HeadingLevel   string
}

// BuildUnits cuts an article into processing units for the given mode,
// excluding skip-listed sections and dropping empty units. Units whose text
// exceeds maxTokens are split on paragraph boundaries; maxTokens <= 0
// disables splitting.
func BuildUnits(a article.Article, mode string, skip map[string]struct{}, encoder string, maxTokens int) ([]Unit, error) {
	var raw []Unit

	for _, section := range a.ProcessableSections(skip) {
		switch mode {
		case ModeSection:
			raw = append(raw, Unit{
				Text:         section.CombinedText(),
				Section:      section.Title,
				SectionIndex: section.Index,
				HeadingLevel: headingMain,
			})
		case ModeSubsection:
			if len(section.Subsections) == 0 {
				raw = append(raw, Unit{
					Text:         section.OwnText(),
					Section:      section.Title,
					SectionIndex: section.Index,
					HeadingLevel: headingMain,
				})
				continue
			}
			for subIdx, sub := range section.Subsections {
				raw = append(raw, Unit{
					Text:           sub.OwnText(),
					Section:        fmt.Sprintf("%s - %s", section.Title, sub.Title),
					SectionIndex:   section.Index,
					ParagraphIndex: subIdx + 1,
					HeadingLevel:   headingSub,
				})
			}
		case ModeParagraph:
			for paraIdx, paragraph := range section.Content {
				raw = append(raw, Unit{
					Text:           paragraph,
					Section:        section.Title,
					SectionIndex:   section.Index,
					ParagraphIndex: paraIdx + 1,
					HeadingLevel:   headingMain,
				})
			}
			for _, sub := range section.Subsections {
				for paraIdx, paragraph := range sub.Content {
					raw = append(raw, Unit{
						Text:           paragraph,
						Section:        fmt.Sprintf("%s - %s", section.Title, sub.Title),
						SectionIndex:   section.Index,
						ParagraphIndex: paraIdx + 1,
						HeadingLevel:   headingSub,
					})
				}
			}
		default:
			return nil, fmt.Errorf("unknown processing mode %q", mode)
		}
	}

	var units []Unit
	for _, unit := range raw {
		if strings.TrimSpace(unit.Text) == "" {
			continue
		}
		parts, err := splitByTokens(unit.Text, encoder, maxTokens)
		if err != nil {
			return nil, err
		}
		for _, part := range parts {
			id, err := gonanoid.New()
			if err != nil {
				return nil, err
			}
			split := unit
			split.ID = id
			split.Text = part
			units = append(units, split)
		}
	}
	return units, nil
}

// splitByTokens greedily groups a text's paragraphs into parts that stay
// under the token budget. A single paragraph over the budget is kept whole
// rather than cut mid-sentence.
func splitByTokens(text string, encoder string, maxTokens int) ([]string, error) {
	if maxTokens <= 0 {
		return []string{text}, nil
	}

	enc, err := tiktoken.GetEncoding(encoder)
	if err != nil {
		return nil, fmt.Errorf("loading token encoder %s: %w", encoder, err)
	}

	if len(enc.Encode(text, nil, nil)) <= maxTokens {
		return []string{text}, nil
	}

	paragraphs := strings.Split(text, "\n")
	var parts []string
	var current []string
	currentTokens := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		parts = append(parts, strings.Join(current, "\n"))
		current = nil
		currentTokens = 0
	}

	for _, paragraph := range paragraphs {
		paragraphTokens := len(enc.Encode(paragraph, nil, nil)) + 1
		if paragraphTokens > maxTokens {
			logger.Warn("[Pipeline] Paragraph exceeds token budget, keeping it whole", "tokens", paragraphTokens, "budget", maxTokens)
		}
		if currentTokens+paragraphTokens > maxTokens && len(current) > 0 {
			flush()
		}
		current = append(current, paragraph)
		currentTokens += paragraphTokens
	}
	flush()

	return parts, nil
}
