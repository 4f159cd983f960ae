// Package pipeline drives article processing: it cuts documents into units,
// runs extraction and resolution per unit, accumulates concepts and relations
// in a per-document session, and writes the result files.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/conceptatlas/backend/pkg/article"
	"github.com/conceptatlas/backend/pkg/concept"
	"github.com/conceptatlas/backend/pkg/extract"
	"github.com/conceptatlas/backend/pkg/logger"
)

// ErrNoResults is returned when every article in a batch failed.
var ErrNoResults = errors.New("no articles produced results")

// Params configures a Pipeline.
type Params struct {
	Extractor       *extract.Extractor
	Mode            string
	SkipSections    []string
	GlobalThreshold int
	TokenEncoder    string
	MaxUnitTokens   int
}

// Pipeline processes articles one unit at a time. A single Pipeline may
// process many documents; each document gets a fresh session.
type Pipeline struct {
	extractor       *extract.Extractor
	mode            string
	skip            map[string]struct{}
	globalThreshold int
	tokenEncoder    string
	maxUnitTokens   int
}

// New creates a pipeline.
func New(params Params) *Pipeline {
	return &Pipeline{
		extractor:       params.Extractor,
		mode:            params.Mode,
		skip:            article.SkipSet(params.SkipSections),
		globalThreshold: params.GlobalThreshold,
		tokenEncoder:    params.TokenEncoder,
		maxUnitTokens:   params.MaxUnitTokens,
	}
}

// session is the per-document working state. Registry and tracker never
// carry over between documents.
type session struct {
	registry *concept.Registry
	tracker  *concept.Tracker
}

func newSession(threshold int) *session {
	return &session{
		registry: concept.NewRegistry(),
		tracker:  concept.NewTracker(threshold),
	}
}

// ArticleResult is the complete output for one processed document.
type ArticleResult struct {
	Title    string
	Category string
	Entities []concept.View
	Local    []concept.Relation
	Global   []concept.Relation
	Master   []concept.Relation
}

// ProcessArticle runs the full extraction pipeline over one document. A unit
// that fails is logged and skipped; the document fails only when no units
// could be built at all.
func (p *Pipeline) ProcessArticle(ctx context.Context, title string, a article.Article) (*ArticleResult, error) {
	units, err := BuildUnits(a, p.mode, p.skip, p.tokenEncoder, p.maxUnitTokens)
	if err != nil {
		return nil, fmt.Errorf("building units for %s: %w", title, err)
	}

	logger.Info("[Pipeline] Processing article", "title", title, "mode", p.mode, "units", len(units))

	sess := newSession(p.globalThreshold)
	for i, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := p.processUnit(ctx, sess, unit); err != nil {
			logger.Error("[Pipeline] Unit failed, continuing with next",
				"title", title, "unit", i+1, "section", unit.Section, "err", err)
			continue
		}
		logger.Debug("[Pipeline] Unit processed",
			"title", title, "unit", i+1, "units", len(units), "concepts", sess.registry.Len())
	}

	// One unconditional document-level pass, regardless of cadence.
	global, err := p.extractor.GlobalRelations(ctx, sess.registry.All())
	if err != nil {
		logger.Error("[Pipeline] Final document-level extraction failed", "title", title, "err", err)
	} else {
		sess.tracker.AddGlobal(global)
	}

	return &ArticleResult{
		Title:    title,
		Category: a.Category,
		Entities: sess.registry.GetSorted(),
		Local:    sess.tracker.Local(),
		Global:   sess.tracker.Global(),
		Master:   sess.tracker.Master(),
	}, nil
}

func (p *Pipeline) processUnit(ctx context.Context, sess *session, unit Unit) error {
	candidates, err := p.extractor.Concepts(ctx, unit.Text)
	if err != nil {
		return err
	}

	matches, err := p.extractor.Resolve(ctx, candidates, sess.registry.All())
	if err != nil {
		logger.Warn("[Pipeline] Resolution failed, treating candidates as new",
			"section", unit.Section, "err", err)
		matches = map[string]string{}
	}

	for _, candidate := range candidates {
		canonical := matches[concept.NormalizeTerm(candidate.Entity)]
		sess.registry.Upsert(candidate, canonical, concept.Appearance{
			Section:        unit.Section,
			SectionIndex:   unit.SectionIndex,
			ParagraphIndex: unit.ParagraphIndex,
			HeadingLevel:   unit.HeadingLevel,
		})
	}

	scope := sess.registry.InSection(unit.SectionIndex)
	if p.mode == ModeParagraph {
		scope = sess.registry.InParagraph(unit.SectionIndex, unit.ParagraphIndex)
	}

	relations, err := p.extractor.LocalRelations(ctx, scope, unit.Text)
	if err != nil {
		logger.Warn("[Pipeline] Relation extraction failed for unit", "section", unit.Section, "err", err)
		relations = nil
	}
	for i := range relations {
		relations[i].Section = unit.Section
		relations[i].SectionIndex = unit.SectionIndex
	}
	sess.tracker.AddLocal(relations)

	if sess.tracker.ShouldExtractGlobal() {
		global, err := p.extractor.GlobalRelations(ctx, sess.registry.All())
		if err != nil {
			logger.Warn("[Pipeline] Periodic document-level extraction failed",
				"unit", sess.tracker.Counter(), "err", err)
			return nil
		}
		sess.tracker.AddGlobal(global)
	}
	return nil
}
