package pipeline

import (
	"context"
	"sort"
	"sync"

	"github.com/conceptatlas/backend/pkg/article"
	"github.com/conceptatlas/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Runner processes a batch of articles through a pipeline and persists the
// results. Articles are independent, so they shard across workers; within a
// document processing stays sequential.
type Runner struct {
	pipeline  *Pipeline
	mode      string
	outputDir string
	parallel  int
}

// RunnerParams configures a Runner.
type RunnerParams struct {
	Pipeline  *Pipeline
	Mode      string
	OutputDir string
	Parallel  int
}

// NewRunner creates a runner. Parallel below 1 is coerced to 1.
func NewRunner(params RunnerParams) *Runner {
	parallel := params.Parallel
	if parallel < 1 {
		parallel = 1
	}
	return &Runner{
		pipeline:  params.Pipeline,
		mode:      params.Mode,
		outputDir: params.OutputDir,
		parallel:  parallel,
	}
}

// Run processes every article in the collection and writes the entity and
// relation result files. A document that fails is logged and excluded from
// the outputs; Run fails only when the whole batch produced nothing or the
// result files cannot be written.
func (r *Runner) Run(ctx context.Context, collection *article.Collection) ([]*ArticleResult, error) {
	titles := make([]string, 0, len(collection.Articles))
	for title := range collection.Articles {
		titles = append(titles, title)
	}
	sort.Strings(titles)

	var mu sync.Mutex
	results := make(map[string]*ArticleResult, len(titles))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.parallel)

	for _, title := range titles {
		group.Go(func() error {
			result, err := r.pipeline.ProcessArticle(groupCtx, title, collection.Articles[title])
			if err != nil {
				if groupCtx.Err() != nil {
					return groupCtx.Err()
				}
				logger.Error("[Pipeline] Article failed, excluding it from results", "title", title, "err", err)
				return nil
			}
			mu.Lock()
			results[title] = result
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	ordered := make([]*ArticleResult, 0, len(results))
	for _, title := range titles {
		if result, ok := results[title]; ok {
			ordered = append(ordered, result)
		}
	}
	if len(ordered) == 0 {
		return nil, ErrNoResults
	}

	if err := WriteEntityResults(r.outputDir, r.mode, ordered); err != nil {
		return nil, err
	}
	if err := WriteRelationResults(r.outputDir, r.mode, ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}
