package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conceptatlas/backend/pkg/concept"
	"github.com/conceptatlas/backend/pkg/logger"
)

type entityArticle struct {
	Category      string         `json:"category"`
	TotalEntities int            `json:"total_entities"`
	Entities      []concept.View `json:"entities"`
}

type resultMetadata struct {
	Type           string `json:"type,omitempty"`
	ProcessingMode string `json:"processing_mode"`
	Timestamp      string `json:"timestamp"`
}

type relationArticle struct {
	Category  string             `json:"category"`
	Relations []concept.Relation `json:"relations"`
}

type relationFile struct {
	Metadata resultMetadata             `json:"metadata"`
	Articles map[string]relationArticle `json:"articles"`
}

// EntityResultPath returns the entity output file for a processing mode.
func EntityResultPath(outputDir, mode string) string {
	return filepath.Join(outputDir, fmt.Sprintf("entity_analysis_%s_results.json", mode))
}

// WriteEntityResults merges the given article results into the entity output
// file for the mode, keeping entries from earlier runs for other articles.
func WriteEntityResults(outputDir, mode string, results []*ArticleResult) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	path := EntityResultPath(outputDir, mode)
	existing := map[string]json.RawMessage{}
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &existing); err != nil {
			logger.Warn("[Pipeline] Entity result file unreadable, starting fresh", "path", path, "err", err)
			existing = map[string]json.RawMessage{}
		}
	}

	metadata, err := json.Marshal(resultMetadata{
		ProcessingMode: mode,
		Timestamp:      time.Now().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	existing["metadata"] = metadata

	for _, result := range results {
		entry, err := json.Marshal(entityArticle{
			Category:      result.Category,
			TotalEntities: len(result.Entities),
			Entities:      result.Entities,
		})
		if err != nil {
			return fmt.Errorf("encoding entities for %s: %w", result.Title, err)
		}
		existing[result.Title] = entry
	}

	raw, err := json.MarshalIndent(existing, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

// WriteRelationResults writes the local, global and master relation files for
// the mode under outputDir/relations.
func WriteRelationResults(outputDir, mode string, results []*ArticleResult) error {
	dir := filepath.Join(outputDir, "relations")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating relations directory: %w", err)
	}

	timestamp := time.Now().Format(time.RFC3339)
	kinds := []struct {
		name   string
		pick func(*ArticleResult) []concept.Relation
	}{
		{name: "local_relations", pick: func(r *ArticleResult) []concept.Relation { return r.Local }},
		{name: "global_relations", pick: func(r *ArticleResult) []concept.Relation { return r.Global }},
		{name: "master_relations", pick: func(r *ArticleResult) []concept.Relation { return r.Master }},
	}

	for _, kind := range kinds {
		file := relationFile{
			Metadata: resultMetadata{
				Type:           kind.name,
				ProcessingMode: mode,
				Timestamp:      timestamp,
			},
			Articles: make(map[string]relationArticle, len(results)),
		}
		for _, result := range results {
			relations := kind.pick(result)
			if relations == nil {
				relations = []concept.Relation{}
			}
			file.Articles[result.Title] = relationArticle{
				Category:  result.Category,
				Relations: relations,
			}
		}

		raw, err := json.MarshalIndent(file, "", "    ")
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", kind.name, mode))
		if err := os.WriteFile(path, raw, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}
