package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/conceptatlas/backend/internal/config"
	"github.com/conceptatlas/backend/internal/util"
	"github.com/conceptatlas/backend/pkg/ai"
	oai "github.com/conceptatlas/backend/pkg/ai/ollama"
	gai "github.com/conceptatlas/backend/pkg/ai/openai"
	"github.com/conceptatlas/backend/pkg/article"
	"github.com/conceptatlas/backend/pkg/cache"
	"github.com/conceptatlas/backend/pkg/extract"
	"github.com/conceptatlas/backend/pkg/logger"
	"github.com/conceptatlas/backend/pkg/logger/console"
	"github.com/conceptatlas/backend/pkg/pipeline"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	util.LoadEnv()

	rootCmd := &cobra.Command{
		Use:   "conceptmap",
		Short: "Concept graph extraction from articles",
		Long: `Conceptmap turns article text into a deduplicated concept graph:
layered concepts with appearance statistics plus typed relations between
them, extracted incrementally with LLM calls behind a two-tier cache.`,
		Version: version,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")

	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(cacheCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	logger.Init(console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: cfg.Debug,
	}))
	return cfg, nil
}

func newAIClient(cfg config.Config) (ai.ConceptAIClient, error) {
	switch cfg.AIAdapter {
	case "ollama":
		return oai.NewConceptOllamaClient(oai.NewConceptOllamaClientParams{
			ExtractionModel: cfg.ExtractionModel,
			ComparisonModel: cfg.ComparisonModel,

			BaseURL: cfg.ChatURL,
			ApiKey:  cfg.ChatKey,
		})
	default:
		return gai.NewConceptOpenAIClient(gai.NewConceptOpenAIClientParams{
			ExtractionModel: cfg.ExtractionModel,
			ComparisonModel: cfg.ComparisonModel,

			ChatURL: cfg.ChatURL,
			ChatKey: cfg.ChatKey,
		}), nil
	}
}

func processCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process <articles.json>",
		Short: "Process an article batch into concept and relation files",
		Long: `Process reads a fetched article batch, runs concept and relation
extraction per unit, and writes the entity and relation result files.

Example:
  conceptmap process data/articles.json --mode section
  conceptmap process data/articles.json --mode paragraph --parallel 4`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
				cfg.ProcessingMode = mode
			}
			if output, _ := cmd.Flags().GetString("output"); output != "" {
				cfg.OutputDir = output
			}
			if parallel, _ := cmd.Flags().GetInt("parallel"); parallel > 0 {
				cfg.ParallelArticles = parallel
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			collection, err := article.LoadCollection(args[0])
			if err != nil {
				return err
			}

			aiClient, err := newAIClient(cfg)
			if err != nil {
				return fmt.Errorf("creating AI client: %w", err)
			}

			var durable cache.Store
			store, err := cache.NewSQLiteStore(cfg.CachePath, cfg.CacheVersion)
			if err != nil {
				logger.Warn("Durable cache unavailable, using memory only", "path", cfg.CachePath, "err", err)
			} else {
				defer store.Close()
				durable = store
			}

			extractor := extract.NewExtractor(extract.ExtractorParams{
				Client:          aiClient,
				Cache:           cache.New(cfg.CacheVersion, durable),
				ExtractionModel: cfg.ExtractionModel,
				ComparisonModel: cfg.ComparisonModel,
				MaxRetries:      cfg.MaxRetries,
			})
			runner := pipeline.NewRunner(pipeline.RunnerParams{
				Pipeline: pipeline.New(pipeline.Params{
					Extractor:       extractor,
					Mode:            cfg.ProcessingMode,
					SkipSections:    cfg.SkipSections,
					GlobalThreshold: cfg.GlobalThreshold,
					TokenEncoder:    cfg.TokenEncoder,
					MaxUnitTokens:   cfg.MaxUnitTokens,
				}),
				Mode:      cfg.ProcessingMode,
				OutputDir: cfg.OutputDir,
				Parallel:  cfg.ParallelArticles,
			})

			start := time.Now()
			results, err := runner.Run(ctx, collection)
			if err != nil {
				return err
			}

			metrics := aiClient.GetMetrics()
			logger.Info("Batch complete",
				"articles", len(results),
				"duration", time.Since(start).Round(time.Second),
				"input_tokens", metrics.InputTokens,
				"output_tokens", metrics.OutputTokens,
			)
			return nil
		},
	}

	cmd.Flags().String("mode", "", "processing granularity: section, subsection or paragraph")
	cmd.Flags().String("output", "", "output directory for result files")
	cmd.Flags().Int("parallel", 0, "number of articles processed concurrently")
	return cmd
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the extraction cache",
	}
	cmd.AddCommand(cachePurgeCmd())
	cmd.AddCommand(cacheClearCmd())
	cmd.AddCommand(cacheVersionsCmd())
	return cmd
}

func openStore(cmd *cobra.Command) (*cache.SQLiteStore, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cache.NewSQLiteStore(cfg.CachePath, cfg.CacheVersion)
}

func cachePurgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete cache entries older than a number of days",
		RunE: func(cmd *cobra.Command, args []string) error {
			days, _ := cmd.Flags().GetInt("days")
			if days < 1 {
				return fmt.Errorf("--days must be at least 1")
			}

			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.PurgeOlderThan(cmd.Context(), time.Duration(days)*24*time.Hour)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries older than %d days\n", removed, days)
			return nil
		},
	}
	cmd.Flags().Int("days", 30, "age threshold in days")
	return cmd
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all cache entries for the configured version",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.ClearVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d entries\n", removed)
			return nil
		},
	}
}

func cacheVersionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions",
		Short: "List cache versions present in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer store.Close()

			versions, err := store.ListVersions(cmd.Context())
			if err != nil {
				return err
			}
			if len(versions) == 0 {
				fmt.Println("Cache is empty")
				return nil
			}
			for _, v := range versions {
				fmt.Println(v)
			}
			return nil
		},
	}
}
