// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/ledongthuc/pdf"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/corpus"
	"github.com/poiesic/corpus/ai"
	"github.com/poiesic/corpus/ingestion"
	"github.com/poiesic/corpus/search"
)

func main() {
	// Optional .env for provider settings; absence is fine
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "corpus",
		Usage: "Hybrid document retrieval over embedded and keyword-indexed chunks",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "./corpus_db",
				EnvVars: []string{"CORPUS_DB"},
			},
			&cli.StringFlag{
				Name:    "embedding-host",
				Usage:   "Embedding service host URL",
				Value:   "http://localhost:11434/v1",
				EnvVars: []string{"CORPUS_EMBEDDING_HOST"},
			},
			&cli.StringFlag{
				Name:    "embedding-model",
				Usage:   "Embedding model name",
				Value:   "embeddinggemma",
				EnvVars: []string{"CORPUS_EMBEDDING_MODEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest documents (txt, md or pdf) into the corpus",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "category",
						Aliases: []string{"c"},
						Usage:   "Category tag attached to every chunk",
						Value:   "general",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks per embedding batch",
						Value: ingestion.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "rate-limit",
						Usage: "Embedding calls allowed per minute (0 = unlimited)",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts per embedding batch",
						Value: ingestion.DefaultMaxAttempts,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: ingestion.DefaultBaseDelay,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Run a hybrid query against the corpus",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "top-k",
						Aliases: []string{"k"},
						Usage:   "Number of results to return",
						Value:   5,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity for the dense leg",
						Value: search.DefaultSimilarityThreshold,
					},
					&cli.BoolFlag{
						Name:  "degraded",
						Usage: "Serve results from one leg if the other fails",
					},
					&cli.BoolFlag{
						Name:  "explain",
						Usage: "Show component scores for each result",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show corpus statistics",
				Action: statsCommand,
			},
			{
				Name:   "reindex",
				Usage:  "Rebuild the keyword index from stored chunks",
				Action: reindexCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openEngine(c *cli.Context) (*corpus.Engine, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	engine, err := corpus.NewEngine(c.String("db"), corpus.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus: %w", err)
	}
	return engine, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	opts := []ingestion.Option{
		ingestion.WithBatchSize(c.Int("batch-size")),
		ingestion.WithRetry(c.Int("max-retries"), c.Duration("retry-delay"), ingestion.DefaultMaxDelay),
	}
	if c.Int("rate-limit") > 0 {
		opts = append(opts, ingestion.WithRateLimitPerMinute(c.Int("rate-limit")))
	}

	pipeline, err := engine.NewIngestionPipeline(opts...)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	ctx := context.Background()
	category := c.String("category")

	for _, path := range c.Args().Slice() {
		text, err := readDocument(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", path, err)
			continue
		}

		report, err := pipeline.IngestDocument(ctx, text, filepath.Base(path), category)
		if err != nil {
			return fmt.Errorf("ingesting %s: %w", path, err)
		}

		if report.Skipped {
			fmt.Printf("%s: already ingested\n", path)
			continue
		}
		fmt.Printf("%s: %d chunks, %d/%d batches ok, %d indexed (%s)\n",
			path, report.ChunksTotal, report.BatchesSucceeded, report.BatchesTotal,
			report.ChunksIndexed, report.Elapsed.Round(time.Millisecond))
	}

	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}
	query := strings.Join(c.Args().Slice(), " ")

	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	searcher, err := engine.NewSearcher(
		search.WithSimilarityThreshold(float32(c.Float64("threshold"))),
		search.WithDegradedLegs(c.Bool("degraded")),
	)
	if err != nil {
		return err
	}

	results, err := searcher.Search(context.Background(), query, c.Int("top-k"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [%.3f] %s (%s)\n", i+1, hit.RerankScore, snippet(hit.Text, 100), hit.Metadata["file_name"])
		if c.Bool("explain") {
			fmt.Printf("   vector=%.3f keyword=%.3f metadata=%.3f rrf=%.4f\n",
				hit.VectorScore, hit.KeywordScore, hit.MetadataScore, hit.RRFScore)
		}
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Stored chunks:  %d\n", stats.StoredChunks)
	fmt.Printf("Indexed chunks: %d\n", stats.IndexedChunks)
	fmt.Printf("Indexed terms:  %d\n", stats.IndexedTerms)
	return nil
}

func reindexCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return err
	}
	defer engine.Close()

	if err := engine.Reindex(context.Background()); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	stats, err := engine.Stats(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Reindexed %d chunks\n", stats.IndexedChunks)
	return nil
}

// readDocument loads a file's text content, extracting plain text from
// PDFs and reading everything else verbatim.
func readDocument(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, reader, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("failed to open pdf: %w", err)
		}
		defer f.Close()

		content, err := reader.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("failed to extract pdf text: %w", err)
		}

		var buf bytes.Buffer
		if _, err := io.Copy(&buf, content); err != nil {
			return "", err
		}
		return buf.String(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// snippet truncates text for single-line display.
func snippet(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max] + "..."
}
