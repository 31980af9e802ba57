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
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/retrievit"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
)

func main() {
	app := &cli.App{
		Name:  "retrievit",
		Usage: "Hybrid retrieval and reranking backend for knowledge bases",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "warn",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search the knowledge base",
				ArgsUsage: "<query>",
				Action:    searchCommand,
				Flags: append(engineFlags(),
					&cli.StringFlag{
						Name:  "space",
						Usage: "Restrict results to one knowledge-base space",
					},
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results",
						Value:   core.DefaultLimit,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print results as JSON",
					},
				),
			},
			{
				Name:      "index",
				Usage:     "Index documents from a JSONL file (one payload per line)",
				ArgsUsage: "<file>",
				Action:    indexCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of documents to index per batch",
						Value: 64,
					},
				),
			},
			{
				Name:      "rate",
				Usage:     "Record user feedback for a past query",
				ArgsUsage: "<query>",
				Action:    rateCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:     "rating",
						Aliases:  []string{"r"},
						Usage:    "Rating from 1 (useless) to 5 (perfect)",
						Required: true,
					},
				),
			},
			{
				Name:   "log",
				Usage:  "Inspect the semantic query log",
				Action: logCommand,
				Flags: append(engineFlags(),
					&cli.IntFlag{
						Name:  "top",
						Usage: "Number of entries to show per section",
						Value: 10,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Path to the data directory",
			Required: true,
			EnvVars:  []string{"RETRIEVIT_DATA"},
		},
		&cli.StringFlag{
			Name:    "ai-host",
			Usage:   "OpenAI-compatible service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"RETRIEVIT_AI_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"RETRIEVIT_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "rewrite-model",
			Usage:   "Query rewriting model name",
			Value:   "qwen2.5:3b",
			EnvVars: []string{"RETRIEVIT_REWRITE_MODEL"},
		},
		&cli.StringFlag{
			Name:    "rerank-model",
			Usage:   "Pairwise relevance model name (defaults to rewrite model)",
			EnvVars: []string{"RETRIEVIT_RERANK_MODEL"},
		},
	}
}

func openEngine(ctx context.Context, c *cli.Context) (*retrievit.Engine, error) {
	config := ai.NewConfig(
		ai.WithHost(c.String("ai-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithRewriteModel(c.String("rewrite-model")),
		ai.WithRerankModel(c.String("rerank-model")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return retrievit.NewEngine(ctx, c.String("data"), retrievit.WithAIConfig(config))
}

func searchCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	ctx := context.Background()
	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	pipeline, err := engine.NewSearchPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	resp, err := pipeline.Search(ctx, core.SearchRequest{
		Query: query,
		Space: c.String("space"),
		Limit: c.Int("limit"),
	})
	if err != nil {
		return err
	}

	if c.Bool("json") {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(resp)
	}

	fmt.Printf("intent: %s", resp.Intent)
	if resp.Space != "" {
		fmt.Printf("  space: %s", resp.Space)
	}
	fmt.Printf("  rewriter: %s", resp.Rewrite.Provider)
	if resp.Rewrite.FromCache {
		fmt.Print(" (cached)")
	}
	fmt.Println()

	if len(resp.Results) == 0 {
		fmt.Println("no results")
		return nil
	}

	for i, result := range resp.Results {
		fmt.Printf("%2d. %-40s  %s  score=%.4f", i+1, result.Payload.Title, result.Payload.PageID, result.FinalScore)
		if !result.Reranked {
			fmt.Print("  (not reranked)")
		}
		fmt.Println()
	}
	return nil
}

func indexCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("input file is required")
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	ctx := context.Background()
	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	batchSize := c.Int("batch-size")
	if batchSize < 1 {
		batchSize = 1
	}

	var batch []core.Payload
	total := 0
	lineNo := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		indexed, err := engine.IndexDocuments(ctx, batch...)
		if err != nil {
			return err
		}
		total += indexed
		batch = batch[:0]
		return nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var doc seedDocument
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}

		batch = append(batch, doc.payload())
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	if err := flush(); err != nil {
		return err
	}

	fmt.Printf("indexed %d documents\n", total)
	return nil
}

func rateCommand(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("query is required")
	}

	ctx := context.Background()
	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	return engine.RateQuery(ctx, query, c.Int("rating"))
}

func logCommand(c *cli.Context) error {
	ctx := context.Background()
	engine, err := openEngine(ctx, c)
	if err != nil {
		return err
	}
	defer engine.Close()

	queryLog := engine.QueryLog()
	top := c.Int("top")

	fmt.Printf("entries: %d\n", queryLog.Len())

	successful := queryLog.SuccessfulQueries(top)
	if len(successful) > 0 {
		fmt.Println("\ntop successful queries:")
		for _, query := range successful {
			fmt.Printf("  %s\n", query)
		}
	}

	terms := queryLog.ExpansionTerms(top)
	if len(terms) > 0 {
		fmt.Println("\nexpansion terms:")
		for _, term := range terms {
			fmt.Printf("  %-30s rating=%.1f count=%d\n", term.Query, term.AvgRating, term.Count)
		}
	}
	return nil
}

// seedDocument is one JSONL line of the index input.
type seedDocument struct {
	PageID      string `json:"page_id"`
	Title       string `json:"title"`
	Space       string `json:"space"`
	HeadingPath string `json:"heading_path"`
	Breadcrumb  string `json:"breadcrumb"`
	ParentTitle string `json:"parent_title"`
	Text        string `json:"text"`
}

func (d seedDocument) payload() core.Payload {
	return core.Payload{
		PageID:      d.PageID,
		Title:       d.Title,
		Space:       d.Space,
		HeadingPath: d.HeadingPath,
		Breadcrumb:  d.Breadcrumb,
		ParentTitle: d.ParentTitle,
		Text:        d.Text,
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
