package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/ouagalab/fasotour/internal/types"
	"github.com/ouagalab/fasotour/pkg/answer"
	"github.com/ouagalab/fasotour/pkg/cache"
	"github.com/ouagalab/fasotour/pkg/config"
	"github.com/ouagalab/fasotour/pkg/corpus"
	"github.com/ouagalab/fasotour/pkg/llm"
	"github.com/ouagalab/fasotour/pkg/rag"
	"github.com/ouagalab/fasotour/pkg/retriever"
	"github.com/ouagalab/fasotour/pkg/scraper"
	"github.com/ouagalab/fasotour/pkg/store"
	"github.com/ouagalab/fasotour/server"
)

type flags struct {
	configPath string
	serve      bool
	initCorpus bool
	fetchFile  string
}

func main() {
	f := parseFlags()

	if err := run(f); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func parseFlags() flags {
	var f flags
	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.BoolVar(&f.serve, "serve", false, "Run the REST API server")
	flag.BoolVar(&f.initCorpus, "init", false, "Clear the index and reload the corpus before anything else")
	flag.StringVar(&f.fetchFile, "fetch", "", "File of URLs to scrape into the corpus, one per line")
	flag.Parse()
	return f
}

func run(f flags) error {
	cfg, err := config.LoadConfig(f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid configuration", "field", e.Field, "message", e.Message)
		}
		return fmt.Errorf("configuration validation failed")
	}

	ctx := context.Background()

	// Encoder load failure is fatal: no chat traffic without embeddings.
	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Model:     cfg.Embedding.Model,
		BaseURL:   cfg.LLM.BaseURL,
		VectorDim: cfg.Embedding.VectorDim,
	})
	if err != nil {
		return err
	}

	index, err := buildIndex(ctx, cfg, embedder)
	if err != nil {
		return err
	}
	defer index.Close()

	retr, err := retriever.New(embedder, index, retriever.Config{
		TopK:                cfg.RAG.TopK,
		SimilarityThreshold: cfg.RAG.SimilarityThreshold,
	})
	if err != nil {
		return err
	}

	// The LLM tier is optional: without it the template tier answers.
	var gen types.Generator
	g, err := llm.NewGenerator(llm.GeneratorConfig{
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		TopK:        cfg.LLM.TopK,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		slog.Warn("LLM unavailable, falling back to template generation", "error", err)
	} else {
		gen = g
	}

	corpusStore := corpus.NewStore(cfg.Corpus.Path)
	if _, err := corpusStore.Load(); err != nil {
		slog.Warn("corpus not loaded", "error", err)
	}

	sourceLines, err := corpus.SourceLines(cfg.Corpus.SourcesPath)
	if err != nil {
		slog.Warn("sources file not loaded", "error", err)
	}

	pipeline, err := rag.New(embedder, index, retr, answer.New(gen), corpusStore, rag.Options{
		BatchSize:   cfg.Database.BatchSize,
		SourceLines: sourceLines,
	})
	if err != nil {
		return err
	}

	if f.fetchFile != "" {
		if err := fetchSources(ctx, cfg, corpusStore, f.fetchFile); err != nil {
			return err
		}
		f.initCorpus = true
	}

	if f.initCorpus {
		count, err := pipeline.Reinitialize(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize corpus: %w", err)
		}
		color.Green("✓ Corpus initialisé avec %d documents\n", count)
	}

	if f.serve {
		var responseCache *cache.ResponseCache
		if cfg.Cache.Enabled {
			responseCache = cache.New(cache.Config{
				Addr: cfg.Cache.Addr,
				TTL:  time.Duration(cfg.Cache.TTLSeconds) * time.Second,
			})
			defer responseCache.Close()
		}

		srv := server.New(server.Config{
			AppName:     cfg.App.Name,
			Version:     cfg.App.Version,
			Host:        cfg.Server.Host,
			Port:        cfg.Server.Port,
			CORSOrigins: cfg.Server.CORSOrigins,
			DefaultTopK: cfg.RAG.TopK,
		}, pipeline, responseCache, sourceLines)
		return srv.Run()
	}

	return chatLoop(ctx, pipeline)
}

func buildIndex(ctx context.Context, cfg *config.Config, embedder types.Embedder) (types.VectorIndex, error) {
	if cfg.Database.URL == "" {
		slog.Warn("no database URL configured, using in-memory vector index")
		return store.NewMemoryIndex(), nil
	}

	index, err := store.NewPgVectorIndex(ctx, store.PgVectorConfig{
		ConnString: cfg.Database.URL,
		TableName:  cfg.Database.TableName,
		VectorDim:  embedder.Dimension(),
		BatchSize:  cfg.Database.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}
	return index, nil
}

func fetchSources(ctx context.Context, cfg *config.Config, corpusStore *corpus.Store, fetchFile string) error {
	urls, err := corpus.SourceLines(fetchFile)
	if err != nil {
		return fmt.Errorf("failed to read URL list: %w", err)
	}
	if len(urls) == 0 {
		return fmt.Errorf("no URLs found in %s", fetchFile)
	}

	bar := progressbar.NewOptions(len(urls),
		progressbar.OptionSetDescription(color.BlueString("📄 Récupération des sources...")),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	s := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit:  cfg.Scraper.RateLimit,
		Timeout:    time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		OnProgress: func(string) { bar.Add(1) },
	})

	added, err := s.FetchInto(ctx, corpusStore, urls, "tourisme")
	if err != nil {
		return fmt.Errorf("failed to fetch sources: %w", err)
	}
	bar.Finish()
	color.Green("\n✓ %d documents ajoutés au corpus\n", added)

	if err := corpusStore.Save(); err != nil {
		return err
	}
	return corpusStore.SaveSources(cfg.Corpus.SourcesPath)
}

func chatLoop(ctx context.Context, pipeline *rag.Pipeline) error {
	color.Cyan("\nAssistant touristique Burkina Faso (tapez 'exit' pour quitter)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nVous: ")
		if !scanner.Scan() {
			break
		}

		query := scanner.Text()
		if strings.ToLower(strings.TrimSpace(query)) == "exit" {
			break
		}

		spinner := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription(color.CyanString("🔍 Recherche...")),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWidth(20),
		)

		result, err := pipeline.Chat(ctx, query, -1)
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Erreur: %v\n", err)
			continue
		}

		assistantPrompt("Assistant: %s\n", result.Response)
		if len(result.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, src := range result.Sources {
				fmt.Printf("  - %s (similarité %.2f)\n", src.Title, src.Similarity)
			}
		}
	}

	return scanner.Err()
}
