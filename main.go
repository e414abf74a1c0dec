// go_enrich — lead enrichment and content personalization service.
//
// Given an email address it queries people/company data providers, merges
// their responses into one normalized profile, drafts personalized marketing
// copy, and serves the result over HTTP with on-demand PDF rendering.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"

	"github.com/anatolykoptev/go_enrich/internal/engine"
	"github.com/anatolykoptev/go_enrich/internal/engine/profile"
	"github.com/anatolykoptev/go_enrich/internal/engine/sources"
	"github.com/anatolykoptev/go_enrich/internal/enrichserver"
	"github.com/anatolykoptev/go_enrich/internal/pdfgen"
	"github.com/anatolykoptev/go_enrich/internal/personalize"
	"github.com/anatolykoptev/go_enrich/internal/store"
)

var httpAddr = env.Str("HTTP_ADDR", ":8892")

func main() {
	initEngine()
	ctx := context.Background()

	st := openStore(ctx)
	defer st.Close()

	eng, err := profile.New(sources.All(), engine.Cfg.SourceRPS)
	if err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		os.Exit(1)
	}

	srv := enrichserver.NewServer(
		eng,
		personalize.NewGenerator(ctx),
		st,
		pdfgen.New(engine.Cfg.PDFOutDir),
	)

	slog.Info("starting go_enrich", slog.String("addr", httpAddr))
	if err := srv.Run(httpAddr); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func initEngine() {
	c := engine.Config{
		ApolloAPIKey:   env.Str("APOLLO_API_KEY", ""),
		PDLAPIKey:      env.Str("PDL_API_KEY", ""),
		HunterAPIKey:   env.Str("HUNTER_API_KEY", ""),
		TavilyAPIKey:   env.Str("TAVILY_API_KEY", ""),
		ZoomInfoAPIKey: env.Str("ZOOMINFO_API_KEY", ""),

		AnthropicAPIKey: env.Str("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    env.Str("OPENAI_API_KEY", ""),
		GeminiAPIKey:    env.Str("GEMINI_API_KEY", ""),
		AnthropicModel:  env.Str("ANTHROPIC_MODEL", ""),
		OpenAIModel:     env.Str("OPENAI_MODEL", ""),
		GeminiModel:     env.Str("GEMINI_MODEL", ""),

		SourceTimeout: env.Duration("SOURCE_TIMEOUT", 30*time.Second),
		SourceRPS:     env.Float("SOURCE_RPS", 0),
		BatchLimit:    env.Int("BATCH_LIMIT", 5),

		DatabaseURL: env.Str("DATABASE_URL", ""),
		PDFOutDir:   env.Str("PDF_OUT_DIR", filepath.Join(os.Getenv("HOME"), ".go_enrich", "pdf")),

		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),

		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	engine.Init(c)

	cacheTTL := env.Duration("CACHE_TTL", 15*time.Minute)
	engine.InitCache(env.Str("REDIS_URL", ""), cacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval)
}

// openStore picks Postgres when DATABASE_URL is set, SQLite otherwise.
func openStore(ctx context.Context) store.Store {
	if url := engine.Cfg.DatabaseURL; url != "" {
		st, err := store.ConnectPostgres(ctx, url)
		if err != nil {
			slog.Error("postgres init failed", slog.Any("error", err))
			os.Exit(1)
		}
		return st
	}

	path := filepath.Join(os.Getenv("HOME"), ".go_enrich", "enrich.db")
	st, err := store.OpenSQLite(path)
	if err != nil {
		slog.Error("sqlite init failed", slog.Any("error", err))
		os.Exit(1)
	}
	return st
}
