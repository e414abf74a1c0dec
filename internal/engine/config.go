package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	ApolloAPIKey   string
	PDLAPIKey      string
	HunterAPIKey   string
	TavilyAPIKey   string
	ZoomInfoAPIKey string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string
	AnthropicModel  string
	OpenAIModel     string
	GeminiModel     string

	SourceTimeout time.Duration
	SourceRPS     float64 // 0 = unlimited
	BatchLimit    int

	DatabaseURL string
	PDFOutDir   string

	CacheMaxEntries      int
	CacheCleanupInterval time.Duration

	HTTPClient *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (sources, profile).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.HTTPClient == nil {
		c.HTTPClient = http.DefaultClient
	}
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = 30 * time.Second
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = 5
	}
	cfg = c
	Cfg = &cfg
}
