// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration shared by the CLI subcommands and the serve command.
type Config struct {
	// Output layout (spec §6 "Persisted state layout").
	OutputDir    string // root of state/, output/decisions/, output/decisions.db, ...
	DecisionsDB  string // output/decisions.db
	VectorsDB    string // output/vectors.db
	GraphDB      string // output/reference_graph.db

	// serve HTTP settings.
	BindAddr     string // loopback-only, e.g. "127.0.0.1:8080"
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ShutdownTimeout time.Duration

	// Fetcher settings (§4.1).
	RequestDelay   time.Duration // minimum interval between outbound requests per scraper
	RequestTimeout time.Duration
	MaxRetries     int
	PoWDifficulty  int  // leading zero bits, default 16
	PoWEncrypt     bool // optional AES-CBC wrap of pow_data_raw (spec §9, disabled by default)
	CookieCacheTTL time.Duration
	HarvestTimeout time.Duration

	// Embedding provider settings.
	EmbeddingProvider   string // "auto", "openai", "ollama", or "noop"
	OpenAIAPIKey        string
	EmbeddingModel      string
	EmbeddingDimensions int
	OllamaURL           string
	OllamaModel         string
	EmbedBatchSize      int
	EnableSparse        bool
	EnableChunks        bool

	// Optional remote backends.
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string
	OpenSearchURL      string
	OpenSearchAPIKeyFile string
	OpenSearchIndex    string

	// OTEL settings (serve command only, see SPEC_FULL.md ambient stack).
	OTELEndpoint string
	OTELInsecure bool
	ServiceName  string

	// Operational settings.
	LogLevel            string
	MaxRequestBodyBytes int64
}

// Load reads configuration from environment variables with sensible defaults.
// Accumulates every parse error before returning, so a misconfigured deployment
// sees every bad variable in one pass instead of one-at-a-time.
func Load() (Config, error) {
	var errs []error
	cfg := Config{
		OutputDir:            envStr("JURA_OUTPUT_DIR", "./output"),
		BindAddr:             envStr("JURA_BIND", "127.0.0.1:8080"),
		EmbeddingProvider:    envStr("JURA_EMBEDDING_PROVIDER", "auto"),
		OpenAIAPIKey:         envStr("OPENAI_API_KEY", ""),
		EmbeddingModel:       envStr("JURA_EMBEDDING_MODEL", "text-embedding-3-small"),
		OllamaURL:            envStr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:          envStr("OLLAMA_MODEL", "mxbai-embed-large"),
		QdrantURL:            envStr("QDRANT_URL", ""),
		QdrantAPIKey:         envStr("QDRANT_API_KEY", ""),
		QdrantCollection:     envStr("QDRANT_COLLECTION", "jura_decisions"),
		OpenSearchURL:        envStr("JURA_OPENSEARCH_URL", ""),
		OpenSearchAPIKeyFile: envStr("JURA_OPENSEARCH_API_KEY_FILE", ""),
		OpenSearchIndex:      envStr("JURA_OPENSEARCH_INDEX", "jura-decisions"),
		OTELEndpoint:         envStr("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:          envStr("OTEL_SERVICE_NAME", "jura"),
		LogLevel:             envStr("JURA_LOG_LEVEL", "info"),
	}
	cfg.DecisionsDB = envStr("JURA_DECISIONS_DB", cfg.OutputDir+"/decisions.db")
	cfg.VectorsDB = envStr("JURA_VECTORS_DB", cfg.OutputDir+"/vectors.db")
	cfg.GraphDB = envStr("JURA_GRAPH_DB", cfg.OutputDir+"/reference_graph.db")

	cfg.EmbeddingDimensions, errs = collectInt(errs, "JURA_EMBEDDING_DIMENSIONS", 1024)
	cfg.EmbedBatchSize, errs = collectInt(errs, "JURA_EMBED_BATCH_SIZE", 32)
	cfg.MaxRetries, errs = collectInt(errs, "JURA_FETCH_MAX_RETRIES", 3)
	cfg.PoWDifficulty, errs = collectInt(errs, "JURA_POW_DIFFICULTY", 16)

	var maxReqBody int
	maxReqBody, errs = collectInt(errs, "JURA_MAX_REQUEST_BODY_BYTES", 1*1024*1024)
	cfg.MaxRequestBodyBytes = int64(maxReqBody)

	cfg.OTELInsecure, errs = collectBool(errs, "OTEL_EXPORTER_OTLP_INSECURE", false)
	cfg.EnableSparse, errs = collectBool(errs, "JURA_ENABLE_SPARSE", false)
	cfg.EnableChunks, errs = collectBool(errs, "JURA_ENABLE_CHUNKS", false)
	cfg.PoWEncrypt, errs = collectBool(errs, "JURA_POW_ENCRYPT", false)

	cfg.ReadTimeout, errs = collectDuration(errs, "JURA_READ_TIMEOUT", 30*time.Second)
	cfg.WriteTimeout, errs = collectDuration(errs, "JURA_WRITE_TIMEOUT", 30*time.Second)
	cfg.ShutdownTimeout, errs = collectDuration(errs, "JURA_SHUTDOWN_TIMEOUT", 10*time.Second)
	cfg.RequestDelay, errs = collectDuration(errs, "JURA_REQUEST_DELAY", 2*time.Second)
	cfg.RequestTimeout, errs = collectDuration(errs, "JURA_REQUEST_TIMEOUT", 30*time.Second)
	cfg.CookieCacheTTL, errs = collectDuration(errs, "JURA_COOKIE_CACHE_TTL", 15*time.Minute)
	cfg.HarvestTimeout, errs = collectDuration(errs, "JURA_HARVEST_TIMEOUT", 60*time.Second)

	if len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return Config{}, fmt.Errorf("config: invalid environment variables:\n  %s", strings.Join(msgs, "\n  "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func collectInt(errs []error, key string, fallback int) (int, []error) {
	v, err := envInt(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

func collectBool(errs []error, key string, fallback bool) (bool, []error) {
	v, err := envBool(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

func collectDuration(errs []error, key string, fallback time.Duration) (time.Duration, []error) {
	v, err := envDuration(key, fallback)
	if err != nil {
		errs = append(errs, err)
	}
	return v, errs
}

// Validate checks that required configuration is present and sane.
func (c Config) Validate() error {
	var errs []error

	if c.OutputDir == "" {
		errs = append(errs, errors.New("config: JURA_OUTPUT_DIR is required"))
	}
	if c.BindAddr == "" {
		errs = append(errs, errors.New("config: JURA_BIND is required"))
	}
	if c.EmbeddingDimensions <= 0 {
		errs = append(errs, errors.New("config: JURA_EMBEDDING_DIMENSIONS must be positive"))
	}
	if c.MaxRequestBodyBytes <= 0 {
		errs = append(errs, errors.New("config: JURA_MAX_REQUEST_BODY_BYTES must be positive"))
	}
	if c.ReadTimeout <= 0 {
		errs = append(errs, errors.New("config: JURA_READ_TIMEOUT must be positive"))
	}
	if c.WriteTimeout <= 0 {
		errs = append(errs, errors.New("config: JURA_WRITE_TIMEOUT must be positive"))
	}
	if c.PoWDifficulty <= 0 || c.PoWDifficulty > 64 {
		errs = append(errs, errors.New("config: JURA_POW_DIFFICULTY must be between 1 and 64"))
	}
	if c.RequestDelay < 0 {
		errs = append(errs, errors.New("config: JURA_REQUEST_DELAY must not be negative"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("config: JURA_FETCH_MAX_RETRIES must not be negative"))
	}
	if c.OpenSearchAPIKeyFile != "" {
		if err := validateKeyFile(c.OpenSearchAPIKeyFile, "JURA_OPENSEARCH_API_KEY_FILE"); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// validateKeyFile checks that a key file exists, is readable, is non-empty,
// and has restrictive permissions (owner-only on Unix).
func validateKeyFile(path, envVar string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("config: %s %q: %w", envVar, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config: %s %q is a directory, expected a file", envVar, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("config: %s %q is empty", envVar, path)
	}
	perm := info.Mode().Perm()
	if perm&0o077 != 0 {
		return fmt.Errorf("config: %s %q has overly permissive mode %04o (expected 0600 or stricter)", envVar, path, perm)
	}
	return nil
}

func envStr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid integer", key, v)
	}
	return n, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s=%q is not a valid boolean", key, v)
	}
	return b, nil
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s=%q is not a valid duration", key, v)
	}
	return d, nil
}
