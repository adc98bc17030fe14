package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestEnvIntValid(t *testing.T) {
	t.Setenv("TEST_INT", "42")
	v, err := envInt("TEST_INT", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
}

func TestEnvIntFallback(t *testing.T) {
	v, err := envInt("TEST_INT_MISSING", 99)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 99 {
		t.Fatalf("expected fallback 99, got %d", v)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("TEST_INT_BAD", "abc")
	_, err := envInt("TEST_INT_BAD", 0)
	if err == nil {
		t.Fatal("expected error for non-integer value, got nil")
	}
	if got := err.Error(); got != `TEST_INT_BAD="abc" is not a valid integer` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvBoolValid(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")
	v, err := envBool("TEST_BOOL", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v {
		t.Fatal("expected true")
	}
}

func TestEnvBoolInvalid(t *testing.T) {
	t.Setenv("TEST_BOOL_BAD", "maybe")
	_, err := envBool("TEST_BOOL_BAD", false)
	if err == nil {
		t.Fatal("expected error for non-boolean value, got nil")
	}
	if got := err.Error(); got != `TEST_BOOL_BAD="maybe" is not a valid boolean` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestEnvDurationValid(t *testing.T) {
	t.Setenv("TEST_DUR", "5s")
	v, err := envDuration("TEST_DUR", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Seconds() != 5 {
		t.Fatalf("expected 5s, got %s", v)
	}
}

func TestEnvDurationInvalid(t *testing.T) {
	t.Setenv("TEST_DUR_BAD", "five-seconds")
	_, err := envDuration("TEST_DUR_BAD", 0)
	if err == nil {
		t.Fatal("expected error for invalid duration, got nil")
	}
	if got := err.Error(); got != `TEST_DUR_BAD="five-seconds" is not a valid duration` {
		t.Fatalf("unexpected error message: %s", got)
	}
}

func TestLoadFailsOnInvalidDimensions(t *testing.T) {
	t.Setenv("JURA_EMBEDDING_DIMENSIONS", "abc")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with invalid JURA_EMBEDDING_DIMENSIONS")
	}
	if got := err.Error(); !contains(got, "JURA_EMBEDDING_DIMENSIONS") || !contains(got, "abc") {
		t.Fatalf("error should mention JURA_EMBEDDING_DIMENSIONS and value 'abc', got: %s", got)
	}
}

func TestLoadFailsOnMultipleInvalid(t *testing.T) {
	t.Setenv("JURA_EMBEDDING_DIMENSIONS", "xyz")
	t.Setenv("JURA_POW_DIFFICULTY", "nope")
	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail with multiple invalid vars")
	}
	got := err.Error()
	if !contains(got, "JURA_EMBEDDING_DIMENSIONS") {
		t.Fatalf("error should mention JURA_EMBEDDING_DIMENSIONS, got: %s", got)
	}
	if !contains(got, "JURA_POW_DIFFICULTY") {
		t.Fatalf("error should mention JURA_POW_DIFFICULTY, got: %s", got)
	}
}

func TestLoadSucceedsWithDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed with defaults, got: %v", err)
	}
	if cfg.BindAddr != "127.0.0.1:8080" {
		t.Fatalf("expected default bind 127.0.0.1:8080, got %s", cfg.BindAddr)
	}
	if cfg.PoWDifficulty != 16 {
		t.Fatalf("expected default PoW difficulty 16, got %d", cfg.PoWDifficulty)
	}
	if cfg.PoWEncrypt {
		t.Fatal("expected PoW AES encryption disabled by default (spec §9)")
	}
	if cfg.EnableChunks {
		t.Fatal("expected chunk-level embeddings disabled by default")
	}
}

func contains(s, substr string) bool {
	return len(s) >= len(substr) && searchSubstring(s, substr)
}

func searchSubstring(s, substr string) bool {
	for i := 0; i <= len(s)-len(substr); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}

func TestLoad_OpenSearchKeyFileValidation(t *testing.T) {
	bogusPath := filepath.Join(t.TempDir(), "nonexistent-key-file")
	t.Setenv("JURA_OPENSEARCH_API_KEY_FILE", bogusPath)

	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail when JURA_OPENSEARCH_API_KEY_FILE points to a nonexistent file")
	}
	got := err.Error()
	if !contains(got, bogusPath) {
		t.Fatalf("error should mention the path %q, got: %s", bogusPath, got)
	}
}

func TestLoad_OpenSearchKeyFilePermissions(t *testing.T) {
	keyPath := filepath.Join(t.TempDir(), "opensearch.key")
	if err := os.WriteFile(keyPath, []byte("secret"), 0o644); err != nil {
		t.Fatalf("write key file: %v", err)
	}
	t.Setenv("JURA_OPENSEARCH_API_KEY_FILE", keyPath)

	_, err := Load()
	if err == nil {
		t.Fatal("expected Load() to fail for a world-readable key file")
	}
	if !contains(err.Error(), "overly permissive") {
		t.Fatalf("error should mention permissions, got: %s", err.Error())
	}
}

func TestLoad_OTELEndpointParsing(t *testing.T) {
	endpoint := "https://otel.example.com:4317"
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", endpoint)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed, got: %v", err)
	}
	if cfg.OTELEndpoint != endpoint {
		t.Fatalf("expected OTELEndpoint %q, got %q", endpoint, cfg.OTELEndpoint)
	}
}

func TestLoad_EmbeddingProviderSelection(t *testing.T) {
	t.Setenv("JURA_EMBEDDING_PROVIDER", "ollama")
	t.Setenv("OLLAMA_URL", "http://localhost:11434")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed, got: %v", err)
	}
	if cfg.EmbeddingProvider != "ollama" {
		t.Fatalf("expected EmbeddingProvider %q, got %q", "ollama", cfg.EmbeddingProvider)
	}
	if cfg.OllamaURL != "http://localhost:11434" {
		t.Fatalf("expected OllamaURL %q, got %q", "http://localhost:11434", cfg.OllamaURL)
	}
}

func TestLoad_QdrantURLOptional(t *testing.T) {
	t.Run("explicit URL", func(t *testing.T) {
		qdrantURL := "https://qdrant.example.com:6334"
		t.Setenv("QDRANT_URL", qdrantURL)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected Load() to succeed, got: %v", err)
		}
		if cfg.QdrantURL != qdrantURL {
			t.Fatalf("expected QdrantURL %q, got %q", qdrantURL, cfg.QdrantURL)
		}
	})

	t.Run("empty default", func(t *testing.T) {
		cfg, err := Load()
		if err != nil {
			t.Fatalf("expected Load() to succeed, got: %v", err)
		}
		if cfg.QdrantURL != "" {
			t.Fatalf("expected empty QdrantURL by default, got %q", cfg.QdrantURL)
		}
	})
}

func TestLoad_AllEnvVarsHonored(t *testing.T) {
	t.Setenv("JURA_OUTPUT_DIR", "/tmp/jura-test-output")
	t.Setenv("JURA_BIND", "127.0.0.1:9090")
	t.Setenv("JURA_EMBEDDING_DIMENSIONS", "768")
	t.Setenv("JURA_POW_DIFFICULTY", "20")
	t.Setenv("JURA_POW_ENCRYPT", "true")
	t.Setenv("JURA_REQUEST_DELAY", "3s")
	t.Setenv("JURA_FETCH_MAX_RETRIES", "5")
	t.Setenv("OTEL_SERVICE_NAME", "jura-test")
	t.Setenv("JURA_LOG_LEVEL", "debug")
	t.Setenv("JURA_ENABLE_SPARSE", "true")
	t.Setenv("JURA_ENABLE_CHUNKS", "true")
	t.Setenv("JURA_SHUTDOWN_TIMEOUT", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected Load() to succeed, got: %v", err)
	}

	if cfg.OutputDir != "/tmp/jura-test-output" {
		t.Fatalf("expected OutputDir override, got %q", cfg.OutputDir)
	}
	if cfg.BindAddr != "127.0.0.1:9090" {
		t.Fatalf("expected BindAddr override, got %q", cfg.BindAddr)
	}
	if cfg.EmbeddingDimensions != 768 {
		t.Fatalf("expected EmbeddingDimensions 768, got %d", cfg.EmbeddingDimensions)
	}
	if cfg.PoWDifficulty != 20 {
		t.Fatalf("expected PoWDifficulty 20, got %d", cfg.PoWDifficulty)
	}
	if !cfg.PoWEncrypt {
		t.Fatal("expected PoWEncrypt true")
	}
	if cfg.RequestDelay != 3*time.Second {
		t.Fatalf("expected RequestDelay 3s, got %s", cfg.RequestDelay)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("expected MaxRetries 5, got %d", cfg.MaxRetries)
	}
	if cfg.ServiceName != "jura-test" {
		t.Fatalf("expected ServiceName %q, got %q", "jura-test", cfg.ServiceName)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected LogLevel %q, got %q", "debug", cfg.LogLevel)
	}
	if !cfg.EnableSparse {
		t.Fatal("expected EnableSparse true")
	}
	if !cfg.EnableChunks {
		t.Fatal("expected EnableChunks true")
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("expected ShutdownTimeout 15s, got %s", cfg.ShutdownTimeout)
	}
}
