package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider names accepted in SKILLFORGE_PROVIDER.
const (
	ProviderAnthropic = "anthropic"
	ProviderVertex    = "vertex"
	ProviderGoogle    = "google"
	ProviderOpenAI    = "openai"
)

type Config struct {
	Provider string
	Model    string

	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	VertexProject   string
	VertexLocation  string

	GitHubToken string

	// MaxTokens is the single output-token ceiling shared by every backend.
	MaxTokens int

	ScratchDir string
	OutputDir  string
	InstallDir string

	ValidationScript string

	// GenTimeout bounds one generation call. Zero disables the bound.
	GenTimeout time.Duration
	// BatchPause is the fixed pause between repositories in batch mode.
	BatchPause time.Duration

	SurrealURL  string
	SurrealNS   string
	SurrealDB   string
	SurrealUser string
	SurrealPass string
}

func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Provider: os.Getenv("SKILLFORGE_PROVIDER"),
		Model:    os.Getenv("SKILLFORGE_MODEL"),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		VertexProject:   os.Getenv("VERTEX_PROJECT_ID"),
		VertexLocation:  os.Getenv("VERTEX_LOCATION"),

		GitHubToken: os.Getenv("GITHUB_TOKEN"),

		MaxTokens: envInt("SKILLFORGE_MAX_TOKENS", 8192),

		ScratchDir: os.Getenv("SKILLFORGE_SCRATCH_DIR"),
		OutputDir:  os.Getenv("SKILLFORGE_OUTPUT_DIR"),
		InstallDir: os.Getenv("SKILLFORGE_INSTALL_DIR"),

		ValidationScript: os.Getenv("SKILLFORGE_VALIDATION_SCRIPT"),

		GenTimeout: time.Duration(envInt("GENERATION_TIMEOUT", 300)) * time.Second,
		BatchPause: time.Duration(envInt("BATCH_PAUSE", 5)) * time.Second,

		SurrealURL:  os.Getenv("SURREAL_URL"),
		SurrealNS:   os.Getenv("SURREAL_NS"),
		SurrealDB:   os.Getenv("SURREAL_DB"),
		SurrealUser: os.Getenv("SURREAL_USER"),
		SurrealPass: os.Getenv("SURREAL_PASS"),
	}

	// The SDK appends /rpc automatically
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/rpc")
	cfg.SurrealURL = strings.TrimSuffix(cfg.SurrealURL, "/")

	if cfg.Provider == "" {
		cfg.Provider = ProviderAnthropic
	}
	if cfg.VertexLocation == "" {
		cfg.VertexLocation = "us-central1"
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "skillforge")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "output"
	}
	if cfg.InstallDir == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.InstallDir = filepath.Join(home, ".claude", "skills")
		} else {
			cfg.InstallDir = filepath.Join(".", "skills")
		}
	}

	return cfg
}

// HistoryEnabled reports whether a history store is configured.
func (c *Config) HistoryEnabled() bool {
	return c.SurrealURL != ""
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
