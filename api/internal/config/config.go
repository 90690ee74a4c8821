package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = "8000"
	DefaultGeminiModel    = "gemini-1.5-pro-latest"
	DefaultVertexLocation = "us-central1"
	DefaultTimeout        = 180 * time.Second
	DefaultMaxBodyBytes   = 50 << 20
)

type Config struct {
	Port     string
	Provider string // gemini | vertex

	GeminiAPIKey string
	GeminiModel  string

	VertexProject  string
	VertexLocation string
	VertexModel    string

	UpstreamTimeout time.Duration
	MaxBodyBytes    int64
	PromptDir       string
	LegacyTagParser bool
	LogLevel        string
}

// LoadDotEnv reads KEY=VALUE files into the environment without overriding
// variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func Load() *Config {
	geminiModel := getEnv("GEMINI_MODEL", DefaultGeminiModel)
	return &Config{
		Port:     getEnv("PORT", DefaultPort),
		Provider: strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),

		// The key is deliberately optional here: requests fail without it, startup does not.
		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  geminiModel,

		VertexProject:  getEnv("VERTEX_PROJECT", os.Getenv("GOOGLE_CLOUD_PROJECT")),
		VertexLocation: getEnv("VERTEX_LOCATION", DefaultVertexLocation),
		VertexModel:    getEnv("VERTEX_MODEL", geminiModel),

		UpstreamTimeout: getDuration("UPSTREAM_TIMEOUT", DefaultTimeout),
		MaxBodyBytes:    getInt64("MAX_BODY_BYTES", DefaultMaxBodyBytes),
		PromptDir:       os.Getenv("PROMPT_DIR"),
		LegacyTagParser: getBool("LEGACY_TAG_PARSER", false),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}
}

// Warnings lists settings that will make requests fail at call time.
func (c *Config) Warnings() []string {
	var w []string
	switch c.Provider {
	case "vertex", "vertexai":
		if c.VertexProject == "" {
			w = append(w, "VERTEX_PROJECT is empty; upstream calls will fail")
		}
	default:
		if c.GeminiAPIKey == "" {
			w = append(w, "GEMINI_API_KEY is empty; upstream calls will fail")
		}
	}
	if c.UpstreamTimeout <= 0 {
		w = append(w, "UPSTREAM_TIMEOUT is not positive; requests wait for the upstream indefinitely")
	}
	return w
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

// getDuration accepts Go durations ("90s") and bare seconds ("90").
func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func getInt64(k string, def int64) int64 {
	if n, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(k)), 10, 64); err == nil && n > 0 {
		return n
	}
	return def
}

func getBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(k))); err == nil {
		return b
	}
	return def
}
