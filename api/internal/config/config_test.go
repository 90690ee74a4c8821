package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "LLM_PROVIDER", "GEMINI_API_KEY", "GEMINI_MODEL", "VERTEX_PROJECT",
		"GOOGLE_CLOUD_PROJECT", "VERTEX_LOCATION", "VERTEX_MODEL", "UPSTREAM_TIMEOUT",
		"MAX_BODY_BYTES", "PROMPT_DIR", "LEGACY_TAG_PARSER", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	c := Load()
	assert.Equal(t, DefaultPort, c.Port)
	assert.Equal(t, "gemini", c.Provider)
	assert.Empty(t, c.GeminiAPIKey)
	assert.Equal(t, DefaultGeminiModel, c.GeminiModel)
	assert.Equal(t, DefaultGeminiModel, c.VertexModel)
	assert.Equal(t, DefaultVertexLocation, c.VertexLocation)
	assert.Equal(t, DefaultTimeout, c.UpstreamTimeout)
	assert.Equal(t, int64(50<<20), c.MaxBodyBytes)
	assert.False(t, c.LegacyTagParser)
	assert.Equal(t, "info", c.LogLevel)

	assert.Contains(t, c.Warnings(), "GEMINI_API_KEY is empty; upstream calls will fail")
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LLM_PROVIDER", "Vertex")
	t.Setenv("GEMINI_API_KEY", " key ")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "dgt-prod")
	t.Setenv("UPSTREAM_TIMEOUT", "45")
	t.Setenv("MAX_BODY_BYTES", "1024")
	t.Setenv("LEGACY_TAG_PARSER", "true")

	c := Load()
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, "vertex", c.Provider)
	assert.Equal(t, "key", c.GeminiAPIKey)
	assert.Equal(t, "gemini-2.5-flash", c.VertexModel)
	assert.Equal(t, "dgt-prod", c.VertexProject)
	assert.Equal(t, 45*time.Second, c.UpstreamTimeout)
	assert.Equal(t, int64(1024), c.MaxBodyBytes)
	assert.True(t, c.LegacyTagParser)
	assert.Empty(t, c.Warnings())
}

func TestLoad_BadNumbersKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("UPSTREAM_TIMEOUT", "soon")
	t.Setenv("MAX_BODY_BYTES", "-5")
	t.Setenv("LEGACY_TAG_PARSER", "maybe")

	c := Load()
	assert.Equal(t, DefaultTimeout, c.UpstreamTimeout)
	assert.Equal(t, int64(DefaultMaxBodyBytes), c.MaxBodyBytes)
	assert.False(t, c.LegacyTagParser)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	const key = "EXAM_RELAY_DOTENV_TEST"
	t.Cleanup(func() { os.Unsetenv(key) })
	t.Setenv("GEMINI_MODEL", "from-process")

	p := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(p, []byte(key+"=from-file\nGEMINI_MODEL=from-file\n"), 0o644))

	require.NoError(t, LoadDotEnv(p, filepath.Join(t.TempDir(), "missing.env")))
	assert.Equal(t, "from-file", os.Getenv(key))
	assert.Equal(t, "from-process", os.Getenv("GEMINI_MODEL"), "existing env wins")
}
