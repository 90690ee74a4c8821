package util

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBase64MaybeDataURL(t *testing.T) {
	raw := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x10}

	tests := []struct {
		name     string
		in       string
		wantMIME string
	}{
		{"std", base64.StdEncoding.EncodeToString(raw), ""},
		{"url safe", base64.URLEncoding.EncodeToString(raw), ""},
		{"unpadded", base64.RawStdEncoding.EncodeToString(raw), ""},
		{"data url", "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw), "image/png"},
		{"padded with spaces", "  " + base64.StdEncoding.EncodeToString(raw) + "\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, mime, err := DecodeBase64MaybeDataURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
			assert.Equal(t, tt.wantMIME, mime)
		})
	}
}

func TestDecodeBase64MaybeDataURL_Invalid(t *testing.T) {
	_, _, err := DecodeBase64MaybeDataURL("not base64 at all!")
	assert.Error(t, err)

	_, _, err = DecodeBase64MaybeDataURL("data:image/jpeg;base64,")
	assert.ErrorIs(t, err, ErrEmptyImage)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `[{"a":1}]`, StripCodeFences("```json\n[{\"a\":1}]\n```"))
	assert.Equal(t, `{"a":1}`, StripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `plain`, StripCodeFences("  plain  "))
}

func TestLoadSystemPrompt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "image.system.txt"), []byte("  custom image prompt\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.system.txt"), []byte("   "), 0o644))

	got, err := LoadSystemPrompt(dir, "image")
	require.NoError(t, err)
	assert.Equal(t, "custom image prompt", got)

	_, err = LoadSystemPrompt(dir, "followup")
	assert.ErrorIs(t, err, ErrPromptNotFound)

	_, err = LoadSystemPrompt(dir, "test")
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestLoadSystemPrompt_EnvDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "followup.system.txt"), []byte("from env"), 0o644))
	t.Setenv("PROMPT_DIR", dir)

	got, err := LoadSystemPrompt("", "followup")
	require.NoError(t, err)
	assert.Equal(t, "from env", got)
}
