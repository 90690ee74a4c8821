package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct{ name string }

func (s stubEngine) Name() string                                     { return s.name }
func (s stubEngine) GetModel() string                                 { return "m" }
func (s stubEngine) Generate(context.Context, Prompt) (string, error) { return "", nil }

func TestGetEngine(t *testing.T) {
	engs := &Engines{Gemini: stubEngine{"gemini"}, Vertex: stubEngine{"vertex"}}

	for in, want := range map[string]string{
		"":         "gemini",
		"gemini":   "gemini",
		" Google ": "gemini",
		"vertex":   "vertex",
		"VertexAI": "vertex",
	} {
		e, err := engs.GetEngine(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, e.Name(), in)
	}

	_, err := engs.GetEngine("openai")
	assert.ErrorContains(t, err, "unknown llm provider")

	_, err = (&Engines{}).GetEngine("vertex")
	assert.ErrorContains(t, err, "not configured")
}

func TestUpstreamServiceError(t *testing.T) {
	err := &UpstreamServiceError{Provider: "gemini", Status: 503, Body: "overloaded"}
	assert.Equal(t, "gemini upstream error: 503 - overloaded", err.Error())
}

func TestParts(t *testing.T) {
	assert.False(t, TextPart("x").IsBlob())
	assert.True(t, BlobPart("image/jpeg", nil).IsBlob())
}
