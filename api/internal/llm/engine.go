package llm

import (
	"context"
	"fmt"
	"strings"
)

// Engine is one upstream generative-language backend. Generate issues exactly
// one call and returns the first text the model produced.
type Engine interface {
	Name() string
	GetModel() string
	Generate(ctx context.Context, p Prompt) (string, error)
}

type Engines struct {
	Gemini Engine
	Vertex Engine
}

func (e *Engines) GetEngine(name string) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gemini", "google":
		if e.Gemini != nil {
			return e.Gemini, nil
		}
	case "vertex", "vertexai":
		if e.Vertex != nil {
			return e.Vertex, nil
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q; use 'gemini' or 'vertex'", name)
	}
	return nil, fmt.Errorf("llm provider %q is not configured", name)
}
