// Package vertex runs the upstream call against Vertex AI through the unified
// google.golang.org/genai SDK. Credentials come from Application Default
// Credentials of the hosting project.
package vertex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"exam-relay/api/internal/llm"

	"google.golang.org/genai"
)

type Engine struct {
	Project  string
	Location string
	Model    string
}

func New(project, location, model string) *Engine {
	return &Engine{
		Project:  strings.TrimSpace(project),
		Location: strings.TrimSpace(location),
		Model:    strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "vertex" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	if e.Project == "" {
		return "", errors.New("vertex: VERTEX_PROJECT is empty")
	}
	cl, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  e.Project,
		Location: e.Location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return "", fmt.Errorf("vertex: new client: %w", err)
	}

	resp, err := cl.Models.GenerateContent(ctx, e.Model, toContents(p.Parts), toConfig(p))
	if err != nil {
		return "", classifyError(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("vertex: %w", llm.ErrEmptyResponse)
	}
	return txt, nil
}

func toConfig(p llm.Prompt) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	}
	if p.JSON {
		cfg.ResponseMIMEType = "application/json"
	}
	if p.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: p.System}},
		}
	}
	return cfg
}

func toContents(in []llm.Part) []*genai.Content {
	parts := make([]*genai.Part, 0, len(in))
	for _, p := range in {
		if p.IsBlob() {
			parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
			continue
		}
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return upstreamError(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return upstreamError(*apiErrPtr)
	}
	return fmt.Errorf("vertex: %w", err)
}

func upstreamError(e genai.APIError) error {
	body, _ := json.Marshal(map[string]any{
		"code":    e.Code,
		"status":  e.Status,
		"message": e.Message,
	})
	return &llm.UpstreamServiceError{Provider: "vertex", Status: e.Code, Body: string(body)}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if p != nil && p.Text != "" && !p.Thought {
				return p.Text
			}
		}
	}
	return ""
}
