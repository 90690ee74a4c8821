package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"exam-relay/api/internal/llm"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type Engine struct {
	APIKey string
	Model  string
	// Endpoint overrides the API base URL; empty means the SDK default.
	Endpoint string
}

func New(apiKey, model string) *Engine {
	return &Engine{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
	}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

// Generate sends the system instruction and parts in a single call. The key is
// checked here rather than at construction so a missing key fails the request,
// not the process.
func (e *Engine) Generate(ctx context.Context, p llm.Prompt) (string, error) {
	if e.APIKey == "" {
		return "", fmt.Errorf("gemini: %w", llm.ErrMissingAPIKey)
	}
	opts := []option.ClientOption{option.WithAPIKey(e.APIKey)}
	if e.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(e.Endpoint))
	}
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("gemini: new client: %w", err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}
	if p.JSON {
		m.GenerationConfig.ResponseMIMEType = "application/json"
	}
	if p.System != "" {
		m.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(p.System)},
		}
	}

	resp, err := m.GenerateContent(ctx, toParts(p.Parts)...)
	if err != nil {
		return "", classifyError(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", fmt.Errorf("gemini: %w", llm.ErrEmptyResponse)
	}
	return txt, nil
}

func toParts(in []llm.Part) []genai.Part {
	parts := make([]genai.Part, 0, len(in))
	for _, p := range in {
		if p.IsBlob() {
			parts = append(parts, genai.Blob{MIMEType: p.MIMEType, Data: p.Data})
			continue
		}
		parts = append(parts, genai.Text(p.Text))
	}
	return parts
}

func classifyError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		body := gerr.Body
		if body == "" {
			body = gerr.Message
		}
		return &llm.UpstreamServiceError{Provider: "gemini", Status: gerr.Code, Body: body}
	}
	// Blocked prompts and candidates come back as a successful call with nothing usable.
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("gemini: %w: %v", llm.ErrEmptyResponse, blocked)
	}
	return fmt.Errorf("gemini: %w", err)
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
