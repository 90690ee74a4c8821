package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPromptNotFound means no override file exists and the caller should use its
// built-in text.
var ErrPromptNotFound = errors.New("prompt override not found")

// LoadSystemPrompt reads <dir>/<name>.system.txt. An empty dir falls back to
// the PROMPT_DIR environment variable.
func LoadSystemPrompt(dir, name string) (string, error) {
	return loadPrompt(dir, name, "system")
}

func loadPrompt(dir, name, tp string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("prompt name is empty")
	}
	if dir == "" {
		dir = os.Getenv("PROMPT_DIR")
	}
	if dir == "" {
		return "", ErrPromptNotFound
	}
	p := filepath.Join(dir, fmt.Sprintf("%s.%s.txt", name, tp))
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrPromptNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read prompt %s: %w", p, err)
	}
	s := strings.TrimSpace(string(b))
	if s == "" {
		return "", ErrPromptNotFound
	}
	return s, nil
}
