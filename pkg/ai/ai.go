// Package ai is the boundary to the external text-generation model.
// Callers depend on the Generator interface only; Gemini is the production implementation.
package ai

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrOverloaded signals a transient overload (HTTP 503) reported by the model.
	ErrOverloaded = errors.New("ai: model overloaded")
	// ErrEmptyResponse is returned when the model answers with no text.
	ErrEmptyResponse = errors.New("ai: empty response from model")
)

// Generator turns a single text prompt into the model's text answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Transcriber extracts the visible text of an image.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// StripCodeFences removes a surrounding markdown code fence (``` or ```json) if present.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line.
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
