package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const transcribePrompt = "Transcribe every line of text visible in this receipt or document exactly as printed, " +
	"one line per output line. Do not summarise, translate or add commentary."

var tracer = otel.Tracer("github.com/FACorreiaa/pocket-ledger/pkg/ai")

var (
	_ Generator   = (*Gemini)(nil)
	_ Transcriber = (*Gemini)(nil)
)

// Gemini calls Google's Gemini models through the genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini builds a client for the Gemini API backend.
func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Generate sends one user prompt and returns the concatenated text parts.
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	return g.generate(ctx, "generate", contents)
}

// Transcribe runs OCR on an image by asking the model to copy its text.
func (g *Gemini) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: transcribePrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			},
		},
	}
	return g.generate(ctx, "transcribe", contents)
}

func (g *Gemini) generate(ctx context.Context, op string, contents []*genai.Content) (string, error) {
	ctx, span := tracer.Start(ctx, "gemini."+op, trace.WithAttributes(
		attribute.String("ai.model", g.model),
	))
	defer span.End()

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		err = classify(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		g.logger.Warn("gemini call failed",
			slog.String("op", op),
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err),
		)
		return "", err
	}

	text := resp.Text()
	if text == "" {
		span.SetStatus(codes.Error, "empty response")
		return "", ErrEmptyResponse
	}

	g.logger.Debug("gemini call completed",
		slog.String("op", op),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("response_chars", len(text)),
	)
	return text, nil
}

// classify maps the SDK's API errors onto ErrOverloaded where the service asks us to back off.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusServiceUnavailable || apiErr.Status == "UNAVAILABLE" {
			return fmt.Errorf("%w: %s", ErrOverloaded, apiErr.Message)
		}
		return fmt.Errorf("gemini api error %d: %s", apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("gemini request: %w", err)
}
