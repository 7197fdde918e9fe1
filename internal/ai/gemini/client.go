package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
)

const (
	providerName = "gemini"

	DefaultTextModel   = "gemini-2.5-flash"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVisionModel = "gemini-2.5-flash"

	defaultMaxLogLength = 200
)

// ContentGenerator is the part of the genai models service the adapters use.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient creates a genai client for the Gemini API backend. One client is
// shared by the generator, the speaker and the reader.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return client, nil
}

// responseText joins the non-thought text parts of every candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	return strings.TrimSpace(builder.String())
}

// wrapError maps genai API errors onto the shared failure taxonomy. Context
// errors stay reachable through errors.Is.
func wrapError(op string, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, &failure.UpstreamError{
			Provider: providerName,
			Status:   apiErr.Code,
			Body:     strings.TrimSpace(apiErr.Message),
		})
	}

	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return fmt.Errorf("%s: %w", op, &failure.UpstreamError{
			Provider: providerName,
			Status:   apiErrPtr.Code,
			Body:     strings.TrimSpace(apiErrPtr.Message),
		})
	}

	return fmt.Errorf("%s: %w", op, err)
}

func modelOrDefault(model, fallback string) string {
	if model = strings.TrimSpace(model); model == "" {
		return fallback
	}
	return model
}
