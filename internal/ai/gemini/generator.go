package gemini

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
)

// DefaultTemperature keeps replies conversational without drifting.
const DefaultTemperature float32 = 0.7

// Generator produces persona reply text.
type Generator struct {
	models      ContentGenerator
	model       string
	temperature float32
	logger      *zap.Logger
	maxLogLen   int
}

// NewGenerator builds a text generator. An empty model selects DefaultTextModel,
// a non-positive temperature selects DefaultTemperature.
func NewGenerator(models ContentGenerator, model string, temperature float32, log *zap.Logger) *Generator {
	model = modelOrDefault(model, DefaultTextModel)
	if temperature <= 0 {
		temperature = DefaultTemperature
	}

	return &Generator{
		models:      models,
		model:       model,
		temperature: temperature,
		logger:      logger.WithCommonFields(log, providerName, model),
		maxLogLen:   defaultMaxLogLength,
	}
}

// Generate sends the prompt once and returns the reply text. Errors are not
// retried here.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, g.maxLogLen)),
	)

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(g.temperature)}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", wrapError("generate content", err)
	}

	output := responseText(resp)
	if output == "" {
		return "", &failure.EmptyResponse{Provider: providerName, What: "reply text"}
	}

	g.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(output)),
		zap.String("response_preview", logger.TruncateForLog(output, g.maxLogLen)),
	)

	return output, nil
}

// Model returns the model the generator talks to.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}
