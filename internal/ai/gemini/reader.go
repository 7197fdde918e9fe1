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

const extractInstruction = "Extract all readable text from this image. " +
	"Return only the text exactly as it appears, preserving line breaks. " +
	"Do not add commentary."

// Reader extracts text from images using a vision capable model.
type Reader struct {
	models    ContentGenerator
	model     string
	logger    *zap.Logger
	maxLogLen int
}

func NewReader(models ContentGenerator, model string, log *zap.Logger) *Reader {
	model = modelOrDefault(model, DefaultVisionModel)
	return &Reader{
		models:    models,
		model:     model,
		logger:    logger.WithCommonFields(log, providerName, model),
		maxLogLen: defaultMaxLogLength,
	}
}

// ExtractText sends the image and the extraction instruction as one user
// message and returns the text the model read.
func (r *Reader) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	if r == nil || r.models == nil {
		return "", errors.New("gemini reader is not initialized")
	}
	if len(image) == 0 {
		return "", errors.New("image must not be empty")
	}

	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		mimeType = "image/png"
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(image, mimeType),
		genai.NewPartFromText(extractInstruction),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := r.models.GenerateContent(ctx, r.model, contents, nil)
	if err != nil {
		return "", wrapError("extract text", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", &failure.EmptyResponse{Provider: providerName, What: "text"}
	}

	r.logger.Debug("gemini ocr response",
		zap.Int("image_bytes", len(image)),
		zap.Int("text_length", utf8.RuneCountInString(text)),
		zap.String("text_preview", logger.TruncateForLog(text, r.maxLogLen)),
	)

	return text, nil
}
