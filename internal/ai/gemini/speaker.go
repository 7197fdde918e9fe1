package gemini

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
)

// Speaker renders reply text as speech with a prebuilt Gemini voice.
type Speaker struct {
	models ContentGenerator
	model  string
	logger *zap.Logger
}

func NewSpeaker(models ContentGenerator, model string, log *zap.Logger) *Speaker {
	model = modelOrDefault(model, DefaultSpeechModel)
	return &Speaker{
		models: models,
		model:  model,
		logger: logger.WithCommonFields(log, providerName, model),
	}
}

// Synthesize returns WAV audio for text spoken by voice. Raw PCM from the
// model is wrapped in a WAV header.
func (s *Speaker) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if s == nil || s.models == nil {
		return nil, errors.New("gemini speaker is not initialized")
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("speech text must not be empty")
	}
	voice = strings.TrimSpace(voice)
	if voice == "" {
		return nil, errors.New("voice must not be empty")
	}

	cfg := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
			},
		},
	}

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(text), cfg)
	if err != nil {
		return nil, wrapError("synthesize speech", err)
	}

	blob := firstAudioBlob(resp)
	if blob == nil {
		return nil, &failure.EmptyResponse{Provider: providerName, What: "audio"}
	}

	s.logger.Debug("gemini speech response",
		zap.String("voice", voice),
		zap.String("mime_type", blob.MIMEType),
		zap.Int("audio_bytes", len(blob.Data)),
	)

	if isWAV(blob.MIMEType, blob.Data) {
		return blob.Data, nil
	}

	return encodeWAV(blob.Data, sampleRateFromMIME(blob.MIMEType)), nil
}

// Model returns the speech model in use.
func (s *Speaker) Model() string {
	if s == nil {
		return ""
	}
	return s.model
}

func firstAudioBlob(resp *genai.GenerateContentResponse) *genai.Blob {
	if resp == nil {
		return nil
	}
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			mime := strings.ToLower(part.InlineData.MIMEType)
			if mime != "" && !strings.HasPrefix(mime, "audio/") {
				continue
			}
			return part.InlineData
		}
	}
	return nil
}
