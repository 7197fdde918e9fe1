// Package ai declares the narrow capabilities the dialogue pipeline and the
// OCR endpoint need from a generation provider.
package ai

import "context"

// TextGenerator turns a composed prompt into reply text. An empty reply is
// reported as an error, never returned as a valid result.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SpeechSynthesizer renders text as WAV audio with the named voice.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// TextExtractor reads the text found in an image.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, mimeType string) (string, error)
}
