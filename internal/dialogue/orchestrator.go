// Package dialogue turns one user utterance into a persona reply with speech.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/ai"
	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/logger"
	"github.com/roguegoose-dev/goose-guidance/internal/persona"
	"github.com/roguegoose-dev/goose-guidance/internal/prompt"
	"github.com/roguegoose-dev/goose-guidance/internal/risk"
)

// Stage names a step of the reply pipeline. Stages run strictly in order.
type Stage string

const (
	StageValidating      Stage = "validating"
	StageClassifyingRisk Stage = "classifying_risk"
	StageBuildingPrompt  Stage = "building_prompt"
	StageGeneratingText  Stage = "generating_text"
	StageSpeechPrimary   Stage = "speech_primary"
	StageSpeechFallback  Stage = "speech_fallback"
	StageDone            Stage = "done"
	StageFailed          Stage = "failed"
)

// Request is one dialogue turn as sent by a caller.
type Request struct {
	PersonaID persona.ID
	Message   string
	History   []persona.Turn
}

// Reply is the result of a dialogue turn. Text is never empty.
type Reply struct {
	Persona persona.Persona
	Risk    risk.Level
	Text    string
	Speech  SpeechOutcome
}

// Options tune an Orchestrator.
type Options struct {
	// FallbackVoice is tried once when the persona voice fails.
	FallbackVoice string
	// MaxLogLength caps prompt previews in debug logs.
	MaxLogLength int
}

// Orchestrator runs the reply pipeline. It keeps no per-request state and is
// safe for concurrent use.
type Orchestrator struct {
	personas      *persona.Registry
	classifier    *risk.Classifier
	text          ai.TextGenerator
	speech        ai.SpeechSynthesizer
	fallbackVoice string
	maxLogLen     int
	logger        *zap.Logger
}

// NewOrchestrator wires the pipeline. speech may be nil, in which case
// replies come back with a skipped speech outcome.
func NewOrchestrator(personas *persona.Registry, classifier *risk.Classifier, text ai.TextGenerator, speech ai.SpeechSynthesizer, opts Options, log *zap.Logger) *Orchestrator {
	if classifier == nil {
		classifier = risk.NewClassifier(nil, nil)
	}
	fallback := strings.TrimSpace(opts.FallbackVoice)
	if fallback == "" {
		fallback = persona.DefaultFallbackVoice
	}
	maxLogLen := opts.MaxLogLength
	if maxLogLen <= 0 {
		maxLogLen = 200
	}

	return &Orchestrator{
		personas:      personas,
		classifier:    classifier,
		text:          text,
		speech:        speech,
		fallbackVoice: fallback,
		maxLogLen:     maxLogLen,
		logger:        logger.WithFields(log),
	}
}

// GenerateReply validates the request, composes the prompt, generates the
// reply text once and then synthesizes speech with a single fallback.
// Validation failures are returned before any provider is called. A speech
// failure never fails the reply.
func (o *Orchestrator) GenerateReply(ctx context.Context, req Request) (*Reply, error) {
	started := time.Now()
	log := o.logger.With(zap.String(logger.FieldPersona, string(req.PersonaID)))

	fail := func(stage Stage, err error) (*Reply, error) {
		log.Debug(string(StageFailed), zap.String("stage", string(stage)), zap.Error(err))
		return nil, err
	}

	log.Debug(string(StageValidating), zap.Int("history_turns", len(req.History)))

	if o.personas == nil || o.text == nil {
		return fail(StageValidating, errors.New("dialogue orchestrator is not initialized"))
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return fail(StageValidating, failure.Invalid("message", "must not be empty"))
	}

	history, err := o.personas.Resolve(req.History, req.PersonaID)
	if err != nil {
		return fail(StageValidating, err)
	}
	p, _ := o.personas.Lookup(req.PersonaID)

	level := o.classifier.Classify(message)
	log.Debug(string(StageClassifyingRisk), zap.String("risk", string(level)))

	composed := prompt.Build(p, level, o.personas.Transcript(history), message)
	log.Debug(string(StageBuildingPrompt),
		zap.Int("prompt_length", utf8.RuneCountInString(composed)),
		zap.String("prompt_preview", logger.TruncateForLog(composed, o.maxLogLen)),
	)

	log.Debug(string(StageGeneratingText))
	text, err := o.text.Generate(ctx, composed)
	if err != nil {
		return fail(StageGeneratingText, fmt.Errorf("generate reply text: %w", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fail(StageGeneratingText, &failure.EmptyResponse{Provider: "text generator", What: "reply text"})
	}

	speech := o.synthesize(ctx, log, text, p.Voice)

	log.Debug(string(StageDone),
		zap.String("speech", string(speech.Status)),
		zap.Bool("fell_back", speech.FellBack),
		zap.Duration("duration", time.Since(started)),
	)

	return &Reply{
		Persona: p,
		Risk:    level,
		Text:    text,
		Speech:  speech,
	}, nil
}

func (o *Orchestrator) synthesize(ctx context.Context, log *zap.Logger, text, voice string) SpeechOutcome {
	if o.speech == nil {
		return SpeechOutcome{Status: SpeechSkipped}
	}

	if voice == "" {
		voice = o.fallbackVoice
	}

	log.Debug(string(StageSpeechPrimary), zap.String("voice", voice))
	audio, primaryErr := o.speech.Synthesize(ctx, text, voice)
	if primaryErr == nil && len(audio) > 0 {
		return succeeded(audio, voice, false)
	}
	if primaryErr == nil {
		primaryErr = errors.New("speech synthesizer returned no audio")
	}
	log.Warn("primary voice failed", zap.String("voice", voice), zap.Error(primaryErr))

	if err := ctx.Err(); err != nil {
		return degraded(primaryErr, err)
	}

	log.Debug(string(StageSpeechFallback), zap.String("voice", o.fallbackVoice))
	audio, fallbackErr := o.speech.Synthesize(ctx, text, o.fallbackVoice)
	if fallbackErr == nil && len(audio) > 0 {
		return succeeded(audio, o.fallbackVoice, true)
	}
	if fallbackErr == nil {
		fallbackErr = errors.New("speech synthesizer returned no audio")
	}
	log.Warn("fallback voice failed, replying without audio", zap.String("voice", o.fallbackVoice), zap.Error(fallbackErr))

	return degraded(primaryErr, fallbackErr)
}
