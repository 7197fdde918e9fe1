package dialogue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roguegoose-dev/goose-guidance/internal/ai"
	"github.com/roguegoose-dev/goose-guidance/internal/failure"
	"github.com/roguegoose-dev/goose-guidance/internal/persona"
	"github.com/roguegoose-dev/goose-guidance/internal/risk"
)

type stubText struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (s *stubText) Generate(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

type speechCall struct {
	text  string
	voice string
}

type stubSpeech struct {
	mu      sync.Mutex
	calls   []speechCall
	byVoice map[string]error
	cancel  context.CancelFunc
}

func (s *stubSpeech) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, speechCall{text: text, voice: voice})
	if err, ok := s.byVoice[voice]; ok {
		if s.cancel != nil {
			s.cancel()
		}
		return nil, err
	}
	return []byte("RIFF-" + voice), nil
}

func newOrchestrator(t *testing.T, text *stubText, speech *stubSpeech, log *zap.Logger) *Orchestrator {
	t.Helper()
	reg, err := persona.NewRegistry(persona.Defaults(), nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	var synth ai.SpeechSynthesizer
	if speech != nil {
		synth = speech
	}
	return NewOrchestrator(reg, risk.NewClassifier(nil, nil), text, synth, Options{}, log)
}

func TestUnknownPersonaMakesNoCalls(t *testing.T) {
	text := &stubText{reply: "hi"}
	speech := &stubSpeech{}
	o := newOrchestrator(t, text, speech, nil)

	_, err := o.GenerateReply(context.Background(), Request{PersonaID: "duck", Message: "hello"})
	if !failure.IsInvalidArgument(err) {
		t.Fatalf("expected invalid argument, got %v", err)
	}

	if len(text.prompts) != 0 || len(speech.calls) != 0 {
		t.Fatalf("expected zero provider calls, got %d text and %d speech", len(text.prompts), len(speech.calls))
	}
}

func TestInvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		req  Request
	}{
		{name: "blank message", req: Request{PersonaID: persona.OlGoose, Message: "   "}},
		{name: "unknown history persona", req: Request{
			PersonaID: persona.OlGoose,
			Message:   "hello",
			History:   []persona.Turn{{Role: persona.RoleAssistant, PersonaID: "duck", Text: "quack"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := &stubText{reply: "hi"}
			o := newOrchestrator(t, text, &stubSpeech{}, nil)

			_, err := o.GenerateReply(context.Background(), tt.req)
			if !failure.IsInvalidArgument(err) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
			if len(text.prompts) != 0 {
				t.Fatalf("expected no generation call, got %d", len(text.prompts))
			}
		})
	}
}

func TestReplyWithPrimaryVoice(t *testing.T) {
	text := &stubText{reply: "  Well now, what's your plan?  "}
	speech := &stubSpeech{}
	o := newOrchestrator(t, text, speech, nil)

	reply, err := o.GenerateReply(context.Background(), Request{
		PersonaID: persona.OlGoose,
		Message:   "I want to quit and start over",
		History: []persona.Turn{
			{Role: persona.RoleUser, Text: "Hey goose"},
			{Role: persona.RoleAssistant, PersonaID: persona.SergeantGoose, Text: "Speak up, recruit."},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Text != "Well now, what's your plan?" {
		t.Fatalf("unexpected reply text: %q", reply.Text)
	}
	if reply.Risk != risk.High {
		t.Fatalf("expected high risk, got %s", reply.Risk)
	}
	if reply.Speech.Status != SpeechSucceeded || reply.Speech.FellBack || reply.Speech.Voice != "Gacrux" {
		t.Fatalf("expected primary voice success, got %+v", reply.Speech)
	}

	prompt := text.prompts[0]
	for _, part := range []string{
		"User risk tolerance (rough estimate): high",
		"Ol' Goose: Hey goose\nSgt. Goose: Speak up, recruit.",
		`User: "I want to quit and start over"`,
	} {
		if !strings.Contains(prompt, part) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", part, prompt)
		}
	}

	if len(speech.calls) != 1 || speech.calls[0].text != reply.Text {
		t.Fatalf("expected one speech call with the reply text, got %+v", speech.calls)
	}
}

func TestSpeechFallbackSucceeds(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	speech := &stubSpeech{byVoice: map[string]error{"Alnilam": errors.New("voice unavailable")}}
	o := newOrchestrator(t, &stubText{reply: "Move, recruit!"}, speech, zap.New(core))

	reply, err := o.GenerateReply(context.Background(), Request{PersonaID: persona.SergeantGoose, Message: "help"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reply.Speech.HasAudio() || !reply.Speech.FellBack || reply.Speech.Voice != persona.DefaultFallbackVoice {
		t.Fatalf("expected fallback voice success, got %+v", reply.Speech)
	}
	if string(reply.Speech.Audio) != "RIFF-Kore" {
		t.Fatalf("expected fallback audio, got %q", reply.Speech.Audio)
	}
	if len(speech.calls) != 2 || speech.calls[0].voice != "Alnilam" || speech.calls[1].voice != "Kore" {
		t.Fatalf("expected primary then fallback voice, got %+v", speech.calls)
	}

	if logs.FilterMessage("primary voice failed").Len() != 1 {
		t.Fatalf("expected primary failure to be logged")
	}
}

func TestSpeechBothFailDegrades(t *testing.T) {
	speech := &stubSpeech{byVoice: map[string]error{
		"Puck": errors.New("primary down"),
		"Kore": errors.New("fallback down"),
	}}
	o := newOrchestrator(t, &stubText{reply: "Let's go!"}, speech, nil)

	reply, err := o.GenerateReply(context.Background(), Request{PersonaID: persona.GoGetterGoose, Message: "tell me about my options"})
	if err != nil {
		t.Fatalf("expected text-only success, got %v", err)
	}

	if reply.Text != "Let's go!" || reply.Risk != risk.Medium {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if reply.Speech.Status != SpeechDegraded || reply.Speech.HasAudio() {
		t.Fatalf("expected degraded speech, got %+v", reply.Speech)
	}
	if reply.Speech.PrimaryErr == nil || reply.Speech.FallbackErr == nil {
		t.Fatalf("expected both errors to be recorded, got %+v", reply.Speech)
	}
	if len(speech.calls) != 2 {
		t.Fatalf("expected exactly two speech attempts, got %d", len(speech.calls))
	}
}

func TestCancelledContextSkipsFallback(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	speech := &stubSpeech{byVoice: map[string]error{"Gacrux": context.Canceled}, cancel: cancel}
	o := newOrchestrator(t, &stubText{reply: "Easy now."}, speech, nil)

	reply, err := o.GenerateReply(ctx, Request{PersonaID: persona.OlGoose, Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reply.Speech.Status != SpeechDegraded {
		t.Fatalf("expected degraded speech, got %+v", reply.Speech)
	}
	if len(speech.calls) != 1 {
		t.Fatalf("expected fallback to be skipped, got %d calls", len(speech.calls))
	}
}

func TestEmptyTextFails(t *testing.T) {
	speech := &stubSpeech{}
	o := newOrchestrator(t, &stubText{reply: "   "}, speech, nil)

	_, err := o.GenerateReply(context.Background(), Request{PersonaID: persona.OlGoose, Message: "hi"})
	var empty *failure.EmptyResponse
	if !errors.As(err, &empty) {
		t.Fatalf("expected empty response error, got %v", err)
	}
	if len(speech.calls) != 0 {
		t.Fatalf("expected no speech for a failed reply, got %d calls", len(speech.calls))
	}
}

func TestTextErrorIsTerminal(t *testing.T) {
	text := &stubText{err: &failure.UpstreamError{Provider: "gemini", Status: 500}}
	o := newOrchestrator(t, text, &stubSpeech{}, nil)

	_, err := o.GenerateReply(context.Background(), Request{PersonaID: persona.OlGoose, Message: "hi"})
	if !failure.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(text.prompts) != 1 {
		t.Fatalf("expected a single generation attempt, got %d", len(text.prompts))
	}
}

func TestSpeechSkippedWithoutSynthesizer(t *testing.T) {
	o := newOrchestrator(t, &stubText{reply: "Howdy."}, nil, nil)

	reply, err := o.GenerateReply(context.Background(), Request{PersonaID: persona.OlGoose, Message: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Speech.Status != SpeechSkipped {
		t.Fatalf("expected skipped speech, got %+v", reply.Speech)
	}
}
