package persona

import (
	"strings"
	"testing"

	"github.com/roguegoose-dev/goose-guidance/internal/failure"
)

func newDefaultRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(Defaults(), nil)
	if err != nil {
		t.Fatalf("building registry: %v", err)
	}
	return r
}

func TestDefaultsAreComplete(t *testing.T) {
	r := newDefaultRegistry(t)

	for _, id := range []ID{OlGoose, SergeantGoose, GoGetterGoose} {
		p, ok := r.Lookup(id)
		if !ok {
			t.Fatalf("expected persona %q to be registered", id)
		}
		if p.DisplayName == "" || p.Voice == "" {
			t.Fatalf("persona %q is missing display name or voice: %+v", id, p)
		}
		if strings.TrimSpace(p.Template) == "" {
			t.Fatalf("persona %q has an empty template", id)
		}
	}

	if got := r.IDs(); len(got) != 3 || got[0] != OlGoose {
		t.Fatalf("unexpected registration order: %v", got)
	}
}

func TestVoiceOverrides(t *testing.T) {
	r, err := NewRegistry(Defaults(), map[string]string{"sergeant-goose": " Orus "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, _ := r.Lookup(SergeantGoose)
	if p.Voice != "Orus" {
		t.Fatalf("expected overridden voice Orus, got %q", p.Voice)
	}

	if _, err := NewRegistry(Defaults(), map[string]string{"duck": "Kore"}); err == nil {
		t.Fatal("expected override for unknown persona to fail")
	}
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	personas := append(Defaults(), Persona{ID: OlGoose, DisplayName: "Twin"})
	if _, err := NewRegistry(personas, nil); err == nil {
		t.Fatal("expected duplicate persona to fail")
	}
}

func TestResolve(t *testing.T) {
	r := newDefaultRegistry(t)

	turns := []Turn{
		{Role: RoleUser, Text: "I want a change"},
		{Role: RoleAssistant, PersonaID: SergeantGoose, Text: "State your plan."},
	}

	resolved, err := r.Resolve(turns, GoGetterGoose)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resolved[0].PersonaID != GoGetterGoose {
		t.Fatalf("expected empty persona to inherit current, got %q", resolved[0].PersonaID)
	}
	if turns[0].PersonaID != "" {
		t.Fatalf("resolve must not mutate the caller's turns")
	}

	cases := []struct {
		name    string
		turns   []Turn
		current ID
	}{
		{name: "unknown current persona", current: "duck"},
		{name: "unknown history persona", turns: []Turn{{Role: RoleUser, PersonaID: "duck", Text: "hi"}}, current: OlGoose},
		{name: "unknown role", turns: []Turn{{Role: "system", Text: "hi"}}, current: OlGoose},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(tc.turns, tc.current)
			if !failure.IsInvalidArgument(err) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestTranscript(t *testing.T) {
	r := newDefaultRegistry(t)

	if got := r.Transcript(nil); got != EmptyTranscript {
		t.Fatalf("expected placeholder for empty history, got %q", got)
	}

	got := r.Transcript([]Turn{
		{Role: RoleAssistant, PersonaID: SergeantGoose, Text: "Drop and give me twenty."},
		{Role: RoleUser, PersonaID: OlGoose, Text: "  Thinking about quitting  "},
		{Role: RoleUser, PersonaID: OlGoose, Text: "   "},
	})

	expected := "Sgt. Goose: Drop and give me twenty.\nOl' Goose: Thinking about quitting"
	if got != expected {
		t.Fatalf("expected %q, got %q", expected, got)
	}
}
