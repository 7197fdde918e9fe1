// Package persona holds the goose personas and the conversation turns that
// reference them.
package persona

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
)

// ID identifies a persona.
type ID string

const (
	OlGoose       ID = "ol-goose"
	SergeantGoose ID = "sergeant-goose"
	GoGetterGoose ID = "go-getter-goose"
)

// DefaultFallbackVoice is a prebuilt voice every speech model accepts.
const DefaultFallbackVoice = "Kore"

// Persona is a response style plus the voice it speaks with.
type Persona struct {
	ID          ID
	DisplayName string
	Template    string
	Voice       string
}

var (
	//go:embed templates/ol-goose.md
	olGooseTemplate string
	//go:embed templates/sergeant-goose.md
	sergeantGooseTemplate string
	//go:embed templates/go-getter-goose.md
	goGetterGooseTemplate string
)

// Defaults returns the built-in personas.
func Defaults() []Persona {
	return []Persona{
		{ID: OlGoose, DisplayName: "Ol' Goose", Template: olGooseTemplate, Voice: "Gacrux"},
		{ID: SergeantGoose, DisplayName: "Sgt. Goose", Template: sergeantGooseTemplate, Voice: "Alnilam"},
		{ID: GoGetterGoose, DisplayName: "Go-Getter Goose", Template: goGetterGooseTemplate, Voice: "Puck"},
	}
}

// Registry is the read-only persona table. It is built once at start and
// safe for concurrent use afterwards.
type Registry struct {
	byID  map[ID]Persona
	order []ID
}

// NewRegistry builds a registry. voices overrides the voice of a persona by
// id; overrides for unknown ids are an error so typos in config surface early.
func NewRegistry(personas []Persona, voices map[string]string) (*Registry, error) {
	r := &Registry{byID: make(map[ID]Persona, len(personas))}

	for _, p := range personas {
		if p.ID == "" {
			return nil, fmt.Errorf("persona without id")
		}
		if _, ok := r.byID[p.ID]; ok {
			return nil, fmt.Errorf("duplicate persona %q", p.ID)
		}
		p.Template = strings.TrimSpace(p.Template)
		r.byID[p.ID] = p
		r.order = append(r.order, p.ID)
	}

	for id, voice := range voices {
		p, ok := r.byID[ID(id)]
		if !ok {
			return nil, fmt.Errorf("voice override for unknown persona %q", id)
		}
		if voice = strings.TrimSpace(voice); voice != "" {
			p.Voice = voice
			r.byID[p.ID] = p
		}
	}

	return r, nil
}

// Lookup returns the persona with the given id.
func (r *Registry) Lookup(id ID) (Persona, bool) {
	p, ok := r.byID[id]
	return p, ok
}

// IDs lists the registered ids in registration order.
func (r *Registry) IDs() []ID {
	ids := make([]ID, len(r.order))
	copy(ids, r.order)
	return ids
}

// All lists the registered personas in registration order.
func (r *Registry) All() []Persona {
	all := make([]Persona, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.byID[id])
	}
	return all
}

// Names returns the sorted ids as strings, handy for error messages.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.order))
	for _, id := range r.order {
		names = append(names, string(id))
	}
	sort.Strings(names)
	return names
}
