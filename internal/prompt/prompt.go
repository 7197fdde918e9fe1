// Package prompt composes the text sent to the generation model for one
// dialogue turn.
package prompt

import (
	_ "embed"
	"strings"

	"github.com/roguegoose-dev/goose-guidance/internal/persona"
	"github.com/roguegoose-dev/goose-guidance/internal/risk"
)

//go:embed prompt.md
var promptTemplate string

// Build composes the persona template, risk label, transcript, closing
// instruction and raw user message, in that order. Placeholders are replaced
// in a single pass, so text coming from the user is never expanded.
// The result depends on the inputs only.
func Build(p persona.Persona, level risk.Level, transcript, message string) string {
	if strings.TrimSpace(transcript) == "" {
		transcript = persona.EmptyTranscript
	}

	r := strings.NewReplacer(
		"{{PERSONA}}", strings.TrimSpace(p.Template),
		"{{RISK}}", string(level),
		"{{TRANSCRIPT}}", transcript,
		"{{NAME}}", p.DisplayName,
		"{{MESSAGE}}", strings.TrimSpace(message),
	)

	return strings.TrimSpace(r.Replace(promptTemplate))
}
