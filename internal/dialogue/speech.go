package dialogue

// SpeechStatus tags a SpeechOutcome.
type SpeechStatus string

const (
	// SpeechSucceeded means Audio holds a WAV clip.
	SpeechSucceeded SpeechStatus = "succeeded"
	// SpeechDegraded means both voices failed; the reply is text only.
	SpeechDegraded SpeechStatus = "degraded"
	// SpeechSkipped means no synthesizer is configured.
	SpeechSkipped SpeechStatus = "skipped"
)

// SpeechOutcome reports how speech synthesis went for a reply.
type SpeechOutcome struct {
	Status SpeechStatus
	Audio  []byte
	// Voice is the voice that produced Audio.
	Voice    string
	FellBack bool

	PrimaryErr  error
	FallbackErr error
}

// HasAudio reports whether the outcome carries audio.
func (o SpeechOutcome) HasAudio() bool {
	return o.Status == SpeechSucceeded && len(o.Audio) > 0
}

func succeeded(audio []byte, voice string, fellBack bool) SpeechOutcome {
	return SpeechOutcome{Status: SpeechSucceeded, Audio: audio, Voice: voice, FellBack: fellBack}
}

func degraded(primary, fallback error) SpeechOutcome {
	return SpeechOutcome{Status: SpeechDegraded, PrimaryErr: primary, FallbackErr: fallback}
}
