package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roguegoose-dev/goose-guidance/internal/dialogue"
	"github.com/roguegoose-dev/goose-guidance/internal/persona"
	"github.com/roguegoose-dev/goose-guidance/internal/server"
)

const (
	chatCommandExit    = "/exit"
	chatCommandPersona = "/persona"
	chatCommandReset   = "/reset"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk with a goose in the terminal",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().String("persona", "", "persona id to start with (asks when unset)")
	chatCmd.Flags().String("audio-dir", "", "directory to write reply audio as wav files. Default is unset.")
}

func chat(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, config := setup()
	defer logger.Sync()

	stack, err := newDialogueStack(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the dialogue", zap.Error(err), zap.String("hint", "set GEMINI_API_KEY or gemini.api-key-file"))
	}

	audioDir, _ := cmd.Flags().GetString("audio-dir")
	if audioDir != "" {
		if err := os.MkdirAll(audioDir, 0o755); err != nil {
			logger.Fatal("creating audio dir", zap.Error(err), zap.String("dir", audioDir))
		}
	}

	current := persona.ID(strings.TrimSpace(cmd.Flag("persona").Value.String()))
	if current == "" {
		current, err = selectPersona(stack.personas)
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}
	}
	if _, ok := stack.personas.Lookup(current); !ok {
		logger.Fatal("unknown persona", zap.String("persona", string(current)), zap.Strings("known", stack.personas.Names()))
	}

	fmt.Printf("Type %s to switch goose, %s to forget the conversation, %s to leave.\n",
		chatCommandPersona, chatCommandReset, chatCommandExit)

	var history []persona.Turn
	input := promptui.Prompt{Label: "You"}

	for turn := 1; ; turn++ {
		line, err := input.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return
			}
			logger.Fatal("reading input", zap.Error(err))
		}

		message := strings.TrimSpace(line)
		switch message {
		case "":
			continue
		case chatCommandExit:
			return
		case chatCommandReset:
			history = nil
			fmt.Println("Conversation cleared.")
			continue
		case chatCommandPersona:
			if next, err := selectPersona(stack.personas); err == nil {
				current = next
			}
			continue
		}

		reply, err := stack.orchestrator.GenerateReply(ctx, dialogue.Request{
			PersonaID: current,
			Message:   message,
			History:   history,
		})
		if err != nil {
			logger.Warn("generating reply", zap.Error(err))
			fmt.Println(server.ChatFallbackMessage)
			continue
		}

		fmt.Printf("%s [%s risk]: %s\n", reply.Persona.DisplayName, reply.Risk, reply.Text)

		var audioRef string
		if audioDir != "" && reply.Speech.HasAudio() {
			audioRef, err = writeReplyAudio(audioDir, turn, reply)
			if err != nil {
				logger.Warn("writing reply audio", zap.Error(err))
			} else {
				logger.Info("reply audio written", zap.String("file", audioRef), zap.String("voice", reply.Speech.Voice))
			}
		}
		if reply.Speech.Status == dialogue.SpeechDegraded {
			logger.Debug("reply has no audio", zap.NamedError("primary", reply.Speech.PrimaryErr), zap.NamedError("fallback", reply.Speech.FallbackErr))
		}

		history = append(history,
			persona.Turn{Role: persona.RoleUser, PersonaID: current, Text: message},
			persona.Turn{Role: persona.RoleAssistant, PersonaID: reply.Persona.ID, Text: reply.Text, AudioRef: audioRef},
		)
	}
}

func selectPersona(registry *persona.Registry) (persona.ID, error) {
	all := registry.All()
	items := make([]string, 0, len(all))
	for _, p := range all {
		items = append(items, fmt.Sprintf("%s (%s)", p.DisplayName, p.ID))
	}

	selectPrompt := promptui.Select{
		Label: "Which goose do you want to talk to?",
		Items: items,
	}

	i, _, err := selectPrompt.Run()
	if err != nil {
		return "", err
	}

	return all[i].ID, nil
}

func writeReplyAudio(dir string, turn int, reply *dialogue.Reply) (string, error) {
	name := fmt.Sprintf("%s-%03d-%s.wav", time.Now().Format("20060102-150405"), turn, reply.Persona.ID)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, reply.Speech.Audio, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
