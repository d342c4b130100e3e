package speech

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// CommandConfig wires the assistant to external STT/TTS command line tools,
// e.g. a whisper-cli wrapper for listening and espeak-ng or `say` for output.
type CommandConfig struct {
	// ListenCommand is run per listen window; it must print the recognized
	// utterance on stdout and print nothing when no speech was understood.
	ListenCommand string
	// SpeakCommand is run per utterance with the text appended as the final
	// argument. A non-default language adds "-v <language>" before the text.
	SpeakCommand string
}

// CommandProvider shells out to configured STT and TTS executables.
type CommandProvider struct {
	listenArgv []string
	speakArgv  []string
}

func NewCommandProvider(cfg CommandConfig) (*CommandProvider, error) {
	listenArgv := strings.Fields(cfg.ListenCommand)
	speakArgv := strings.Fields(cfg.SpeakCommand)
	if len(listenArgv) == 0 {
		return nil, fmt.Errorf("listen command is required")
	}
	if len(speakArgv) == 0 {
		return nil, fmt.Errorf("speak command is required")
	}
	return &CommandProvider{listenArgv: listenArgv, speakArgv: speakArgv}, nil
}

func (p *CommandProvider) Listen(ctx context.Context, maxWait time.Duration) (string, error) {
	if maxWait <= 0 {
		maxWait = 5 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, maxWait)
	defer cancel()

	cmd := exec.CommandContext(runCtx, p.listenArgv[0], p.listenArgv[1:]...)
	out, err := cmd.Output()
	text := firstLine(string(out))
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			// Window elapsed; treat any partial output as the utterance.
			if text != "" {
				return strings.ToLower(text), nil
			}
			return "", ErrNoSpeech
		}
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	if text == "" {
		return "", ErrNoSpeech
	}
	return strings.ToLower(text), nil
}

func (p *CommandProvider) Speak(ctx context.Context, text string, lang Language) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	args := append([]string(nil), p.speakArgv[1:]...)
	if lang != "" && lang != LanguageDefault {
		args = append(args, "-v", string(lang))
	}
	args = append(args, text)

	cmd := exec.CommandContext(ctx, p.speakArgv[0], args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speak command: %w", err)
	}
	return nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
