package speech

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// MockProvider is the fallback when no STT/TTS commands are configured. It
// hears nothing and logs what it would have said, which keeps the binary
// runnable on machines without audio tooling.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (p *MockProvider) Listen(ctx context.Context, maxWait time.Duration) (string, error) {
	if maxWait <= 0 {
		maxWait = time.Second
	}
	timer := time.NewTimer(maxWait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
		return "", ErrNoSpeech
	}
}

func (p *MockProvider) Speak(_ context.Context, text string, lang Language) error {
	log.Printf("speak(%s): %s", lang, text)
	return nil
}

// ScriptStep is one scripted Listen result.
type ScriptStep struct {
	Text string
	Err  error
	// Before runs just before the step is returned; tests use it to advance a
	// fake clock between listen windows.
	Before func()
}

// ScriptedRecognizer replays a fixed sequence of Listen results. Once the
// script is exhausted it reports ErrNoSpeech.
type ScriptedRecognizer struct {
	mu    sync.Mutex
	steps []ScriptStep
}

func NewScriptedRecognizer(steps ...ScriptStep) *ScriptedRecognizer {
	return &ScriptedRecognizer{steps: append([]ScriptStep(nil), steps...)}
}

func (r *ScriptedRecognizer) Append(steps ...ScriptStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, steps...)
}

func (r *ScriptedRecognizer) Remaining() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.steps)
}

func (r *ScriptedRecognizer) Listen(ctx context.Context, _ time.Duration) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r.mu.Lock()
	if len(r.steps) == 0 {
		r.mu.Unlock()
		return "", ErrNoSpeech
	}
	step := r.steps[0]
	r.steps = r.steps[1:]
	r.mu.Unlock()

	if step.Before != nil {
		step.Before()
	}
	if step.Err != nil {
		return "", step.Err
	}
	return step.Text, nil
}

// MemorySpeaker records spoken utterances for assertions.
type MemorySpeaker struct {
	mu    sync.Mutex
	lines []SpokenLine
}

type SpokenLine struct {
	Text string
	Lang Language
}

func NewMemorySpeaker() *MemorySpeaker { return &MemorySpeaker{} }

func (s *MemorySpeaker) Speak(_ context.Context, text string, lang Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, SpokenLine{Text: text, Lang: lang})
	return nil
}

func (s *MemorySpeaker) Lines() []SpokenLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]SpokenLine(nil), s.lines...)
}

func (s *MemorySpeaker) SaidContaining(substr string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	needle := strings.ToLower(substr)
	for _, l := range s.lines {
		if strings.Contains(strings.ToLower(l.Text), needle) {
			return true
		}
	}
	return false
}
