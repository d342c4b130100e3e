package speech

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Language selects the voice used for a single utterance.
type Language string

const (
	LanguageDefault Language = "english"
	LanguageHindi   Language = "hindi"
)

var (
	// ErrNoSpeech means the listen window elapsed without understandable input.
	ErrNoSpeech = errors.New("no speech recognized")
	// ErrServiceUnavailable means the recognizer backend itself failed.
	ErrServiceUnavailable = errors.New("speech service unavailable")
)

// Recognizer turns microphone input into text. Listen blocks for at most
// maxWait and returns the recognized text, ErrNoSpeech, or ErrServiceUnavailable.
type Recognizer interface {
	Listen(ctx context.Context, maxWait time.Duration) (string, error)
}

// Speaker emits one spoken utterance.
type Speaker interface {
	Speak(ctx context.Context, text string, lang Language) error
}

// SerialSpeaker guards a Speaker with a mutex so that the session loop and
// concurrently firing scheduled tasks never interleave audio output.
type SerialSpeaker struct {
	mu    sync.Mutex
	inner Speaker
}

func NewSerialSpeaker(inner Speaker) *SerialSpeaker {
	return &SerialSpeaker{inner: inner}
}

func (s *SerialSpeaker) Speak(ctx context.Context, text string, lang Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Speak(ctx, text, lang)
}
