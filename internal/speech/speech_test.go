package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestScriptedRecognizerReplaysAndExhausts(t *testing.T) {
	r := NewScriptedRecognizer(
		ScriptStep{Text: "hey nova"},
		ScriptStep{Err: ErrServiceUnavailable},
	)

	got, err := r.Listen(context.Background(), time.Second)
	if err != nil || got != "hey nova" {
		t.Fatalf("Listen() = (%q, %v), want (hey nova, nil)", got, err)
	}

	if _, err := r.Listen(context.Background(), time.Second); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("Listen() error = %v, want ErrServiceUnavailable", err)
	}

	if _, err := r.Listen(context.Background(), time.Second); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("exhausted script error = %v, want ErrNoSpeech", err)
	}
}

func TestMemorySpeakerRecordsLanguage(t *testing.T) {
	s := NewMemorySpeaker()
	if err := s.Speak(context.Background(), "Namaste", LanguageHindi); err != nil {
		t.Fatalf("Speak() error = %v", err)
	}
	lines := s.Lines()
	if len(lines) != 1 || lines[0].Lang != LanguageHindi {
		t.Fatalf("Lines() = %+v, want one hindi line", lines)
	}
	if !s.SaidContaining("namaste") {
		t.Fatalf("SaidContaining should match case-insensitively")
	}
}

func TestSerialSpeakerSerializesAccess(t *testing.T) {
	inner := &overlapDetector{}
	s := NewSerialSpeaker(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Speak(context.Background(), "line", LanguageDefault)
		}()
	}
	wg.Wait()

	if inner.overlapped {
		t.Fatalf("SerialSpeaker allowed overlapping Speak calls")
	}
	if inner.calls != 8 {
		t.Fatalf("calls = %d, want 8", inner.calls)
	}
}

type overlapDetector struct {
	mu         sync.Mutex
	inFlight   int
	calls      int
	overlapped bool
}

func (d *overlapDetector) Speak(_ context.Context, _ string, _ Language) error {
	d.mu.Lock()
	d.inFlight++
	d.calls++
	if d.inFlight > 1 {
		d.overlapped = true
	}
	d.mu.Unlock()

	time.Sleep(time.Millisecond)

	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
	return nil
}

func TestMockProviderHearsNothing(t *testing.T) {
	p := NewMockProvider()
	if _, err := p.Listen(context.Background(), 5*time.Millisecond); !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("Listen() error = %v, want ErrNoSpeech", err)
	}
}
