package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ent0n29/nova/internal/actions"
	"github.com/ent0n29/nova/internal/config"
	"github.com/ent0n29/nova/internal/intent"
	"github.com/ent0n29/nova/internal/observability"
	"github.com/ent0n29/nova/internal/schedule"
	"github.com/ent0n29/nova/internal/speech"
	"github.com/ent0n29/nova/internal/storage"
)

// State is the session lifecycle phase. Exactly one session exists per
// process; it moves between dormant and active, never away.
type State string

const (
	StateDormant State = "dormant"
	StateActive  State = "active"
)

var errExitRequested = errors.New("exit requested")

var stopPhrases = []string{"stop listening", "go to sleep"}

// Deps are the assistant's collaborators, wired once at startup.
type Deps struct {
	Recognizer speech.Recognizer
	Speaker    speech.Speaker
	Router     *intent.Router
	Scheduler  *schedule.Manager
	Store      *storage.Store
	Lookup     *actions.LookupClient
	Launcher   *actions.Launcher
	Executor   *actions.Executor
	Player     *actions.Player
	Metrics    *observability.Metrics
	Bus        *EventBus
	Now        func() time.Time
}

type request struct {
	text string
	slot string
}

type handlerFunc func(ctx context.Context, req request) error

// Assistant owns the interaction session: wake detection, the active
// listening loop with its idle timeout, and per-utterance dispatch.
type Assistant struct {
	cfg config.Config

	recognizer speech.Recognizer
	speaker    *speech.SerialSpeaker
	router     *intent.Router
	scheduler  *schedule.Manager
	store      *storage.Store
	lookup     *actions.LookupClient
	launcher   *actions.Launcher
	executor   *actions.Executor
	player     *actions.Player
	metrics    *observability.Metrics
	bus        *EventBus
	now        func() time.Time

	handlers map[intent.Intent]handlerFunc

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	volume       int
}

func New(cfg config.Config, deps Deps) *Assistant {
	a := &Assistant{
		cfg:        cfg,
		recognizer: deps.Recognizer,
		speaker:    speech.NewSerialSpeaker(deps.Speaker),
		router:     deps.Router,
		scheduler:  deps.Scheduler,
		store:      deps.Store,
		lookup:     deps.Lookup,
		launcher:   deps.Launcher,
		executor:   deps.Executor,
		player:     deps.Player,
		metrics:    deps.Metrics,
		bus:        deps.Bus,
		now:        deps.Now,
		state:      StateDormant,
		volume:     70,
	}
	if a.router == nil {
		a.router = intent.NewRouter(intent.DefaultRules())
	}
	if a.bus == nil {
		a.bus = NewEventBus()
	}
	if a.now == nil {
		a.now = time.Now
	}
	a.lastActivity = a.now()
	a.handlers = a.buildHandlers()

	if a.scheduler != nil {
		a.scheduler.SetResultHook(func(task schedule.Task, err error) {
			outcome := "fired"
			if err != nil {
				outcome = "failed"
			}
			if a.metrics != nil {
				a.metrics.TaskEvents.WithLabelValues(outcome).Inc()
			}
			a.bus.Publish(Event{Type: EventTaskFired, TaskID: task.ID, Detail: task.Label})
		})
	}
	return a
}

// Events exposes the assistant's event stream for the debug surface.
func (a *Assistant) Events() *EventBus { return a.bus }

// Snapshot is the session state as reported over HTTP.
type Snapshot struct {
	State          State     `json:"state"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IdleTimeout    string    `json:"idle_timeout"`
	AssistantName  string    `json:"assistant_name"`
}

func (a *Assistant) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Snapshot{
		State:          a.state,
		LastActivityAt: a.lastActivity,
		IdleTimeout:    a.cfg.IdleTimeout.String(),
		AssistantName:  a.cfg.AssistantName,
	}
}

func (a *Assistant) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Run is the top-level process loop: wait for the wake phrase, run the
// session until it goes back to sleep, repeat. Transient recognition failures
// and unexpected errors are swallowed and retried; only the exit intent or a
// cancelled context ends the loop.
func (a *Assistant) Run(ctx context.Context) error {
	a.say(ctx, fmt.Sprintf("%s voice assistant initialized. Waiting for the wake phrase.", a.cfg.AssistantName))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := a.step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, errExitRequested):
			a.setState(StateDormant)
			a.say(ctx, "Goodbye! Have a great day.")
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return err
		default:
			log.Printf("assistant loop error: %v", err)
			a.pause(ctx, time.Second)
		}
	}
}

func (a *Assistant) step(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in session loop: %v", r)
		}
	}()

	text, lerr := a.listen(ctx, a.cfg.WakeListenWindow)
	if lerr != nil {
		if errors.Is(lerr, context.Canceled) || errors.Is(lerr, context.DeadlineExceeded) {
			return lerr
		}
		return nil
	}
	if !a.WakeDetected(text) {
		return nil
	}
	a.wakeUp(ctx, text)
	return a.runActive(ctx)
}

// WakeDetected reports whether the utterance contains any configured wake
// phrase. Dormant text without a wake phrase never transitions the session.
func (a *Assistant) WakeDetected(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range a.cfg.WakePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func (a *Assistant) wakeUp(ctx context.Context, text string) {
	a.mu.Lock()
	a.state = StateActive
	a.lastActivity = a.now()
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.WakeDetections.Inc()
		a.metrics.SessionActive.Set(1)
	}
	a.bus.Publish(Event{Type: EventWakeDetected, Text: text})
	a.say(ctx, a.greeting())
}

func (a *Assistant) runActive(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := a.listen(ctx, a.cfg.CommandListenWindow)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			if a.idleExpired() {
				a.say(ctx, fmt.Sprintf("I'm going back to sleep. Say %q to wake me up.", a.primaryWakePhrase()))
				a.sleep("idle timeout")
				return nil
			}
			continue
		}
		if text == "" {
			continue
		}

		a.bus.Publish(Event{Type: EventUtterance, Text: text})
		if isStopPhrase(text) {
			a.say(ctx, fmt.Sprintf("I'll stop listening now. Say %q to wake me up.", a.primaryWakePhrase()))
			a.sleep("stop phrase")
			return nil
		}

		a.touch()
		if err := a.Dispatch(ctx, text); err != nil {
			return err
		}
	}
}

// Dispatch routes one utterance and runs its handler. Handler failures are
// converted to a spoken apology here, at a single boundary; only the exit
// intent and context cancellation propagate.
func (a *Assistant) Dispatch(ctx context.Context, text string) error {
	m := a.router.Route(text)
	if a.metrics != nil {
		a.metrics.IntentDispatches.WithLabelValues(string(m.Intent)).Inc()
	}
	a.bus.Publish(Event{Type: EventIntentDispatched, Text: text, Intent: m.Intent, Slot: m.Slot})

	h, ok := a.handlers[m.Intent]
	if !ok {
		a.say(ctx, intent.Clarification())
		return nil
	}

	err := h(ctx, request{text: strings.ToLower(strings.TrimSpace(text)), slot: m.Slot})
	if err == nil {
		return nil
	}
	if errors.Is(err, errExitRequested) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if a.metrics != nil {
		a.metrics.HandlerErrors.WithLabelValues(string(m.Intent)).Inc()
	}
	log.Printf("handler %s failed: %v", m.Intent, err)
	a.say(ctx, fmt.Sprintf("Sorry, I ran into a problem with that: %s.", shortDiagnostic(err)))
	return nil
}

func (a *Assistant) listen(ctx context.Context, window time.Duration) (string, error) {
	text, err := a.recognizer.Listen(ctx, window)
	if err != nil {
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			if a.metrics != nil {
				a.metrics.ListenFailures.WithLabelValues("no_speech").Inc()
			}
		case errors.Is(err, speech.ErrServiceUnavailable):
			if a.metrics != nil {
				a.metrics.ListenFailures.WithLabelValues("service_unavailable").Inc()
			}
			log.Printf("speech service unavailable: %v", err)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		default:
			if a.metrics != nil {
				a.metrics.ListenFailures.WithLabelValues("other").Inc()
			}
			log.Printf("listen error: %v", err)
		}
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(text)), nil
}

func (a *Assistant) greeting() string {
	var salutation string
	switch hour := a.now().Hour(); {
	case hour >= 5 && hour < 12:
		salutation = "Good morning"
	case hour >= 12 && hour < 17:
		salutation = "Good afternoon"
	case hour >= 17 && hour < 21:
		salutation = "Good evening"
	default:
		salutation = "Hello"
	}
	if a.cfg.UserName != "" {
		salutation += ", " + a.cfg.UserName
	}
	return fmt.Sprintf("%s. I'm %s, your voice assistant. How can I help you today?", salutation, a.cfg.AssistantName)
}

func (a *Assistant) idleExpired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.now().Sub(a.lastActivity) > a.cfg.IdleTimeout
}

func (a *Assistant) touch() {
	a.mu.Lock()
	a.lastActivity = a.now()
	a.mu.Unlock()
}

func (a *Assistant) sleep(reason string) {
	a.setState(StateDormant)
	a.bus.Publish(Event{Type: EventSessionSlept, Detail: reason})
}

func (a *Assistant) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
	if a.metrics != nil {
		if s == StateActive {
			a.metrics.SessionActive.Set(1)
		} else {
			a.metrics.SessionActive.Set(0)
		}
	}
}

func (a *Assistant) primaryWakePhrase() string {
	if len(a.cfg.WakePhrases) == 0 {
		return "hey"
	}
	return a.cfg.WakePhrases[0]
}

func (a *Assistant) say(ctx context.Context, text string) {
	a.sayIn(ctx, text, speech.LanguageDefault)
}

func (a *Assistant) sayIn(ctx context.Context, text string, lang speech.Language) {
	if err := a.speaker.Speak(ctx, text, lang); err != nil {
		log.Printf("speak failed: %v", err)
	}
	a.bus.Publish(Event{Type: EventReply, Text: text})
}

// sayLater is used by scheduled task actions, which fire outside any
// request context.
func (a *Assistant) sayLater(text string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := a.speaker.Speak(ctx, text, speech.LanguageDefault); err != nil {
		return err
	}
	a.bus.Publish(Event{Type: EventReply, Text: text})
	return nil
}

// followUp asks a targeted question and takes one listen for the answer.
func (a *Assistant) followUp(ctx context.Context, prompt string) string {
	a.say(ctx, prompt)
	text, err := a.listen(ctx, a.cfg.CommandListenWindow)
	if err != nil {
		return ""
	}
	a.touch()
	return text
}

func (a *Assistant) pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func isStopPhrase(text string) bool {
	for _, phrase := range stopPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

func shortDiagnostic(err error) string {
	msg := err.Error()
	if len(msg) > 120 {
		msg = msg[:120]
	}
	return msg
}
