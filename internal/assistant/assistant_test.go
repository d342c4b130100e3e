package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ent0n29/nova/internal/actions"
	"github.com/ent0n29/nova/internal/config"
	"github.com/ent0n29/nova/internal/intent"
	"github.com/ent0n29/nova/internal/observability"
	"github.com/ent0n29/nova/internal/schedule"
	"github.com/ent0n29/nova/internal/speech"
	"github.com/ent0n29/nova/internal/storage"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	asst    *Assistant
	rec     *speech.ScriptedRecognizer
	speaker *speech.MemorySpeaker
	store   *storage.Store
	sched   *schedule.Manager
	clock   *fakeClock

	mu       sync.Mutex
	commands []string
}

func (f *fixture) commandLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.commands...)
}

func (f *fixture) spokenCount(substr string) int {
	n := 0
	for _, l := range f.speaker.Lines() {
		if strings.Contains(strings.ToLower(l.Text), strings.ToLower(substr)) {
			n++
		}
	}
	return n
}

func testConfig(dir string) config.Config {
	return config.Config{
		AssistantName:       "Nova",
		UserName:            "Chief",
		WakePhrases:         []string{"hey nova", "nova"},
		IdleTimeout:         30 * time.Second,
		WakeListenWindow:    10 * time.Millisecond,
		CommandListenWindow: 10 * time.Millisecond,
		GraceWindow:         60 * time.Millisecond,
		DataDir:             dir,
	}
}

func newFixture(t *testing.T, cfg config.Config, steps ...speech.ScriptStep) *fixture {
	t.Helper()

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}

	f := &fixture{
		rec:     speech.NewScriptedRecognizer(steps...),
		speaker: speech.NewMemorySpeaker(),
		store:   store,
		sched:   schedule.NewManager(),
		clock:   newFakeClock(time.Date(2026, time.January, 2, 9, 0, 0, 0, time.UTC)),
	}
	f.sched.SetNowFunc(f.clock.Now)
	store.SetNowFunc(f.clock.Now)

	record := func(name string, _ ...string) error {
		f.mu.Lock()
		f.commands = append(f.commands, name)
		f.mu.Unlock()
		return nil
	}
	executor := actions.NewExecutor()
	executor.SetRunner(record)
	launcher := actions.NewLauncher()
	launcher.SetRunner(record)
	player := actions.NewPlayer(store.MusicDir(), "mpg123 -q")
	player.SetStarter(func(_ []string, _ string) (func() error, error) {
		return func() error { return nil }, nil
	})

	f.asst = New(cfg, Deps{
		Recognizer: f.rec,
		Speaker:    f.speaker,
		Scheduler:  f.sched,
		Store:      store,
		Lookup:     actions.NewLookupClient(actions.LookupConfig{}),
		Launcher:   launcher,
		Executor:   executor,
		Player:     player,
		Metrics:    observability.NewMetricsWith(prometheus.NewRegistry(), "nova_test"),
		Now:        f.clock.Now,
	})
	return f
}

func TestWakePhraseStartsSession(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "hey nova"},
		speech.ScriptStep{Text: "stop listening"},
	)

	if err := f.asst.step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !f.speaker.SaidContaining("Good morning, Chief") {
		t.Errorf("expected morning greeting, got %v", f.speaker.Lines())
	}
	if !f.speaker.SaidContaining("stop listening now") {
		t.Errorf("expected sleep acknowledgement, got %v", f.speaker.Lines())
	}
	if got := f.asst.State(); got != StateDormant {
		t.Errorf("state after stop phrase = %s, want %s", got, StateDormant)
	}
}

func TestSpeechWithoutWakePhraseIsIgnored(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "what time is it"},
	)

	if err := f.asst.step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := f.asst.State(); got != StateDormant {
		t.Errorf("state = %s, want %s", got, StateDormant)
	}
	if len(f.speaker.Lines()) != 0 {
		t.Errorf("nothing should be spoken while dormant, got %v", f.speaker.Lines())
	}
}

func TestIdleTimeoutSleepsExactlyOnce(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))
	f.rec.Append(
		speech.ScriptStep{Text: "hey nova"},
		speech.ScriptStep{Err: speech.ErrNoSpeech},
		speech.ScriptStep{Err: speech.ErrNoSpeech, Before: func() { f.clock.Advance(31 * time.Second) }},
	)

	if err := f.asst.step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if got := f.spokenCount("going back to sleep"); got != 1 {
		t.Errorf("sleep notice spoken %d times, want 1", got)
	}
	if got := f.asst.State(); got != StateDormant {
		t.Errorf("state = %s, want %s", got, StateDormant)
	}
}

func TestRecognizedUtteranceResetsIdleClock(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))
	f.rec.Append(
		speech.ScriptStep{Text: "hey nova"},
		// 20s of silence, then a command, then 20s more. Neither silent
		// stretch alone crosses the 30s timeout once the command resets it.
		speech.ScriptStep{Err: speech.ErrNoSpeech, Before: func() { f.clock.Advance(20 * time.Second) }},
		speech.ScriptStep{Text: "what's the time"},
		speech.ScriptStep{Err: speech.ErrNoSpeech, Before: func() { f.clock.Advance(20 * time.Second) }},
		speech.ScriptStep{Err: speech.ErrNoSpeech, Before: func() { f.clock.Advance(11 * time.Second) }},
	)

	if err := f.asst.step(context.Background()); err != nil {
		t.Fatalf("step: %v", err)
	}
	if !f.speaker.SaidContaining("current time") {
		t.Errorf("time command should have been handled after 20s of silence")
	}
	if got := f.spokenCount("going back to sleep"); got != 1 {
		t.Errorf("sleep notice spoken %d times, want 1", got)
	}
}

func TestRunEndToEndTimeQuery(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "hey nova"},
		speech.ScriptStep{Text: "what's the time"},
		speech.ScriptStep{Text: "goodbye"},
	)

	if err := f.asst.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := f.clock.Now().Format("03:04 PM")
	if !f.speaker.SaidContaining(want) {
		t.Errorf("expected spoken time %q, got %v", want, f.speaker.Lines())
	}
	if !f.speaker.SaidContaining("Goodbye") {
		t.Errorf("expected farewell, got %v", f.speaker.Lines())
	}
}

func TestNoteEndToEnd(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "hey nova"},
		speech.ScriptStep{Text: "remember to buy milk"},
		speech.ScriptStep{Text: "goodbye"},
	)

	if err := f.asst.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	notes, err := f.store.ListNotes()
	if err != nil {
		t.Fatalf("ListNotes: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("got %d notes, want 1", len(notes))
	}
	if notes[0].Text != "buy milk" {
		t.Errorf("note text = %q, want %q", notes[0].Text, "buy milk")
	}
	if !f.speaker.SaidContaining("made a note") {
		t.Errorf("expected note confirmation, got %v", f.speaker.Lines())
	}
}

func TestAlarmFollowUpSchedulesAndFiresOnce(t *testing.T) {
	cfg := testConfig(t.TempDir())
	f := newFixture(t, cfg,
		speech.ScriptStep{Text: "7:30 am"},
	)
	// 80ms of real delay before the 07:30 alarm comes due.
	f.clock.mu.Lock()
	f.clock.t = time.Date(2026, time.January, 2, 7, 29, 59, int(920*time.Millisecond), time.UTC)
	f.clock.mu.Unlock()

	if err := f.asst.Dispatch(context.Background(), "set an alarm"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !f.speaker.SaidContaining("Alarm set for 07:30 AM") {
		t.Fatalf("expected alarm confirmation, got %v", f.speaker.Lines())
	}

	deadline := time.Now().Add(2 * time.Second)
	for !f.speaker.SaidContaining("wake up") {
		if time.Now().After(deadline) {
			t.Fatal("alarm never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(100 * time.Millisecond)
	if got := f.spokenCount("wake up"); got != 1 {
		t.Errorf("alarm fired %d times, want 1", got)
	}
	if got := f.sched.PendingCount(); got != 0 {
		t.Errorf("pending tasks = %d, want 0", got)
	}
}

func TestReminderSavesArtifactAndSchedules(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))

	if err := f.asst.Dispatch(context.Background(), "remind me to take my pills at 9:30 pm"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !f.speaker.SaidContaining("remind you at 09:30 PM") {
		t.Fatalf("expected reminder confirmation, got %v", f.speaker.Lines())
	}
	reminders, err := f.store.ListReminders()
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("got %d reminders, want 1", len(reminders))
	}
	if !strings.Contains(reminders[0].Text, "take my pills") {
		t.Errorf("reminder text = %q", reminders[0].Text)
	}
	if got := f.sched.PendingCount(); got != 1 {
		t.Errorf("pending tasks = %d, want 1", got)
	}
}

func TestAlarmWithoutTimeGivesUpCleanly(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "whenever"},
	)

	if err := f.asst.Dispatch(context.Background(), "set an alarm"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !f.speaker.SaidContaining("haven't set an alarm") {
		t.Errorf("expected give-up message, got %v", f.speaker.Lines())
	}
	if got := f.sched.PendingCount(); got != 0 {
		t.Errorf("pending tasks = %d, want 0", got)
	}
}

func TestPowerActionCancelledInsideGraceWindow(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "cancel"},
	)

	if err := f.asst.Dispatch(context.Background(), "shut down the computer"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !f.speaker.SaidContaining("won't shut down") {
		t.Fatalf("expected cancellation acknowledgement, got %v", f.speaker.Lines())
	}
	time.Sleep(120 * time.Millisecond)
	if got := f.commandLog(); len(got) != 0 {
		t.Errorf("no system command should run after cancellation, got %v", got)
	}
}

func TestPowerActionCancelAfterFireIsNoOp(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.GraceWindow = 30 * time.Millisecond
	f := newFixture(t, cfg,
		speech.ScriptStep{Text: "cancel", Before: func() { time.Sleep(80 * time.Millisecond) }},
	)

	if err := f.asst.Dispatch(context.Background(), "shut down the computer"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if f.speaker.SaidContaining("won't shut down") {
		t.Error("late cancel must not be acknowledged")
	}
	if got := f.commandLog(); len(got) != 1 {
		t.Errorf("system command should have run exactly once, got %v", got)
	}
}

func TestHandlerFailureBecomesSpokenApology(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))
	f.asst.launcher.SetRunner(func(string, ...string) error {
		return errors.New("launch failed")
	})

	if err := f.asst.Dispatch(context.Background(), "open chrome"); err != nil {
		t.Fatalf("Dispatch must absorb handler failures, got %v", err)
	}
	if !f.speaker.SaidContaining("Sorry, I ran into a problem") {
		t.Errorf("expected apology, got %v", f.speaker.Lines())
	}
}

func TestUnrecognizedUtteranceAsksForClarification(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))

	if err := f.asst.Dispatch(context.Background(), "flibber jabber wobble"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	lines := f.speaker.Lines()
	if len(lines) != 1 || lines[0].Text == "" {
		t.Errorf("expected a single clarification line, got %v", lines)
	}
}

func TestCloseYourselfExitsInsteadOfClosingAnApp(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()),
		speech.ScriptStep{Text: "hey nova"},
		speech.ScriptStep{Text: "close yourself"},
	)

	if err := f.asst.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !f.speaker.SaidContaining("Goodbye") {
		t.Errorf("expected farewell, got %v", f.speaker.Lines())
	}
	if got := f.commandLog(); len(got) != 0 {
		t.Errorf("no process should be killed, got %v", got)
	}
}

func TestVolumeAdjustmentsAreClamped(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := f.asst.Dispatch(ctx, "volume up"); err != nil {
			t.Fatalf("Dispatch: %v", err)
		}
	}
	if !f.speaker.SaidContaining("100 percent") {
		t.Errorf("volume should cap at 100, got %v", f.speaker.Lines())
	}
	if err := f.asst.Dispatch(ctx, "mute the volume"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !f.speaker.SaidContaining("0 percent") {
		t.Errorf("mute should report 0, got %v", f.speaker.Lines())
	}
}

func TestGreetingFollowsTimeOfDay(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{6, "Good morning"},
		{13, "Good afternoon"},
		{18, "Good evening"},
		{23, "Hello"},
		{2, "Hello"},
	}
	for _, tc := range cases {
		f := newFixture(t, testConfig(t.TempDir()))
		f.clock.mu.Lock()
		f.clock.t = time.Date(2026, time.January, 2, tc.hour, 0, 0, 0, time.UTC)
		f.clock.mu.Unlock()
		if got := f.asst.greeting(); !strings.HasPrefix(got, tc.want) {
			t.Errorf("greeting at %02d:00 = %q, want prefix %q", tc.hour, got, tc.want)
		}
	}
}

func TestDispatchPublishesEvents(t *testing.T) {
	f := newFixture(t, testConfig(t.TempDir()))
	events, unsubscribe := f.asst.Events().Subscribe()
	defer unsubscribe()

	if err := f.asst.Dispatch(context.Background(), "what's the time"); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	var types []EventType
	for len(types) < 2 {
		select {
		case evt := <-events:
			types = append(types, evt.Type)
			if evt.Type == EventIntentDispatched && evt.Intent != intent.IntentGetTime {
				t.Errorf("dispatched intent = %s, want %s", evt.Intent, intent.IntentGetTime)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events, got %v", types)
		}
	}
}
