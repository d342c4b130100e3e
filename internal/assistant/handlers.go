package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/ent0n29/nova/internal/actions"
	"github.com/ent0n29/nova/internal/intent"
	"github.com/ent0n29/nova/internal/schedule"
	"github.com/ent0n29/nova/internal/speech"
)

var thanksReplies = []string{
	"You're welcome!",
	"My pleasure!",
	"Happy to help!",
	"Anytime!",
}

var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs.",
	"I told my computer I needed a break, and it said no problem, it would go to sleep.",
	"Why did the developer go broke? Because they used up all their cache.",
	"There are only 10 types of people in the world. Those who understand binary, and those who don't.",
	"A SQL query walks into a bar, walks up to two tables, and asks: can I join you?",
}

var capabilities = []string{
	"open and close applications and websites",
	"search the web and Wikipedia",
	"tell you the time, the date, and the weather",
	"read the latest news headlines",
	"take notes and set reminders and alarms",
	"play music and take screenshots",
	"adjust volume and brightness",
	"shut down, restart, lock, or sleep the system",
}

func (a *Assistant) buildHandlers() map[intent.Intent]handlerFunc {
	return map[intent.Intent]handlerFunc{
		intent.IntentOpenApp:          a.handleOpenApp,
		intent.IntentCloseApp:         a.handleCloseApp,
		intent.IntentSearchWikipedia:  a.handleWikipedia,
		intent.IntentSearchWeb:        a.handleSearchWeb,
		intent.IntentGetWeather:       a.handleWeather,
		intent.IntentGetNews:          a.handleNews,
		intent.IntentGetTime:          a.handleGetTime,
		intent.IntentGetDate:          a.handleGetDate,
		intent.IntentTellJoke:         a.handleJoke,
		intent.IntentTakeNote:         a.handleTakeNote,
		intent.IntentSetReminder:      a.handleSetReminder,
		intent.IntentSetAlarm:         a.handleSetAlarm,
		intent.IntentAdjustVolume:     a.handleVolume,
		intent.IntentAdjustBrightness: a.handleBrightness,
		intent.IntentTakeScreenshot:   a.handleScreenshot,
		intent.IntentPlayMusic:        a.handlePlayMusic,
		intent.IntentPauseMusic:       a.handlePauseMusic,
		intent.IntentNextSong:         a.handleNextSong,
		intent.IntentShutdown:         a.handleShutdown,
		intent.IntentRestart:          a.handleRestart,
		intent.IntentSleepSystem:      a.handleSleepSystem,
		intent.IntentLockSystem:       a.handleLockSystem,
		intent.IntentWhoAreYou:        a.handleWhoAreYou,
		intent.IntentHowAreYou:        a.handleHowAreYou,
		intent.IntentYourName:         a.handleYourName,
		intent.IntentThankYou:         a.handleThankYou,
		intent.IntentChangeLanguage:   a.handleChangeLanguage,
		intent.IntentCapabilities:     a.handleCapabilities,
		intent.IntentExitAssistant:    a.handleExit,
	}
}

func (a *Assistant) handleOpenApp(ctx context.Context, req request) error {
	target := req.slot
	if target == "" {
		target = a.followUp(ctx, "Which application or website should I open?")
	}
	if target == "" {
		a.say(ctx, "Okay, never mind.")
		return nil
	}
	opened, err := a.launcher.Open(target)
	if err != nil {
		return err
	}
	a.say(ctx, fmt.Sprintf("Opening %s.", opened))
	return nil
}

func (a *Assistant) handleCloseApp(ctx context.Context, req request) error {
	// "close yourself" and friends mean the assistant, not an application.
	if strings.Contains(req.text, "yourself") || strings.Contains(req.text, strings.ToLower(a.cfg.AssistantName)) {
		return errExitRequested
	}
	if req.slot == "" {
		a.say(ctx, "Which application should I close?")
		return nil
	}
	name, err := a.launcher.Close(req.slot)
	if err != nil {
		a.say(ctx, fmt.Sprintf("I'm not sure how to close %s.", req.slot))
		return nil
	}
	a.say(ctx, fmt.Sprintf("Closing %s.", name))
	return nil
}

func (a *Assistant) handleWikipedia(ctx context.Context, req request) error {
	topic := req.slot
	if topic == "" {
		topic = a.followUp(ctx, "What would you like to know about?")
	}
	if topic == "" {
		a.say(ctx, "Okay, never mind.")
		return nil
	}
	summary, err := a.lookup.WikipediaSummary(ctx, topic)
	if errors.Is(err, actions.ErrNotFound) {
		a.say(ctx, fmt.Sprintf("I couldn't find anything about %s on Wikipedia.", topic))
		return nil
	}
	if err != nil {
		return err
	}
	a.say(ctx, "According to Wikipedia: "+summary)
	return nil
}

func (a *Assistant) handleSearchWeb(ctx context.Context, req request) error {
	query := req.slot
	if query == "" {
		query = a.followUp(ctx, "What would you like me to search for?")
	}
	if query == "" {
		a.say(ctx, "Okay, never mind.")
		return nil
	}
	if err := a.launcher.OpenURL(actions.SearchURL(query)); err != nil {
		return err
	}
	a.say(ctx, fmt.Sprintf("Here are the search results for %s.", query))
	return nil
}

func (a *Assistant) handleWeather(ctx context.Context, req request) error {
	location := req.slot
	if location == "" {
		location = a.followUp(ctx, "For which location would you like the weather?")
	}
	if location == "" {
		a.say(ctx, "Okay, never mind.")
		return nil
	}
	report, err := a.lookup.Weather(ctx, location)
	switch {
	case errors.Is(err, actions.ErrNotConfigured):
		a.say(ctx, "Weather lookups are not configured. Please set up an OpenWeatherMap API key.")
		return nil
	case errors.Is(err, actions.ErrNotFound):
		a.say(ctx, fmt.Sprintf("I couldn't find weather information for %s.", location))
		return nil
	case err != nil:
		return err
	}
	a.say(ctx, report)
	return nil
}

func (a *Assistant) handleNews(ctx context.Context, req request) error {
	source, headlines, err := a.lookup.News(ctx, req.text)
	switch {
	case errors.Is(err, actions.ErrNotConfigured):
		a.say(ctx, "News lookups are not configured. Please set up a NewsAPI key.")
		return nil
	case errors.Is(err, actions.ErrNotFound):
		a.say(ctx, "Sorry, I couldn't retrieve the news at the moment.")
		return nil
	case err != nil:
		return err
	}
	a.say(ctx, fmt.Sprintf("Here are the latest headlines from %s.", source))
	for i, headline := range headlines {
		a.say(ctx, fmt.Sprintf("%d. %s", i+1, headline))
	}
	return nil
}

func (a *Assistant) handleGetTime(ctx context.Context, _ request) error {
	a.say(ctx, fmt.Sprintf("The current time is %s.", a.now().Format("03:04 PM")))
	return nil
}

func (a *Assistant) handleGetDate(ctx context.Context, _ request) error {
	a.say(ctx, fmt.Sprintf("Today is %s.", a.now().Format("Monday, January 2, 2006")))
	return nil
}

func (a *Assistant) handleJoke(ctx context.Context, _ request) error {
	a.say(ctx, jokes[rand.Intn(len(jokes))])
	return nil
}

func (a *Assistant) handleTakeNote(ctx context.Context, req request) error {
	text := req.slot
	if text == "" {
		text = a.followUp(ctx, "What would you like me to remember?")
	}
	if text == "" {
		a.say(ctx, "Okay, never mind.")
		return nil
	}
	if _, err := a.store.SaveNote(text); err != nil {
		return err
	}
	a.say(ctx, "I've made a note of that.")
	return nil
}

func (a *Assistant) handleSetReminder(ctx context.Context, req request) error {
	body := req.slot
	if body == "" {
		body = a.followUp(ctx, "What should I remind you about?")
	}
	if body == "" {
		a.say(ctx, "Okay, never mind.")
		return nil
	}
	clock, ok := a.askClock(ctx, req.text, "When should I remind you?")
	if !ok {
		a.say(ctx, "I didn't catch a time, so I haven't set the reminder.")
		return nil
	}
	if _, err := a.store.SaveReminder(body); err != nil {
		return err
	}
	fireAt := schedule.NextOccurrence(a.now(), clock)
	id, err := a.scheduler.Schedule("reminder", fireAt, func() error {
		return a.sayLater("Reminder: " + body)
	})
	if err != nil {
		return err
	}
	a.taskScheduled(id, "reminder")
	a.say(ctx, fmt.Sprintf("I'll remind you at %s.", clock.Format()))
	return nil
}

func (a *Assistant) handleSetAlarm(ctx context.Context, req request) error {
	clock, ok := a.askClock(ctx, req.text, "For what time should I set the alarm?")
	if !ok {
		a.say(ctx, "I didn't catch a time, so I haven't set an alarm.")
		return nil
	}
	fireAt := schedule.NextOccurrence(a.now(), clock)
	id, err := a.scheduler.Schedule("alarm", fireAt, func() error {
		return a.sayLater(fmt.Sprintf("Wake up! This is your %s alarm.", clock.Format()))
	})
	if err != nil {
		return err
	}
	a.taskScheduled(id, "alarm")
	a.say(ctx, fmt.Sprintf("Alarm set for %s.", clock.Format()))
	return nil
}

// askClock extracts a time of day from the utterance, falling back to one
// follow-up question.
func (a *Assistant) askClock(ctx context.Context, text, prompt string) (schedule.Clock, bool) {
	clock, err := schedule.ParseClock(text)
	if err == nil {
		return clock, true
	}
	reply := a.followUp(ctx, prompt)
	if reply == "" {
		return schedule.Clock{}, false
	}
	clock, err = schedule.ParseClock(reply)
	if err != nil {
		return schedule.Clock{}, false
	}
	return clock, true
}

func (a *Assistant) taskScheduled(id, label string) {
	if a.metrics != nil {
		a.metrics.TaskEvents.WithLabelValues("scheduled").Inc()
	}
	a.bus.Publish(Event{Type: EventTaskScheduled, TaskID: id, Detail: label})
}

func (a *Assistant) handleVolume(ctx context.Context, req request) error {
	a.mu.Lock()
	switch {
	case strings.Contains(req.text, "mute") && !strings.Contains(req.text, "unmute"):
		a.volume = 0
	case strings.Contains(req.text, "unmute"):
		a.volume = 70
	case strings.Contains(req.text, "increase") || strings.Contains(req.text, "up"):
		a.volume = min(a.volume+10, 100)
	case strings.Contains(req.text, "decrease") || strings.Contains(req.text, "down"):
		a.volume = max(a.volume-10, 0)
	}
	level := a.volume
	a.mu.Unlock()
	a.say(ctx, fmt.Sprintf("Volume is now at %d percent.", level))
	return nil
}

func (a *Assistant) handleBrightness(ctx context.Context, req request) error {
	up := strings.Contains(req.text, "increase") || strings.Contains(req.text, "up")
	if err := a.executor.Brightness(up); err != nil {
		return err
	}
	if up {
		a.say(ctx, "Increasing screen brightness.")
	} else {
		a.say(ctx, "Decreasing screen brightness.")
	}
	return nil
}

func (a *Assistant) handleScreenshot(ctx context.Context, _ request) error {
	path := a.store.ScreenshotPath()
	if err := a.executor.Screenshot(path); err != nil {
		return err
	}
	a.say(ctx, "Screenshot taken and saved.")
	return nil
}

func (a *Assistant) handlePlayMusic(ctx context.Context, _ request) error {
	track, err := a.player.Play()
	if errors.Is(err, actions.ErrNoMusic) {
		a.say(ctx, "I couldn't find any music files to play.")
		return nil
	}
	if err != nil {
		return err
	}
	a.say(ctx, fmt.Sprintf("Playing %s.", track))
	return nil
}

func (a *Assistant) handlePauseMusic(ctx context.Context, _ request) error {
	if err := a.player.Pause(); err != nil {
		if errors.Is(err, actions.ErrNotPlaying) {
			a.say(ctx, "No music is currently playing.")
			return nil
		}
		return err
	}
	a.say(ctx, "Music paused.")
	return nil
}

func (a *Assistant) handleNextSong(ctx context.Context, _ request) error {
	track, err := a.player.Next()
	if errors.Is(err, actions.ErrNoMusic) {
		a.say(ctx, "I couldn't find any music files to play.")
		return nil
	}
	if err != nil {
		return err
	}
	a.say(ctx, fmt.Sprintf("Playing %s.", track))
	return nil
}

func (a *Assistant) handleShutdown(ctx context.Context, _ request) error {
	return a.powerAction(ctx, "shut down", a.executor.Shutdown)
}

func (a *Assistant) handleRestart(ctx context.Context, _ request) error {
	return a.powerAction(ctx, "restart", a.executor.Restart)
}

// powerAction schedules the destructive action behind a grace window and
// takes a single bounded listen for a cancellation.
func (a *Assistant) powerAction(ctx context.Context, verb string, run func() error) error {
	secs := int(a.cfg.GraceWindow.Seconds())
	a.say(ctx, fmt.Sprintf("I'll %s the system in %d seconds. Say cancel to abort.", verb, secs))

	id, err := a.scheduler.ScheduleAfter(verb, a.cfg.GraceWindow, run)
	if err != nil {
		return err
	}
	a.taskScheduled(id, verb)

	text, lerr := a.listen(ctx, a.cfg.GraceWindow)
	if lerr == nil && strings.Contains(text, "cancel") {
		if a.scheduler.Cancel(id) {
			if a.metrics != nil {
				a.metrics.TaskEvents.WithLabelValues("cancelled").Inc()
			}
			a.bus.Publish(Event{Type: EventTaskCancelled, TaskID: id, Detail: verb})
			a.say(ctx, fmt.Sprintf("Okay, I won't %s the system.", verb))
		}
	}
	return nil
}

func (a *Assistant) handleSleepSystem(ctx context.Context, _ request) error {
	a.say(ctx, "Putting the system to sleep.")
	return a.executor.Suspend()
}

func (a *Assistant) handleLockSystem(ctx context.Context, _ request) error {
	a.say(ctx, "Locking the system.")
	return a.executor.Lock()
}

func (a *Assistant) handleWhoAreYou(ctx context.Context, _ request) error {
	a.say(ctx, fmt.Sprintf("I'm %s, your personal voice assistant. I'm here to help you with everyday tasks.", a.cfg.AssistantName))
	return nil
}

func (a *Assistant) handleHowAreYou(ctx context.Context, _ request) error {
	a.say(ctx, "I'm functioning optimally, thank you for asking. How can I assist you?")
	return nil
}

func (a *Assistant) handleYourName(ctx context.Context, _ request) error {
	a.say(ctx, fmt.Sprintf("My name is %s.", a.cfg.AssistantName))
	return nil
}

func (a *Assistant) handleThankYou(ctx context.Context, _ request) error {
	a.say(ctx, thanksReplies[rand.Intn(len(thanksReplies))])
	return nil
}

func (a *Assistant) handleChangeLanguage(ctx context.Context, req request) error {
	if strings.Contains(req.text, "hindi") {
		a.sayIn(ctx, "Theek hai, main Hindi mein baat kar sakti hoon.", speech.LanguageHindi)
		return nil
	}
	a.say(ctx, "Alright, I'll keep speaking English.")
	return nil
}

func (a *Assistant) handleCapabilities(ctx context.Context, _ request) error {
	a.say(ctx, "Here is some of what I can do.")
	for _, line := range capabilities {
		a.say(ctx, "I can "+line+".")
	}
	return nil
}

func (a *Assistant) handleExit(_ context.Context, _ request) error {
	return errExitRequested
}
