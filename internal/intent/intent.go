package intent

// Intent is a classified user goal selected by the router.
type Intent string

const (
	IntentOpenApp          Intent = "open_app"
	IntentCloseApp         Intent = "close_app"
	IntentSearchWikipedia  Intent = "search_wikipedia"
	IntentSearchWeb        Intent = "search_web"
	IntentGetWeather       Intent = "get_weather"
	IntentGetNews          Intent = "get_news"
	IntentGetTime          Intent = "get_time"
	IntentGetDate          Intent = "get_date"
	IntentTellJoke         Intent = "tell_joke"
	IntentTakeNote         Intent = "take_note"
	IntentSetReminder      Intent = "set_reminder"
	IntentSetAlarm         Intent = "set_alarm"
	IntentAdjustVolume     Intent = "adjust_volume"
	IntentAdjustBrightness Intent = "adjust_brightness"
	IntentTakeScreenshot   Intent = "take_screenshot"
	IntentPlayMusic        Intent = "play_music"
	IntentPauseMusic       Intent = "pause_music"
	IntentNextSong         Intent = "next_song"
	IntentShutdown         Intent = "shutdown"
	IntentRestart          Intent = "restart"
	IntentSleepSystem      Intent = "sleep_system"
	IntentLockSystem       Intent = "lock_system"
	IntentWhoAreYou        Intent = "who_are_you"
	IntentHowAreYou        Intent = "how_are_you"
	IntentYourName         Intent = "your_name"
	IntentThankYou         Intent = "thank_you"
	IntentChangeLanguage   Intent = "change_language"
	IntentCapabilities     Intent = "capabilities"
	IntentExitAssistant    Intent = "exit_assistant"
	IntentUnrecognized     Intent = "unrecognized"
)

// Rule maps trigger phrases to an intent. Rules are evaluated in table order;
// a rule matches when any of its triggers is a substring of the lower-cased
// utterance and the first matching rule wins.
type Rule struct {
	Intent   Intent
	Triggers []string
	// WantsSlot extracts the trimmed remainder after the matched trigger as
	// the slot value. Callers must treat an empty slot as "value not provided".
	WantsSlot bool
}

// Match is the routing result for one utterance.
type Match struct {
	Intent  Intent
	Slot    string
	Trigger string
}
