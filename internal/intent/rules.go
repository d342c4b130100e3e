package intent

// DefaultRules is the assistant's rule table. Order encodes priority:
// multi-word phrases and specific commands come before single-word fallbacks
// so that, e.g., "play music" never falls through to the generic "open" rule
// and "close yourself" exits instead of closing an application.
func DefaultRules() []Rule {
	return []Rule{
		{Intent: IntentWhoAreYou, Triggers: []string{"who are you"}},
		{Intent: IntentHowAreYou, Triggers: []string{"how are you"}},
		{Intent: IntentYourName, Triggers: []string{"your name"}},
		{Intent: IntentThankYou, Triggers: []string{"thank you", "thanks"}},
		{Intent: IntentCapabilities, Triggers: []string{"what can you do", "list capabilities"}},
		{Intent: IntentChangeLanguage, Triggers: []string{"change language", "hindi"}},

		{Intent: IntentPlayMusic, Triggers: []string{"play music", "play song", "play a song"}},
		{Intent: IntentPauseMusic, Triggers: []string{"pause music", "stop music", "pause the music"}},
		{Intent: IntentNextSong, Triggers: []string{"next song", "skip song"}},

		{Intent: IntentExitAssistant, Triggers: []string{"close yourself", "shut yourself down", "goodbye"}},
		{Intent: IntentShutdown, Triggers: []string{"shut down", "shutdown"}},
		{Intent: IntentRestart, Triggers: []string{"restart", "reboot"}},
		{Intent: IntentLockSystem, Triggers: []string{"lock"}},
		{Intent: IntentSleepSystem, Triggers: []string{"sleep"}},

		{Intent: IntentTakeScreenshot, Triggers: []string{"screenshot"}},
		{Intent: IntentAdjustVolume, Triggers: []string{"volume", "mute", "unmute"}},
		{Intent: IntentAdjustBrightness, Triggers: []string{"brightness"}},

		{Intent: IntentSetReminder, Triggers: []string{"remind me to", "remind me", "reminder"}, WantsSlot: true},
		{Intent: IntentSetAlarm, Triggers: []string{"set an alarm", "set alarm", "alarm"}, WantsSlot: true},
		{Intent: IntentTakeNote, Triggers: []string{"take a note", "note down", "remember to", "remember", "note"}, WantsSlot: true},

		{Intent: IntentSearchWikipedia, Triggers: []string{"wikipedia", "wiki"}, WantsSlot: true},
		{Intent: IntentGetWeather, Triggers: []string{"weather in", "weather"}, WantsSlot: true},
		{Intent: IntentGetNews, Triggers: []string{"news"}},
		{Intent: IntentSearchWeb, Triggers: []string{"search for", "search"}, WantsSlot: true},

		{Intent: IntentGetTime, Triggers: []string{"what's the time", "what time", "time"}},
		{Intent: IntentGetDate, Triggers: []string{"what's the date", "what day", "date"}},
		{Intent: IntentTellJoke, Triggers: []string{"joke"}},

		{Intent: IntentCloseApp, Triggers: []string{"close", "quit"}, WantsSlot: true},
		{Intent: IntentOpenApp, Triggers: []string{"open"}, WantsSlot: true},
	}
}
