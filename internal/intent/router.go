package intent

import (
	"math/rand"
	"strings"
)

// Router evaluates an ordered rule table. Route is a pure function of the
// input text: identical input always yields the identical match.
type Router struct {
	rules []Rule
}

func NewRouter(rules []Rule) *Router {
	return &Router{rules: append([]Rule(nil), rules...)}
}

// Route returns the first rule whose trigger matches, with the rule's slot
// extraction applied, or IntentUnrecognized when no rule fires.
func (r *Router) Route(text string) Match {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Match{Intent: IntentUnrecognized}
	}
	for _, rule := range r.rules {
		for _, trigger := range rule.Triggers {
			idx := strings.Index(lower, trigger)
			if idx < 0 {
				continue
			}
			m := Match{Intent: rule.Intent, Trigger: trigger}
			if rule.WantsSlot {
				m.Slot = strings.TrimSpace(lower[idx+len(trigger):])
			}
			return m
		}
	}
	return Match{Intent: IntentUnrecognized}
}

var clarificationPool = []string{
	"I didn't quite catch that. Could you repeat?",
	"Sorry, I didn't understand that.",
	"My apologies, I'm having trouble understanding.",
	"Could you say that again?",
	"I'm not sure I got that.",
	"Let me try that again. What was that?",
	"I missed that. Can you repeat please?",
}

// Clarification picks a non-repeating-feeling response for unrecognized input.
func Clarification() string {
	return clarificationPool[rand.Intn(len(clarificationPool))]
}
