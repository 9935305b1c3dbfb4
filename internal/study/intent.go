package study

import (
	"errors"
	"fmt"
	"strings"
)

// Intent is a single requested transition of a study session. Manual input
// and timer expiry produce the same values.
type Intent int

const (
	IntentNone Intent = iota
	IntentFlip
	IntentNext
	IntentPrev
	IntentKnown
	IntentUnknown
	IntentPause
	IntentRestart
	IntentExit
	// IntentReveal and IntentAdvance are emitted by the per-card countdown.
	IntentReveal
	IntentAdvance
)

var ErrUnknownIntent = errors.New("unknown intent")

var intentNames = map[Intent]string{
	IntentNone:    "none",
	IntentFlip:    "flip",
	IntentNext:    "next",
	IntentPrev:    "prev",
	IntentKnown:   "known",
	IntentUnknown: "unknown",
	IntentPause:   "pause",
	IntentRestart: "restart",
	IntentExit:    "exit",
	IntentReveal:  "reveal",
	IntentAdvance: "advance",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("Intent(%d)", int(i))
}

// ParseIntent resolves the name of a user-facing intent, as used in URLs.
// Timer intents cannot be requested by name.
func ParseIntent(name string) (Intent, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "flip":
		return IntentFlip, nil
	case "next":
		return IntentNext, nil
	case "prev":
		return IntentPrev, nil
	case "known":
		return IntentKnown, nil
	case "unknown":
		return IntentUnknown, nil
	case "pause":
		return IntentPause, nil
	case "restart":
		return IntentRestart, nil
	case "exit":
		return IntentExit, nil
	}
	return IntentNone, fmt.Errorf("%w: %q", ErrUnknownIntent, name)
}

// KeyIntent maps a keyboard key to an intent: k, u and p (any case) for
// known, unknown and pause; enter or space flips the card.
func KeyIntent(key string) (Intent, bool) {
	if key == " " {
		return IntentFlip, true
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "k":
		return IntentKnown, true
	case "u":
		return IntentUnknown, true
	case "p":
		return IntentPause, true
	case "enter", "space", "spacebar":
		return IntentFlip, true
	}
	return IntentNone, false
}
