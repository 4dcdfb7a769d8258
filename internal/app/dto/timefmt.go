package dto

import (
	"fmt"
	"time"
)

// MessageTimeLabel renders a message timestamp the way the chat thread shows
// it: "now" under a minute, "{n}m" under an hour, the clock time for the same
// calendar day, "Yesterday" for the previous one, and "{Month} {day}" beyond
// that. The ladder is evaluated in that order; the first rung that matches
// wins.
func MessageTimeLabel(at, now time.Time) string {
	at = at.Local()
	now = now.Local()

	elapsed := now.Sub(at)
	if elapsed < time.Minute {
		return "now"
	}
	if elapsed < time.Hour {
		return fmt.Sprintf("%dm", int(elapsed.Minutes()))
	}
	if sameDay(at, now) {
		return at.Format("15:04")
	}
	if sameDay(at, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return at.Format("Jan 2")
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
