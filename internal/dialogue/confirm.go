package dialogue

import (
	"strconv"
	"strings"
)

// confirmAction is how an utterance during CONFIRMING is interpreted.
type confirmAction int

const (
	confirmModify confirmAction = iota // new constraints, re-enter collecting
	confirmAccept                      // accept the candidate at pickIndex
	confirmReject                      // reject all offered candidates
)

var acceptWords = []string{
	"yes", "yep", "yeah", "sure", "ok", "okay", "confirm", "book it",
	"sounds good", "perfect", "go ahead", "that works", "do it",
}

var rejectWords = []string{
	"no", "nope", "neither", "none of those", "none of these", "nothing there",
}

var ordinalWords = map[string]int{
	"first": 0, "second": 1, "third": 2, "fourth": 3, "fifth": 4,
	"1st": 0, "2nd": 1, "3rd": 2, "4th": 3, "5th": 4,
}

var cancelWords = []string{
	"cancel", "never mind", "nevermind", "forget it", "stop", "quit", "abort",
}

// isCancellation reports whether the utterance explicitly abandons the
// negotiation. Checked before anything else on every turn.
func isCancellation(utterance string) bool {
	t := normalize(utterance)
	for _, w := range cancelWords {
		if t == w || strings.HasPrefix(t, w+" ") {
			return true
		}
	}
	return false
}

// interpretConfirmation classifies the next utterance after candidates were
// offered: accept (optionally picking an alternative by position), reject, or
// anything else, which is treated as new scheduling constraints.
func interpretConfirmation(utterance string, offered int) (confirmAction, int) {
	t := normalize(utterance)
	if t == "" {
		return confirmModify, 0
	}

	if idx, ok := pickIndex(t, offered); ok {
		return confirmAccept, idx
	}

	for _, w := range acceptWords {
		if t == w || strings.HasPrefix(t, w+" ") || strings.HasPrefix(t, w+",") {
			return confirmAccept, 0
		}
	}

	for _, w := range rejectWords {
		if t == w || strings.HasPrefix(t, w+" ") || strings.HasPrefix(t, w+",") {
			return confirmReject, 0
		}
	}

	return confirmModify, 0
}

// pickIndex recognizes "2", "option 2", "the second one" style picks.
func pickIndex(t string, offered int) (int, bool) {
	fields := strings.Fields(t)
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil && n >= 1 && n <= offered {
			return n - 1, true
		}
		if idx, ok := ordinalWords[f]; ok && idx < offered {
			return idx, true
		}
	}
	return 0, false
}

func normalize(s string) string {
	t := strings.ToLower(strings.TrimSpace(s))
	return strings.Trim(t, ".!?")
}
