// Package extract turns raw utterances into Slot Model updates. The language
// model's output is treated as untrusted input: everything it returns is
// validated and normalized here before it can touch a Slot Model.
package extract

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eransh/bookwise/internal/slot"
)

// ErrExtraction marks a turn on which the language-understanding capability
// was unusable: unreachable, timed out, or returned an unparsable structure.
// The orchestrator recovers by keeping the prior model and asking the user to
// rephrase.
var ErrExtraction = errors.New("extraction failed")

// Extraction is the wire-level structure the language model returns. Dates
// must already be resolved to absolute calendar dates against the reference
// time supplied with the call.
type Extraction struct {
	Intent          string            `json:"intent"`
	DateEarliest    string            `json:"date_earliest,omitempty"` // 2006-01-02
	DateLatest      string            `json:"date_latest,omitempty"`
	TimeEarliest    string            `json:"time_earliest,omitempty"` // 15:04 (24h)
	TimeLatest      string            `json:"time_latest,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	Attendees       []string          `json:"attendees,omitempty"`
	Title           string            `json:"title,omitempty"`
	Provenance      map[string]string `json:"provenance,omitempty"` // field -> explicit|inferred
	Confidence      float64           `json:"confidence"`
	Reasoning       string            `json:"reasoning,omitempty"`
}

// LanguageModel is the external language-understanding capability. It is a
// pure, possibly-failing, possibly-slow call.
type LanguageModel interface {
	ClassifyAndExtract(ctx context.Context, utterance string, referenceTime time.Time, known slot.Model) (*Extraction, error)
	IsConfigured() bool
}

// Extractor merges newly extracted fields into a prior Slot Model.
type Extractor struct {
	lm  LanguageModel
	loc *time.Location
}

func New(lm LanguageModel, loc *time.Location) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{lm: lm, loc: loc}
}

// Extract runs the language model over the utterance and merges the result
// into prior. Relative expressions are resolved by the model against
// referenceTime, which is fixed for the whole turn. On failure prior is
// returned unchanged alongside ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, utterance string, prior slot.Model, referenceTime time.Time) (slot.Model, error) {
	if e.lm == nil || !e.lm.IsConfigured() {
		return prior, fmt.Errorf("%w: language model not configured", ErrExtraction)
	}

	raw, err := e.lm.ClassifyAndExtract(ctx, utterance, referenceTime, prior)
	if err != nil {
		return prior, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	update, err := e.normalize(raw)
	if err != nil {
		return prior, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	return slot.Merge(prior, update), nil
}
