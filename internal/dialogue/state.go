// Package dialogue drives a scheduling negotiation across turns: it owns the
// Conversation State, runs extraction, resolution, reconciliation, and
// booking, and produces the next assistant message.
package dialogue

import (
	"time"

	"github.com/eransh/bookwise/internal/slot"
)

// Phase is the dialogue phase of a negotiation.
type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseResolving  Phase = "resolving"
	PhaseConfirming Phase = "confirming"
	PhaseBooked     Phase = "booked"
	PhaseAbandoned  Phase = "abandoned"
)

// Terminal reports whether the phase ends the negotiation.
func (p Phase) Terminal() bool {
	return p == PhaseBooked || p == PhaseAbandoned
}

// State is one negotiation's conversation state. The orchestrator owns it
// exclusively: it is loaded at the start of a turn, mutated, and saved (or
// destroyed on a terminal phase) before the reply is returned.
type State struct {
	ID              string           `json:"id"`
	Slot            slot.Model       `json:"slot"`
	Offered         []slot.Candidate `json:"offered,omitempty"`
	Phase           Phase            `json:"phase"`
	Turns           int              `json:"turns"`
	ExtractFailures int              `json:"extract_failures"`
	BookingAttempts int              `json:"booking_attempts"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func newState(id string) *State {
	return &State{
		ID:    id,
		Slot:  slot.New(),
		Phase: PhaseCollecting,
	}
}

// Reply is what the transport boundary delivers back to the user.
type Reply struct {
	ConversationID string   `json:"conversation_id"`
	Message        string   `json:"message"`
	Phase          Phase    `json:"phase"`
	Terminal       bool     `json:"terminal"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

// Store persists Conversation State between turns, keyed by conversation ID.
type Store interface {
	Load(id string) (*State, error) // nil when unknown
	Save(state *State) error
	Delete(id string) error
}
