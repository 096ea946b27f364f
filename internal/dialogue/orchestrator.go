package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eransh/bookwise/internal/availability"
	"github.com/eransh/bookwise/internal/booking"
	"github.com/eransh/bookwise/internal/extract"
	"github.com/eransh/bookwise/internal/resolve"
	"github.com/eransh/bookwise/internal/slot"
	"github.com/eransh/bookwise/internal/timeutil"
)

// Recorder persists committed booking records.
type Recorder interface {
	InsertBooking(conversationID string, rec *slot.BookingRecord) error
}

// Notifier delivers booking confirmations. Best effort only.
type Notifier interface {
	IsConfigured() bool
	SendBookingConfirmation(ctx context.Context, rec *slot.BookingRecord) error
}

// Config bounds the negotiation.
type Config struct {
	MaxTurns           int
	MaxExtractFailures int
}

// Deps are the collaborating components the orchestrator drives.
type Deps struct {
	Extractor  *extract.Extractor
	Resolver   *resolve.Resolver
	Reconciler *availability.Reconciler
	Committer  *booking.Committer
	FreeBusy   availability.FreeBusy
	Store      Store
	Recorder   Recorder // optional
	Notifier   Notifier // optional
}

// Orchestrator is the state machine tying extraction, resolution,
// reconciliation, and booking together across turns.
type Orchestrator struct {
	deps Deps
	cfg  Config

	// Turns of the same negotiation never execute concurrently; independent
	// conversations proceed in parallel.
	mu    sync.Mutex
	locks map[string]*convLock
}

// convLock serializes one conversation's turns. The refcount tracks holders
// and waiters so the map entry can be reclaimed once nobody needs it.
type convLock struct {
	sync.Mutex
	refs int
}

func New(deps Deps, cfg Config) *Orchestrator {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 12
	}
	if cfg.MaxExtractFailures <= 0 {
		cfg.MaxExtractFailures = 3
	}
	return &Orchestrator{
		deps:  deps,
		cfg:   cfg,
		locks: make(map[string]*convLock),
	}
}

// HandleTurn processes one utterance to completion and returns the next
// assistant message plus the updated phase. The reference time is fixed for
// the whole turn so extraction and resolution stay reproducible.
func (o *Orchestrator) HandleTurn(ctx context.Context, conversationID, utterance string, now time.Time) (Reply, error) {
	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	unlock := o.lockConversation(conversationID)
	defer unlock()

	state, err := o.deps.Store.Load(conversationID)
	if err != nil {
		return Reply{}, err
	}
	fresh := state == nil || state.Phase.Terminal()
	if fresh {
		state = newState(conversationID)
	}

	if fresh && strings.TrimSpace(utterance) == "" {
		msg, suggestions := greetingMessage()
		state.UpdatedAt = now
		if err := o.deps.Store.Save(state); err != nil {
			return Reply{}, err
		}
		return Reply{
			ConversationID: state.ID,
			Message:        msg,
			Phase:          state.Phase,
			Suggestions:    suggestions,
		}, nil
	}

	state.Turns++

	if isCancellation(utterance) {
		return o.abandon(state, cancelledMessage())
	}

	if state.Phase == PhaseConfirming && len(state.Offered) > 0 {
		action, idx := interpretConfirmation(utterance, len(state.Offered))
		switch action {
		case confirmAccept:
			return o.commit(ctx, state, state.Offered[idx], now)
		case confirmReject:
			state.Offered = nil
			state.Phase = PhaseCollecting
			return o.finish(state, rejectedMessage(), now)
		case confirmModify:
			// New constraints: the negotiation re-enters collecting with the
			// slot model intact, not from empty.
			state.Offered = nil
			state.Phase = PhaseCollecting
		}
	}

	merged, err := o.deps.Extractor.Extract(ctx, utterance, state.Slot, now)
	if err != nil {
		if !errors.Is(err, extract.ErrExtraction) {
			return Reply{}, err
		}
		state.ExtractFailures++
		slog.Warn("extraction failed", "conversation", state.ID, "failures", state.ExtractFailures, "error", err)
		if state.ExtractFailures >= o.cfg.MaxExtractFailures {
			return o.abandon(state, apologyHandoffMessage())
		}
		return o.finish(state, rephraseMessage(), now)
	}
	state.ExtractFailures = 0
	state.Slot = merged

	switch state.Slot.Intent {
	case slot.IntentCancel:
		return o.abandon(state, cancelledMessage())
	case slot.IntentCheckAvailability:
		return o.checkAvailability(ctx, state, now)
	case slot.IntentModify:
		// A modification is a scheduling negotiation already in progress.
		state.Slot.Intent = slot.IntentSchedule
	}

	return o.resolveAndReconcile(ctx, state, now)
}

func (o *Orchestrator) resolveAndReconcile(ctx context.Context, state *State, now time.Time) (Reply, error) {
	outcome := o.deps.Resolver.Resolve(state.Slot, now)
	switch outcome.Kind {
	case resolve.KindNeedsClarification:
		state.Phase = PhaseCollecting
		return o.finish(state, outcome.Question, now)
	case resolve.KindContradiction:
		state.Phase = PhaseCollecting
		return o.finish(state, fmt.Sprintf("That can't work: %s. When would you like to meet instead?", outcome.Reason), now)
	}

	state.Phase = PhaseResolving
	if !state.Slot.Has(slot.FieldDuration) {
		// The default duration applies only once the slot is otherwise
		// complete; stamp it so later turns keep the same window.
		state.Slot.Duration = outcome.Window.Duration
		state.Slot.Provenance[slot.FieldDuration] = slot.Defaulted
	}

	result, err := o.deps.Reconciler.Reconcile(ctx, *outcome.Window, state.Slot.Attendees)
	if err != nil {
		slog.Warn("reconciliation failed", "conversation", state.ID, "error", err)
		return o.finish(state, calendarTroubleMessage(), now)
	}

	switch result.Kind {
	case availability.KindConfirmed:
		state.Offered = []slot.Candidate{*result.Confirmed}
		state.Phase = PhaseConfirming
		return o.finish(state, confirmedMessage(*result.Confirmed), now)
	case availability.KindAlternatives:
		state.Offered = result.Alternatives
		state.Phase = PhaseConfirming
		return o.finish(state, alternativesMessage(result.Alternatives), now)
	default:
		// The reconciler never widens its own bounds; widening is the user's
		// call.
		state.Offered = nil
		state.Phase = PhaseCollecting
		return o.finish(state, widenMessage(), now)
	}
}

// commit books an accepted candidate. The idempotency key is derived from the
// conversation identity and the candidate, never regenerated, so a retried
// commit cannot double-book.
func (o *Orchestrator) commit(ctx context.Context, state *State, cand slot.Candidate, now time.Time) (Reply, error) {
	attendees := state.Slot.Attendees
	title := meetingTitle(state.Slot)
	key := booking.IdempotencyKey(state.ID, cand, attendees)

	rec, err := o.deps.Committer.Commit(ctx, title, cand, attendees, key)
	switch {
	case errors.Is(err, booking.ErrConflict):
		slog.Info("booking conflict, re-resolving", "conversation", state.ID, "slot", cand.Start)
		return o.reResolveAfterConflict(ctx, state, now)
	case errors.Is(err, booking.ErrUnavailable):
		state.BookingAttempts++
		state.Phase = PhaseConfirming
		slog.Warn("booking unavailable", "conversation", state.ID, "attempts", state.BookingAttempts, "error", err)
		return o.finish(state, bookingFailedMessage(), now)
	case err != nil:
		return Reply{}, err
	}

	if o.deps.Recorder != nil {
		if err := o.deps.Recorder.InsertBooking(state.ID, rec); err != nil {
			slog.Error("failed to record booking", "conversation", state.ID, "error", err)
		}
	}
	if o.deps.Notifier != nil && o.deps.Notifier.IsConfigured() {
		if err := o.deps.Notifier.SendBookingConfirmation(ctx, rec); err != nil {
			slog.Warn("confirmation notification failed", "conversation", state.ID, "error", err)
		}
	}

	state.Phase = PhaseBooked
	if err := o.deps.Store.Delete(state.ID); err != nil {
		slog.Warn("failed to delete conversation state", "conversation", state.ID, "error", err)
	}

	return Reply{
		ConversationID: state.ID,
		Message:        bookedMessage(rec),
		Phase:          PhaseBooked,
		Terminal:       true,
	}, nil
}

// reResolveAfterConflict re-enters resolving when the accepted slot was taken
// between reconciliation and commit.
func (o *Orchestrator) reResolveAfterConflict(ctx context.Context, state *State, now time.Time) (Reply, error) {
	state.Offered = nil
	state.Phase = PhaseResolving

	outcome := o.deps.Resolver.Resolve(state.Slot, now)
	if outcome.Kind != resolve.KindBookable {
		state.Phase = PhaseCollecting
		return o.finish(state, outcome.Question, now)
	}

	result, err := o.deps.Reconciler.Reconcile(ctx, *outcome.Window, state.Slot.Attendees)
	if err != nil {
		slog.Warn("reconciliation after conflict failed", "conversation", state.ID, "error", err)
		return o.finish(state, calendarTroubleMessage(), now)
	}

	switch result.Kind {
	case availability.KindConfirmed:
		state.Offered = []slot.Candidate{*result.Confirmed}
		state.Phase = PhaseConfirming
		return o.finish(state, confirmedMessage(*result.Confirmed), now)
	case availability.KindAlternatives:
		state.Offered = result.Alternatives
		state.Phase = PhaseConfirming
		return o.finish(state, conflictRetryMessage(result.Alternatives), now)
	default:
		state.Phase = PhaseCollecting
		return o.finish(state, widenMessage(), now)
	}
}

// checkAvailability answers a schedule question from freebusy data without
// entering the booking pipeline.
func (o *Orchestrator) checkAvailability(ctx context.Context, state *State, now time.Time) (Reply, error) {
	if state.Slot.DateRange == nil {
		state.Phase = PhaseCollecting
		return o.finish(state, "Which day should I check? For example: 'Am I free tomorrow?'", now)
	}

	day := timeutil.StartOfDay(state.Slot.DateRange.Earliest)
	busy, err := o.deps.FreeBusy.FreeBusy(ctx, state.Slot.Attendees, day, day.AddDate(0, 0, 1))
	if err != nil {
		slog.Warn("freebusy check failed", "conversation", state.ID, "error", err)
		return o.finish(state, calendarTroubleMessage(), now)
	}

	state.Phase = PhaseCollecting
	return o.finish(state, scheduleMessage(timeutil.FormatDay(day), busy), now)
}

// finish saves the state and returns a non-terminal reply, unless the turn
// budget has run out, in which case the negotiation is abandoned instead of
// looping forever.
func (o *Orchestrator) finish(state *State, message string, now time.Time) (Reply, error) {
	if state.Turns >= o.cfg.MaxTurns {
		return o.abandon(state, apologyHandoffMessage())
	}

	state.UpdatedAt = now
	if err := o.deps.Store.Save(state); err != nil {
		return Reply{}, err
	}
	return Reply{
		ConversationID: state.ID,
		Message:        message,
		Phase:          state.Phase,
	}, nil
}

func (o *Orchestrator) abandon(state *State, message string) (Reply, error) {
	state.Phase = PhaseAbandoned
	if err := o.deps.Store.Delete(state.ID); err != nil {
		slog.Warn("failed to delete conversation state", "conversation", state.ID, "error", err)
	}
	return Reply{
		ConversationID: state.ID,
		Message:        message,
		Phase:          PhaseAbandoned,
		Terminal:       true,
	}, nil
}

func (o *Orchestrator) lockConversation(id string) func() {
	o.mu.Lock()
	l, ok := o.locks[id]
	if !ok {
		l = &convLock{}
		o.locks[id] = l
	}
	l.refs++
	o.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, id)
		}
		o.mu.Unlock()
	}
}
