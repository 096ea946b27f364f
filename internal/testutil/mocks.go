package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eransh/bookwise/internal/availability"
	"github.com/eransh/bookwise/internal/extract"
	"github.com/eransh/bookwise/internal/slot"
)

// MockLanguageModel scripts extraction results per utterance for testing
type MockLanguageModel struct {
	mu          sync.Mutex
	responses   map[string]*extract.Extraction
	failNext    bool
	callCount   int
	lastKnown   slot.Model
	lastRefTime time.Time
}

// NewMockLanguageModel creates a mock with no scripted responses
func NewMockLanguageModel() *MockLanguageModel {
	return &MockLanguageModel{responses: make(map[string]*extract.Extraction)}
}

// Script registers the extraction returned for an utterance
func (m *MockLanguageModel) Script(utterance string, e *extract.Extraction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[utterance] = e
}

// FailNext makes the next call fail as if the capability were unreachable
func (m *MockLanguageModel) FailNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = true
}

func (m *MockLanguageModel) IsConfigured() bool { return true }

func (m *MockLanguageModel) ClassifyAndExtract(
	_ context.Context,
	utterance string,
	referenceTime time.Time,
	known slot.Model,
) (*extract.Extraction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.lastKnown = known
	m.lastRefTime = referenceTime

	if m.failNext {
		m.failNext = false
		return nil, fmt.Errorf("language model unreachable")
	}

	if e, ok := m.responses[utterance]; ok {
		return e, nil
	}
	// Unscripted utterances extract nothing, like chit-chat.
	return &extract.Extraction{Intent: "unknown", Confidence: 1}, nil
}

// CallCount returns how many extraction calls were made
func (m *MockLanguageModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// LastReferenceTime returns the reference time of the most recent call
func (m *MockLanguageModel) LastReferenceTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRefTime
}

// MockCalendar simulates the external calendar capability: freebusy reads
// and idempotent event creation.
type MockCalendar struct {
	mu            sync.Mutex
	busy          []availability.Interval
	created       map[string]string // idempotency key -> event id
	createCalls   int
	freebusyCalls int
	failFreeBusy  bool
	failCreate    int // number of create calls to fail before succeeding
	nextEventID   int
}

// NewMockCalendar creates an empty mock calendar
func NewMockCalendar() *MockCalendar {
	return &MockCalendar{created: make(map[string]string)}
}

// AddBusy marks an interval as busy
func (m *MockCalendar) AddBusy(start, end time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.busy = append(m.busy, availability.Interval{Start: start, End: end})
}

// FailFreeBusy makes freebusy queries fail until cleared
func (m *MockCalendar) FailFreeBusy(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failFreeBusy = fail
}

// FailCreates makes the next n create calls fail
func (m *MockCalendar) FailCreates(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreate = n
}

func (m *MockCalendar) FreeBusy(_ context.Context, _ []string, from, to time.Time) ([]availability.Interval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.freebusyCalls++
	if m.failFreeBusy {
		return nil, fmt.Errorf("calendar unreachable")
	}

	var out []availability.Interval
	for _, b := range m.busy {
		if b.Overlaps(from, to) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *MockCalendar) CreateEvent(
	_ context.Context,
	_ string,
	cand slot.Candidate,
	_ []string,
	idempotencyKey string,
) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.failCreate > 0 {
		m.failCreate--
		return "", fmt.Errorf("calendar unreachable")
	}

	if id, ok := m.created[idempotencyKey]; ok {
		return id, nil
	}

	m.nextEventID++
	id := fmt.Sprintf("evt-%d", m.nextEventID)
	m.created[idempotencyKey] = id
	m.busy = append(m.busy, availability.Interval{Start: cand.Start, End: cand.End})
	return id, nil
}

// CreateCalls returns how many create calls were made
func (m *MockCalendar) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

// EventCount returns how many distinct events exist
func (m *MockCalendar) EventCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}
