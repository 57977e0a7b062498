package orchestrator

import "github.com/valpere/subtran/internal"

// Status is the lifecycle state of the orchestrator.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCancelled Status = "cancelled"
)

// State is a point-in-time view of the batch.
type State struct {
	Status     Status
	Current    int
	HasCurrent bool
}

// Phase tells an observer why an entry update was emitted.
type Phase string

const (
	// PhaseAttempt marks the start of a retry attempt; the entry was cleared.
	PhaseAttempt Phase = "attempt"
	// PhaseStreaming carries the accumulated text after a streamed delta.
	PhaseStreaming Phase = "streaming"
	// PhaseRetrying reports a retryable failure before the retry delay.
	PhaseRetrying Phase = "retrying"
	// PhaseCached reports a translation served from memory.
	PhaseCached Phase = "cached"
	// PhaseDone carries the entry's final text or error.
	PhaseDone Phase = "done"
)

// Update describes a change to one entry.
type Update struct {
	EntryID int
	Text    string
	Err     *internal.TranslationError
	Phase   Phase
	Attempt int
}

// Observer receives progress from the batch loop. Calls are made
// synchronously from the goroutine running the batch.
type Observer interface {
	EntryUpdated(Update)
	BatchChanged(State)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) EntryUpdated(Update) {}
func (NopObserver) BatchChanged(State)  {}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnEntry func(Update)
	OnBatch func(State)
}

func (f ObserverFuncs) EntryUpdated(u Update) {
	if f.OnEntry != nil {
		f.OnEntry(u)
	}
}

func (f ObserverFuncs) BatchChanged(s State) {
	if f.OnBatch != nil {
		f.OnBatch(s)
	}
}

// Event is one item delivered by ChannelObserver. Exactly one of Entry or
// Batch is set.
type Event struct {
	Entry *Update
	Batch *State
}

// ChannelObserver forwards progress as Events. Sends block, so the consumer
// must keep draining Events until Close.
type ChannelObserver struct {
	ch chan Event
}

func NewChannelObserver(buffer int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan Event, buffer)}
}

func (c *ChannelObserver) Events() <-chan Event {
	return c.ch
}

func (c *ChannelObserver) EntryUpdated(u Update) {
	c.ch <- Event{Entry: &u}
}

func (c *ChannelObserver) BatchChanged(s State) {
	c.ch <- Event{Batch: &s}
}

// Close ends the event stream. Call it only after the batch has returned.
func (c *ChannelObserver) Close() {
	close(c.ch)
}
