package events

import (
	"context"
	"sync"

	"brawler/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeMatchScheduled   EventType = "match_scheduled"
	EventTypeTimerUpdate      EventType = "timer_update"
	EventTypePoolUpdate       EventType = "pool_update"
	EventTypeMatchResult      EventType = "match_result"
	EventTypeCharacterAdded   EventType = "character_added"
	EventTypeCharacterRemoved EventType = "character_removed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// SideView is the broadcast form of one side of a card
type SideView struct {
	SideID   string            `json:"side_id"`
	Fighters []*models.Fighter `json:"fighters"`
	Odds     float64           `json:"odds"`
}

// MatchScheduledEvent announces a freshly booked card
type MatchScheduledEvent struct {
	MatchID   string      `json:"match_id"`
	MatchType string      `json:"match_type"`
	Sides     [2]SideView `json:"sides"`
	Pool      int64       `json:"pool"`
	Countdown int         `json:"countdown"`
}

func (e MatchScheduledEvent) Type() EventType {
	return EventTypeMatchScheduled
}

// TimerUpdateEvent carries the once-per-second countdown tick
type TimerUpdateEvent struct {
	Countdown      int      `json:"countdown"`
	NextMatchNames []string `json:"next_match,omitempty"`
	Frozen         bool     `json:"frozen,omitempty"`
}

func (e TimerUpdateEvent) Type() EventType {
	return EventTypeTimerUpdate
}

// PoolUpdateEvent announces a new pool total after an accepted bet
type PoolUpdateEvent struct {
	Pool int64 `json:"pool"`
}

func (e PoolUpdateEvent) Type() EventType {
	return EventTypePoolUpdate
}

// MatchResultEvent announces a settled match
type MatchResultEvent struct {
	MatchID      string             `json:"match_id"`
	Sides        [2]SideView        `json:"sides"`
	Log          []models.TurnEntry `json:"log"`
	WinnerID     string             `json:"winner_id"`
	WinnerName   string             `json:"winner"`
	Summary      string             `json:"summary"`
	TitleOutcome string             `json:"title_outcome"`
	Belt         string             `json:"belt,omitempty"`
	Payouts      map[string]int64   `json:"payouts"`
}

func (e MatchResultEvent) Type() EventType {
	return EventTypeMatchResult
}

// CharacterAddedEvent announces a fighter approved onto the roster
type CharacterAddedEvent struct {
	FighterID string `json:"fighter_id"`
	Name      string `json:"name"`
}

func (e CharacterAddedEvent) Type() EventType {
	return EventTypeCharacterAdded
}

// CharacterRemovedEvent announces a fighter rejected by moderation
type CharacterRemovedEvent struct {
	FighterID string `json:"fighter_id"`
	Reason    string `json:"reason"`
}

func (e CharacterRemovedEvent) Type() EventType {
	return EventTypeCharacterRemoved
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeAll adds a handler for every known event type. The broadcast
// hub uses this to fan out the full outbound feed.
func (b *Bus) SubscribeAll(handler Handler) {
	for _, et := range []EventType{
		EventTypeMatchScheduled,
		EventTypeTimerUpdate,
		EventTypePoolUpdate,
		EventTypeMatchResult,
		EventTypeCharacterAdded,
		EventTypeCharacterRemoved,
	} {
		b.Subscribe(et, handler)
	}
}

// Emit publishes an event to all registered handlers
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	// Call handlers asynchronously to avoid blocking the emitter
	for _, handler := range handlers {
		go func(h Handler) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType": event.Type(),
						"panic":     r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler)
	}
}

// TransactionalBus stashes events published during a unit of work and
// forwards them to the real bus only after the transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus wrapping the real one
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish stashes an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Flush emits pending events; called after a successful DB commit.
// A background context is used so emission outlives the transaction context.
func (b *TransactionalBus) Flush(ctx context.Context) error {
	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
	return nil
}

// Discard drops pending events; called after rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
