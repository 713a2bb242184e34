// internal/events/types.go
package events

import (
	"time"

	"launchpad/internal/storage/models"
)

// EventType represents the type of event.
type EventType string

const (
	// Token lifecycle
	TokenCreated EventType = "token.created"

	// Trade pipeline: one committed trade emits all three, in no guaranteed
	// order relative to each other. Observers must not assume cross-type
	// ordering.
	TradeExecuted EventType = "trade.executed"
	StateUpdated  EventType = "state.updated"
	LedgerUpdated EventType = "ledger.updated"

	// Chat
	CommentPosted EventType = "comment.posted"
)

// AllTypes lists every event type the engine publishes, for observers that
// want the full feed.
func AllTypes() []EventType {
	return []EventType{TokenCreated, TradeExecuted, StateUpdated, LedgerUpdated, CommentPosted}
}

// Event is the base interface for all events.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	EventType EventType `json:"type"`
	EventTime time.Time `json:"time"`
}

// Type returns the event type.
func (e BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// NewBase stamps a BaseEvent with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, EventTime: time.Now().UTC()}
}

// TokenCreatedEvent is emitted when a token launches.
type TokenCreatedEvent struct {
	BaseEvent
	Token *models.Token `json:"token"`
}

// TradeExecutedEvent is emitted after a trade commits.
type TradeExecutedEvent struct {
	BaseEvent
	Trade *models.Trade `json:"trade"`
}

// StateUpdatedEvent is emitted when a token's market state changes.
type StateUpdatedEvent struct {
	BaseEvent
	TokenID       string  `json:"tokenId"`
	MarketCap     float64 `json:"marketCap"`
	CurveProgress float64 `json:"curveProgress"`
	TotalSupply   float64 `json:"totalSupply"`
}

// LedgerUpdatedEvent is emitted when a holder's position changes.
type LedgerUpdatedEvent struct {
	BaseEvent
	TokenID    string  `json:"tokenId"`
	Address    string  `json:"address"`
	TokensHeld float64 `json:"tokensHeld"`
}

// CommentPostedEvent is emitted when a comment lands on a token page.
type CommentPostedEvent struct {
	BaseEvent
	Comment *models.Comment `json:"comment"`
}
