// internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"launchpad/internal/curve"
	"launchpad/internal/events"
	"launchpad/internal/ledger"
	"launchpad/internal/storage"
	"launchpad/internal/storage/models"
)

const (
	maxNameLen        = 32
	maxTickerLen      = 10
	maxDescriptionLen = 500
	maxCommentLen     = 200

	defaultTradeRetries = 3

	// balanceEpsilon absorbs float rounding when a holder sells an entire
	// position priced off the live curve.
	balanceEpsilon = 1e-9
)

// Engine executes trades against bonding-curve token markets. Per token it
// enforces a single-writer discipline twice over: an in-process mutex
// serializes local trades, and the store's version check catches writers the
// mutex cannot see. Trades on different tokens never contend.
type Engine struct {
	store   storage.Store
	bus     *events.Bus
	params  curve.Params
	logger  *zap.Logger
	retries uint

	// one mutex per token id, created lazily
	locks sync.Map
}

// Option configures an Engine.
type Option func(*Engine)

// WithTradeRetries bounds how many times a conflicted trade is re-executed
// before it fails.
func WithTradeRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.retries = uint(n)
		}
	}
}

// WithCurveParams overrides the default bonding-curve constants.
func WithCurveParams(p curve.Params) Option {
	return func(e *Engine) {
		e.params = p
	}
}

// New creates a trade engine on top of a store and a notification bus.
func New(store storage.Store, bus *events.Bus, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		bus:     bus,
		params:  curve.DefaultParams(),
		logger:  logger.Named("engine"),
		retries: defaultTradeRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateTokenRequest carries the launch form fields.
type CreateTokenRequest struct {
	Name        string
	Ticker      string
	Description string
	ImageRef    string
	Creator     string
}

// CreateToken launches a new token with the seed market state.
func (e *Engine) CreateToken(ctx context.Context, req CreateTokenRequest) (*models.Token, error) {
	if err := validateCreateToken(req); err != nil {
		return nil, err
	}

	token := &models.Token{
		ID:             uuid.New().String(),
		Name:           strings.TrimSpace(req.Name),
		Ticker:         strings.ToUpper(strings.TrimSpace(req.Ticker)),
		Description:    strings.TrimSpace(req.Description),
		ImageRef:       req.ImageRef,
		CreatorAddress: req.Creator,
		MarketCap:      e.params.SeedMarketCap,
		CurveProgress:  0, // launches at 0% regardless of the seed cap
		TotalSupply:    e.params.SeedSupply,
		CreatedAt:      time.Now().UTC(),
	}

	if err := e.store.CreateToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	e.logger.Info("Token launched",
		zap.String("token_id", token.ID),
		zap.String("ticker", token.Ticker),
		zap.Float64("market_cap", token.MarketCap))

	e.publish(events.TokenCreatedEvent{BaseEvent: events.NewBase(events.TokenCreated), Token: token})
	return token, nil
}

// ExecuteTrade applies one buy or sell order. On success the committed trade
// record is returned; the market state, trade log and holder ledger were
// written atomically. On failure nothing was written.
func (e *Engine) ExecuteTrade(ctx context.Context, tokenID, kind string, solAmount float64, trader string) (*models.Trade, error) {
	if solAmount <= 0 || math.IsNaN(solAmount) || math.IsInf(solAmount, 0) {
		return nil, ErrInvalidAmount
	}
	if kind != models.KindBuy && kind != models.KindSell {
		return nil, fmt.Errorf("%w: unknown trade kind %q", ErrInvalidInput, kind)
	}
	if trader == "" {
		return nil, fmt.Errorf("%w: missing trader address", ErrInvalidInput)
	}

	mu := e.tokenLock(tokenID)
	mu.Lock()
	defer mu.Unlock()

	op := func() (*models.Trade, error) {
		return e.tryTrade(ctx, tokenID, kind, solAmount, trader)
	}
	notify := func(err error, wait time.Duration) {
		e.logger.Warn("Retrying conflicted trade",
			zap.String("token_id", tokenID),
			zap.Duration("backoff", wait),
			zap.Error(err))
	}

	trade, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(e.retries+1),
		backoff.WithNotify(notify))
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) || errors.Is(err, ErrInvalidInput) ||
			errors.Is(err, ErrInsufficientBalance) || errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		e.logger.Error("Trade failed",
			zap.String("token_id", tokenID),
			zap.String("kind", kind),
			zap.Float64("sol_amount", solAmount),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTradeFailed, err)
	}

	e.logger.Info("Trade executed",
		zap.String("token_id", tokenID),
		zap.String("trade_id", trade.ID),
		zap.String("kind", kind),
		zap.String("trader", trader),
		zap.Float64("sol_amount", solAmount),
		zap.Float64("token_amount", trade.TokenAmount),
		zap.Float64("unit_price", trade.UnitPrice))

	return trade, nil
}

// tryTrade runs one read-compute-write cycle. A version conflict at commit is
// returned retryable; every other failure is permanent.
func (e *Engine) tryTrade(ctx context.Context, tokenID, kind string, solAmount float64, trader string) (*models.Trade, error) {
	token, err := e.store.GetToken(ctx, tokenID)
	if err != nil {
		return nil, backoff.Permanent(err)
	}

	holder, err := e.store.GetHolder(ctx, tokenID, trader)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, backoff.Permanent(fmt.Errorf("failed to read holder: %w", err))
	}

	unitPrice, tokenAmount := e.params.Quote(solAmount, token.CurveProgress)

	if kind == models.KindSell {
		if holder == nil || tokenAmount > holder.TokensHeld*(1+balanceEpsilon) {
			return nil, backoff.Permanent(ErrInsufficientBalance)
		}
	}

	updatedHolder, heldDelta, err := ledger.Apply(holder, kind, tokenAmount, solAmount, time.Now().UTC())
	if err != nil {
		if errors.Is(err, ledger.ErrNoPosition) {
			return nil, backoff.Permanent(ErrInsufficientBalance)
		}
		return nil, backoff.Permanent(err)
	}
	updatedHolder.TokenID = tokenID
	updatedHolder.Address = trader

	newState := token.Clone()
	impact := e.params.Impact(solAmount)
	if kind == models.KindBuy {
		newState.MarketCap = e.params.ClampCap(token.MarketCap + impact)
		newState.TotalSupply = token.TotalSupply + tokenAmount
	} else {
		newState.MarketCap = e.params.ClampCap(token.MarketCap - impact)
		newState.TotalSupply = token.TotalSupply - tokenAmount
	}
	if newState.TotalSupply < 0 {
		newState.TotalSupply = 0
	}
	newState.CurveProgress = e.params.Progress(newState.MarketCap)
	newState.HeldTotal = token.HeldTotal + heldDelta
	newState.Version = token.Version + 1

	trade := &models.Trade{
		ID:          uuid.New().String(),
		TokenID:     tokenID,
		Kind:        kind,
		SolAmount:   solAmount,
		TokenAmount: tokenAmount,
		UnitPrice:   unitPrice,
		Trader:      trader,
	}

	commit := &storage.TradeCommit{Token: newState, Trade: trade, Holder: updatedHolder}
	if err := e.store.CommitTrade(ctx, commit); err != nil {
		if errors.Is(err, storage.ErrVersionConflict) {
			// retryable: another writer got in between our read and commit
			return nil, fmt.Errorf("%w: %w", ErrConcurrentModification, err)
		}
		return nil, backoff.Permanent(fmt.Errorf("failed to commit trade: %w", err))
	}

	e.publish(events.TradeExecutedEvent{BaseEvent: events.NewBase(events.TradeExecuted), Trade: trade})
	e.publish(events.StateUpdatedEvent{
		BaseEvent:     events.NewBase(events.StateUpdated),
		TokenID:       tokenID,
		MarketCap:     newState.MarketCap,
		CurveProgress: newState.CurveProgress,
		TotalSupply:   newState.TotalSupply,
	})
	e.publish(events.LedgerUpdatedEvent{
		BaseEvent:  events.NewBase(events.LedgerUpdated),
		TokenID:    tokenID,
		Address:    trader,
		TokensHeld: updatedHolder.TokensHeld,
	})

	return trade, nil
}

// PostComment appends a chat message to a token page.
func (e *Engine) PostComment(ctx context.Context, tokenID, text, author string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty comment", ErrInvalidInput)
	}
	if len(text) > maxCommentLen {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", ErrInvalidInput, maxCommentLen)
	}
	if author == "" {
		return nil, fmt.Errorf("%w: missing author address", ErrInvalidInput)
	}

	if _, err := e.store.GetToken(ctx, tokenID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		TokenID:  tokenID,
		Text:     text,
		Author:   author,
		PostedAt: time.Now().UTC(),
	}
	if err := e.store.AddComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	e.publish(events.CommentPostedEvent{BaseEvent: events.NewBase(events.CommentPosted), Comment: comment})
	return comment, nil
}

// GetToken returns a token's current market state.
func (e *Engine) GetToken(ctx context.Context, tokenID string) (*models.Token, error) {
	return e.store.GetToken(ctx, tokenID)
}

// ListTokens returns all launched tokens, newest first.
func (e *Engine) ListTokens(ctx context.Context) ([]*models.Token, error) {
	return e.store.ListTokens(ctx)
}

// ListTrades returns a token's trade history ordered by commit time, newest
// first.
func (e *Engine) ListTrades(ctx context.Context, tokenID string, limit int) ([]*models.Trade, error) {
	return e.store.ListTrades(ctx, tokenID, limit)
}

// ListHolders returns the token's holder ledger ranked by held tokens, with
// ownership percentages derived from the cached held total.
func (e *Engine) ListHolders(ctx context.Context, tokenID string) ([]*models.Holder, error) {
	token, err := e.store.GetToken(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	holders, err := e.store.ListHolders(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return ledger.Rank(holders, token.HeldTotal), nil
}

// ListComments returns a token's chat, oldest first.
func (e *Engine) ListComments(ctx context.Context, tokenID string) ([]*models.Comment, error) {
	return e.store.ListComments(ctx, tokenID)
}

func (e *Engine) tokenLock(tokenID string) *sync.Mutex {
	v, _ := e.locks.LoadOrStore(tokenID, &sync.Mutex{})
	return v.(*sync.Mutex)
}

func (e *Engine) publish(event events.Event) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(event); err != nil {
		e.logger.Warn("Failed to publish event",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
}

func validateCreateToken(req CreateTokenRequest) error {
	name := strings.TrimSpace(req.Name)
	ticker := strings.TrimSpace(req.Ticker)
	switch {
	case name == "":
		return fmt.Errorf("%w: missing token name", ErrInvalidInput)
	case len(name) > maxNameLen:
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, maxNameLen)
	case ticker == "":
		return fmt.Errorf("%w: missing ticker", ErrInvalidInput)
	case len(ticker) > maxTickerLen:
		return fmt.Errorf("%w: ticker exceeds %d characters", ErrInvalidInput, maxTickerLen)
	case len(strings.TrimSpace(req.Description)) > maxDescriptionLen:
		return fmt.Errorf("%w: description exceeds %d characters", ErrInvalidInput, maxDescriptionLen)
	case req.Creator == "":
		return fmt.Errorf("%w: missing creator address", ErrInvalidInput)
	}
	return nil
}
