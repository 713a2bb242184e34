// internal/storage/storage.go
package storage

import (
	"context"
	"errors"

	"launchpad/internal/storage/models"
)

var (
	// ErrNotFound is returned when a token, holder or trade does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict is returned by CommitTrade when the token's version
	// changed between the read and the commit. The caller retries the whole
	// read-compute-write cycle.
	ErrVersionConflict = errors.New("token version conflict")
)

// TradeCommit bundles the three writes of one trade. Implementations must
// apply it atomically: either the state update, the trade append and the
// holder upsert all land, or none do.
//
// Token carries the post-trade state with Version already incremented; the
// commit must only succeed if the stored row still holds Version-1. The
// store assigns Trade.ExecutedAt and Trade.Seq at commit time so history is
// ordered by commit, not submission.
type TradeCommit struct {
	Token  *models.Token
	Trade  *models.Trade
	Holder *models.Holder
}

// Store is the persistence boundary of the trade engine.
type Store interface {
	// Tokens
	CreateToken(ctx context.Context, token *models.Token) error
	GetToken(ctx context.Context, id string) (*models.Token, error)
	ListTokens(ctx context.Context) ([]*models.Token, error)

	// Trades
	CommitTrade(ctx context.Context, commit *TradeCommit) error
	ListTrades(ctx context.Context, tokenID string, limit int) ([]*models.Trade, error)

	// Holders
	GetHolder(ctx context.Context, tokenID, address string) (*models.Holder, error)
	ListHolders(ctx context.Context, tokenID string) ([]*models.Holder, error)

	// Comments
	AddComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, tokenID string) ([]*models.Comment, error)

	// RunMigrations prepares the schema; in-memory implementations no-op.
	RunMigrations() error
	Close() error
}
