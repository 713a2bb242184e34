// internal/storage/memory/memory.go
package memory

// In-memory Store used by tests and by the server's demo mode. Semantics
// mirror the postgres implementation: version-checked atomic trade commits,
// commit-time trade ordering, copy-on-read rows.

import (
	"context"
	"sort"
	"sync"
	"time"

	"launchpad/internal/storage"
	"launchpad/internal/storage/models"
)

type Store struct {
	mu       sync.RWMutex
	tokens   map[string]*models.Token
	trades   map[string][]*models.Trade
	holders  map[string][]*models.Holder
	comments map[string][]*models.Comment
	seq      map[string]int64
	nextID   uint
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		tokens:   make(map[string]*models.Token),
		trades:   make(map[string][]*models.Trade),
		holders:  make(map[string][]*models.Holder),
		comments: make(map[string][]*models.Comment),
		seq:      make(map[string]int64),
	}
}

func (s *Store) CreateToken(_ context.Context, token *models.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.ID] = token.Clone()
	return nil
}

func (s *Store) GetToken(_ context.Context, id string) (*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return token.Clone(), nil
}

func (s *Store) ListTokens(_ context.Context) ([]*models.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// CommitTrade applies the state update, trade append and holder upsert under
// one lock. The token row must still hold the version the trade was computed
// from, otherwise nothing is written and ErrVersionConflict is returned.
func (s *Store) CommitTrade(_ context.Context, commit *storage.TradeCommit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tokens[commit.Token.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if current.Version != commit.Token.Version-1 {
		return storage.ErrVersionConflict
	}

	token := commit.Token.Clone()
	token.UpdatedAt = time.Now().UTC()
	s.tokens[token.ID] = token

	s.seq[token.ID]++
	trade := commit.Trade.Clone()
	trade.ExecutedAt = time.Now().UTC()
	trade.Seq = s.seq[token.ID]
	s.trades[token.ID] = append(s.trades[token.ID], trade)

	// propagate commit metadata back to the caller's record
	commit.Trade.ExecutedAt = trade.ExecutedAt
	commit.Trade.Seq = trade.Seq

	holder := commit.Holder.Clone()
	holder.UpdatedAt = trade.ExecutedAt
	rows := s.holders[token.ID]
	replaced := false
	for i, h := range rows {
		if h.Address == holder.Address {
			holder.ID = h.ID
			rows[i] = holder
			replaced = true
			break
		}
	}
	if !replaced {
		s.nextID++
		holder.ID = s.nextID
		s.holders[token.ID] = append(rows, holder)
	}

	return nil
}

func (s *Store) ListTrades(_ context.Context, tokenID string, limit int) ([]*models.Trade, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.trades[tokenID]
	out := make([]*models.Trade, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, rows[i].Clone())
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *Store) GetHolder(_ context.Context, tokenID, address string) (*models.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, h := range s.holders[tokenID] {
		if h.Address == address {
			return h.Clone(), nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *Store) ListHolders(_ context.Context, tokenID string) ([]*models.Holder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.holders[tokenID]
	out := make([]*models.Holder, 0, len(rows))
	for _, h := range rows {
		out = append(out, h.Clone())
	}
	return out, nil
}

func (s *Store) AddComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	comment.ID = s.nextID
	c := *comment
	s.comments[comment.TokenID] = append(s.comments[comment.TokenID], &c)
	return nil
}

func (s *Store) ListComments(_ context.Context, tokenID string) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := s.comments[tokenID]
	out := make([]*models.Comment, 0, len(rows))
	for _, c := range rows {
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

func (s *Store) RunMigrations() error {
	return nil
}

func (s *Store) Close() error {
	return nil
}
