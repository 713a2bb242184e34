// internal/storage/models/token.go
package models

import "time"

// Trade kinds as stored and served.
const (
	KindBuy  = "buy"
	KindSell = "sell"
)

// Token is the market state of one launched token. Version is the
// optimistic-concurrency counter: every committed trade increments it, and a
// commit only succeeds against the version it was computed from.
type Token struct {
	ID             string  `gorm:"primarykey;type:varchar(36)" json:"id"`
	Name           string  `gorm:"not null;type:varchar(32)" json:"name"`
	Ticker         string  `gorm:"not null;type:varchar(10)" json:"ticker"`
	Description    string  `gorm:"type:varchar(500)" json:"description"`
	ImageRef       string  `gorm:"type:text" json:"imageRef,omitempty"`
	CreatorAddress string  `gorm:"not null;type:varchar(64)" json:"creatorAddress"`
	MarketCap      float64 `gorm:"type:decimal(20,9);not null" json:"marketCap"`
	CurveProgress  float64 `gorm:"type:decimal(10,6);not null" json:"curveProgress"`
	TotalSupply    float64 `gorm:"type:decimal(30,9);not null" json:"totalSupply"`
	// HeldTotal caches the sum of TokensHeld across all holders so ownership
	// percentages derive in O(1) at read time instead of a global recompute
	// per trade. It diverges from TotalSupply because the seed supply is
	// minted before anyone holds tokens.
	HeldTotal float64   `gorm:"type:decimal(30,9);not null" json:"-"`
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"index;default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"-"`
}

// Clone returns a copy safe to mutate without touching cached rows.
func (t *Token) Clone() *Token {
	c := *t
	return &c
}
