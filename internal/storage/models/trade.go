// internal/storage/models/trade.go
package models

import "time"

// Trade is one committed buy or sell. Rows are append-only and immutable;
// ExecutedAt is assigned by the store at commit time and Seq breaks ties
// between trades committed in the same instant, so (ExecutedAt, Seq) is a
// total order over a token's history.
type Trade struct {
	ID          string    `gorm:"primarykey;type:varchar(36)" json:"id"`
	TokenID     string    `gorm:"index;not null;type:varchar(36)" json:"tokenId"`
	Kind        string    `gorm:"not null;type:varchar(4)" json:"kind"`
	SolAmount   float64   `gorm:"type:decimal(20,9);not null" json:"solAmount"`
	TokenAmount float64   `gorm:"type:decimal(30,9);not null" json:"tokenAmount"`
	UnitPrice   float64   `gorm:"type:decimal(20,12);not null" json:"unitPrice"`
	Trader      string    `gorm:"index;not null;type:varchar(64)" json:"trader"`
	ExecutedAt  time.Time `gorm:"index;not null" json:"executedAt"`
	Seq         int64     `gorm:"not null" json:"-"`
}

// Clone returns a copy safe to mutate without touching cached rows.
func (t *Trade) Clone() *Trade {
	c := *t
	return &c
}
