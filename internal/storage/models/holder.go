// internal/storage/models/holder.go
package models

import "time"

// Holder is one trader's position in one token. The row is created on the
// trader's first buy and never deleted: after a full exit it stays with
// TokensHeld=0 so history and ownership accounting remain auditable.
//
// OwnershipPct is not persisted; the ledger derives it from the token's
// cached held total when holders are listed.
type Holder struct {
	ID            uint      `gorm:"primarykey" json:"-"`
	TokenID       string    `gorm:"uniqueIndex:idx_holder_token_addr;not null;type:varchar(36)" json:"tokenId"`
	Address       string    `gorm:"uniqueIndex:idx_holder_token_addr;not null;type:varchar(64)" json:"address"`
	TokensHeld    float64   `gorm:"type:decimal(30,9);not null" json:"tokensHeld"`
	TotalInvested float64   `gorm:"type:decimal(20,9);not null" json:"totalInvested"`
	OwnershipPct  float64   `gorm:"-" json:"ownershipPct"`
	FirstBuyAt    time.Time `gorm:"not null" json:"firstBuyAt"`
	UpdatedAt     time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"-"`
}

// Clone returns a copy safe to mutate without touching cached rows.
func (h *Holder) Clone() *Holder {
	c := *h
	return &c
}
