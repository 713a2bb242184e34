// internal/ledger/ledger.go
package ledger

// Package ledger maintains per-holder positions. A trade touches exactly one
// holder row; the sum of held tokens is cached on the token's market state
// and ownership percentages are derived from that total when holders are
// listed, so a trade costs O(1) ledger work regardless of holder count.

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"launchpad/internal/storage/models"
)

// ErrNoPosition is returned when a sell is applied to a trader with no entry.
var ErrNoPosition = errors.New("trader has no position in this token")

// Apply returns the trader's holder row updated for one trade, plus the
// change in held tokens (the delta the cached total must absorb). The input
// row is not mutated; nil means the trader has never bought this token.
//
// Held tokens and invested capital are clamped at zero so a committed trade
// can never drive a position negative.
func Apply(h *models.Holder, kind string, tokenAmount, solAmount float64, now time.Time) (*models.Holder, float64, error) {
	if h == nil {
		if kind == models.KindSell {
			return nil, 0, ErrNoPosition
		}
		return &models.Holder{
			TokensHeld:    tokenAmount,
			TotalInvested: solAmount,
			FirstBuyAt:    now,
		}, tokenAmount, nil
	}

	updated := h.Clone()
	switch kind {
	case models.KindBuy:
		updated.TokensHeld += tokenAmount
		updated.TotalInvested += solAmount
	case models.KindSell:
		updated.TokensHeld -= tokenAmount
		updated.TotalInvested -= solAmount
	default:
		return nil, 0, fmt.Errorf("unknown trade kind %q", kind)
	}
	if updated.TokensHeld < 0 {
		updated.TokensHeld = 0
	}
	if updated.TotalInvested < 0 {
		updated.TotalInvested = 0
	}
	return updated, updated.TokensHeld - h.TokensHeld, nil
}

// Rank materializes the holder view: ownership percentages derived from the
// cached held total, sorted by tokens held descending with ties broken by
// earliest first buy. Percentages over all entries sum to 100 whenever the
// total is positive; they are all zero when it is not.
func Rank(holders []*models.Holder, heldTotal float64) []*models.Holder {
	ranked := make([]*models.Holder, len(holders))
	for i, h := range holders {
		c := h.Clone()
		if heldTotal > 0 {
			c.OwnershipPct = c.TokensHeld / heldTotal * 100
		} else {
			c.OwnershipPct = 0
		}
		ranked[i] = c
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TokensHeld != ranked[j].TokensHeld {
			return ranked[i].TokensHeld > ranked[j].TokensHeld
		}
		return ranked[i].FirstBuyAt.Before(ranked[j].FirstBuyAt)
	})
	return ranked
}
