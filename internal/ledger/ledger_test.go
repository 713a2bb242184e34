package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchpad/internal/storage/models"
)

func TestApplyFirstBuyCreatesEntry(t *testing.T) {
	now := time.Now().UTC()

	h, delta, err := Apply(nil, models.KindBuy, 100000, 10, now)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, h.TokensHeld)
	assert.Equal(t, 10.0, h.TotalInvested)
	assert.Equal(t, now, h.FirstBuyAt)
	assert.Equal(t, 100000.0, delta)
}

func TestApplySellWithoutPosition(t *testing.T) {
	_, _, err := Apply(nil, models.KindSell, 500, 1, time.Now())
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestApplyBuyAndSell(t *testing.T) {
	now := time.Now().UTC()
	h := &models.Holder{TokensHeld: 1000, TotalInvested: 5, FirstBuyAt: now}

	bought, delta, err := Apply(h, models.KindBuy, 500, 2.5, now)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, bought.TokensHeld)
	assert.Equal(t, 7.5, bought.TotalInvested)
	assert.Equal(t, 500.0, delta)
	assert.Equal(t, 1000.0, h.TokensHeld, "input row must not be mutated")

	sold, delta, err := Apply(bought, models.KindSell, 1500, 7.5, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sold.TokensHeld, "full exit leaves the row at zero")
	assert.Equal(t, 0.0, sold.TotalInvested)
	assert.Equal(t, -1500.0, delta)
}

func TestApplyClampsAtZero(t *testing.T) {
	now := time.Now().UTC()
	h := &models.Holder{TokensHeld: 100, TotalInvested: 1, FirstBuyAt: now}

	sold, delta, err := Apply(h, models.KindSell, 250, 3, now)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sold.TokensHeld)
	assert.Equal(t, 0.0, sold.TotalInvested)
	assert.Equal(t, -100.0, delta, "delta reflects the clamped change, not the requested one")
}

func TestApplyUnknownKind(t *testing.T) {
	h := &models.Holder{TokensHeld: 100}
	_, _, err := Apply(h, "short", 10, 1, time.Now())
	assert.Error(t, err)
}

func TestRankOrderAndPercentages(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	holders := []*models.Holder{
		{Address: "late-whale", TokensHeld: 6000, FirstBuyAt: base.Add(2 * time.Hour)},
		{Address: "early-whale", TokensHeld: 6000, FirstBuyAt: base},
		{Address: "minnow", TokensHeld: 2000, FirstBuyAt: base.Add(time.Hour)},
		{Address: "exited", TokensHeld: 0, FirstBuyAt: base.Add(3 * time.Hour)},
	}

	ranked := Rank(holders, 14000)
	require.Len(t, ranked, 4)
	assert.Equal(t, "early-whale", ranked[0].Address, "ties break by earliest entry")
	assert.Equal(t, "late-whale", ranked[1].Address)
	assert.Equal(t, "minnow", ranked[2].Address)
	assert.Equal(t, "exited", ranked[3].Address, "zero-balance rows stay visible")

	sum := 0.0
	for _, h := range ranked {
		sum += h.OwnershipPct
	}
	assert.InDelta(t, 100.0, sum, 1e-6)
	assert.InDelta(t, 42.857142857, ranked[0].OwnershipPct, 1e-6)
	assert.Equal(t, 0.0, ranked[3].OwnershipPct)
}

func TestRankZeroTotal(t *testing.T) {
	holders := []*models.Holder{
		{Address: "a", TokensHeld: 0},
		{Address: "b", TokensHeld: 0},
	}
	for _, h := range Rank(holders, 0) {
		assert.Equal(t, 0.0, h.OwnershipPct)
	}
}
