package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitPrice(t *testing.T) {
	p := DefaultParams()

	assert.InDelta(t, 0.0001, p.UnitPrice(0), 1e-12)
	assert.InDelta(t, 0.00015, p.UnitPrice(50), 1e-12)
	assert.InDelta(t, 0.0002, p.UnitPrice(100), 1e-12)
}

func TestUnitPriceClampsProgress(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, p.UnitPrice(0), p.UnitPrice(-25), "negative progress clamps to 0")
	assert.Equal(t, p.UnitPrice(100), p.UnitPrice(250), "progress above 100 clamps to 100")
}

func TestUnitPriceMonotonic(t *testing.T) {
	p := DefaultParams()

	prev := p.UnitPrice(0)
	for prog := 0.5; prog <= 100; prog += 0.5 {
		price := p.UnitPrice(prog)
		require.GreaterOrEqual(t, price, prev, "price regressed at progress %.1f", prog)
		prev = price
	}
}

func TestQuote(t *testing.T) {
	p := DefaultParams()

	// 10 SOL at 0% progress buys 100000 tokens at the base price.
	price, tokens := p.Quote(10, 0)
	assert.InDelta(t, 0.0001, price, 1e-12)
	assert.InDelta(t, 100000, tokens, 1e-6)

	// At 100% the price doubles, so the same SOL buys half the tokens.
	price, tokens = p.Quote(10, 100)
	assert.InDelta(t, 0.0002, price, 1e-12)
	assert.InDelta(t, 50000, tokens, 1e-6)
}

func TestImpactAndProgress(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, 10000.0, p.Impact(100))
	assert.Equal(t, 20000.0, p.Impact(200))

	assert.InDelta(t, 15.0, p.Progress(15000), 1e-9)
	assert.InDelta(t, 1.0, p.Progress(1000), 1e-9)
	assert.Equal(t, 100.0, p.Progress(250000), "progress caps at 100")
	assert.Equal(t, 0.0, p.Progress(-5000))
}

func TestClampCap(t *testing.T) {
	p := DefaultParams()

	assert.Equal(t, 1000.0, p.ClampCap(-5000), "floor holds against large sells")
	assert.Equal(t, 1000.0, p.ClampCap(999.99))
	assert.Equal(t, 5000.0, p.ClampCap(5000))
}
