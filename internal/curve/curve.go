// internal/curve/curve.go
package curve

// Package curve holds the bonding-curve pricing model. It is deliberately
// pure: the trade executor feeds it the current curve progress and gets
// prices back, so the linear model can be swapped for a constant-product or
// logarithmic curve without touching the executor or the holder ledger.

// Params defines the economic constants of a token's bonding curve.
type Params struct {
	// BasePrice is the unit price in SOL at 0% curve progress.
	BasePrice float64
	// ImpactFactor scales a trade's SOL amount into market-cap displacement.
	ImpactFactor float64
	// CapDivisor is the market cap at which the curve reaches 100%.
	CapDivisor float64
	// MinMarketCap is the floor; sells can never push the cap below it.
	MinMarketCap float64
	// SeedMarketCap and SeedSupply are the launch values for a new token.
	SeedMarketCap float64
	SeedSupply    float64
}

// DefaultParams returns the launch parameters used by the demo site:
// tokens start at a 5000 SOL market cap and graduate at 100000.
func DefaultParams() Params {
	return Params{
		BasePrice:     0.0001,
		ImpactFactor:  100,
		CapDivisor:    100000,
		MinMarketCap:  1000,
		SeedMarketCap: 5000,
		SeedSupply:    1_000_000,
	}
}

// UnitPrice returns the instantaneous price of one token at the given curve
// progress. Progress is clamped to [0,100] first so corrupted upstream state
// cannot produce a negative or >2x multiplier.
func (p Params) UnitPrice(progress float64) float64 {
	return p.BasePrice * (1 + clampProgress(progress)/100)
}

// Quote prices a SOL amount at the given progress and returns the unit price
// together with the token quantity the amount buys (or sells).
func (p Params) Quote(solAmount, progress float64) (unitPrice, tokenAmount float64) {
	unitPrice = p.UnitPrice(progress)
	tokenAmount = solAmount / unitPrice
	return unitPrice, tokenAmount
}

// Impact converts a trade's SOL amount into its market-cap displacement.
// The model is linear and symmetric for buys and sells; it is a placeholder
// for a real AMM curve, not one.
func (p Params) Impact(solAmount float64) float64 {
	return solAmount * p.ImpactFactor
}

// Progress maps a market cap onto curve completion, capped at 100%.
func (p Params) Progress(marketCap float64) float64 {
	prog := marketCap / p.CapDivisor * 100
	if prog > 100 {
		return 100
	}
	if prog < 0 {
		return 0
	}
	return prog
}

// ClampCap applies the market-cap floor.
func (p Params) ClampCap(marketCap float64) float64 {
	if marketCap < p.MinMarketCap {
		return p.MinMarketCap
	}
	return marketCap
}

func clampProgress(progress float64) float64 {
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
