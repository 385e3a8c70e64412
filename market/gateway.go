package market

import "context"

// Gateway is the minimal surface the engine needs from a market-data
// provider. Implementations return an error for anything they cannot
// supply this instant; the engine treats every error as "skip this
// item this cycle", never as a trading signal.
type Gateway interface {
	// Spot returns the current index level for an underlying symbol.
	Spot(ctx context.Context, symbol string) (Quote, error)

	// Quote returns the last traded price for a specific contract.
	Quote(ctx context.Context, symbol string) (Quote, error)

	// Chain returns the current option-chain snapshot for an underlying.
	Chain(ctx context.Context, underlying string) (OptionChain, error)

	// Candles returns up to count most recent bars of the given
	// resolution (e.g. "D", "60") for a symbol, oldest first.
	Candles(ctx context.Context, symbol, resolution string, count int) ([]Candle, error)
}
