package engine

import "fmt"

// debugAssertions gates the invariant checks below. They run in every
// build by default since the book is cheap to check at this scale; flip
// to false to skip them on a hot path once a deployment has proven the
// invariants hold.
const debugAssertions = true

// checkInvariants panics if the book has entered a state Submit should
// never produce: a crossed book (best bid >= best ask), or a resting
// order missing from index. These are bugs, not rejects — callers never
// recover from them, so a panic rather than a returned error is correct.
func (b *OrderBook) checkInvariants() {
	if !debugAssertions {
		return
	}

	if bestBid, ok := b.BestBid(); ok {
		if bestAsk, ok := b.BestAsk(); ok && bestBid >= bestAsk {
			panic(fmt.Sprintf("engine: crossed book for %s: bid %d >= ask %d", b.symbol, bestBid, bestAsk))
		}
	}

	for id, order := range b.index {
		if id != order.ID {
			panic(fmt.Sprintf("engine: index key %d does not match order id %d", id, order.ID))
		}
		if !order.IsResting() {
			panic(fmt.Sprintf("engine: index holds non-resting order %d with status %s", order.ID, order.Status))
		}
	}

	for _, ladder := range []*PriceLevelTree{b.bids, b.asks} {
		ladder.Scan(func(level *PriceLevel) bool {
			for _, order := range level.orders {
				if b.index[order.ID] != order {
					panic(fmt.Sprintf("engine: resting order %d at price %d is missing from index", order.ID, level.Price))
				}
			}
			return true
		})
	}
}
