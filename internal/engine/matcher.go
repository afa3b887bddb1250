package engine

// PriceLevels is a price-ordered ladder of PriceLevel entries. Bids are
// keyed so that Min() yields the highest real price (best bid); asks
// are keyed so Min() yields the lowest real price (best ask) — see
// newBids/newAsks in orderbook.go.
type PriceLevels = PriceLevelTree

// Matcher is the stateless matching algorithm shared by Limit, Market,
// IOC and the post-trigger phase of Stop/StopLimit orders. Its only
// field is the trade-ID counter; keeping it here gives the book a
// single owner of trade identity instead of threading a counter
// through every call site.
type Matcher struct {
	nextTradeID uint64
}

// NewMatcher returns a Matcher whose trade-ID counter starts at zero,
// incremented before each trade so the first trade ID is 1.
func NewMatcher() *Matcher {
	return &Matcher{}
}

func (m *Matcher) newTradeID() uint64 {
	m.nextTradeID++
	return m.nextTradeID
}

// crosses reports whether a resting level at levelPrice is marketable
// against a taker of the given side and limit price. Market orders
// carry the sentinel MaxPrice (buy) / MinPrice (sell) as their price,
// which makes this check always true without a separate code path.
func crosses(side Side, levelPrice, takerPrice uint64) bool {
	if side == Buy {
		return levelPrice <= takerPrice
	}
	return levelPrice >= takerPrice
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func (m *Matcher) buildTrade(taker, resting *Order, price, quantity uint64) Trade {
	trade := Trade{
		ID:        m.newTradeID(),
		Symbol:    taker.Symbol,
		Price:     price,
		Quantity:  quantity,
		Timestamp: maxU64(taker.Timestamp, resting.Timestamp),
	}
	if taker.IsBuy() {
		trade.BuyOrderID, trade.BuyUserID = taker.ID, taker.UserID
		trade.SellOrderID, trade.SellUserID = resting.ID, resting.UserID
	} else {
		trade.SellOrderID, trade.SellUserID = taker.ID, taker.UserID
		trade.BuyOrderID, trade.BuyUserID = resting.ID, resting.UserID
	}
	return trade
}

// MatchAggressive walks the opposite ladder from taker's side, filling
// against the FIFO head of each crossing price level until taker is
// filled or the ladder stops crossing. It mutates resting orders and
// the taker in place, removes filled resting orders from both the
// ladder and index, and returns the trades produced in the order they
// occurred. The caller is responsible for inserting any remaining
// quantity on taker into the book.
func (m *Matcher) MatchAggressive(taker *Order, bids, asks *PriceLevels, index map[uint64]*Order) []Trade {
	var trades []Trade

	opposite := asks
	if taker.Side == Sell {
		opposite = bids
	}

	for taker.Remaining > 0 {
		level, ok := opposite.MinMut()
		if !ok {
			break
		}
		if !crosses(taker.Side, level.Price, taker.Price) {
			break
		}

		resting := level.orders[0]
		fill := minU64(taker.Remaining, resting.Remaining)

		trades = append(trades, m.buildTrade(taker, resting, level.Price, fill))

		taker.fillPartial(fill)
		resting.fillPartial(fill)

		if resting.Remaining == 0 {
			level.orders = level.orders[1:]
			delete(index, resting.ID)
		}
		if len(level.orders) == 0 {
			opposite.Delete(level)
		}
	}

	return trades
}

// Simulate performs the identical price-cross walk as MatchAggressive
// without mutating either ladder, returning the total quantity that
// would match. Used by Fill-or-Kill to decide whether to commit.
func (m *Matcher) Simulate(order *Order, bids, asks *PriceLevels) uint64 {
	opposite := asks
	if order.Side == Sell {
		opposite = bids
	}

	var matched uint64
	remaining := order.Remaining

	opposite.Scan(func(level *PriceLevel) bool {
		if !crosses(order.Side, level.Price, order.Price) {
			return false
		}
		for _, resting := range level.orders {
			if remaining == 0 {
				return false
			}
			fill := minU64(remaining, resting.Remaining)
			matched += fill
			remaining -= fill
		}
		return remaining > 0
	})

	return matched
}
