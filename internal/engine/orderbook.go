package engine

import (
	"math/bits"
	"sort"

	"github.com/rs/zerolog"
	"github.com/tidwall/btree"
)

// PriceLevel is a FIFO queue of resting orders at a single price. orders
// is kept sorted by (Timestamp, ID) — see insertFIFO — rather than
// appended blindly, since submitter-supplied timestamps are not
// guaranteed to arrive in increasing order.
type PriceLevel struct {
	Price  uint64
	orders []*Order
}

// PriceLevelTree is the price-ordered ladder backing one side of the
// book. Bids and asks use asymmetric comparators (see newBids/newAsks)
// so that Min() always yields the best price on that side.
type PriceLevelTree = btree.BTreeG[*PriceLevel]

func newBids() *PriceLevelTree {
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price > b.Price
	})
}

func newAsks() *PriceLevelTree {
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.Price < b.Price
	})
}

// OrderBook is a single-symbol limit order book with an embedded
// matching engine. All of its operations assume external
// serialization (a single caller at a time) — see Exchange, which
// guards each book with its own mutex.
type OrderBook struct {
	symbol string

	bids *PriceLevelTree
	asks *PriceLevelTree

	// index is the single source of truth for order lookup; both it and
	// the ladder slices above hold the same *Order pointers, so mutating
	// through one is visible through the other.
	index map[uint64]*Order

	matcher *Matcher
	stats   BookStats

	logger zerolog.Logger
}

// NewOrderBook returns an empty book for symbol.
func NewOrderBook(symbol string, logger zerolog.Logger) *OrderBook {
	return &OrderBook{
		symbol:  symbol,
		bids:    newBids(),
		asks:    newAsks(),
		index:   make(map[uint64]*Order),
		matcher: NewMatcher(),
		stats:   newBookStats(symbol),
		logger:  logger.With().Str("symbol", symbol).Logger(),
	}
}

// Symbol returns the book's symbol.
func (b *OrderBook) Symbol() string { return b.symbol }

// Submit validates and dispatches order according to its Type, returning
// any trades produced. The order's Status and Remaining are updated in
// place; on a soft reject, Status becomes Rejected and the returned
// error names the reason. A non-resting order (Market, IOC, or the
// post-trigger phase of Stop) that still has Remaining > 0 after
// matching is canceled outright, whether or not it partially filled.
func (b *OrderBook) Submit(order *Order) ([]Trade, error) {
	if order.Symbol != b.symbol {
		order.Status = Rejected
		return nil, ErrSymbolMismatch
	}
	if order.Quantity == 0 {
		order.Status = Rejected
		return nil, ErrZeroQuantity
	}
	if _, exists := b.index[order.ID]; exists {
		order.Status = Rejected
		return nil, ErrDuplicateOrderID
	}
	if order.Remaining == 0 {
		order.Remaining = order.Quantity
	}
	if order.Status == 0 {
		order.Status = New
	}
	b.stats.LastUpdateTime = order.Timestamp

	switch order.Type {
	case Market:
		order.Price = marketSentinel(order.Side)
		return b.executeAndRest(order, false)

	case Limit:
		return b.executeAndRest(order, true)

	case ImmediateOrCancel:
		return b.executeAndRest(order, false)

	case FillOrKill:
		matched := b.matcher.Simulate(order, b.bids, b.asks)
		if matched < order.Remaining {
			order.Status = Rejected
			return nil, ErrFOKUnfillable
		}
		return b.executeAndRest(order, false)

	case Stop:
		if !b.stopTriggered(order) {
			order.Status = Rejected
			return nil, ErrStopNotTriggered
		}
		order.Price = marketSentinel(order.Side)
		return b.executeAndRest(order, false)

	case StopLimit:
		if !b.stopTriggered(order) {
			order.Status = Rejected
			return nil, ErrStopNotTriggered
		}
		return b.executeAndRest(order, true)

	default:
		order.Status = Rejected
		return nil, ErrRejection
	}
}

// stopTriggered reports whether order's StopPrice condition is already
// met against the current top of book: a Buy stop triggers once the
// best ask touches or crosses below the trigger; a Sell stop triggers
// once the best bid touches or crosses above it. There is no pending-
// stop daemon — an untriggered stop is rejected outright rather than
// queued, per the one-shot evaluation design.
func (b *OrderBook) stopTriggered(order *Order) bool {
	if order.IsBuy() {
		ask, ok := b.asks.Min()
		return ok && ask.Price <= order.StopPrice
	}
	bid, ok := b.bids.Min()
	return ok && bid.Price >= order.StopPrice
}

// executeAndRest runs the matching walk for order and, if mayRest is
// true and quantity remains, inserts the residual into the book.
// mayRest is false for Market, IOC and the post-trigger phase of Stop,
// since those never leave a resting order behind.
func (b *OrderBook) executeAndRest(order *Order, mayRest bool) ([]Trade, error) {
	trades := b.matcher.MatchAggressive(order, b.bids, b.asks, b.index)

	for _, t := range trades {
		b.stats.updateWithTrade(t.Price, t.Quantity)
	}

	if order.Remaining > 0 {
		if mayRest {
			b.restOrder(order)
		} else {
			order.Status = Canceled
		}
	}

	b.refreshTopOfBook()
	b.checkInvariants()
	b.logger.Debug().
		Uint64("order_id", order.ID).
		Str("order_type", order.Type.String()).
		Int("trade_count", len(trades)).
		Msg("order submitted")

	return trades, nil
}

// restOrder inserts order's remaining quantity into the appropriate
// ladder in FIFO (timestamp, then ID) order and records it in index.
func (b *OrderBook) restOrder(order *Order) {
	ladder := b.asks
	if order.IsBuy() {
		ladder = b.bids
	}

	level, ok := ladder.Get(&PriceLevel{Price: order.Price})
	if !ok {
		level = &PriceLevel{Price: order.Price}
		ladder.Set(level)
	}
	insertFIFO(level, order)
	b.index[order.ID] = order
}

// insertFIFO inserts order into level's queue keeping (Timestamp, ID)
// ascending, rather than the simpler append-only ordering, so that
// time priority holds even when submitter timestamps arrive out of
// sequence.
func insertFIFO(level *PriceLevel, order *Order) {
	i := sort.Search(len(level.orders), func(i int) bool {
		o := level.orders[i]
		if o.Timestamp != order.Timestamp {
			return o.Timestamp > order.Timestamp
		}
		return o.ID > order.ID
	})
	level.orders = append(level.orders, nil)
	copy(level.orders[i+1:], level.orders[i:])
	level.orders[i] = order
}

// Cancel removes a resting order from the book. It reports false if no
// such order is resting (already filled, canceled, or never existed).
func (b *OrderBook) Cancel(orderID uint64) bool {
	order, ok := b.index[orderID]
	if !ok {
		return false
	}
	delete(b.index, orderID)

	ladder := b.asks
	if order.IsBuy() {
		ladder = b.bids
	}
	level, ok := ladder.GetMut(&PriceLevel{Price: order.Price})
	if ok {
		level.orders = removeOrder(level.orders, orderID)
		if len(level.orders) == 0 {
			ladder.Delete(level)
		}
	}

	order.Status = Canceled
	b.refreshTopOfBook()
	return true
}

func removeOrder(orders []*Order, id uint64) []*Order {
	for i, o := range orders {
		if o.ID == id {
			return append(orders[:i], orders[i+1:]...)
		}
	}
	return orders
}

// Get returns a copy of a resting order by ID.
func (b *OrderBook) Get(orderID uint64) (Order, bool) {
	order, ok := b.index[orderID]
	if !ok {
		return Order{}, false
	}
	return *order, true
}

// BestBid returns the highest resting bid price, if any.
func (b *OrderBook) BestBid() (uint64, bool) {
	level, ok := b.bids.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BestAsk returns the lowest resting ask price, if any.
func (b *OrderBook) BestAsk() (uint64, bool) {
	level, ok := b.asks.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// Stats returns a snapshot of the book's derived counters.
func (b *OrderBook) Stats() BookStats {
	return b.stats
}

func (b *OrderBook) refreshTopOfBook() {
	if bid, ok := b.bids.Min(); ok {
		p := bid.Price
		b.stats.BestBid = &p
	} else {
		b.stats.BestBid = nil
	}
	if ask, ok := b.asks.Min(); ok {
		p := ask.Price
		b.stats.BestAsk = &p
	} else {
		b.stats.BestAsk = nil
	}
	bidCount, askCount := b.orderCounts()
	b.stats.updateOrderCounts(bidCount, askCount)
}

func (b *OrderBook) orderCounts() (bids, asks int) {
	for _, o := range b.index {
		if o.IsBuy() {
			bids++
		} else {
			asks++
		}
	}
	return
}

// DepthLevel is one row of an order-book depth snapshot.
type DepthLevel struct {
	Price    uint64 `json:"price"`
	Quantity uint64 `json:"quantity"`
	Orders   int    `json:"orders"`
}

// Depth returns up to n price levels per side, best price first.
func (b *OrderBook) Depth(n int) (bids, asks []DepthLevel) {
	collect := func(tree *PriceLevelTree) []DepthLevel {
		var out []DepthLevel
		tree.Scan(func(level *PriceLevel) bool {
			if len(out) >= n {
				return false
			}
			var qty uint64
			for _, o := range level.orders {
				qty += o.Remaining
			}
			out = append(out, DepthLevel{Price: level.Price, Quantity: qty, Orders: len(level.orders)})
			return true
		})
		return out
	}
	return collect(b.bids), collect(b.asks)
}

// Slippage estimates the average execution price and the percentage
// deviation from the current best price a hypothetical order of the
// given side and quantity would receive by walking the opposite
// ladder without mutating it. ok is false if the book does not hold
// enough liquidity to fill quantity in full. Accumulation uses
// math/bits checked arithmetic instead of a big-number type, since
// price*quantity sums can exceed 64 bits for large books but the
// domain has no use for arbitrary-precision decimals.
func (b *OrderBook) Slippage(side Side, quantity uint64) (avgPrice uint64, slippagePct float64, ok bool) {
	ladder := b.asks
	best, haveBest := b.BestAsk()
	if side == Sell {
		ladder = b.bids
		best, haveBest = b.BestBid()
	}

	var hi, lo uint64
	var filled uint64

	ladder.Scan(func(level *PriceLevel) bool {
		if filled >= quantity {
			return false
		}
		var levelQty uint64
		for _, o := range level.orders {
			levelQty += o.Remaining
		}
		take := minU64(levelQty, quantity-filled)

		h, l := bits.Mul64(level.Price, take)
		var carry uint64
		lo, carry = bits.Add64(lo, l, 0)
		hi, _ = bits.Add64(hi, h, carry)

		filled += take
		return filled < quantity
	})

	if filled < quantity || filled == 0 || !haveBest || best == 0 {
		return 0, 0, false
	}

	quo, _ := bits.Div64(hi, lo, filled)

	if side == Buy {
		slippagePct = (float64(quo) - float64(best)) / float64(best) * 100
	} else {
		slippagePct = (float64(best) - float64(quo)) / float64(best) * 100
	}
	return quo, slippagePct, true
}
