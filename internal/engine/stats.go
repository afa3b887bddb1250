package engine

import "github.com/rs/zerolog"

// BookStats is a passive record of derived counters, updated by the
// book after every Submit/Cancel. Spread and Midpoint are computed on
// demand rather than stored, since they are cheap functions of
// BestBid/BestAsk.
type BookStats struct {
	Symbol         string  `json:"symbol"`
	BestBid        *uint64 `json:"best_bid,omitempty"`
	BestAsk        *uint64 `json:"best_ask,omitempty"`
	LastTradePrice *uint64 `json:"last_trade_price,omitempty"`
	Volume         uint64  `json:"volume"`
	TradeCount     uint64  `json:"trade_count"`
	BidOrderCount  int     `json:"bid_order_count"`
	AskOrderCount  int     `json:"ask_order_count"`
	LastUpdateTime uint64  `json:"last_update_time"`
}

func newBookStats(symbol string) BookStats {
	return BookStats{Symbol: symbol}
}

// Spread returns best_ask - best_bid, saturating to zero rather than
// wrapping, when both sides of the book are present.
func (s BookStats) Spread() (uint64, bool) {
	if s.BestBid == nil || s.BestAsk == nil {
		return 0, false
	}
	if *s.BestAsk < *s.BestBid {
		return 0, true
	}
	return *s.BestAsk - *s.BestBid, true
}

// Midpoint returns the average of best bid and best ask.
func (s BookStats) Midpoint() (float64, bool) {
	if s.BestBid == nil || s.BestAsk == nil {
		return 0, false
	}
	return (float64(*s.BestBid) + float64(*s.BestAsk)) / 2, true
}

func (s *BookStats) updateWithTrade(price, quantity uint64) {
	p := price
	s.LastTradePrice = &p
	s.Volume += quantity
	s.TradeCount++
}

func (s *BookStats) updateOrderCounts(bid, ask int) {
	s.BidOrderCount = bid
	s.AskOrderCount = ask
}

// MarshalZerologObject lets callers log BookStats as structured fields:
// log.Info().Object("stats", book.Stats()).Msg("book updated")
func (s BookStats) MarshalZerologObject(e *zerolog.Event) {
	e.Str("symbol", s.Symbol)
	if s.BestBid != nil {
		e.Uint64("best_bid", *s.BestBid)
	}
	if s.BestAsk != nil {
		e.Uint64("best_ask", *s.BestAsk)
	}
	if spread, ok := s.Spread(); ok {
		e.Uint64("spread", spread)
	}
	e.Uint64("volume", s.Volume)
	e.Uint64("trade_count", s.TradeCount)
	e.Int("bid_order_count", s.BidOrderCount)
	e.Int("ask_order_count", s.AskOrderCount)
}
