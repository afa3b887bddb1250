package engine

import "fmt"

// Side is the direction of an order: Buy (bid) or Sell (ask).
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Side) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Buy"`:
		*s = Buy
	case `"Sell"`:
		*s = Sell
	default:
		return fmt.Errorf("engine: invalid side %s", data)
	}
	return nil
}

// OrderType is a closed, payload-bearing tagged union over the order
// behaviors this book supports. Limit, Market, IOC and FOK carry no
// payload; Stop and StopLimit carry their trigger (and, for StopLimit,
// the post-trigger limit) in the owning Order's StopPrice/Price fields
// rather than in the tag itself, since Go has no native sum type.
type OrderType int

const (
	// Limit executes at the specified price or better, and may rest.
	Limit OrderType = iota
	// Market executes immediately without a price guarantee.
	Market
	// ImmediateOrCancel executes what it can immediately; the rest is discarded.
	ImmediateOrCancel
	// FillOrKill executes completely immediately, or not at all.
	FillOrKill
	// Stop becomes a Market order once its trigger price is touched.
	Stop
	// StopLimit becomes a Limit order at its post-trigger limit price.
	StopLimit
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "Limit"
	case Market:
		return "Market"
	case ImmediateOrCancel:
		return "IOC"
	case FillOrKill:
		return "FOK"
	case Stop:
		return "Stop"
	case StopLimit:
		return "StopLimit"
	default:
		return fmt.Sprintf("OrderType(%d)", int(t))
	}
}

// OrderStatus is the lifecycle state of an Order.
type OrderStatus int

const (
	New OrderStatus = iota
	PartiallyFilled
	Filled
	Canceled
	Rejected
)

func (s OrderStatus) String() string {
	switch s {
	case New:
		return "New"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Canceled:
		return "Canceled"
	case Rejected:
		return "Rejected"
	default:
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
}

func (s OrderStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *OrderStatus) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"New"`:
		*s = New
	case `"PartiallyFilled"`:
		*s = PartiallyFilled
	case `"Filled"`:
		*s = Filled
	case `"Canceled"`:
		*s = Canceled
	case `"Rejected"`:
		*s = Rejected
	default:
		return fmt.Errorf("engine: invalid order status %s", data)
	}
	return nil
}

// MaxPrice is the Market Buy sentinel: "willing to pay any price".
const MaxPrice uint64 = ^uint64(0)

// MinPrice is the Market Sell sentinel: "willing to sell at any price".
const MinPrice uint64 = 0

func marketSentinel(side Side) uint64 {
	if side == Buy {
		return MaxPrice
	}
	return MinPrice
}
