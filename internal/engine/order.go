package engine

import (
	"encoding/json"
	"fmt"
)

// Order is an immutable-identity record with mutable fill state. Id,
// Side, Type, Symbol, Quantity and Timestamp never change after
// creation; Remaining and Status are the only fields the book and
// matcher mutate in place.
type Order struct {
	ID            uint64
	Symbol        string
	Side          Side
	Type          OrderType
	Price         uint64 // limit price (Limit/IOC/FOK/StopLimit); Market sentinel for Market
	StopPrice     uint64 // trigger price for Stop/StopLimit, unused otherwise
	Quantity      uint64 // original size, immutable
	Remaining     uint64 // open size, decreases monotonically toward zero
	Status        OrderStatus
	Timestamp     uint64 // submitter-supplied nanoseconds since epoch
	UserID        uint64
	ClientOrderID string // optional
}

// IsBuy reports whether this order rests on, or takes from, the bid side.
func (o *Order) IsBuy() bool { return o.Side == Buy }

// IsSell reports whether this order rests on, or takes from, the ask side.
func (o *Order) IsSell() bool { return o.Side == Sell }

// IsResting reports whether the order currently occupies a ladder slot.
func (o *Order) IsResting() bool {
	return o.Status == New || o.Status == PartiallyFilled
}

// fillPartial applies a match of the given quantity and updates status.
func (o *Order) fillPartial(quantity uint64) {
	if quantity > o.Remaining {
		panic(fmt.Sprintf("engine: fill of %d exceeds remaining %d for order %d", quantity, o.Remaining, o.ID))
	}
	o.Remaining -= quantity
	if o.Remaining == 0 {
		o.Status = Filled
	} else {
		o.Status = PartiallyFilled
	}
}

// orderJSON is the wire/JSON shape for Order: order_type is encoded the
// way Rust's serde externally-tagged enum would encode OrderType —
// a bare string for payload-free variants, {"Stop": trigger} for Stop,
// {"StopLimit": [trigger, limit]} for StopLimit.
type orderJSON struct {
	ID            uint64          `json:"id"`
	Symbol        string          `json:"symbol"`
	Side          Side            `json:"side"`
	OrderType     json.RawMessage `json:"order_type"`
	Price         uint64          `json:"price"`
	Quantity      uint64          `json:"quantity"`
	Remaining     uint64          `json:"remaining"`
	Status        OrderStatus     `json:"status"`
	Timestamp     uint64          `json:"timestamp"`
	UserID        uint64          `json:"user_id"`
	ClientOrderID *string         `json:"client_order_id,omitempty"`
}

func (o Order) MarshalJSON() ([]byte, error) {
	tag, err := marshalOrderType(o.Type, o.StopPrice, o.Price)
	if err != nil {
		return nil, err
	}
	var clientID *string
	if o.ClientOrderID != "" {
		clientID = &o.ClientOrderID
	}
	return json.Marshal(orderJSON{
		ID:            o.ID,
		Symbol:        o.Symbol,
		Side:          o.Side,
		OrderType:     tag,
		Price:         o.Price,
		Quantity:      o.Quantity,
		Remaining:     o.Remaining,
		Status:        o.Status,
		Timestamp:     o.Timestamp,
		UserID:        o.UserID,
		ClientOrderID: clientID,
	})
}

func (o *Order) UnmarshalJSON(data []byte) error {
	var aux orderJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	typ, stopPrice, price, err := unmarshalOrderType(aux.OrderType)
	if err != nil {
		return err
	}
	o.ID = aux.ID
	o.Symbol = aux.Symbol
	o.Side = aux.Side
	o.Type = typ
	o.StopPrice = stopPrice
	if typ == StopLimit {
		o.Price = price
	} else {
		o.Price = aux.Price
	}
	o.Quantity = aux.Quantity
	o.Remaining = aux.Remaining
	o.Status = aux.Status
	o.Timestamp = aux.Timestamp
	o.UserID = aux.UserID
	if aux.ClientOrderID != nil {
		o.ClientOrderID = *aux.ClientOrderID
	}
	return nil
}

// marshalOrderType renders the OrderType tagged union the way Rust's
// serde externally-tagged enum would: a bare string for payload-free
// variants, {"Stop": trigger}, {"StopLimit": [trigger, limit]}.
func marshalOrderType(t OrderType, stopPrice, price uint64) (json.RawMessage, error) {
	switch t {
	case Limit, Market, ImmediateOrCancel, FillOrKill:
		return json.RawMessage(`"` + t.String() + `"`), nil
	case Stop:
		return json.Marshal(map[string]uint64{"Stop": stopPrice})
	case StopLimit:
		return json.Marshal(map[string][2]uint64{"StopLimit": {stopPrice, price}})
	default:
		return nil, fmt.Errorf("engine: unknown order type %d", t)
	}
}

func unmarshalOrderType(raw json.RawMessage) (typ OrderType, stopPrice, price uint64, err error) {
	switch string(raw) {
	case `"Limit"`:
		return Limit, 0, 0, nil
	case `"Market"`:
		return Market, 0, 0, nil
	case `"IOC"`:
		return ImmediateOrCancel, 0, 0, nil
	case `"FOK"`:
		return FillOrKill, 0, 0, nil
	}

	var stopVariant struct {
		Stop *uint64 `json:"Stop"`
	}
	if err := json.Unmarshal(raw, &stopVariant); err == nil && stopVariant.Stop != nil {
		return Stop, *stopVariant.Stop, 0, nil
	}

	var stopLimitVariant struct {
		StopLimit *[2]uint64 `json:"StopLimit"`
	}
	if err := json.Unmarshal(raw, &stopLimitVariant); err == nil && stopLimitVariant.StopLimit != nil {
		return StopLimit, stopLimitVariant.StopLimit[0], stopLimitVariant.StopLimit[1], nil
	}

	return 0, 0, 0, fmt.Errorf("engine: unrecognized order_type payload %s", raw)
}
