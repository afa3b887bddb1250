package engine

// Trade is an executed match record. Price is always the resting
// (maker) order's price — the taker receives any price improvement.
// Trades are created by the Matcher and owned by the returned slice;
// the book does not retain them.
type Trade struct {
	ID         uint64 `json:"id"`
	Symbol     string `json:"symbol"`
	Price      uint64 `json:"price"`
	Quantity   uint64 `json:"quantity"`
	Timestamp  uint64 `json:"timestamp"`
	BuyOrderID uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	BuyUserID  uint64 `json:"buy_user_id"`
	SellUserID uint64 `json:"sell_user_id"`
}
