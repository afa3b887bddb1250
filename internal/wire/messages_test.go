package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbook/internal/engine"
)

func TestNewOrderMessage_RoundTrip(t *testing.T) {
	m := NewOrderMessage{
		Symbol:        "AAPL",
		Type:          engine.Limit,
		Side:          engine.Buy,
		Price:         10050,
		StopPrice:     0,
		Quantity:      25,
		UserID:        7,
		ClientOrderID: "client-abc",
	}

	encoded := EncodeNewOrder(m)
	parsed, err := ParseMessage(encoded)
	require.NoError(t, err)

	got, ok := parsed.(NewOrderMessage)
	require.True(t, ok)
	assert.Equal(t, m.Symbol, got.Symbol)
	assert.Equal(t, m.Type, got.Type)
	assert.Equal(t, m.Side, got.Side)
	assert.Equal(t, m.Price, got.Price)
	assert.Equal(t, m.StopPrice, got.StopPrice)
	assert.Equal(t, m.Quantity, got.Quantity)
	assert.Equal(t, m.ClientOrderID, got.ClientOrderID)
}

func TestNewOrderMessage_EmptyClientOrderIDGetsUUIDOnToOrder(t *testing.T) {
	m := NewOrderMessage{Symbol: "AAPL", Type: engine.Market, Side: engine.Sell, Quantity: 1}
	order := m.ToOrder(1, 100)
	assert.NotEmpty(t, order.ClientOrderID)
	assert.Equal(t, engine.New, order.Status)
	assert.Equal(t, order.Quantity, order.Remaining)
}

func TestCancelOrderMessage_RoundTrip(t *testing.T) {
	encoded := EncodeCancelOrder("MSFT", 42)
	parsed, err := ParseMessage(encoded)
	require.NoError(t, err)

	got, ok := parsed.(CancelOrderMessage)
	require.True(t, ok)
	assert.Equal(t, "MSFT", got.Symbol)
	assert.Equal(t, uint64(42), got.OrderID)
}

func TestParseMessage_Heartbeat(t *testing.T) {
	buf := make([]byte, BaseMessageHeaderLen)
	parsed, err := ParseMessage(buf)
	require.NoError(t, err)
	assert.Equal(t, Heartbeat, parsed.GetType())
}

func TestParseMessage_TooShort(t *testing.T) {
	_, err := ParseMessage([]byte{0})
	assert.ErrorIs(t, err, ErrMessageTooShort)
}

func TestParseMessage_InvalidType(t *testing.T) {
	buf := []byte{0xFF, 0xFF}
	_, err := ParseMessage(buf)
	assert.ErrorIs(t, err, ErrInvalidMessageType)
}

func TestSymbolCodec_TrimsTrailingZeroPadding(t *testing.T) {
	buf := make([]byte, 8)
	encodeSymbol(buf, "BTC")
	assert.Equal(t, "BTC", decodeSymbol(buf))
}

func TestReport_SerializeDeserializeRoundTrip(t *testing.T) {
	r := Report{
		Type:           ExecutionReport,
		Side:           engine.Buy,
		Timestamp:      1000,
		Price:          500,
		Quantity:       10,
		Symbol:         "AAPL",
		OrderID:        1,
		CounterpartyID: 2,
		Err:            "",
	}

	got, err := DeserializeReport(r.Serialize())
	require.NoError(t, err)
	assert.Equal(t, r, got)
}

func TestReport_CarriesErrorText(t *testing.T) {
	r := Report{Type: ErrorReport, Symbol: "AAPL", OrderID: 9, Err: "engine: order rejected"}
	got, err := DeserializeReport(r.Serialize())
	require.NoError(t, err)
	assert.Equal(t, "engine: order rejected", got.Err)
}

func TestTradeReports_BuildsBothSidesWithSwappedCounterparty(t *testing.T) {
	trade := engine.Trade{
		ID:         1,
		Symbol:     "AAPL",
		Price:      100,
		Quantity:   5,
		BuyOrderID: 10,
		SellOrderID: 20,
		Timestamp:  999,
	}

	buyerBytes, sellerBytes := TradeReports(trade)

	buyer, err := DeserializeReport(buyerBytes)
	require.NoError(t, err)
	assert.Equal(t, engine.Buy, buyer.Side)
	assert.Equal(t, uint64(10), buyer.OrderID)
	assert.Equal(t, uint64(20), buyer.CounterpartyID)

	seller, err := DeserializeReport(sellerBytes)
	require.NoError(t, err)
	assert.Equal(t, engine.Sell, seller.Side)
	assert.Equal(t, uint64(20), seller.OrderID)
	assert.Equal(t, uint64(10), seller.CounterpartyID)
}
