// Package wire implements the binary protocol spoken between
// exchangectl and exchanged over TCP. Every message starts with a
// 2-byte big-endian MessageType header, followed by a fixed-width body
// sized to carry the full six-member OrderType union and uint64 prices.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ladderbook/internal/engine"
)

var (
	ErrInvalidMessageType = errors.New("wire: invalid message type")
	ErrMessageTooShort    = errors.New("wire: message too short for its declared length")
)

type MessageType uint16

const (
	Heartbeat MessageType = iota
	NewOrder
	CancelOrder
	Depth
)

type ReportMessageType uint8

const (
	ExecutionReport ReportMessageType = iota
	AckReport
	ErrorReport
)

type Message interface {
	GetType() MessageType
}

const (
	BaseMessageHeaderLen = 2

	// symbolFieldLen, orderType(2), side(1), price(8), stopPrice(8),
	// quantity(8), userID(8), usernameLen(1), clientOrderIDLen(1)
	symbolFieldLen           = 8
	NewOrderMessageHeaderLen = symbolFieldLen + 2 + 1 + 8 + 8 + 8 + 8 + 1 + 1

	// symbol(8) + orderID(8)
	CancelOrderMessageHeaderLen = symbolFieldLen + 8
)

type BaseMessage struct {
	TypeOf MessageType
}

func (m BaseMessage) GetType() MessageType { return m.TypeOf }

func ParseMessage(msg []byte) (Message, error) {
	if len(msg) < BaseMessageHeaderLen {
		return nil, ErrMessageTooShort
	}
	typeOf := MessageType(binary.BigEndian.Uint16(msg[0:2]))
	body := msg[2:]
	switch typeOf {
	case NewOrder:
		return parseNewOrder(body)
	case CancelOrder:
		return parseCancelOrder(body)
	case Heartbeat:
		return BaseMessage{TypeOf: Heartbeat}, nil
	default:
		return nil, ErrInvalidMessageType
	}
}

// NewOrderMessage is the wire shape of an order submission. UserID
// identifies the submitting account; ClientOrderID is optional and, if
// empty, ToOrder gives the resulting engine.Order a fresh uuid instead.
type NewOrderMessage struct {
	BaseMessage
	Symbol        string
	Type          engine.OrderType
	Side          engine.Side
	Price         uint64
	StopPrice     uint64
	Quantity      uint64
	UserID        uint64
	ClientOrderID string
}

// ToOrder builds an engine.Order from the wire message. The caller
// supplies the server-assigned ID and timestamp.
func (m NewOrderMessage) ToOrder(id, timestamp uint64) engine.Order {
	clientID := m.ClientOrderID
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return engine.Order{
		ID:            id,
		Symbol:        m.Symbol,
		Side:          m.Side,
		Type:          m.Type,
		Price:         m.Price,
		StopPrice:     m.StopPrice,
		Quantity:      m.Quantity,
		Remaining:     m.Quantity,
		Status:        engine.New,
		Timestamp:     timestamp,
		UserID:        m.UserID,
		ClientOrderID: clientID,
	}
}

func parseNewOrder(msg []byte) (NewOrderMessage, error) {
	if len(msg) < NewOrderMessageHeaderLen {
		return NewOrderMessage{}, ErrMessageTooShort
	}
	m := NewOrderMessage{BaseMessage: BaseMessage{TypeOf: NewOrder}}
	m.Symbol = decodeSymbol(msg[0:8])
	m.Type = engine.OrderType(binary.BigEndian.Uint16(msg[8:10]))
	m.Side = engine.Side(msg[10])
	m.Price = binary.BigEndian.Uint64(msg[11:19])
	m.StopPrice = binary.BigEndian.Uint64(msg[19:27])
	m.Quantity = binary.BigEndian.Uint64(msg[27:35])
	m.UserID = binary.BigEndian.Uint64(msg[35:43])

	userLen := int(msg[43])
	clientIDLen := int(msg[44])
	expected := NewOrderMessageHeaderLen + userLen + clientIDLen
	if len(msg) < expected {
		return NewOrderMessage{}, ErrMessageTooShort
	}

	offset := NewOrderMessageHeaderLen
	// userLen/clientIDLen are carried in the header but the username
	// itself is resolved session-side; only ClientOrderID rides the wire.
	_ = offset
	m.ClientOrderID = string(msg[NewOrderMessageHeaderLen : NewOrderMessageHeaderLen+clientIDLen])

	return m, nil
}

// EncodeNewOrder serializes a NewOrderMessage for sending by exchangectl.
func EncodeNewOrder(m NewOrderMessage) []byte {
	clientID := []byte(m.ClientOrderID)
	total := BaseMessageHeaderLen + NewOrderMessageHeaderLen + len(clientID)
	buf := make([]byte, total)

	binary.BigEndian.PutUint16(buf[0:2], uint16(NewOrder))
	encodeSymbol(buf[2:10], m.Symbol)
	binary.BigEndian.PutUint16(buf[10:12], uint16(m.Type))
	buf[12] = byte(m.Side)
	binary.BigEndian.PutUint64(buf[13:21], m.Price)
	binary.BigEndian.PutUint64(buf[21:29], m.StopPrice)
	binary.BigEndian.PutUint64(buf[29:37], m.Quantity)
	binary.BigEndian.PutUint64(buf[37:45], m.UserID)
	buf[45] = 0 // usernameLen, unused over the wire
	buf[46] = byte(len(clientID))
	copy(buf[2+NewOrderMessageHeaderLen:], clientID)

	return buf
}

type CancelOrderMessage struct {
	BaseMessage
	Symbol  string
	OrderID uint64
}

func parseCancelOrder(msg []byte) (CancelOrderMessage, error) {
	if len(msg) < CancelOrderMessageHeaderLen {
		return CancelOrderMessage{}, ErrMessageTooShort
	}
	m := CancelOrderMessage{BaseMessage: BaseMessage{TypeOf: CancelOrder}}
	m.Symbol = decodeSymbol(msg[0:8])
	m.OrderID = binary.BigEndian.Uint64(msg[8:16])
	return m, nil
}

func EncodeCancelOrder(symbol string, orderID uint64) []byte {
	buf := make([]byte, BaseMessageHeaderLen+CancelOrderMessageHeaderLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(CancelOrder))
	encodeSymbol(buf[2:10], symbol)
	binary.BigEndian.PutUint64(buf[10:18], orderID)
	return buf
}

func encodeSymbol(dst []byte, symbol string) {
	copy(dst, symbol)
}

func decodeSymbol(src []byte) string {
	end := len(src)
	for end > 0 && src[end-1] == 0 {
		end--
	}
	return string(src[:end])
}

// Report is the server-to-client execution/error notification shape.
type Report struct {
	Type          ReportMessageType
	Side          engine.Side
	Timestamp     uint64
	Price         uint64
	Quantity      uint64
	Symbol        string
	OrderID       uint64
	CounterpartyID uint64
	Err           string
}

const reportFixedHeaderLen = 1 + 1 + 8 + 8 + 8 + 8 + 8 + 4 + symbolFieldLen

// Serialize renders a Report onto the wire.
func (r *Report) Serialize() []byte {
	errBytes := []byte(r.Err)
	buf := make([]byte, reportFixedHeaderLen+len(errBytes))
	buf[0] = byte(r.Type)
	buf[1] = byte(r.Side)
	binary.BigEndian.PutUint64(buf[2:10], r.Timestamp)
	binary.BigEndian.PutUint64(buf[10:18], r.Price)
	binary.BigEndian.PutUint64(buf[18:26], r.Quantity)
	binary.BigEndian.PutUint64(buf[26:34], r.OrderID)
	binary.BigEndian.PutUint64(buf[34:42], r.CounterpartyID)
	binary.BigEndian.PutUint32(buf[42:46], uint32(len(errBytes)))
	encodeSymbol(buf[46:46+symbolFieldLen], r.Symbol)
	copy(buf[reportFixedHeaderLen:], errBytes)
	return buf
}

// DeserializeReport parses a Report previously produced by Serialize.
func DeserializeReport(buf []byte) (Report, error) {
	if len(buf) < reportFixedHeaderLen {
		return Report{}, ErrMessageTooShort
	}
	var r Report
	r.Type = ReportMessageType(buf[0])
	r.Side = engine.Side(buf[1])
	r.Timestamp = binary.BigEndian.Uint64(buf[2:10])
	r.Price = binary.BigEndian.Uint64(buf[10:18])
	r.Quantity = binary.BigEndian.Uint64(buf[18:26])
	r.OrderID = binary.BigEndian.Uint64(buf[26:34])
	r.CounterpartyID = binary.BigEndian.Uint64(buf[34:42])
	errLen := binary.BigEndian.Uint32(buf[42:46])
	r.Symbol = decodeSymbol(buf[46 : 46+symbolFieldLen])
	if len(buf) < reportFixedHeaderLen+int(errLen) {
		return Report{}, ErrMessageTooShort
	}
	r.Err = string(buf[reportFixedHeaderLen : reportFixedHeaderLen+int(errLen)])
	return r, nil
}

// TradeReports builds the pair of execution reports sent to each side
// of a trade.
func TradeReports(trade engine.Trade) (buyer, seller []byte) {
	base := Report{
		Type:      ExecutionReport,
		Timestamp: trade.Timestamp,
		Price:     trade.Price,
		Quantity:  trade.Quantity,
		Symbol:    trade.Symbol,
	}

	buyerReport := base
	buyerReport.Side = engine.Buy
	buyerReport.OrderID = trade.BuyOrderID
	buyerReport.CounterpartyID = trade.SellOrderID

	sellerReport := base
	sellerReport.Side = engine.Sell
	sellerReport.OrderID = trade.SellOrderID
	sellerReport.CounterpartyID = trade.BuyOrderID

	return buyerReport.Serialize(), sellerReport.Serialize()
}

// ErrorReportBytes builds an error notification for a rejected order.
func ErrorReportBytes(symbol string, orderID uint64, err error) []byte {
	r := Report{
		Type:      ErrorReport,
		Timestamp: uint64(time.Now().UnixNano()),
		Symbol:    symbol,
		OrderID:   orderID,
		Err:       fmt.Sprint(err),
	}
	return r.Serialize()
}
