package engine

import (
	"sync"

	"github.com/rs/zerolog"
)

// Exchange is a symbol-keyed registry of OrderBooks. Each book is
// guarded by its own mutex rather than one lock for the whole
// Exchange, so that submissions against different symbols never
// contend with each other — the matching core itself stays free of
// concurrency, per the single-book, single-caller design.
type Exchange struct {
	mu     sync.RWMutex
	books  map[string]*bookHandle
	logger zerolog.Logger
}

type bookHandle struct {
	mu   sync.Mutex
	book *OrderBook
}

// NewExchange returns an Exchange with no registered symbols.
func NewExchange(logger zerolog.Logger) *Exchange {
	return &Exchange{
		books:  make(map[string]*bookHandle),
		logger: logger,
	}
}

// RegisterSymbol creates an empty book for symbol, if one does not
// already exist.
func (ex *Exchange) RegisterSymbol(symbol string) *OrderBook {
	ex.mu.Lock()
	defer ex.mu.Unlock()

	if h, ok := ex.books[symbol]; ok {
		return h.book
	}
	book := NewOrderBook(symbol, ex.logger)
	ex.books[symbol] = &bookHandle{book: book}
	return book
}

// Symbols returns the set of registered symbols.
func (ex *Exchange) Symbols() []string {
	ex.mu.RLock()
	defer ex.mu.RUnlock()

	symbols := make([]string, 0, len(ex.books))
	for s := range ex.books {
		symbols = append(symbols, s)
	}
	return symbols
}

// Submit routes order to its symbol's book, serializing access to that
// book with its own mutex. It returns ErrUnknownSymbol if the symbol
// was never registered.
func (ex *Exchange) Submit(order *Order) ([]Trade, error) {
	h, ok := ex.handle(order.Symbol)
	if !ok {
		order.Status = Rejected
		return nil, ErrUnknownSymbol
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.book.Submit(order)
}

// Cancel routes a cancel request to symbol's book.
func (ex *Exchange) Cancel(symbol string, orderID uint64) (bool, error) {
	h, ok := ex.handle(symbol)
	if !ok {
		return false, ErrUnknownSymbol
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.book.Cancel(orderID), nil
}

// Book returns the registered book for symbol, for read-only queries
// (Depth, Stats, Get). The returned book is not guarded: reads through
// it are not serialized with Submit/Cancel calls on the same symbol.
func (ex *Exchange) Book(symbol string) (*OrderBook, bool) {
	h, ok := ex.handle(symbol)
	if !ok {
		return nil, false
	}
	return h.book, true
}

func (ex *Exchange) handle(symbol string) (*bookHandle, bool) {
	ex.mu.RLock()
	defer ex.mu.RUnlock()
	h, ok := ex.books[symbol]
	return h, ok
}
