// Package store provides optional JSON-file-backed persistence for
// orders and trades: a mutex-guarded in-memory map with an opt-in
// flush to disk.
package store

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"ladderbook/internal/engine"
)

// OrderStore is a thread-safe cache of orders indexed by ID, with
// optional auto-flushing to a JSON file on every write.
type OrderStore struct {
	mu        sync.Mutex
	orders    map[uint64]engine.Order
	filePath  string
	autoFlush bool
	logger    zerolog.Logger
}

// NewOrderStore returns an in-memory-only store.
func NewOrderStore(logger zerolog.Logger) *OrderStore {
	return &OrderStore{
		orders: make(map[uint64]engine.Order),
		logger: logger,
	}
}

// NewFileBackedOrderStore returns a store that loads existing orders
// from filePath if present, and optionally flushes to it on every
// write when autoFlush is true.
func NewFileBackedOrderStore(filePath string, autoFlush bool, logger zerolog.Logger) (*OrderStore, error) {
	s := &OrderStore{
		orders:    make(map[uint64]engine.Order),
		filePath:  filePath,
		autoFlush: autoFlush,
		logger:    logger,
	}
	if _, err := os.Stat(filePath); err == nil {
		if err := s.loadFromFile(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *OrderStore) loadFromFile() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	var orders []engine.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	s.logger.Info().Int("count", len(orders)).Str("path", s.filePath).Msg("loaded orders from file")
	return nil
}

// AddOrUpdate records or overwrites an order, flushing to disk if
// auto-flush is enabled. It is called on every submission regardless
// of outcome, so a rejected order's terminal status is captured too.
func (s *OrderStore) AddOrUpdate(order engine.Order) error {
	s.mu.Lock()
	s.orders[order.ID] = order
	shouldFlush := s.autoFlush
	s.mu.Unlock()

	if shouldFlush {
		return s.Flush()
	}
	return nil
}

// All returns every stored order.
func (s *OrderStore) All() []engine.Order {
	return s.filter(func(engine.Order) bool { return true })
}

// ByStatus returns all stored orders currently in status.
func (s *OrderStore) ByStatus(status engine.OrderStatus) []engine.Order {
	return s.filter(func(o engine.Order) bool { return o.Status == status })
}

// Get returns a stored order by ID.
func (s *OrderStore) Get(orderID uint64) (engine.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	return o, ok
}

// BySymbol returns all stored orders for symbol.
func (s *OrderStore) BySymbol(symbol string) []engine.Order {
	return s.filter(func(o engine.Order) bool { return o.Symbol == symbol })
}

// ByUser returns all stored orders for userID.
func (s *OrderStore) ByUser(userID uint64) []engine.Order {
	return s.filter(func(o engine.Order) bool { return o.UserID == userID })
}

// Active returns orders that are neither Filled nor Canceled.
func (s *OrderStore) Active() []engine.Order {
	return s.filter(func(o engine.Order) bool {
		return o.Status != engine.Filled && o.Status != engine.Canceled
	})
}

func (s *OrderStore) filter(pred func(engine.Order) bool) []engine.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Order
	for _, o := range s.orders {
		if pred(o) {
			out = append(out, o)
		}
	}
	return out
}

// Count returns the number of stored orders.
func (s *OrderStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// CountBySymbol tallies stored orders per symbol.
func (s *OrderStore) CountBySymbol() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for _, o := range s.orders {
		counts[o.Symbol]++
	}
	return counts
}

// Flush writes every stored order to filePath as pretty JSON. It is a
// no-op returning nil if no file path was configured.
func (s *OrderStore) Flush() error {
	if s.filePath == "" {
		return nil
	}
	s.mu.Lock()
	orders := make([]engine.Order, 0, len(s.orders))
	for _, o := range s.orders {
		orders = append(orders, o)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal orders for flush")
		return err
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", s.filePath).Msg("failed to write order store file")
		return err
	}
	s.logger.Debug().Int("count", len(orders)).Str("path", s.filePath).Msg("flushed orders to file")
	return nil
}
