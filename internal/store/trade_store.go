package store

import (
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"ladderbook/internal/engine"
)

// TradeStore is a thread-safe append-only log of executed trades,
// mirroring OrderStore's optional JSON-file persistence.
type TradeStore struct {
	mu        sync.Mutex
	trades    map[uint64]engine.Trade
	filePath  string
	autoFlush bool
	logger    zerolog.Logger
}

// NewTradeStore returns an in-memory-only trade store.
func NewTradeStore(logger zerolog.Logger) *TradeStore {
	return &TradeStore{
		trades: make(map[uint64]engine.Trade),
		logger: logger,
	}
}

// NewFileBackedTradeStore returns a trade store that loads filePath's
// contents if present and, when autoFlush is true, rewrites the whole
// file after every Add.
func NewFileBackedTradeStore(filePath string, autoFlush bool, logger zerolog.Logger) (*TradeStore, error) {
	s := &TradeStore{
		trades:    make(map[uint64]engine.Trade),
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

func (s *TradeStore) loadFromFile() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}
	var trades []engine.Trade
	if err := json.Unmarshal(data, &trades); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tr := range trades {
		s.trades[tr.ID] = tr
	}
	s.logger.Info().Int("count", len(trades)).Str("path", s.filePath).Msg("loaded trades from file")
	return nil
}

// Add records a batch of trades, flushing to disk once if auto-flush
// is enabled rather than once per trade.
func (s *TradeStore) Add(trades []engine.Trade) error {
	s.mu.Lock()
	for _, tr := range trades {
		s.trades[tr.ID] = tr
	}
	shouldFlush := s.autoFlush
	s.mu.Unlock()

	if shouldFlush {
		return s.Flush()
	}
	return nil
}

// All returns every stored trade, ordered by trade ID.
func (s *TradeStore) All() []engine.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.Trade, 0, len(s.trades))
	for _, tr := range s.trades {
		out = append(out, tr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a stored trade by ID.
func (s *TradeStore) Get(tradeID uint64) (engine.Trade, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tr, ok := s.trades[tradeID]
	return tr, ok
}

// BySymbol returns all stored trades for symbol, ordered by trade ID.
func (s *TradeStore) BySymbol(symbol string) []engine.Trade {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Trade
	for _, tr := range s.trades {
		if tr.Symbol == symbol {
			out = append(out, tr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of stored trades.
func (s *TradeStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.trades)
}

// Flush writes every stored trade to filePath as pretty JSON. It is a
// no-op returning nil if no file path was configured.
func (s *TradeStore) Flush() error {
	if s.filePath == "" {
		return nil
	}
	s.mu.Lock()
	trades := make([]engine.Trade, 0, len(s.trades))
	for _, tr := range s.trades {
		trades = append(trades, tr)
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(trades, "", "  ")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to marshal trades for flush")
		return err
	}
	if err := os.WriteFile(s.filePath, data, 0o644); err != nil {
		s.logger.Error().Err(err).Str("path", s.filePath).Msg("failed to write trade store file")
		return err
	}
	s.logger.Debug().Int("count", len(trades)).Str("path", s.filePath).Msg("flushed trades to file")
	return nil
}
