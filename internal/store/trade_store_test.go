package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbook/internal/engine"
)

func TestTradeStore_AddAndGet(t *testing.T) {
	s := NewTradeStore(zerolog.Nop())
	trade := engine.Trade{ID: 1, Symbol: "AAPL", Price: 100, Quantity: 5}

	require.NoError(t, s.Add([]engine.Trade{trade}))

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, trade, got)
	assert.Equal(t, 1, s.Count())
}

func TestTradeStore_AddAcceptsABatchInOneCall(t *testing.T) {
	s := NewTradeStore(zerolog.Nop())
	require.NoError(t, s.Add([]engine.Trade{
		{ID: 1, Symbol: "AAPL"},
		{ID: 2, Symbol: "AAPL"},
		{ID: 3, Symbol: "MSFT"},
	}))

	assert.Equal(t, 3, s.Count())
	assert.Len(t, s.All(), 3)
}

func TestTradeStore_BySymbolIsOrderedByID(t *testing.T) {
	s := NewTradeStore(zerolog.Nop())
	require.NoError(t, s.Add([]engine.Trade{
		{ID: 3, Symbol: "AAPL"},
		{ID: 1, Symbol: "AAPL"},
		{ID: 2, Symbol: "MSFT"},
	}))

	trades := s.BySymbol("AAPL")
	require.Len(t, trades, 2)
	assert.Equal(t, uint64(1), trades[0].ID)
	assert.Equal(t, uint64(3), trades[1].ID)
}

func TestTradeStore_AllIsOrderedByID(t *testing.T) {
	s := NewTradeStore(zerolog.Nop())
	require.NoError(t, s.Add([]engine.Trade{
		{ID: 2, Symbol: "AAPL"},
		{ID: 1, Symbol: "MSFT"},
	}))

	all := s.All()
	require.Len(t, all, 2)
	assert.Equal(t, uint64(1), all[0].ID)
	assert.Equal(t, uint64(2), all[1].ID)
}

func TestTradeStore_FileBackedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.json")

	s, err := NewFileBackedTradeStore(path, true, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Add([]engine.Trade{{ID: 1, Symbol: "AAPL", Price: 100, Quantity: 1}}))

	reloaded, err := NewFileBackedTradeStore(path, false, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count())
}
