package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladderbook/internal/engine"
)

func TestOrderStore_AddOrUpdateAndGet(t *testing.T) {
	s := NewOrderStore(zerolog.Nop())
	order := engine.Order{ID: 1, Symbol: "AAPL", Side: engine.Buy, Status: engine.New, UserID: 7}

	require.NoError(t, s.AddOrUpdate(order))

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, order, got)
	assert.Equal(t, 1, s.Count())
}

func TestOrderStore_AddOrUpdateOverwritesByID(t *testing.T) {
	s := NewOrderStore(zerolog.Nop())
	require.NoError(t, s.AddOrUpdate(engine.Order{ID: 1, Symbol: "AAPL", Status: engine.New}))
	require.NoError(t, s.AddOrUpdate(engine.Order{ID: 1, Symbol: "AAPL", Status: engine.Filled}))

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, engine.Filled, got.Status)
	assert.Equal(t, 1, s.Count())
}

func TestOrderStore_FiltersBySymbolUserStatusAndActive(t *testing.T) {
	s := NewOrderStore(zerolog.Nop())
	require.NoError(t, s.AddOrUpdate(engine.Order{ID: 1, Symbol: "AAPL", UserID: 1, Status: engine.New}))
	require.NoError(t, s.AddOrUpdate(engine.Order{ID: 2, Symbol: "MSFT", UserID: 1, Status: engine.Filled}))
	require.NoError(t, s.AddOrUpdate(engine.Order{ID: 3, Symbol: "AAPL", UserID: 2, Status: engine.Canceled}))

	assert.Len(t, s.BySymbol("AAPL"), 2)
	assert.Len(t, s.ByUser(1), 2)
	assert.Len(t, s.Active(), 1)
	assert.Len(t, s.ByStatus(engine.Filled), 1)
	assert.Len(t, s.All(), 3)

	counts := s.CountBySymbol()
	assert.Equal(t, 2, counts["AAPL"])
	assert.Equal(t, 1, counts["MSFT"])
}

func TestOrderStore_FileBackedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")

	s, err := NewFileBackedOrderStore(path, true, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.AddOrUpdate(engine.Order{ID: 1, Symbol: "AAPL", Status: engine.New}))

	reloaded, err := NewFileBackedOrderStore(path, false, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.Count())

	got, ok := reloaded.Get(1)
	require.True(t, ok)
	assert.Equal(t, "AAPL", got.Symbol)
}
