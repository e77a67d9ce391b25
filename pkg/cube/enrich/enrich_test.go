package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubetrade/cube/pkg/cube/types"
)

type stubQuotes struct {
	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func newStub() *stubQuotes {
	return &stubQuotes{calls: map[string]int{}, fail: map[string]bool{}}
}

func (s *stubQuotes) Get(_ context.Context, sym string) (types.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[sym]++
	if s.fail[sym] {
		return types.Quote{}, errors.New("no quote")
	}
	return types.Quote{Price: "1.00", ChgFmt: "0.50%", ChgRaw: 0.5, Name: sym + " Corp"}, nil
}

func (s *stubQuotes) count(sym string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[sym]
}

func TestCacheServiceHitsAndExpiry(t *testing.T) {
	stub := newStub()
	c := NewCacheService(stub, time.Minute, 10)
	now := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	q, err := c.Get(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL Corp", q.Name)
	_, _ = c.Get(context.Background(), "AAPL")
	assert.Equal(t, 1, stub.count("AAPL"))

	now = now.Add(2 * time.Minute)
	_, _ = c.Get(context.Background(), "AAPL")
	assert.Equal(t, 2, stub.count("AAPL"))
	assert.Equal(t, 1, c.Len())
}

func TestCacheServiceEvictsLeastRecentlyUsed(t *testing.T) {
	stub := newStub()
	c := NewCacheService(stub, time.Hour, 2)
	ctx := context.Background()

	_, _ = c.Get(ctx, "A")
	_, _ = c.Get(ctx, "B")
	_, _ = c.Get(ctx, "A") // A is now most recent
	_, _ = c.Get(ctx, "C") // evicts B

	assert.Equal(t, 2, c.Len())
	_, _ = c.Get(ctx, "A")
	assert.Equal(t, 1, stub.count("A"))
	_, _ = c.Get(ctx, "B")
	assert.Equal(t, 2, stub.count("B"))
}

func TestCacheServiceDoesNotCacheFailures(t *testing.T) {
	stub := newStub()
	stub.fail["BAD"] = true
	c := NewCacheService(stub, time.Hour, 4)

	_, err := c.Get(context.Background(), "BAD")
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "BAD")
	assert.Error(t, err)
	assert.Equal(t, 2, stub.count("BAD"))
	assert.Equal(t, 0, c.Len())
}

func TestEmptySymbol(t *testing.T) {
	stub := newStub()
	q, err := NewCacheService(stub, time.Hour, 4).Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, types.Quote{}, q)
	assert.Equal(t, 0, stub.count(""))
}

func TestAnnotate(t *testing.T) {
	stub := newStub()
	stub.fail["BAD"] = true
	out := Annotate(context.Background(), stub, []types.TickerRecord{{Ticker: "AAPL"}, {Ticker: "BAD"}})

	require.Len(t, out, 2)
	assert.Equal(t, "AAPL", out[0].Record.Ticker)
	assert.NoError(t, out[0].Err)
	assert.Equal(t, "1.00", out[0].Quote.Price)
	assert.Error(t, out[1].Err)
}
