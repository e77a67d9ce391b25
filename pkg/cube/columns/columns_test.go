package columns

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubetrade/cube/pkg/cube/state"
	"github.com/cubetrade/cube/pkg/cube/types"
)

type quotes struct{ fail bool }

func (q quotes) Get(_ context.Context, sym string) (types.Quote, error) {
	if q.fail {
		return types.Quote{}, errors.New("down")
	}
	return types.Quote{Price: "190.12", ChgFmt: "-1.20%", ChgRaw: -1.2}, nil
}

func TestRenderValue(t *testing.T) {
	price := 189.5
	row := Row{Record: types.TickerRecord{
		Ticker:        "AAPL",
		Name:          "Apple Inc.",
		Sector:        "Technology",
		CurrentPrice:  &price,
		MarketCap:     3.4e12,
		DataPoints:    1256,
		FileSizeBytes: 2_000_000,
	}, Status: state.Syncing}
	ctx := context.Background()

	for col, want := range map[string]string{
		"ticker": "AAPL",
		"name":   "Apple Inc.",
		"price":  "$189.5",
		"mcap":   "$3.4T",
		"points": "1,256",
		"synced": "Never",
		"size":   "2.0 MB",
		"status": "syncing",
		"quote":  "",
		"bogus":  "",
	} {
		got, err := RenderValue(ctx, col, row, Services{})
		require.NoError(t, err, col)
		assert.Equal(t, want, got, col)
	}

	got, _ := RenderValue(ctx, "quote", row, Services{Quotes: quotes{}})
	assert.Equal(t, "190.12", got)
	got, _ = RenderValue(ctx, "chg%", row, Services{Quotes: quotes{}})
	assert.Equal(t, "-1.20%", got)
	got, _ = RenderValue(ctx, "chg%", row, Services{Quotes: quotes{fail: true}})
	assert.Equal(t, "", got)
}

func TestStatusBlankWhenIdle(t *testing.T) {
	got, _ := RenderValue(context.Background(), "status", Row{}, Services{})
	assert.Equal(t, "", got)
}

func TestCompute(t *testing.T) {
	assert.Equal(t, Default, Compute(nil))
	assert.Equal(t, []string{"ticker", "mcap"}, Compute([]string{"Ticker", " mcap", "ticker", ""}))

	cols := Compute(nil)
	cols[0] = "changed"
	assert.Equal(t, "ticker", Default[0])
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Default))
	assert.Error(t, Validate([]string{"ticker", "pe"}))
}

func TestNeedsQuotes(t *testing.T) {
	assert.False(t, NeedsQuotes(Default))
	assert.True(t, NeedsQuotes([]string{"ticker", "chg%"}))
}

func TestSortFieldFor(t *testing.T) {
	f, ok := SortFieldFor("mcap")
	require.True(t, ok)
	assert.Equal(t, state.SortMarketCap, f)
	_, ok = SortFieldFor("name")
	assert.False(t, ok)
}

func TestExpandSets(t *testing.T) {
	cols, err := ExpandSets([]string{"compact", "live"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ticker", "price", "mcap", "synced", "quote", "chg%"}, cols)

	_, err = ExpandSets([]string{"nope"})
	var use *UnknownSetError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, "nope", use.Name)
	assert.Contains(t, use.Available, "default")
}
