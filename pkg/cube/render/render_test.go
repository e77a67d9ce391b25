package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubetrade/cube/pkg/cube/columns"
	"github.com/cubetrade/cube/pkg/cube/state"
	"github.com/cubetrade/cube/pkg/cube/types"
)

var plain = RenderOptions{}

func TestForFormat(t *testing.T) {
	for _, f := range []string{"", "table", "json", "syms"} {
		_, ok := ForFormat(f)
		assert.True(t, ok, f)
	}
	_, ok := ForFormat("csv")
	assert.False(t, ok)
}

func TestTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableRenderer().Render(&buf, Table{Columns: columns.Default}, plain))
	assert.Equal(t, "No tickers synced yet.\n", buf.String())
}

func TestHeaderMarksSortedColumn(t *testing.T) {
	hdr := header([]string{"ticker", "name", "synced"}, state.SortState{Field: state.SortTicker, Dir: state.Asc})
	assert.Equal(t, "TICKER ▲", hdr[0])
	assert.Equal(t, "NAME", hdr[1])
	assert.Equal(t, "SYNCED", hdr[2])

	hdr = header([]string{"synced"}, state.DefaultSort)
	assert.Equal(t, "SYNCED ▼", hdr[0])
}

func TestColorize(t *testing.T) {
	assert.Contains(t, colorize("status", "failed", columns.Row{Status: state.Failed}), "failed")
	assert.Contains(t, colorize("chg%", "1.20%", columns.Row{}), "1.20%")
	assert.Equal(t, "Apple", colorize("name", "Apple", columns.Row{}))
	assert.Equal(t, "0.00%", colorize("chg%", "0.00%", columns.Row{}))
}

func TestDetailShowsFirstStatsOnly(t *testing.T) {
	price := 189.5
	stats := make(types.Stats, 0, 20)
	for i := 0; i < 20; i++ {
		stats = append(stats, types.Stat{Key: fmt.Sprintf("stat_%02d", i), Value: types.NumberStat(float64(i * 1000))})
	}
	stats[1].Value = types.NullStat()
	d := types.TickerDetail{
		Ticker:       "AAPL",
		Company:      types.Company{Name: "Apple Inc.", Sector: "Technology", Industry: "Consumer Electronics", Employees: 164000},
		Stats:        stats,
		CurrentPrice: &price,
		DataPoints:   1256,
	}

	var buf bytes.Buffer
	require.NoError(t, Detail(&buf, d, &types.Quote{Price: "190.12", ChgFmt: "0.33%"}, plain))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "AAPL  Apple Inc.\n"))
	assert.Contains(t, out, "Consumer Electronics")
	assert.Contains(t, out, "164,000")
	assert.Contains(t, out, "$189.5")
	assert.Contains(t, out, "190.12 (0.33%)")
	assert.Contains(t, out, "stat 00")
	assert.Contains(t, out, "stat 14")
	assert.Contains(t, out, "14,000")
	assert.NotContains(t, out, "stat 15")
	assert.NotContains(t, out, "stat_")
	assert.Contains(t, out, "—")
}

func TestSearchResults(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SearchResults(&buf, nil, plain))
	assert.Equal(t, "No results.\n", buf.String())

	buf.Reset()
	require.NoError(t, SearchResults(&buf, []types.SearchResult{
		{Symbol: "BBCA.JK", Name: "Bank Central Asia", Exchange: "JKT", Type: "EQUITY", AlreadySynced: true},
		{Symbol: "BBRI.JK", Name: "Bank Rakyat Indonesia", Exchange: "JKT", Type: "EQUITY"},
	}, plain))
	out := buf.String()
	assert.Contains(t, out, "BBCA.JK")
	assert.Equal(t, 1, strings.Count(out, "✓"))
}

func TestPresetsSortedByKey(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Presets(&buf, map[string]types.Preset{
		"us_tech": {Name: "Us Tech", Tickers: []string{"AAPL", "MSFT"}, Count: 2},
		"crypto":  {Name: "Crypto", Tickers: []string{"BTC-USD"}},
	}, plain))
	out := buf.String()
	assert.Less(t, strings.Index(out, "crypto"), strings.Index(out, "us_tech"))
	assert.Contains(t, out, "AAPL, MSFT")
}

func TestLogsCountsLevels(t *testing.T) {
	var buf bytes.Buffer
	now := time.Now().Format(time.RFC3339)
	require.NoError(t, Logs(&buf, []types.LogEntry{
		{Timestamp: now, Level: types.LevelInfo, Message: "Successfully synced AAPL", Ticker: "AAPL"},
		{Timestamp: now, Level: types.LevelError, Message: "Failed to sync BAD", Ticker: "BAD"},
		{Timestamp: now, Level: types.LevelInfo, Message: "Deleted data for MSFT", Ticker: "MSFT"},
	}, plain))
	out := buf.String()
	assert.Contains(t, out, "Just now")
	assert.Contains(t, out, "Failed to sync BAD")
	assert.True(t, strings.HasSuffix(out, "2 info, 0 warn, 1 error\n"))

	buf.Reset()
	require.NoError(t, Logs(&buf, nil, plain))
	assert.Equal(t, "No log entries.\n", buf.String())
}

func TestOverview(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Overview(&buf, types.Overview{
		TotalTickers:     3,
		TotalDataPoints:  3768,
		TotalMarketCap:   7.95e12,
		TotalDBSizeBytes: 120_000,
		Sectors:          map[string]int{"Technology": 2, "Energy": 1},
		RecentLogs:       []types.LogEntry{{Level: types.LevelWarn, Message: "slow upstream"}},
	}, plain))
	out := buf.String()
	assert.Contains(t, out, "3,768")
	assert.Contains(t, out, "120.0 KB")
	assert.Contains(t, out, "Never")
	assert.Less(t, strings.Index(out, "Technology"), strings.Index(out, "Energy"))
	assert.Contains(t, out, strings.Repeat("█", histogramWidth))
	assert.Contains(t, out, "0 info, 1 warn, 0 error")
}

func TestBulkResultAndProgress(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, BulkResult(&buf, types.BulkResult{Total: 8, Success: 7, Errors: 1, Preset: "us_tech"}, plain))
	assert.Equal(t, "us_tech: Done! 7 success, 1 errors\n", buf.String())

	buf.Reset()
	require.NoError(t, Progress(&buf, ""))
	assert.Empty(t, buf.String())
	require.NoError(t, Progress(&buf, "Syncing 3 tickers..."))
	assert.Equal(t, "Syncing 3 tickers...\n", buf.String())
}
