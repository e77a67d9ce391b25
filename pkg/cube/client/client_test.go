package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubetrade/cube/internal/adminfake"
	"github.com/cubetrade/cube/pkg/cube/types"
)

func newFake(t *testing.T) (*adminfake.Server, *Client) {
	t.Helper()
	fake := adminfake.New()
	t.Cleanup(fake.Close)
	return fake, New(fake.URL(), WithTimeout(5*time.Second))
}

func TestSearch(t *testing.T) {
	fake, c := newFake(t)
	fake.AddSearchResult(types.SearchResult{Symbol: "AAPL", Name: "Apple Inc.", Exchange: "NMS", Type: "EQUITY"})

	res, err := c.Search(context.Background(), "aapl")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "AAPL", res[0].Symbol)
	assert.False(t, res[0].AlreadySynced)

	res, err = c.Search(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.NotNil(t, res)
}

func TestSearchBlankQuerySendsNothing(t *testing.T) {
	fake, c := newFake(t)
	_, err := c.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyArgument)
	assert.Equal(t, 0, fake.Calls(adminfake.RouteSearch))
}

func TestSyncOneAndStatus(t *testing.T) {
	_, c := newFake(t)

	rec, err := c.SyncOne(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "MSFT", rec.Ticker)
	assert.Equal(t, 251, rec.DataPoints)
	require.NotNil(t, rec.CurrentPrice)

	all, err := c.FetchStatus(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "MSFT", all[0].Ticker)
	assert.Equal(t, int64(40_000), all[0].FileSizeBytes)
}

func TestSyncOneUpstreamFailureIsNetworkError(t *testing.T) {
	fake, c := newFake(t)
	fake.FailTicker("BAD")

	_, err := c.SyncOne(context.Background(), "BAD")
	require.Error(t, err)

	var ne *NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusInternalServerError, ne.StatusCode)
	assert.Equal(t, "Sync failed", ne.Body)
	assert.True(t, IsNetwork(err))
	assert.False(t, IsDecode(err))
}

func TestSyncBulk(t *testing.T) {
	fake, c := newFake(t)
	fake.FailTicker("NOPE")

	res, err := c.SyncBulk(context.Background(), []string{"AAPL", "NOPE", "GOOG"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, []string{"AAPL", "NOPE", "GOOG"}, fake.LastBulk())
}

func TestSyncBulkValidation(t *testing.T) {
	fake, c := newFake(t)

	_, err := c.SyncBulk(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoTickers)

	many := make([]string, MaxBulkTickers+1)
	for i := range many {
		many[i] = "T"
	}
	_, err = c.SyncBulk(context.Background(), many)
	assert.ErrorIs(t, err, ErrTooManyTickers)
	assert.Equal(t, 0, fake.Calls(adminfake.RouteBulk))
}

func TestSyncPreset(t *testing.T) {
	fake, c := newFake(t)
	fake.AddPreset("crypto", "BTC-USD", "ETH-USD")

	res, err := c.SyncPreset(context.Background(), "crypto")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Success)
	assert.Equal(t, "crypto", res.Preset)

	_, err = c.SyncPreset(context.Background(), "missing")
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusNotFound, ne.StatusCode)
}

func TestDeleteTicker(t *testing.T) {
	fake, c := newFake(t)
	fake.Seed(types.TickerRecord{Ticker: "AMD"})

	require.NoError(t, c.DeleteTicker(context.Background(), "AMD"))
	assert.Empty(t, fake.Records())

	err := c.DeleteTicker(context.Background(), "AMD")
	assert.True(t, IsNetwork(err))
}

func TestFetchDetail(t *testing.T) {
	fake, c := newFake(t)
	price := 412.1
	fake.Seed(types.TickerRecord{Ticker: "MSFT"})
	fake.SetDetail(types.TickerDetail{
		Ticker:       "MSFT",
		Company:      types.Company{Name: "Microsoft", Sector: "Technology", Industry: "Software"},
		Stats:        types.Stats{{Key: "pe_ratio", Value: types.NullStat()}, {Key: "beta", Value: types.NumberStat(0.9)}},
		CurrentPrice: &price,
		DataPoints:   250,
	})

	d, err := c.FetchDetail(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Software", d.Company.Industry)
	require.Len(t, d.Stats, 2)
	assert.True(t, d.Stats[0].Value.IsNull())
	assert.Equal(t, 412.1, *d.CurrentPrice)
}

func TestFetchPresets(t *testing.T) {
	fake, c := newFake(t)
	fake.AddPreset("us_tech", "AAPL", "MSFT")

	presets, err := c.FetchPresets(context.Background())
	require.NoError(t, err)
	require.Contains(t, presets, "us_tech")
	assert.Equal(t, "Us Tech", presets["us_tech"].Name)
	assert.Equal(t, 2, presets["us_tech"].Count)
}

func TestFetchLogs(t *testing.T) {
	fake, c := newFake(t)
	fake.AddLog(types.LogEntry{Level: types.LevelInfo, Message: "first"})
	fake.AddLog(types.LogEntry{Level: types.LevelError, Message: "second"})
	fake.AddLog(types.LogEntry{Level: types.LevelInfo, Message: "third"})

	logs, err := c.FetchLogs(context.Background(), 10, "")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "third", logs[0].Message)

	logs, err = c.FetchLogs(context.Background(), 10, types.LevelError)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "second", logs[0].Message)

	logs, err = c.FetchLogs(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestFetchLogsValidation(t *testing.T) {
	fake, c := newFake(t)
	_, err := c.FetchLogs(context.Background(), 0, "")
	assert.ErrorIs(t, err, ErrInvalidLimit)
	_, err = c.FetchLogs(context.Background(), 5, "debug")
	assert.ErrorIs(t, err, ErrInvalidLevel)
	assert.Equal(t, 0, fake.Calls(adminfake.RouteLogs))
}

func TestFetchOverviewAndTickers(t *testing.T) {
	fake, c := newFake(t)
	fake.Seed(
		types.TickerRecord{Ticker: "A", Sector: "Tech", DataPoints: 10, MarketCap: 5, SyncedAt: "2026-10-01T00:00:00"},
		types.TickerRecord{Ticker: "B", Sector: "Tech", DataPoints: 5, MarketCap: 7, SyncedAt: "2026-10-02T00:00:00"},
	)

	ov, err := c.FetchOverview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, ov.TotalTickers)
	assert.Equal(t, 15, ov.TotalDataPoints)
	assert.Equal(t, 12.0, ov.TotalMarketCap)
	assert.Equal(t, "2026-10-02T00:00:00", ov.LastSync)
	assert.Equal(t, map[string]int{"Tech": 2}, ov.Sectors)

	syms, err := c.ListTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, syms)
}

func TestDecodeError(t *testing.T) {
	fake, c := newFake(t)
	fake.MalformRoute(adminfake.RouteStatus)

	_, err := c.FetchStatus(context.Background())
	require.Error(t, err)
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
	assert.False(t, IsNetwork(err))
}

func TestNon2xxIsNetworkError(t *testing.T) {
	fake, c := newFake(t)
	fake.FailRoute(adminfake.RouteOverview, http.StatusServiceUnavailable)

	_, err := c.FetchOverview(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, http.StatusServiceUnavailable, ne.StatusCode)
	assert.Contains(t, err.Error(), "overview failed")
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url)
	_, err := c.FetchStatus(context.Background())
	var ne *NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Zero(t, ne.StatusCode)
}

func TestTrailingSlashBaseURL(t *testing.T) {
	fake := adminfake.New()
	defer fake.Close()
	c := New(fake.URL() + "/")
	assert.Equal(t, fake.URL(), c.BaseURL())
	_, err := c.FetchStatus(context.Background())
	assert.NoError(t, err)
}
