package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubetrade/cube/pkg/cube/filter"
	"github.com/cubetrade/cube/pkg/cube/render"
	"github.com/cubetrade/cube/pkg/cube/state"
	"github.com/cubetrade/cube/pkg/cube/types"
)

func snapshot() state.Snapshot {
	st := state.New()
	st.ReplaceAll([]types.TickerRecord{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology", MarketCap: 3.4e12},
		{Ticker: "XOM", Name: "Exxon Mobil", Sector: "Energy", MarketCap: 4.5e11},
		{Ticker: "NVDA", Name: "NVIDIA", Sector: "Technology", MarketCap: 4.1e12},
	})
	st.SetSort(state.SortState{Field: state.SortMarketCap, Dir: state.Desc})
	st.BeginSync("XOM")
	return st.Snapshot()
}

func TestBuildKeepsSnapshotOrder(t *testing.T) {
	r := &Runner{}
	tbl, err := r.Build(context.Background(), snapshot(), ExecuteOptions{Columns: []string{"ticker", "mcap", "status"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"ticker", "mcap", "status"}, tbl.Columns)
	require.Len(t, tbl.Cells, 3)
	assert.Equal(t, []string{"NVDA", "$4.1T", ""}, tbl.Cells[0])
	assert.Equal(t, []string{"AAPL", "$3.4T", ""}, tbl.Cells[1])
	assert.Equal(t, []string{"XOM", "$450.0B", "syncing"}, tbl.Cells[2])
	assert.Equal(t, state.Syncing, tbl.Rows[2].Status)
}

func TestBuildFilters(t *testing.T) {
	f, err := filter.Parse("tech")
	require.NoError(t, err)
	tbl, err := (&Runner{}).Build(context.Background(), snapshot(), ExecuteOptions{Filter: f})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "NVDA", tbl.Rows[0].Record.Ticker)
}

func TestBuildRejectsUnknownColumn(t *testing.T) {
	_, err := (&Runner{}).Build(context.Background(), snapshot(), ExecuteOptions{Columns: []string{"pe"}})
	assert.Error(t, err)
}

func TestExecuteTable(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Renderer: render.NewTableRenderer(), Writer: &buf}
	require.NoError(t, r.Execute(context.Background(), snapshot(), ExecuteOptions{}))

	out := buf.String()
	assert.Contains(t, out, "MCAP ▼")
	assert.Contains(t, out, "Exxon Mobil")
	assert.Contains(t, strings.ToUpper(out), "3 TICKERS")
	assert.Less(t, strings.Index(out, "NVDA"), strings.Index(out, "AAPL"))
}

func TestExecuteJSON(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Renderer: render.NewJSONRenderer(), Writer: &buf}
	require.NoError(t, r.Execute(context.Background(), snapshot(), ExecuteOptions{Columns: []string{"ticker", "mcap"}}))

	var out struct {
		Sort    string
		Columns []string
		Tickers []struct {
			Ticker    string            `json:"ticker"`
			MarketCap float64           `json:"market_cap"`
			Status    string            `json:"status"`
			Cells     map[string]string `json:"cells"`
		}
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "market_cap desc", out.Sort)
	require.Len(t, out.Tickers, 3)
	assert.Equal(t, "NVDA", out.Tickers[0].Ticker)
	assert.Equal(t, 4.1e12, out.Tickers[0].MarketCap)
	assert.Equal(t, "$4.1T", out.Tickers[0].Cells["mcap"])
	assert.Equal(t, "syncing", out.Tickers[2].Status)
}

func TestExecuteSyms(t *testing.T) {
	var buf bytes.Buffer
	r := &Runner{Renderer: render.NewSymsRenderer(), Writer: &buf}
	require.NoError(t, r.Execute(context.Background(), snapshot(), ExecuteOptions{}))
	assert.Equal(t, "NVDA,AAPL,XOM\n", buf.String())
}
