package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cubetrade/cube/pkg/cube/types"
)

func TestParse(t *testing.T) {
	tests := []struct {
		expr  string
		match []string
		miss  []string
	}{
		{"", []string{"AAPL", ""}, nil},
		{"aapl, msft", []string{"AAPL", "msft"}, []string{"GOOG", "AAPLX"}},
		{"bb*.jk", []string{"BBCA.JK", "BBRI.JK"}, []string{"BBCA", "TLKM.JK"}},
		{"/^[A-Z]+=F$/", []string{"GC=F", "CL=F"}, []string{"AAPL", "gc=f"}},
		{"tech", []string{"Technology", "FinTech"}, []string{"Energy"}},
	}
	for _, tt := range tests {
		f, err := Parse(tt.expr)
		require.NoError(t, err, tt.expr)
		for _, v := range tt.match {
			assert.True(t, f.Match(v), "%q should match %q", tt.expr, v)
		}
		for _, v := range tt.miss {
			assert.False(t, f.Match(v), "%q should not match %q", tt.expr, v)
		}
	}
}

func TestParseErrors(t *testing.T) {
	_, err := Parse("/[/")
	assert.Error(t, err)
	_, err = Parse("[*")
	assert.Error(t, err)
}

func TestRecords(t *testing.T) {
	recs := []types.TickerRecord{
		{Ticker: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
		{Ticker: "XOM", Name: "Exxon Mobil", Sector: "Energy"},
		{Ticker: "BTC-USD"},
	}
	f, err := Parse("energy")
	require.NoError(t, err)
	got := Records(recs, f)
	require.Len(t, got, 1)
	assert.Equal(t, "XOM", got[0].Ticker)

	f, err = Parse("apple")
	require.NoError(t, err)
	got = Records(recs, f)
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Ticker)

	assert.Len(t, Records(recs, nil), 3)
}
