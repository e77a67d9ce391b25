package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerDetailDecode(t *testing.T) {
	payload := `{
		"ticker": "AAPL",
		"company": {"name": "Apple Inc.", "sector": "Technology", "industry": "Consumer Electronics"},
		"stats": {"market_cap": 3400000000000, "pe_ratio": null, "beta": 1.24, "rating": "buy", "split": true},
		"current_price": 227.5,
		"data_points": 251,
		"synced_at": "2026-10-16T09:30:00"
	}`

	var d TickerDetail
	require.NoError(t, json.Unmarshal([]byte(payload), &d))

	assert.Equal(t, "Apple Inc.", d.Company.Name)
	require.NotNil(t, d.CurrentPrice)
	assert.Equal(t, 227.5, *d.CurrentPrice)
	require.Len(t, d.Stats, 5)

	keys := make([]string, 0, len(d.Stats))
	for _, st := range d.Stats {
		keys = append(keys, st.Key)
	}
	assert.Equal(t, []string{"market_cap", "pe_ratio", "beta", "rating", "split"}, keys)

	v, ok := d.Stats.Get("pe_ratio")
	require.True(t, ok)
	assert.True(t, v.IsNull())

	v, _ = d.Stats.Get("market_cap")
	assert.Equal(t, StatNumber, v.Kind)
	assert.Equal(t, 3.4e12, v.Num)

	v, _ = d.Stats.Get("rating")
	assert.Equal(t, StringStat("buy"), v)

	v, _ = d.Stats.Get("split")
	assert.Equal(t, BoolStat(true), v)

	_, ok = d.Stats.Get("roe")
	assert.False(t, ok)
}

func TestTickerDetailMissingStats(t *testing.T) {
	var d TickerDetail
	require.NoError(t, json.Unmarshal([]byte(`{"ticker":"X","current_price":null}`), &d))
	assert.Nil(t, d.Stats)
	assert.Nil(t, d.CurrentPrice)
}

func TestStatsRejectsNonObject(t *testing.T) {
	var s Stats
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &s))
}

func TestStatsMarshalKeepsOrder(t *testing.T) {
	s := Stats{
		{Key: "z", Value: NumberStat(1)},
		{Key: "a", Value: NullStat()},
		{Key: "m", Value: StringStat("x")},
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":null,"m":"x"}`, string(b))
}

func TestNestedStatRendersAsCompactJSON(t *testing.T) {
	var s Stats
	require.NoError(t, json.Unmarshal([]byte(`{"officers": [ {"name": "A"} ]}`), &s))
	v, _ := s.Get("officers")
	assert.Equal(t, StringStat(`[{"name":"A"}]`), v)
}
