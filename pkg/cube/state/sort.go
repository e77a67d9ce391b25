package state

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// SortField is a sortable column of the synced-ticker table.
type SortField string

const (
	SortTicker    SortField = "ticker"
	SortSyncedAt  SortField = "synced_at"
	SortMarketCap SortField = "market_cap"
)

// SortDir is the direction of a sort.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// SortState is the current sort of the table.
type SortState struct {
	Field SortField
	Dir   SortDir
}

// DefaultSort shows the most recently synced tickers first.
var DefaultSort = SortState{Field: SortSyncedAt, Dir: Desc}

// Click returns the sort after a header click on field: the same field flips
// direction, a different field starts descending.
func (s SortState) Click(field SortField) SortState {
	if s.Field == field {
		if s.Dir == Asc {
			return SortState{Field: field, Dir: Desc}
		}
		return SortState{Field: field, Dir: Asc}
	}
	return SortState{Field: field, Dir: Desc}
}

func (s SortState) String() string { return string(s.Field) + " " + string(s.Dir) }

// ParseSortField accepts field names and the short aliases used by the CLI.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ticker", "sym", "symbol":
		return SortTicker, nil
	case "synced_at", "synced", "time":
		return SortSyncedAt, nil
	case "market_cap", "mcap", "cap":
		return SortMarketCap, nil
	}
	return "", fmt.Errorf("unknown sort field %q (want ticker, synced or mcap)", s)
}

// SortTickers returns a sorted copy of records. Records are first put in
// ticker order so equal keys always land in the same place; the input is not
// modified.
func SortTickers(records []types.TickerRecord, s SortState) []types.TickerRecord {
	out := append([]types.TickerRecord(nil), records...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	sort.SliceStable(out, func(i, j int) bool {
		c := compare(out[i], out[j], s.Field)
		if s.Dir == Asc {
			return c < 0
		}
		return c > 0
	})
	return out
}

func compare(a, b types.TickerRecord, field SortField) int {
	switch field {
	case SortTicker:
		return strings.Compare(a.Ticker, b.Ticker)
	case SortSyncedAt:
		// ISO-8601 strings order chronologically
		return strings.Compare(a.SyncedAt, b.SyncedAt)
	case SortMarketCap:
		switch {
		case a.MarketCap < b.MarketCap:
			return -1
		case a.MarketCap > b.MarketCap:
			return 1
		}
	}
	return 0
}
