package columns

import (
	"context"
	"fmt"
	"strings"

	"github.com/cubetrade/cube/pkg/cube/enrich"
	"github.com/cubetrade/cube/pkg/cube/format"
	"github.com/cubetrade/cube/pkg/cube/state"
	"github.com/cubetrade/cube/pkg/cube/types"
)

// Row is one line of the synced table: the cached record and its sync status.
type Row struct {
	Record types.TickerRecord
	Status state.TickerStatus
}

// Services provides access to external services for resolvers. Quotes may be
// nil, in which case live columns render empty.
type Services struct {
	Quotes enrich.QuoteService
}

// Resolver converts a row into a string value for a given column.
type Resolver func(ctx context.Context, r Row, s Services) (string, error)

// Registry maps column keys to resolvers.
var Registry = map[string]Resolver{}

// Default is the column order used when none is given.
var Default = []string{"ticker", "name", "sector", "price", "mcap", "points", "synced", "size"}

// sortable maps column keys to the table sort field they drive.
var sortable = map[string]state.SortField{
	"ticker": state.SortTicker,
	"synced": state.SortSyncedAt,
	"mcap":   state.SortMarketCap,
}

func init() {
	Registry["ticker"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return r.Record.Ticker, nil
	}
	Registry["name"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return r.Record.Name, nil
	}
	Registry["sector"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return r.Record.Sector, nil
	}
	Registry["price"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return format.Price(r.Record.CurrentPrice), nil
	}
	Registry["mcap"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return format.MarketCap(r.Record.MarketCap), nil
	}
	Registry["points"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return format.Number(float64(r.Record.DataPoints)), nil
	}
	Registry["synced"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return format.TimeAgo(r.Record.SyncedAt), nil
	}
	Registry["synced_at"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return r.Record.SyncedAt, nil
	}
	Registry["size"] = func(_ context.Context, r Row, _ Services) (string, error) {
		return format.Bytes(r.Record.FileSizeBytes), nil
	}
	Registry["status"] = func(_ context.Context, r Row, _ Services) (string, error) {
		if r.Status == "" || r.Status == state.Idle {
			return "", nil
		}
		return string(r.Status), nil
	}
	// live columns, fetched through Services.Quotes
	Registry["quote"] = func(ctx context.Context, r Row, s Services) (string, error) {
		if s.Quotes == nil {
			return "", nil
		}
		q, err := s.Quotes.Get(ctx, r.Record.Ticker)
		if err != nil {
			return "", nil
		}
		return q.Price, nil
	}
	Registry["chg%"] = func(ctx context.Context, r Row, s Services) (string, error) {
		if s.Quotes == nil {
			return "", nil
		}
		q, err := s.Quotes.Get(ctx, r.Record.Ticker)
		if err != nil {
			return "", nil
		}
		return q.ChgFmt, nil
	}
}

// Compute determines final column order. Explicit columns are honored in
// order with repeats dropped; otherwise Default is used.
func Compute(explicit []string) []string {
	if len(explicit) == 0 {
		return append([]string(nil), Default...)
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(explicit))
	for _, k := range explicit {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Validate reports the first column key with no resolver.
func Validate(cols []string) error {
	for _, c := range cols {
		if _, ok := Registry[c]; !ok {
			return fmt.Errorf("unknown column %q", c)
		}
	}
	return nil
}

// NeedsQuotes reports whether any column fetches live quotes.
func NeedsQuotes(cols []string) bool {
	for _, c := range cols {
		if c == "quote" || c == "chg%" {
			return true
		}
	}
	return false
}

// SortFieldFor returns the sort field a column header drives.
func SortFieldFor(col string) (state.SortField, bool) {
	f, ok := sortable[col]
	return f, ok
}

// RenderValue calls the resolver for the given column.
func RenderValue(ctx context.Context, col string, r Row, s Services) (string, error) {
	if res, ok := Registry[col]; ok {
		return res(ctx, r, s)
	}
	return "", nil
}
