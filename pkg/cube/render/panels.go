package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cubetrade/cube/pkg/cube/format"
	"github.com/cubetrade/cube/pkg/cube/types"
)

// MaxDetailStats caps the stats shown in the detail panel.
const MaxDetailStats = 15

const histogramWidth = 30

// Detail prints the expanded view of one ticker. live, when set, is shown
// beside the cached price.
func Detail(w io.Writer, d types.TickerDetail, live *types.Quote, opts RenderOptions) error {
	title := d.Ticker
	if d.Company.Name != "" {
		title += "  " + d.Company.Name
	}
	if opts.Color {
		title = text.Bold.Sprint(title)
	}
	fmt.Fprintln(w, title)

	tw := newWriter(w, opts)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 2 * maxWidth(opts)},
	})
	add := func(k, v string) {
		if strings.TrimSpace(v) == "" {
			return
		}
		tw.AppendRow(table.Row{k, v})
	}
	add("sector", d.Company.Sector)
	add("industry", d.Company.Industry)
	add("country", d.Company.Country)
	add("exchange", d.Company.Exchange)
	add("currency", d.Company.Currency)
	if d.Company.Employees > 0 {
		add("employees", format.Number(float64(d.Company.Employees)))
	}
	add("website", d.Company.Website)
	add("price", format.Price(d.CurrentPrice))
	if live != nil && live.Price != "" {
		q := live.Price
		if live.ChgFmt != "" {
			q += " (" + live.ChgFmt + ")"
		}
		add("live", q)
	}
	add("data points", format.Number(float64(d.DataPoints)))
	add("synced", format.TimeAgo(d.SyncedAt))

	for i, s := range d.Stats {
		if i == MaxDetailStats {
			break
		}
		add(format.StatLabel(s.Key), format.Stat(s.Value))
	}
	tw.Render()

	if desc := strings.TrimSpace(d.Company.Description); desc != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, text.WrapSoft(desc, 2*maxWidth(opts)))
	}
	return nil
}

// SearchResults prints candidate symbols, marking those already synced.
func SearchResults(w io.Writer, res []types.SearchResult, opts RenderOptions) error {
	if len(res) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	tw := newWriter(w, opts)
	tw.AppendHeader(table.Row{"symbol", "name", "exchange", "type", "sector", "synced"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: maxWidth(opts)}})
	for _, r := range res {
		mark := ""
		if r.AlreadySynced {
			mark = "✓"
			if opts.Color {
				mark = text.Colors{text.FgGreen}.Sprint(mark)
			}
		}
		tw.AppendRow(table.Row{r.Symbol, r.Name, r.Exchange, r.Type, r.Sector, mark})
	}
	tw.Render()
	return nil
}

// Presets prints the preset catalog sorted by key.
func Presets(w io.Writer, presets map[string]types.Preset, opts RenderOptions) error {
	if len(presets) == 0 {
		_, err := fmt.Fprintln(w, "No presets.")
		return err
	}
	keys := make([]string, 0, len(presets))
	for k := range presets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := newWriter(w, opts)
	tw.AppendHeader(table.Row{"key", "name", "count", "tickers"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, WidthMax: 2 * maxWidth(opts)},
	})
	for _, k := range keys {
		p := presets[k]
		n := p.Count
		if n == 0 {
			n = len(p.Tickers)
		}
		tw.AppendRow(table.Row{k, p.Name, n, strings.Join(p.Tickers, ", ")})
	}
	tw.Render()
	return nil
}

// Logs prints activity entries in server order followed by level counts.
func Logs(w io.Writer, entries []types.LogEntry, opts RenderOptions) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No log entries.")
		return err
	}
	tw := newWriter(w, opts)
	tw.AppendHeader(table.Row{"time", "level", "ticker", "message"})
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: 2 * maxWidth(opts)}})
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.Level]++
		lvl := e.Level
		if opts.Color {
			lvl = levelColor(e.Level).Sprint(lvl)
		}
		tw.AppendRow(table.Row{format.TimeAgo(e.Timestamp), lvl, e.Ticker, e.Message})
	}
	tw.Render()
	_, err := fmt.Fprintf(w, "%d info, %d warn, %d error\n",
		counts[types.LevelInfo], counts[types.LevelWarn], counts[types.LevelError])
	return err
}

func levelColor(level string) text.Colors {
	switch level {
	case types.LevelError:
		return text.Colors{text.FgRed}
	case types.LevelWarn:
		return text.Colors{text.FgYellow}
	}
	return text.Colors{text.FgCyan}
}

// Overview prints the aggregate snapshot: totals, sector histogram and
// recent activity.
func Overview(w io.Writer, ov types.Overview, opts RenderOptions) error {
	tw := newWriter(w, opts)
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 1, Align: text.AlignRight}})
	tw.AppendRow(table.Row{"tickers", format.Number(float64(ov.TotalTickers))})
	tw.AppendRow(table.Row{"data points", format.Number(float64(ov.TotalDataPoints))})
	tw.AppendRow(table.Row{"market cap", format.MarketCap(ov.TotalMarketCap)})
	tw.AppendRow(table.Row{"db size", format.Bytes(ov.TotalDBSizeBytes)})
	tw.AppendRow(table.Row{"last sync", format.TimeAgo(ov.LastSync)})
	tw.Render()

	if len(ov.Sectors) > 0 {
		type kv struct {
			name string
			n    int
		}
		sectors := make([]kv, 0, len(ov.Sectors))
		for k, v := range ov.Sectors {
			sectors = append(sectors, kv{k, v})
		}
		sort.Slice(sectors, func(i, j int) bool {
			if sectors[i].n != sectors[j].n {
				return sectors[i].n > sectors[j].n
			}
			return sectors[i].name < sectors[j].name
		})
		fmt.Fprintln(w)
		st := newWriter(w, opts)
		st.AppendHeader(table.Row{"sector", "tickers", ""})
		st.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
		peak := sectors[0].n
		for _, s := range sectors {
			bar := 1
			if peak > 0 {
				bar = max(1, s.n*histogramWidth/peak)
			}
			st.AppendRow(table.Row{s.name, s.n, strings.Repeat("█", bar)})
		}
		st.Render()
	}

	if len(ov.RecentLogs) > 0 {
		fmt.Fprintln(w)
		return Logs(w, ov.RecentLogs, opts)
	}
	return nil
}

// BulkResult prints the outcome of a bulk or preset sync.
func BulkResult(w io.Writer, res types.BulkResult, opts RenderOptions) error {
	msg := fmt.Sprintf("Done! %d success, %d errors", res.Success, res.Errors)
	if res.Preset != "" {
		msg = res.Preset + ": " + msg
	}
	if opts.Color && res.Errors > 0 {
		msg = text.Colors{text.FgYellow}.Sprint(msg)
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}

// Progress prints a transient bulk progress message, if any.
func Progress(w io.Writer, msg string) error {
	if msg == "" {
		return nil
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}
