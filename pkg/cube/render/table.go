package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cubetrade/cube/pkg/cube/columns"
	"github.com/cubetrade/cube/pkg/cube/state"
)

type TableRenderer struct{}

func NewTableRenderer() *TableRenderer { return &TableRenderer{} }

func (r *TableRenderer) Render(w io.Writer, t Table, opts RenderOptions) error {
	if len(t.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No tickers synced yet.")
		return err
	}

	tw := newWriter(w, opts)
	tw.AppendHeader(header(t.Columns, t.Sort))

	mw := maxWidth(opts)
	cfgs := make([]table.ColumnConfig, 0, len(t.Columns))
	for i, c := range t.Columns {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: mw}
		switch c {
		case "price", "mcap", "points", "size", "quote", "chg%":
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	for ri, cells := range t.Cells {
		row := make(table.Row, len(cells))
		for i, v := range cells {
			row[i] = v
			if opts.Color {
				row[i] = colorize(t.Columns[i], v, t.Rows[ri])
			}
		}
		tw.AppendRow(row)
	}
	tw.AppendFooter(footer(t))
	tw.Render()
	return nil
}

// header uppercases column keys and marks the sorted column.
func header(cols []string, s state.SortState) table.Row {
	hdr := make(table.Row, len(cols))
	for i, c := range cols {
		h := strings.ToUpper(c)
		if f, ok := columns.SortFieldFor(c); ok && f == s.Field {
			if s.Dir == state.Asc {
				h += " ▲"
			} else {
				h += " ▼"
			}
		}
		hdr[i] = h
	}
	return hdr
}

func footer(t Table) table.Row {
	f := make(table.Row, len(t.Columns))
	if len(f) > 0 {
		f[0] = fmt.Sprintf("%d tickers", len(t.Rows))
	}
	return f
}

func colorize(col, v string, r columns.Row) string {
	switch col {
	case "status":
		switch r.Status {
		case state.Failed:
			return text.Colors{text.FgRed}.Sprint(v)
		case state.Syncing:
			return text.Colors{text.FgYellow}.Sprint(v)
		case state.Synced:
			return text.Colors{text.FgGreen}.Sprint(v)
		}
	case "chg%":
		if strings.HasPrefix(v, "-") {
			return text.Colors{text.FgRed}.Sprint(v)
		} else if v != "" && strings.Trim(v, "0.%") != "" {
			return text.Colors{text.FgGreen}.Sprint(v)
		}
	case "ticker":
		return text.Bold.Sprint(v)
	}
	return v
}
