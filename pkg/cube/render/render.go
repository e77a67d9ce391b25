package render

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cubetrade/cube/pkg/cube/columns"
	"github.com/cubetrade/cube/pkg/cube/state"
)

// Table is the synced-ticker view: rows already filtered and sorted, with
// one resolved cell per column.
type Table struct {
	Columns []string
	Rows    []columns.Row
	Cells   [][]string
	Sort    state.SortState
}

// Renderer renders the synced table to an output writer.
type Renderer interface {
	Render(w io.Writer, t Table, opts RenderOptions) error
}

type RenderOptions struct {
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// ForFormat returns the renderer for an output format name.
func ForFormat(name string) (Renderer, bool) {
	switch name {
	case "", "table":
		return NewTableRenderer(), true
	case "json":
		return NewJSONRenderer(), true
	case "syms":
		return NewSymsRenderer(), true
	}
	return nil, false
}

func newWriter(w io.Writer, opts RenderOptions) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if opts.Color {
		tw.SetStyle(table.StyleColoredDark)
	} else {
		tw.SetStyle(table.StyleDefault)
	}
	tw.Style().Options.DrawBorder = false
	tw.Style().Options.SeparateRows = false
	tw.Style().Options.SeparateColumns = false
	tw.Style().Options.SeparateHeader = !opts.Color
	return tw
}

func maxWidth(opts RenderOptions) int {
	if opts.MaxColWidth <= 0 {
		return 40
	}
	return opts.MaxColWidth
}
