package pipeline

import (
	"context"
	"io"

	"github.com/cubetrade/cube/pkg/cube/columns"
	"github.com/cubetrade/cube/pkg/cube/filter"
	"github.com/cubetrade/cube/pkg/cube/render"
	"github.com/cubetrade/cube/pkg/cube/state"
)

// Runner turns a state snapshot into rendered output.
type Runner struct {
	Renderer render.Renderer
	Writer   io.Writer
	Services columns.Services
}

type ExecuteOptions struct {
	Columns     []string
	Filter      filter.Filter
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
}

// Build filters the snapshot's already sorted rows and resolves every cell.
func (r *Runner) Build(ctx context.Context, snap state.Snapshot, opts ExecuteOptions) (render.Table, error) {
	cols := columns.Compute(opts.Columns)
	if err := columns.Validate(cols); err != nil {
		return render.Table{}, err
	}
	recs := filter.Records(snap.Tickers, opts.Filter)

	t := render.Table{
		Columns: cols,
		Rows:    make([]columns.Row, 0, len(recs)),
		Cells:   make([][]string, 0, len(recs)),
		Sort:    snap.Sort,
	}
	for _, rec := range recs {
		row := columns.Row{Record: rec, Status: snap.Status[rec.Ticker]}
		cells := make([]string, len(cols))
		for i, c := range cols {
			v, err := columns.RenderValue(ctx, c, row, r.Services)
			if err != nil {
				return render.Table{}, err
			}
			cells[i] = v
		}
		t.Rows = append(t.Rows, row)
		t.Cells = append(t.Cells, cells)
	}
	return t, nil
}

// Execute builds the table and renders it.
func (r *Runner) Execute(ctx context.Context, snap state.Snapshot, opts ExecuteOptions) error {
	t, err := r.Build(ctx, snap, opts)
	if err != nil {
		return err
	}
	return r.Renderer.Render(r.Writer, t, render.RenderOptions{
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
	})
}
