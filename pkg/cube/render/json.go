package render

import (
	"encoding/json"
	"io"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// jsonModel is the output shape for JSONRenderer.
type jsonModel struct {
	Sort    string     `json:"sort"`
	Columns []string   `json:"columns"`
	Tickers []jsonItem `json:"tickers"`
}

type jsonItem struct {
	types.TickerRecord
	Status string            `json:"status,omitempty"`
	Cells  map[string]string `json:"cells"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, t Table, opts RenderOptions) error {
	out := jsonModel{Sort: t.Sort.String(), Columns: t.Columns, Tickers: make([]jsonItem, 0, len(t.Rows))}
	for i, row := range t.Rows {
		cells := make(map[string]string, len(t.Columns))
		for j, c := range t.Columns {
			cells[c] = t.Cells[i][j]
		}
		out.Tickers = append(out.Tickers, jsonItem{TickerRecord: row.Record, Status: string(row.Status), Cells: cells})
	}
	return writeJSON(w, out, opts.PrettyJSON)
}

// WriteJSON encodes any panel payload the same way the table JSON is written.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	return writeJSON(w, v, pretty)
}

func writeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
