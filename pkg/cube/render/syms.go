package render

import (
	"fmt"
	"io"
	"strings"
)

// symsRenderer prints all tickers in a single comma-separated line, ready to
// paste into a bulk sync.
type symsRenderer struct{}

func NewSymsRenderer() Renderer {
	return symsRenderer{}
}

func (symsRenderer) Render(w io.Writer, t Table, _ RenderOptions) error {
	symbols := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		if s := strings.TrimSpace(r.Record.Ticker); s != "" {
			symbols = append(symbols, s)
		}
	}
	_, err := fmt.Fprintln(w, strings.Join(symbols, ","))
	return err
}
