package source

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cubetrade/cube/pkg/cube/state"
)

// TextSource reads a plain ticker list. Tickers may be separated by commas,
// spaces or newlines; text after '#' on a line is ignored.
type TextSource struct{}

func (TextSource) Load(_ context.Context, path string) ([]Watchlist, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var b strings.Builder
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []Watchlist{{Name: name, Tickers: state.ParseTickers(b.String())}}, nil
}
