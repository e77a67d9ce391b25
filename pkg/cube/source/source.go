// Package source reads ticker lists from files for bulk syncs: YAML
// watchlists with nested groups, or plain text with one or more tickers per
// line.
package source

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/cubetrade/cube/pkg/cube/state"
)

// Watchlist is a named group of tickers.
type Watchlist struct {
	Name    string
	Tickers []string
}

// Source loads watchlists from a path.
type Source interface {
	Load(ctx context.Context, path string) ([]Watchlist, error)
}

// ForPath picks the source by file extension. Directories and .yaml/.yml
// files are YAML; everything else is text.
func ForPath(path string, isDir bool) Source {
	if isDir {
		return YAMLSource{}
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAMLSource{}
	}
	return TextSource{}
}

// Tickers flattens lists into one normalized ticker list, keeping first
// appearance order.
func Tickers(lists []Watchlist) []string {
	var all []string
	for _, l := range lists {
		all = append(all, l.Tickers...)
	}
	return state.ParseTickers(strings.Join(all, " "))
}
