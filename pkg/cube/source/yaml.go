package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cubetrade/cube/pkg/cube/state"
)

// YAMLSource loads watchlists from a YAML file or a directory of them.
//
//	watchlist:
//	  - sym: AAPL
//	  - MSFT
//	  - name: Indonesia
//	    watchlist:
//	      - BBCA.JK
//
// Entries are maps with a sym (or ticker) key or bare strings. Named groups
// nest with '/' in the list name.
type YAMLSource struct{}

func (YAMLSource) Load(_ context.Context, path string) ([]Watchlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		lists, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		for i := range lists {
			if strings.TrimSpace(lists[i].Name) == "" {
				lists[i].Name = base
			}
		}
		return lists, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(d.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var all []Watchlist
	for _, full := range files {
		lists, err := loadFile(full)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(path, full)
		if err != nil {
			rel = filepath.Base(full)
		}
		prefix := filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
		for i := range lists {
			if strings.TrimSpace(lists[i].Name) == "" {
				lists[i].Name = prefix
			} else {
				lists[i].Name = prefix + "/" + lists[i].Name
			}
		}
		all = append(all, lists...)
	}
	return all, nil
}

func loadFile(path string) ([]Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lists, err := parseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lists, nil
}

// parseYAML parses one watchlist document into its groups.
func parseYAML(data []byte) ([]Watchlist, error) {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}

	var node any
	switch r := root.(type) {
	case map[string]any:
		n, ok := r["watchlist"]
		if !ok || n == nil {
			return nil, fmt.Errorf("invalid yaml: missing 'watchlist'")
		}
		node = n
	case []any:
		node = r
	default:
		return nil, fmt.Errorf("invalid yaml: expected map with 'watchlist' or a list")
	}

	var lists []Watchlist
	var walk func(node any, path []string)
	walk = func(node any, path []string) {
		entries, ok := node.([]any)
		if !ok {
			entries = []any{node}
		}
		var tickers []string
		for _, e := range entries {
			if t := leafTicker(e); t != "" {
				tickers = append(tickers, t)
			}
		}
		if len(tickers) > 0 {
			lists = append(lists, Watchlist{
				Name:    strings.Join(path, "/"),
				Tickers: state.ParseTickers(strings.Join(tickers, " ")),
			})
		}
		for _, e := range entries {
			g, ok := e.(map[string]any)
			if !ok {
				continue
			}
			child, ok := g["watchlist"]
			if !ok {
				continue
			}
			next := append([]string(nil), path...)
			if name, ok := g["name"].(string); ok && name != "" {
				next = append(next, name)
			}
			walk(child, next)
		}
	}
	walk(node, nil)
	return lists, nil
}

func leafTicker(v any) string {
	switch e := v.(type) {
	case string:
		return strings.TrimSpace(e)
	case map[string]any:
		if _, ok := e["watchlist"]; ok {
			return ""
		}
		for _, k := range []string{"sym", "ticker", "symbol"} {
			if s, ok := e[k]; ok && s != nil {
				return strings.TrimSpace(fmt.Sprint(s))
			}
		}
	}
	return ""
}
