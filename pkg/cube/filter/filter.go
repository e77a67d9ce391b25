package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// Filter matches a single string value.
type Filter interface {
	Match(value string) bool
}

// Parse builds a filter from an expression:
// - Comma-separated exact values: "AAPL,MSFT"
// - Glob: "BB*.JK"
// - Regex: "/^US-/"
// - Anything else: case-insensitive substring
//
// Exact and glob matching ignore case, since tickers are stored uppercase and
// sectors in title case.
func Parse(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Always(true), nil
	}
	if strings.HasPrefix(expr, "/") && strings.HasSuffix(expr, "/") && len(expr) > 2 {
		re, err := regexp.Compile(expr[1 : len(expr)-1])
		if err != nil {
			return nil, err
		}
		return Regex{re: re}, nil
	}
	if strings.Contains(expr, ",") {
		set := map[string]struct{}{}
		for _, p := range strings.Split(expr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			set[strings.ToUpper(p)] = struct{}{}
		}
		return ExactSet{set: set}, nil
	}
	if strings.ContainsAny(expr, "*?") {
		if _, err := filepath.Match(expr, ""); err != nil {
			return nil, fmt.Errorf("bad glob %q: %w", expr, err)
		}
		return Glob{pattern: strings.ToUpper(expr)}, nil
	}
	return SubstrCI{needle: expr}, nil
}

// Records keeps the records whose ticker, name or sector matches f.
func Records(recs []types.TickerRecord, f Filter) []types.TickerRecord {
	if f == nil {
		return recs
	}
	out := make([]types.TickerRecord, 0, len(recs))
	for _, r := range recs {
		if f.Match(r.Ticker) || (r.Name != "" && f.Match(r.Name)) || (r.Sector != "" && f.Match(r.Sector)) {
			out = append(out, r)
		}
	}
	return out
}

// Implementations

type Always bool

func (a Always) Match(string) bool { return bool(a) }

type ExactSet struct{ set map[string]struct{} }

func (e ExactSet) Match(value string) bool {
	_, ok := e.set[strings.ToUpper(value)]
	return ok
}

type Glob struct{ pattern string }

func (g Glob) Match(value string) bool {
	ok, _ := filepath.Match(g.pattern, strings.ToUpper(value))
	return ok
}

type Regex struct{ re *regexp.Regexp }

func (r Regex) Match(value string) bool { return r.re.MatchString(value) }

func (g Glob) String() string  { return fmt.Sprintf("glob:%s", g.pattern) }
func (r Regex) String() string { return fmt.Sprintf("regex:%s", r.re) }

// SubstrCI matches if value contains needle, case-insensitively.
type SubstrCI struct{ needle string }

func (s SubstrCI) Match(value string) bool {
	if s.needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(s.needle))
}

func (s SubstrCI) String() string { return fmt.Sprintf("substr-ci:%s", s.needle) }
