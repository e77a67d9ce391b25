// Package adminfake serves an in-memory imitation of the admin sync API for
// tests. Routes mirror the real service; failures and slow syncs can be
// injected per route.
package adminfake

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// Route names used by Calls, FailRoute and MalformRoute.
const (
	RouteSearch   = "search"
	RouteSync     = "sync"
	RouteBulk     = "bulk"
	RoutePreset   = "preset"
	RouteDelete   = "delete"
	RouteStatus   = "status"
	RouteDetail   = "detail"
	RoutePresets  = "presets"
	RouteLogs     = "logs"
	RouteOverview = "overview"
	RouteTickers  = "tickers"
)

// Server is a fake admin API backed by an httptest.Server.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	records     map[string]types.TickerRecord
	details     map[string]types.TickerDetail
	presets     map[string]types.Preset
	catalog     map[string]types.SearchResult
	logs        []types.LogEntry
	calls       map[string]int
	failures    map[string]int
	malformed   map[string]bool
	failTickers map[string]bool
	bulkResult  map[string]*types.BulkResult
	lastBulk    []string
	gate        chan struct{}
	statusGate  chan struct{}
	now         func() time.Time
}

// New starts a fake admin server. Call Close when done.
func New() *Server {
	s := &Server{
		records:     map[string]types.TickerRecord{},
		details:     map[string]types.TickerDetail{},
		presets:     map[string]types.Preset{},
		catalog:     map[string]types.SearchResult{},
		calls:       map[string]int{},
		failures:    map[string]int{},
		malformed:   map[string]bool{},
		failTickers: map[string]bool{},
		bulkResult:  map[string]*types.BulkResult{},
		now:         time.Now,
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api/admin").Subrouter()
	api.HandleFunc("/search-yf/{query}", s.wrap(RouteSearch, s.handleSearch)).Methods(http.MethodGet)
	api.HandleFunc("/sync/bulk", s.wrap(RouteBulk, s.handleBulk)).Methods(http.MethodPost)
	api.HandleFunc("/sync/preset/{name}", s.wrap(RoutePreset, s.handlePreset)).Methods(http.MethodPost)
	api.HandleFunc("/sync/{ticker}", s.wrap(RouteSync, s.handleSync)).Methods(http.MethodPost)
	api.HandleFunc("/ticker/{ticker}", s.wrap(RouteDelete, s.handleDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/ticker/{ticker}", s.wrap(RouteDetail, s.handleDetail)).Methods(http.MethodGet)
	api.HandleFunc("/status", s.wrap(RouteStatus, s.handleStatus)).Methods(http.MethodGet)
	api.HandleFunc("/presets", s.wrap(RoutePresets, s.handlePresets)).Methods(http.MethodGet)
	api.HandleFunc("/logs", s.wrap(RouteLogs, s.handleLogs)).Methods(http.MethodGet)
	api.HandleFunc("/overview", s.wrap(RouteOverview, s.handleOverview)).Methods(http.MethodGet)
	api.HandleFunc("/tickers", s.wrap(RouteTickers, s.handleTickers)).Methods(http.MethodGet)

	s.srv = httptest.NewServer(r)
	return s
}

// URL is the admin API root to hand to client.New.
func (s *Server) URL() string { return s.srv.URL + "/api/admin" }

// Close shuts the server down and releases any held requests.
func (s *Server) Close() {
	s.mu.Lock()
	for _, g := range []*chan struct{}{&s.gate, &s.statusGate} {
		if *g != nil {
			close(*g)
			*g = nil
		}
	}
	s.mu.Unlock()
	s.srv.Close()
}

// Calls returns how many requests hit route.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// Seed stores records as if they had been synced.
func (s *Server) Seed(recs ...types.TickerRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range recs {
		s.records[r.Ticker] = r
	}
}

// SetDetail overrides the detail payload for a ticker.
func (s *Server) SetDetail(d types.TickerDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[d.Ticker] = d
}

// Records returns the stored records sorted by ticker.
func (s *Server) Records() []types.TickerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.TickerRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

// AddPreset registers a preset under key.
func (s *Server) AddPreset(key string, tickers ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presets[key] = types.Preset{
		Name:    presetName(key),
		Tickers: tickers,
		Count:   len(tickers),
	}
}

// SetBulkResult makes bulk (key "") or preset syncs report res instead of the
// computed counts.
func (s *Server) SetBulkResult(key string, res types.BulkResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bulkResult[key] = &res
}

// LastBulk returns the tickers of the most recent bulk request.
func (s *Server) LastBulk() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lastBulk...)
}

// AddSearchResult makes a symbol discoverable by search.
func (s *Server) AddSearchResult(r types.SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[r.Symbol] = r
}

// AddLog prepends a log entry, newest first like the real service.
func (s *Server) AddLog(e types.LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append([]types.LogEntry{e}, s.logs...)
}

// FailRoute makes route answer with status until cleared with status 0.
func (s *Server) FailRoute(route string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, route)
		return
	}
	s.failures[route] = status
}

// MalformRoute makes route answer 200 with a body that is not JSON.
func (s *Server) MalformRoute(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.malformed[route] = true
}

// FailTicker makes every sync of ticker fail upstream.
func (s *Server) FailTicker(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failTickers[strings.ToUpper(ticker)] = true
}

// HoldSyncs blocks single, bulk and preset syncs until the returned release
// is called.
func (s *Server) HoldSyncs() (release func()) { return s.hold(&s.gate) }

// HoldStatus blocks GET /status until the returned release is called.
func (s *Server) HoldStatus() (release func()) { return s.hold(&s.statusGate) }

func (s *Server) hold(slot *chan struct{}) func() {
	s.mu.Lock()
	gate := make(chan struct{})
	*slot = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if *slot == gate {
				close(gate)
				*slot = nil
			}
			s.mu.Unlock()
		})
	}
}

// wait blocks on the gate in slot, if any. It reports false when the request
// went away first.
func (s *Server) wait(slot *chan struct{}, r *http.Request) bool {
	s.mu.Lock()
	gate := *slot
	s.mu.Unlock()
	if gate == nil {
		return true
	}
	select {
	case <-gate:
		return true
	case <-r.Context().Done():
		return false
	}
}

func (s *Server) wrap(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		status := s.failures[route]
		bad := s.malformed[route]
		s.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]string{"detail": route + " failed"})
			return
		}
		if bad {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("{not json"))
			return
		}
		h(w, r)
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToUpper(mux.Vars(r)["query"])
	s.mu.Lock()
	results := []types.SearchResult{}
	if res, ok := s.catalog[q]; ok {
		_, synced := s.records[q]
		res.AlreadySynced = synced
		results = append(results, res)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"query": q, "results": results, "total": len(results)})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])

	if !s.wait(&s.gate, r) {
		return
	}

	rec, ok := s.syncTicker(ticker)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "Sync failed"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tickers []string `json:"tickers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Tickers) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "No tickers provided"})
		return
	}
	s.mu.Lock()
	s.lastBulk = append([]string(nil), req.Tickers...)
	s.mu.Unlock()
	if !s.wait(&s.gate, r) {
		return
	}
	writeJSON(w, http.StatusOK, s.syncAll("", req.Tickers))
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if !s.wait(&s.gate, r) {
		return
	}
	s.mu.Lock()
	p, ok := s.presets[name]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Preset '" + name + "' not found"})
		return
	}
	res := s.syncAll(name, p.Tickers)
	res.Preset = name
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	s.mu.Lock()
	_, ok := s.records[ticker]
	delete(s.records, ticker)
	delete(s.details, ticker)
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Ticker " + ticker + " not found in database"})
		return
	}
	s.log(types.LevelInfo, "Deleted data for "+ticker, ticker)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully deleted " + ticker, "ticker": ticker})
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(mux.Vars(r)["ticker"])
	s.mu.Lock()
	rec, ok := s.records[ticker]
	d, hasDetail := s.details[ticker]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "No synced data found for " + ticker})
		return
	}
	if !hasDetail {
		d = types.TickerDetail{
			Ticker:       rec.Ticker,
			Company:      types.Company{Name: rec.Name, Sector: rec.Sector, Industry: "Unknown"},
			Stats:        types.Stats{{Key: "market_cap", Value: types.NumberStat(rec.MarketCap)}},
			CurrentPrice: rec.CurrentPrice,
			DataPoints:   rec.DataPoints,
			SyncedAt:     rec.SyncedAt,
		}
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !s.wait(&s.statusGate, r) {
		return
	}
	recs := s.Records()
	writeJSON(w, http.StatusOK, map[string]any{"tickers": recs, "total": len(recs)})
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make(map[string]types.Preset, len(s.presets))
	for k, v := range s.presets {
		out[k] = v
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"presets": out})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "invalid limit"})
			return
		}
		limit = n
	}
	level := r.URL.Query().Get("level")
	s.mu.Lock()
	out := []types.LogEntry{}
	for _, e := range s.logs {
		if level != "" && e.Level != level {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"logs": out, "total": len(out)})
}

func (s *Server) handleOverview(w http.ResponseWriter, _ *http.Request) {
	recs := s.Records()
	ov := types.Overview{Sectors: map[string]int{}}
	for _, r := range recs {
		ov.TotalTickers++
		ov.TotalDataPoints += r.DataPoints
		ov.TotalMarketCap += r.MarketCap
		ov.TotalDBSizeBytes += r.FileSizeBytes
		if r.SyncedAt > ov.LastSync {
			ov.LastSync = r.SyncedAt
		}
		sector := r.Sector
		if sector == "" {
			sector = "Unknown"
		}
		ov.Sectors[sector]++
	}
	ov.TotalDBSizeMB = float64(ov.TotalDBSizeBytes) / (1024 * 1024)
	s.mu.Lock()
	n := len(s.logs)
	if n > 10 {
		n = 10
	}
	ov.RecentLogs = append([]types.LogEntry{}, s.logs[:n]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleTickers(w http.ResponseWriter, _ *http.Request) {
	recs := s.Records()
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Ticker)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickers": out, "total": len(out)})
}

func (s *Server) syncAll(key string, tickers []string) types.BulkResult {
	res := types.BulkResult{Total: len(tickers)}
	for _, t := range tickers {
		if _, ok := s.syncTicker(strings.ToUpper(t)); ok {
			res.Success++
		} else {
			res.Errors++
		}
	}
	s.mu.Lock()
	override := s.bulkResult[key]
	s.mu.Unlock()
	if override != nil {
		return *override
	}
	return res
}

func (s *Server) syncTicker(ticker string) (types.TickerRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failTickers[ticker] {
		s.logLocked(types.LevelError, "Failed to sync "+ticker, ticker)
		return types.TickerRecord{}, false
	}
	rec, ok := s.records[ticker]
	if !ok {
		price := 100.0
		rec = types.TickerRecord{
			Ticker:        ticker,
			Name:          ticker + " Inc.",
			Sector:        "Technology",
			CurrentPrice:  &price,
			MarketCap:     1e9,
			FileSizeBytes: 40_000,
		}
		if c, ok := s.catalog[ticker]; ok {
			rec.Name = c.Name
			if c.Sector != "" {
				rec.Sector = c.Sector
			}
		}
	}
	rec.DataPoints = 251
	rec.SyncedAt = s.now().Format("2006-01-02T15:04:05.000000")
	s.records[ticker] = rec
	s.logLocked(types.LevelInfo, "Successfully synced "+ticker, ticker)
	return rec, true
}

func (s *Server) log(level, msg, ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logLocked(level, msg, ticker)
}

func (s *Server) logLocked(level, msg, ticker string) {
	e := types.LogEntry{Timestamp: s.now().Format(time.RFC3339), Level: level, Message: msg, Ticker: ticker}
	s.logs = append([]types.LogEntry{e}, s.logs...)
	if len(s.logs) > 200 {
		s.logs = s.logs[:200]
	}
}

// presetName turns "us_tech" into "Us Tech" the way the service labels presets.
func presetName(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
