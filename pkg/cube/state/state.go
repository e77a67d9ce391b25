// Package state holds the client-side state of the admin data page: the
// synced-ticker table, per-ticker sync status, the global bulk slot, the
// current search session and the selected detail record.
//
// A State is safe for concurrent use. It performs no I/O; the session package
// drives it from network results.
package state

import (
	"sort"
	"sync"

	"github.com/cubetrade/cube/pkg/cube/types"
)

// TickerStatus is the sync status of one ticker.
type TickerStatus string

const (
	Idle    TickerStatus = "idle"
	Syncing TickerStatus = "syncing"
	Synced  TickerStatus = "synced"
	Failed  TickerStatus = "failed"
)

// State is the explicit state container owned by one admin session.
type State struct {
	mu sync.RWMutex

	records map[string]types.TickerRecord
	loaded  bool
	status  map[string]TickerStatus

	bulk     *types.SyncOperation
	progress string

	search   []types.SearchResult
	presets  map[string]types.Preset
	selected string
	detail   *types.TickerDetail
	sort     SortState
	logs     []types.LogEntry
}

// New returns an empty state sorted by DefaultSort.
func New() *State {
	return &State{
		records: map[string]types.TickerRecord{},
		status:  map[string]TickerStatus{},
		presets: map[string]types.Preset{},
		sort:    DefaultSort,
	}
}

// ReplaceAll swaps the whole synced table for recs. There is no merge: the
// last full fetch is the truth.
func (s *State) ReplaceAll(recs []types.TickerRecord) {
	m := make(map[string]types.TickerRecord, len(recs))
	for _, r := range recs {
		m[r.Ticker] = r
	}
	s.mu.Lock()
	s.records = m
	s.loaded = true
	s.mu.Unlock()
}

// Upsert replaces one record wholesale. Used for the optimistic patch after a
// single sync, before the authoritative refresh lands.
func (s *State) Upsert(rec types.TickerRecord) {
	s.mu.Lock()
	s.records[rec.Ticker] = rec
	s.mu.Unlock()
}

// Evict removes ticker from the table and, in the same step, clears the
// selection if ticker was selected. It reports whether the selection was
// cleared.
func (s *State) Evict(ticker string) (clearedSelection bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, ticker)
	delete(s.status, ticker)
	if s.selected == ticker {
		s.selected = ""
		s.detail = nil
		return true
	}
	return false
}

// Record returns the cached record of ticker.
func (s *State) Record(ticker string) (types.TickerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[ticker]
	return r, ok
}

// Len is the size of the synced set.
func (s *State) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Loaded reports whether a full status fetch has landed yet.
func (s *State) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Status returns the sync status of ticker; unknown tickers are Idle.
func (s *State) Status(ticker string) TickerStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.status[ticker]; ok {
		return st
	}
	return Idle
}

// CanSync reports whether a sync trigger for ticker should be enabled.
func (s *State) CanSync(ticker string) bool {
	return s.Status(ticker) != Syncing
}

// BeginSync moves ticker to Syncing. It returns false, changing nothing, if
// a sync of ticker is already in flight.
func (s *State) BeginSync(ticker string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status[ticker] == Syncing {
		return false
	}
	s.status[ticker] = Syncing
	return true
}

// FinishSync ends the in-flight sync of ticker as Synced or Failed.
func (s *State) FinishSync(ticker string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status[ticker] = Failed
		return
	}
	s.status[ticker] = Synced
}

// CancelSync drops an in-flight sync of ticker without recording an outcome.
// The ticker goes back to Idle.
func (s *State) CancelSync(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status[ticker] == Syncing {
		delete(s.status, ticker)
	}
}

// Syncing lists tickers with a sync in flight, sorted.
func (s *State) Syncing() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for t, st := range s.status {
		if st == Syncing {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// BeginBulk claims the global bulk/preset slot for op and shows message.
// It returns false if another bulk or preset sync is pending.
func (s *State) BeginBulk(op types.SyncOperation, message string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulk != nil {
		return false
	}
	op.Status = types.OpPending
	s.bulk = &op
	s.progress = message
	return true
}

// FinishBulk releases the bulk slot. The terminal message stays visible until
// ClearProgress; the finished operation is returned and then forgotten.
func (s *State) FinishBulk(status types.OpStatus, success, errors int, message string) types.SyncOperation {
	s.mu.Lock()
	defer s.mu.Unlock()
	var op types.SyncOperation
	if s.bulk != nil {
		op = *s.bulk
	}
	op.Status = status
	op.SuccessCount = success
	op.ErrorCount = errors
	s.bulk = nil
	s.progress = message
	return op
}

// CancelBulk releases the bulk slot and clears its progress message without
// recording an outcome.
func (s *State) CancelBulk() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulk != nil {
		s.bulk = nil
		s.progress = ""
	}
}

// BulkRunning reports whether the bulk slot is taken.
func (s *State) BulkRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bulk != nil
}

// Bulk returns the pending bulk or preset operation, if any.
func (s *State) Bulk() (types.SyncOperation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.bulk == nil {
		return types.SyncOperation{}, false
	}
	return *s.bulk, true
}

// Progress is the current bulk progress message.
func (s *State) Progress() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// ClearProgress drops a terminal progress message. A running operation keeps
// its message.
func (s *State) ClearProgress() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bulk == nil {
		s.progress = ""
	}
}

// SetSearchResults starts a new search session.
func (s *State) SetSearchResults(results []types.SearchResult) {
	s.mu.Lock()
	s.search = append([]types.SearchResult(nil), results...)
	s.mu.Unlock()
}

// SearchResults returns a copy of the current search session.
func (s *State) SearchResults() []types.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.SearchResult(nil), s.search...)
}

// MarkSearchSynced flips AlreadySynced on matching search results without a
// new search round trip.
func (s *State) MarkSearchSynced(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.search {
		if s.search[i].Symbol == symbol {
			s.search[i].AlreadySynced = true
		}
	}
}

// SetPresets stores the preset catalog.
func (s *State) SetPresets(p map[string]types.Preset) {
	m := make(map[string]types.Preset, len(p))
	for k, v := range p {
		m[k] = v
	}
	s.mu.Lock()
	s.presets = m
	s.mu.Unlock()
}

// Presets returns a copy of the preset catalog.
func (s *State) Presets() map[string]types.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := make(map[string]types.Preset, len(s.presets))
	for k, v := range s.presets {
		m[k] = v
	}
	return m
}

// Select makes ticker the detail selection and drops any detail loaded for a
// previous selection.
func (s *State) Select(ticker string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != ticker {
		s.detail = nil
	}
	s.selected = ticker
}

// Selected returns the selected ticker, or "" for none.
func (s *State) Selected() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// SetDetail stores d if ticker is still the selection. A detail response for
// a ticker the user has since moved away from is dropped and false returned.
func (s *State) SetDetail(ticker string, d types.TickerDetail) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected != ticker {
		return false
	}
	s.detail = &d
	return true
}

// Detail returns the loaded detail of the selection.
func (s *State) Detail() (types.TickerDetail, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.detail == nil {
		return types.TickerDetail{}, false
	}
	return *s.detail, true
}

// ClearSelection closes the detail panel.
func (s *State) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.detail = nil
	s.mu.Unlock()
}

// Sort returns the current table sort.
func (s *State) Sort() SortState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sort
}

// SetSort replaces the table sort.
func (s *State) SetSort(st SortState) {
	s.mu.Lock()
	s.sort = st
	s.mu.Unlock()
}

// ClickSort applies a header click and returns the new sort.
func (s *State) ClickSort(field SortField) SortState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = s.sort.Click(field)
	return s.sort
}

// Sorted returns the table under the current sort.
func (s *State) Sorted() []types.TickerRecord {
	s.mu.RLock()
	recs := s.recordsLocked()
	st := s.sort
	s.mu.RUnlock()
	return SortTickers(recs, st)
}

// SetLogs stores the latest log fetch; the last response wins.
func (s *State) SetLogs(logs []types.LogEntry) {
	s.mu.Lock()
	s.logs = append([]types.LogEntry(nil), logs...)
	s.mu.Unlock()
}

// Logs returns the latest log fetch.
func (s *State) Logs() []types.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.LogEntry(nil), s.logs...)
}

func (s *State) recordsLocked() []types.TickerRecord {
	out := make([]types.TickerRecord, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	return out
}

// Snapshot is an immutable copy of the state for presentation.
type Snapshot struct {
	Tickers  []types.TickerRecord
	Loaded   bool
	Sort     SortState
	Status   map[string]TickerStatus
	Progress string
	Bulk     *types.SyncOperation
	Search   []types.SearchResult
	Selected string
	Detail   *types.TickerDetail
}

// Snapshot copies the state with the table already sorted.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		Loaded:   s.loaded,
		Sort:     s.sort,
		Status:   make(map[string]TickerStatus, len(s.status)),
		Progress: s.progress,
		Search:   append([]types.SearchResult(nil), s.search...),
		Selected: s.selected,
	}
	recs := s.recordsLocked()
	for k, v := range s.status {
		snap.Status[k] = v
	}
	if s.bulk != nil {
		b := *s.bulk
		snap.Bulk = &b
	}
	if s.detail != nil {
		d := *s.detail
		snap.Detail = &d
	}
	s.mu.RUnlock()
	snap.Tickers = SortTickers(recs, snap.Sort)
	return snap
}
