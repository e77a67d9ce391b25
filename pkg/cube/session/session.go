// Package session drives the admin sync workflow: every user action goes to
// the admin API through the client, lands in the state container, and is
// followed by a full status refresh when it changed server data.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cubetrade/cube/pkg/cube/client"
	"github.com/cubetrade/cube/pkg/cube/state"
	"github.com/cubetrade/cube/pkg/cube/types"
)

var (
	// ErrSyncInFlight is returned when a sync of the same ticker is pending.
	// Nothing is sent to the server.
	ErrSyncInFlight = errors.New("sync already in flight")
	// ErrBulkInFlight is returned when another bulk or preset sync is pending.
	ErrBulkInFlight = errors.New("bulk sync already in flight")
	// ErrSuperseded is returned by ViewDetail when the selection moved on
	// before the detail arrived.
	ErrSuperseded = errors.New("selection changed")
	// ErrClosed is returned for responses that arrive after Close.
	ErrClosed = errors.New("session closed")
)

// API is the subset of the admin client the session needs.
type API interface {
	Search(ctx context.Context, query string) ([]types.SearchResult, error)
	SyncOne(ctx context.Context, ticker string) (types.TickerRecord, error)
	SyncBulk(ctx context.Context, tickers []string) (types.BulkResult, error)
	SyncPreset(ctx context.Context, key string) (types.BulkResult, error)
	DeleteTicker(ctx context.Context, ticker string) error
	FetchStatus(ctx context.Context) ([]types.TickerRecord, error)
	FetchDetail(ctx context.Context, ticker string) (types.TickerDetail, error)
	FetchPresets(ctx context.Context) (map[string]types.Preset, error)
	FetchLogs(ctx context.Context, limit int, level string) ([]types.LogEntry, error)
	FetchOverview(ctx context.Context) (types.Overview, error)
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger failures are reported to.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithState makes the session drive an existing state container.
func WithState(st *state.State) Option {
	return func(s *Session) { s.st = st }
}

// Session owns one state container and the workflow around it.
type Session struct {
	api    API
	st     *state.State
	log    zerolog.Logger
	closed atomic.Bool
}

// New returns a session over api with an empty state.
func New(api API, opts ...Option) *Session {
	s := &Session{api: api, log: zerolog.Nop()}
	for _, o := range opts {
		o(s)
	}
	if s.st == nil {
		s.st = state.New()
	}
	return s
}

// State exposes the state container for presentation.
func (s *Session) State() *state.State { return s.st }

// Close tears the session down. Responses arriving later are discarded.
func (s *Session) Close() { s.closed.Store(true) }

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }

// Load fetches the synced table and the preset catalog together.
func (s *Session) Load(ctx context.Context) error {
	var (
		recs    []types.TickerRecord
		presets map[string]types.Preset
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recs, err = s.api.FetchStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		presets, err = s.api.FetchPresets(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.fail("load", "", err)
		return err
	}
	if s.Closed() {
		return ErrClosed
	}
	s.st.ReplaceAll(recs)
	s.st.SetPresets(presets)
	return nil
}

// Refresh replaces the synced table with the server's full status.
func (s *Session) Refresh(ctx context.Context) error {
	recs, err := s.api.FetchStatus(ctx)
	if err != nil {
		s.fail("status", "", err)
		return err
	}
	if s.Closed() {
		return ErrClosed
	}
	s.st.ReplaceAll(recs)
	return nil
}

// Presets refreshes the preset catalog.
func (s *Session) Presets(ctx context.Context) (map[string]types.Preset, error) {
	p, err := s.api.FetchPresets(ctx)
	if err != nil {
		s.fail("presets", "", err)
		return nil, err
	}
	if s.Closed() {
		return nil, ErrClosed
	}
	s.st.SetPresets(p)
	return p, nil
}

// Search looks up candidate symbols. A blank query is a no-op and sends
// nothing.
func (s *Session) Search(ctx context.Context, query string) ([]types.SearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	res, err := s.api.Search(ctx, q)
	if err != nil {
		s.fail("search", "", err)
		return nil, err
	}
	if s.Closed() {
		return nil, ErrClosed
	}
	s.st.SetSearchResults(res)
	return res, nil
}

// SyncOne syncs a single ticker. A second call for a ticker that is still
// syncing returns ErrSyncInFlight without a request. On success the record is
// patched in right away and the table is then refreshed from the server; the
// ticker stays Syncing until that refresh lands. A failed refresh is returned
// but the sync itself stays successful.
func (s *Session) SyncOne(ctx context.Context, ticker string) (types.TickerRecord, error) {
	t := state.NormalizeTicker(ticker)
	if t == "" {
		return types.TickerRecord{}, client.ErrEmptyArgument
	}
	if !s.st.BeginSync(t) {
		return types.TickerRecord{}, ErrSyncInFlight
	}

	rec, err := s.api.SyncOne(ctx, t)
	if s.Closed() {
		s.st.CancelSync(t)
		return types.TickerRecord{}, ErrClosed
	}
	if err != nil {
		s.st.FinishSync(t, err)
		s.fail("sync", t, err)
		return types.TickerRecord{}, err
	}
	if rec.Ticker == "" {
		rec.Ticker = t
	}
	s.st.Upsert(rec)
	s.st.MarkSearchSynced(rec.Ticker)
	s.log.Info().Str("ticker", rec.Ticker).Int("data_points", rec.DataPoints).Msg("synced")

	rerr := s.Refresh(ctx)
	s.st.FinishSync(t, nil)
	if rerr != nil {
		return rec, fmt.Errorf("refresh after sync: %w", rerr)
	}
	return rec, nil
}

// SyncBulk parses free-form input and syncs the tickers in one request. Only
// one bulk or preset sync may run at a time.
func (s *Session) SyncBulk(ctx context.Context, input string) (types.BulkResult, error) {
	tickers := state.ParseTickers(input)
	if len(tickers) == 0 {
		return types.BulkResult{}, client.ErrNoTickers
	}
	if len(tickers) > client.MaxBulkTickers {
		return types.BulkResult{}, fmt.Errorf("%w (got %d)", client.ErrTooManyTickers, len(tickers))
	}

	op := types.SyncOperation{Kind: types.OpBulk, Tickers: tickers}
	if !s.st.BeginBulk(op, fmt.Sprintf("Syncing %d tickers...", len(tickers))) {
		return types.BulkResult{}, ErrBulkInFlight
	}
	res, err := s.api.SyncBulk(ctx, tickers)
	return s.finishBulk(ctx, "bulk", "", res, err, "Bulk sync failed")
}

// SyncPreset syncs every ticker of a server-defined preset.
func (s *Session) SyncPreset(ctx context.Context, key string) (types.BulkResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return types.BulkResult{}, client.ErrEmptyArgument
	}
	op := types.SyncOperation{Kind: types.OpPreset, Target: key}
	if !s.st.BeginBulk(op, fmt.Sprintf("Syncing preset: %s...", key)) {
		return types.BulkResult{}, ErrBulkInFlight
	}
	res, err := s.api.SyncPreset(ctx, key)
	return s.finishBulk(ctx, "preset", key, res, err, "Preset sync failed")
}

// finishBulk records the outcome of a bulk or preset request. The slot stays
// claimed until the follow-up refresh lands.
func (s *Session) finishBulk(ctx context.Context, op, target string, res types.BulkResult, err error, failMsg string) (types.BulkResult, error) {
	if s.Closed() {
		s.st.CancelBulk()
		return types.BulkResult{}, ErrClosed
	}
	if err != nil {
		s.st.FinishBulk(types.OpFailed, 0, 0, failMsg)
		s.fail(op, target, err)
		return types.BulkResult{}, err
	}
	s.log.Info().Str("op", op).Str("target", target).
		Int("total", res.Total).Int("success", res.Success).Int("errors", res.Errors).
		Msg("bulk sync finished")

	rerr := s.Refresh(ctx)
	s.st.FinishBulk(types.OpSucceeded, res.Success, res.Errors,
		fmt.Sprintf("Done! %d success, %d errors", res.Success, res.Errors))
	if rerr != nil {
		return res, fmt.Errorf("refresh after %s sync: %w", op, rerr)
	}
	return res, nil
}

// Delete removes a ticker's cached data. The record leaves the table, the
// detail panel closes if it showed that ticker, and the table is refreshed.
func (s *Session) Delete(ctx context.Context, ticker string) error {
	t := state.NormalizeTicker(ticker)
	if t == "" {
		return client.ErrEmptyArgument
	}
	if err := s.api.DeleteTicker(ctx, t); err != nil {
		s.fail("delete", t, err)
		return err
	}
	if s.Closed() {
		return ErrClosed
	}
	if s.st.Evict(t) {
		s.log.Debug().Str("ticker", t).Msg("selection cleared")
	}
	if err := s.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh after delete: %w", err)
	}
	return nil
}

// ViewDetail selects ticker and loads its detail. If the selection moves on
// before the response arrives the response is dropped and ErrSuperseded
// returned.
func (s *Session) ViewDetail(ctx context.Context, ticker string) (types.TickerDetail, error) {
	t := state.NormalizeTicker(ticker)
	if t == "" {
		return types.TickerDetail{}, client.ErrEmptyArgument
	}
	s.st.Select(t)
	d, err := s.api.FetchDetail(ctx, t)
	if err != nil {
		s.fail("detail", t, err)
		return types.TickerDetail{}, err
	}
	if s.Closed() {
		return types.TickerDetail{}, ErrClosed
	}
	if !s.st.SetDetail(t, d) {
		return types.TickerDetail{}, ErrSuperseded
	}
	return d, nil
}

// Logs fetches recent activity; the latest response replaces the previous
// one.
func (s *Session) Logs(ctx context.Context, limit int, level string) ([]types.LogEntry, error) {
	logs, err := s.api.FetchLogs(ctx, limit, level)
	if err != nil {
		s.fail("logs", "", err)
		return nil, err
	}
	if s.Closed() {
		return nil, ErrClosed
	}
	s.st.SetLogs(logs)
	return logs, nil
}

// Overview fetches the aggregate snapshot. It does not touch the state.
func (s *Session) Overview(ctx context.Context) (types.Overview, error) {
	ov, err := s.api.FetchOverview(ctx)
	if err != nil {
		s.fail("overview", "", err)
		return types.Overview{}, err
	}
	if s.Closed() {
		return types.Overview{}, ErrClosed
	}
	return ov, nil
}

func (s *Session) fail(op, target string, err error) {
	if s.Closed() || errors.Is(err, context.Canceled) {
		return
	}
	ev := s.log.Error().Err(err).Str("op", op)
	if target != "" {
		ev = ev.Str("target", target)
	}
	ev.Msg("operation failed")
}
