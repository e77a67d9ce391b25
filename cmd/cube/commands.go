package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cubetrade/cube/pkg/cube/columns"
	"github.com/cubetrade/cube/pkg/cube/enrich"
	"github.com/cubetrade/cube/pkg/cube/filter"
	"github.com/cubetrade/cube/pkg/cube/pipeline"
	"github.com/cubetrade/cube/pkg/cube/poll"
	"github.com/cubetrade/cube/pkg/cube/render"
	"github.com/cubetrade/cube/pkg/cube/source"
	"github.com/cubetrade/cube/pkg/cube/state"
	"github.com/cubetrade/cube/pkg/cube/types"
)

// quoteCacheTTL bounds how stale a live quote may be within one run.
const quoteCacheTTL = time.Minute

func (a *app) quotes() enrich.QuoteService {
	return enrich.NewCacheService(enrich.NewYFService(a.cfg.API.Timeout), quoteCacheTTL, 256)
}

func newStatusCmd(a *app) *cobra.Command {
	var (
		cols    []string
		sets    []string
		filt    string
		clicks  []string
		outFmt  string
		pretty  bool
		showLog bool
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show synced tickers",
		Long: "Show every synced ticker. --sort may be repeated: each value acts like a header click,\n" +
			"so \"--sort mcap --sort mcap\" sorts by market cap ascending.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			r, ok := render.ForFormat(outFmt)
			if !ok {
				return fmt.Errorf("unknown format %q (want table, json or syms)", outFmt)
			}
			if len(sets) > 0 {
				expanded, err := columns.ExpandSets(sets)
				if err != nil {
					return err
				}
				cols = append(cols, expanded...)
			}
			f, err := filter.Parse(filt)
			if err != nil {
				return fmt.Errorf("filter: %w", err)
			}
			for _, c := range clicks {
				field, err := state.ParseSortField(c)
				if err != nil {
					return err
				}
				a.sess.State().ClickSort(field)
			}

			if err := a.sess.Refresh(ctx); err != nil {
				return err
			}
			computed := columns.Compute(cols)
			runner := &pipeline.Runner{Renderer: r, Writer: a.out}
			if columns.NeedsQuotes(computed) {
				runner.Services.Quotes = a.quotes()
			}
			ro := a.renderOptions(len(computed), pretty)
			if err := runner.Execute(ctx, a.sess.State().Snapshot(), pipeline.ExecuteOptions{
				Columns:     computed,
				Filter:      f,
				Color:       ro.Color,
				PrettyJSON:  pretty,
				MaxColWidth: ro.MaxColWidth,
			}); err != nil {
				return err
			}
			if showLog && outFmt == "table" {
				logs, err := a.sess.Logs(ctx, 10, "")
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out)
				return render.Logs(a.out, logs, ro)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&cols, "columns", "c", nil, "columns to show: "+strings.Join(columns.Default, ","))
	cmd.Flags().StringSliceVar(&sets, "set", nil, "column sets to add (default, compact, storage, live, sync)")
	cmd.Flags().StringVarP(&filt, "filter", "f", "", "filter by ticker, name or sector: list, glob, /regex/ or substring")
	cmd.Flags().StringSliceVarP(&clicks, "sort", "s", nil, "header click on ticker, synced or mcap (repeatable)")
	cmd.Flags().StringVarP(&outFmt, "format", "o", "table", "output format: table, json or syms")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent json output")
	cmd.Flags().BoolVar(&showLog, "with-logs", false, "append the 10 most recent log entries")
	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search symbols on the upstream provider",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.sess.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				if res == nil {
					res = []types.SearchResult{}
				}
				return render.WriteJSON(a.out, res, true)
			}
			return render.SearchResults(a.out, res, a.renderOptions(6, false))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	var parallel int
	cmd := &cobra.Command{
		Use:   "sync <ticker>...",
		Short: "Sync one or more tickers, one request each",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tickers := state.ParseTickers(strings.Join(args, " "))
			if len(tickers) == 0 {
				return errors.New("no tickers given")
			}
			var (
				mu     sync.Mutex
				failed int
			)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(1, parallel))
			for _, t := range tickers {
				t := t
				g.Go(func() error {
					rec, err := a.sess.SyncOne(ctx, t)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil:
						fmt.Fprintf(a.out, "%-10s synced  %d points\n", t, rec.DataPoints)
					case rec.Ticker != "":
						// synced, but the follow-up refresh failed
						fmt.Fprintf(a.out, "%-10s synced  (refresh failed: %v)\n", t, err)
					default:
						failed++
						fmt.Fprintf(a.out, "%-10s failed  %v\n", t, err)
					}
					return nil
				})
			}
			_ = g.Wait()
			if failed > 0 {
				return fmt.Errorf("%d of %d syncs failed", failed, len(tickers))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&parallel, "parallel", "p", 4, "concurrent sync requests")
	cmd.AddCommand(newSyncBulkCmd(a), newSyncPresetCmd(a))
	return cmd
}

func newSyncBulkCmd(a *app) *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "bulk [tickers...]",
		Short: "Sync many tickers in one request",
		Long: "Sync up to 50 tickers in one request. Tickers come from the arguments (comma or space\n" +
			"separated) and from --file, which accepts YAML watchlists, directories of them, or text.",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			for _, path := range files {
				lists, err := loadLists(cmd.Context(), path)
				if err != nil {
					return err
				}
				input += " " + strings.Join(source.Tickers(lists), " ")
			}
			n := len(state.ParseTickers(input))
			if n > 0 {
				fmt.Fprintf(a.out, "Syncing %d tickers...\n", n)
			}
			res, err := a.sess.SyncBulk(cmd.Context(), input)
			return a.reportBulk(res, err)
		},
	}
	cmd.Flags().StringSliceVar(&files, "file", nil, "read tickers from a yaml/text file or directory (repeatable)")
	return cmd
}

func loadLists(ctx context.Context, path string) ([]source.Watchlist, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return source.ForPath(path, info.IsDir()).Load(ctx, path)
}

func newSyncPresetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "preset <key>",
		Short: "Sync every ticker of a server preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(a.out, "Syncing preset: %s...\n", args[0])
			res, err := a.sess.SyncPreset(cmd.Context(), args[0])
			return a.reportBulk(res, err)
		},
	}
}

func (a *app) reportBulk(res types.BulkResult, err error) error {
	if err != nil && res.Total == 0 && res.Success == 0 {
		if msg := a.sess.State().Progress(); msg != "" {
			fmt.Fprintln(a.out, msg)
		}
		return err
	}
	if rerr := render.BulkResult(a.out, res, a.renderOptions(1, false)); rerr != nil {
		return rerr
	}
	return err
}

func newPresetsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List server presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.sess.Presets(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return render.WriteJSON(a.out, p, true)
			}
			return render.Presets(a.out, p, a.renderOptions(4, false))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ticker>...",
		Short: "Delete cached data for tickers",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, t := range state.ParseTickers(strings.Join(args, " ")) {
				if err := a.sess.Delete(cmd.Context(), t); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", t, err))
					continue
				}
				fmt.Fprintf(a.out, "Deleted %s\n", t)
			}
			return errors.Join(errs...)
		},
	}
}

func newDetailCmd(a *app) *cobra.Command {
	var (
		live   bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "detail <ticker>",
		Short: "Show company info and stats for a synced ticker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.sess.ViewDetail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return render.WriteJSON(a.out, d, true)
			}
			var q *types.Quote
			if live {
				lq, err := a.quotes().Get(cmd.Context(), d.Ticker)
				if err != nil {
					a.log.Warn().Err(err).Str("ticker", d.Ticker).Msg("live quote unavailable")
				} else {
					q = &lq
				}
			}
			return render.Detail(a.out, d, q, a.renderOptions(2, false))
		},
	}
	cmd.Flags().BoolVar(&live, "live", false, "show a live quote beside the cached price")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

func newLogsCmd(a *app) *cobra.Command {
	var (
		limit  int
		level  string
		follow bool
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent sync activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit == 0 {
				limit = a.cfg.Logs.Limit
			}
			if level == "" {
				level = a.cfg.Logs.Level
			}
			ro := a.renderOptions(4, false)
			if !follow {
				logs, err := a.sess.Logs(cmd.Context(), limit, level)
				if err != nil {
					return err
				}
				return render.Logs(a.out, logs, ro)
			}

			ctx := cmd.Context()
			var mu sync.Mutex
			p := poll.New(
				func(ctx context.Context) ([]types.LogEntry, error) { return a.sess.Logs(ctx, limit, level) },
				func(logs []types.LogEntry) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(a.out, "\n%s\n", time.Now().Format(time.TimeOnly))
					_ = render.Logs(a.out, logs, ro)
				},
				poll.WithInterval(a.cfg.Logs.Interval),
				poll.WithLogger(a.log),
			)
			p.Start(ctx)
			<-ctx.Done()
			p.Stop()
			a.sess.Close()
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "entries to fetch, 1-200 (default from config, 100)")
	cmd.Flags().StringVarP(&level, "level", "l", "", "only info, warn or error")
	cmd.Flags().BoolVarP(&follow, "follow", "F", false, "refresh on an interval until interrupted")
	return cmd
}

func newOverviewCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show totals, sectors and recent activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ov, err := a.sess.Overview(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return render.WriteJSON(a.out, ov, true)
			}
			return render.Overview(a.out, ov, a.renderOptions(3, false))
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print json")
	return cmd
}

func newTickersCmd(a *app) *cobra.Command {
	var sep string
	cmd := &cobra.Command{
		Use:   "tickers",
		Short: "List synced ticker symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ts, err := a.client.ListTickers(cmd.Context())
			if err != nil {
				return err
			}
			if len(ts) == 0 {
				return nil
			}
			_, err = fmt.Fprintln(a.out, strings.Join(ts, sep))
			return err
		},
	}
	cmd.Flags().StringVar(&sep, "sep", "\n", "separator between symbols")
	return cmd
}
