package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cubetrade/cube/pkg/cube/client"
	"github.com/cubetrade/cube/pkg/cube/config"
	"github.com/cubetrade/cube/pkg/cube/logger"
	"github.com/cubetrade/cube/pkg/cube/render"
	"github.com/cubetrade/cube/pkg/cube/session"
)

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	log    zerolog.Logger
	client *client.Client
	sess   *session.Session
	out    io.Writer
}

func (a *app) renderOptions(ncols int, pretty bool) render.RenderOptions {
	return render.RenderOptions{
		Color:       a.cfg.Output.Color,
		PrettyJSON:  pretty,
		MaxColWidth: maxColWidth(a.cfg.Output.MaxColWidth, ncols),
	}
}

// maxColWidth keeps the configured width, or splits the terminal width
// between columns when none is set.
func maxColWidth(configured, ncols int) int {
	if configured > 0 {
		return configured
	}
	tw := detectTerminalWidth()
	if tw <= 0 || ncols <= 0 {
		return 0
	}
	w := tw / ncols
	if w < 12 {
		w = 12
	}
	if w > 60 {
		w = 60
	}
	return w
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	var cfgPath string

	root := &cobra.Command{
		Use:           "cube",
		Short:         "Sync and inspect cached market data on the Cube Trade admin service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.New(cfgPath)
			if err != nil {
				return err
			}
			for key, flag := range map[string]string{
				"api.base_url":         "base-url",
				"api.timeout":          "timeout",
				"log.level":            "log-level",
				"log.format":           "log-format",
				"output.max_col_width": "max-col-width",
			} {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				v.Set("output.color", false)
			}

			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.log, err = logger.New(logger.Config{
				Level:   cfg.Log.Level,
				Format:  cfg.Log.Format,
				NoColor: !cfg.Output.Color,
			})
			if err != nil {
				return err
			}
			a.client = client.New(cfg.API.BaseURL, client.WithTimeout(cfg.API.Timeout))
			a.sess = session.New(a.client, session.WithLogger(a.log))
			a.log.Debug().Str("base_url", cfg.API.BaseURL).Msg("configured")
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.sess != nil {
				a.sess.Close()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgPath, "config", "", "config file (yaml)")
	pf.String("base-url", client.DefaultBaseURL, "admin API root")
	pf.Duration("timeout", 0, "per-request timeout (default 30s)")
	pf.String("log-level", "info", "diagnostic log level (debug, info, warn, error)")
	pf.String("log-format", "console", "diagnostic log format (console, json)")
	pf.Int("max-col-width", 0, "max table column width (0 = fit terminal)")
	pf.Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newStatusCmd(a),
		newSearchCmd(a),
		newSyncCmd(a),
		newPresetsCmd(a),
		newDeleteCmd(a),
		newDetailCmd(a),
		newLogsCmd(a),
		newOverviewCmd(a),
		newTickersCmd(a),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
