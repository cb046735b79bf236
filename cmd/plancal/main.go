package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/agenda"
	"plancal/internal/calendar"
	"plancal/internal/config"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/source"
	"plancal/internal/syntax"
	"plancal/internal/web"
)

var version = "0.1.0"

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	configPath string
	files      []string
	timezone   string
	logLevel   string
	today      string
}

// app is the state every subcommand works from.
type app struct {
	cfg     *config.Config
	loader  *source.Loader
	sources []source.Source
	today   *calendar.Date
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	rootCmd := &cobra.Command{
		Use:   "plancal",
		Short: "Plain-text planner with a date language",
		Long: `plancal reads plan files made of TASK, NOTE and LOG entries and
resolves their DATE, BDATE, EXCEPT, MOVE, FROM, UNTIL and REMIND
statements into an agenda.

Examples:
  plancal show --file plan.txt
  plancal show --file plan.txt "today -- +2w"
  plancal check --file plan.txt
  plancal export --file plan.txt -o plan.ics "2021-11-01 -- 2021-12-31"
  plancal serve --config /etc/plancal/config.yaml`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to config file (created with defaults when missing)")
	pf.StringArrayVarP(&flags.files, "file", "f", nil, "Plan file or URL (repeatable, replaces the configured files)")
	pf.StringVar(&flags.timezone, "timezone", "", "IANA timezone (overrides config and TIMEZONE directives)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info or error")
	pf.StringVar(&flags.today, "today", "", "Pretend today is this date (YYYY-MM-DD)")

	rootCmd.AddCommand(showCmd(&flags))
	rootCmd.AddCommand(checkCmd(&flags))
	rootCmd.AddCommand(exportCmd(&flags))
	rootCmd.AddCommand(serveCmd(&flags))
	return rootCmd
}

// setup loads the config, applies flag overrides and initializes logging.
func setup(flags *rootFlags) (*app, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if len(flags.files) > 0 {
		cfg.Files = cfg.Files[:0]
		for _, f := range flags.files {
			cfg.Files = append(cfg.Files, config.FileConfig{Path: f})
		}
	}
	if flags.timezone != "" {
		cfg.Timezone = flags.timezone
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appLog.Init(appLog.Options{Level: appLog.ParseLevel(cfg.LogLevel), Format: cfg.LogFormat})

	if len(cfg.Files) == 0 {
		return nil, fmt.Errorf("no plan files configured (use --file or files: in the config)")
	}

	a := &app{
		cfg:     cfg,
		loader:  source.NewLoader(cfg.CacheDir),
		sources: cfg.Sources(""),
	}
	if flags.today != "" {
		d, err := calendar.ParseDate(flags.today)
		if err != nil {
			return nil, fmt.Errorf("--today: %w", err)
		}
		a.today = &d
	}

	appLog.Debug("effective config",
		"files", len(cfg.Files),
		"timezone", cfg.Timezone,
		"default_range", cfg.DefaultRange,
		"max_occurrences", cfg.MaxOccurrences,
		"parallel", cfg.Parallel,
	)
	return a, nil
}

// build loads every source and resolves the agenda for rng (the default
// range when empty).
func (a *app) build(ctx context.Context, rng string) (*agenda.Agenda, error) {
	docs := agenda.Load(ctx, a.loader, a.sources)
	loc, err := a.cfg.Location(agenda.Timezone(docs))
	if err != nil {
		return nil, err
	}
	today := calendar.FromTime(time.Now().In(loc))
	if a.today != nil {
		today = *a.today
	}
	if rng == "" {
		rng = a.cfg.DefaultRange
	}
	w, err := syntax.ParseRange(rng, today)
	if err != nil {
		return nil, fmt.Errorf("range %q: %w", rng, err)
	}
	return agenda.Build(docs, agenda.Options{
		Window:         w,
		Today:          today,
		Location:       loc,
		MaxOccurrences: a.cfg.MaxOccurrences,
		Parallel:       a.cfg.Parallel,
	}), nil
}

func rangeArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func showCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show [range]",
		Short: "Print the agenda for a range",
		Long: `Print the agenda grouped by day, preceded by overdue tasks and active
reminders. Problems are reported on stderr.

A range is a date, "today", "today-1d", or two of those separated by
"--"; a range end may also be a delta such as "+2w".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			ag, err := a.build(cmd.Context(), rangeArg(args))
			if err != nil {
				return err
			}
			printAgenda(cmd.OutOrStdout(), ag)
			printDiagnostics(cmd.ErrOrStderr(), ag.Diagnostics)
			return nil
		},
	}
}

func checkCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check [range]",
		Short: "Report problems in the plan files",
		Long:  "Parse every file and resolve the range, then list every problem. Exits non-zero when there is any.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			ag, err := a.build(cmd.Context(), rangeArg(args))
			if err != nil {
				return err
			}
			printDiagnostics(cmd.OutOrStdout(), ag.Diagnostics)
			if n := ag.Diagnostics.Len(); n > 0 {
				return fmt.Errorf("%d problem(s) found", n)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "no problems found")
			return nil
		},
	}
}

func exportCmd(flags *rootFlags) *cobra.Command {
	var output, name string
	cmd := &cobra.Command{
		Use:   "export [range]",
		Short: "Export the agenda as iCalendar",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			ag, err := a.build(cmd.Context(), rangeArg(args))
			if err != nil {
				return err
			}
			printDiagnostics(cmd.ErrOrStderr(), ag.Diagnostics)

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := ics.Write(w, ag, ics.Options{Name: name}); err != nil {
				return fmt.Errorf("write ics: %w", err)
			}
			appLog.Info("agenda exported", "items", len(ag.Items), "window", ag.Window, "output", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().StringVar(&name, "name", "plancal", "Calendar name (X-WR-CALNAME)")
	return cmd
}

func serveCmd(flags *rootFlags) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agenda over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(flags)
			if err != nil {
				return err
			}
			// --listen overrides the config file listen address.
			if listen != "" {
				a.cfg.Listen = listen
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			appLog.Info("plancal starting", "version", version, "listen", a.cfg.Listen, "files", len(a.sources))
			srv := web.NewServer(a.cfg, a.loader, a.sources)
			srv.Reload(ctx)
			if err := srv.Run(ctx); err != nil {
				return err
			}
			appLog.Info("plancal exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
