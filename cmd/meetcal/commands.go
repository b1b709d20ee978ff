package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"meetcal/internal/api"
	"meetcal/internal/calendar"
	"meetcal/internal/capture"
	"meetcal/internal/config"
	"meetcal/internal/dashboard"
	"meetcal/internal/ics"
	appLog "meetcal/internal/log"
	"meetcal/internal/printer"
	"meetcal/internal/web"
)

const defaultConfigPath = "/etc/meetcal/config.yaml"

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// viewOptions select the period a subcommand works on.
type viewOptions struct {
	granularity string
	date        string
	weekStart   string
}

func (o *viewOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.granularity, "granularity", "g", "week", "View granularity: day, week or month.")
	cmd.Flags().StringVarP(&o.date, "date", "d", "", "Reference date (YYYY-MM-DD); defaults to today.")
	cmd.Flags().StringVar(&o.weekStart, "week-start", "", "Override the configured week start (sunday or monday).")
}

// state builds the view state for the flags, starting from today.
func (o *viewOptions) state(today time.Time) (calendar.ViewState, error) {
	g, err := calendar.ParseGranularity(o.granularity)
	if err != nil {
		return calendar.ViewState{}, err
	}
	ref := today
	if o.date != "" {
		ref, err = time.Parse("2006-01-02", o.date)
		if err != nil {
			return calendar.ViewState{}, fmt.Errorf("invalid --date %q: want YYYY-MM-DD", o.date)
		}
	}
	return calendar.NewViewState(ref).Switch(g), nil
}

// apply copies flag overrides into conf.
func (o *viewOptions) apply(conf *config.Config) {
	if o.weekStart != "" {
		conf.WeekStart = strings.ToLower(o.weekStart)
	}
}

func (o *viewOptions) query() url.Values {
	q := url.Values{}
	q.Set("granularity", o.granularity)
	if o.date != "" {
		q.Set("date", o.date)
	}
	return q
}

func newRootCommand() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "meetcal",
		Short:         "Meetings dashboard with day, week and month calendar views.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&ro.configPath, "config", "c", defaultConfigPath, "Path to config file.")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides config.")

	addServe(cmd, ro)
	addView(cmd, ro)
	addExport(cmd, ro)
	addCapture(cmd, ro)
	return cmd
}

// loadConfig loads the YAML file, applies env overrides and sets the log
// level.
func (ro *rootOptions) loadConfig() (*config.Config, error) {
	conf, err := config.Load(ro.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", ro.configPath, err)
	}
	conf.ApplyEnv()

	level := conf.LogLevel
	if ro.logLevel != "" {
		level = ro.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(level))

	appLog.Info("effective config",
		"config_path", ro.configPath,
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"week_start", conf.WeekStart,
		"hours", fmt.Sprintf("%02d-%02d", conf.DayStartHour, conf.DayEndHour),
		"source", conf.Source.Kind,
	)
	return conf, nil
}

func newSource(conf *config.Config) (dashboard.Source, error) {
	src := conf.Source
	switch src.Kind {
	case config.SourceAPI:
		return api.NewClient(src.URL, src.Token, src.Timeout()), nil
	case config.SourceICS:
		return ics.NewFeed(ics.FeedOptions{
			URL:          src.URL,
			Path:         src.Path,
			BackfillDays: src.BackfillDays,
			HorizonDays:  src.HorizonDays,
			Timeout:      src.Timeout(),
		}), nil
	}
	return nil, fmt.Errorf("unknown source kind %q", src.Kind)
}

func newSession(conf *config.Config) (*dashboard.Session, error) {
	src, err := newSource(conf)
	if err != nil {
		return nil, err
	}
	return dashboard.NewSession(src, nil), nil
}

// today is the current UTC calendar day.
func today() time.Time {
	return calendar.UTCDate(time.Now())
}

func calendarOptions(conf *config.Config) calendar.Options {
	return calendar.Options{
		WeekStart:     conf.Weekday(),
		FirstHour:     conf.DayStartHour,
		LastHour:      conf.DayEndHour,
		PixelsPerHour: float64(conf.PixelsPerHour),
		Today:         today(),
	}
}

func addServe(topLevel *cobra.Command, ro *rootOptions) {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard page and JSON API.",
		Example: `
meetcal serve --listen 127.0.0.1:8080
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ro.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				conf.Listen = listen
			}
			session, err := newSession(conf)
			if err != nil {
				return err
			}
			return web.StartServer(cmd.Context(), conf, session)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set).")

	topLevel.AddCommand(cmd)
}

func addView(topLevel *cobra.Command, ro *rootOptions) {
	vo := &viewOptions{}
	var asJSON, noColor bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print a calendar view to the terminal.",
		Example: `
meetcal view
meetcal view -g month -d 2024-03-01
meetcal view -g day --json
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ro.loadConfig()
			if err != nil {
				return err
			}
			vo.apply(conf)
			state, err := vo.state(today())
			if err != nil {
				return err
			}
			session, err := newSession(conf)
			if err != nil {
				return err
			}
			v, snap, err := session.View(cmd.Context(), state, calendarOptions(conf))
			if err != nil {
				return err
			}

			if asJSON {
				return web.EncodeView(cmd.OutOrStdout(), v, snap)
			}
			printer.New(color.Output, !noColor && !color.NoColor).View(v, snap)
			return nil
		},
	}
	vo.addFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON.")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output.")

	topLevel.AddCommand(cmd)
}

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	vo := &viewOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the meetings of a view as an iCalendar file.",
		Example: `
meetcal export -g month -d 2024-03-01 --out march.ics
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ro.loadConfig()
			if err != nil {
				return err
			}
			vo.apply(conf)
			state, err := vo.state(today())
			if err != nil {
				return err
			}
			session, err := newSession(conf)
			if err != nil {
				return err
			}
			v, snap, err := session.View(cmd.Context(), state, calendarOptions(conf))
			if err != nil {
				return err
			}
			if snap.Err != nil {
				return fmt.Errorf("fetch meetings: %w", snap.Err)
			}

			body := ics.Export(v.Visible, time.Now())
			if out == "" || out == "-" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			if err := os.WriteFile(out, []byte(body), 0o644); err != nil {
				return err
			}
			appLog.Info("exported meetings", "path", out, "count", len(v.Visible), "label", v.Label)
			return nil
		},
	}
	vo.addFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file; stdout when empty.")

	topLevel.AddCommand(cmd)
}

func addCapture(topLevel *cobra.Command, ro *rootOptions) {
	vo := &viewOptions{}
	var (
		target string
		out    string
		width  int
		height int
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot the dashboard page to a PNG with headless Chromium.",
		Long: `Screenshot the dashboard page to a PNG with headless Chromium.

Without --url an in-process server is started on a loopback port and the
requested view is captured from it.`,
		Example: `
meetcal capture -g month --out month.png
meetcal capture --url http://127.0.0.1:8080/ --out now.png
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := ro.loadConfig()
			if err != nil {
				return err
			}
			vo.apply(conf)
			if _, err := vo.state(today()); err != nil {
				return err
			}

			ctx := cmd.Context()
			if target == "" {
				session, err := newSession(conf)
				if err != nil {
					return err
				}
				addr, stop, err := serveLoopback(conf, session)
				if err != nil {
					return err
				}
				defer stop()
				target = capture.DashboardURL(addr, vo.query())
			}

			return capture.DashboardToFile(ctx, capture.Options{
				URL:    target,
				Width:  width,
				Height: height,
			}, out)
		},
	}
	vo.addFlags(cmd)
	cmd.Flags().StringVar(&target, "url", "", "Dashboard URL to capture; an in-process server is used when empty.")
	cmd.Flags().StringVarP(&out, "out", "o", "dashboard.png", "PNG output path.")
	cmd.Flags().IntVar(&width, "width", capture.DefaultWidth, "Viewport width in pixels.")
	cmd.Flags().IntVar(&height, "height", capture.DefaultHeight, "Viewport height in pixels.")

	topLevel.AddCommand(cmd)
}

// serveLoopback serves the dashboard on a random loopback port until stop
// is called.
func serveLoopback(conf *config.Config, session *dashboard.Session) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}
	srv := &http.Server{
		Handler:           web.NewServer(conf, session, nil).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("loopback server failed", err)
		}
	}()
	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
	return ln.Addr().String(), stop, nil
}
