// Package cli is the taskflow command line. With no subcommand it runs the
// terminal UI; the subcommands cover the account flows the UI sends users
// to and quick non-interactive reads.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/tgienger/taskflow/internal/api"
	"github.com/tgienger/taskflow/internal/config"
	"github.com/tgienger/taskflow/internal/db"
	"github.com/tgienger/taskflow/internal/metrics"
	"github.com/tgienger/taskflow/internal/session"
	"github.com/tgienger/taskflow/internal/ui"
	"github.com/tgienger/taskflow/internal/ui/views"
)

// BuildInfo is stamped by the linker
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

type rootOptions struct {
	build       BuildInfo
	configPath  string
	debug       bool
	route       string
	metricsFile string

	stdin *bufio.Reader
}

// Execute runs the command line and reports the error, if any, on stderr
func Execute(build BuildInfo) error {
	root := newRootCmd(build)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func newRootCmd(build BuildInfo) *cobra.Command {
	o := &rootOptions{build: build}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - tasks, projects and teams in your terminal",
		Long: `TaskFlow is a terminal client for the TaskFlow task manager.

Run it without a command to open the interactive UI. The commands below
handle registration, password resets and quick lookups.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.runTUI(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.Version = build.Version

	root.PersistentFlags().StringVar(&o.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().BoolVar(&o.debug, "debug", false, "write a debug log")
	root.Flags().StringVar(&o.route, "route", "", "open this route instead of the last one, e.g. /tasks/kanban")
	root.Flags().StringVar(&o.metricsFile, "metrics-file", "", "write client metrics to this file on exit")

	root.AddCommand(
		newLoginCmd(o),
		newLogoutCmd(o),
		newWhoamiCmd(o),
		newRegisterCmd(o),
		newVerifyOTPCmd(o),
		newResendOTPCmd(o),
		newForgotPasswordCmd(o),
		newResetPasswordCmd(o),
		newTasksCmd(o),
		newStatsCmd(o),
		newProjectsCmd(o),
		newInvitesCmd(o),
		newConfigCmd(o),
		newVersionCmd(o),
	)
	return root
}

// env is everything a command needs to talk to the gateway
type env struct {
	cfg     *config.Config
	store   *db.DB
	client  *api.Client
	metrics *metrics.Metrics
	log     *slog.Logger
	logFile io.Closer
}

// open loads the config and opens the store and API client. With tui set
// the debug log goes to the log file, since the UI owns the terminal.
func (o *rootOptions) open(cmd *cobra.Command, tui bool) (*env, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, metrics: metrics.New()}
	e.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	if o.debug || cfg.Log.Debug {
		opts := &slog.HandlerOptions{Level: slog.LevelDebug}
		if tui {
			if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			f, err := tea.LogToFile(cfg.Log.File, "taskflow")
			if err != nil {
				return nil, fmt.Errorf("failed to open log file: %w", err)
			}
			e.logFile = f
			e.log = slog.New(slog.NewTextHandler(f, opts))
		} else {
			e.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts))
		}
	}

	e.store, err = db.Open(cfg.DataDir)
	if err != nil {
		e.Close()
		return nil, err
	}

	e.client, err = api.New(cfg.API.BaseURL,
		api.WithCookieStore(e.store),
		api.WithLogger(e.log),
		api.WithMetrics(e.metrics),
		api.WithTimeout(cfg.API.Timeout),
	)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.log.Debug("opened", "base_url", cfg.API.BaseURL, "data_dir", cfg.DataDir)
	return e, nil
}

func (e *env) session(opts ...session.Option) *session.Manager {
	opts = append([]session.Option{session.WithLogger(e.log)}, opts...)
	return session.New(e.client, e.store, opts...)
}

// authenticated verifies the stored session; commands that read account
// data need one
func (e *env) authenticated(ctx context.Context) (*session.Manager, error) {
	sess := e.session()
	if st := sess.Verify(ctx); !st.Authenticated {
		return nil, fmt.Errorf("not logged in (run `taskflow login`)")
	}
	return sess, nil
}

func (e *env) context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, e.cfg.API.Timeout+5*time.Second)
}

func (e *env) Close() error {
	var err error
	if e.store != nil {
		err = e.store.Close()
	}
	if e.logFile != nil {
		e.logFile.Close()
	}
	return err
}

func (o *rootOptions) runTUI(cmd *cobra.Command) error {
	e, err := o.open(cmd, true)
	if err != nil {
		return err
	}
	defer e.Close()

	var app *ui.App
	sess := e.session(session.WithNotifier(func(msg string) { app.Notify(msg) }))
	app = ui.NewApp(views.Deps{
		API:      e.client,
		Session:  sess,
		Metrics:  e.metrics,
		Log:      e.log,
		PageSize: e.cfg.UI.PageSize,
		Debounce: e.cfg.UI.Debounce,
		Timeout:  e.cfg.API.Timeout,
	}, ui.WithStore(e.store), ui.WithStartRoute(o.route))
	e.client.OnUnauthorized(app.SessionExpired)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, runErr := p.Run()

	if o.metricsFile != "" {
		if err := writeMetrics(o.metricsFile, e.metrics); err != nil {
			e.log.Warn("failed to write metrics", "err", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("failed to run UI: %w", runErr)
	}
	return nil
}

// writeMetrics dumps the registry in the Prometheus text format
func writeMetrics(path string, m *metrics.Metrics) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return err
		}
	}
	return nil
}
