package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"sgu-cli/internal/config"
	"sgu-cli/internal/format"
	"sgu-cli/internal/logging"
	"sgu-cli/internal/remote"
	"sgu-cli/internal/state"
	"sgu-cli/internal/telemetry"
	"sgu-cli/internal/tui"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigPath string
	Host       string
	Port       int
	BasePath   string
	Timeout    time.Duration

	PrettyJSON bool
	Format     string
	LogPath    string
	Debug      bool
	NoColor    bool

	cfg      config.Config
	log      *logrus.Logger
	closers  []io.Closer
	shutdown func(context.Context) error

	// Prompt I/O for interactive confirmations; nil means the real terminal.
	stdin       io.Reader
	interactive func() bool
}

func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sgu",
		Short:         "User management client for the /api/users REST service (CLI + TUI)",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI against http://localhost:8080/api/users
  sgu

  # Point at another backend
  sgu --host api.internal --port 9090

  # Scriptable commands
  sgu users list
  sgu users create --name "Ana" --email ana@example.com --phone 555-0101

  # Direct user lookup (shortcut for: sgu users show <id>)
  sgu 7

  # Local development backend
  sgu serve --db sqlite://./users.db
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.resolve(cmd); err != nil {
			return writeErr(cmd, err)
		}
		return nil
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.close()
		return nil
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.ConfigPath, "config", "", "Config file (default: $SGU_CONFIG or ~/.sgu/config.ini)")
	pf.StringVar(&app.Host, "host", config.DefaultHost, "API host (may include http:// or https://)")
	pf.IntVar(&app.Port, "port", config.DefaultPort, "API port")
	pf.StringVar(&app.BasePath, "base", config.DefaultBasePath, "Collection path on the API host")
	pf.DurationVar(&app.Timeout, "timeout", config.DefaultTimeout, "Per-request timeout (0 = none)")
	pf.BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print output")
	pf.StringVar(&app.Format, "format", envOr("SGU_FORMAT", format.JSON), "Output format (json|edn)")
	pf.StringVar(&app.LogPath, "log", "", "Append logs to this file")
	pf.BoolVar(&app.Debug, "debug", false, "Debug-level logging")
	pf.BoolVar(&app.NoColor, "no-color", false, "Disable colors in the TUI (also honors NO_COLOR)")

	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newConfigCmd(app))
	cmd.AddCommand(newServeCmd(app))

	return cmd
}

// Execute runs the root command and releases logs and tracing on every exit path.
func Execute(args []string) error {
	app := &App{}
	defer app.close()
	cmd := newRootCmd(app)
	cmd.SetArgs(args)
	return cmd.Execute()
}

// resolve merges defaults, the ini file, SGU_* variables and explicitly set flags,
// in that order, then builds the logger and tracing.
func (app *App) resolve(cmd *cobra.Command) error {
	f, err := format.Normalize(app.Format)
	if err != nil {
		return err
	}
	app.Format = f

	path := strings.TrimSpace(app.ConfigPath)
	if path == "" {
		path, err = config.ConfigPath()
		if err != nil {
			return err
		}
	}
	app.ConfigPath = path

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Host = app.Host
	}
	if flags.Changed("port") {
		cfg.Port = app.Port
	}
	if flags.Changed("base") {
		cfg.BasePath = app.BasePath
	}
	if flags.Changed("timeout") {
		cfg.Timeout = app.Timeout
	}
	if flags.Changed("log") {
		cfg.LogFile = app.LogPath
	}
	if flags.Changed("debug") {
		cfg.Debug = app.Debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app.cfg = cfg

	// Only scripted commands may log to stderr; the TUI owns the terminal.
	var stderr io.Writer
	if cmd != cmd.Root() && (cfg.Debug || cmd.Name() == "serve") {
		stderr = cmd.ErrOrStderr()
	}
	log, closer, err := logging.New(logging.Options{Path: cfg.LogFile, Stderr: stderr, Debug: cfg.Debug})
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	app.log = log
	app.closers = append(app.closers, closer)

	shutdown, err := telemetry.Setup(cmd.Context(), telemetry.ServiceName)
	if err != nil {
		log.WithError(err).Warn("tracing disabled")
	}
	app.shutdown = shutdown

	log.WithFields(logrus.Fields{
		"config":  path,
		"baseURL": cfg.BaseURL(),
		"timeout": cfg.Timeout,
	}).Debug("configuration resolved")
	return nil
}

func (app *App) close() {
	if app.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_ = app.shutdown(ctx)
		cancel()
		app.shutdown = nil
	}
	for _, c := range app.closers {
		_ = c.Close()
	}
	app.closers = nil
}

func (app *App) logger() logrus.FieldLogger {
	if app.log == nil {
		return logging.Discard()
	}
	return app.log
}

func (app *App) client() (*remote.Client, error) {
	return remote.New(app.cfg.BaseURL(),
		remote.WithTimeout(app.cfg.Timeout),
		remote.WithLogger(app.logger().WithField("component", "remote")),
	)
}

func (app *App) session() (*state.Session, error) {
	c, err := app.client()
	if err != nil {
		return nil, err
	}
	return state.NewSession(c, state.WithLogger(app.logger().WithField("component", "session"))), nil
}

func runTUI(cmd *cobra.Command, app *App) error {
	s, err := app.session()
	if err != nil {
		return writeErr(cmd, err)
	}
	if err := tui.Run(s, tui.Options{
		BaseURL: app.cfg.BaseURL(),
		NoColor: app.NoColor,
		Log:     app.logger().WithField("component", "tui"),
	}); err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), describeErr(err))
	return err
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
