package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sgu-cli/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(app *App) *cobra.Command {
	var addr string
	var dsn string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a development users service",
		Long: strings.TrimSpace(`
Run a local implementation of the users REST service so the CLI and TUI have
something to talk to.

Routes (under --base, default /api/users):
- GET    /api/users        list
- GET    /api/users/{id}   one user (404 when missing)
- POST   /api/users        create (201)
- PUT    /api/users/{id}   update
- DELETE /api/users/{id}   delete (204)
- GET    /metrics          Prometheus metrics
- GET    /health

Storage (--db): memory (default), sqlite://path or path.db, postgres://...
`),
		Example: strings.TrimSpace(`
# In-memory, on the default client address
sgu serve

# Persistent SQLite file
sgu serve --addr :8080 --db sqlite://./users.db

# Postgres
sgu serve --db postgres://localhost/sgu?sslmode=disable
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr := strings.TrimSpace(addr)
			if listenAddr == "" {
				return writeErr(cmd, errors.New("serve: missing --addr"))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			openCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			repo, err := server.Open(openCtx, dsn)
			cancel()
			if err != nil {
				return writeErr(cmd, err)
			}
			defer func() { _ = repo.Close() }()

			log := app.logger().WithField("component", "server")
			srv, err := server.New(server.Config{Addr: listenAddr, BasePath: app.cfg.BasePath}, repo, log)
			if err != nil {
				return writeErr(cmd, err)
			}

			ln, err := net.Listen("tcp", srv.Addr())
			if err != nil {
				return writeErr(cmd, err)
			}
			actualAddr := ln.Addr().String()
			url := "http://" + actualAddr + app.cfg.BasePath

			_ = writeOut(cmd, app, map[string]any{
				"data": map[string]any{
					"addr":      actualAddr,
					"url":       url,
					"db":        storageLabel(dsn),
					"startedAt": time.Now().UTC().Format(time.RFC3339Nano),
				},
			})
			fmt.Fprintf(cmd.ErrOrStderr(), "sgu users service running at %s\n", url)

			return srv.Serve(ctx, ln)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", server.DefaultAddr, "Bind address (host:port or :port)")
	cmd.Flags().StringVar(&dsn, "db", envOr("SGU_DB", "memory"), "Storage: memory, sqlite://path, path.db or postgres://...")
	return cmd
}

// storageLabel hides credentials in a postgres dsn.
func storageLabel(dsn string) string {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return "memory"
	}
	if i := strings.Index(dsn, "://"); i >= 0 {
		if at := strings.LastIndex(dsn, "@"); at > i {
			return dsn[:i+3] + "***" + dsn[at:]
		}
	}
	return dsn
}
