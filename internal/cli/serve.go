package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Friduric/kattis-cli/internal/kattis"
	"github.com/Friduric/kattis-cli/internal/pass"
	"github.com/Friduric/kattis-cli/internal/server"
	"github.com/Friduric/kattis-cli/internal/store"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Rules string
	Data  string
	DB    string
	Addr  string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve resolution over HTTP",
		Long: `Start an HTTP API that resolves students on request.

The rule file is required. With --data, students can be requested by
username; with --db, passes can be recorded and read back.

Routes:
  GET  /api/v1/health
  POST /api/v1/resolve
  GET  /api/v1/passes/{passId}
  GET  /api/v1/students/{username}/passes`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Rules, "rules", "r", "", "root rule file")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "judge export to look students up in")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite ledger for recorded passes")
	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default :8080)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	f := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, f.GetErrWriter())

	rs, err := loadRules(f, setting(cmd, "rules", opts.Rules, cfg.Rules))
	if err != nil {
		return err
	}

	runner, err := pass.NewRunner(rs, pass.WithLogger(logger))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to set up resolver", err)
	}
	srvOpts := []server.Option{server.WithLogger(logger), server.WithGroups(reportGroups(cfg))}

	if dataPath := setting(cmd, "data", opts.Data, cfg.Data); dataPath != "" {
		var exp *kattis.Export
		if exp, err = loadExport(f, dataPath); err != nil {
			return err
		}
		srvOpts = append(srvOpts, server.WithExport(exp))
	}
	if dbPath := setting(cmd, "db", opts.DB, cfg.DB); dbPath != "" {
		var st *store.Store
		if st, err = openStore(f, dbPath); err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		srvOpts = append(srvOpts, server.WithStore(st))
	}

	addr := setting(cmd, "addr", opts.Addr, cfg.Addr)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("cannot listen on %s", addr), err)
	}

	httpServer := &http.Server{
		Handler:           server.New(runner, srvOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	logger.Info("server starting", "addr", ln.Addr().String(), "rules", len(rs.Rules))
	fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", ln.Addr())

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return WrapExitError(ExitFailure, "server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitFailure, "shutdown failed", err)
	}
	logger.Info("server stopped gracefully")
	return nil
}
