package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/notebook-cli/internal/app"
	"github.com/custodia-labs/notebook-cli/internal/logger"
)

// DefaultServeAddr is the listen address of 'notebook serve'.
const DefaultServeAddr = ":9090"

func newServeCmd(env *Env) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over HTTP with metrics and a health check",
		Long: `Start an HTTP server exposing:

  /mcp      Model Context Protocol over streamable HTTP
  /metrics  Prometheus metrics
  /healthz  health check, 503 when the metadata store is unreachable

Press Ctrl+C to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.App(cmd.Context())
			if err != nil {
				return err
			}
			handler, err := newServeMux(a, env.Version)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			cmd.Printf("Listening on http://%s (MCP at /mcp, metrics at /metrics)\n", ln.Addr())
			return serveHTTP(cmd.Context(), ln, handler)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", DefaultServeAddr, "listen address")
	return cmd
}

func newServeMux(a *app.App, version string) (http.Handler, error) {
	server, err := newMCPServer(a, version)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/mcp", server.Handler())
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := a.Documents.List(r.Context(), 1); err != nil {
			logger.Warn("health check failed: %v", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok\n")) //nolint:errcheck
	})
	return mux, nil
}

// serveHTTP serves on ln until ctx is cancelled, then shuts down gracefully.
func serveHTTP(ctx context.Context, ln net.Listener, handler http.Handler) error {
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
