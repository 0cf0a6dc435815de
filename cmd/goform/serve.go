package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	goform "github.com/reoring/goform"
	"github.com/reoring/goform/transport/wsbridge"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [definition]",
		Short: "Serve a form over WebSocket",
		Long: `Serve accepts WebSocket connections and gives each one its own form
built from the definition. Clients send UI events and receive the
form state after every message.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, path, err := a.definition(args)
			if err != nil {
				return err
			}
			s := a.cfg.Server
			mux := http.NewServeMux()
			mux.Handle(s.Path, wsbridge.New(def,
				wsbridge.WithLogger(a.logger),
				wsbridge.WithOriginPatterns(s.AllowedOrigins...),
				wsbridge.WithReadLimit(s.ReadLimit),
				wsbridge.WithFormOptions(goform.WithLogger(a.logger)),
			))
			srv := &http.Server{Addr: s.Addr(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			a.logger.Info("serving form", "definition", path, "addr", s.Addr(), "path", s.Path)

			select {
			case err := <-errc:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("host", "localhost", "host to bind to")
	f.IntP("port", "p", 8090, "port to listen on")
	f.String("path", "/ws", "WebSocket endpoint path")
	bindFlags(f, map[string]string{"host": "server.host", "port": "server.port", "path": "server.path"})
	return cmd
}
