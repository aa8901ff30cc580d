package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/risk"
	"github.com/sells-group/warn-cli/internal/server"
)

var servePort int

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve risk queries and the facility map layer over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		cfg.Server.Port = port
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		srv := &http.Server{
			Addr: fmt.Sprintf(":%d", port),
			Handler: server.New(server.Options{
				Risk: risk.Paths{
					Impacts:        cfg.Paths.Impacts,
					FacilityRollup: cfg.Paths.FacilityRollup,
					Geocodes:       cfg.Paths.Geocodes,
				},
				AllFacilities: cfg.Paths.AllFacilities,
				Top:           cfg.Risk.Top,
				Nearest:       cfg.Risk.Nearest,
				GeoJSON: export.GeoJSONOptions{
					TopTitles:     cfg.Export.GeoJSONTopTitles,
					IncludeRemote: !cfg.Export.ExcludeRemote,
				},
			}).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return eris.Wrap(srv.Shutdown(shutdownCtx), "server shutdown")
		})
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
