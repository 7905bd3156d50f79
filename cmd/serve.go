package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/staarai/internal/llm"
	"github.com/abhisek/staarai/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web form and download server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			appCfg.ListenAddr = addr
		}
		ctx := cmd.Context()

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		catalog, err := loadCatalog()
		if err != nil {
			return err
		}
		provider, err := buildProvider(ctx, s.EventRepo())
		if err != nil {
			return fmt.Errorf("%s (%w)", llm.UserMessage(err), err)
		}

		h := web.NewHandler(catalog, buildPipeline(provider, s.EventRepo()),
			appCfg.OutputDir, appCfg.ShowAlignment, s.DB(), logger)

		srv := &http.Server{
			Addr:              appCfg.ListenAddr,
			Handler:           web.Routes(h),
			ReadHeaderTimeout: 10 * time.Second,
			// A request may wait on several completion calls.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info("HTTP server starting",
				zap.String("addr", appCfg.ListenAddr),
				zap.String("output_dir", appCfg.OutputDir))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides STAAR_ADDR, default :8080)")
}
