package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/expensedecoder/api/config"
	"github.com/expensedecoder/api/handlers"
	"github.com/expensedecoder/api/middleware"
	"github.com/expensedecoder/api/routes"
	"github.com/expensedecoder/api/services"
	"github.com/expensedecoder/api/utils"
)

func newServeCommand(configPath *string) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, !skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, migrate bool) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		utils.IsProduction = true
	}
	utils.LogStartup("ExpenseDecoder API", routes.Version, cfg.Port)

	store, err := openStore(cfg, migrate)
	if err != nil {
		return err
	}
	defer store.Close()

	wsHandler := handlers.NewWSHandler()
	defer wsHandler.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	defer limiter.Stop()

	router := routes.NewRouter(routes.Deps{
		Config:   cfg,
		Store:    store,
		Gateway:  services.NewAIGatewayService(cfg),
		WS:       wsHandler,
		Verifier: middleware.NewTokenVerifier(cfg.AuthJWTSecret, cfg.AuthAudience),
		Limiter:  limiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on port %s...", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
