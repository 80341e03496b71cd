package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/avoronova/flatbook/api"
	"github.com/avoronova/flatbook/config"
	"github.com/avoronova/flatbook/internal/observability"
	"github.com/avoronova/flatbook/internal/service/apartments"
	"github.com/avoronova/flatbook/internal/service/audit"
	"github.com/avoronova/flatbook/internal/service/auth"
	"github.com/avoronova/flatbook/internal/service/backup"
	"github.com/avoronova/flatbook/internal/service/bookings"
	"github.com/avoronova/flatbook/internal/service/scheduler"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/sync/errgroup"
)

type Services struct {
	Auth       auth.AuthUseCase
	Apartments apartments.ApartmentUseCase
	Bookings   bookings.BookingUseCase
	Scheduler  scheduler.SchedulerUseCase
	Backup     backup.BackupUseCase
	Audit      audit.AuditUseCase
}

// Run starts the HTTP server and blocks until the context is canceled or the
// server fails. Shutdown drains in-flight requests for up to five seconds.
func Run(ctx context.Context, cfg *config.Config, svc Services, log zerolog.Logger) error {
	router := NewRouter(cfg, svc, log)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", cfg.HTTP.Address).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		log.Info().Msg("http server stopped")
		return nil
	})

	return g.Wait()
}

// NewRouter assembles the gin engine: public login and metrics, authenticated
// v1 routes, and admin-only user, backup and audit routes.
func NewRouter(cfg *config.Config, svc Services, log zerolog.Logger) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(log))

	registry := observability.InitRegistry()
	router.GET("/metrics", gin.WrapH(observability.MetricsHandler(registry)))
	router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
		httpSwagger.URL("/swagger/flatbook.swagger.json"),
	)))
	if cfg.HTTP.SwaggerDir != "" {
		router.Static("/swagger", cfg.HTTP.SwaggerDir)
	}

	authHandler := api.NewAuthHandler(svc.Auth)

	v1 := router.Group("/api/v1")
	authHandler.Register(v1.Group("/auth"))

	protected := v1.Group("/", api.Authenticate(svc.Auth))
	api.NewApartmentHandler(svc.Apartments).Register(protected.Group("/apartments"))
	api.NewBookingHandler(svc.Bookings).Register(protected.Group("/bookings"))
	api.NewSchedulerHandler(svc.Scheduler).Register(protected.Group("/scheduler"))

	admin := protected.Group("/", api.RequireRole("admin"))
	authHandler.RegisterUsers(admin.Group("/users"))
	api.NewBackupHandler(svc.Backup).Register(admin.Group("/backup"))
	api.NewAuditHandler(svc.Audit).Register(admin.Group("/audit"))

	return router
}
