// Package server assembles the HTTP router and runs it with graceful shutdown.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"propelize/internal/handler"
	"propelize/internal/middleware"
	"propelize/internal/repository"
	"propelize/internal/service"
	"propelize/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger reports database health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router is built from.
type Deps struct {
	Logger            *slog.Logger
	DB                Pinger
	Users             repository.UserRepository
	Vehicles          repository.VehicleRepository
	Tokens            *utils.TokenService
	Hasher            *utils.PasswordHasher
	InitialAdminEmail string
}

// NewRouter wires middleware, services and handlers into a gin engine.
func NewRouter(d Deps) *gin.Engine {
	handler.RegisterValidators()

	authService := service.NewAuthService(d.Users, d.Tokens, d.Hasher, d.InitialAdminEmail, d.Logger)
	userService := service.NewUserService(d.Users, d.Hasher)
	vehicleService := service.NewVehicleService(d.Vehicles)

	userHandler := handler.NewUserHandler(authService, userService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logging(d.Logger),
		middleware.Recovery(d.Logger),
		middleware.ErrorHandler(d.Logger),
	)

	authMW := middleware.Authenticate(d.Tokens, d.Users)

	api := router.Group("/api")
	userHandler.RegisterUserRoutes(api, authMW)
	vehicleHandler.RegisterVehicleRoutes(api, authMW)

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := d.DB.Ping(ctx); err != nil {
			d.Logger.WarnContext(ctx, "health check failed", slog.Any("error", err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "db": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "healthy"})
	})

	return router
}

// Run serves h on addr until ctx is cancelled, then shuts down within shutdownTimeout.
func Run(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exiting")
	return nil
}
