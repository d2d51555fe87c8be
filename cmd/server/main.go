// Package main runs the VidyaSetu development backend: login, password
// reset and profile endpoints over PostgreSQL.
package main

import (
	"cmp"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/vidyasetu/vidyasetu/internal/config"
	"github.com/vidyasetu/vidyasetu/internal/db"
	"github.com/vidyasetu/vidyasetu/internal/logger"
	"github.com/vidyasetu/vidyasetu/internal/models"
	"github.com/vidyasetu/vidyasetu/internal/repository"
	"github.com/vidyasetu/vidyasetu/internal/server/handler/http"
	"github.com/vidyasetu/vidyasetu/internal/service"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line and environment configuration.
	options, err := config.ParseServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize PostgreSQL connection.
	postgresDB, err := db.InitPostgres(ctx, options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer postgresDB.Close()

	janitor := &db.Janitor{
		DB:         postgresDB,
		Interval:   options.CleanInterval.Std(),
		SessionTTL: options.SessionTTL.Std(),
		Log:        zapLogger,
	}
	janitor.Start(ctx)

	userRepo := repository.NewPostgresUserRepository(postgresDB)
	authService := service.NewAuthService(userRepo, service.LogCodeSender{Log: zapLogger}, options.UploadDir)

	if options.SeedAdmin != "" {
		if err := seedAdmin(ctx, authService, options.SeedAdmin); err != nil {
			zapLogger.Fatal("cannot seed admin", zap.Error(err))
		}
	}

	authHandler := &http.AuthHandler{AuthService: authService}
	profileHandler := &http.ProfileHandler{ProfileService: authService}
	router := http.NewRouter(authHandler, profileHandler, authService, options.UploadDir, zapLogger)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if options.TLSCert != "" && options.TLSKey != "" {
		zapLogger.Info("starting HTTPS server", zap.String("addr", options.Port))
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		zapLogger.Info("starting HTTP server", zap.String("addr", options.Port))
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server failed", zap.Error(err))
	}
}

func seedAdmin(ctx context.Context, svc *service.AuthService, value string) error {
	email, password, ok := strings.Cut(value, ":")
	if !ok || email == "" {
		return errors.New("seed admin must be email:password")
	}
	return svc.EnsureUser(ctx, models.User{
		ID:    "superadmin",
		Role:  models.RoleSuperAdmin,
		Name:  "Super Admin",
		Email: email,
	}, password)
}
