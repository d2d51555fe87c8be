// Package main runs the VidyaSetu terminal client: it restores the stored
// session, then drives login, profile and authenticated requests from a
// prompt.
package main

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/vidyasetu/vidyasetu/internal/client/api"
	"github.com/vidyasetu/vidyasetu/internal/client/credstore"
	"github.com/vidyasetu/vidyasetu/internal/client/gateway"
	"github.com/vidyasetu/vidyasetu/internal/client/router"
	"github.com/vidyasetu/vidyasetu/internal/client/session"
	"github.com/vidyasetu/vidyasetu/internal/client/shell"
	"github.com/vidyasetu/vidyasetu/internal/config"
	"github.com/vidyasetu/vidyasetu/internal/logger"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	options, err := config.ParseClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("VidyaSetu client %s (%s)\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))

	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	store, err := credstore.New(credstore.Config{
		Driver:     options.Store,
		Path:       options.StorePath,
		Passphrase: options.StoreKey,
		DSN:        options.DatabaseDSN,
		Redis:      &credstore.RedisConfig{Addr: options.RedisAddr},
	}, credstore.Dependencies{})
	if err != nil {
		zapLogger.Fatal("cannot open credential store", zap.String("driver", options.Store), zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	gw, err := gateway.New(gateway.Config{
		BaseURL: options.APIURL,
		Timeout: options.RequestTimeout.Std(),
		CAFile:  options.CAFile,
	}, store, zapLogger)
	if err != nil {
		zapLogger.Fatal("cannot configure gateway", zap.Error(err))
	}
	client := api.New(gw)

	manager := session.NewManager(store, client, zapLogger)
	manager.Subscribe(func(s session.Session) {
		set := router.Resolve(s)
		zapLogger.Debug("routes changed",
			zap.String("state", s.State.String()),
			zap.Bool("loading", set.Loading),
			zap.Int("routes", len(set.Routes)),
			zap.String("home", string(set.Home())),
		)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if s := manager.Hydrate(ctx); s.IsAuthenticated() {
		fmt.Printf("Logged in as %s (%s)\n", s.User.Name, s.User.Role)
	} else {
		fmt.Println("Not logged in. Type 'login' to start or 'help' for commands.")
	}

	if interval := options.ProfileRefresh.Std(); interval > 0 {
		manager.StartProfileRefresh(ctx, interval, api.PathProfile)
	}

	shell.New(shell.Config{
		In:      os.Stdin,
		Out:     os.Stdout,
		Manager: manager,
		Gateway: gw,
		API:     client,
		Log:     zapLogger,
	}).Run(ctx)
}
