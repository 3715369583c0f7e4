package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	echoweb "github.com/trezcool/perftracker/apps/web/echo"
	"github.com/trezcool/perftracker/core"
	"github.com/trezcool/perftracker/core/roster"
	logsvc "github.com/trezcool/perftracker/services/logger"
	"github.com/trezcool/perftracker/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger, err := logsvc.New("web", conf)
	if err != nil {
		return errors.Wrap(err, "setting up logger")
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeDB, err := storage.OpenRoster(ctx, conf.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err := closeDB(); err != nil {
			logger.Error("closing database", err)
		}
	}()

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build), map[string]interface{}{"config": conf.String()})
	defer logger.Info("Application stopped")

	svc := roster.NewService(repo)
	if err = svc.Init(ctx); err != nil {
		return err
	}
	validate, translator := core.NewValidator()

	// =========================================================================
	// Start Web Service

	server := echoweb.NewServer(
		&echoweb.Options{
			Address:    conf.Server.Address,
			AppName:    conf.AppName,
			SecretKey:  conf.SecretKey,
			Debug:      conf.Debug,
			TestMode:   conf.TestMode,
			Logger:     logger,
			RosterSvc:  svc,
			Validate:   validate,
			Translator: translator,
		},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", map[string]interface{}{"address": conf.Server.Address})
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server error")
		}
		return nil
	})

	// =========================================================================
	// Shutdown

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Start shutdown...")

		// give outstanding requests a deadline for completion
		sctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(sctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				return errors.Wrap(err, "could not force stop server")
			}
		}
		return nil
	})

	return g.Wait()
}
