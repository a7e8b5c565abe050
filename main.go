package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/survey-intake/app"
	"github.com/mbolis/survey-intake/config"
	"github.com/mbolis/survey-intake/log"
	"github.com/mbolis/survey-intake/routes"
	"github.com/mbolis/survey-intake/storage"
	"github.com/mbolis/survey-intake/survey"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	sink, err := storage.Open(context.Background(), cfg)
	if err != nil {
		log.Fatal("main.storage.open:", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Errorf("main.storage.close: %s", err)
		}
	}()

	app := app.App{
		Builder: survey.NewBuilder(sink),
		Config:  cfg,
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("main.server: %s", err)
	}
}

// runServer serves until the listener fails or SIGINT/SIGTERM arrives, then shuts down gracefully.
func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Listening on " + cfg.URL())
		errChan <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Infof("received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
