package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/emilythestrangee/blog-platform/backend/internal/config"
	"github.com/emilythestrangee/blog-platform/backend/internal/database"
	"github.com/emilythestrangee/blog-platform/backend/internal/logging"
	"github.com/emilythestrangee/blog-platform/backend/internal/server"
	"github.com/emilythestrangee/blog-platform/backend/internal/store/postgres"
	"github.com/emilythestrangee/blog-platform/backend/internal/upload"
)

func main() {
	app := &cli.App{
		Name:           "blog-api",
		Usage:          "REST backend for the blog platform",
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "start the HTTP server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "run database migrations before serving",
						Value: true,
					},
					&cli.DurationFlag{
						Name:  "shutdown-timeout",
						Usage: "time allowed for in-flight requests on shutdown",
						Value: 10 * time.Second,
					},
				},
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and exit",
				Action: migrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup() (config.Config, *logrus.Logger, database.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.IsProduction())

	db, err := database.New(cfg, log)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	return cfg, log, db, nil
}

func migrate(c *cli.Context) error {
	_, _, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Migrate(c.Context)
}

func serve(c *cli.Context) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer db.Close()

	if c.Bool("migrate") {
		if err := db.Migrate(c.Context); err != nil {
			return err
		}
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	storage, err := upload.NewStorage(c.Context, cfg.Upload)
	if err != nil {
		return err
	}
	if closer, ok := storage.(io.Closer); ok {
		defer closer.Close()
	}

	httpServer := server.New(cfg, db, postgres.New(db.GetDB()), storage, log).HTTPServer()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"env":     cfg.Env,
			"uploads": storage.Backend(),
		}).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Duration("shutdown-timeout"))
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
