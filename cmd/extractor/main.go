package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"sirius_reviews/internal/adapters/observability"
	"sirius_reviews/internal/adapters/sirius"
	"sirius_reviews/internal/app"
	"sirius_reviews/internal/domain"
	"sirius_reviews/internal/shared"
	"sirius_reviews/internal/storage/table"
	mysqlrepo "sirius_reviews/internal/storage/mysql"
)

const (
	exitOK       = 0
	exitUser     = 1
	exitInternal = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("extractor crashed")
			code = exitInternal
		}
	}()

	cfg, err := shared.Load(args)
	if errors.Is(err, shared.ErrHelp) {
		return exitOK
	}
	if err != nil {
		log.Error().Err(err).Msg("invalid flags")
		return exitUser
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)
	observability.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	defer func() {
		pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.Push(pctx, cfg.PushgatewayURL, "sirius_reviews", reg); err != nil {
			log.Warn().Err(err).Msg("metrics push failed")
		}
	}()

	// opening the sink does no I/O; config errors still surface first in Run
	sink, closeSink, err := openSink(cfg)
	if err != nil {
		return exitCode(err)
	}
	defer closeSink()

	svc := app.NewExportService(
		func(hostname string) (domain.SiriusClient, error) {
			return sirius.New(sirius.BaseURL(hostname), cfg.RPS, cfg.HTTPTimeout)
		},
		func(job shared.Job) domain.TableWriter {
			return table.NewWriter(job.TablesDir, job.Output.Source, job.Output.Destination)
		},
		sink,
	)

	if _, err := svc.Run(ctx, cfg.DataDir); err != nil {
		return exitCode(err)
	}
	log.Info().Msg("extraction completed")
	return exitOK
}

// openSink prepares the optional MySQL sink without connecting; the repo pings
// on first use. The returned sink is nil when no DSN is configured.
func openSink(cfg shared.Config) (domain.RecordSink, func(), error) {
	noop := func() {}
	if cfg.MySQLDSN == "" {
		return nil, noop, nil
	}
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		return nil, noop, fmt.Errorf("sql.Open failed: %w", err)
	}
	repo, err := mysqlrepo.New(db, cfg.MySQLTable)
	if err != nil {
		db.Close()
		return nil, noop, &domain.UserError{Msg: err.Error()}
	}
	return repo, func() { db.Close() }, nil
}

// exitCode logs err and maps its category to the process status.
func exitCode(err error) int {
	var ue *domain.UserError
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrConfiguration):
		log.Error().Err(err).Msg("invalid configuration")
		return exitUser
	case errors.Is(err, domain.ErrAuthentication):
		log.Error().Err(err).Msg("unable to login to Sirius API")
		return exitUser
	case errors.As(err, &ue):
		log.Error().Err(err).Msg("extraction failed")
		return exitUser
	case errors.Is(err, domain.ErrFetch):
		log.Error().Err(err).Msg("unable to fetch reviews")
		return exitInternal
	default:
		log.Error().Err(err).Msg("unexpected failure")
		return exitInternal
	}
}
