package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"sirius_reviews/internal/adapters/observability"
	"sirius_reviews/internal/domain"
	"sirius_reviews/internal/shared"
)

// ClientFactory builds an API client for the configured hostname.
type ClientFactory func(hostname string) (domain.SiriusClient, error)

// WriterFactory builds the table writer for a validated job.
type WriterFactory func(job shared.Job) domain.TableWriter

type ExportService struct {
	newClient ClientFactory
	newWriter WriterFactory
	sink      domain.RecordSink
}

// NewExportService wires the pipeline. sink may be nil.
func NewExportService(c ClientFactory, w WriterFactory, sink domain.RecordSink) *ExportService {
	return &ExportService{newClient: c, newWriter: w, sink: sink}
}

// Run loads and validates the job from dataDir, then exports it.
func (s *ExportService) Run(ctx context.Context, dataDir string) (domain.OutputTable, error) {
	// config errors must surface before any network call
	job, err := shared.LoadJob(dataDir)
	if err != nil {
		return domain.OutputTable{}, err
	}

	log.Info().
		Str("hostname", job.Credentials.Hostname).
		Int("applications", len(job.Applications)).
		Str("source", job.Output.Source).
		Msg("extractor starting")
	return s.Export(ctx, job)
}

// Export runs login, fetch, mapping and writing for a validated job. Nothing
// is committed unless every step succeeds.
func (s *ExportService) Export(ctx context.Context, job shared.Job) (domain.OutputTable, error) {
	start := time.Now()
	out, err := s.export(ctx, job)
	observability.ObserveRun(err, time.Since(start))
	return out, err
}

func (s *ExportService) export(ctx context.Context, job shared.Job) (domain.OutputTable, error) {
	creds := job.Credentials
	client, err := s.newClient(creds.Hostname)
	if err != nil {
		return domain.OutputTable{}, fmt.Errorf("%w: %v", domain.ErrConfiguration, err)
	}

	// 1) Login
	token, err := client.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		return domain.OutputTable{}, err
	}
	log.Info().Str("hostname", creds.Hostname).Msg("login ok")

	// 2) Fetch the whole review set
	raws, err := client.GetAllReviews(ctx, token, job.Applications, domain.DateFrom)
	if err != nil {
		return domain.OutputTable{}, err
	}
	log.Info().
		Int("applications", len(job.Applications)).
		Int("reviews", len(raws)).
		Msg("reviews fetched")

	// 3) Flatten
	records, err := MapReviews(raws)
	if err != nil {
		return domain.OutputTable{}, err
	}

	// 4) Stage the table, feed the sink, then commit
	staged, err := s.newWriter(job).Stage(records)
	if err != nil {
		return domain.OutputTable{}, fmt.Errorf("write table: %w", err)
	}
	if s.sink != nil {
		if err := s.sink.ReplaceReviews(ctx, records); err != nil {
			if aerr := staged.Abort(); aerr != nil {
				log.Warn().Err(aerr).Str("path", staged.Path()).Msg("discard staged table failed")
			}
			return domain.OutputTable{}, fmt.Errorf("sink: %w", err)
		}
		observability.ObserveExported("mysql", len(records))
	}
	table, err := staged.Commit()
	if err != nil {
		return domain.OutputTable{}, fmt.Errorf("commit table: %w", err)
	}
	observability.ObserveExported("table", table.Rows)

	log.Info().
		Str("path", table.Path).
		Str("destination", table.Destination).
		Int("rows", table.Rows).
		Msg("table written")
	return table, nil
}
