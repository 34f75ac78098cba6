// Package coda implements the Coda source connector. Check walks the
// documents, tables and rows the API key can see; Read forwards the first
// page of rows of the first table found as a single record.
package coda

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	codaapi "github.com/ajitpratap0/source-coda/pkg/coda"
	"github.com/ajitpratap0/source-coda/pkg/config"
	"github.com/ajitpratap0/source-coda/pkg/connector/base"
	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
	"github.com/ajitpratap0/source-coda/pkg/logger"
	"github.com/ajitpratap0/source-coda/pkg/observability"
	"github.com/ajitpratap0/source-coda/pkg/protocol"
)

const (
	// ConnectorName is the registry name of the source
	ConnectorName = "coda"
	// Version of the connector
	Version = "0.2.0"
	// StreamName is the only stream the source produces
	StreamName = "CodaRows"
)

// Check status messages
const (
	msgAuthFailed    = "API Key is incorrect"
	msgInvalidConfig = "Input configuration is incorrect"
	msgHTTPStatus    = "Input configuration is incorrect. Please verify the API key and base URL. (HTTP %d)"
	msgMalformed     = "Malformed response from the Coda API"
	msgUnreachable   = "Unable to reach the Coda API"
)

// Source reads Coda documents
type Source struct {
	*base.BaseConnector
}

// NewSource creates a Coda source
func NewSource() *Source {
	return &Source{
		BaseConnector: base.NewBaseConnector(ConnectorName, core.ConnectorTypeSource, Version),
	}
}

// Spec returns the embedded connector specification
func (s *Source) Spec(ctx context.Context) (json.RawMessage, error) {
	start := time.Now()
	spec, err := SpecDocument()
	s.RecordOperation("spec", start, err)
	return spec, err
}

// Check verifies that the API key can list documents and, in full mode,
// every table and its rows. Any failure stops the walk and is reported as a
// FAILED status; only cancellation is returned as an error.
func (s *Source) Check(ctx context.Context, raw []byte) (*protocol.ConnectionStatus, error) {
	start := time.Now()
	log := logger.WithContext(ctx)

	cfg, err := s.configure(ctx, raw)
	if err != nil {
		s.RecordOperation("check", start, err)
		log.Warn("invalid configuration", zap.Error(err))
		return &protocol.ConnectionStatus{
			Status:  protocol.StatusFailed,
			Message: msgInvalidConfig + ": " + describe(err),
		}, nil
	}

	progress := s.NewProgressReporter()
	progress.Start()
	defer progress.Stop()

	client := s.newClient(cfg, progress)
	defer client.Close()

	err = observability.Trace(ctx, "source.check", func(ctx context.Context) error {
		return walkForCheck(ctx, client, cfg.CheckMode)
	}, attribute.String("check_mode", cfg.CheckMode))
	s.RecordOperation("check", start, err)

	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "check cancelled")
		}
		log.Warn("connection check failed",
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
		return &protocol.ConnectionStatus{
			Status:  protocol.StatusFailed,
			Message: checkMessage(err),
		}, nil
	}

	log.Info("connection check succeeded", zap.Any("progress", progress.GetSnapshot()))
	return &protocol.ConnectionStatus{Status: protocol.StatusSucceeded}, nil
}

// Discover returns the CodaRows stream. It makes no remote call and does
// not depend on the configuration.
func (s *Source) Discover(ctx context.Context, _ []byte) (*protocol.Catalog, error) {
	start := time.Now()
	catalog := &protocol.Catalog{
		Streams: []protocol.Stream{{
			Name:               StreamName,
			JSONSchema:         RowsSchema(),
			SupportedSyncModes: []string{protocol.SyncModeFullRefresh},
		}},
	}
	s.RecordOperation("discover", start, nil)
	return catalog, nil
}

// Read emits the first page of rows of the first table found, walking
// documents and tables in listing order. The catalog and state are not
// consulted. No record is produced when no document has a table.
func (s *Source) Read(ctx context.Context, raw []byte, catalog *protocol.ConfiguredCatalog, state json.RawMessage) (*core.RecordStream, error) {
	cfg, err := s.configure(ctx, raw)
	if err != nil {
		return nil, err
	}

	log := logger.WithContext(ctx)
	if catalog != nil {
		log.Debug("configured catalog ignored", zap.Int("streams", len(catalog.Streams)))
	}
	if len(state) > 0 {
		log.Debug("state ignored", zap.Int("bytes", len(state)))
	}

	records := make(chan *core.Record, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(records)

		start := time.Now()
		err := observability.Trace(ctx, "source.read", func(ctx context.Context) error {
			return s.readFirstTable(ctx, cfg, records)
		})
		s.RecordOperation("read", start, err)
		if err != nil {
			errs <- err
		}
	}()

	return &core.RecordStream{Records: records, Errors: errs}, nil
}

func (s *Source) readFirstTable(ctx context.Context, cfg *config.CodaSourceConfig, out chan<- *core.Record) error {
	log := logger.WithContext(ctx)

	progress := s.NewProgressReporter()
	progress.Start()
	defer progress.Stop()

	client := s.newClient(cfg, progress)
	defer client.Close()

	doc, table, found, err := client.FirstTable(ctx)
	if err != nil {
		return err
	}
	if !found {
		log.Warn("no table found in any document, nothing to read")
		return nil
	}

	page, err := client.ListRows(ctx, doc.ID, table.ID, "")
	if err != nil {
		return err
	}

	record := &core.Record{
		Stream:    StreamName,
		Data:      page.Raw,
		EmittedAt: time.Now(),
	}
	select {
	case out <- record:
		progress.AddRecords(1)
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), errors.ErrorTypeTimeout, "read cancelled")
	}

	log.Info("rows read",
		zap.String("doc_id", doc.ID),
		zap.String("table_id", table.ID),
		zap.Int("bytes", len(page.Raw)))
	return nil
}

// configure parses, validates and applies the raw configuration
func (s *Source) configure(ctx context.Context, raw []byte) (*config.CodaSourceConfig, error) {
	cfg := config.NewCodaSourceConfig()
	if err := config.LoadBytes(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := s.Initialize(ctx, &cfg.BaseConfig); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *Source) newClient(cfg *config.CodaSourceConfig, progress codaapi.Progress) *codaapi.Client {
	return codaapi.NewClient(cfg,
		codaapi.WithLogger(s.GetLogger()),
		codaapi.WithRetry(s.ExecuteWithRetry),
		codaapi.WithProgress(progress),
	)
}

func walkForCheck(ctx context.Context, client *codaapi.Client, mode string) error {
	return client.WalkDocuments(ctx, func(doc codaapi.Item) error {
		if mode == config.CheckModeDocs {
			return nil
		}
		return client.WalkTables(ctx, doc.ID, func(table codaapi.Item) error {
			_, err := client.ListRows(ctx, doc.ID, table.ID, "")
			return err
		})
	})
}

// checkMessage turns a failed walk into the message of a FAILED status
func checkMessage(err error) string {
	switch {
	case errors.IsType(err, errors.ErrorTypeAuthentication):
		return msgAuthFailed
	case errors.StatusCode(err) != 0:
		return fmt.Sprintf(msgHTTPStatus, errors.StatusCode(err))
	case errors.IsType(err, errors.ErrorTypeData):
		return msgMalformed + ": " + describe(err)
	case errors.IsType(err, errors.ErrorTypeValidation), errors.IsType(err, errors.ErrorTypeConfig):
		return msgInvalidConfig + ": " + describe(err)
	default:
		return msgUnreachable + ": " + describe(err)
	}
}

// describe renders err without the error type prefix
func describe(err error) string {
	var e *errors.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}
