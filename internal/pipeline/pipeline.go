// Package pipeline moves records from a source's read stream onto the
// protocol channel.
//
// # Basic Usage
//
//	emitter := protocol.NewEmitter(os.Stdout)
//	p := pipeline.NewReadPipeline(source, emitter, logger)
//	stats, err := p.Run(ctx, rawConfig, catalog, state)
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/json"
	"github.com/ajitpratap0/source-coda/pkg/protocol"
)

// NoRecordsMessage is logged to the host when a read produced nothing
const NoRecordsMessage = "Read completed without emitting any record"

// Stats summarizes a finished read
type Stats struct {
	Records  int64
	Bytes    int64
	Duration time.Duration
}

// ReadPipeline drains a source's RecordStream into an emitter
type ReadPipeline struct {
	source  core.Source
	emitter *protocol.Emitter
	logger  *zap.Logger
}

// NewReadPipeline creates a pipeline for source writing to emitter
func NewReadPipeline(source core.Source, emitter *protocol.Emitter, logger *zap.Logger) *ReadPipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadPipeline{
		source:  source,
		emitter: emitter,
		logger:  logger.With(zap.String("component", "read_pipeline")),
	}
}

// Run starts the read and emits every record with its capture time. The
// stream is always drained so the source can finish. A failed emit wins
// over a read error; a read that yields nothing ends with a LOG warning.
func (p *ReadPipeline) Run(ctx context.Context, config []byte, catalog *protocol.ConfiguredCatalog, state json.RawMessage) (*Stats, error) {
	start := time.Now()
	p.logger.Info("starting read", zap.String("source", p.source.Name()))

	stream, err := p.source.Read(ctx, config, catalog, state)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	var emitErr error
	for record := range stream.Records {
		if emitErr != nil {
			continue
		}
		if err := p.emitter.EmitRecordAt(record.Stream, record.Data, record.EmittedAt); err != nil {
			emitErr = err
			continue
		}
		stats.Records++
		stats.Bytes += int64(len(record.Data))
	}

	var readErr error
	for err := range stream.Errors {
		if readErr == nil {
			readErr = err
		}
	}
	stats.Duration = time.Since(start)

	switch {
	case emitErr != nil:
		return stats, emitErr
	case readErr != nil:
		return stats, readErr
	}

	if stats.Records == 0 {
		if err := p.emitter.EmitLog(protocol.LogLevelWarn, NoRecordsMessage); err != nil {
			return stats, err
		}
	}

	p.logger.Info("read completed",
		zap.Int64("records", stats.Records),
		zap.Int64("bytes", stats.Bytes),
		zap.Duration("duration", stats.Duration))
	return stats, nil
}
