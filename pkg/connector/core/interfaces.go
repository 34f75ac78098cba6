package core

import (
	"context"
	"time"

	"github.com/ajitpratap0/source-coda/pkg/json"
	"github.com/ajitpratap0/source-coda/pkg/protocol"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource ConnectorType = "source"
)

// Record is one payload extracted by a source. Data is passed through to the
// host without re-encoding.
type Record struct {
	Stream    string
	Data      json.RawMessage
	EmittedAt time.Time
}

// RecordStream represents a stream of records. Both channels are closed by
// the producer when it is done; at most one error is sent.
type RecordStream struct {
	Records <-chan *Record
	Errors  <-chan error
}

// Connector is the base interface for all connectors
type Connector interface {
	// Metadata
	Name() string
	Type() ConnectorType
	Version() string

	// Lifecycle
	Close(ctx context.Context) error

	// Monitoring
	Metrics() map[string]interface{}
}

// Source is the interface that all source connectors must implement. Every
// operation receives the raw configuration document the host supplied, so
// a source holds no state between invocations.
type Source interface {
	Connector

	// Spec returns the connector specification document
	Spec(ctx context.Context) (json.RawMessage, error)

	// Check verifies the configuration against the remote system. Problems
	// with the configuration or the remote system are reported as a FAILED
	// status; the error return is reserved for failures of the connector
	// itself.
	Check(ctx context.Context, config []byte) (*protocol.ConnectionStatus, error)

	// Discover returns the streams the source can produce
	Discover(ctx context.Context, config []byte) (*protocol.Catalog, error)

	// Read extracts records. The stream is fed by a goroutine that stops
	// when ctx is cancelled.
	Read(ctx context.Context, config []byte, catalog *protocol.ConfiguredCatalog, state json.RawMessage) (*RecordStream, error)
}

// ErrorHandler defines how connectors handle errors
type ErrorHandler interface {
	HandleError(ctx context.Context, err error, details map[string]interface{}) error
	ShouldRetry(err error) bool
}

// ConnectorMetadata provides metadata about a connector
type ConnectorMetadata struct {
	Name          string        `json:"name"`
	Type          ConnectorType `json:"type"`
	Version       string        `json:"version"`
	Description   string        `json:"description"`
	Documentation string        `json:"documentation"`
	Capabilities  []string      `json:"capabilities"`
}
