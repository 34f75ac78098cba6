// Package protocol implements the newline-delimited JSON message envelopes
// exchanged with the host orchestrator.
package protocol

import (
	"github.com/ajitpratap0/source-coda/pkg/json"
)

// Type identifies the payload carried by a Message.
type Type string

const (
	TypeSpec             Type = "SPEC"
	TypeLog              Type = "LOG"
	TypeConnectionStatus Type = "CONNECTION_STATUS"
	TypeCatalog          Type = "CATALOG"
	TypeRecord           Type = "RECORD"
	TypeState            Type = "STATE"
)

// Status is the outcome reported by check.
type Status string

const (
	StatusSucceeded Status = "SUCCEEDED"
	StatusFailed    Status = "FAILED"
)

// Log levels accepted by the host.
const (
	LogLevelFatal = "FATAL"
	LogLevelError = "ERROR"
	LogLevelWarn  = "WARN"
	LogLevelInfo  = "INFO"
	LogLevelDebug = "DEBUG"
	LogLevelTrace = "TRACE"
)

// Sync modes.
const (
	SyncModeFullRefresh = "full_refresh"
	SyncModeIncremental = "incremental"
)

// Message is the envelope; exactly one payload field is set and matches Type.
type Message struct {
	Type             Type              `json:"type"`
	Log              *LogMessage       `json:"log,omitempty"`
	Spec             json.RawMessage   `json:"spec,omitempty"`
	ConnectionStatus *ConnectionStatus `json:"connectionStatus,omitempty"`
	Catalog          *Catalog          `json:"catalog,omitempty"`
	Record           *RecordMessage    `json:"record,omitempty"`
	State            *State            `json:"state,omitempty"`
}

// LogMessage is a human-readable diagnostic.
type LogMessage struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ConnectionStatus is the check result. Message is omitted on success.
type ConnectionStatus struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
}

// Catalog lists the streams a source can produce.
type Catalog struct {
	Streams []Stream `json:"streams"`
}

// Stream describes one extractable data set.
type Stream struct {
	Name               string          `json:"name"`
	JSONSchema         json.RawMessage `json:"json_schema"`
	SupportedSyncModes []string        `json:"supported_sync_modes"`
}

// ConfiguredCatalog is the host's selection of streams for read.
type ConfiguredCatalog struct {
	Streams []ConfiguredStream `json:"streams"`
}

// ConfiguredStream pairs a stream with the chosen sync modes.
type ConfiguredStream struct {
	Stream              Stream   `json:"stream"`
	SyncMode            string   `json:"sync_mode,omitempty"`
	DestinationSyncMode string   `json:"destination_sync_mode,omitempty"`
	CursorField         []string `json:"cursor_field,omitempty"`
}

// RecordMessage carries one extracted payload. Data is passed through
// verbatim.
type RecordMessage struct {
	Stream    string          `json:"stream"`
	Data      json.RawMessage `json:"data"`
	EmittedAt int64           `json:"emitted_at"`
}

// State is an opaque checkpoint.
type State struct {
	Data json.RawMessage `json:"data"`
}
