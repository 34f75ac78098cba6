// Package sourcecoda is a connector that extracts documents, tables and rows
// from the Coda API and speaks the newline-delimited JSON connector protocol.
//
// # Architecture
//
// The binary in cmd/source-coda is a thin cobra shell (internal/cli) around
// four operations:
//
//   - spec: emit the connection specification document
//   - check: walk documents, tables and rows to prove the API key works
//   - discover: emit the single CodaRows stream and its schema
//   - read: emit the first page of rows of the first table found
//
// Protocol messages go to stdout. Logs go to stderr, or travel as LOG
// messages with --log-format=protocol.
//
// # Quick Start
//
//	source-coda spec
//	source-coda check --config config.json
//	source-coda discover --config config.json
//	source-coda read --config config.json --catalog catalog.json
//
// A minimal config.json:
//
//	{"api_key": "${CODA_API_KEY}"}
//
// # Packages
//
//   - pkg/coda: Coda REST client with pagination and tree walking
//   - pkg/clients: HTTP/2 client with bearer auth, rate limiting and a
//     circuit breaker
//   - pkg/connector: the source framework and the coda source
//   - pkg/protocol: message envelopes and the emitter
//   - pkg/output, pkg/compression: optional archive of the message stream
//   - pkg/config, pkg/logger, pkg/metrics, pkg/observability, pkg/errors:
//     ambient configuration, logging, metrics, tracing and typed errors
package sourcecoda
