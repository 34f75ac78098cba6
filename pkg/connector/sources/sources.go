// Package sources registers every source connector shipped with the binary.
// Import it for side effects before using the registry.
package sources

import (
	// Import all source connectors to trigger init() registration
	_ "github.com/ajitpratap0/source-coda/pkg/connector/sources/coda"
)
