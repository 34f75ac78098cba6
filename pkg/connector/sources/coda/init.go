package coda

import (
	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/connector/registry"
)

func init() {
	_ = registry.RegisterSource(ConnectorName, func() (core.Source, error) {
		return NewSource(), nil
	})

	_ = registry.RegisterConnectorInfo(&core.ConnectorMetadata{
		Name:          ConnectorName,
		Type:          core.ConnectorTypeSource,
		Version:       Version,
		Description:   "Coda documents, tables and rows over the Coda REST API",
		Documentation: "https://coda.io/developers/apis/v1",
		Capabilities: []string{
			"full_refresh",
			"bearer_auth",
			"raw_passthrough",
		},
	})
}
