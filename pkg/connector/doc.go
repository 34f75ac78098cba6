// Package connector is the home of the source connector framework.
//
// # Architecture Overview
//
//   - core: the Source interface (spec, check, discover, read) and the
//     RecordStream a read produces.
//
//   - base: BaseConnector, embedded by every source. It carries the
//     retry policy with exponential backoff, the error handler, progress
//     reporting and per-connector metrics.
//
//   - registry: a name to factory map. Sources register themselves from
//     init and the CLI creates them by name.
//
//   - sources: the connector implementations. Importing the package
//     registers all of them.
//
// # Example Usage
//
//	import _ "github.com/ajitpratap0/source-coda/pkg/connector/sources"
//
//	source, err := registry.CreateSource("coda")
//	if err != nil {
//		return err
//	}
//	defer source.Close(ctx)
//
//	status, err := source.Check(ctx, rawConfig)
package connector
