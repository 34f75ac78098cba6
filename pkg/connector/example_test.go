package connector_test

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/source-coda/pkg/connector/registry"
	_ "github.com/ajitpratap0/source-coda/pkg/connector/sources"
)

// Example creates a registered source by name and lists its streams.
func Example() {
	ctx := context.Background()

	source, err := registry.CreateSource("coda")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer source.Close(ctx)

	catalog, err := source.Discover(ctx, nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	fmt.Println(source.Name(), source.Type())
	for _, stream := range catalog.Streams {
		fmt.Println(stream.Name, stream.SupportedSyncModes)
	}
	// Output:
	// coda source
	// CodaRows [full_refresh]
}

// Example_registryInfo shows the metadata a source registers.
func Example_registryInfo() {
	info, err := registry.GetConnectorInfo("coda")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println(info.Name, info.Type)
	fmt.Println(info.Capabilities)
	// Output:
	// coda source
	// [full_refresh bearer_auth raw_passthrough]
}
