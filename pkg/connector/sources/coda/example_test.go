package coda_test

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/source-coda/pkg/connector/sources/coda"
)

func ExampleSource_Discover() {
	source := coda.NewSource()

	catalog, err := source.Discover(context.Background(), nil)
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, stream := range catalog.Streams {
		fmt.Println(stream.Name, stream.SupportedSyncModes)
	}
	// Output: CodaRows [full_refresh]
}
