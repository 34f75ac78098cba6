package protocol

import (
	"os"

	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
)

// ReadConfiguredCatalog parses the configured catalog the host passes to read.
func ReadConfiguredCatalog(path string) (*ConfiguredCatalog, error) {
	data, err := readJSONFile(path, "catalog")
	if err != nil {
		return nil, err
	}

	var catalog ConfiguredCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid configured catalog").
			WithDetail("path", path)
	}
	return &catalog, nil
}

// ReadState returns the raw state document. An empty path means no state and
// yields nil.
func ReadState(path string) (json.RawMessage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := readJSONFile(path, "state")
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func readJSONFile(path, kind string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the host command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read "+kind+" file").
			WithDetail("path", path)
	}
	if !json.Valid(data) {
		return nil, errors.New(errors.ErrorTypeConfig, kind+" file is not valid JSON").
			WithDetail("path", path)
	}
	return data, nil
}
