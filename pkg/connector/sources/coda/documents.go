package coda

import (
	_ "embed"
	"os"

	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
)

//go:embed spec.json
var specDocument []byte

//go:embed schema.json
var rowsSchema []byte

// SpecDocument returns the connector specification compiled into the binary
func SpecDocument() (json.RawMessage, error) {
	return compactDocument(specDocument, "spec.json")
}

// LoadSpecFile reads a specification document from path. A missing file or
// a document that is not valid JSON is an error.
func LoadSpecFile(path string) (json.RawMessage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to read spec file").
			WithDetail("path", path)
	}
	return compactDocument(data, path)
}

// RowsSchema returns the JSON schema declared for the CodaRows stream
func RowsSchema() json.RawMessage {
	schema, err := json.Compact(rowsSchema)
	if err != nil {
		return append(json.RawMessage(nil), rowsSchema...)
	}
	return schema
}

func compactDocument(data []byte, name string) (json.RawMessage, error) {
	compact, err := json.Compact(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "spec document is not valid JSON").
			WithDetail("path", name)
	}
	return compact, nil
}
