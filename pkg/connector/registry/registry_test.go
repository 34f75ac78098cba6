package registry

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/json"
	"github.com/ajitpratap0/source-coda/pkg/protocol"
)

type stubSource struct{ name string }

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Type() core.ConnectorType { return core.ConnectorTypeSource }
func (s *stubSource) Version() string { return "0.0.1" }
func (s *stubSource) Close(context.Context) error { return nil }
func (s *stubSource) Metrics() map[string]interface{} { return nil }
func (s *stubSource) Spec(context.Context) (json.RawMessage, error) { return json.RawMessage(`{}`), nil }
func (s *stubSource) Check(context.Context, []byte) (*protocol.ConnectionStatus, error) {
	return &protocol.ConnectionStatus{Status: protocol.StatusSucceeded}, nil
}
func (s *stubSource) Discover(context.Context, []byte) (*protocol.Catalog, error) {
	return &protocol.Catalog{}, nil
}
func (s *stubSource) Read(context.Context, []byte, *protocol.ConfiguredCatalog, json.RawMessage) (*core.RecordStream, error) {
	return nil, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.RegisterSource("b", func() (core.Source, error) { return &stubSource{name: "b"}, nil }))
	require.NoError(t, r.RegisterSource("a", func() (core.Source, error) { return nil, fmt.Errorf("boom") }))

	err := r.RegisterSource("b", func() (core.Source, error) { return nil, nil })
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	assert.Equal(t, []string{"a", "b"}, r.ListSources())
	assert.True(t, r.HasSource("a"))
	assert.False(t, r.HasSource("c"))

	src, err := r.CreateSource("b")
	require.NoError(t, err)
	assert.Equal(t, "b", src.Name())

	_, err = r.CreateSource("a")
	assert.Contains(t, err.Error(), "failed to create source connector a")

	_, err = r.CreateSource("c")
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	r.Clear()
	assert.Empty(t, r.ListSources())
}

func TestRegistryInfo(t *testing.T) {
	r := NewRegistry()
	info := &core.ConnectorMetadata{Name: "x", Type: core.ConnectorTypeSource}

	require.NoError(t, r.RegisterInfo(info))
	assert.Error(t, r.RegisterInfo(info))

	got, err := r.Info("x")
	require.NoError(t, err)
	assert.Same(t, info, got)

	_, err = r.Info("y")
	assert.Error(t, err)
}
