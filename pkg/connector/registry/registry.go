package registry

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/source-coda/pkg/connector/core"
	"github.com/ajitpratap0/source-coda/pkg/errors"
	"github.com/ajitpratap0/source-coda/pkg/logger"
)

// Registry manages connector registration and instantiation
type Registry struct {
	sources map[string]SourceFactory
	info    map[string]*core.ConnectorMetadata
	mu      sync.RWMutex
	logger  *zap.Logger
}

// SourceFactory creates a source connector instance.
type SourceFactory func() (core.Source, error)

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates a new connector registry
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		info:    make(map[string]*core.ConnectorMetadata),
		logger:  logger.Get().With(zap.String("component", "connector_registry")),
	}
}

// RegisterSource registers a source connector factory
func (r *Registry) RegisterSource(name string, factory SourceFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("source connector %s already registered", name))
	}

	r.sources[name] = factory
	r.logger.Debug("source connector registered", zap.String("name", name))
	return nil
}

// RegisterInfo attaches descriptive metadata to a registered name
func (r *Registry) RegisterInfo(info *core.ConnectorMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.info[info.Name]; exists {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("connector %s already in catalog", info.Name))
	}
	r.info[info.Name] = info
	return nil
}

// CreateSource creates a source connector instance
func (r *Registry) CreateSource(name string) (core.Source, error) {
	r.mu.RLock()
	factory, exists := r.sources[name]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound, fmt.Sprintf("source connector %s not found", name))
	}

	source, err := factory()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("failed to create source connector %s", name))
	}

	return source, nil
}

// ListSources returns the registered source names in sorted order
func (r *Registry) ListSources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]string, 0, len(r.sources))
	for name := range r.sources {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	return sources
}

// HasSource checks if a source connector is registered
func (r *Registry) HasSource(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.sources[name]
	return exists
}

// Info returns the metadata registered for name
func (r *Registry) Info(name string) (*core.ConnectorMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.info[name]
	if !exists {
		return nil, errors.New(errors.ErrorTypeNotFound, fmt.Sprintf("connector %s not found in catalog", name))
	}
	return info, nil
}

// Clear removes all registered connectors (mainly for testing)
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = make(map[string]SourceFactory)
	r.info = make(map[string]*core.ConnectorMetadata)
}

// Global registry functions

// RegisterSource registers a source connector in the global registry
func RegisterSource(name string, factory SourceFactory) error {
	return globalRegistry.RegisterSource(name, factory)
}

// RegisterConnectorInfo registers connector metadata in the global registry
func RegisterConnectorInfo(info *core.ConnectorMetadata) error {
	return globalRegistry.RegisterInfo(info)
}

// CreateSource creates a source connector from the global registry
func CreateSource(name string) (core.Source, error) {
	return globalRegistry.CreateSource(name)
}

// ListSources returns registered sources from the global registry
func ListSources() []string {
	return globalRegistry.ListSources()
}

// HasSource checks if a source is registered in the global registry
func HasSource(name string) bool {
	return globalRegistry.HasSource(name)
}

// GetConnectorInfo retrieves connector metadata from the global registry
func GetConnectorInfo(name string) (*core.ConnectorMetadata, error) {
	return globalRegistry.Info(name)
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
