// Package format defines the pluggable file-format capability seam. A file
// format adapter teaches the engine to treat a collection of files of one
// encoding as a single logical table: it recognizes files by extension,
// infers the merged table schema, supplies table statistics, and assembles
// the physical scan plan. The engine holds adapters behind the FileFormat
// interface and never depends on a concrete format.
package format

import (
	"context"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/compression"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/plan"
	"github.com/ajitpratap0/quasar/pkg/stats"
)

// FileFormat is the capability contract a format adapter implements for the
// engine. Implementations are stateless and safe for concurrent reuse; one
// instance serves every table of the format for the session's lifetime.
type FileFormat interface {
	// Ext returns the format's canonical bare file extension (no dot)
	Ext() string

	// ExtWithCompression returns the extension for files wrapped in the given
	// compression variant, or an error if the format has no naming convention
	// for that variant
	ExtWithCompression(t compression.Type) (string, error)

	// InferSchema reads the embedded schema of every object and merges them
	// into the table schema. One storage read per object, no caching; the
	// first read, parse, or merge failure aborts the whole call.
	InferSchema(ctx context.Context, store objectstore.Store, objects []objectstore.ObjectMeta) (*arrow.Schema, error)

	// InferStats returns table statistics for one object, sized to the table
	// schema. Formats without cheap statistics return the unknown shape.
	InferStats(ctx context.Context, store objectstore.Store, tableSchema *arrow.Schema, object objectstore.ObjectMeta) (stats.Statistics, error)

	// CreatePhysicalPlan attaches the format's file source to the scan
	// configuration and builds the plan node. The optional filter is a
	// pushdown opportunity; formats without pushdown ignore it.
	CreatePhysicalPlan(ctx context.Context, conf plan.FileScanConfig, filter plan.PhysicalExpr) (plan.ExecutionPlan, error)

	// FileSource returns a fresh format-specific data source descriptor
	FileSource() plan.FileSource
}

// Factory constructs FileFormat instances from table-level options.
type Factory interface {
	// Create builds an adapter from format options; formats without tunables
	// ignore the options
	Create(options map[string]string) (FileFormat, error)
	// Default returns the default adapter instance
	Default() FileFormat
	// Ext returns the format's canonical bare file extension
	Ext() string
}

// Registry maps canonical extensions to format factories.
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
	logger    *zap.Logger
}

// Global registry instance
var globalRegistry = NewRegistry()

// NewRegistry creates an empty format registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		logger:    logger.Get().With(zap.String("component", "format_registry")),
	}
}

// Register adds a format factory keyed by its canonical extension.
func (r *Registry) Register(factory Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ext := factory.Ext()
	if _, exists := r.factories[ext]; exists {
		return errors.Newf(errors.ErrorTypeConfig, "format %s already registered", ext)
	}

	r.factories[ext] = factory
	r.logger.Info("file format registered", zap.String("ext", ext))
	return nil
}

// Get returns the factory for an extension.
func (r *Registry) Get(ext string) (Factory, error) {
	r.mu.RLock()
	factory, exists := r.factories[ext]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.Newf(errors.ErrorTypeConfig, "no file format registered for extension %s", ext)
	}
	return factory, nil
}

// Has checks whether an extension has a registered format.
func (r *Registry) Has(ext string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[ext]
	return exists
}

// List returns the registered extensions.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.factories))
	for ext := range r.factories {
		exts = append(exts, ext)
	}
	return exts
}

// Global registry functions

// Register adds a format factory to the global registry.
func Register(factory Factory) error {
	return globalRegistry.Register(factory)
}

// Get returns a factory from the global registry.
func Get(ext string) (Factory, error) {
	return globalRegistry.Get(ext)
}

// Has checks the global registry for an extension.
func Has(ext string) bool {
	return globalRegistry.Has(ext)
}

// List returns the extensions registered in the global registry.
func List() []string {
	return globalRegistry.List()
}

// GetRegistry returns the global registry instance.
func GetRegistry() *Registry {
	return globalRegistry
}
