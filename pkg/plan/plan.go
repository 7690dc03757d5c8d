// Package plan assembles executable scan plans from a generic scan
// configuration and a format-specific file source. The configuration is
// format-agnostic: projection, limit, and batching are applied here so every
// file format shares one execution path.
package plan

import (
	"context"
	"io"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/metrics"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/schema"
)

// DefaultBatchSize is the number of rows per emitted batch when the scan
// configuration does not set one.
const DefaultBatchSize = 8192

// RecordReader streams Arrow record batches. Next returns io.EOF when the
// stream is exhausted; the caller releases each returned record.
type RecordReader interface {
	// Schema returns the schema of the emitted batches
	Schema() *arrow.Schema
	// Next returns the next batch, or io.EOF at end of stream
	Next() (arrow.Record, error)
	// Close releases underlying resources
	Close() error
}

// FileSource is the format-specific half of a scan: it opens one object and
// decodes it into batches of the projected schema.
type FileSource interface {
	// Format returns the format name for logging and metrics
	Format() string
	// Open decodes the object into batches. schema is the full table schema;
	// projection selects table-schema field indices (nil means all fields).
	Open(ctx context.Context, store objectstore.Store, object objectstore.ObjectMeta,
		tableSchema *arrow.Schema, projection []int, batchSize int) (RecordReader, error)
}

// ExecutionPlan is an executable scan node. Plans are immutable and safe to
// share across concurrent executions.
type ExecutionPlan interface {
	// Schema returns the output schema after projection
	Schema() *arrow.Schema
	// Execute starts the scan and returns the batch stream
	Execute(ctx context.Context) (RecordReader, error)
}

// FileScanConfig describes a scan over a set of objects of one format.
// Builder-style With methods return updated copies; Build assembles the plan
// node once a source is attached.
type FileScanConfig struct {
	// Store resolves object locations into byte sources
	Store objectstore.Store
	// Objects are the files to scan, in scan order
	Objects []objectstore.ObjectMeta
	// Schema is the table schema of record
	Schema *arrow.Schema
	// Projection selects table-schema field indices; nil selects all
	Projection []int
	// Limit caps the total rows returned; <= 0 means unlimited
	Limit int64
	// BatchSize is the target rows per batch; 0 uses DefaultBatchSize
	BatchSize int

	source FileSource
}

// NewFileScanConfig creates a scan configuration over the given objects.
func NewFileScanConfig(store objectstore.Store, tableSchema *arrow.Schema, objects []objectstore.ObjectMeta) FileScanConfig {
	return FileScanConfig{
		Store:   store,
		Objects: objects,
		Schema:  tableSchema,
	}
}

// WithProjection restricts the scan to the given table-schema field indices.
func (c FileScanConfig) WithProjection(projection []int) FileScanConfig {
	c.Projection = projection
	return c
}

// WithLimit caps the total number of rows returned by the scan.
func (c FileScanConfig) WithLimit(limit int64) FileScanConfig {
	c.Limit = limit
	return c
}

// WithBatchSize sets the target rows per emitted batch.
func (c FileScanConfig) WithBatchSize(batchSize int) FileScanConfig {
	c.BatchSize = batchSize
	return c
}

// WithSource attaches the format-specific file source.
func (c FileScanConfig) WithSource(source FileSource) FileScanConfig {
	c.source = source
	return c
}

// Build assembles the executable plan node.
func (c FileScanConfig) Build() (ExecutionPlan, error) {
	if c.source == nil {
		return nil, errors.New(errors.ErrorTypePlan, "scan configuration has no file source")
	}
	if c.Store == nil {
		return nil, errors.New(errors.ErrorTypePlan, "scan configuration has no object store")
	}
	if c.Schema == nil {
		return nil, errors.New(errors.ErrorTypePlan, "scan configuration has no table schema")
	}

	projected, err := schema.Project(c.Schema, c.Projection)
	if err != nil {
		return nil, err
	}

	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}

	return &DataSourceExec{
		conf:      c,
		projected: projected,
		logger: logger.Get().With(
			zap.String("component", "data_source_exec"),
			zap.String("format", c.source.Format())),
	}, nil
}

// DataSourceExec is the plan node that streams file contents through a
// FileSource. It iterates objects in configuration order and applies the
// global row limit, truncating the final batch when necessary.
type DataSourceExec struct {
	conf      FileScanConfig
	projected *arrow.Schema
	logger    *zap.Logger
}

// Schema returns the projected output schema.
func (e *DataSourceExec) Schema() *arrow.Schema {
	return e.projected
}

// Execute starts the scan. Objects are opened lazily, one at a time.
func (e *DataSourceExec) Execute(ctx context.Context) (RecordReader, error) {
	remaining := e.conf.Limit
	if e.conf.Limit <= 0 {
		remaining = -1
	}

	return &scanReader{
		ctx:       ctx,
		conf:      e.conf,
		projected: e.projected,
		remaining: remaining,
		logger:    e.logger,
		start:     time.Now(),
	}, nil
}

type scanReader struct {
	ctx       context.Context
	conf      FileScanConfig
	projected *arrow.Schema
	current   RecordReader
	nextObj   int
	remaining int64 // -1 means unlimited
	done      bool
	logger    *zap.Logger
	start     time.Time
}

func (r *scanReader) Schema() *arrow.Schema {
	return r.projected
}

func (r *scanReader) Next() (arrow.Record, error) {
	for {
		if r.done {
			return nil, io.EOF
		}
		if err := r.ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeStorage, "scan canceled")
		}

		if r.current == nil {
			if r.nextObj >= len(r.conf.Objects) {
				r.finish()
				return nil, io.EOF
			}
			object := r.conf.Objects[r.nextObj]
			r.nextObj++

			reader, err := r.conf.source.Open(r.ctx, r.conf.Store, object, r.conf.Schema, r.conf.Projection, r.conf.BatchSize)
			if err != nil {
				return nil, err
			}
			metrics.ObjectsScanned.WithLabelValues(r.conf.source.Format()).Inc()
			r.current = reader
		}

		rec, err := r.current.Next()
		if err == io.EOF {
			_ = r.current.Close()
			r.current = nil
			continue
		}
		if err != nil {
			return nil, err
		}

		if r.remaining >= 0 {
			if rec.NumRows() > r.remaining {
				sliced := rec.NewSlice(0, r.remaining)
				rec.Release()
				rec = sliced
			}
			r.remaining -= rec.NumRows()
			if r.remaining == 0 {
				// Limit reached; skip any unread objects.
				_ = r.current.Close()
				r.current = nil
				r.finish()
			}
		}

		metrics.RowsScanned.WithLabelValues(r.conf.source.Format()).Add(float64(rec.NumRows()))
		return rec, nil
	}
}

func (r *scanReader) finish() {
	if !r.done {
		r.done = true
		metrics.ScanLatency.WithLabelValues(r.conf.source.Format()).Observe(float64(time.Since(r.start).Nanoseconds()))
	}
}

func (r *scanReader) Close() error {
	r.done = true
	if r.current != nil {
		err := r.current.Close()
		r.current = nil
		return err
	}
	return nil
}

// Collect drains a reader into a slice of batches. The caller releases the
// returned records.
func Collect(reader RecordReader) ([]arrow.Record, error) {
	var batches []arrow.Record
	for {
		rec, err := reader.Next()
		if err == io.EOF {
			return batches, nil
		}
		if err != nil {
			for _, b := range batches {
				b.Release()
			}
			return nil, err
		}
		batches = append(batches, rec)
	}
}
