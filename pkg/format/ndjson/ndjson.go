// Package ndjson implements the newline-delimited JSON file-format adapter.
// NDJSON files carry no embedded schema, so inference samples a bounded
// number of rows per file and guesses field types; unlike Avro, the format
// has a naming convention for every supported compression variant.
package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/compression"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/format"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/metrics"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/plan"
	"github.com/ajitpratap0/quasar/pkg/schema"
	"github.com/ajitpratap0/quasar/pkg/stats"
)

// Extension is the canonical bare file extension for NDJSON files.
const Extension = "json"

// DefaultInferMaxRecords bounds the rows sampled per file during schema
// inference.
const DefaultInferMaxRecords = 1000

// Factory creates Format instances from table-level options.
type Factory struct{}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Create builds an adapter from format options. Recognized options:
// "compression" (a compression.Type name) and "infer_max_records".
func (f *Factory) Create(options map[string]string) (format.FileFormat, error) {
	out := &Format{
		compression:     compression.Uncompressed,
		inferMaxRecords: DefaultInferMaxRecords,
	}

	if raw, ok := options["compression"]; ok {
		t, err := compression.Parse(raw)
		if err != nil {
			return nil, err
		}
		out.compression = t
	}

	if raw, ok := options["infer_max_records"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, errors.Newf(errors.ErrorTypeConfig, "invalid infer_max_records %q", raw)
		}
		out.inferMaxRecords = n
	}

	return out, nil
}

// Default returns an adapter with default options.
func (f *Factory) Default() format.FileFormat {
	return &Format{
		compression:     compression.Uncompressed,
		inferMaxRecords: DefaultInferMaxRecords,
	}
}

// Ext returns the canonical bare extension.
func (f *Factory) Ext() string {
	return Extension
}

// Format is the NDJSON FileFormat implementation. Instances are immutable
// after construction and safe for concurrent reuse.
type Format struct {
	compression     compression.Type
	inferMaxRecords int
}

// Ext delegates to the factory's canonical extension.
func (f *Format) Ext() string {
	return NewFactory().Ext()
}

// ExtWithCompression returns the extension including the compression suffix.
func (f *Format) ExtWithCompression(t compression.Type) (string, error) {
	ext := f.Ext()
	if t.IsCompressed() {
		return ext + "." + t.Extension(), nil
	}
	return ext, nil
}

// InferSchema samples rows from every object, infers a per-file schema, and
// merges the results. The first read, parse, or merge failure aborts.
func (f *Format) InferSchema(ctx context.Context, store objectstore.Store, objects []objectstore.ObjectMeta) (*arrow.Schema, error) {
	start := time.Now()

	schemas := make([]*arrow.Schema, 0, len(objects))
	for _, object := range objects {
		fileSchema, err := f.inferObjectSchema(ctx, store, object)
		if err != nil {
			metrics.SchemasInferred.WithLabelValues(Extension, "failure").Inc()
			return nil, err
		}
		schemas = append(schemas, fileSchema)
		metrics.ObjectsRead.WithLabelValues(Extension).Inc()
	}

	merged, err := schema.Merge(schemas)
	if err != nil {
		metrics.SchemasInferred.WithLabelValues(Extension, "failure").Inc()
		return nil, err
	}

	metrics.SchemasInferred.WithLabelValues(Extension, "success").Inc()
	metrics.InferenceLatency.WithLabelValues(Extension).Observe(float64(time.Since(start).Nanoseconds()))

	logger.WithContext(ctx).Debug("inferred ndjson table schema",
		zap.Int("objects", len(objects)),
		zap.Int("fields", len(merged.Fields())))

	return merged, nil
}

func (f *Format) inferObjectSchema(ctx context.Context, store objectstore.Store, object objectstore.ObjectMeta) (*arrow.Schema, error) {
	result, err := store.Get(ctx, object.Location)
	if err != nil {
		return nil, err
	}
	defer func() { _ = result.Close() }()

	var src io.Reader
	if file, ok := result.File(); ok {
		src = file
	} else {
		stream, _ := result.Stream()
		src = stream
	}

	reader, err := f.compression.WrapReader(src)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	guesses := make(map[string]*fieldGuess)
	var order []string
	rows := 0

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for rows < f.inferMaxRecords && scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := inferLine(line, guesses, &order); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeParse, "failed to parse object %s", object.Location)
		}
		rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to read object %s", object.Location)
	}
	if rows == 0 {
		return nil, errors.Newf(errors.ErrorTypeParse, "object %s has no rows to infer a schema from", object.Location)
	}

	fields := make([]arrow.Field, 0, len(order))
	for _, name := range order {
		g := guesses[name]
		fields = append(fields, arrow.Field{
			Name:     name,
			Type:     g.arrowType(),
			Nullable: g.nullable || g.count < rows,
		})
	}
	return arrow.NewSchema(fields, nil), nil
}

// InferStats returns the unknown-statistics shape; row counts would require a
// full parse pass.
func (f *Format) InferStats(_ context.Context, _ objectstore.Store, tableSchema *arrow.Schema, _ objectstore.ObjectMeta) (stats.Statistics, error) {
	return stats.NewUnknown(tableSchema), nil
}

// CreatePhysicalPlan attaches the NDJSON file source to the scan
// configuration. The filter is ignored; NDJSON has no predicate pushdown.
func (f *Format) CreatePhysicalPlan(ctx context.Context, conf plan.FileScanConfig, filter plan.PhysicalExpr) (plan.ExecutionPlan, error) {
	if filter != nil {
		logger.WithContext(ctx).Debug("ndjson scan ignores filter expression",
			zap.String("filter", filter.String()))
	}
	return conf.WithSource(f.FileSource()).Build()
}

// FileSource returns a fresh NDJSON data source carrying the format's
// compression setting.
func (f *Format) FileSource() plan.FileSource {
	return NewSource(f.compression)
}

// fieldGuess accumulates type observations for one field.
type fieldGuess struct {
	kind     guessKind
	nullable bool
	count    int
}

type guessKind int

const (
	kindUnknown guessKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
)

func (g *fieldGuess) arrowType() arrow.DataType {
	switch g.kind {
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	default:
		return arrow.BinaryTypes.String
	}
}

func (g *fieldGuess) observe(v interface{}) {
	if v == nil {
		g.nullable = true
		return
	}

	var observed guessKind
	switch val := v.(type) {
	case bool:
		observed = kindBool
	case json.Number:
		if _, err := strconv.ParseInt(val.String(), 10, 64); err == nil {
			observed = kindInt
		} else {
			observed = kindFloat
		}
	case string:
		observed = kindString
	default:
		// Nested arrays and objects are carried as their JSON text.
		observed = kindString
	}

	switch {
	case g.kind == kindUnknown:
		g.kind = observed
	case g.kind == observed:
	case (g.kind == kindInt && observed == kindFloat) || (g.kind == kindFloat && observed == kindInt):
		g.kind = kindFloat
	default:
		g.kind = kindString
	}
}

func inferLine(line []byte, guesses map[string]*fieldGuess, order *[]string) error {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var row map[string]interface{}
	if err := dec.Decode(&row); err != nil {
		return err
	}

	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		g, seen := guesses[key]
		if !seen {
			g = &fieldGuess{}
			guesses[key] = g
			*order = append(*order, key)
		}
		g.observe(row[key])
		g.count++
	}
	return nil
}

func init() {
	if err := format.Register(NewFactory()); err != nil {
		logger.Error("failed to register ndjson format", zap.Error(err))
	}
}
