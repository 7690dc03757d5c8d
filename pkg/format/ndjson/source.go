package ndjson

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	json "github.com/goccy/go-json"

	"github.com/ajitpratap0/quasar/pkg/compression"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/plan"
	"github.com/ajitpratap0/quasar/pkg/schema"
)

// Source is the NDJSON data-source descriptor. It carries the compression
// variant the files are stored with.
type Source struct {
	compression compression.Type
}

// NewSource creates an NDJSON file source.
func NewSource(t compression.Type) *Source {
	return &Source{compression: t}
}

// Format returns the format name.
func (s *Source) Format() string {
	return Extension
}

// Open decodes one NDJSON object into Arrow batches of the projected schema.
func (s *Source) Open(ctx context.Context, store objectstore.Store, object objectstore.ObjectMeta,
	tableSchema *arrow.Schema, projection []int, batchSize int) (plan.RecordReader, error) {

	projected, err := schema.Project(tableSchema, projection)
	if err != nil {
		return nil, err
	}

	result, err := store.Get(ctx, object.Location)
	if err != nil {
		return nil, err
	}

	var src io.Reader
	if file, ok := result.File(); ok {
		src = file
	} else {
		stream, _ := result.Stream()
		src = stream
	}

	decompressed, err := s.compression.WrapReader(src)
	if err != nil {
		_ = result.Close()
		return nil, err
	}

	if batchSize <= 0 {
		batchSize = plan.DefaultBatchSize
	}

	scanner := bufio.NewScanner(decompressed)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &jsonRecordReader{
		projected:    projected,
		location:     object.Location,
		result:       result,
		decompressed: decompressed,
		scanner:      scanner,
		builder:      array.NewRecordBuilder(memory.NewGoAllocator(), projected),
		batchSize:    batchSize,
	}, nil
}

type jsonRecordReader struct {
	projected    *arrow.Schema
	location     string
	result       *objectstore.GetResult
	decompressed io.ReadCloser
	scanner      *bufio.Scanner
	builder      *array.RecordBuilder
	batchSize    int
	done         bool
}

func (r *jsonRecordReader) Schema() *arrow.Schema {
	return r.projected
}

func (r *jsonRecordReader) Next() (arrow.Record, error) {
	if r.done {
		return nil, io.EOF
	}

	rows := 0
	for rows < r.batchSize && r.scanner.Scan() {
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		dec := json.NewDecoder(bytes.NewReader(line))
		dec.UseNumber()
		var row map[string]interface{}
		if err := dec.Decode(&row); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeParse, "failed to parse object %s", r.location)
		}

		for i, field := range r.projected.Fields() {
			if err := appendJSONValue(r.builder.Field(i), field, row[field.Name]); err != nil {
				return nil, err
			}
		}
		rows++
	}

	if rows == 0 {
		r.done = true
		if err := r.scanner.Err(); err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeStorage, "failed to read object %s", r.location)
		}
		return nil, io.EOF
	}

	return r.builder.NewRecord(), nil
}

func (r *jsonRecordReader) Close() error {
	r.done = true
	r.builder.Release()
	_ = r.decompressed.Close()
	return r.result.Close()
}

func appendJSONValue(b array.Builder, field arrow.Field, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch builder := b.(type) {
	case *array.BooleanBuilder:
		if val, ok := v.(bool); ok {
			builder.Append(val)
			return nil
		}

	case *array.Int64Builder:
		if num, ok := v.(json.Number); ok {
			val, err := strconv.ParseInt(num.String(), 10, 64)
			if err == nil {
				builder.Append(val)
				return nil
			}
		}

	case *array.Float64Builder:
		if num, ok := v.(json.Number); ok {
			val, err := num.Float64()
			if err == nil {
				builder.Append(val)
				return nil
			}
		}

	case *array.StringBuilder:
		if val, ok := v.(string); ok {
			builder.Append(val)
			return nil
		}
		// Nested values are carried as their JSON text.
		raw, err := json.Marshal(v)
		if err == nil {
			builder.Append(string(raw))
			return nil
		}

	default:
		return errors.Newf(errors.ErrorTypeData, "unsupported arrow builder %T for field %q", b, field.Name)
	}

	return errors.Newf(errors.ErrorTypeData, "json value %T does not fit field %q of type %s", v, field.Name, field.Type)
}
