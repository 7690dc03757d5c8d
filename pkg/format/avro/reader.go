//go:build !noavro

package avro

import (
	"io"
	"math"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/plan"
	"github.com/ajitpratap0/quasar/pkg/schema"
)

// ocfRecordReader decodes an Avro object container into Arrow batches.
type ocfRecordReader struct {
	projected *arrow.Schema
	ocf       *goavro.OCFReader
	closer    io.Closer
	builder   *array.RecordBuilder
	batchSize int
	done      bool
}

func newOCFRecordReader(r io.Reader, closer io.Closer, tableSchema *arrow.Schema, projection []int, batchSize int) (plan.RecordReader, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to open avro object container")
	}

	projected, err := schema.Project(tableSchema, projection)
	if err != nil {
		return nil, err
	}

	if batchSize <= 0 {
		batchSize = plan.DefaultBatchSize
	}

	return &ocfRecordReader{
		projected: projected,
		ocf:       ocf,
		closer:    closer,
		builder:   array.NewRecordBuilder(memory.NewGoAllocator(), projected),
		batchSize: batchSize,
	}, nil
}

func (r *ocfRecordReader) Schema() *arrow.Schema {
	return r.projected
}

func (r *ocfRecordReader) Next() (arrow.Record, error) {
	if r.done {
		return nil, io.EOF
	}

	rows := 0
	for rows < r.batchSize && r.ocf.Scan() {
		datum, err := r.ocf.Read()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to decode avro record")
		}

		native, ok := datum.(map[string]interface{})
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "avro datum is %T, not a record", datum)
		}

		for i, field := range r.projected.Fields() {
			if err := appendDatum(r.builder.Field(i), field, native[field.Name]); err != nil {
				return nil, err
			}
		}
		rows++
	}

	if rows == 0 {
		r.done = true
		if err := r.ocf.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "avro container read failed")
		}
		return nil, io.EOF
	}

	return r.builder.NewRecord(), nil
}

func (r *ocfRecordReader) Close() error {
	r.done = true
	r.builder.Release()
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// appendDatum appends one decoded Avro value to the column builder. Union
// values arrive wrapped in a single-entry map keyed by branch name; a nil
// datum or a nil union branch is a null.
func appendDatum(b array.Builder, field arrow.Field, v interface{}) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	if wrapped, ok := v.(map[string]interface{}); ok && len(wrapped) == 1 {
		for _, inner := range wrapped {
			v = inner
		}
		if v == nil {
			b.AppendNull()
			return nil
		}
	}

	switch builder := b.(type) {
	case *array.BooleanBuilder:
		if val, ok := v.(bool); ok {
			builder.Append(val)
			return nil
		}

	case *array.Int32Builder:
		switch val := v.(type) {
		case int32:
			builder.Append(val)
			return nil
		case int64:
			if val < math.MinInt32 || val > math.MaxInt32 {
				return errors.Newf(errors.ErrorTypeData, "avro value %d overflows int32 field %q", val, field.Name)
			}
			builder.Append(int32(val))
			return nil
		case int:
			if val < math.MinInt32 || val > math.MaxInt32 {
				return errors.Newf(errors.ErrorTypeData, "avro value %d overflows int32 field %q", val, field.Name)
			}
			builder.Append(int32(val))
			return nil
		}

	case *array.Int64Builder:
		switch val := v.(type) {
		case int64:
			builder.Append(val)
			return nil
		case int32:
			builder.Append(int64(val))
			return nil
		case int:
			builder.Append(int64(val))
			return nil
		}

	case *array.Float32Builder:
		switch val := v.(type) {
		case float32:
			builder.Append(val)
			return nil
		case float64:
			builder.Append(float32(val))
			return nil
		}

	case *array.Float64Builder:
		switch val := v.(type) {
		case float64:
			builder.Append(val)
			return nil
		case float32:
			builder.Append(float64(val))
			return nil
		}

	case *array.BinaryBuilder:
		switch val := v.(type) {
		case []byte:
			builder.Append(val)
			return nil
		case string:
			builder.Append([]byte(val))
			return nil
		}

	case *array.StringBuilder:
		switch val := v.(type) {
		case string:
			builder.Append(val)
			return nil
		case []byte:
			builder.Append(string(val))
			return nil
		}

	case *array.FixedSizeBinaryBuilder:
		if val, ok := v.([]byte); ok {
			builder.Append(val)
			return nil
		}

	case *array.TimestampBuilder:
		ts, ok := field.Type.(*arrow.TimestampType)
		if !ok {
			break
		}
		switch val := v.(type) {
		case time.Time:
			switch ts.Unit {
			case arrow.Millisecond:
				builder.Append(arrow.Timestamp(val.UnixMilli()))
			default:
				builder.Append(arrow.Timestamp(val.UnixMicro()))
			}
			return nil
		case int64:
			builder.Append(arrow.Timestamp(val))
			return nil
		}

	case *array.Date32Builder:
		if val, ok := v.(time.Time); ok {
			builder.Append(arrow.Date32FromTime(val))
			return nil
		}

	case *array.Time32Builder:
		if val, ok := v.(time.Duration); ok {
			builder.Append(arrow.Time32(val.Milliseconds()))
			return nil
		}

	case *array.Time64Builder:
		if val, ok := v.(time.Duration); ok {
			builder.Append(arrow.Time64(val.Microseconds()))
			return nil
		}

	default:
		return errors.Newf(errors.ErrorTypeData, "unsupported arrow builder %T for field %q", b, field.Name)
	}

	return errors.Newf(errors.ErrorTypeData, "avro value %T does not fit field %q of type %s", v, field.Name, field.Type)
}
