package avro

import (
	"bytes"
	"context"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/plan"
)

// Source is the Avro data-source descriptor handed to the scan builder. It is
// stateless; Open produces an independent reader per object.
type Source struct{}

// NewSource creates an Avro file source.
func NewSource() *Source {
	return &Source{}
}

// Format returns the format name.
func (s *Source) Format() string {
	return Extension
}

// Open decodes one object container file into Arrow batches of the projected
// schema. Whole-file handles are decoded in place; streamed payloads are
// buffered fully before decoding.
func (s *Source) Open(ctx context.Context, store objectstore.Store, object objectstore.ObjectMeta,
	tableSchema *arrow.Schema, projection []int, batchSize int) (plan.RecordReader, error) {

	result, err := store.Get(ctx, object.Location)
	if err != nil {
		return nil, err
	}

	if file, ok := result.File(); ok {
		reader, err := newOCFRecordReader(file, result, tableSchema, projection, batchSize)
		if err != nil {
			_ = result.Close()
			return nil, wrapDecodeError(err, object.Location)
		}
		return reader, nil
	}

	data, err := result.Bytes()
	_ = result.Close()
	if err != nil {
		return nil, err
	}

	reader, err := newOCFRecordReader(bytes.NewReader(data), nil, tableSchema, projection, batchSize)
	if err != nil {
		return nil, wrapDecodeError(err, object.Location)
	}
	return reader, nil
}

func wrapDecodeError(err error, location string) error {
	if errors.IsType(err, errors.ErrorTypeCapability) {
		return err
	}
	return errors.Wrapf(err, errors.ErrorTypeParse, "failed to open avro object %s", location)
}
