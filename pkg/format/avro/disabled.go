//go:build noavro

package avro

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/plan"
)

// disabledMessage is the fixed diagnostic every schema-dependent entry point
// returns when the build excludes Avro schema reading.
const disabledMessage = "cannot read avro schema without the 'avro' feature enabled"

func readAvroSchema(io.Reader) (*arrow.Schema, error) {
	return nil, errors.New(errors.ErrorTypeCapability, disabledMessage)
}

func newOCFRecordReader(io.Reader, io.Closer, *arrow.Schema, []int, int) (plan.RecordReader, error) {
	return nil, errors.New(errors.ErrorTypeCapability, disabledMessage)
}
