package plan

import (
	"context"
	"io"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
)

var testSchema = arrow.NewSchema([]arrow.Field{
	{Name: "seq", Type: arrow.PrimitiveTypes.Int64},
	{Name: "tag", Type: arrow.BinaryTypes.String},
}, nil)

// seqSource emits rowsPerObject synthetic rows per object, numbered from the
// object's position in the scan.
type seqSource struct {
	rowsPerObject int
}

func (s *seqSource) Format() string { return "seq" }

func (s *seqSource) Open(_ context.Context, _ objectstore.Store, object objectstore.ObjectMeta,
	tableSchema *arrow.Schema, projection []int, batchSize int) (RecordReader, error) {
	return &seqReader{
		schema:    tableSchema,
		remaining: s.rowsPerObject,
		batchSize: batchSize,
	}, nil
}

type seqReader struct {
	schema    *arrow.Schema
	remaining int
	batchSize int
	next      int64
}

func (r *seqReader) Schema() *arrow.Schema { return r.schema }

func (r *seqReader) Next() (arrow.Record, error) {
	if r.remaining == 0 {
		return nil, io.EOF
	}

	n := r.batchSize
	if n > r.remaining {
		n = r.remaining
	}

	builder := array.NewRecordBuilder(memory.NewGoAllocator(), r.schema)
	defer builder.Release()

	for i := 0; i < n; i++ {
		builder.Field(0).(*array.Int64Builder).Append(r.next)
		builder.Field(1).(*array.StringBuilder).Append("x")
		r.next++
	}
	r.remaining -= n

	return builder.NewRecord(), nil
}

func (r *seqReader) Close() error { return nil }

func objects(n int) []objectstore.ObjectMeta {
	metas := make([]objectstore.ObjectMeta, n)
	for i := range metas {
		metas[i] = objectstore.ObjectMeta{Location: "obj"}
	}
	return metas
}

func execute(t *testing.T, conf FileScanConfig) []arrow.Record {
	t.Helper()

	node, err := conf.Build()
	require.NoError(t, err)

	reader, err := node.Execute(context.Background())
	require.NoError(t, err)
	defer func() { require.NoError(t, reader.Close()) }()

	batches, err := Collect(reader)
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, b := range batches {
			b.Release()
		}
	})
	return batches
}

func TestBuildValidation(t *testing.T) {
	store := objectstore.NewMemoryStore()

	_, err := NewFileScanConfig(store, testSchema, nil).Build()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypePlan))

	_, err = NewFileScanConfig(nil, testSchema, nil).WithSource(&seqSource{}).Build()
	require.Error(t, err)

	_, err = NewFileScanConfig(store, nil, nil).WithSource(&seqSource{}).Build()
	require.Error(t, err)
}

func TestScanAllObjects(t *testing.T) {
	conf := NewFileScanConfig(objectstore.NewMemoryStore(), testSchema, objects(3)).
		WithSource(&seqSource{rowsPerObject: 5}).
		WithBatchSize(10)

	batches := execute(t, conf)

	total := int64(0)
	for _, b := range batches {
		total += b.NumRows()
	}
	assert.EqualValues(t, 15, total)
}

func TestLimitTruncatesFinalBatch(t *testing.T) {
	conf := NewFileScanConfig(objectstore.NewMemoryStore(), testSchema, objects(1)).
		WithSource(&seqSource{rowsPerObject: 10}).
		WithBatchSize(4).
		WithLimit(6)

	batches := execute(t, conf)
	require.Len(t, batches, 2)
	assert.EqualValues(t, 4, batches[0].NumRows())
	assert.EqualValues(t, 2, batches[1].NumRows())

	seqs := batches[1].Column(0).(*array.Int64)
	assert.Equal(t, int64(4), seqs.Value(0))
	assert.Equal(t, int64(5), seqs.Value(1))
}

func TestLimitStopsBeforeLaterObjects(t *testing.T) {
	conf := NewFileScanConfig(objectstore.NewMemoryStore(), testSchema, objects(4)).
		WithSource(&seqSource{rowsPerObject: 5}).
		WithBatchSize(10).
		WithLimit(5)

	batches := execute(t, conf)
	require.Len(t, batches, 1)
	assert.EqualValues(t, 5, batches[0].NumRows())
}

func TestProjectedSchema(t *testing.T) {
	conf := NewFileScanConfig(objectstore.NewMemoryStore(), testSchema, objects(1)).
		WithSource(&seqSource{rowsPerObject: 1}).
		WithProjection([]int{1})

	node, err := conf.Build()
	require.NoError(t, err)
	require.Equal(t, 1, len(node.Schema().Fields()))
	assert.Equal(t, "tag", node.Schema().Field(0).Name)
}

func TestExecuteCanceledContext(t *testing.T) {
	conf := NewFileScanConfig(objectstore.NewMemoryStore(), testSchema, objects(1)).
		WithSource(&seqSource{rowsPerObject: 5})

	node, err := conf.Build()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reader, err := node.Execute(ctx)
	require.NoError(t, err)
	defer func() { _ = reader.Close() }()

	_, err = reader.Next()
	require.Error(t, err)
	assert.NotEqual(t, io.EOF, err)
}

func TestReaderCloseIsTerminal(t *testing.T) {
	conf := NewFileScanConfig(objectstore.NewMemoryStore(), testSchema, objects(1)).
		WithSource(&seqSource{rowsPerObject: 5})

	node, err := conf.Build()
	require.NoError(t, err)

	reader, err := node.Execute(context.Background())
	require.NoError(t, err)
	require.NoError(t, reader.Close())

	_, err = reader.Next()
	assert.Equal(t, io.EOF, err)
}
