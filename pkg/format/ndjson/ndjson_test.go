package ndjson

import (
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/compression"
	"github.com/ajitpratap0/quasar/pkg/errors"
	"github.com/ajitpratap0/quasar/pkg/format"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/plan"
)

const sampleLines = `{"id": 1, "name": "mercury", "mass": 0.055, "inner": true}
{"id": 2, "name": "venus", "mass": 0.815, "inner": true}
{"id": 3, "name": "earth", "mass": 1.0, "inner": true, "moons": 1}
`

func defaultFormat(t *testing.T) format.FileFormat {
	t.Helper()
	ff, err := NewFactory().Create(nil)
	require.NoError(t, err)
	return ff
}

func TestFactoryRegistered(t *testing.T) {
	require.True(t, format.Has(Extension))

	factory, err := format.Get(Extension)
	require.NoError(t, err)
	assert.Equal(t, "json", factory.Ext())
}

func TestFactoryOptions(t *testing.T) {
	_, err := NewFactory().Create(map[string]string{"compression": "gzip"})
	require.NoError(t, err)

	_, err = NewFactory().Create(map[string]string{"compression": "brotli"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewFactory().Create(map[string]string{"infer_max_records": "50"})
	require.NoError(t, err)

	_, err = NewFactory().Create(map[string]string{"infer_max_records": "zero"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = NewFactory().Create(map[string]string{"infer_max_records": "-1"})
	require.Error(t, err)
}

func TestExtWithCompression(t *testing.T) {
	tests := []struct {
		typ  compression.Type
		want string
	}{
		{compression.Uncompressed, "json"},
		{compression.Gzip, "json.gz"},
		{compression.Zstd, "json.zst"},
		{compression.Snappy, "json.sz"},
		{compression.LZ4, "json.lz4"},
		{compression.Bzip2, "json.bz2"},
		{compression.Deflate, "json.zz"},
	}
	for _, tt := range tests {
		got, err := defaultFormat(t).ExtWithCompression(tt.typ)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestInferSchema(t *testing.T) {
	store := objectstore.NewMemoryStore()
	meta := store.Put("planets.json", []byte(sampleLines))

	inferred, err := defaultFormat(t).InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.NoError(t, err)

	byName := make(map[string]arrow.Field)
	for _, f := range inferred.Fields() {
		byName[f.Name] = f
	}

	require.Len(t, byName, 5)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, byName["id"].Type))
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, byName["name"].Type))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, byName["mass"].Type))
	assert.True(t, arrow.TypeEqual(arrow.FixedWidthTypes.Boolean, byName["inner"].Type))
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Int64, byName["moons"].Type))

	// moons appears in one of three rows, so it must be nullable.
	assert.True(t, byName["moons"].Nullable)
	assert.False(t, byName["id"].Nullable)
}

func TestInferSchemaIntThenFloatWidens(t *testing.T) {
	store := objectstore.NewMemoryStore()
	meta := store.Put("m.json", []byte("{\"v\": 1}\n{\"v\": 1.5}\n"))

	inferred, err := defaultFormat(t).InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Float64, inferred.Field(0).Type))
}

func TestInferSchemaMixedKindsFallBackToString(t *testing.T) {
	store := objectstore.NewMemoryStore()
	meta := store.Put("m.json", []byte("{\"v\": 1}\n{\"v\": \"one\"}\n"))

	inferred, err := defaultFormat(t).InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.NoError(t, err)
	assert.True(t, arrow.TypeEqual(arrow.BinaryTypes.String, inferred.Field(0).Type))
}

func TestInferSchemaEmptyObject(t *testing.T) {
	store := objectstore.NewMemoryStore()
	meta := store.Put("empty.json", nil)

	_, err := defaultFormat(t).InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
}

func TestInferStatsUnknown(t *testing.T) {
	tableSchema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
	}, nil)

	got, err := defaultFormat(t).InferStats(context.Background(), nil, tableSchema, objectstore.ObjectMeta{})
	require.NoError(t, err)
	assert.False(t, got.NumRows.IsKnown())
	require.Len(t, got.Columns, 1)
}

func scanAll(t *testing.T, ff format.FileFormat, store objectstore.Store, objects []objectstore.ObjectMeta,
	tableSchema *arrow.Schema, projection []int, limit int64) []arrow.Record {
	t.Helper()

	conf := plan.NewFileScanConfig(store, tableSchema, objects).
		WithProjection(projection).
		WithLimit(limit).
		WithBatchSize(1024)

	node, err := ff.CreatePhysicalPlan(context.Background(), conf, nil)
	require.NoError(t, err)

	reader, err := node.Execute(context.Background())
	require.NoError(t, err)
	defer func() { require.NoError(t, reader.Close()) }()

	batches, err := plan.Collect(reader)
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, b := range batches {
			b.Release()
		}
	})
	return batches
}

func TestScan(t *testing.T) {
	store := objectstore.NewMemoryStore()
	meta := store.Put("planets.json", []byte(sampleLines))
	ff := defaultFormat(t)

	tableSchema, err := ff.InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.NoError(t, err)

	batches := scanAll(t, ff, store, []objectstore.ObjectMeta{meta}, tableSchema, nil, 0)
	require.Len(t, batches, 1)

	rec := batches[0]
	require.EqualValues(t, 3, rec.NumRows())

	nameIdx := -1
	moonsIdx := -1
	for i, f := range rec.Schema().Fields() {
		switch f.Name {
		case "name":
			nameIdx = i
		case "moons":
			moonsIdx = i
		}
	}
	require.GreaterOrEqual(t, nameIdx, 0)
	require.GreaterOrEqual(t, moonsIdx, 0)

	names := rec.Column(nameIdx).(*array.String)
	assert.Equal(t, "mercury", names.Value(0))
	assert.Equal(t, "venus", names.Value(1))
	assert.Equal(t, "earth", names.Value(2))

	moons := rec.Column(moonsIdx).(*array.Int64)
	assert.True(t, moons.IsNull(0))
	assert.True(t, moons.IsNull(1))
	assert.Equal(t, int64(1), moons.Value(2))
}

func TestScanLimit(t *testing.T) {
	store := objectstore.NewMemoryStore()
	meta := store.Put("planets.json", []byte(sampleLines))
	ff := defaultFormat(t)

	tableSchema, err := ff.InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.NoError(t, err)

	batches := scanAll(t, ff, store, []objectstore.ObjectMeta{meta}, tableSchema, nil, 2)
	total := int64(0)
	for _, b := range batches {
		total += b.NumRows()
	}
	assert.EqualValues(t, 2, total)
}

func TestScanGzipCompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(sampleLines))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	store := objectstore.NewMemoryStore()
	meta := store.Put("planets.json.gz", buf.Bytes())

	ff, err := NewFactory().Create(map[string]string{"compression": "gzip"})
	require.NoError(t, err)

	tableSchema, err := ff.InferSchema(context.Background(), store, []objectstore.ObjectMeta{meta})
	require.NoError(t, err)

	batches := scanAll(t, ff, store, []objectstore.ObjectMeta{meta}, tableSchema, nil, 0)
	require.Len(t, batches, 1)
	assert.EqualValues(t, 3, batches[0].NumRows())
}
