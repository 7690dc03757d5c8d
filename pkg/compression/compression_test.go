package compression

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"io"
	"testing"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/quasar/pkg/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Type
	}{
		{"uncompressed", Uncompressed},
		{"", Uncompressed},
		{"none", Uncompressed},
		{"gzip", Gzip},
		{"deflate", Deflate},
		{"bzip2", Bzip2},
		{"snappy", Snappy},
		{"lz4", LZ4},
		{"zstd", Zstd},
	}
	for _, tt := range tests {
		got, err := Parse(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := Parse("brotli")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "", Uncompressed.Extension())
	assert.Equal(t, "gz", Gzip.Extension())
	assert.Equal(t, "zz", Deflate.Extension())
	assert.Equal(t, "bz2", Bzip2.Extension())
	assert.Equal(t, "sz", Snappy.Extension())
	assert.Equal(t, "lz4", LZ4.Extension())
	assert.Equal(t, "zst", Zstd.Extension())
}

func TestIsCompressed(t *testing.T) {
	assert.False(t, Uncompressed.IsCompressed())
	for _, typ := range Types() {
		if typ == Uncompressed {
			continue
		}
		assert.True(t, typ.IsCompressed(), string(typ))
	}
}

func TestWrapReaderRoundTrips(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog\n"), 64)

	compressors := map[Type]func(w io.Writer) io.WriteCloser{
		Gzip: func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) },
		Deflate: func(w io.Writer) io.WriteCloser {
			fw, err := flate.NewWriter(w, flate.DefaultCompression)
			require.NoError(t, err)
			return fw
		},
		Snappy: func(w io.Writer) io.WriteCloser { return snappy.NewBufferedWriter(w) },
		LZ4:    func(w io.Writer) io.WriteCloser { return lz4.NewWriter(w) },
		Zstd: func(w io.Writer) io.WriteCloser {
			zw, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return zw
		},
	}

	for typ, compress := range compressors {
		t.Run(string(typ), func(t *testing.T) {
			var buf bytes.Buffer
			w := compress(&buf)
			_, err := w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := typ.WrapReader(&buf)
			require.NoError(t, err)
			defer func() { require.NoError(t, r.Close()) }()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestWrapReaderUncompressedPassthrough(t *testing.T) {
	r, err := Uncompressed.WrapReader(bytes.NewReader([]byte("plain")))
	require.NoError(t, err)
	defer func() { require.NoError(t, r.Close()) }()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), got)
}
