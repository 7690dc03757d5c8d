// Package compression defines the file compression variants a scan engine
// accepts and provides streaming decompression for the formats that support
// compressed files.
//
// # Overview
//
// The compression package provides:
//   - The Type enum shared by every file format adapter
//   - Canonical file-extension suffixes per variant
//   - Streaming reader wrapping for decompression (Gzip, Deflate, Bzip2,
//     Snappy, LZ4, Zstd)
//
// Whether a given variant is accepted is a per-format policy: a format that
// has no compressed-file naming convention must reject every variant except
// Uncompressed instead of inheriting a shared default.
//
// # Basic Usage
//
//	t, err := compression.Parse("gzip")
//	r, err := t.WrapReader(file)
//	defer r.Close()
package compression

import (
	"compress/bzip2"
	"compress/flate"
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/quasar/pkg/errors"
)

// Type represents a file compression variant.
type Type string

const (
	// Uncompressed represents no compression
	Uncompressed Type = "uncompressed"
	// Gzip represents gzip compression
	Gzip Type = "gzip"
	// Deflate represents raw deflate compression
	Deflate Type = "deflate"
	// Bzip2 represents bzip2 compression
	Bzip2 Type = "bzip2"
	// Snappy represents snappy stream compression
	Snappy Type = "snappy"
	// LZ4 represents lz4 frame compression
	LZ4 Type = "lz4"
	// Zstd represents zstandard compression
	Zstd Type = "zstd"
)

// Parse converts a string into a Type.
func Parse(s string) (Type, error) {
	switch Type(s) {
	case Uncompressed, Gzip, Deflate, Bzip2, Snappy, LZ4, Zstd:
		return Type(s), nil
	case "", "none":
		return Uncompressed, nil
	default:
		return Uncompressed, errors.Newf(errors.ErrorTypeConfig, "unknown compression type %q", s)
	}
}

// Extension returns the file-extension suffix for the variant, without a
// leading dot. Uncompressed has no suffix.
func (t Type) Extension() string {
	switch t {
	case Gzip:
		return "gz"
	case Deflate:
		return "zz"
	case Bzip2:
		return "bz2"
	case Snappy:
		return "sz"
	case LZ4:
		return "lz4"
	case Zstd:
		return "zst"
	default:
		return ""
	}
}

// IsCompressed returns true for every variant except Uncompressed.
func (t Type) IsCompressed() bool {
	return t != Uncompressed && t != ""
}

// WrapReader wraps r with a streaming decompressor for the variant. The
// returned closer must be closed by the caller; for Uncompressed the input
// is passed through with a no-op close.
func (t Type) WrapReader(r io.Reader) (io.ReadCloser, error) {
	switch t {
	case Uncompressed, "":
		return io.NopCloser(r), nil
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open gzip stream")
		}
		return gr, nil
	case Deflate:
		return flate.NewReader(r), nil
	case Bzip2:
		return io.NopCloser(bzip2.NewReader(r)), nil
	case Snappy:
		return io.NopCloser(snappy.NewReader(r)), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to open zstd stream")
		}
		return zr.IOReadCloser(), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown compression type %q", string(t))
	}
}

// Types returns every supported variant, Uncompressed first.
func Types() []Type {
	return []Type{Uncompressed, Gzip, Deflate, Bzip2, Snappy, LZ4, Zstd}
}
