package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestS3KeyMapping(t *testing.T) {
	tests := []struct {
		prefix   string
		location string
		key      string
	}{
		{"", "x.avro", "x.avro"},
		{"", "table/x.avro", "table/x.avro"},
		{"p", "x.avro", "p/x.avro"},
		{"p", "table/x.avro", "p/table/x.avro"},
		{"p/q", "x.avro", "p/q/x.avro"},
	}

	for _, tt := range tests {
		s := &S3Store{prefix: tt.prefix}
		assert.Equal(t, tt.key, s.key(tt.location), "prefix %q location %q", tt.prefix, tt.location)
		assert.Equal(t, tt.location, s.location(tt.key), "prefix %q key %q", tt.prefix, tt.key)
	}
}

// Listed locations must feed straight back into key without the prefix being
// applied twice.
func TestS3ListedLocationRoundTrips(t *testing.T) {
	s := &S3Store{prefix: "warehouse"}

	listedKey := "warehouse/events/part-0.avro"
	location := s.location(listedKey)
	assert.Equal(t, "events/part-0.avro", location)
	assert.Equal(t, listedKey, s.key(location))
}
