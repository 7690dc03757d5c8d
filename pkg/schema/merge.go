// Package schema provides table-schema merging for multi-file data sources.
// A table's schema of record is the union of the embedded schemas of its data
// files; files may carry subsets or supersets of each other's fields, but a
// field seen in more than one file must have the same type everywhere.
package schema

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/ajitpratap0/quasar/pkg/errors"
)

// Merge combines per-file schemas into one table schema.
//
// Fields are accumulated in first-seen order across all inputs. When a field
// name recurs, the two definitions must have equal types; the merged field is
// nullable if any observation was nullable. A type disagreement is a terminal
// conflict naming the field and both definitions. An empty input is an error,
// never a silently empty schema.
func Merge(schemas []*arrow.Schema) (*arrow.Schema, error) {
	if len(schemas) == 0 {
		return nil, errors.New(errors.ErrorTypeData, "no schema to infer")
	}

	var fields []arrow.Field
	index := make(map[string]int)

	for _, s := range schemas {
		for _, f := range s.Fields() {
			pos, seen := index[f.Name]
			if !seen {
				index[f.Name] = len(fields)
				fields = append(fields, f)
				continue
			}

			existing := &fields[pos]
			if !arrow.TypeEqual(existing.Type, f.Type) {
				return nil, errors.Newf(errors.ErrorTypeConflict,
					"incompatible definitions for field %q: %s vs %s",
					f.Name, existing.Type, f.Type)
			}
			if f.Nullable {
				existing.Nullable = true
			}
		}
	}

	return arrow.NewSchema(fields, nil), nil
}

// FieldNames returns the field names of a schema in declaration order.
func FieldNames(s *arrow.Schema) []string {
	names := make([]string, 0, len(s.Fields()))
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	return names
}

// Project returns the schema restricted to the given field indices, in the
// given order.
func Project(s *arrow.Schema, indices []int) (*arrow.Schema, error) {
	if indices == nil {
		return s, nil
	}

	fields := make([]arrow.Field, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(s.Fields()) {
			return nil, errors.Newf(errors.ErrorTypePlan, "projection index %d out of range for %d fields", i, len(s.Fields()))
		}
		fields = append(fields, s.Field(i))
	}
	return arrow.NewSchema(fields, nil), nil
}
