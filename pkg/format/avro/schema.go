//go:build !noavro

package avro

import (
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	json "github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"

	"github.com/ajitpratap0/quasar/pkg/errors"
)

// readAvroSchema opens the object container header and converts the embedded
// writer schema to an Arrow schema. The record payload is not decoded.
func readAvroSchema(r io.Reader) (*arrow.Schema, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to open avro object container")
	}
	return arrowSchemaFromAvro(ocf.Codec().Schema())
}

// arrowSchemaFromAvro converts an Avro record schema (JSON text) to Arrow.
func arrowSchemaFromAvro(schemaJSON string) (*arrow.Schema, error) {
	var root interface{}
	if err := json.Unmarshal([]byte(schemaJSON), &root); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "malformed avro schema JSON")
	}

	record, ok := root.(map[string]interface{})
	if !ok || record["type"] != "record" {
		return nil, errors.New(errors.ErrorTypeParse, "top-level avro schema must be a record")
	}

	rawFields, ok := record["fields"].([]interface{})
	if !ok {
		return nil, errors.New(errors.ErrorTypeParse, "avro record schema has no fields")
	}

	fields := make([]arrow.Field, 0, len(rawFields))
	for _, raw := range rawFields {
		fieldMap, ok := raw.(map[string]interface{})
		if !ok {
			return nil, errors.New(errors.ErrorTypeParse, "malformed avro record field")
		}
		name, ok := fieldMap["name"].(string)
		if !ok {
			return nil, errors.New(errors.ErrorTypeParse, "avro record field has no name")
		}

		dataType, nullable, err := arrowTypeFromAvro(fieldMap["type"])
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeParse, "field %q", name)
		}

		fields = append(fields, arrow.Field{Name: name, Type: dataType, Nullable: nullable})
	}

	return arrow.NewSchema(fields, nil), nil
}

// arrowTypeFromAvro maps one Avro type declaration to an Arrow data type and
// a nullability flag. Unions are supported only in the ["null", T] form; the
// engine's merge and decode paths have no representation for general unions.
func arrowTypeFromAvro(t interface{}) (arrow.DataType, bool, error) {
	switch v := t.(type) {
	case string:
		dt, err := primitiveArrowType(v)
		return dt, false, err

	case map[string]interface{}:
		baseType, _ := v["type"].(string)

		if logical, ok := v["logicalType"].(string); ok {
			dt, err := logicalArrowType(baseType, logical)
			return dt, false, err
		}

		switch baseType {
		case "fixed":
			size, ok := v["size"].(float64)
			if !ok {
				return nil, false, errors.New(errors.ErrorTypeParse, "avro fixed type has no size")
			}
			return &arrow.FixedSizeBinaryType{ByteWidth: int(size)}, false, nil
		case "enum":
			return arrow.BinaryTypes.String, false, nil
		case "":
			return nil, false, errors.New(errors.ErrorTypeParse, "avro type declaration has no type")
		default:
			dt, err := primitiveArrowType(baseType)
			return dt, false, err
		}

	case []interface{}:
		nullable := false
		var branches []interface{}
		for _, branch := range v {
			if s, ok := branch.(string); ok && s == "null" {
				nullable = true
				continue
			}
			branches = append(branches, branch)
		}
		if len(branches) != 1 {
			return nil, false, errors.Newf(errors.ErrorTypeParse, "unsupported avro union with %d non-null branches", len(branches))
		}
		dt, branchNullable, err := arrowTypeFromAvro(branches[0])
		return dt, nullable || branchNullable, err

	default:
		return nil, false, errors.Newf(errors.ErrorTypeParse, "unsupported avro type declaration %T", t)
	}
}

func primitiveArrowType(name string) (arrow.DataType, error) {
	switch name {
	case "boolean":
		return arrow.FixedWidthTypes.Boolean, nil
	case "int":
		return arrow.PrimitiveTypes.Int32, nil
	case "long":
		return arrow.PrimitiveTypes.Int64, nil
	case "float":
		return arrow.PrimitiveTypes.Float32, nil
	case "double":
		return arrow.PrimitiveTypes.Float64, nil
	case "bytes":
		return arrow.BinaryTypes.Binary, nil
	case "string":
		return arrow.BinaryTypes.String, nil
	case "null":
		return arrow.Null, nil
	default:
		// record, array, and map need a nested columnar representation the
		// engine does not model; failing here keeps inference all-or-nothing.
		return nil, errors.Newf(errors.ErrorTypeParse, "unsupported avro type %q", name)
	}
}

func logicalArrowType(baseType, logical string) (arrow.DataType, error) {
	switch logical {
	case "date":
		return arrow.FixedWidthTypes.Date32, nil
	case "time-millis":
		return arrow.FixedWidthTypes.Time32ms, nil
	case "time-micros":
		return arrow.FixedWidthTypes.Time64us, nil
	case "timestamp-millis":
		return arrow.FixedWidthTypes.Timestamp_ms, nil
	case "timestamp-micros":
		return arrow.FixedWidthTypes.Timestamp_us, nil
	default:
		// Unknown logical types fall back to their base representation.
		return primitiveArrowType(baseType)
	}
}
