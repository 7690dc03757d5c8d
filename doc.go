// Package quasar turns collections of self-describing data files into
// queryable logical tables. A file format adapter recognizes files by
// extension, infers a merged Arrow table schema from the schemas embedded in
// the files, reports table statistics, and assembles a streaming scan plan
// that decodes file contents into Arrow record batches.
//
// # Architecture
//
// The engine-facing seam is the format.FileFormat interface. Concrete
// adapters (Avro object container files, newline-delimited JSON) register
// themselves in a global format registry keyed by extension, so callers
// resolve an adapter from a file name without depending on the concrete
// format package.
//
// File bytes come from an objectstore.Store (local filesystem, in-memory,
// or Amazon S3). Scans are described by a plan.FileScanConfig carrying the
// object list, table schema, projection, limit, and batch size; the format
// adapter attaches its plan.FileSource and builds a plan.DataSourceExec
// node that streams batches.
//
// # Quick Start
//
// Infer a schema and scan a directory of Avro files:
//
//	import (
//	    "context"
//	    "github.com/ajitpratap0/quasar/pkg/format"
//	    _ "github.com/ajitpratap0/quasar/pkg/format/avro"
//	    "github.com/ajitpratap0/quasar/pkg/objectstore"
//	    "github.com/ajitpratap0/quasar/pkg/plan"
//	)
//
//	store := objectstore.NewLocalStore("/data")
//	objects, _ := store.List(context.Background(), "events/")
//
//	factory, _ := format.Get("avro")
//	ff := factory.Default()
//
//	tableSchema, _ := ff.InferSchema(context.Background(), store, objects)
//
//	conf := plan.NewFileScanConfig(store, tableSchema, objects).
//	    WithLimit(100)
//	node, _ := ff.CreatePhysicalPlan(context.Background(), conf, nil)
//	reader, _ := node.Execute(context.Background())
//	defer reader.Close()
//
// The quasar command wraps the same path for interactive use:
//
//	quasar schema data/*.avro
//	quasar scan data/*.avro --columns id,string_col --limit 10
package quasar
