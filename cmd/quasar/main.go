// Command quasar inspects and scans collections of data files as logical
// tables: it infers merged table schemas, reports table statistics, and
// streams table rows to stdout.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/quasar/pkg/compression"
	"github.com/ajitpratap0/quasar/pkg/config"
	"github.com/ajitpratap0/quasar/pkg/format"
	_ "github.com/ajitpratap0/quasar/pkg/format/avro"
	_ "github.com/ajitpratap0/quasar/pkg/format/ndjson"
	"github.com/ajitpratap0/quasar/pkg/logger"
	"github.com/ajitpratap0/quasar/pkg/objectstore"
	"github.com/ajitpratap0/quasar/pkg/plan"
	"github.com/ajitpratap0/quasar/pkg/stats"
)

var (
	cfgFile   string
	cfg       = config.NewSessionConfig()
	limit     int64
	columns   []string
	batchSize int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quasar",
		Short: "Inspect and scan data files as logical tables",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				if err := config.Load(cfgFile, cfg); err != nil {
					return err
				}
			}
			return logger.Init(logger.Config{
				Level:       cfg.Logging.Level,
				Development: cfg.Logging.Development,
				Encoding:    cfg.Logging.Encoding,
			})
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to session config file")

	schemaCmd := &cobra.Command{
		Use:   "schema FILE...",
		Short: "Infer and print the merged table schema of the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSchema,
	}

	statsCmd := &cobra.Command{
		Use:   "stats FILE...",
		Short: "Print table statistics for the given files",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runStats,
	}

	scanCmd := &cobra.Command{
		Use:   "scan FILE...",
		Short: "Scan the given files and print rows",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runScan,
	}
	scanCmd.Flags().Int64Var(&limit, "limit", 0, "maximum rows to return (0 = unlimited)")
	scanCmd.Flags().StringSliceVar(&columns, "columns", nil, "columns to project (default all)")
	scanCmd.Flags().IntVar(&batchSize, "batch-size", 0, "rows per batch (default from config)")

	rootCmd.AddCommand(schemaCmd, statsCmd, scanCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openTable resolves the store, object metadata, and format adapter for a set
// of file locations.
func openTable(ctx context.Context, locations []string) (objectstore.Store, []objectstore.ObjectMeta, format.FileFormat, error) {
	store, err := newStore(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	objects := make([]objectstore.ObjectMeta, 0, len(locations))
	for _, loc := range locations {
		meta, err := store.Head(ctx, loc)
		if err != nil {
			return nil, nil, nil, err
		}
		objects = append(objects, meta)
	}

	ff, err := formatFor(locations[0])
	if err != nil {
		return nil, nil, nil, err
	}

	return store, objects, ff, nil
}

func newStore(ctx context.Context) (objectstore.Store, error) {
	if cfg.Storage.Backend == "s3" {
		return objectstore.NewS3Store(ctx, objectstore.S3Config{
			Bucket: cfg.Storage.Bucket,
			Prefix: cfg.Storage.Prefix,
			Region: cfg.Storage.Region,
		})
	}
	return objectstore.NewLocalStore(cfg.Storage.Root), nil
}

// formatFor picks the format adapter from a file name, peeling a compression
// suffix (data.json.gz) before matching the format extension. Formats that
// have no naming convention for the peeled variant are rejected here, before
// any planning.
func formatFor(location string) (format.FileFormat, error) {
	ext := strings.TrimPrefix(filepath.Ext(location), ".")
	variant := compression.Uncompressed

	for _, t := range compression.Types() {
		if t.IsCompressed() && t.Extension() == ext {
			variant = t
			inner := strings.TrimSuffix(location, "."+ext)
			ext = strings.TrimPrefix(filepath.Ext(inner), ".")
			break
		}
	}

	options := map[string]string{
		"infer_max_records": strconv.Itoa(cfg.Inference.MaxRecords),
	}
	if variant.IsCompressed() {
		options["compression"] = string(variant)
	}

	factory, err := format.Get(ext)
	if err != nil {
		return nil, err
	}

	ff, err := factory.Create(options)
	if err != nil {
		return nil, err
	}

	if _, err := ff.ExtWithCompression(variant); err != nil {
		return nil, err
	}
	return ff, nil
}

func runSchema(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, objects, ff, err := openTable(ctx, args)
	if err != nil {
		return err
	}

	tableSchema, err := ff.InferSchema(ctx, store, objects)
	if err != nil {
		return err
	}

	for _, field := range tableSchema.Fields() {
		nullable := ""
		if field.Nullable {
			nullable = " nullable"
		}
		fmt.Printf("%s: %s%s\n", field.Name, field.Type, nullable)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, objects, ff, err := openTable(ctx, args)
	if err != nil {
		return err
	}

	tableSchema, err := ff.InferSchema(ctx, store, objects)
	if err != nil {
		return err
	}

	for _, object := range objects {
		tableStats, err := ff.InferStats(ctx, store, tableSchema, object)
		if err != nil {
			return err
		}
		fmt.Printf("%s: rows=%s bytes=%s columns=%d\n",
			object.Location,
			formatEstimate(tableStats.NumRows),
			formatEstimate(tableStats.TotalByteSize),
			len(tableStats.Columns))
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	store, objects, ff, err := openTable(ctx, args)
	if err != nil {
		return err
	}

	tableSchema, err := ff.InferSchema(ctx, store, objects)
	if err != nil {
		return err
	}

	projection, err := resolveProjection(tableSchema, columns)
	if err != nil {
		return err
	}

	bs := batchSize
	if bs <= 0 {
		bs = cfg.Scan.BatchSize
	}

	conf := plan.NewFileScanConfig(store, tableSchema, objects).
		WithProjection(projection).
		WithLimit(limit).
		WithBatchSize(bs)

	node, err := ff.CreatePhysicalPlan(ctx, conf, nil)
	if err != nil {
		return err
	}

	reader, err := node.Execute(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = reader.Close() }()

	fmt.Println(strings.Join(fieldNames(node.Schema()), "\t"))

	rows := int64(0)
	for {
		rec, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return err
		}
		printRecord(rec)
		rows += rec.NumRows()
		rec.Release()
	}

	logger.Info("scan complete", zap.Int64("rows", rows))
	return nil
}

func resolveProjection(tableSchema *arrow.Schema, names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil
	}

	indices := make([]int, 0, len(names))
	for _, name := range names {
		found := -1
		for i, field := range tableSchema.Fields() {
			if field.Name == name {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		indices = append(indices, found)
	}
	return indices, nil
}

func fieldNames(s *arrow.Schema) []string {
	names := make([]string, 0, len(s.Fields()))
	for _, field := range s.Fields() {
		names = append(names, field.Name)
	}
	return names
}

func printRecord(rec arrow.Record) {
	for row := 0; row < int(rec.NumRows()); row++ {
		cells := make([]string, 0, int(rec.NumCols()))
		for col := 0; col < int(rec.NumCols()); col++ {
			cells = append(cells, formatValue(rec.Column(col), row))
		}
		fmt.Println(strings.Join(cells, "\t"))
	}
}

func formatValue(col arrow.Array, row int) string {
	if col.IsNull(row) {
		return "NULL"
	}
	switch c := col.(type) {
	case *array.Binary:
		return fmt.Sprintf("%x", c.Value(row))
	case *array.String:
		return c.Value(row)
	default:
		return c.ValueStr(row)
	}
}

func formatEstimate(e stats.Estimate) string {
	if !e.IsKnown() {
		return "unknown"
	}
	return fmt.Sprintf("%d (%s)", e.Value, e.Precision)
}
