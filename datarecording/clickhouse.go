package datarecording

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/fatih/structs"
	"github.com/tebeka/atexit"
)

// ClickHouseOptions locates a ClickHouse server.
type ClickHouseOptions struct {
	Addr      string
	Database  string
	Username  string
	Password  string
	BatchSize int
}

// ClickHouseOptionsFromEnv reads the COHFABRIC_CLICKHOUSE_ADDR, _DATABASE,
// _USERNAME and _PASSWORD variables. The address defaults to
// localhost:9000 and the database to "default".
func ClickHouseOptionsFromEnv() ClickHouseOptions {
	opts := ClickHouseOptions{
		Addr:     os.Getenv("COHFABRIC_CLICKHOUSE_ADDR"),
		Database: os.Getenv("COHFABRIC_CLICKHOUSE_DATABASE"),
		Username: os.Getenv("COHFABRIC_CLICKHOUSE_USERNAME"),
		Password: os.Getenv("COHFABRIC_CLICKHOUSE_PASSWORD"),
	}

	if opts.Addr == "" {
		opts.Addr = "localhost:9000"
	}

	if opts.Database == "" {
		opts.Database = "default"
	}

	return opts
}

// NewClickHouse creates a DataRecorder that writes to a ClickHouse server.
// Buffered entries are flushed when the program exits through atexit.
func NewClickHouse(opts ClickHouseOptions) (DataRecorder, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = defaultBatchSize
	}

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		DialTimeout: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	w := &clickhouseWriter{
		conn:      conn,
		batchSize: opts.BatchSize,
		tables:    make(map[string]*table),
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

type clickhouseWriter struct {
	mu sync.Mutex

	conn       clickhouse.Conn
	tables     map[string]*table
	tableOrder []string
	batchSize  int
	entryCount int
}

var clickhouseTypes = map[reflect.Kind]string{
	reflect.Bool:    "Bool",
	reflect.Int:     "Int64",
	reflect.Int8:    "Int8",
	reflect.Int16:   "Int16",
	reflect.Int32:   "Int32",
	reflect.Int64:   "Int64",
	reflect.Uint:    "UInt64",
	reflect.Uint8:   "UInt8",
	reflect.Uint16:  "UInt16",
	reflect.Uint32:  "UInt32",
	reflect.Uint64:  "UInt64",
	reflect.Float32: "Float32",
	reflect.Float64: "Float64",
	reflect.String:  "String",
}

// createTableSQL orders the table by its first column.
func createTableSQL(tableName string, sampleEntry any) string {
	t := reflect.TypeOf(sampleEntry)
	columns := make([]string, t.NumField())

	for i := range columns {
		f := t.Field(i)
		columns[i] = f.Name + " " + clickhouseTypes[f.Type.Kind()]
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\n"+
			"ORDER BY %s",
		tableName, strings.Join(columns, ",\n\t"), t.Field(0).Name)
}

// clickhouseValues widens int and uint fields, which have no fixed size, to
// match their Int64 and UInt64 columns.
func clickhouseValues(entry any) []any {
	values := structs.Values(entry)

	for i, v := range values {
		switch x := v.(type) {
		case int:
			values[i] = int64(x)
		case uint:
			values[i] = uint64(x)
		}
	}

	return values
}

func (w *clickhouseWriter) CreateTable(tableName string, sampleEntry any) {
	entryMustBeFlat(sampleEntry)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, found := w.tables[tableName]; found {
		panic(fmt.Sprintf("table %s already exists", tableName))
	}

	err := w.conn.Exec(context.Background(),
		createTableSQL(tableName, sampleEntry))
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	w.tables[tableName] = &table{structType: reflect.TypeOf(sampleEntry)}
	w.tableOrder = append(w.tableOrder, tableName)
}

func (w *clickhouseWriter) InsertData(tableName string, entry any) {
	w.mu.Lock()

	t, found := w.tables[tableName]
	if !found {
		w.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	if reflect.TypeOf(entry) != t.structType {
		w.mu.Unlock()
		panic(fmt.Sprintf("table %s stores %s, not %s",
			tableName, t.structType, reflect.TypeOf(entry)))
	}

	t.entries = append(t.entries, entry)
	w.entryCount++
	full := w.entryCount >= w.batchSize

	w.mu.Unlock()

	if full {
		w.Flush()
	}
}

func (w *clickhouseWriter) ListTables() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	return append([]string(nil), w.tableOrder...)
}

func (w *clickhouseWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.entryCount == 0 {
		return
	}

	ctx := context.Background()

	for _, name := range w.tableOrder {
		t := w.tables[name]
		if len(t.entries) == 0 {
			continue
		}

		batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+name)
		if err != nil {
			panic(fmt.Errorf("failed to prepare batch for %s: %w", name, err))
		}

		for _, entry := range t.entries {
			if err := batch.Append(clickhouseValues(entry)...); err != nil {
				panic(fmt.Errorf("failed to append to batch: %w", err))
			}
		}

		if err := batch.Send(); err != nil {
			panic(fmt.Errorf("failed to send batch: %w", err))
		}

		t.entries = nil
	}

	w.entryCount = 0
}
