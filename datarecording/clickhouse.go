package datarecording

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

// clickHouseBatch is the part of a ClickHouse batch the recorder uses.
type clickHouseBatch interface {
	Append(v ...any) error
	Send() error
}

// clickHouseConn is the part of a ClickHouse connection the recorder uses.
type clickHouseConn interface {
	Exec(ctx context.Context, query string) error
	PrepareBatch(ctx context.Context, query string) (clickHouseBatch, error)
	Close() error
}

type driverConn struct {
	conn clickhouse.Conn
}

func (c driverConn) Exec(ctx context.Context, query string) error {
	return c.conn.Exec(ctx, query)
}

func (c driverConn) PrepareBatch(
	ctx context.Context,
	query string,
) (clickHouseBatch, error) {
	return c.conn.PrepareBatch(ctx, query)
}

func (c driverConn) Close() error {
	return c.conn.Close()
}

// ClickHouseRecorder records the tables of an AccessRecorder into a
// ClickHouse server. Rows are converted with type switches and sent in bulk.
type ClickHouseRecorder struct {
	conn      clickHouseConn
	mu        sync.Mutex
	batchSize int

	tables     map[string]bool
	rows       map[string][][]any
	entryCount int
}

// NewClickHouseRecorder connects to a ClickHouse server.
func NewClickHouseRecorder(config RecorderConfig) DataRecorder {
	options, err := config.clickHouseOptions()
	if err != nil {
		panic(err)
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		panic(fmt.Errorf("failed to connect to ClickHouse: %w", err))
	}

	if err := conn.Ping(context.Background()); err != nil {
		panic(fmt.Errorf("failed to ping ClickHouse: %w", err))
	}

	r := newClickHouseRecorder(driverConn{conn: conn}, config.BatchSize)

	atexit.Register(func() { r.Flush() })

	return r
}

func newClickHouseRecorder(
	conn clickHouseConn,
	batchSize int,
) *ClickHouseRecorder {
	if batchSize == 0 {
		batchSize = 100000
	}

	return &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]bool),
		rows:      make(map[string][][]any),
	}
}

func clickHouseSchema(sampleEntry any) (columns, orderBy string, err error) {
	switch sampleEntry.(type) {
	case RunInfo:
		return `RunID String,
			Property String,
			Value String`, "(RunID, Property)", nil
	case AccessEntry:
		return `RunID String,
			Seq UInt64,
			PID UInt32,
			VAddr UInt64,
			VPN UInt64,
			Offset UInt64,
			Kind String,
			Outcome String,
			Reason String,
			Translated Bool,
			Frame UInt64,
			PAddr UInt64,
			Evicted Bool,
			VictimPID UInt32,
			VictimVPN UInt64`, "(RunID, Seq)", nil
	case EvictionEntry:
		return `RunID String,
			Seq UInt64,
			PID UInt32,
			VPN UInt64,
			Frame UInt64,
			Referenced Bool,
			Modified Bool`, "(RunID, Seq)", nil
	case ConfigEntry:
		return `RunID String,
			Seq UInt64,
			Change String`, "(RunID, Seq)", nil
	}

	return "", "", fmt.Errorf("unsupported entry type %T", sampleEntry)
}

func clickHouseRow(entry any) ([]any, error) {
	switch e := entry.(type) {
	case RunInfo:
		return []any{e.RunID, e.Property, e.Value}, nil
	case AccessEntry:
		return []any{
			e.RunID, e.Seq, e.PID, e.VAddr, e.VPN, e.Offset,
			e.Kind, e.Outcome, e.Reason, e.Translated,
			e.Frame, e.PAddr, e.Evicted, e.VictimPID, e.VictimVPN,
		}, nil
	case EvictionEntry:
		return []any{
			e.RunID, e.Seq, e.PID, e.VPN, e.Frame, e.Referenced, e.Modified,
		}, nil
	case ConfigEntry:
		return []any{e.RunID, e.Seq, e.Change}, nil
	}

	return nil, fmt.Errorf("unsupported entry type %T", entry)
}

// CreateTable creates a MergeTree table for one of the entry types of an
// AccessRecorder.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	columns, orderBy, err := clickHouseSchema(sampleEntry)
	if err != nil {
		panic(err)
	}

	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			%s
		) ENGINE = MergeTree()
		ORDER BY %s
	`, tableName, columns, orderBy)

	err = r.conn.Exec(context.Background(), query)
	if err != nil {
		panic(fmt.Errorf("failed to create table %s: %w", tableName, err))
	}

	r.tables[tableName] = true
}

// InsertData buffers a row. The rows are sent once the batch is full.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	if !r.tables[tableName] {
		r.mu.Unlock()
		panic(fmt.Sprintf("table %s does not exist", tableName))
	}

	row, err := clickHouseRow(entry)
	if err != nil {
		r.mu.Unlock()
		panic(err)
	}

	r.rows[tableName] = append(r.rows[tableName], row)
	r.entryCount++

	full := r.entryCount >= r.batchSize

	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the names of the tables created by the recorder.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	tables := make([]string, 0, len(r.tables))
	for name := range r.tables {
		tables = append(tables, name)
	}

	sort.Strings(tables)

	return tables
}

// Flush sends one batch per table.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for tableName, rows := range r.rows {
		if len(rows) == 0 {
			continue
		}

		r.sendBatch(ctx, tableName, rows)
		r.rows[tableName] = rows[:0]
	}

	r.entryCount = 0
}

func (r *ClickHouseRecorder) sendBatch(
	ctx context.Context,
	tableName string,
	rows [][]any,
) {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+tableName)
	if err != nil {
		panic(fmt.Errorf("failed to prepare batch for %s: %w", tableName, err))
	}

	for _, row := range rows {
		err = batch.Append(row...)
		if err != nil {
			panic(fmt.Errorf("failed to append to batch: %w", err))
		}
	}

	err = batch.Send()
	if err != nil {
		panic(fmt.Errorf("failed to send batch: %w", err))
	}
}

// Close flushes the remaining rows and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()

	err := r.conn.Close()
	if err != nil {
		return fmt.Errorf("failed to close ClickHouse connection: %w", err)
	}

	return nil
}
