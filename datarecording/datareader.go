package datarecording

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// QueryParams selects and pages the rows of a table.
type QueryParams struct {
	// Where is a condition with ? placeholders, such as "PID = ?".
	Where string
	Args  []any

	// OrderBy lists the sort columns, such as "RunID, Seq".
	OrderBy string

	// Limit caps the number of rows returned. Zero returns them all.
	Limit  int
	Offset int
}

func (p QueryParams) filter() string {
	if p.Where == "" {
		return ""
	}

	return " WHERE " + p.Where
}

func (p QueryParams) page() string {
	var b strings.Builder

	if p.OrderBy != "" {
		b.WriteString(" ORDER BY " + p.OrderBy)
	}

	switch {
	case p.Limit > 0:
		fmt.Fprintf(&b, " LIMIT %d OFFSET %d", p.Limit, p.Offset)
	case p.Offset > 0:
		fmt.Fprintf(&b, " LIMIT -1 OFFSET %d", p.Offset)
	}

	return b.String()
}

// DataReader reads back the tables written by a DataRecorder.
type DataReader interface {
	// MapTable tells the reader which entry type the rows of a table decode
	// into. A table must be mapped before it is queried.
	MapTable(tableName string, sampleEntry any)

	// ListTables returns the mapped tables, sorted.
	ListTables() []string

	// Query returns a pointer to an entry for every selected row, and the
	// number of rows that match the condition before paging.
	Query(ctx context.Context, tableName string, params QueryParams) (
		entries []any,
		matched int,
		err error,
	)

	Close() error
}

type sqliteReader struct {
	db     *sql.DB
	tables map[string]reflect.Type
}

// NewReader opens a SQLite file written by a DataRecorder.
func NewReader(dbFilename string) DataReader {
	db, err := sql.Open("sqlite3", dbFilename)
	if err != nil {
		panic(err)
	}

	return &sqliteReader{
		db:     db,
		tables: make(map[string]reflect.Type),
	}
}

func (r *sqliteReader) MapTable(tableName string, sampleEntry any) {
	r.tables[tableName] = reflect.TypeOf(sampleEntry)
}

func (r *sqliteReader) ListTables() []string {
	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
) ([]any, int, error) {
	entryType, ok := r.tables[tableName]
	if !ok {
		return nil, 0, fmt.Errorf("table %s is not mapped", tableName)
	}

	columns, err := columnNames(reflect.Zero(entryType).Interface())
	if err != nil {
		return nil, 0, err
	}

	var matched int

	err = r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+tableName+params.filter(),
		params.Args...).Scan(&matched)
	if err != nil {
		return nil, 0, err
	}

	for i, c := range columns {
		columns[i] = `"` + c + `"`
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+strings.Join(columns, ", ")+" FROM "+tableName+
			params.filter()+params.page(),
		params.Args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []any

	for rows.Next() {
		entry := reflect.New(entryType).Elem()

		fields := make([]any, entryType.NumField())
		for i := range fields {
			fields[i] = entry.Field(i).Addr().Interface()
		}

		if err := rows.Scan(fields...); err != nil {
			return nil, 0, err
		}

		entries = append(entries, entry.Addr().Interface())
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, matched, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}
