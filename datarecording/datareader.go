package datarecording

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
	"github.com/pkg/errors"
)

// QueryParams encapsulates all query parameters
type QueryParams struct {
	// Where holds the WHERE clause without the "WHERE" keyword
	// Example: "Run > ? AND Statistic = ?"
	Where string

	// Args holds the arguments for the placeholders in Where
	Args []any

	// Limit is the maximum number of records to return (pagination)
	// Set to 0 for no limit
	Limit int

	// Offset is the number of records to skip (pagination)
	Offset int

	// OrderBy specifies sorting, without the "ORDER BY" keywords
	// Example: "Run DESC"
	OrderBy string
}

// DataReader reads the tables written by a DataRecorder.
type DataReader interface {
	// ListTables returns the names of the tables in the database.
	ListTables(ctx context.Context) ([]string, error)

	// Query loads the rows of a table into dest, which must be a pointer to
	// a slice of structs whose field names match the columns. It returns the
	// number of rows that match params without pagination.
	Query(
		ctx context.Context,
		tableName string,
		params QueryParams,
		dest any,
	) (totalCount int, err error)

	// Close closes the reader
	Close() error
}

type sqliteReader struct {
	*sqlx.DB
}

// NewReader opens a database file written by a DataRecorder in read-only
// mode.
func NewReader(dbFilename string) (DataReader, error) {
	db, err := sqlx.Open("sqlite3", "file:"+dbFilename+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dbFilename)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "open %s", dbFilename)
	}

	return newSQLiteReader(db), nil
}

// NewReaderWithDB creates a new DataReader with a given database
func NewReaderWithDB(db *sql.DB) DataReader {
	return newSQLiteReader(sqlx.NewDb(db, "sqlite3"))
}

func newSQLiteReader(db *sqlx.DB) *sqliteReader {
	// Columns are named after the struct fields.
	db.Mapper = reflectx.NewMapperFunc("db", func(s string) string {
		return s
	})

	return &sqliteReader{DB: db}
}

func (r *sqliteReader) ListTables(ctx context.Context) ([]string, error) {
	tables := []string{}

	err := r.SelectContext(ctx, &tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "list tables")
	}

	return tables, nil
}

func (r *sqliteReader) Query(
	ctx context.Context,
	tableName string,
	params QueryParams,
	dest any,
) (int, error) {
	if err := r.checkTable(ctx, tableName); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("SELECT * FROM %s", tableName)

	if params.Where != "" {
		query += " WHERE " + params.Where
	}

	if params.OrderBy != "" {
		query += " ORDER BY " + params.OrderBy
	}

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", params.Limit)
		if params.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", params.Offset)
		}
	}

	totalCount, err := r.queryTotalCount(ctx, tableName, params)
	if err != nil {
		return 0, err
	}

	err = r.SelectContext(ctx, dest, query, params.Args...)
	if err != nil {
		return 0, errors.Wrapf(err, "query %s", tableName)
	}

	return totalCount, nil
}

func (r *sqliteReader) checkTable(ctx context.Context, tableName string) error {
	var count int

	err := r.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?",
		tableName)
	if err != nil {
		return errors.Wrapf(err, "lookup table %s", tableName)
	}

	if count == 0 {
		return errors.Errorf("table %s does not exist", tableName)
	}

	return nil
}

func (r *sqliteReader) queryTotalCount(
	ctx context.Context,
	tableName string,
	params QueryParams,
) (int, error) {
	var totalCount int

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)

	if params.Where != "" {
		countQuery += " WHERE " + params.Where
	}

	err := r.GetContext(ctx, &totalCount, countQuery, params.Args...)
	if err != nil {
		return 0, errors.Wrapf(err, "count %s", tableName)
	}

	return totalCount, nil
}

func (r *sqliteReader) Close() error {
	return r.DB.Close()
}
