package store

import (
	"database/sql"

	_ "github.com/duckdb/duckdb-go/v2"
)

// NewDB opens a DuckDB database. ":memory:" and "" open an in-memory database.
func NewDB(path string) (*sql.DB, error) {
	dsn := path
	if path == ":memory:" {
		dsn = ""
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
