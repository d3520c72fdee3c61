package driver

import (
	"database/sql"

	// sqlite driver
	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteConn Returns a SQLite connection pool, dsn is the database file or ":memory:".
//
// Queries go through the same rewriting as MySQL, sqlite accepts both "?" placeholders and backtick identifiers
func NewSQLiteConn(dsn string, cfg *DBConfig) (ITransactionalDB, error) {
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	// every connection to ":memory:" opens a distinct database
	conn.SetMaxOpenConns(int(cfg.MaxConn))
	if dsn == ":memory:" {
		conn.SetMaxOpenConns(1)
	}
	return &SQLWrapper{conn}, nil
}
