// Package testutil provides an in-memory sqlite store and fixtures for package tests
package testutil

import (
	"context"
	"testing"

	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
	"github.com/pot-code/lingo-server/internal/infrastructure/logging"
	"github.com/pot-code/lingo-server/internal/migration"
	"go.uber.org/zap/zaptest"
)

// Context carries a test logger, SQL statements get logged through it
func Context(tb testing.TB) context.Context {
	tb.Helper()
	return logging.SetLoggerInContext(context.Background(), zaptest.NewLogger(tb))
}

// DB fresh in-memory database with the schema applied, closed on cleanup
func DB(tb testing.TB) driver.ITransactionalDB {
	tb.Helper()
	conn, err := driver.GetDBConnection(&driver.DBConfig{
		Driver:  "sqlite3",
		Schema:  ":memory:",
		MaxConn: 1,
	})
	if err != nil {
		tb.Fatalf("failed to open test db: %v", err)
	}
	tb.Cleanup(func() {
		conn.Close(context.Background())
	})
	if err := migration.Apply(Context(tb), conn); err != nil {
		tb.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

// Count number of rows matching where, args follow the $N placeholder convention
func Count(tb testing.TB, ctx context.Context, db driver.ITransactionalDB, table, where string, args ...interface{}) int {
	tb.Helper()
	query := "SELECT COUNT(*) FROM " + table
	if where != "" {
		query += " WHERE " + where
	}
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			tb.Fatalf("count %s: %v", table, err)
		}
	}
	if err := rows.Err(); err != nil {
		tb.Fatalf("count %s: %v", table, err)
	}
	return n
}
