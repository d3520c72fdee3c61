// Package migration creates the tables of an embedded sqlite3 database
package migration

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/pot-code/lingo-server/internal/infrastructure/driver"
)

//go:embed schema.sql
var schema string

// Statements DDL statements of the schema in execution order
func Statements() []string {
	var stmts []string
	for _, s := range strings.Split(schema, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

// Apply create missing tables, existing tables are left untouched
func Apply(ctx context.Context, conn driver.ITransactionalDB) error {
	for _, stmt := range Statements() {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
