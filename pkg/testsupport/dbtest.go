package testsupport

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// NewSQLiteMemoryDB opens a named shared-cache in-memory database. Distinct
// names keep parallel tests isolated.
func NewSQLiteMemoryDB(name string) (*sql.DB, error) {
	return sql.Open("sqlite3", MemoryDSN(name))
}

// MemoryDSN returns the DSN NewSQLiteMemoryDB opens.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", name)
}

// NewBunDB wraps a named in-memory database with the SQLite dialect.
func NewBunDB(name string) (*bun.DB, error) {
	sqldb, err := NewSQLiteMemoryDB(name)
	if err != nil {
		return nil, err
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
