package db

import (
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/pressly/goose/v3"
	// SQLite driver.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var driver = "sqlite"

// Database holds the shared SQLite connection for guild settings.
type Database struct {
	db *sql.DB
}

// New opens the SQLite database at the provided path and runs migrations.
func New(path string) (*Database, error) {
	if path == "" {
		path = "data/guildops"
	}
	db, err := sql.Open(driver, sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect(driver); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

func sqliteDSN(path string) string {
	values := url.Values{}
	values.Set("_fk", "1")

	values.Add("_pragma", "foreign_keys(ON)")
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(5000)")
	values.Add("_pragma", "temp_store(MEMORY)")

	if !strings.HasSuffix(path, ".sqlite") {
		path += ".sqlite"
	}
	return fmt.Sprintf("file:%s?%s", path, values.Encode())
}

// DB exposes the raw connection for adapters.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the underlying connection.
func (d *Database) Close() error {
	return d.db.Close()
}
