package database

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

const DriverSqlite3 = "sqlite3"

// OpenSqlite opens a sqlite database file (":memory:" for an in-process
// database). In-memory databases are pinned to a single connection since
// every new connection would otherwise get its own empty database.
func OpenSqlite(path string) (*sql.DB, error) {
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open(DriverSqlite3, dsn)
	if err != nil {
		return nil, err
	}

	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
