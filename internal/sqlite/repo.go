// Package sqlite reads feeds and articles out of a newsboat cache database.
package sqlite

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Repo is a read-only view of the newsboat cache.
type Repo struct {
	db  *sqlx.DB
	now func() time.Time
}

func New(db *sqlx.DB) Repo {
	return Repo{db: db, now: time.Now}
}

// Open connects to the cache at path. The database is opened read-only so a
// running newsboat is never disturbed.
func Open(path string) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", dsn(path, "mode=ro&_pragma=busy_timeout(5000)"))
	if err != nil {
		return nil, fmt.Errorf("error opening cache: %w", err)
	}
	if err := dbx.Ping(); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error connecting to cache: %w", err)
	}
	return dbx, nil
}

// OpenWritable connects to the cache at path, creating the file if needed.
func OpenWritable(path string) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", dsn(path, "_pragma=busy_timeout(5000)"))
	if err != nil {
		return nil, fmt.Errorf("error opening cache: %w", err)
	}
	return dbx, nil
}

// dsn builds a sqlite file URI. The path is percent-encoded so characters
// like ? and # stay part of the file name.
func dsn(path, query string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + query
}
