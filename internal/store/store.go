package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Querier is the subset of *sql.DB and *sql.Tx the Store issues statements
// through. A Store bound to a transaction sees one consistent view of the index.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store is the SQLite data access layer for the declaration index of one
// compilation session.
type Store struct {
	db *sql.DB
	q  Querier
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	return open(dbPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
}

// NewMemoryStore opens a private in-memory database identified by name. The
// pool is pinned to a single connection so the database lives as long as the
// Store does.
func NewMemoryStore(name string) (*Store, error) {
	return open("file:" + name + "?mode=memory&cache=shared&_foreign_keys=ON")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db, q: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx returns a Store whose statements all run inside tx.
func (s *Store) WithTx(tx *sql.Tx) *Store {
	return &Store{db: s.db, q: tx}
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.q.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  root            TEXT NOT NULL,
  origin          TEXT NOT NULL,
  rank            INTEGER NOT NULL DEFAULT 0,
  package         TEXT NOT NULL DEFAULT '',
  hash            TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS imports (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  name            TEXT NOT NULL,
  is_static       BOOLEAN DEFAULT FALSE,
  on_demand       BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS elements (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  parent_id       INTEGER REFERENCES elements(id),
  kind            TEXT NOT NULL,
  name            TEXT NOT NULL,
  qualified_name  TEXT,
  modifiers       TEXT,
  type_syntax     TEXT,
  ordinal         INTEGER DEFAULT 0,
  varargs         BOOLEAN DEFAULT FALSE,
  default_value   TEXT,
  start_line      INTEGER,
  start_col       INTEGER,
  end_line        INTEGER,
  end_col         INTEGER
);

CREATE TABLE IF NOT EXISTS supertypes (
  id              INTEGER PRIMARY KEY,
  element_id      INTEGER NOT NULL REFERENCES elements(id),
  ordinal         INTEGER NOT NULL,
  relation        TEXT NOT NULL,
  type_syntax     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS type_bounds (
  id              INTEGER PRIMARY KEY,
  element_id      INTEGER NOT NULL REFERENCES elements(id),
  ordinal         INTEGER NOT NULL,
  type_syntax     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS annotations (
  id              INTEGER PRIMARY KEY,
  element_id      INTEGER NOT NULL REFERENCES elements(id),
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  arguments       TEXT
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

CREATE INDEX IF NOT EXISTS idx_files_package ON files(package);
CREATE INDEX IF NOT EXISTS idx_imports_file ON imports(file_id);
CREATE INDEX IF NOT EXISTS idx_elements_file ON elements(file_id);
CREATE INDEX IF NOT EXISTS idx_elements_parent ON elements(parent_id);
CREATE INDEX IF NOT EXISTS idx_elements_qname ON elements(qualified_name);
CREATE INDEX IF NOT EXISTS idx_supertypes_element ON supertypes(element_id);
CREATE INDEX IF NOT EXISTS idx_type_bounds_element ON type_bounds(element_id);
CREATE INDEX IF NOT EXISTS idx_annotations_element ON annotations(element_id);
`

// DeleteFileData removes a file and everything extracted from it.
func (s *Store) DeleteFileData(fileID int64) error {
	stmts := []string{
		"DELETE FROM annotations WHERE element_id IN (SELECT id FROM elements WHERE file_id = ?)",
		"DELETE FROM type_bounds WHERE element_id IN (SELECT id FROM elements WHERE file_id = ?)",
		"DELETE FROM supertypes WHERE element_id IN (SELECT id FROM elements WHERE file_id = ?)",
		"DELETE FROM elements WHERE file_id = ?",
		"DELETE FROM imports WHERE file_id = ?",
		"DELETE FROM files WHERE id = ?",
	}
	for _, stmt := range stmts {
		if _, err := s.q.Exec(stmt, fileID); err != nil {
			return fmt.Errorf("delete file data: %w", err)
		}
	}
	return nil
}

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.q.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata: %w", err)
	}
	return v, nil
}

// SetMetadata upserts a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.q.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	return nil
}
