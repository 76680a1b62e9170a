package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/M-casado/watercolour-processing/logging"
)

// DefaultSchema is the declarative schema bundled with the binary.
//
//go:embed schema.sql
var DefaultSchema string

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// RequiredTables must all exist before the store will operate.
var RequiredTables = []string{"images", "paintings", "painting_images", "ratings"}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// Store owns the single connection to the catalogue database.
type Store struct {
	db   *sql.DB
	path string
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// Open connects to the sqlite database at dataSourceName, enables foreign key
// enforcement and verifies the required tables. When tables are missing the
// schema text is applied as-is; an empty schema is a configuration error.
func Open(dataSourceName, schema string, logger *slog.Logger) (*Store, error) {
	logger = logging.OrDiscard(logger).With("component", "database")

	db, err := sql.Open("sqlite3", withForeignKeys(dataSourceName))
	if err != nil {
		return nil, storageError("open", fmt.Errorf("failed to open database %s: %w", dataSourceName, err))
	}
	// foreign_keys is a per-connection pragma, so the pool is pinned to one connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, storageError("open", fmt.Errorf("failed to enable foreign keys on %s: %w", dataSourceName, err))
	}

	s := &Store{db: db, path: dataSourceName, log: logger}
	if err := s.ensureSchema(schema); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("opened database", "path", dataSourceName)
	return s, nil
}

// ReadSchema loads a schema definition from disk.
func ReadSchema(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", configError("read schema", fmt.Errorf("failed to read schema %s: %w", path, err))
	}
	return string(b), nil
}

// Close releases the connection. Calling it more than once is harmless.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.db.Close(); err != nil {
		return storageError("close", err)
	}
	s.log.Info("closed database", "path", s.path)
	return nil
}

// DB exposes the underlying handle for read-side adapters sharing the connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) ensureSchema(schema string) error {
	missing, err := s.missingTables()
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		return nil
	}

	if strings.TrimSpace(schema) == "" {
		s.log.Error("schema missing and no definition supplied", "missing", missing)
		return configError("ensure schema", fmt.Errorf("missing tables %v and no schema definition supplied", missing))
	}

	s.log.Info("applying schema", "missing", missing)
	if _, err := s.db.Exec(schema); err != nil {
		return storageError("apply schema", err)
	}

	missing, err = s.missingTables()
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return configError("ensure schema", fmt.Errorf("schema definition did not create tables %v", missing))
	}
	return nil
}

func (s *Store) missingTables() ([]string, error) {
	sqlStr, args, err := psql.Select("name").
		From("sqlite_master").
		Where(sq.Eq{"type": "table"}).
		ToSql()
	if err != nil {
		return nil, storageError("check tables", err)
	}

	rows, err := s.db.Query(sqlStr, args...)
	if err != nil {
		return nil, storageError("check tables", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageError("check tables", err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("check tables", err)
	}

	var missing []string
	for _, t := range RequiredTables {
		if !existing[t] {
			missing = append(missing, t)
		}
	}
	s.log.Debug("checked tables", "missing", missing)
	return missing, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on"
}
