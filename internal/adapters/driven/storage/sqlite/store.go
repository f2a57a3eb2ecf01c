package sqlite

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/sqlite/migrations"
)

// DBFile is the database file name inside the data directory.
const DBFile = "ragent.db"

// Store is a unified SQLite-based storage that provides the vector index,
// session memory and ingestion status through wrapper types sharing one
// database handle.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.ragent/data/ragent.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragent", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return Open(filepath.Join(dataDir, DBFile))
}

// Open opens (or creates) the database file at dbPath and applies pending
// migrations. The parent directory must exist.
func Open(dbPath string) (*Store, error) {
	// WAL lets searches read a consistent snapshot while a document is being
	// replaced. Immediate transactions take the write lock up front so two
	// writers wait on busy_timeout instead of failing on lock upgrade.
	dsn := dbPath + "?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)" +
		"&_txlock=immediate"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorIndex returns a driven.VectorIndex backed by this store.
// dims fixes the vector length for an empty index; zero takes it from the
// first write. An index that already holds vectors keeps its dimension.
func (s *Store) VectorIndex(dims int) *VectorIndex {
	return &VectorIndex{store: s, dims: dims}
}

// SessionStore returns a driven.SessionStore backed by this store.
func (s *Store) SessionStore() *SessionStore {
	return &SessionStore{store: s}
}

// IngestionStatusStore returns a driven.IngestionStatusStore backed by this store.
func (s *Store) IngestionStatusStore() *IngestionStatusStore {
	return &IngestionStatusStore{store: s}
}

// migration is one numbered *.up.sql script.
type migration struct {
	version int
	name    string
}

// migrate applies every script whose version is not yet recorded in
// schema_migrations, in version order.
func (s *Store) migrate(fsys fs.FS) error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	applied, err := s.appliedVersions()
	if err != nil {
		return err
	}
	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}

	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}
		if err := s.applyMigration(m.version, string(script)); err != nil {
			return fmt.Errorf("executing migration %s: %w", m.name, err)
		}
	}
	return nil
}

func (s *Store) appliedVersions() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("reading applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("reading applied migrations: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// pendingMigrations lists NNN_name.up.sql files not in applied, lowest
// version first. Files without a numeric prefix are ignored.
func pendingMigrations(fsys fs.FS, applied map[int]bool) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var pending []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || applied[version] {
			continue
		}
		pending = append(pending, migration{version: version, name: name})
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

// applyMigration runs one script and records its version in the same
// transaction.
func (s *Store) applyMigration(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, time.Now().UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}
