package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/mhollis/quizdeck/internal/game"
	"github.com/mhollis/quizdeck/internal/models"
)

// Repository is the SQLite-backed store for the root document and app
// settings. A process-wide mutex serializes every document access, so
// concurrent writers in this process (handler mutations, the timer task)
// cannot interleave inside a read-modify-write sequence.
type Repository struct {
	db *sql.DB
	mu sync.Mutex
}

// New opens (or creates) the database at dbPath and applies migrations.
func New(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// SQLite works best over a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	repo := &Repository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewWithDB wraps an existing database handle (used by tests).
func NewWithDB(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks that the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS document (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			data TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return err
		}
	}
	return nil
}

// Load returns the root document. Missing row, corrupt JSON, or drifted
// shape all come back as a usable, normalized document: the store is
// treated as an untrusted medium and shape problems are repaired, not
// surfaced.
func (r *Repository) Load(ctx context.Context) (*models.RootDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.load(ctx)
}

func (r *Repository) load(ctx context.Context) (*models.RootDocument, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM document WHERE id = 1`).Scan(&data)
	switch {
	case err == sql.ErrNoRows:
		doc := &models.RootDocument{}
		game.NormalizeRoot(doc)
		return doc, nil
	case err != nil:
		return nil, err
	}

	doc := &models.RootDocument{}
	if err := json.Unmarshal([]byte(data), doc); err != nil {
		// A wrong-typed field is shape drift: keep what decoded and let the
		// normalizer repair it. Only syntax-level corruption starts fresh.
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			doc = &models.RootDocument{}
		}
	}
	game.NormalizeRoot(doc)
	return doc, nil
}

// Save persists the root document. Read-your-writes holds for subsequent
// Load calls on the same repository.
func (r *Repository) Save(ctx context.Context, doc *models.RootDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save(ctx, doc)
}

func (r *Repository) save(ctx context.Context, doc *models.RootDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO document (id, data, updated_at) VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		string(data))
	return err
}

// Update runs fn against the current document and persists the result when
// fn reports a change. The lock is held across the whole load-mutate-save
// sequence; this is the only safe way to do a read-modify-write of the
// document when other goroutines may be writing.
func (r *Repository) Update(ctx context.Context, fn func(doc *models.RootDocument) (bool, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := r.load(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(doc)
	if err != nil || !changed {
		return err
	}
	return r.save(ctx, doc)
}

// GetSetting returns an app-level setting value, or ErrNotFound.
func (r *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetSetting stores an app-level setting value.
func (r *Repository) SetSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	return err
}
