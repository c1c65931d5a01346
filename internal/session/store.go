package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nissyi-gh/teamflow/internal/model"
	_ "modernc.org/sqlite"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

// Store persists the session in a small SQLite key-value table so it
// survives restarts.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the session database location under
// $XDG_DATA_HOME (or ~/.local/share), creating the directory.
func DefaultPath() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	dir := filepath.Join(dataHome, "teamflow")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.db"), nil
}

// Open opens (or creates) the session database and ensures the schema
// exists. An empty path selects DefaultPath.
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		var err error
		dbPath, err = DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("determine session path: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Load returns the persisted session. A token without a user, a user
// without a token, or an unreadable profile all load as an empty
// session.
func (s *Store) Load(ctx context.Context) (model.Session, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM kv WHERE key IN (?, ?)", keyToken, keyUser)
	if err != nil {
		return model.Session{}, fmt.Errorf("query session: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string, 2)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return model.Session{}, fmt.Errorf("scan session: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return model.Session{}, fmt.Errorf("read session: %w", err)
	}

	token, userJSON := values[keyToken], values[keyUser]
	if token == "" || userJSON == "" {
		return model.Session{}, nil
	}
	var user model.Profile
	if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
		return model.Session{}, nil
	}
	return model.Session{Token: token, User: &user}, nil
}

// Save persists token and user in a single transaction.
func (s *Store) Save(ctx context.Context, sess model.Session) error {
	if !sess.Authenticated() {
		return errors.New("save session: token and user are both required")
	}
	userJSON, err := json.Marshal(sess.User)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	const upsert = "INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	if _, err := tx.ExecContext(ctx, upsert, keyToken, sess.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, keyUser, string(userJSON)); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Clear removes both token and user.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key IN (?, ?)", keyToken, keyUser); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
