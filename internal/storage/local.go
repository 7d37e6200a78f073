// Package storage persists client state that must survive between runs.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Well-known local storage keys.
const (
	KeyToken  = "token"
	KeyUser   = "user"
	KeyUserID = "userId"
)

// Store is the key/value contract shared by the session and API layers.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Clear() error
}

// Local is a Store backed by the local_storage table.
type Local struct {
	db *sql.DB
}

func NewLocal(db *sql.DB) *Local {
	return &Local{db: db}
}

func (l *Local) Get(key string) (string, bool, error) {
	var value string
	err := l.db.QueryRow(`SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get local storage %q: %w", key, err)
	}
	return value, true, nil
}

func (l *Local) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("local storage key is required")
	}
	_, err := l.db.Exec(`
INSERT INTO local_storage(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set local storage %q: %w", key, err)
	}
	return nil
}

func (l *Local) Remove(key string) error {
	if _, err := l.db.Exec(`DELETE FROM local_storage WHERE key = ?`, key); err != nil {
		return fmt.Errorf("remove local storage %q: %w", key, err)
	}
	return nil
}

func (l *Local) Clear() error {
	if _, err := l.db.Exec(`DELETE FROM local_storage`); err != nil {
		return fmt.Errorf("clear local storage: %w", err)
	}
	return nil
}

func (l *Local) Keys() ([]string, error) {
	rows, err := l.db.Query(`SELECT key FROM local_storage ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list local storage keys: %w", err)
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan local storage key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate local storage keys: %w", err)
	}
	return keys, nil
}

// Memory is an in-process Store. The CLI falls back to it when the local
// database cannot be opened, so a session still works for that one run.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = map[string]string{}
	return nil
}

func (m *Memory) Keys() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
