// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/cppla/docqa/config"
)

// NewDB opens a migrated SQLite database in a temp dir removed with t.
func NewDB(t *testing.T, modelDefs ...interface{}) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := config.OpenDatabase(config.AppConfig{DatabaseURL: "sqlite:///" + path, LogLevel: "silent"}, modelDefs...)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// MemoryStore is an in-memory object store. FailSave makes every Save fail.
type MemoryStore struct {
	mu       sync.Mutex
	Objects  map[string][]byte
	FailSave bool
	Deleted  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Objects: make(map[string][]byte)}
}

func (m *MemoryStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave {
		return "", errors.New("memory store: save refused")
	}
	loc := "mem://" + key
	m.Objects[loc] = append([]byte(nil), data...)
	return loc, nil
}

func (m *MemoryStore) Delete(_ context.Context, location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, location)
	m.Deleted = append(m.Deleted, location)
	return nil
}

// Len reports how many objects are stored.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}
