// Package storage provides the storage layer for Stackyard using CouchDB.
// This package wraps the eve.evalgo.org/db library to provide versioned
// persistence for compose configuration documents and reconciliation audit
// records.
package storage

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"eve.evalgo.org/db"

	"evalgo.org/stackyard/internal/config"
)

// Typed storage failures. The reconciliation pipeline branches on these.
var (
	// ErrNotFound means the target has no stored configuration.
	ErrNotFound = errors.New("configuration not found")

	// ErrConflict means a concurrent writer won the race for the same
	// target. Callers may retry once with a freshly loaded document.
	ErrConflict = errors.New("configuration write conflict")
)

// Storage provides the ConfigStore on top of CouchDB.
// Local writers to the same target are serialized by a per-target mutex;
// ErrConflict therefore surfaces only when another process updated the
// same document.
type Storage struct {
	service *db.CouchDBService
	config  *config.Config

	mu      sync.Mutex
	targets map[string]*sync.Mutex
}

// debugLog logs a message only if debug mode is enabled in config
func (s *Storage) debugLog(format string, args ...interface{}) {
	if s.config.Server.Debug {
		log.Printf(format, args...)
	}
}

// New creates a new Storage instance from the application configuration.
// It initializes the CouchDB connection and ensures the database exists.
func New(cfg *config.Config) (*Storage, error) {
	couchConfig := db.CouchDBConfig{
		URL:             cfg.CouchDB.URL,
		Database:        cfg.CouchDB.Database,
		Username:        cfg.CouchDB.Username,
		Password:        cfg.CouchDB.Password,
		CreateIfMissing: true,
	}

	service, err := db.NewCouchDBServiceFromConfig(couchConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create CouchDB service: %w", err)
	}

	storage := &Storage{
		service: service,
		config:  cfg,
		targets: make(map[string]*sync.Mutex),
	}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return storage, nil
}

// initializeSchema creates the indexes backing configuration and audit queries.
func (s *Storage) initializeSchema() error {
	indexes := []db.Index{
		{
			Name:   "configs-target-version",
			Fields: []string{"@type", "target", "version"},
			Type:   "json",
		},
		{
			Name:   "runs-target-started",
			Fields: []string{"@type", "target", "startTime"},
			Type:   "json",
		},
	}

	for _, index := range indexes {
		if err := s.service.CreateIndex(index); err != nil {
			// Log warning but don't fail - index might already exist
			fmt.Printf("Warning: failed to create index %s: %v\n", index.Name, err)
		}
	}

	return nil
}

// targetLock returns the mutex serializing local writers for one target.
func (s *Storage) targetLock(target string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mu, ok := s.targets[target]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	s.targets[target] = mu
	return mu
}

// Close closes the storage connection.
func (s *Storage) Close() error {
	return s.service.Close()
}
