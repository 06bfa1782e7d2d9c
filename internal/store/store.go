// Package store persists session compose state in BadgerDB.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	jsoniter "github.com/json-iterator/go"

	appLog "muhurta/internal/log"
	"muhurta/internal/session"
)

// StateKey is the key the compose state lives under.
const StateKey = "compose_state_v1"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoState is returned by Load when nothing has been saved yet.
var ErrNoState = errors.New("store: no saved state")

type Store struct {
	mu sync.Mutex
	DB *badger.DB
}

// Open opens (or creates) a store at path. An empty path opens an
// in-memory database.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithCompression(options.ZSTD).
		WithNumVersionsToKeep(1).
		WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		appLog.Error("failed to open state store", err, "path", path)
		return nil, fmt.Errorf("store: open: %w", err)
	}
	appLog.Info("state store opened", "path", path, "in_memory", path == "")
	return &Store{DB: db}, nil
}

// Save writes st under StateKey, replacing any previous value.
func (s *Store) Save(st session.State) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.DB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(StateKey), body)
	})
	if err != nil {
		return fmt.Errorf("store: save state: %w", err)
	}
	return nil
}

// Load reads the saved state. It returns ErrNoState when none exists.
func (s *Store) Load() (session.State, error) {
	var st session.State
	err := s.DB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(StateKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &st)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return session.State{}, ErrNoState
	}
	if err != nil {
		return session.State{}, fmt.Errorf("store: load state: %w", err)
	}
	return st, nil
}

// Persist is a session.Options.OnChange hook that logs save failures.
func (s *Store) Persist(st session.State) {
	if err := s.Save(st); err != nil {
		appLog.Error("failed to persist compose state", err)
	}
}

func (s *Store) Close() error {
	if err := s.DB.Close(); err != nil {
		return fmt.Errorf("store: close: %w", err)
	}
	appLog.Info("state store closed")
	return nil
}
