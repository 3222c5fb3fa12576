package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store is the capability a Guard uses to persist the login instant and
// remember flag. Two tiers are injected: a durable store surviving
// restarts, and a session-scoped store cleared with the process.
type Store interface {
	// WriteLogin records the login instant and remember flag.
	WriteLogin(at time.Time, remember bool) error
	// ReadLogin returns the stored instant and flag; ok is false when
	// nothing is stored.
	ReadLogin() (at time.Time, remember bool, ok bool)
	// Clear removes all stored state. Clearing an empty store is a no-op.
	Clear() error
}

// MemoryStore keeps login state in process memory. It backs the
// session-scoped tier and tests.
type MemoryStore struct {
	mu       sync.Mutex
	set      bool
	at       time.Time
	remember bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) WriteLogin(at time.Time, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set, s.at, s.remember = true, at, remember
	return nil
}

func (s *MemoryStore) ReadLogin() (time.Time, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set {
		return time.Time{}, false, false
	}
	return s.at, s.remember, true
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set, s.at, s.remember = false, time.Time{}, false
	return nil
}

// FileStore persists login state as a small JSON file. It backs the
// durable tier.
type FileStore struct {
	mu   sync.Mutex
	path string
}

type fileRecord struct {
	LoginAt  time.Time `json:"login_at"`
	Remember bool      `json:"remember"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) WriteLogin(at time.Time, remember bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.Marshal(fileRecord{LoginAt: at, Remember: remember})
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0600)
}

func (s *FileStore) ReadLogin() (time.Time, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}, false, false
	}
	var rec fileRecord
	if err := json.Unmarshal(data, &rec); err != nil || rec.LoginAt.IsZero() {
		return time.Time{}, false, false
	}
	return rec.LoginAt, rec.Remember, true
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// NoopStore serves non-interactive execution contexts where no local
// storage is available. Writes succeed silently and reads find nothing.
type NoopStore struct{}

func (NoopStore) WriteLogin(time.Time, bool) error   { return nil }
func (NoopStore) ReadLogin() (time.Time, bool, bool) { return time.Time{}, false, false }
func (NoopStore) Clear() error                       { return nil }
