package database

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileStore is a Store backed by a single binary-serialized file holding a
// key to raw-JSON mapping. Writes are deferred behind a dirty flag and
// flushed by Update once per tick, and forced by Flush/Close.
type FileStore struct {
	log      *zap.Logger
	filename string
	data     map[string][]byte
	changed  bool
}

var _ Store = (*FileStore)(nil)

// OpenFile opens the session database at filename, creating the file and its
// directory if absent.
func OpenFile(filename string, log *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		log:      log.Named("database"),
		filename: filename,
	}

	if err := ensureDir(filename); err != nil {
		return nil, fmt.Errorf("database: preparing directory for %q: %w", filename, err)
	}

	data, err := loadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("database: opening %q: %w", filename, err)
	}
	s.data = data
	s.log.Info("Opened session database", zap.String("file", filename), zap.Int("keys", len(data)))
	return s, nil
}

// Open switches to a new database file, flushing and closing the current
// one. If opening the new file fails, the old database stays loaded.
func (s *FileStore) Open(filename string) error {
	if err := s.Flush(); err != nil {
		return err
	}

	if err := ensureDir(filename); err != nil {
		s.log.Error("Cannot open database", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("database: preparing directory for %q: %w", filename, err)
	}
	data, err := loadFile(filename)
	if err != nil {
		s.log.Error("Cannot open database", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("database: opening %q: %w", filename, err)
	}

	s.filename = filename
	s.data = data
	s.changed = false
	s.log.Info("Opened new session database", zap.String("file", filename))
	return nil
}

// Has reports whether key exists.
func (s *FileStore) Has(key string) bool {
	_, ok := s.data[key]
	return ok
}

// Get unmarshals the value stored under key into out.
func (s *FileStore) Get(key string, out any) error {
	raw, ok := s.data[key]
	if !ok {
		s.log.Error("No such key", zap.String("key", key))
		return fmt.Errorf("%w: %q", ErrNoSuchKey, key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("database: decoding key %q: %w", key, err)
	}
	s.log.Debug("Get object", zap.String("key", key))
	return nil
}

// Put creates or replaces the value stored under key.
func (s *FileStore) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Bad object type for key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("database: encoding key %q: %w", key, err)
	}
	s.data[key] = raw
	s.changed = true
	s.log.Debug("Put object", zap.String("key", key))
	return nil
}

// Remove deletes key and its value.
func (s *FileStore) Remove(key string) error {
	if _, ok := s.data[key]; !ok {
		s.log.Error("No such key", zap.String("key", key))
		return fmt.Errorf("%w: %q", ErrNoSuchKey, key)
	}
	delete(s.data, key)
	s.changed = true
	s.log.Debug("Remove object", zap.String("key", key))
	return nil
}

// Flush forces the database to be written to disk now.
func (s *FileStore) Flush() error {
	s.changed = true
	if err := s.Update(); err != nil {
		return err
	}
	s.log.Debug("Flushed database to disk", zap.String("file", s.filename))
	return nil
}

// Update writes the database to disk if it has changed in memory. The write
// is skipped when nothing changed, so calling this every tick is cheap.
func (s *FileStore) Update() error {
	if !s.changed {
		return nil
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s.data); err != nil {
		return fmt.Errorf("database: serializing: %w", err)
	}
	if err := os.WriteFile(s.filename, buf.Bytes(), 0o644); err != nil {
		s.log.Error("Cannot write database to disk", zap.String("file", s.filename), zap.Error(err))
		return fmt.Errorf("database: writing %q: %w", s.filename, err)
	}
	s.changed = false
	return nil
}

// Close flushes and releases the store.
func (s *FileStore) Close() error {
	return s.Flush()
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func loadFile(filename string) (map[string][]byte, error) {
	contents, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return make(map[string][]byte), nil
	}
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return make(map[string][]byte), nil
	}

	var data map[string][]byte
	if err := gob.NewDecoder(bytes.NewReader(contents)).Decode(&data); err != nil {
		return nil, fmt.Errorf("corrupt database file: %w", err)
	}
	return data, nil
}
