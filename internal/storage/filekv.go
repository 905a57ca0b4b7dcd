package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var errCorruptDocument = errors.New("parsing YAML")

// kvFile is the on-disk structure of store.yaml.
type kvFile struct {
	Entries map[string]string `yaml:"entries"`
}

type fileKeyValueStore struct {
	basePath string
	logger   *zap.Logger
	mu       sync.Mutex
}

// NewFileKeyValueStore creates a KeyValueStore backed by a store.yaml file in
// the given base directory. The directory is created on first write.
//
// Writes hold an exclusive flock on store.lock for the whole
// read-modify-write, so several processes sharing the directory do not lose
// each other's keys. A single key is still last-write-wins across processes.
//
// Reads report an unparsable store.yaml. Writes move it aside as
// store.yaml.corrupt and start from an empty document.
func NewFileKeyValueStore(basePath string) KeyValueStore {
	return newFileKeyValueStore(basePath, nil)
}

func newFileKeyValueStore(basePath string, logger *zap.Logger) *fileKeyValueStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &fileKeyValueStore{basePath: basePath, logger: logger}
}

func (s *fileKeyValueStore) filePath() string {
	return filepath.Join(s.basePath, "store.yaml")
}

func (s *fileKeyValueStore) lock(how int) (func(), error) {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return flock(filepath.Join(s.basePath, "store.lock"), how)
}

func (s *fileKeyValueStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.basePath); os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	unlock, err := s.lock(syscall.LOCK_SH)
	if err != nil {
		return nil, err
	}
	defer unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	value, ok := doc.Entries[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return []byte(value), nil
}

func (s *fileKeyValueStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.loadForWrite()
	if err != nil {
		return err
	}
	doc.Entries[key] = string(value)
	return s.save(doc)
}

func (s *fileKeyValueStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lock(syscall.LOCK_EX)
	if err != nil {
		return err
	}
	defer unlock()

	doc, err := s.loadForWrite()
	if err != nil {
		return err
	}
	if _, ok := doc.Entries[key]; !ok {
		return nil
	}
	delete(doc.Entries, key)
	return s.save(doc)
}

func (s *fileKeyValueStore) Close() error {
	return nil
}

func (s *fileKeyValueStore) load() (*kvFile, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &kvFile{Entries: make(map[string]string)}, nil
		}
		return nil, fmt.Errorf("loading store: %w", err)
	}

	var doc kvFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("loading store: %w: %w", errCorruptDocument, err)
	}
	if doc.Entries == nil {
		doc.Entries = make(map[string]string)
	}
	return &doc, nil
}

// loadForWrite is load for callers holding LOCK_EX. A corrupt document is
// renamed to store.yaml.corrupt and replaced by an empty one.
func (s *fileKeyValueStore) loadForWrite() (*kvFile, error) {
	doc, err := s.load()
	if err == nil || !errors.Is(err, errCorruptDocument) {
		return doc, err
	}

	aside := s.filePath() + ".corrupt"
	if renameErr := os.Rename(s.filePath(), aside); renameErr != nil {
		return nil, fmt.Errorf("moving corrupt store aside: %w", renameErr)
	}
	s.logger.Warn("corrupt store document moved aside",
		zap.String("path", aside), zap.Error(err))
	return &kvFile{Entries: make(map[string]string)}, nil
}

// save writes to a temporary file and renames it over store.yaml so readers
// never observe a half-written document.
func (s *fileKeyValueStore) save(doc *kvFile) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving store: creating directory: %w", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("saving store: marshaling YAML: %w", err)
	}

	tmp, err := os.CreateTemp(s.basePath, ".store-*.yaml")
	if err != nil {
		return fmt.Errorf("saving store: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving store: writing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving store: closing file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving store: setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath()); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("saving store: replacing file: %w", err)
	}
	return nil
}
