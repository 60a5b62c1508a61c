package credential

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileName is the file FileKV keeps its entries in.
const FileName = "credentials.json"

// FileKV is durable string key-value storage backed by one JSON file.
// Concurrent processes are serialized through an flock on a sibling lock file.
type FileKV struct {
	path string
	lock *flock.Flock
}

// NewFileKV returns a FileKV storing its entries in dir/credentials.json.
// The directory is created on the first write.
func NewFileKV(dir string) *FileKV {
	path := filepath.Join(dir, FileName)
	return &FileKV{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the backing file.
func (kv *FileKV) Path() string {
	return kv.path
}

// Get returns the value stored under key and whether it was present.
func (kv *FileKV) Get(key string) (string, bool, error) {
	if err := os.MkdirAll(filepath.Dir(kv.path), 0o700); err != nil {
		return "", false, fmt.Errorf("create state dir: %w", err)
	}
	if err := kv.lock.RLock(); err != nil {
		return "", false, fmt.Errorf("lock %s: %w", kv.path, err)
	}
	defer func() { _ = kv.lock.Unlock() }()

	entries, err := kv.load()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

// Set stores value under key.
func (kv *FileKV) Set(key, value string) error {
	return kv.update(func(entries map[string]string) {
		entries[key] = value
	})
}

// Remove deletes key. Removing a missing key is not an error.
func (kv *FileKV) Remove(key string) error {
	return kv.update(func(entries map[string]string) {
		delete(entries, key)
	})
}

func (kv *FileKV) update(fn func(map[string]string)) error {
	if err := os.MkdirAll(filepath.Dir(kv.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := kv.lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", kv.path, err)
	}
	defer func() { _ = kv.lock.Unlock() }()

	entries, err := kv.load()
	if err != nil {
		return err
	}
	fn(entries)
	return kv.save(entries)
}

func (kv *FileKV) load() (map[string]string, error) {
	data, err := os.ReadFile(kv.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", kv.path, err)
	}
	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kv.path, err)
	}
	return entries, nil
}

func (kv *FileKV) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entries: %w", err)
	}
	tmp := kv.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, kv.path); err != nil {
		return fmt.Errorf("replace %s: %w", kv.path, err)
	}
	return nil
}
