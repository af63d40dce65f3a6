package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lumafield/enginemesh/core"
)

// FileStore persists one envelope file per snapshot name under a base
// directory. Writes go through a temp file rename so a crash never leaves a
// truncated envelope behind. Expired envelopes are treated as absent and
// removed lazily on Load.
type FileStore struct {
	dir       string
	threshold int
	ttl       time.Duration
	clock     func() time.Time

	mu sync.Mutex
}

// FileStoreOptions configures a FileStore.
type FileStoreOptions struct {
	// CompressionThreshold is the serialized size above which values are
	// gzipped. Zero uses DefaultCompressionThreshold; negative disables
	// compression entirely.
	CompressionThreshold int

	// TTL expires saved snapshots after the duration. Zero disables expiry.
	TTL time.Duration

	// Clock supplies the expiry reference time; overridable for tests.
	Clock func() time.Time
}

// WithCompressionThreshold sets the gzip threshold (negative disables).
func WithCompressionThreshold(n int) func(o *FileStoreOptions) {
	return func(o *FileStoreOptions) { o.CompressionThreshold = n }
}

// WithTTL expires saved snapshots after d.
func WithTTL(d time.Duration) func(o *FileStoreOptions) {
	return func(o *FileStoreOptions) { o.TTL = d }
}

// WithFileClock overrides the expiry time source (test seam).
func WithFileClock(clock func() time.Time) func(o *FileStoreOptions) {
	return func(o *FileStoreOptions) { o.Clock = clock }
}

// NewFileStore creates the base directory if needed and returns a store
// writing envelope files into it.
func NewFileStore(dir string, optFns ...func(o *FileStoreOptions)) (*FileStore, error) {
	opts := FileStoreOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}

	return &FileStore{
		dir:       dir,
		threshold: opts.CompressionThreshold,
		ttl:       opts.TTL,
		clock:     opts.Clock,
	}, nil
}

// Save encodes the snapshot into an envelope and writes it atomically.
func (s *FileStore) Save(name string, snap core.Snapshot) error {
	env, err := Encode(snap, s.threshold, s.ttl)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write envelope %q: %w", name, err)
	}
	return os.Rename(tmp, path)
}

// Load reads and decodes the envelope for the name. Expired envelopes are
// deleted and reported as ErrSnapshotNotFound.
func (s *FileStore) Load(name string) (core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read envelope %q: %w", name, err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope %q: %w", name, err)
	}

	if env.Expired(s.clock()) {
		_ = os.Remove(path)
		return nil, ErrSnapshotNotFound
	}

	snap, err := env.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode envelope %q: %w", name, err)
	}
	return snap, nil
}

// Delete removes the envelope file or returns ErrSnapshotNotFound.
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return ErrSnapshotNotFound
	}
	return err
}

// List returns the names of all stored envelope files.
func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return names, nil
}

func (s *FileStore) path(name string) string {
	// flatten path separators so names cannot escape the base dir
	safe := strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(name)
	return filepath.Join(s.dir, safe+".json")
}
