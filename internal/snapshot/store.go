// Package snapshot stores documents as YAML files.
//
// A snapshot file holds one document. Entities reference each other by
// name, so a file can be edited by hand and diffed line by line. The Store
// caches parsed files by path and modification time; every Load returns a
// private copy.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	"github.com/agentstation/assetpipe/internal/cache"
	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
	"github.com/agentstation/assetpipe/pkg/logging"
)

// Store reads and writes snapshot files.
type Store struct {
	cache *cache.Files[*asset.Document]
}

// Option configures a Store.
type Option func(*Store)

// WithCacheTTL sets how long parsed files stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.cache = cache.New[*asset.Document](ttl, 2*ttl)
	}
}

// NewStore returns a Store.
func NewStore(opts ...Option) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.New[*asset.Document](10*time.Minute, 20*time.Minute)
	}
	return s
}

// CacheStats returns the parse cache counters.
func (s *Store) CacheStats() cache.Stats {
	return s.cache.GetStats()
}

// Load reads the document stored at path.
func (s *Store) Load(path string) (*asset.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.WrapIO("stat", path, err)
	}
	stamp := cache.StampOf(info)
	if doc, ok := s.cache.Get(path, stamp); ok {
		return doc.Clone(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, errors.NewParseError("yaml", path, "invalid snapshot", err)
	}
	s.cache.Set(path, stamp, doc)
	return doc.Clone(), nil
}

// Decode parses snapshot data.
func Decode(data []byte) (*asset.Document, error) {
	var f fileDTO
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return decode(&f)
}

// Encode renders doc as snapshot data.
func Encode(doc *asset.Document) ([]byte, error) {
	return yaml.Marshal(encode(doc, uuid.NewString()))
}

// Save writes doc to path, replacing any existing file atomically.
func (s *Store) Save(doc *asset.Document, path string) error {
	data, err := Encode(doc)
	if err != nil {
		return errors.WrapResource("encode", "snapshot", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("close", path, err)
	}
	if err := os.Chmod(tmpPath, constants.FilePermissions); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("chmod", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("move", path, err)
	}
	s.cache.Delete(path)
	return nil
}

// ImportAssetByName copies the group named baseName from the snapshot at
// path, with everything it references, into doc. The group must exist in
// the file and none of the copied names may already be taken in doc.
func (s *Store) ImportAssetByName(doc *asset.Document, path, baseName string) (*asset.Group, error) {
	src, err := s.Load(path)
	if err != nil {
		return nil, errors.NewImportError(path, baseName, err)
	}
	root := src.Group(baseName)
	if root == nil {
		return nil, errors.NewImportError(path, baseName, errors.ErrNotFound)
	}
	imported, err := doc.Import(src, root)
	if err != nil {
		return nil, errors.NewImportError(path, baseName, err)
	}
	return imported.(*asset.Group), nil
}

// BackupPath returns where the backup of the asset named name lives in dir.
func BackupPath(dir, name string) string {
	return filepath.Join(dir, name+constants.BackupSuffix+constants.SnapshotExtension)
}

// Backup saves doc into dir under the backup name of its root and returns
// the written path.
func (s *Store) Backup(doc *asset.Document, dir string) (string, error) {
	root := doc.Root()
	if root == nil {
		return "", errors.NewValidationError("root", nil, "document has no asset root to back up")
	}
	path := BackupPath(dir, root.Name)
	if err := s.Save(doc, path); err != nil {
		return "", err
	}
	logging.Default().Debug().Str("asset", root.Name).Str("path", path).Msg("Saved backup")
	return path, nil
}

// Restore loads the backup of the asset named name from dir.
func (s *Store) Restore(dir, name string) (*asset.Document, error) {
	path := BackupPath(dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NewNotFoundError("backup", path)
	}
	doc, err := s.Load(path)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", name, err)
	}
	return doc, nil
}
