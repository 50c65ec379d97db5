// Package modelstore resolves model identifiers to local weight artifacts
// and falls back to a remote fetch when the cache misses.
package modelstore

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mlxd/internal/common/fsutil"
	"mlxd/pkg/types"
)

// Manifest and weight artifacts that make a cache directory valid.
const (
	manifestFile = "config.json"
)

var weightFiles = []string{"model.safetensors", "weights.npz"}

// Store is the local model cache rooted at a single directory. Model names
// map deterministically to directories: path separators become underscores.
type Store struct {
	root string
}

// New opens a store rooted at dir; a leading '~' is expanded.
func New(dir string) (*Store, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	return &Store{root: abs}, nil
}

// Root returns the cache root directory.
func (s *Store) Root() string { return s.root }

// LocalName converts a model identifier to its cache directory name.
func LocalName(model string) string {
	return strings.ReplaceAll(model, "/", "_")
}

// Path returns the cache directory for a model name.
func (s *Store) Path(model string) string {
	return filepath.Join(s.root, LocalName(model))
}

// Exists reports whether the model is cached with a manifest and at least
// one recognized weight artifact.
func (s *Store) Exists(model string) bool {
	dir := s.Path(model)
	if !fsutil.PathExists(filepath.Join(dir, manifestFile)) {
		return false
	}
	for _, w := range weightFiles {
		if fsutil.PathExists(filepath.Join(dir, w)) {
			return true
		}
	}
	return false
}

// Manifest reads and decodes the model's config.json.
func (s *Store) Manifest(model string) (map[string]any, error) {
	b, err := os.ReadFile(filepath.Join(s.Path(model), manifestFile))
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest for %s: %w", model, err)
	}
	return m, nil
}

// Info builds metadata for one cached model from its manifest and artifacts.
func (s *Store) Info(model string) (types.ModelInfo, error) {
	dir := s.Path(model)
	info := types.ModelInfo{Name: model, LocalPath: dir}

	stat, err := os.Stat(dir)
	if err != nil {
		return info, err
	}
	info.ModifiedAt = stat.ModTime()

	if manifest, err := s.Manifest(model); err == nil {
		if arch, ok := manifest["architectures"].([]any); ok && len(arch) > 0 {
			info.Family = fmt.Sprintf("%v", arch[0])
		}
		if hidden, ok := manifest["hidden_size"].(float64); ok {
			info.ParameterSize = fmt.Sprintf("%dM", int(hidden*1000/1024))
		}
	}

	if size, err := dirSize(dir); err == nil {
		info.Size = size
	}
	sum := sha256.Sum256([]byte(model))
	info.Digest = fmt.Sprintf("sha256:%x", sum)
	return info, nil
}

// List returns metadata for every valid cached model.
func (s *Store) List() ([]types.ModelInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var models []types.ModelInfo
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if !s.Exists(e.Name()) {
			continue
		}
		info, err := s.Info(e.Name())
		if err != nil {
			continue
		}
		models = append(models, info)
	}
	return models, nil
}

// Delete removes a cached model directory.
func (s *Store) Delete(model string) error {
	return os.RemoveAll(s.Path(model))
}

func dirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}
