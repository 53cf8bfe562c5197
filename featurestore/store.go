// Package featurestore persists one encoded feature record per sequence id
// under a root directory, scoped by a named dataset split (train/eval/test).
// Records are gob-encoded, zstd-compressed and written atomically via a
// temporary file plus rename; split directories are created lazily.
package featurestore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"
)

const (
	filePrefix = "features_"
	fileExt    = ".gob.zst"
)

// Store is a keyed record store addressed by (split, sequence id). The root
// directory is an explicit configuration value; the store derives no paths
// beyond root/<split>/features_<id>.gob.zst.
type Store struct {
	root string
}

// New creates a Store rooted at the given directory. The directory does not
// need to exist yet; it is created on first Save.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("featurestore: empty root directory")
	}
	return &Store{root: root}, nil
}

// Root returns the configured root directory.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) path(split, seqID string) string {
	return filepath.Join(s.root, split, filePrefix+seqID+fileExt)
}

// Save writes rec under (split, seqID), replacing any previous record for
// the same key. The write is atomic: the record is encoded into a temporary
// file in the destination directory and renamed into place.
func (s *Store) Save(split, seqID string, rec any) error {
	if split == "" || seqID == "" {
		return fmt.Errorf("featurestore: empty split %q or sequence id %q", split, seqID)
	}
	target := s.path(split, seqID)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(target)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp record file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		_ = os.Remove(tmpName)
	}()

	zw, err := zstd.NewWriter(tmp)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	if err := gob.NewEncoder(zw).Encode(rec); err != nil {
		zw.Close()
		return fmt.Errorf("encode record %s/%s: %w", split, seqID, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush record %s/%s: %w", split, seqID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp record file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("rename temp record to %s: %w", target, err)
	}
	return nil
}

// Load reads the record stored under (split, seqID) into rec, which must be
// a pointer to the same concrete type that was saved. A missing record
// satisfies errors.Is(err, os.ErrNotExist).
func (s *Store) Load(split, seqID string, rec any) error {
	f, err := os.Open(s.path(split, seqID))
	if err != nil {
		return fmt.Errorf("open record %s/%s: %w", split, seqID, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()

	if err := gob.NewDecoder(zr).Decode(rec); err != nil {
		return fmt.Errorf("decode record %s/%s: %w", split, seqID, err)
	}
	return nil
}

// List returns the sequence ids stored under split, sorted. A split whose
// directory does not exist yet is simply empty.
func (s *Store) List(split string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, split))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list split %s: %w", split, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(name, filePrefix), fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}
