package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store is a directory-scoped file collection. Decks, saved games and
// cached images each get their own Store under the user's data root;
// entries are addressed by filename only and can never escape the
// directory.
type Store struct {
	root string
}

// NewStore creates (if needed) and opens a directory store.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store %s: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the absolute path of an entry.
func (s *Store) Path(name string) string {
	return filepath.Join(s.root, Sanitize(name))
}

// Exists reports whether the entry is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// List returns the entry names with the given extension, e.g. ".json".
func (s *Store) List(ext string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list store %s: %w", s.root, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext == "" || strings.EqualFold(filepath.Ext(e.Name()), ext) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Read returns an entry's contents.
func (s *Store) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Write creates or overwrites an entry. The write goes through a
// temporary file and rename so a crash never leaves a torn file behind.
func (s *Store) Write(name string, data []byte) error {
	path := s.Path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// Delete removes an entry. Deleting a missing entry is not an error.
func (s *Store) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete %s: %w", name, err)
	}
	return nil
}

// Sanitize maps an arbitrary display name onto a safe filename: path
// separators and characters meaningful to any mainstream filesystem are
// replaced with underscores. When any replacement happens a short digest
// of the original name is appended, so distinct names that clean to the
// same characters ("a/b" vs "a:b") never share a filename. Already-clean
// names pass through unchanged, which keeps the mapping idempotent.
func Sanitize(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.' || r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" || out == "." || out == ".." {
		out = "_"
	}
	if out == name {
		return out
	}
	sum := sha256.Sum256([]byte(name))
	return out + "-" + hex.EncodeToString(sum[:4])
}
