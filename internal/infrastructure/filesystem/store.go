package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/Godhunder/discord-downloader1/internal/domain/download"
)

// Store manages the public downloads directory. The queue writes into it,
// the sweeper deletes from it and the static file server reads from it.
type Store struct {
	Dir string
}

// NewStore creates a filesystem adapter rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// EnsureDir creates the downloads root.
func (s *Store) EnsureDir() error {
	return os.MkdirAll(s.Dir, 0o755)
}

// Path returns the absolute-ish output path for a produced file name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// Stat returns metadata for a produced file.
func (s *Store) Stat(name string) (domain.File, error) {
	full := s.Path(name)
	if !isWithinDir(s.Dir, full) {
		return domain.File{}, errors.New("invalid file path")
	}
	info, err := os.Stat(full)
	if err != nil {
		return domain.File{}, err
	}
	if info.IsDir() {
		return domain.File{}, errors.New("not a file")
	}
	return domain.File{Name: name, Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// List returns every produced file currently in the downloads directory.
func (s *Store) List() ([]domain.File, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}

	files := make([]domain.File, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, domain.File{
			Name:       entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return files, nil
}

// Remove deletes a produced file.
func (s *Store) Remove(name string) error {
	full := s.Path(name)
	if !isWithinDir(s.Dir, full) {
		return errors.New("invalid file path")
	}
	return os.Remove(full)
}

func isWithinDir(basePath, targetPath string) bool {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	return rel != ".." && !strings.HasPrefix(rel, ".."+sep)
}
