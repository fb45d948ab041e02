package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"todoapi/internal/logger"
	"todoapi/internal/models/todo"
	repo "todoapi/internal/repository"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store persists the whole todo collection as one JSON array in a single file.
type Store struct {
	fs   afero.Fs
	path string
}

func New(path string) *Store {
	return NewWithFs(afero.NewOsFs(), path)
}

func NewWithFs(fsys afero.Fs, path string) *Store {
	return &Store{
		fs:   fsys,
		path: path,
	}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if _, err := s.Load(ctx); err != nil {
		return fmt.Errorf("store health check: %w", err)
	}
	return nil
}

// Load returns an empty collection when the file is absent or blank.
func (s *Store) Load(ctx context.Context) ([]todo.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []todo.Item{}, nil
		}
		logger.Error("Repository: Failed to read store", err, zap.String("path", s.path))
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []todo.Item{}, nil
	}

	var items []todo.Item
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Error("Repository: Store content is corrupt", err, zap.String("path", s.path))
		return nil, fmt.Errorf("%w: %s: %v", repo.ErrParse, s.path, err)
	}
	if items == nil {
		items = []todo.Item{}
	}
	return items, nil
}

// Save overwrites the file with the full collection. The data is written to a
// sibling temp file first and renamed into place.
func (s *Store) Save(ctx context.Context, items []todo.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []todo.Item{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("encoding todo list: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		logger.Error("Repository: Failed to replace store", err, zap.String("path", s.path))
		return fmt.Errorf("replacing %s: %w", s.path, err)
	}
	_ = s.fs.Chmod(s.path, 0o644)

	logger.Info("Repository: Store saved",
		zap.String("path", s.path),
		zap.Int("items", len(items)))
	return nil
}
