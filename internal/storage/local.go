package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	apperrors "holdlens/internal/errors"
)

// LocalStore serves portfolio files from a directory tree. Keys are
// slash-separated paths relative to the root.
type LocalStore struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
}

// NewLocalStore creates a store rooted at root. maxBytes <= 0 disables the
// size limit.
func NewLocalStore(root string, maxBytes int64, logger *slog.Logger) (*LocalStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid storage root", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{
		root:     abs,
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "local_store")),
	}, nil
}

// Root returns the absolute root directory.
func (s *LocalStore) Root() string {
	return s.root
}

// resolve maps a key to a path under the root, rejecting traversal.
func (s *LocalStore) resolve(key string) (string, error) {
	for _, seg := range strings.Split(filepath.ToSlash(key), "/") {
		if seg == ".." {
			return "", apperrors.NewAppValidationError("key escapes storage root").WithContext("key", key)
		}
	}
	return filepath.Join(s.root, filepath.FromSlash(path.Clean("/"+key))), nil
}

// Fetch implements Store.
func (s *LocalStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("portfolio").WithContext("key", key)
		}
		return nil, apperrors.NewStorageError("failed to stat file", err).WithContext("key", key)
	}
	if info.IsDir() {
		return nil, apperrors.NewNotFoundError("portfolio").WithContext("key", key)
	}
	if s.maxBytes > 0 && info.Size() > s.maxBytes {
		return nil, apperrors.NewAppValidationError(
			fmt.Sprintf("file exceeds the %d byte limit", s.maxBytes)).WithContext("key", key)
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read file", err).WithContext("key", key)
	}

	s.logger.DebugContext(ctx, "file fetched",
		slog.String("key", key),
		slog.String("full_path", fullPath),
		slog.Int("size_bytes", len(data)))
	return data, nil
}

// List implements Store. Subdirectories are not descended into and a
// missing directory lists as empty.
func (s *LocalStore) List(ctx context.Context, prefix string) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := s.resolve(prefix)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Object{}, nil
		}
		return nil, apperrors.NewStorageError("failed to read directory", err).WithContext("prefix", prefix)
	}

	base := strings.TrimSuffix(prefix, "/")
	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{
			Filename:     entry.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime().UTC(),
			Key:          path.Join(base, entry.Name()),
		})
	}

	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Put writes data under key, creating parent directories. It is used to seed
// the local store; the service itself only reads.
func (s *LocalStore) Put(key string, data []byte) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err)
	}
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return apperrors.NewStorageError("failed to write file", err)
	}
	s.logger.Info("file stored",
		slog.String("key", key),
		slog.Int("size_bytes", len(data)))
	return nil
}

// Ping checks that the root directory exists.
func (s *LocalStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.root)
	if err != nil {
		return apperrors.NewStorageError("storage root unavailable", err)
	}
	if !info.IsDir() {
		return apperrors.NewStorageError("storage root is not a directory", nil)
	}
	return nil
}
