package storage

import (
	"context"
	"path"
	"strings"
	"time"

	apperrors "holdlens/internal/errors"
	"holdlens/pkg/contracts/domain"
)

// Store is a read-only blob store holding user portfolio files.
type Store interface {
	// Fetch returns the object's bytes. A missing key yields an error
	// matching errors.ErrNotFound.
	Fetch(ctx context.Context, key string) ([]byte, error)

	// List returns the objects directly under prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Object describes one stored file.
type Object struct {
	Filename     string
	Size         int64
	LastModified time.Time
	Key          string
}

// Portfolio converts the object to its API representation.
func (o Object) Portfolio() domain.StoredPortfolio {
	return domain.StoredPortfolio{
		Filename:     o.Filename,
		Size:         o.Size,
		LastModified: o.LastModified,
		Key:          o.Key,
	}
}

// Keys builds object keys of the form {prefix}/{user_id}/{filename}.
type Keys struct {
	Prefix string
}

// UserPrefix returns the listing prefix for a user, with a trailing slash.
func (k Keys) UserPrefix(userID string) (string, error) {
	if err := validSegment("user_id", userID); err != nil {
		return "", err
	}
	return path.Join(k.Prefix, userID) + "/", nil
}

// ObjectKey returns the key of a user's file.
func (k Keys) ObjectKey(userID, filename string) (string, error) {
	if err := validSegment("user_id", userID); err != nil {
		return "", err
	}
	if err := validSegment("filename", filename); err != nil {
		return "", err
	}
	return path.Join(k.Prefix, userID, filename), nil
}

func validSegment(name, value string) error {
	switch {
	case strings.TrimSpace(value) == "":
		return apperrors.NewAppValidationError(name + " is required")
	case value == "." || value == ".." || strings.ContainsAny(value, `/\`):
		return apperrors.NewAppValidationError(name + " must be a single path segment").
			WithContext(name, value)
	}
	return nil
}

// baseName returns the last segment of a key.
func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}
