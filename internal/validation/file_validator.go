package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"holdlens/internal/dataprocessing"
	apperrors "holdlens/internal/errors"
)

// FileValidator checks local holdings files and output locations before the
// CLI reads or writes them.
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator. maxBytes <= 0 disables the
// size check.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// ValidateFile checks that path exists, is a regular file and is readable.
func (v *FileValidator) ValidateFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("file %s", path))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info, nil
}

// ValidateHoldingsFile checks that path is a readable holdings file within the
// size limit and returns its kind.
func (v *FileValidator) ValidateHoldingsFile(path string) (dataprocessing.Kind, error) {
	if isTempWorkbook(path) {
		return "", apperrors.NewAppValidationError(fmt.Sprintf("%s is a temporary Excel lock file", path))
	}

	kind, err := dataprocessing.KindFromFilename(path)
	if err != nil {
		return "", err
	}

	info, err := v.ValidateFile(path)
	if err != nil {
		return "", err
	}

	if v.maxBytes > 0 && info.Size() > v.maxBytes {
		v.logger.Warn("Holdings file too large",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("limit", v.maxBytes))
		return "", apperrors.NewAppValidationError(
			fmt.Sprintf("%s is %d bytes; the limit is %d", path, info.Size(), v.maxBytes))
	}
	return kind, nil
}

// ExpandInputs replaces every directory in paths with the holdings files it
// directly contains, in name order. Plain file arguments pass through
// unchanged so that their errors surface per file.
func (v *FileValidator) ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			out = append(out, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}

		var found []string
		for _, e := range entries {
			if e.IsDir() || isTempWorkbook(e.Name()) {
				continue
			}
			if _, err := dataprocessing.KindFromFilename(e.Name()); err == nil {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		if len(found) == 0 {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("no holdings files in %s", p))
		}
		sort.Strings(found)

		v.logger.Debug("Directory expanded",
			slog.String("directory", p),
			slog.Int("files", len(found)))
		out = append(out, found...)
	}
	return out, nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is
// writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	name := testFile.Name()
	testFile.Close()
	os.Remove(name)

	return nil
}

// ValidateOutputFile checks that path can be created as a file.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory", path))
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

func isTempWorkbook(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "~$")
}
