package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	apperrors "github.com/kirielllka/empl-reports/internal/errors"
)

// FileValidator checks input paths before they are read.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and can be opened.
// A missing path yields a NOT_FOUND error wrapping fs.ErrNotExist.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Warn("Input file does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError("file "+path, err)
	}
	if err != nil {
		v.logger.Error("Failed to stat input file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewInternalError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Warn("Input path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewInternalError(fmt.Sprintf("%s is a directory, not a file", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Input file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewInternalError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("Input file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}
