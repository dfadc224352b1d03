package fileinfo

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotRegularFile is returned for directories, devices, sockets and pipes.
var ErrNotRegularFile = errors.New("not a regular file")

// FileTooLargeError is returned when a file exceeds the size limit.
type FileTooLargeError struct {
	Path string
	Size int64
	Max  int64
}

// Error implements the error interface.
func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file %q is too large (%d bytes, max %d bytes)", e.Path, e.Size, e.Max)
}

// ReadFile reads a regular file into memory. Files larger than maxSize
// bytes are refused; maxSize <= 0 means no limit.
func ReadFile(path string, maxSize int64) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", path, ErrNotRegularFile)
	}
	if maxSize > 0 && fi.Size() > maxSize {
		return nil, &FileTooLargeError{Path: path, Size: fi.Size(), Max: maxSize}
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is the user-supplied target
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// ReadAll reads r into memory, refusing more than maxSize bytes;
// maxSize <= 0 means no limit. name is used in the error message.
func ReadAll(r io.Reader, name string, maxSize int64) ([]byte, error) {
	if maxSize <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if int64(len(data)) > maxSize {
		return nil, &FileTooLargeError{Path: name, Size: int64(len(data)), Max: maxSize}
	}
	return data, nil
}
