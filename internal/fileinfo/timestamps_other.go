//go:build !linux

package fileinfo

import (
	"fmt"
	"os"

	"github.com/nao1215/blobscan/internal/model"
)

// Timestamps returns the modification time of path.
func Timestamps(path string) (*model.Timestamps, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return &model.Timestamps{Modified: fi.ModTime()}, nil
}
