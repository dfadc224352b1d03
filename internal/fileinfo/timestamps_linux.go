//go:build linux

package fileinfo

import (
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/nao1215/blobscan/internal/model"
)

// Timestamps returns the modification, access and status change times of path.
func Timestamps(path string) (*model.Timestamps, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	ts := &model.Timestamps{Modified: fi.ModTime()}
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		atime := time.Unix(st.Atim.Unix())
		ctime := time.Unix(st.Ctim.Unix())
		ts.Accessed = &atime
		ts.Changed = &ctime
	}
	return ts, nil
}
