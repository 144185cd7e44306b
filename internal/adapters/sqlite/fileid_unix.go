//go:build unix

package sqlite

import (
	"os"
	"syscall"
)

// fileID returns the inode of the file described by info
func fileID(info os.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return int64(st.Ino)
	}
	return 0
}
