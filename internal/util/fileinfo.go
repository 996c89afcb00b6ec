package util

import (
	"os"

	"golang.org/x/sys/unix"
)

// FileInfo contains the identity of a file on disk: inode, size and modification time.
type FileInfo struct {
	ModTime int64  // Last modification time, seconds since epoch
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number
	Device  uint64 // Device the inode lives on
}

// GetFileInfo stats path and returns its identity.
// Supported on Linux and macOS.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return nil, err
	}

	return &FileInfo{
		ModTime: stat.ModTime().Unix(),
		Size:    stat.Size(),
		Inode:   uint64(st.Ino),
		Device:  uint64(st.Dev),
	}, nil
}

// SameFile reports whether two snapshots refer to the same inode.
func (f *FileInfo) SameFile(other *FileInfo) bool {
	if f == nil || other == nil {
		return false
	}
	return f.Inode == other.Inode && f.Device == other.Device
}
