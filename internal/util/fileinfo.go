package util

import (
	"os"
	"syscall"
)

// FileInfo contains the identity of a file: size, modification time and inode number.
type FileInfo struct {
	ModTime int64  // Last modification time (unix nanoseconds)
	Size    int64  // File size in bytes
	Inode   uint64 // Inode number, 0 when the platform does not expose one
}

// GetFileInfo retrieves size, mtime and inode for path.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	info := &FileInfo{
		ModTime: stat.ModTime().UnixNano(),
		Size:    stat.Size(),
	}
	if sysStat, ok := stat.Sys().(*syscall.Stat_t); ok {
		info.Inode = uint64(sysStat.Ino)
	}
	return info, nil
}

// Replaced reports whether the file behind a path was swapped or truncated
// relative to a previously observed inode and read offset.
func (fi *FileInfo) Replaced(prevInode uint64, offset int64) bool {
	if fi.Size < offset {
		return true
	}
	return prevInode != 0 && fi.Inode != 0 && fi.Inode != prevInode
}
