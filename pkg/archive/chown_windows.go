//go:build windows

package archive

import "github.com/archivetools/archivetools/pkg/fileinfo"

// chownEntry is a no-op on Windows, which has no POSIX uid/gid model.
func chownEntry(dest string, fi *fileinfo.FileInfo) {}
