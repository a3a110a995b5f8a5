//go:build !windows

package archive

import (
	"os"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// chownEntry restores fi's recorded owner and group on the extracted entry
// at dest. Failures are not fatal to the extraction: chown only succeeds
// when running as root, and spec.md scopes Extract's Chown option to that
// case, so callers outside it should simply leave it false.
func chownEntry(dest string, fi *fileinfo.FileInfo) {
	os.Lchown(dest, fi.UID, fi.GID)
}
