package config

import "syscall"

// WithUmask temporarily sets the process umask to mask for the duration of
// fn, restoring the previous mask afterward, mirroring
// original_source/src/archive/tools.py's tmp_umask context manager. The
// umask is process-wide, so callers must not run this concurrently with
// other file-creating goroutines.
func WithUmask(mask int, fn func() error) error {
	previous := syscall.Umask(mask)
	defer syscall.Umask(previous)
	return fn()
}
