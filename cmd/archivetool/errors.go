package main

import "github.com/archivetools/archivetools/pkg/archive"

// isIntegrityError reports whether err is an *archive.IntegrityError,
// mapped to exit code 3.
func isIntegrityError(err error) bool {
	_, ok := err.(*archive.IntegrityError)
	return ok
}
