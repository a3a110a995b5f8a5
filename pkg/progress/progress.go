// Package progress wraps a fileinfo.Source with terminal progress
// reporting, grounded on whatsoevan-backupbozo's progressbar.Options usage
// for a file-copying backup tool.
package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/archivetools/archivetools/pkg/fileinfo"
)

// IsTerminal reports whether w is a terminal file descriptor supporting
// dynamic progress redraws.
func IsTerminal(w *os.File) bool {
	return isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd())
}

// Bar is the subset of *progressbar.ProgressBar this package drives.
type Bar interface {
	Add64(int64) error
	Finish() error
}

// NewBar constructs an indeterminate byte-count spinner bar writing to w,
// since the total archive size is not known before enumeration completes.
func NewBar(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}

// Source wraps a fileinfo.Source, advancing bar by each file's content
// length as it is opened for reading.
type Source struct {
	fileinfo.Source
	Bar Bar
}

// Open implements fileinfo.Source.Open, reporting fi's size to Bar before
// returning the underlying reader unmodified.
func (s *Source) Open(fi *fileinfo.FileInfo) (io.ReadCloser, error) {
	r, err := s.Source.Open(fi)
	if err != nil {
		return nil, err
	}
	if s.Bar != nil {
		s.Bar.Add64(fi.Size)
	}
	return r, nil
}
