//go:build !windows

package bundle

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// RenameIsRetriable recognizes EACCES and ETXTBSY, the errnos a POSIX
// rename(2) surfaces when a scanner or another process has the
// destination (or something under it) transiently open, per the Phase C
// retry policy.
func (defaultPlatform) RenameIsRetriable(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, unix.EACCES) || errors.Is(linkErr.Err, unix.ETXTBSY)
}
