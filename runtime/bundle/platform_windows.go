//go:build windows

package bundle

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

// RenameIsRetriable recognizes ERROR_SHARING_VIOLATION and
// ERROR_ACCESS_DENIED, the errors MoveFileEx surfaces when an antivirus
// scanner or another process has the destination transiently open, per
// the Phase C retry policy.
func (defaultPlatform) RenameIsRetriable(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	return errors.Is(linkErr.Err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(linkErr.Err, windows.ERROR_ACCESS_DENIED)
}
