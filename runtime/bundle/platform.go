package bundle

import "os"

// Platform is the filesystem surface the extractor needs. The default
// implementation (defaultPlatform, in platform_default.go) calls straight
// through to the os package; tests substitute a counting/faulting
// implementation to verify idempotence (R3) and commit-race behavior (R4)
// without touching a real filesystem beyond what's necessary.
type Platform interface {
	// MkdirAll creates a directory and any missing parents, matching
	// os.MkdirAll's "already exists as a directory" success semantics.
	MkdirAll(path string, perm os.FileMode) error
	// DirExists reports whether path exists and is a directory.
	DirExists(path string) bool
	// CreateFile creates (truncating if it exists) a file for writing.
	CreateFile(path string, perm os.FileMode) (*os.File, error)
	// Rename atomically renames oldpath to newpath.
	Rename(oldpath, newpath string) error
	// RemoveAll recursively removes path.
	RemoveAll(path string) error
	// Getpid returns the current process id.
	Getpid() int
	// Sleep blocks the calling goroutine, used only by the Phase C retry
	// loop's backoff.
	Sleep(ms int)
	// RenameIsRetriable classifies whether err, returned from Rename,
	// indicates a transient sharing/permission conflict (e.g. an
	// antivirus scanner holding a newly written executable open) that is
	// worth retrying, as opposed to a terminal failure.
	RenameIsRetriable(err error) bool
}
