package bundle

import (
	"os"
	"time"
)

// defaultPlatform is the production Platform: every operation calls
// straight through to the os package. The rename-retriability predicate
// is split by OS (platform_unix.go / platform_windows.go), mirroring how
// github.com/edsrzf/mmap-go itself splits its mapping implementation by
// OS rather than hiding it behind runtime branches.
type defaultPlatform struct{}

// NewPlatform returns the production Platform implementation.
func NewPlatform() Platform { return defaultPlatform{} }

func (defaultPlatform) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (defaultPlatform) DirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func (defaultPlatform) CreateFile(path string, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
}

func (defaultPlatform) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}

func (defaultPlatform) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (defaultPlatform) Getpid() int { return os.Getpid() }

func (defaultPlatform) Sleep(ms int) { time.Sleep(time.Duration(ms) * time.Millisecond) }
