package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// baseDirEnvVar is the environment variable that, when set, overrides the
// default extraction base directory.
const baseDirEnvVar = "DOTNET_BUNDLE_EXTRACT_BASE_DIR"

// execExtension is the executable extension stripped from a bundle's own
// filename to derive its app stem.
const execExtension = ".exe"

// baseDir resolves <base>: the environment override if set, else
// <system temp dir>/.net.
func baseDir() string {
	if v, ok := os.LookupEnv(baseDirEnvVar); ok && v != "" {
		return v
	}
	return filepath.Join(os.TempDir(), ".net")
}

// appStem strips a trailing executable extension (if any) from the
// bundle's own filename.
func appStem(bundlePath string) string {
	name := filepath.Base(bundlePath)
	if strings.EqualFold(filepath.Ext(name), execExtension) {
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}

// ExtractionLayout holds the two filesystem paths an extraction attempt
// derives from a bundle path, PID, and manifest: the permanent
// destination and the process-private staging area that gets renamed
// into it.
type ExtractionLayout struct {
	// FinalDir is the permanent, content-addressed extraction directory.
	// Its presence is the sole marker that extraction is complete.
	FinalDir string
	// WorkingDir is a sibling of FinalDir, unique to the current process
	// attempt, always on the same filesystem so the Phase C rename is
	// atomic.
	WorkingDir string
}

// NewExtractionLayout computes the layout for extracting bundlePath with
// the given bundle id, keyed by the given process id.
func NewExtractionLayout(bundlePath, bundleID string, pid int) ExtractionLayout {
	appDir := filepath.Join(baseDir(), appStem(bundlePath))
	return ExtractionLayout{
		FinalDir:   filepath.Join(appDir, bundleID),
		WorkingDir: filepath.Join(appDir, strconv.FormatInt(int64(pid), 16)),
	}
}

// DestPath returns the path that relPath will be materialized at under
// dir (either WorkingDir during staging or FinalDir once committed).
func (l ExtractionLayout) DestPath(dir, relPath string) (string, error) {
	dest := filepath.Join(dir, relPath)
	// filepath.Join cleans ".." segments away from the root only if dir
	// itself is absolute and relPath doesn't escape it entirely; guard
	// explicitly since relPath originates from untrusted bundle content.
	if !strings.HasPrefix(dest, filepath.Clean(dir)+string(filepath.Separator)) && dest != filepath.Clean(dir) {
		return "", newErrf(KindCorruption, nil, "relative path %q escapes extraction directory", relPath)
	}
	return dest, nil
}

func (l ExtractionLayout) String() string {
	return fmt.Sprintf("final=%s working=%s", l.FinalDir, l.WorkingDir)
}
