package bundle

import (
	"errors"
	"sync"

	"github.com/corehost/bundle-extract/internal/logging"
)

// StatusCode is the outcome Runner.Extract reports, mirroring the status
// codes the surrounding application host surfaces to its own caller.
// Other codes belong to the host and are out of scope here.
type StatusCode int

const (
	// StatusSuccess means final_dir exists and is ready to use.
	StatusSuccess StatusCode = iota
	// StatusAppHostExeNotBundle means the executable carries no bundle
	// footer; this is not an error, just informational.
	StatusAppHostExeNotBundle
	// StatusBundleExtractionFailure means a semantic, version, or commit
	// failure occurred.
	StatusBundleExtractionFailure
	// StatusBundleExtractionIOError means a filesystem I/O failure
	// occurred.
	StatusBundleExtractionIOError
)

func (s StatusCode) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusAppHostExeNotBundle:
		return "AppHostExeNotBundle"
	case StatusBundleExtractionFailure:
		return "BundleExtractionFailure"
	case StatusBundleExtractionIOError:
		return "BundleExtractionIOError"
	default:
		return "Unknown"
	}
}

// statusForKind maps an error Kind to the status code the Runner returns
// for it.
func statusForKind(k Kind) StatusCode {
	switch k {
	case KindNotABundle:
		return StatusAppHostExeNotBundle
	case KindIOError:
		return StatusBundleExtractionIOError
	default:
		return StatusBundleExtractionFailure
	}
}

// BundleContext is the result of a successful (or short-circuited)
// extraction, threaded explicitly to whatever part of the host needs it
// rather than kept behind a bare process-wide global — see DESIGN.md's
// discussion of the original's static Runner.
type BundleContext struct {
	Manifest       *Manifest
	ExtractionPath string
	mf             *MappedFile
}

// ReadBundledFile looks up a file entry by exact relative-path match
// (after separator normalization) and returns a zero-copy view into the
// memory-mapped bundle. It requires the context to have been created with
// keepMapOpen true; otherwise the map was already released after
// extraction and this always returns false. Linear scan over entries is
// acceptable: O(N) in file count.
func (c *BundleContext) ReadBundledFile(name string) ([]byte, bool) {
	if c.mf == nil {
		return nil, false
	}
	name = normalizeSeparators(name)
	for _, e := range c.Manifest.Entries {
		if e.RelativePath != name {
			continue
		}
		end := e.Offset + e.Size
		if end > int64(c.mf.Len()) {
			return nil, false
		}
		return c.mf.Bytes()[e.Offset:end], true
	}
	return nil, false
}

// Close releases the memory map, if one is held open. Safe to call more
// than once.
func (c *BundleContext) Close() error {
	if c.mf == nil {
		return nil
	}
	err := c.mf.Close()
	c.mf = nil
	return err
}

// Runner is the top-level orchestrator: it opens a bundle, drives the
// manifest parser and extractor, and reports the outcome.
type Runner struct {
	platform  Platform
	logger    *logging.Logger
	extractor *Extractor
}

// NewRunner returns a Runner using the production Platform and a logger
// scoped to "runtime/bundle".
func NewRunner() *Runner {
	platform := NewPlatform()
	logger := logging.GetLogger("runtime/bundle")
	return &Runner{
		platform:  platform,
		logger:    logger,
		extractor: NewExtractor(platform, logging.GetLogger("runtime/bundle/extractor")),
	}
}

// Extract opens bundlePath, parses its manifest, and extracts it,
// returning the resulting status and, on success only, the BundleContext a
// caller can use to locate the extracted files or read one back without
// touching disk (when keepMapOpen is true). Every other status, including
// AppHostExeNotBundle, comes with a nil BundleContext.
//
// State machine: Probing -> Mapped -> FooterParsed -> HeaderParsed ->
// ManifestParsed -> Staging -> Committing -> Done, with Failed(kind)
// reachable from any non-terminal state and a short-circuit Done reachable
// directly from Probing when final_dir already exists.
func (run *Runner) Extract(bundlePath string, keepMapOpen bool) (StatusCode, *BundleContext, error) {
	observeAttempt()

	mf, err := OpenMappedFile(bundlePath)
	if err != nil {
		run.fail(err)
		return StatusBundleExtractionIOError, nil, err
	}

	r := NewReader(mf)
	manifest, err := ParseManifest(r)
	if err != nil {
		_ = mf.Close()
		run.fail(err)
		return run.statusAndLog(err), nil, err
	}

	if dups := manifest.DuplicatePaths(); len(dups) > 0 {
		run.logger.Warn("manifest contains duplicate relative paths, last write wins", "paths", dups)
	}

	layout := NewExtractionLayout(bundlePath, manifest.BundleID, run.platform.Getpid())

	if err := run.extractor.Extract(r, manifest, layout); err != nil {
		_ = mf.Close()
		run.fail(err)
		return run.statusAndLog(err), nil, err
	}

	observeSuccess()
	ctx := &BundleContext{
		Manifest:       manifest,
		ExtractionPath: layout.FinalDir,
	}
	if keepMapOpen {
		ctx.mf = mf
	} else {
		_ = mf.Close()
	}
	return StatusSuccess, ctx, nil
}

func (run *Runner) statusAndLog(err error) StatusCode {
	return statusForKind(kindOf(err))
}

// fail emits the two-line trace failure banner the original format uses:
// a general banner and the specific cause, except for NotABundle, which
// is purely informational.
func (run *Runner) fail(err error) {
	kind := kindOf(err)
	if kind == KindNotABundle {
		run.logger.Info("not an application bundle")
		return
	}
	observeFailure(kind)
	run.logger.Error("Failure processing application bundle.")
	run.logger.Error(err.Error())
}

func kindOf(err error) Kind {
	var bErr *Error
	if errors.As(err, &bErr) {
		return bErr.Kind
	}
	return KindIOError
}

var (
	defaultRunner     *Runner
	defaultRunnerOnce sync.Once
)

// Default returns a process-wide Runner, initialized exactly once, for
// callers that want the original's single static Runner without wiring
// one through explicitly. Prefer NewRunner and an explicit BundleContext
// wherever threading one through is practical.
func Default() *Runner {
	defaultRunnerOnce.Do(func() {
		defaultRunner = NewRunner()
	})
	return defaultRunner
}
