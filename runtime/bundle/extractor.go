package bundle

import (
	"io"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/corehost/bundle-extract/internal/logging"
)

// copyChunkSize is the buffer size used to stream a FileEntry's payload
// from the mapped bundle into its destination file.
const copyChunkSize = 8 * 1024

// commitMaxAttempts and commitRetryInterval bound the Phase C rename
// retry loop: up to 500 attempts, 100ms apart (~50s total), and only when
// the rename's underlying error is a permission/sharing conflict.
const (
	commitMaxAttempts   = 500
	commitRetryInterval = 100 * time.Millisecond
)

// workingDirPerm is the permission the staging directory and its
// subdirectories are created with on POSIX-like systems.
const workingDirPerm = 0o700

// Extractor materializes a parsed Manifest onto disk via the two-phase
// commit protocol: probe for an existing final_dir, stage every file into
// a process-private working_dir, then atomically rename working_dir to
// final_dir, resolving the race if a concurrent peer wins first.
type Extractor struct {
	platform Platform
	logger   *logging.Logger
}

// NewExtractor returns an Extractor backed by the given Platform.
func NewExtractor(platform Platform, logger *logging.Logger) *Extractor {
	return &Extractor{platform: platform, logger: logger}
}

// Extract runs the two-phase commit protocol for the given manifest and
// layout, reading file payloads from r. A nil error means layout.FinalDir
// now holds the extracted files.
func (e *Extractor) Extract(r *Reader, m *Manifest, layout ExtractionLayout) error {
	// Phase A: Probe. If final_dir already exists, this is a repeat
	// launch; return without opening a working directory or touching the
	// bundle any further than the mmap probe the caller already did.
	if e.platform.DirExists(layout.FinalDir) {
		e.logger.Debug("final directory already exists, skipping extraction", "path", layout.FinalDir)
		return nil
	}

	if err := e.stage(r, m, layout.WorkingDir); err != nil {
		return err
	}

	return e.commit(layout)
}

// stage is Phase B: create working_dir and copy every file entry into it.
func (e *Extractor) stage(r *Reader, m *Manifest, workingDir string) error {
	if err := e.platform.MkdirAll(workingDir, workingDirPerm); err != nil {
		return newErr(KindIOError, "failed to create working directory", err)
	}

	var totalBytes int64
	for _, entry := range m.Entries {
		n, err := e.stageEntry(r, entry, workingDir)
		if err != nil {
			return err
		}
		totalBytes += n
	}
	observeBytesExtracted(totalBytes)
	return nil
}

func (e *Extractor) stageEntry(r *Reader, entry FileEntry, workingDir string) (int64, error) {
	dest, err := ExtractionLayout{}.DestPath(workingDir, entry.RelativePath)
	if err != nil {
		return 0, err
	}

	if err := e.platform.MkdirAll(filepath.Dir(dest), workingDirPerm); err != nil {
		return 0, newErrf(KindIOError, err, "failed to create directory for '%s'", entry.RelativePath)
	}

	f, err := e.platform.CreateFile(dest, 0o600)
	if err != nil {
		return 0, newErrf(KindIOError, err, "failed to create '%s'", entry.RelativePath)
	}
	defer f.Close()

	if err := r.SetOffset(entry.Offset); err != nil {
		return 0, newErrf(KindCorruption, err, "entry '%s' offset out of bounds", entry.RelativePath)
	}

	n, err := copyInChunks(f, r, entry.Size)
	if err != nil {
		return 0, newErrf(KindIOError, err, "failed to copy '%s'", entry.RelativePath)
	}
	return n, nil
}

// copyInChunks copies exactly size bytes from r's current cursor into w,
// 8KiB at a time. Each chunk is a zero-copy view into the memory map, so
// this only ever allocates the destination file's kernel-side buffers.
func copyInChunks(w io.Writer, r *Reader, size int64) (int64, error) {
	var copied int64
	for copied < size {
		n := int64(copyChunkSize)
		if remaining := size - copied; remaining < n {
			n = remaining
		}
		chunk, err := r.DirectRead(int(n))
		if err != nil {
			return copied, err
		}
		if _, err := w.Write(chunk); err != nil {
			return copied, err
		}
		copied += n
	}
	return copied, nil
}

// commit is Phase C: atomically rename working_dir to final_dir, with a
// bounded retry on retriable sharing/permission conflicts, and race
// resolution if a concurrent peer commits first.
func (e *Extractor) commit(layout ExtractionLayout) error {
	bo := backoff.WithMaxRetries(backoff.NewConstantBackOff(commitRetryInterval), commitMaxAttempts-1)
	bo.Reset()

	var lastErr error
	for {
		err := e.platform.Rename(layout.WorkingDir, layout.FinalDir)
		switch {
		case err == nil:
			e.logger.Info("committed extraction", "path", layout.FinalDir)
			return nil
		case e.platform.DirExists(layout.FinalDir):
			// A concurrent peer already won Phase C. Clean up our own
			// staging directory and report success, same as the winner's
			// caller would see.
			observeRace()
			e.logger.Debug("lost extraction race to a concurrent peer, discarding working directory", "path", layout.WorkingDir)
			if rmErr := e.platform.RemoveAll(layout.WorkingDir); rmErr != nil {
				return newErr(KindIOError, "failed to remove working directory after losing race", rmErr)
			}
			return nil
		case !e.platform.RenameIsRetriable(err):
			return newErr(KindCommitFailure, "rename failed with a non-retriable error", err)
		}

		lastErr = err
		next := bo.NextBackOff()
		if next == backoff.Stop {
			return newErr(KindCommitFailure, "rename exhausted retry budget without a peer winning", lastErr)
		}
		e.platform.Sleep(int(next / time.Millisecond))
	}
}
