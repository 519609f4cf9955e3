package bundle

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// syntheticEntry describes one file to embed when building a test bundle.
// Building bundles is otherwise out of scope for this repository (§1:
// packaging tools that produce bundles are external collaborators); this
// encoder exists solely so the test suite can exercise the reader side
// without a real .NET SDK.
type syntheticEntry struct {
	relPath string
	typ     EntryType
	data    []byte
}

type bundleOpts struct {
	majorVersion uint32
	minorVersion uint32
	bundleID     string
	numFilesOverride *int32
}

func defaultBundleOpts(bundleID string) bundleOpts {
	return bundleOpts{
		majorVersion: supportedMajorVersion,
		minorVersion: supportedMinorVersion,
		bundleID:     bundleID,
	}
}

// buildBundle writes a synthetic bundle file at path: payload blocks
// first, then the header and file entries, then the footer, matching the
// layout ParseManifest expects.
func buildBundle(t *testing.T, path string, entries []syntheticEntry, opts bundleOpts) []FileEntry {
	t.Helper()

	// A real bundle's payload region never starts at absolute offset 0:
	// the host executable's own bytes precede it. Reserve a fake exe
	// header so the first entry gets a positive offset like a real bundle.
	buf := []byte("MZfakeexeheader ")
	fileEntries := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		off := int64(len(buf))
		buf = append(buf, e.data...)
		fileEntries = append(fileEntries, FileEntry{
			Offset:       off,
			Size:         int64(len(e.data)),
			Type:         e.typ,
			RelativePath: e.relPath,
		})
	}

	headerOffset := int64(len(buf))
	buf = appendUint32(buf, opts.majorVersion)
	buf = appendUint32(buf, opts.minorVersion)
	numFiles := int32(len(entries))
	if opts.numFilesOverride != nil {
		numFiles = *opts.numFilesOverride
	}
	buf = appendInt32(buf, numFiles)
	buf = appendPathString(t, buf, opts.bundleID)

	for _, fe := range fileEntries {
		buf = appendInt64(buf, fe.Offset)
		buf = appendInt64(buf, fe.Size)
		buf = appendInt32(buf, int32(fe.Type))
		buf = appendPathString(t, buf, fe.RelativePath)
	}

	buf = appendInt64(buf, headerOffset)
	buf = append(buf, byte(len(bundleSignature)))
	buf = append(buf, []byte(bundleSignature)...)

	require.NoError(t, os.WriteFile(path, buf, 0o755))
	return fileEntries
}

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendInt32(b []byte, v int32) []byte { return appendUint32(b, uint32(v)) }

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendInt64(b []byte, v int64) []byte { return appendUint64(b, uint64(v)) }

func appendPathString(t *testing.T, b []byte, s string) []byte {
	t.Helper()
	prefix, err := encodePathStringLength(len(s))
	require.NoError(t, err)
	b = append(b, prefix...)
	return append(b, []byte(s)...)
}

// openReader memory-maps path and returns a Reader plus the MappedFile
// behind it; the map is closed through t.Cleanup when the test ends.
func openReader(t *testing.T, path string) (*Reader, *MappedFile) {
	t.Helper()
	mf, err := OpenMappedFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mf.Close() })
	return NewReader(mf), mf
}
