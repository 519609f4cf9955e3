// Package bundle implements the single-file bundle layout parser and the
// fault-tolerant, race-safe extraction protocol for a self-contained
// application host: a bundle is an ordinary executable whose tail carries
// a length-prefixed manifest and an embedded archive of the files the
// application needs at runtime.
package bundle

import (
	"bytes"
)

const (
	// bundleSignature is the fixed 14-byte ASCII signature that ends every
	// BundleFooter, after the header offset and the signature length byte.
	bundleSignature = ".NetCoreBundle"

	// supportedMajorVersion and supportedMinorVersion are the only
	// BundleHeader version pair this reader understands. The original
	// source compiles in a single pair; this repo follows suit (see
	// DESIGN.md for the reasoning).
	supportedMajorVersion uint32 = 0
	supportedMinorVersion uint32 = 1
)

// EntryType classifies an embedded file. The extractor treats it
// opaquely; it exists only so a caller inspecting a Manifest can tell
// assemblies from native binaries from configuration without guessing
// from the file extension.
type EntryType int32

const (
	EntryUnknown EntryType = iota
	EntryAssembly
	EntryNativeBinary
	EntryDepsJSON
	EntryRuntimeConfigJSON
	entryTypeCount // sentinel: one past the last defined value
)

func (t EntryType) valid() bool { return t >= EntryUnknown && t < entryTypeCount }

func (t EntryType) String() string {
	switch t {
	case EntryUnknown:
		return "unknown"
	case EntryAssembly:
		return "assembly"
	case EntryNativeBinary:
		return "native binary"
	case EntryDepsJSON:
		return "deps.json"
	case EntryRuntimeConfigJSON:
		return "runtimeconfig.json"
	default:
		return "invalid"
	}
}

// FileEntry describes one embedded file: its payload location within the
// bundle and the path it should be materialized at relative to the
// extraction directory.
type FileEntry struct {
	Offset       int64
	Size         int64
	Type         EntryType
	RelativePath string
}

// Manifest is the parsed, immutable in-bundle index: version numbers, the
// opaque bundle ID, and the ordered sequence of file entries.
type Manifest struct {
	MajorVersion     uint32
	MinorVersion     uint32
	BundleID         string
	Entries          []FileEntry
	ManifestHeaderOffset int64
}

// footerSize is the on-disk size of BundleFooter: offset(8) + length(1) + signature(14).
const footerSize = 8 + 1 + len(bundleSignature)

// ParseManifest recognizes a bundle, parses its trailer, and materializes
// the Manifest, per the bundle layout algorithm: seek to the footer,
// validate the signature, follow manifest_header_offset to the header,
// validate the version pair, then read bundle_id and every FileEntry in
// order.
func ParseManifest(r *Reader) (*Manifest, error) {
	if r.Length() < int64(footerSize) {
		return nil, newErr(KindNotABundle, "bundle is smaller than a footer", nil)
	}

	if err := r.SetOffset(r.Length() - int64(footerSize)); err != nil {
		return nil, newErr(KindIOError, "failed to seek to footer", err)
	}

	headerOffset, err := r.ReadInt64()
	if err != nil {
		return nil, newErr(KindIOError, "failed to read manifest header offset", err)
	}
	sigLen, err := r.ReadByte()
	if err != nil {
		return nil, newErr(KindIOError, "failed to read signature length", err)
	}
	sig, err := r.DirectRead(len(bundleSignature))
	if err != nil {
		return nil, newErr(KindIOError, "failed to read signature", err)
	}

	if int(sigLen) != len(bundleSignature) || !bytes.Equal(sig, []byte(bundleSignature)) {
		return nil, newErr(KindNotABundle, "footer signature absent", nil)
	}

	if headerOffset <= 0 || headerOffset >= r.Length() {
		return nil, newErrf(KindCorruption, nil, "manifest header offset %d out of bounds", headerOffset)
	}

	if err := r.SetOffset(headerOffset); err != nil {
		return nil, newErr(KindCorruption, "failed to seek to manifest header", err)
	}

	majorVersion, err := r.ReadUint32()
	if err != nil {
		return nil, newErr(KindCorruption, "failed to read header major version", err)
	}
	minorVersion, err := r.ReadUint32()
	if err != nil {
		return nil, newErr(KindCorruption, "failed to read header minor version", err)
	}
	if majorVersion != supportedMajorVersion || minorVersion != supportedMinorVersion {
		return nil, newErrf(KindVersionMismatch, nil,
			"manifest header version compatibility check failed (got %d.%d, expected %d.%d)",
			majorVersion, minorVersion, supportedMajorVersion, supportedMinorVersion)
	}

	numFiles, err := r.ReadInt32()
	if err != nil {
		return nil, newErr(KindVersionMismatch, "failed to read embedded file count", err)
	}
	if numFiles <= 0 {
		return nil, newErrf(KindVersionMismatch, nil, "non-positive embedded file count %d", numFiles)
	}

	bundleID, err := r.ReadPathString()
	if err != nil {
		return nil, newErr(KindCorruption, "failed to read bundle id", err)
	}

	entries := make([]FileEntry, 0, numFiles)
	for i := int32(0); i < numFiles; i++ {
		entry, err := parseFileEntry(r)
		if err != nil {
			return nil, newErrf(KindCorruption, err, "failed to parse file entry %d", i)
		}
		entries = append(entries, entry)
	}

	return &Manifest{
		MajorVersion:         majorVersion,
		MinorVersion:         minorVersion,
		BundleID:             bundleID,
		Entries:              entries,
		ManifestHeaderOffset: headerOffset,
	}, nil
}

func parseFileEntry(r *Reader) (FileEntry, error) {
	offset, err := r.ReadInt64()
	if err != nil {
		return FileEntry{}, newErr(KindCorruption, "failed to read offset", err)
	}
	size, err := r.ReadInt64()
	if err != nil {
		return FileEntry{}, newErr(KindCorruption, "failed to read size", err)
	}
	typ, err := r.ReadInt32()
	if err != nil {
		return FileEntry{}, newErr(KindCorruption, "failed to read type", err)
	}
	relPath, err := r.ReadPathString()
	if err != nil {
		return FileEntry{}, newErr(KindCorruption, "failed to read relative path", err)
	}

	if offset <= 0 {
		return FileEntry{}, newErrf(KindCorruption, nil, "non-positive offset %d", offset)
	}
	if size <= 0 {
		return FileEntry{}, newErrf(KindCorruption, nil, "non-positive size %d", size)
	}
	entryType := EntryType(typ)
	if !entryType.valid() {
		return FileEntry{}, newErrf(KindCorruption, nil, "file entry type %d out of range", typ)
	}

	return FileEntry{
		Offset:       offset,
		Size:         size,
		Type:         entryType,
		RelativePath: normalizeSeparators(relPath),
	}, nil
}

// DuplicatePaths returns every relative path that appears more than once
// among the manifest's entries, for callers that want to warn about it
// (the parser itself permits duplicates; last write wins in the
// extractor).
func (m *Manifest) DuplicatePaths() []string {
	counts := make(map[string]int, len(m.Entries))
	for _, e := range m.Entries {
		counts[e.RelativePath]++
	}
	var dups []string
	for path, n := range counts {
		if n > 1 {
			dups = append(dups, path)
		}
	}
	return dups
}
