package bundle

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseManifestValidBundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")

	entries := []syntheticEntry{
		{relPath: "app.dll", typ: EntryAssembly, data: []byte{0x41, 0x42, 0x43}},
		{relPath: "app.deps.json", typ: EntryDepsJSON, data: []byte{0x7B, 0x7D}},
	}
	buildBundle(t, path, entries, defaultBundleOpts("abcd1234"))

	r, _ := openReader(t, path)
	m, err := ParseManifest(r)
	require.NoError(t, err)
	require.Equal(t, "abcd1234", m.BundleID)
	require.Len(t, m.Entries, 2)
	require.Equal(t, "app.dll", m.Entries[0].RelativePath)
	require.Equal(t, int64(3), m.Entries[0].Size)
}

// E4: a plain executable with no bundle footer is NotABundle, not Corruption.
func TestParseManifestPlainExecutableIsNotABundle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")
	require.NoError(t, os.WriteFile(path, []byte("just a normal ELF/PE, nothing to see here"), 0o755))

	r, _ := openReader(t, path)
	_, err := ParseManifest(r)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	require.Equal(t, KindNotABundle, bErr.Kind)
	require.True(t, errors.Is(err, ErrNotABundle))
}

// E5: correct signature but an unsupported major version is VersionMismatch.
func TestParseManifestVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")

	opts := defaultBundleOpts("id")
	opts.majorVersion = 1
	buildBundle(t, path, []syntheticEntry{{relPath: "a", typ: EntryAssembly, data: []byte("x")}}, opts)

	r, _ := openReader(t, path)
	_, err := ParseManifest(r)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	require.Equal(t, KindVersionMismatch, bErr.Kind)
}

func TestParseManifestSingleEntryIsValid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")
	buildBundle(t, path, []syntheticEntry{{relPath: "only.dll", typ: EntryAssembly, data: []byte("x")}}, defaultBundleOpts("id"))

	r, _ := openReader(t, path)
	m, err := ParseManifest(r)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
}

func TestParseManifestRejectsNonPositiveFileCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")
	opts := defaultBundleOpts("id")
	zero := int32(0)
	opts.numFilesOverride = &zero
	buildBundle(t, path, nil, opts)

	r, _ := openReader(t, path)
	_, err := ParseManifest(r)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	require.Equal(t, KindVersionMismatch, bErr.Kind)
}

func TestParseManifestDuplicateRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")
	entries := []syntheticEntry{
		{relPath: "dup.dll", typ: EntryAssembly, data: []byte("first")},
		{relPath: "dup.dll", typ: EntryAssembly, data: []byte("second")},
	}
	buildBundle(t, path, entries, defaultBundleOpts("id"))

	r, _ := openReader(t, path)
	m, err := ParseManifest(r)
	require.NoError(t, err)
	require.Equal(t, []string{"dup.dll"}, m.DuplicatePaths())
}

// E2: in-bundle '/' separators are rewritten to the native separator.
func TestParseManifestNormalizesSeparators(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app")
	buildBundle(t, path, []syntheticEntry{{relPath: "sub/dir/file.txt", typ: EntryUnknown, data: []byte("x")}}, defaultBundleOpts("id"))

	r, _ := openReader(t, path)
	m, err := ParseManifest(r)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("sub", "dir", "file.txt"), m.Entries[0].RelativePath)
}
