package bundle

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathStringRoundTrip(t *testing.T) {
	for _, length := range []int{1, 2, 64, 126, 127, 128, 129, 1000, PathMax} {
		prefix, err := encodePathStringLength(length)
		require.NoError(t, err)

		decoded, n, err := decodePathStringLength(prefix[0], len(prefix) > 1, atIndex(prefix, 1))
		require.NoError(t, err)
		require.Equal(t, length, decoded)
		require.Equal(t, len(prefix), n)
	}
}

func atIndex(b []byte, i int) byte {
	if i < len(b) {
		return b[i]
	}
	return 0
}

func TestPathStringLength127Is1Byte(t *testing.T) {
	prefix, err := encodePathStringLength(127)
	require.NoError(t, err)
	require.Len(t, prefix, 1)
}

func TestPathStringLength128Is2Bytes(t *testing.T) {
	prefix, err := encodePathStringLength(128)
	require.NoError(t, err)
	require.Len(t, prefix, 2)
}

func TestPathStringSecondByteHighBitSetIsCorruption(t *testing.T) {
	_, _, err := decodePathStringLength(0x80, true, 0x80)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	require.Equal(t, KindCorruption, bErr.Kind)
}

func TestReaderReadPathStringBoundaries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle")

	maxLenName := strings.Repeat("a", PathMax)
	entries := []syntheticEntry{
		{relPath: maxLenName, typ: EntryAssembly, data: []byte("x")},
	}
	buildBundle(t, path, entries, defaultBundleOpts("id"))

	r, _ := openReader(t, path)
	m, err := ParseManifest(r)
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)
	require.Equal(t, maxLenName, m.Entries[0].RelativePath)
}

func TestReaderRejectsPathStringTooLong(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundle")

	tooLong := strings.Repeat("a", PathMax+1)
	entries := []syntheticEntry{
		{relPath: tooLong, typ: EntryAssembly, data: []byte("x")},
	}
	buildBundle(t, path, entries, defaultBundleOpts("id"))

	r, _ := openReader(t, path)
	_, err := ParseManifest(r)
	require.Error(t, err)
	var bErr *Error
	require.ErrorAs(t, err, &bErr)
	require.Equal(t, KindCorruption, bErr.Kind)
}
