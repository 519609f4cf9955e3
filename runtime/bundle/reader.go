package bundle

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	mmap "github.com/edsrzf/mmap-go"
)

// MappedFile memory-maps a bundle file read-only. Its Bytes() slice is the
// "borrowed byte-view tied to the life of the map" the reader hands out:
// it becomes invalid the instant Close is called, exactly like the
// underlying mmap.MMap it wraps.
type MappedFile struct {
	f  *os.File
	mm mmap.MMap
}

// OpenMappedFile opens and memory-maps path read-only.
func OpenMappedFile(path string) (*MappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErrf(KindIOError, err, "failed to open bundle '%s'", path)
	}
	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, newErrf(KindIOError, err, "failed to map bundle '%s'", path)
	}
	return &MappedFile{f: f, mm: mm}, nil
}

// Bytes returns the mapped file contents. The returned slice is only
// valid until Close is called.
func (m *MappedFile) Bytes() []byte { return m.mm }

// Len returns the length of the mapped file.
func (m *MappedFile) Len() int { return len(m.mm) }

// Close unmaps and closes the underlying file. Any byte view previously
// returned by Reader.DirectRead becomes invalid.
func (m *MappedFile) Close() error {
	var err error
	if m.mm != nil {
		err = m.mm.Unmap()
		m.mm = nil
	}
	if cErr := m.f.Close(); err == nil {
		err = cErr
	}
	return err
}

// Reader is a cursor over a memory-mapped bundle, providing positioned and
// sequential reads of fixed-size values and length-prefixed UTF-8 strings.
// All operations are bounds-checked against the mapped length.
type Reader struct {
	mf     *MappedFile
	offset int64
}

// NewReader returns a Reader positioned at the start of the mapped bundle.
func NewReader(mf *MappedFile) *Reader {
	return &Reader{mf: mf}
}

// Offset returns the cursor's current absolute byte offset.
func (r *Reader) Offset() int64 { return r.offset }

// Length returns the length of the underlying bundle.
func (r *Reader) Length() int64 { return int64(r.mf.Len()) }

// SetOffset moves the cursor to an absolute byte offset. It fails if o is
// outside [0, bundle length].
func (r *Reader) SetOffset(o int64) error {
	if o < 0 || o > r.Length() {
		return newErrf(KindCorruption, nil, "offset %d out of bounds (length %d)", o, r.Length())
	}
	r.offset = o
	return nil
}

// ReadByte reads and returns the next byte, advancing the cursor.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.DirectRead(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadExact copies exactly len(dst) bytes starting at the cursor into dst,
// advancing the cursor.
func (r *Reader) ReadExact(dst []byte) error {
	b, err := r.DirectRead(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

// DirectRead returns a read-only view of the next n bytes without copying
// and advances the cursor. The returned slice aliases the memory map and
// is invalid once the map is closed.
func (r *Reader) DirectRead(n int) ([]byte, error) {
	if n < 0 {
		return nil, newErr(KindCorruption, "negative read length", nil)
	}
	end := r.offset + int64(n)
	if end > r.Length() {
		return nil, newErrf(KindCorruption, nil, "read of %d bytes at offset %d runs past end of bundle (length %d)", n, r.offset, r.Length())
	}
	b := r.mf.Bytes()[r.offset:end]
	r.offset = end
	return b, nil
}

// ReadUint32 reads a little-endian 32-bit unsigned integer.
func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.DirectRead(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt32 reads a little-endian signed 32-bit integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadUint64 reads a little-endian 64-bit unsigned integer.
func (r *Reader) ReadUint64() (uint64, error) {
	b, err := r.DirectRead(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadInt64 reads a little-endian signed 64-bit integer.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadPathString decodes a PathString at the cursor: a 7-bit continuation
// length prefix followed by that many raw UTF-8 bytes. It fails with
// KindCorruption on invalid length encoding or a decoded length outside
// [1, PathMax].
func (r *Reader) ReadPathString() (string, error) {
	b1, err := r.ReadByte()
	if err != nil {
		return "", err
	}

	var length int
	if b1&0x80 == 0 {
		length, _, err = decodePathStringLength(b1, false, 0)
	} else {
		var b2 byte
		b2, err = r.ReadByte()
		if err != nil {
			return "", newErr(KindCorruption, "path string length prefix truncated", err)
		}
		length, _, err = decodePathStringLength(b1, true, b2)
	}
	if err != nil {
		return "", err
	}

	if length < 1 || length > PathMax {
		return "", newErrf(KindCorruption, nil, "path string length %d out of range [1, %d]", length, PathMax)
	}

	raw, err := r.DirectRead(length)
	if err != nil {
		return "", newErr(KindCorruption, "path string runs past end of bundle", err)
	}
	return string(raw), nil
}

// normalizeSeparators rewrites every in-bundle '/' separator to the
// platform's native separator. The in-bundle canonical separator is
// always ASCII '/' regardless of the host the bundle is extracted on.
func normalizeSeparators(relPath string) string {
	if filepath.Separator == '/' {
		return relPath
	}
	return strings.ReplaceAll(relPath, "/", string(filepath.Separator))
}
