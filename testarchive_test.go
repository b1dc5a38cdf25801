package zipreader

import (
	"bytes"
	"hash/crc32"
	"os"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
)

// testEntry describes one member for buildTestArchive to write.
type testEntry struct {
	name       string
	data       []byte
	method     CompressionMethod
	utf8       bool
	encrypted  bool // set the encryption flag bit (no real encryption header is written)
	modified   time.Time
	forceZip64 bool // write 0xffffffff size sentinels + a zip64 extra field for this entry

	// zip64LocalOnly writes sentinel sizes in both headers but a zip64
	// extra only in the local one, the way some writers widen sizes
	// without touching the central record.
	zip64LocalOnly bool
}

// buildTestArchive assembles a minimal, conformant ZIP (optionally
// ZIP64) from entries and an archive comment, writing it to a new
// temporary file and returning its path. It is a from-scratch test
// fixture builder, not production code: it exists only to produce
// known-good input for the reader under test.
func buildTestArchive(t *testing.T, entries []testEntry, comment string, forceZip64Tail bool) string {
	t.Helper()
	return writeTempArchive(t, buildTestArchiveBytes(t, entries, comment, forceZip64Tail))
}

func writeTempArchive(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "zipreader-test-*.zip")
	if err != nil {
		t.Fatalf("create temp archive: %v", err)
	}
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write temp archive: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp archive: %v", err)
	}
	return f.Name()
}

// buildTestArchiveBytes is buildTestArchive without the temp file, for
// tests that corrupt specific records before handing the bytes to Open.
func buildTestArchiveBytes(t *testing.T, entries []testEntry, comment string, forceZip64Tail bool) []byte {
	t.Helper()

	var buf bytes.Buffer
	type centralRec struct {
		entry  testEntry
		offset int64
		crc    uint32
		size   int64
	}
	var centrals []centralRec

	for _, e := range entries {
		compressed, crc := compressEntry(t, e)
		offset := int64(buf.Len())

		flags := uint16(0)
		if e.utf8 {
			flags |= utf8FlagBit
		}
		if e.encrypted {
			flags |= encryptedFlagBit
		}
		date, timeField := packDosTime(e.modified)

		localExtra := []byte{}
		compSize := uint32(len(compressed))
		uncompSize := uint32(len(e.data))
		if e.forceZip64 || e.zip64LocalOnly {
			compSize = magicSize32
			uncompSize = magicSize32
			localExtra = zip64ExtraBytes(uint64(len(e.data)), uint64(len(compressed)), nil)
		}

		nameBytes := []byte(e.name)

		writeU32(&buf, localHeaderSignature)
		writeU16(&buf, 20)
		writeU16(&buf, flags)
		writeU16(&buf, uint16(e.method))
		writeU16(&buf, timeField)
		writeU16(&buf, date)
		writeU32(&buf, crc)
		writeU32(&buf, compSize)
		writeU32(&buf, uncompSize)
		writeU16(&buf, uint16(len(nameBytes)))
		writeU16(&buf, uint16(len(localExtra)))
		buf.Write(nameBytes)
		buf.Write(localExtra)
		if e.encrypted {
			// Stand-in for the 12-byte encryption header; the reader
			// only accounts for its length, never decrypts.
			buf.Write(make([]byte, encryptionHeaderLen))
		}
		buf.Write(compressed)

		centrals = append(centrals, centralRec{entry: e, offset: offset, crc: crc, size: int64(len(compressed))})
	}

	dirOffset := int64(buf.Len())
	for _, c := range centrals {
		e := c.entry
		flags := uint16(0)
		if e.utf8 {
			flags |= utf8FlagBit
		}
		if e.encrypted {
			flags |= encryptedFlagBit
		}
		date, timeField := packDosTime(e.modified)
		nameBytes := []byte(e.name)

		compSize := uint32(c.size)
		uncompSize := uint32(len(e.data))
		localOff := uint32(c.offset)
		var centralExtra []byte
		if e.forceZip64 {
			compSize = magicSize32
			uncompSize = magicSize32
			localOff = magicOffset32
			centralExtra = zip64ExtraBytes(uint64(len(e.data)), uint64(c.size), uint64ptr(uint64(c.offset)))
		} else if e.zip64LocalOnly {
			compSize = magicSize32
			uncompSize = magicSize32
		}

		writeU32(&buf, centralHeaderSignature)
		writeU16(&buf, 20) // version made by
		writeU16(&buf, 20) // version needed
		writeU16(&buf, flags)
		writeU16(&buf, uint16(e.method))
		writeU16(&buf, timeField)
		writeU16(&buf, date)
		writeU32(&buf, c.crc)
		writeU32(&buf, compSize)
		writeU32(&buf, uncompSize)
		writeU16(&buf, uint16(len(nameBytes)))
		writeU16(&buf, uint16(len(centralExtra)))
		writeU16(&buf, 0) // comment length
		writeU16(&buf, 0) // disk
		writeU16(&buf, 0) // internal attrs
		writeU32(&buf, 0) // external attrs
		writeU32(&buf, localOff)
		buf.Write(nameBytes)
		buf.Write(centralExtra)
	}
	dirSize := int64(buf.Len()) - dirOffset

	useZip64 := forceZip64Tail || dirOffset > magicOffset32 || dirSize > magicSize32 || len(centrals) > magicEntryCount16
	if useZip64 {
		zrecOff := int64(buf.Len())
		writeU32(&buf, zip64EndRecordSignature)
		writeU64(&buf, 44) // size of remaining record
		writeU16(&buf, 45) // version made by
		writeU16(&buf, 45) // version needed
		writeU32(&buf, 0)  // disk
		writeU32(&buf, 0)  // directory disk
		writeU64(&buf, uint64(len(centrals)))
		writeU64(&buf, uint64(len(centrals)))
		writeU64(&buf, uint64(dirSize))
		writeU64(&buf, uint64(dirOffset))

		writeU32(&buf, zip64LocatorSignature)
		writeU32(&buf, 0) // disk with zip64 end record
		writeU64(&buf, uint64(zrecOff))
		writeU32(&buf, 1) // total disks
	}

	commentBytes := []byte(comment)
	writeU32(&buf, endRecordSignature)
	writeU16(&buf, 0) // disk
	writeU16(&buf, 0) // directory disk
	entryCount16 := uint16(len(centrals))
	dirSize32 := uint32(dirSize)
	dirOff32 := uint32(dirOffset)
	if useZip64 {
		entryCount16 = magicEntryCount16
		dirSize32 = magicSize32
		dirOff32 = magicOffset32
	}
	writeU16(&buf, entryCount16)
	writeU16(&buf, entryCount16)
	writeU32(&buf, dirSize32)
	writeU32(&buf, dirOff32)
	writeU16(&buf, uint16(len(commentBytes)))
	buf.Write(commentBytes)

	return buf.Bytes()
}

func compressEntry(t *testing.T, e testEntry) ([]byte, uint32) {
	t.Helper()
	crc := crc32.ChecksumIEEE(e.data)
	switch e.method {
	case Stored:
		return e.data, crc
	case Deflated:
		var out bytes.Buffer
		w, err := flate.NewWriter(&out, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate.NewWriter: %v", err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("flate write: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("flate close: %v", err)
		}
		return out.Bytes(), crc
	default:
		// Methods the reader cannot decompress are still valid archive
		// members; store their bytes as-is so metadata tests can see them.
		return e.data, crc
	}
}

func uint64ptr(v uint64) *uint64 { return &v }

// zip64ExtraBytes builds a ZIP64 extra field TLV block. Pass nil for
// localOffset to omit the offset subfield (the local-header form).
func zip64ExtraBytes(uncompressed, compressed uint64, localOffset *uint64) []byte {
	var body bytes.Buffer
	writeU64(&body, uncompressed)
	writeU64(&body, compressed)
	if localOffset != nil {
		writeU64(&body, *localOffset)
	}

	var out bytes.Buffer
	writeU16(&out, zip64ExtraID)
	writeU16(&out, uint16(body.Len()))
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeU16(buf *bytes.Buffer, v uint16) {
	buf.WriteByte(byte(v))
	buf.WriteByte(byte(v >> 8))
}

func writeU32(buf *bytes.Buffer, v uint32) {
	for i := 0; i < 4; i++ {
		buf.WriteByte(byte(v >> (8 * i)))
	}
}

func writeU64(buf *bytes.Buffer, v uint64) {
	for i := 0; i < 8; i++ {
		buf.WriteByte(byte(v >> (8 * i)))
	}
}
