package zipreader

import "time"

// centralEntry is one parsed central-directory record, after name and
// comment decoding and ZIP64 extra-field reconciliation, but before
// correlation against its local header.
type centralEntry struct {
	Name              string
	Comment           string
	Flags             uint16
	Method            CompressionMethod
	ModTime           time.Time
	CRC32             uint32
	CompressedSize    int64
	UncompressedSize  int64
	LocalHeaderOffset int64
	Extra             []byte
	ExternalAttrs     uint32

	// Sentinel state of the raw central header fields, before any
	// ZIP64 extra-field override was applied. The local-header
	// correlator re-runs the extra-field scanner against the local
	// header's own extra block using this same state (not the local
	// header's fields, which have no disk subfield at all), per the
	// rule that the ZIP64 extra's shape depends on the central
	// header's sentinel state rather than on which record it is
	// attached to.
	uncompressedSentinel, compressedSentinel, offsetSentinel, diskSentinel bool
}

// walkDirectory reads every central-directory record in dir, decoding
// names/comments with codec and applying any ZIP64 extra-field
// overrides. Entries recorded against a nonzero disk are rejected,
// since this package does not support spanned archives.
func walkDirectory(r *windowedReader, dir directory, codec textCodec, obs Observer) ([]centralEntry, error) {
	entries := make([]centralEntry, 0, dir.EntriesTotal)
	off := dir.Offset
	end := dir.Offset + dir.Size

	for int64(len(entries)) < dir.EntriesTotal {
		if off+centralHeaderLen > end {
			err := malformedAt(off, "central directory ends before all claimed entries were read")
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		sigBuf, err := r.read(off, 4)
		if err != nil {
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		if decodeSignature(sigBuf) != centralHeaderSignature {
			err := malformedAt(off, "central directory header signature mismatch")
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		fixedBuf, err := r.read(off+4, centralHeaderLen-4)
		if err != nil {
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		h := decodeCentralHeader(fixedBuf)

		varStart := off + centralHeaderLen
		varLen := int64(h.NameLen) + int64(h.ExtraLen) + int64(h.CommentLen)
		if varStart+varLen > end {
			err := malformedAt(off, "central directory record overruns directory range")
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}

		nameBuf, err := r.readBytes(varStart, int64(h.NameLen))
		if err != nil {
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		extraBuf, err := r.readBytes(varStart+int64(h.NameLen), int64(h.ExtraLen))
		if err != nil {
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		commentBuf, err := r.readBytes(varStart+int64(h.NameLen)+int64(h.ExtraLen), int64(h.CommentLen))
		if err != nil {
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}

		preferUTF8 := h.Flags&utf8FlagBit != 0
		name, err := codec.decode(nameBuf, preferUTF8)
		if err != nil {
			err := malformedAt(off, "entry name: %v", err)
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}
		comment, err := codec.decode(commentBuf, preferUTF8)
		if err != nil {
			err := malformedAt(off, "entry comment: %v", err)
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}

		e := centralEntry{
			Name:              name,
			Comment:           comment,
			Flags:             h.Flags,
			Method:            CompressionMethod(h.Method),
			ModTime:           modTime(h.ModDate, h.ModTime),
			CRC32:             h.CRC32,
			CompressedSize:    int64(h.CompressedSize),
			UncompressedSize:  int64(h.UncompressedSize),
			LocalHeaderOffset: int64(h.LocalHeaderOff),
			Extra:             extraBuf,
			ExternalAttrs:     h.ExternalAttrs,

			uncompressedSentinel: h.UncompressedSize == magicSize32,
			compressedSentinel:   h.CompressedSize == magicSize32,
			offsetSentinel:       h.LocalHeaderOff == magicOffset32,
			diskSentinel:         h.Disk == magicDisk16,
		}

		ov := scanZip64Extra(extraBuf,
			e.uncompressedSentinel,
			e.compressedSentinel,
			e.offsetSentinel,
			e.diskSentinel,
		)
		if ov.hasUncompressed {
			e.UncompressedSize = int64(ov.uncompressed)
		}
		if ov.hasCompressed {
			e.CompressedSize = int64(ov.compressed)
		}
		if ov.hasOffset {
			e.LocalHeaderOffset = int64(ov.offset)
		}
		disk := uint32(h.Disk)
		if ov.hasDisk {
			disk = ov.disk
		}
		if disk != 0 {
			err := unsupportedArchiveAt(off, "archive spans multiple disks")
			obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
			return nil, err
		}

		entries = append(entries, e)
		obs.Observe(Event{Kind: EventEntryCorrelated, Offset: off, Detail: "central directory record decoded: " + name})

		off = varStart + varLen
	}

	return entries, nil
}

type zip64Overrides struct {
	uncompressed, compressed, offset uint64
	disk                             uint32
	hasUncompressed, hasCompressed, hasOffset, hasDisk bool
}

// scanZip64Extra walks an entry's extra field looking for the ZIP64
// TLV block (ID 0x0001) and decodes whichever of its four subfields
// are present, per the appnote's rule that a subfield appears only
// when its corresponding fixed-width field held the sentinel value.
//
// The field list is position-dependent: only fields whose central
// counterpart is still sentinel-valued are expected, in the fixed
// order uncompressed/compressed/offset/disk, and the extra's declared
// size must cover at least their combined width or none of them are
// applied; a short ZIP64 extra is not partially honored. A tuple
// whose declared size overruns the blob (including a ZIP64 tuple) is
// not treated as ZIP64 data; the walk simply runs off the end and
// stops, leaving the fixed-width fields in force.
func scanZip64Extra(extra []byte, needUncompressed, needCompressed, needOffset, needDisk bool) zip64Overrides {
	var ov zip64Overrides
	pos := 0
	for pos+extraFieldHeaderLen <= len(extra) {
		id := uint16(extra[pos]) | uint16(extra[pos+1])<<8
		size := int(uint16(extra[pos+2]) | uint16(extra[pos+3])<<8)
		pos += extraFieldHeaderLen
		if id == zip64ExtraID && pos+size <= len(extra) {
			required := 0
			if needUncompressed {
				required += 8
			}
			if needCompressed {
				required += 8
			}
			if needOffset {
				required += 8
			}
			if needDisk {
				required += 4
			}
			if size < required {
				return ov
			}

			body := extra[pos : pos+size]
			bp := 0
			take := func(n int) uint64 {
				var v uint64
				for i := 0; i < n; i++ {
					v |= uint64(body[bp+i]) << (8 * i)
				}
				bp += n
				return v
			}
			if needUncompressed {
				ov.uncompressed, ov.hasUncompressed = take(8), true
			}
			if needCompressed {
				ov.compressed, ov.hasCompressed = take(8), true
			}
			if needOffset {
				ov.offset, ov.hasOffset = take(8), true
			}
			if needDisk {
				ov.disk, ov.hasDisk = uint32(take(4)), true
			}
			return ov
		}
		pos += size
	}
	return ov
}
