package zipreader

import "strings"

// correlateLocal reads ce's local file header, validates it against
// the central-directory record that pointed to it, and computes the
// byte range holding the entry's (possibly compressed) payload. The
// central directory is the source of truth for every metadata field
// except the sizes, which a ZIP64 block in the local extra field
// overrides, since some writers omit ZIP64 extra data from the central
// record while still widening the local one (or vice versa). Of the
// local header's fixed fields only the name and extra lengths are used,
// to locate the payload.
func correlateLocal(r *windowedReader, fileLen int64, ce centralEntry, obs Observer) (EntryDescriptor, error) {
	off := ce.LocalHeaderOffset
	if off < 0 || off+4 > fileLen {
		err := malformedAt(off, "local header offset out of range")
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}
	sigBuf, err := r.read(off, 4)
	if err != nil {
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}
	if decodeSignature(sigBuf) != localHeaderSignature {
		err := malformedAt(off, "local file header signature mismatch")
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}
	fixedBuf, err := r.read(off+4, localHeaderLen-4)
	if err != nil {
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}
	h := decodeLocalHeader(fixedBuf)

	varStart := off + localHeaderLen
	varLen := int64(h.NameLen) + int64(h.ExtraLen)
	if varStart+varLen > fileLen {
		err := malformedAt(off, "local header variable fields overrun file")
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}

	localExtra, err := r.readBytes(varStart+int64(h.NameLen), int64(h.ExtraLen))
	if err != nil {
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}

	// The local extra's ZIP64 field shape is position-dependent on
	// which fields were sentinel-valued in the *central* header, not
	// the local header (which has no disk subfield of its own). A
	// local-only ZIP64 extra is how some writers store sizes without
	// widening the central record, so any values found here override
	// the central (and any central-extra) values a second time.
	ov := scanZip64Extra(localExtra,
		ce.uncompressedSentinel,
		ce.compressedSentinel,
		ce.offsetSentinel,
		ce.diskSentinel,
	)

	uncompressedSize := ce.UncompressedSize
	if ov.hasUncompressed {
		uncompressedSize = int64(ov.uncompressed)
	}
	compressedSize := ce.CompressedSize
	if ov.hasCompressed {
		compressedSize = int64(ov.compressed)
	}
	// ov.offset, if present, would restate the very offset already
	// followed to reach this header, so it carries no new information
	// and is intentionally not re-applied here.
	disk := uint32(0)
	if ov.hasDisk {
		disk = ov.disk
	}
	if disk != 0 {
		err := unsupportedArchiveAt(off, "archive spans multiple disks")
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}

	payloadOffset := varStart + varLen
	if ce.Flags&encryptedFlagBit != 0 {
		payloadOffset += encryptionHeaderLen
	}
	if payloadOffset < 0 || payloadOffset+compressedSize > fileLen {
		err := malformedAt(off, "entry payload range overruns file")
		obs.Observe(Event{Kind: EventError, Offset: off, Detail: err.Error()})
		return EntryDescriptor{}, err
	}

	d := EntryDescriptor{
		Name:             ce.Name,
		Comment:          ce.Comment,
		IsDirectory:      strings.HasSuffix(ce.Name, "/"),
		IsProtected:      ce.Flags&encryptedFlagBit != 0,
		Method:           ce.Method,
		CompressedSize:   compressedSize,
		UncompressedSize: uncompressedSize,
		Modified:         ce.ModTime,
		CRC32:            ce.CRC32,
		CentralExtra:     ce.Extra,
		LocalExtra:       localExtra,
		payloadOffset:    payloadOffset,
	}

	obs.Observe(Event{Kind: EventEntryCorrelated, Offset: off, Detail: "local header correlated: " + ce.Name})

	return d, nil
}
