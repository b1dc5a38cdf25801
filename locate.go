package zipreader

// directory is the reconciled view of "where the central directory
// lives", after folding in any ZIP64 end record overrides. Disk fields
// are validated to be zero (this package rejects spanned archives) and
// then discarded; only offset/size/count survive into this type.
type directory struct {
	Offset       int64
	Size         int64
	EntriesTotal int64
	// tailOffset is the offset of the first byte of the end-of-archive
	// tail (the earliest of: ZIP64 end record, ZIP64 locator, end
	// record), used to validate the directory does not overrun it.
	tailOffset int64
}

// locateDirectory finds the end-of-central-directory record by
// scanning backward from the end of the file in block-sized chunks,
// protecting against a signature straddling a chunk boundary, then
// probes for and validates an optional ZIP64 tail, and reconciles the
// result into a directory.
func locateDirectory(r *windowedReader, length int64, maxComment int64, codec textCodec, obs Observer) (directory, string, error) {
	endOff, endBuf, err := scanForEndRecord(r, length, maxComment)
	if err != nil {
		obs.Observe(Event{Kind: EventError, Offset: -1, Detail: err.Error()})
		return directory{}, "", err
	}
	end := decodeEndRecord(endBuf)
	obs.Observe(Event{Kind: EventEndRecordFound, Offset: endOff, Detail: "found end-of-central-directory record"})

	commentBuf, err := r.readBytes(endOff+endRecordLen, int64(end.CommentLen))
	if err != nil {
		obs.Observe(Event{Kind: EventError, Offset: endOff, Detail: err.Error()})
		return directory{}, "", err
	}
	archiveComment, err := codec.decode(commentBuf, false)
	if err != nil {
		obs.Observe(Event{Kind: EventError, Offset: endOff, Detail: err.Error()})
		return directory{}, "", malformedAt(endOff, "archive comment: %v", err)
	}

	tail := endOff

	dir := directory{
		Offset:       int64(end.DirectoryOff),
		Size:         int64(end.DirectorySize),
		EntriesTotal: int64(end.EntriesTotal),
	}

	isZip64Sentinel := end.Disk == magicDisk16 ||
		end.DirectoryDisk == magicDisk16 ||
		end.EntriesOnDisk == magicEntryCount16 ||
		end.EntriesTotal == magicEntryCount16 ||
		end.DirectorySize == magicSize32 ||
		end.DirectoryOff == magicOffset32

	// The locator is probed whether or not any legacy field holds a
	// sentinel: a writer may emit a zip64 tail it did not strictly need,
	// and its disk counts still have to be validated when it does.
	zip64Present := false
	var zrec zip64EndRecord
	var zrecOff int64
	if locOff := endOff - zip64LocatorLen; locOff >= 0 {
		locSigBuf, err := r.read(locOff, 4)
		if err != nil {
			obs.Observe(Event{Kind: EventError, Offset: locOff, Detail: err.Error()})
			return directory{}, "", err
		}
		if decodeSignature(locSigBuf) == zip64LocatorSignature {
			locBuf, err := r.read(locOff+4, zip64LocatorLen-4)
			if err != nil {
				obs.Observe(Event{Kind: EventError, Offset: locOff, Detail: err.Error()})
				return directory{}, "", err
			}
			loc := decodeZip64Locator(locBuf)
			if loc.DiskCount != 1 || loc.EndRecordDisk != 0 {
				err := unsupportedArchiveAt(locOff, "archive spans multiple disks")
				obs.Observe(Event{Kind: EventError, Offset: locOff, Detail: err.Error()})
				return directory{}, "", err
			}

			zrecOff = int64(loc.EndRecordOff)
			if zrecOff < 0 || zrecOff+zip64EndRecordLen > locOff {
				err := malformedAt(zrecOff, "zip64 end-of-central-directory record out of range")
				obs.Observe(Event{Kind: EventError, Offset: zrecOff, Detail: err.Error()})
				return directory{}, "", err
			}
			zrecSigBuf, err := r.read(zrecOff, 4)
			if err != nil {
				obs.Observe(Event{Kind: EventError, Offset: zrecOff, Detail: err.Error()})
				return directory{}, "", err
			}
			if decodeSignature(zrecSigBuf) != zip64EndRecordSignature {
				err := malformedAt(zrecOff, "zip64 end-of-central-directory record signature mismatch")
				obs.Observe(Event{Kind: EventError, Offset: zrecOff, Detail: err.Error()})
				return directory{}, "", err
			}
			// record body: recordSize(8) + versionMadeBy(2) + versionNeeded(2), then the fields decodeZip64EndRecord wants.
			fixedOff := zrecOff + 4 + 8 + 2 + 2
			zrecBuf, err := r.read(fixedOff, zip64EndRecordLen-(4+8+2+2))
			if err != nil {
				obs.Observe(Event{Kind: EventError, Offset: zrecOff, Detail: err.Error()})
				return directory{}, "", err
			}
			zrec = decodeZip64EndRecord(zrecBuf)
			if zrec.Disk != 0 || zrec.DirectoryDisk != 0 {
				err := unsupportedArchiveAt(zrecOff, "archive spans multiple disks")
				obs.Observe(Event{Kind: EventError, Offset: zrecOff, Detail: err.Error()})
				return directory{}, "", err
			}
			zip64Present = true
		}
	}

	if zip64Present {
		if (end.Disk != 0 && end.Disk != magicDisk16) ||
			(end.DirectoryDisk != 0 && end.DirectoryDisk != magicDisk16) {
			err := unsupportedArchiveAt(endOff, "archive spans multiple disks")
			obs.Observe(Event{Kind: EventError, Offset: endOff, Detail: err.Error()})
			return directory{}, "", err
		}
		// Each field is taken from the zip64 record only if its legacy
		// counterpart was itself the sentinel value; a writer that
		// overflowed only one field still has the other, still-valid
		// legacy fields honored rather than blindly overwritten.
		if end.DirectoryOff == magicOffset32 {
			dir.Offset = int64(zrec.DirectoryOff)
		}
		if end.DirectorySize == magicSize32 {
			dir.Size = int64(zrec.DirectorySize)
		}
		if end.EntriesTotal == magicEntryCount16 {
			dir.EntriesTotal = int64(zrec.EntriesTotal)
		}
		tail = zrecOff
		obs.Observe(Event{Kind: EventZip64Resolved, Offset: zrecOff, Detail: "zip64 end record applied"})
	} else {
		if isZip64Sentinel {
			err := malformedAt(endOff, "end record holds zip64 sentinel values but no zip64 tail is present")
			obs.Observe(Event{Kind: EventError, Offset: endOff, Detail: err.Error()})
			return directory{}, "", err
		}
		if end.Disk != 0 || end.DirectoryDisk != 0 {
			err := unsupportedArchiveAt(endOff, "archive spans multiple disks")
			obs.Observe(Event{Kind: EventError, Offset: endOff, Detail: err.Error()})
			return directory{}, "", err
		}
		obs.Observe(Event{Kind: EventZip64Resolved, Offset: -1, Detail: "no zip64 tail present"})
	}

	dir.tailOffset = tail

	if dir.Offset < 0 || dir.Size < 0 || dir.Offset+dir.Size > tail {
		err := malformedAt(dir.Offset, "central directory range overruns end-of-archive tail")
		obs.Observe(Event{Kind: EventError, Offset: dir.Offset, Detail: err.Error()})
		return directory{}, "", err
	}

	return dir, archiveComment, nil
}

func decodeSignature(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// scanForEndRecord walks backward from the end of the file looking for
// the end-of-central-directory signature, reading at most maxComment
// bytes of trailing data (endRecordLen plus the maximum comment length
// the caller is willing to account for). It reads in block-sized
// chunks with an overlap so a signature straddling a chunk boundary is
// never missed.
func scanForEndRecord(r *windowedReader, length int64, maxComment int64) (int64, []byte, error) {
	searchLen := maxComment
	if searchLen > length {
		searchLen = length
	}
	lowBound := length - searchLen

	// chunk walks backward; the overlap re-reads the first bytes of the
	// already-scanned chunk so a record straddling a chunk seam is still
	// seen whole. The full fixed record must fit, not just the signature
	// word, because the comment-length plausibility check below needs it.
	const overlap = endRecordLen - 1
	chunk := int64(blockSize)

	pos := length
	for pos > lowBound {
		start := pos - chunk
		if start < lowBound {
			start = lowBound
		}
		readStart := start
		readEnd := pos + overlap
		if readEnd > length {
			readEnd = length
		}
		size := readEnd - readStart
		if size <= 0 {
			break
		}
		buf, err := r.readBytes(readStart, size)
		if err != nil {
			return 0, nil, err
		}
		for i := len(buf) - endRecordLen; i >= 0; i-- {
			if decodeSignature(buf[i:i+4]) == endRecordSignature {
				off := readStart + int64(i)
				commentLen := int64(decodeEndRecord(buf[i+4 : i+endRecordLen]).CommentLen)
				if off+endRecordLen+commentLen == length {
					bodyBuf, err := r.read(off+4, endRecordLen-4)
					if err != nil {
						return 0, nil, err
					}
					return off, bodyBuf, nil
				}
			}
		}
		if start == lowBound {
			break
		}
		pos = start
	}

	return 0, nil, notAnArchive("end-of-central-directory signature not found in trailing search window")
}
