// Copyright 2010 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package zipreader

import (
	"encoding/binary"
	"time"
)

// cursor reads little-endian fields from a fixed byte slice, advancing
// as it goes. Fixed-size record bodies are decoded with a short
// sequence of cursor calls instead of repeated binary.Read reflection.
type cursor struct {
	b   []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{b: b}
}

func (c *cursor) u8() uint8 {
	v := c.b[c.pos]
	c.pos++
	return v
}

func (c *cursor) u16() uint16 {
	v := binary.LittleEndian.Uint16(c.b[c.pos:])
	c.pos += 2
	return v
}

func (c *cursor) u32() uint32 {
	v := binary.LittleEndian.Uint32(c.b[c.pos:])
	c.pos += 4
	return v
}

func (c *cursor) u64() uint64 {
	v := binary.LittleEndian.Uint64(c.b[c.pos:])
	c.pos += 8
	return v
}

func (c *cursor) skip(n int) {
	c.pos += n
}

// endRecord is the fixed-size portion of the end-of-central-directory
// record (signature already consumed by the caller).
type endRecord struct {
	Disk          uint16
	DirectoryDisk uint16
	EntriesOnDisk uint16
	EntriesTotal  uint16
	DirectorySize uint32
	DirectoryOff  uint32
	CommentLen    uint16
}

func decodeEndRecord(b []byte) endRecord {
	c := newCursor(b)
	var r endRecord
	r.Disk = c.u16()
	r.DirectoryDisk = c.u16()
	r.EntriesOnDisk = c.u16()
	r.EntriesTotal = c.u16()
	r.DirectorySize = c.u32()
	r.DirectoryOff = c.u32()
	r.CommentLen = c.u16()
	return r
}

// zip64Locator is the fixed-size ZIP64 end-of-central-directory locator
// (signature already consumed by the caller).
type zip64Locator struct {
	EndRecordDisk uint32
	EndRecordOff  uint64
	DiskCount     uint32
}

func decodeZip64Locator(b []byte) zip64Locator {
	c := newCursor(b)
	var r zip64Locator
	r.EndRecordDisk = c.u32()
	r.EndRecordOff = c.u64()
	r.DiskCount = c.u32()
	return r
}

// zip64EndRecord is the fixed-size portion of the ZIP64
// end-of-central-directory record (signature already consumed).
type zip64EndRecord struct {
	Disk          uint32
	DirectoryDisk uint32
	EntriesOnDisk uint64
	EntriesTotal  uint64
	DirectorySize uint64
	DirectoryOff  uint64
}

func decodeZip64EndRecord(b []byte) zip64EndRecord {
	c := newCursor(b)
	var r zip64EndRecord
	// recordSize(8) + versionMadeBy(2) + versionNeeded(2) skipped by caller slicing.
	r.Disk = c.u32()
	r.DirectoryDisk = c.u32()
	r.EntriesOnDisk = c.u64()
	r.EntriesTotal = c.u64()
	r.DirectorySize = c.u64()
	r.DirectoryOff = c.u64()
	return r
}

// centralHeader is the fixed-size portion of a central directory file
// header (signature already consumed by the caller).
type centralHeader struct {
	VersionMadeBy    uint16
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
	CommentLen       uint16
	Disk             uint16
	InternalAttrs    uint16
	ExternalAttrs    uint32
	LocalHeaderOff   uint32
}

func decodeCentralHeader(b []byte) centralHeader {
	c := newCursor(b)
	var h centralHeader
	h.VersionMadeBy = c.u16()
	h.VersionNeeded = c.u16()
	h.Flags = c.u16()
	h.Method = c.u16()
	h.ModTime = c.u16()
	h.ModDate = c.u16()
	h.CRC32 = c.u32()
	h.CompressedSize = c.u32()
	h.UncompressedSize = c.u32()
	h.NameLen = c.u16()
	h.ExtraLen = c.u16()
	h.CommentLen = c.u16()
	h.Disk = c.u16()
	h.InternalAttrs = c.u16()
	h.ExternalAttrs = c.u32()
	h.LocalHeaderOff = c.u32()
	return h
}

// localHeader is the fixed-size portion of a local file header
// (signature already consumed by the caller).
type localHeader struct {
	VersionNeeded    uint16
	Flags            uint16
	Method           uint16
	ModTime          uint16
	ModDate          uint16
	CRC32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

func decodeLocalHeader(b []byte) localHeader {
	c := newCursor(b)
	var h localHeader
	h.VersionNeeded = c.u16()
	h.Flags = c.u16()
	h.Method = c.u16()
	h.ModTime = c.u16()
	h.ModDate = c.u16()
	h.CRC32 = c.u32()
	h.CompressedSize = c.u32()
	h.UncompressedSize = c.u32()
	h.NameLen = c.u16()
	h.ExtraLen = c.u16()
	return h
}

func modTime(date, t uint16) time.Time {
	return unpackDosTime(date, t)
}
