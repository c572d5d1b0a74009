// Package firmware models a raw HIFIEC*.IMG firmware blob as an immutable,
// little-endian byte-addressable image, plus the handful of fixed header
// fields every downstream locator needs to get at the two partitions this
// format has always carried.
package firmware

import (
	"encoding/binary"
	"fmt"
)

// Image is an immutable view over a firmware blob. It is read-only for the
// lifetime of a scan; nothing in this module ever mutates Raw.
type Image struct {
	Raw []byte
}

// New wraps a byte slice as a firmware Image. The slice is held, not copied;
// callers must not mutate it afterward.
func New(raw []byte) *Image {
	return &Image{Raw: raw}
}

// Len returns the image size in bytes.
func (img *Image) Len() int {
	return len(img.Raw)
}

// Partition is an {offset, size} window inside the firmware image, as read
// from a 16-byte header entry (two little-endian uint32s used, two more
// reserved/ignored per spec).
type Partition struct {
	Offset uint32
	Size   uint32
}

// Slice returns the byte range this partition describes.
func (p Partition) Slice(img *Image) ([]byte, error) {
	end := uint64(p.Offset) + uint64(p.Size)
	if end > uint64(img.Len()) {
		return nil, fmt.Errorf("firmware: %w: partition [%#x, %#x) exceeds image length %#x", ErrShortFirmware, p.Offset, end, img.Len())
	}
	return img.Raw[p.Offset:end], nil
}

// readU16 reads a little-endian uint16 at off, erroring if it would run past
// the end of the image.
func (img *Image) readU16(off int) (uint16, error) {
	if off < 0 || off+2 > img.Len() {
		return 0, fmt.Errorf("firmware: %w: u16 read at %#x exceeds image length %#x", ErrShortFirmware, off, img.Len())
	}
	return binary.LittleEndian.Uint16(img.Raw[off : off+2]), nil
}

// readU32 reads a little-endian uint32 at off, erroring if it would run past
// the end of the image.
func (img *Image) readU32(off int) (uint32, error) {
	if off < 0 || off+4 > img.Len() {
		return 0, fmt.Errorf("firmware: %w: u32 read at %#x exceeds image length %#x", ErrShortFirmware, off, img.Len())
	}
	return binary.LittleEndian.Uint32(img.Raw[off : off+4]), nil
}

// ReadU16 reads a little-endian uint16 at an absolute offset.
func (img *Image) ReadU16(off int) (uint16, error) { return img.readU16(off) }

// ReadU32 reads a little-endian uint32 at an absolute offset.
func (img *Image) ReadU32(off int) (uint32, error) { return img.readU32(off) }

// ReadByte reads a single byte at an absolute offset.
func (img *Image) ReadByte(off int) (byte, error) {
	if off < 0 || off >= img.Len() {
		return 0, fmt.Errorf("firmware: %w: byte read at %#x exceeds image length %#x", ErrShortFirmware, off, img.Len())
	}
	return img.Raw[off], nil
}

// partitionAt reads a {offset, size} pair of little-endian uint32s located
// at a fixed header position. Only the first two of the four uint32 slots
// present at every known header position are meaningful; the remaining two
// are reserved by the format and ignored here, matching spec.md §3.
func (img *Image) partitionAt(headerOff int) (Partition, error) {
	off, err := img.readU32(headerOff)
	if err != nil {
		return Partition{}, err
	}
	size, err := img.readU32(headerOff + 4)
	if err != nil {
		return Partition{}, err
	}
	return Partition{Offset: off, Size: size}, nil
}

// HeaderPartition1 is the partition descriptor at 0x80, used by the
// font-table locator to bound the LARGE_BASE search.
func (img *Image) HeaderPartition1() (Partition, error) {
	return img.partitionAt(0x80)
}

// HeaderPartition5 is the partition descriptor at 0x14C, used by the
// resource-table locator to locate the ROCK26/metadata section.
func (img *Image) HeaderPartition5() (Partition, error) {
	return img.partitionAt(0x14C)
}
