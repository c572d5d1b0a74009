// Package bmpwriter produces bit-exact BMP byte streams for the two raster
// formats this pipeline recovers from firmware: 16-bpp RGB565 color
// resources and 1-bpp monochrome glyph grids. Both writers are total
// functions over well-formed input; the only error path is a non-positive
// width or height.
package bmpwriter

import (
	"encoding/binary"

	"hifiecx/internal/firmware"
)

// SwapBytes16 swaps the two bytes of a little-endian uint16 pair, as used
// by the RGB565 transcoder's byte-pair swap step; it is the same swap the
// font decoder's own bswap16 applies to a 16-bit word (S2).
func SwapBytes16(b0, b1 byte) (byte, byte) {
	return b1, b0
}

// strideOf returns (srcStride, dstStride, padding) for a row of w RGB565
// pixels: src is 2*w bytes, dst is src rounded up to a 4-byte boundary (S3).
func strideOf(w int) (src, dst, pad int) {
	src = 2 * w
	dst = (src + 3) &^ 3
	return src, dst, dst - src
}

// StrideInfo exposes strideOf for callers (and tests) that need the padded
// row stride of an RGB565 bitmap without writing one.
func StrideInfo(w int) (src, dst, pad int) {
	return strideOf(w)
}

// EncodeRGB565 transcodes a raw RGB565 pixel buffer into a 16-bpp BMP byte
// stream. raw must hold at least 2*w*h bytes in row-major, byte-pair order;
// shorter input is zero-padded.
func EncodeRGB565(raw []byte, w, h int) ([]byte, error) {
	if w <= 0 || h <= 0 {
		return nil, firmware.ErrInvalidDimensions
	}

	need := 2 * w * h
	px := make([]byte, need)
	copy(px, raw)

	// Step 1: byte-pair swap over the whole buffer.
	for i := 0; i+1 < need; i += 2 {
		px[i], px[i+1] = SwapBytes16(px[i], px[i+1])
	}

	// Step 2: row restride with zero padding to a 4-byte boundary.
	srcStride, dstStride, pad := strideOf(w)
	pixels := make([]byte, dstStride*h)
	for y := 0; y < h; y++ {
		srcOff := y * srcStride
		dstOff := y * dstStride
		copy(pixels[dstOff:dstOff+srcStride], px[srcOff:srcOff+srcStride])
		for i := 0; i < pad; i++ {
			pixels[dstOff+srcStride+i] = 0
		}
	}

	header := rgb565Header(w, h, dstStride)
	out := make([]byte, 0, len(header)+len(pixels))
	out = append(out, header...)
	out = append(out, pixels...)
	return out, nil
}

// rgb565Header builds the 66-byte file header + BITMAPINFOHEADER + three
// channel masks for a top-down BI_BITFIELDS RGB565 bitmap.
func rgb565Header(w, h, dstStride int) []byte {
	imageSize := uint32(dstStride * h)
	fileSize := 66 + imageSize

	hdr := make([]byte, 66)

	// File header (14 bytes).
	hdr[0], hdr[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(hdr[2:6], fileSize)
	binary.LittleEndian.PutUint32(hdr[6:10], 0) // reserved
	binary.LittleEndian.PutUint32(hdr[10:14], 66)

	// BITMAPINFOHEADER (40 bytes).
	binary.LittleEndian.PutUint32(hdr[14:18], 40)
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(int32(w)))
	binary.LittleEndian.PutUint32(hdr[22:26], uint32(int32(-h))) // top-down
	binary.LittleEndian.PutUint16(hdr[26:28], 1)                 // planes
	binary.LittleEndian.PutUint16(hdr[28:30], 16)                // bpp
	binary.LittleEndian.PutUint32(hdr[30:34], 3)                 // BI_BITFIELDS
	binary.LittleEndian.PutUint32(hdr[34:38], imageSize)
	binary.LittleEndian.PutUint32(hdr[38:42], 2835) // x ppm
	binary.LittleEndian.PutUint32(hdr[42:46], 2835) // y ppm
	binary.LittleEndian.PutUint32(hdr[46:50], 0)     // clr used
	binary.LittleEndian.PutUint32(hdr[50:54], 0)     // clr important

	// Channel masks: R 0xF800, G 0x07E0, B 0x001F.
	binary.LittleEndian.PutUint32(hdr[54:58], 0xF800)
	binary.LittleEndian.PutUint32(hdr[58:62], 0x07E0)
	binary.LittleEndian.PutUint32(hdr[62:66], 0x001F)

	return hdr
}

// monoRowBytes is the fixed row stride for the 15x16 glyph grid: 4-byte
// aligned ((15+31)/32)*4 = 4.
const monoRowBytes = 4

// monoWidth and monoHeight are the fixed glyph grid dimensions the V8
// decoder always produces.
const (
	monoWidth  = 15
	monoHeight = 16
)

// EncodeMono1bpp encodes a 15x16 PixelGrid-shaped bit matrix into a 1-bpp
// monochrome BMP. rows must have monoHeight entries, each of at least
// monoWidth bits; shorter rows or a shorter slice of rows are treated as
// zero (spec.md §4.1). Rows are written bottom-up, MSB-first within each
// byte.
func EncodeMono1bpp(rows [][]bool) []byte {
	imageSize := monoRowBytes * monoHeight
	fileSize := 62 + imageSize

	out := make([]byte, 0, fileSize)

	hdr := make([]byte, 62)
	hdr[0], hdr[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(fileSize))
	binary.LittleEndian.PutUint32(hdr[6:10], 0)
	binary.LittleEndian.PutUint32(hdr[10:14], 62)

	binary.LittleEndian.PutUint32(hdr[14:18], 40)
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(int32(monoWidth)))
	binary.LittleEndian.PutUint32(hdr[22:26], uint32(int32(monoHeight))) // bottom-up
	binary.LittleEndian.PutUint16(hdr[26:28], 1)
	binary.LittleEndian.PutUint16(hdr[28:30], 1) // bpp
	binary.LittleEndian.PutUint32(hdr[30:34], 0) // BI_RGB
	binary.LittleEndian.PutUint32(hdr[34:38], uint32(imageSize))
	binary.LittleEndian.PutUint32(hdr[38:42], 2835)
	binary.LittleEndian.PutUint32(hdr[42:46], 2835)
	binary.LittleEndian.PutUint32(hdr[46:50], 2) // clr used
	binary.LittleEndian.PutUint32(hdr[50:54], 2) // clr important

	// Two-entry BGRA palette: white, then black.
	binary.LittleEndian.PutUint32(hdr[54:58], 0x00FFFFFF)
	binary.LittleEndian.PutUint32(hdr[58:62], 0x00000000)

	out = append(out, hdr...)

	pixels := make([]byte, imageSize)
	for y := monoHeight - 1; y >= 0; y-- {
		var row []bool
		if y < len(rows) {
			row = rows[y]
		}
		rowOff := (monoHeight - 1 - y) * monoRowBytes
		for x := 0; x < monoWidth; x++ {
			var bit bool
			if x < len(row) {
				bit = row[x]
			}
			if bit {
				pixels[rowOff+x/8] |= 1 << uint(7-(x%8))
			}
		}
	}
	out = append(out, pixels...)

	return out
}
