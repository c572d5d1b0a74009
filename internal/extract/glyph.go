package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"hifiecx/internal/bmpwriter"
	"hifiecx/internal/firmware"
	"hifiecx/internal/fontdecode"
	"hifiecx/internal/fontlocate"
)

// Table names the two parallel glyph tables (spec.md §3).
type Table string

const (
	TableSmall Table = "SMALL"
	TableLarge Table = "LARGE"
)

// glyphAcceptWindow is the fill-ratio acceptance window a decoded cell must
// fall strictly inside to be considered a real glyph rather than noise
// (spec.md §4.5 step 4).
func glyphAcceptWindow(table Table) (lo, hi float64) {
	if table == TableLarge {
		return 0.01, 0.97
	}
	return 0.01, 0.95
}

// ExtractGlyphs walks every codepoint of every range across both glyph
// tables, decoding and writing out each accepted cell as a monochrome BMP
// under outDir/<table>/<range_dir>/ (spec.md §4.5, §6). It never aborts on
// a per-item problem; all such cases are tallied in the returned Summary.
func ExtractGlyphs(img *firmware.Image, addrs fontlocate.Addresses, ranges []Range, outDir string) (Summary, error) {
	var summary Summary

	for _, rg := range ranges {
		for _, table := range []Table{TableSmall, TableLarge} {
			dir := filepath.Join(outDir, string(table), rg.DirName())
			dirCreated := false

			for u := rg.Start; u <= rg.End; u++ {
				outcome, err := extractOneGlyph(img, addrs, table, u, dir, &dirCreated)
				switch {
				case err != nil:
					summary.Failed++
				case outcome:
					summary.Extracted++
				default:
					summary.Skipped++
				}
			}
		}
	}

	return summary, nil
}

// extractOneGlyph handles a single (table, codepoint) pair. The bool return
// reports whether a BMP was written; err is non-nil only for an actual I/O
// failure, which the caller counts as Failed rather than Skipped.
func extractOneGlyph(img *firmware.Image, addrs fontlocate.Addresses, table Table, u rune, dir string, dirCreated *bool) (bool, error) {
	var (
		addr   int64
		stride int
	)
	switch table {
	case TableSmall:
		addr = fontlocate.SmallAddr(addrs.SmallBase, u)
		stride = fontlocate.SmallStride
	case TableLarge:
		if u < 0x4E00 {
			return false, nil
		}
		addr = fontlocate.LargeAddr(addrs.LargeBase, u)
		stride = fontlocate.LargeStride
	}

	if addr < 0 || addr+int64(stride) > int64(img.Len()) {
		return false, nil
	}

	cell := img.Raw[addr : addr+32]
	if cellDegenerate(cell) {
		return false, nil
	}

	lookupOff := int(addrs.LookupTable) + int(u>>3)
	lookup, err := img.ReadByte(lookupOff)
	if err != nil {
		return false, nil
	}

	grid := fontdecode.Decode(cell, lookup)
	ratio := grid.FillRatio()
	lo, hi := glyphAcceptWindow(table)
	if !(ratio > lo && ratio < hi) {
		return false, nil
	}

	bmp := bmpwriter.EncodeMono1bpp(grid)
	name := fmt.Sprintf("0x%06X_H%02X_U+%04X.bmp", addr, lookup, uint32(u))

	if !*dirCreated {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return false, err
		}
		*dirCreated = true
	}
	if err := os.WriteFile(filepath.Join(dir, name), bmp, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func cellDegenerate(cell []byte) bool {
	allZero, allFF := true, true
	for _, b := range cell {
		if b != 0x00 {
			allZero = false
		}
		if b != 0xFF {
			allFF = false
		}
	}
	return allZero || allFF
}
