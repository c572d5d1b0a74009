package extract

import (
	"os"
	"path/filepath"

	"hifiecx/internal/bmpwriter"
	"hifiecx/internal/restable"
)

// ExtractResources iterates the metadata table per the shift decision in
// tables.Shift, slicing each accepted resource's RGB565 pixels out of
// Part 5 and writing a color BMP to outDir/version/<sanitized_name>
// (spec.md §4.5 "Resource extraction", §6 directory layout).
func ExtractResources(tables restable.Tables, version, outDir string) (Summary, error) {
	var summary Summary

	metadata := tables.Metadata
	shift := tables.Shift

	last := len(metadata)
	if shift.Shift > 0 {
		last--
	}

	dir := filepath.Join(outDir, version)
	dirCreated := false

	for i := shift.FirstValidIndex; i < last; i++ {
		wrote, err := extractOneResource(tables, i, dir, &dirCreated)
		switch {
		case err != nil:
			summary.Failed++
		case wrote:
			summary.Extracted++
		default:
			summary.Skipped++
		}
	}

	return summary, nil
}

func extractOneResource(tables restable.Tables, i int, dir string, dirCreated *bool) (bool, error) {
	metadata := tables.Metadata
	part5 := tables.Part5

	shiftedIdx := i + int(tables.Shift.Shift)
	if shiftedIdx < 0 || shiftedIdx >= len(metadata) {
		return false, nil
	}
	offset := metadata[shiftedIdx].Offset

	// "Name from i, size from i+1": the observed firmware contract pairs
	// the resource's filename with the width/height of the *next* entry,
	// falling back to its own when there is no next entry.
	width, height := metadata[i].Width, metadata[i].Height
	if i+1 < len(metadata) {
		width, height = metadata[i+1].Width, metadata[i+1].Height
	}

	if offset == 0 || int(offset) >= len(part5) {
		return false, nil
	}
	if width == 0 || width > 10000 || height == 0 || height > 10000 {
		return false, nil
	}

	need := 2 * int(width) * int(height)
	raw := sliceZeroPadded(part5, int(offset), need)

	bmp, err := bmpwriter.EncodeRGB565(raw, int(width), int(height))
	if err != nil {
		return false, nil
	}

	name := SanitizeFilename(metadata[i].Name)

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

// sliceZeroPadded returns part5[offset : offset+need], zero-padding the
// tail if the slice would run past the end of part5.
func sliceZeroPadded(part5 []byte, offset, need int) []byte {
	if offset+need <= len(part5) {
		return part5[offset : offset+need]
	}
	out := make([]byte, need)
	if offset < len(part5) {
		copy(out, part5[offset:])
	}
	return out
}
