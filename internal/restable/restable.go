// Package restable implements the named-resource locator (spec.md §4.4,
// C4): it finds the ROCK26 ground-truth offset table and the parallel
// metadata table inside a firmware's Part-5 slice, then recovers the
// integer index shift between them by statistical voting. Grounded on the
// teacher's header-literal matching in internal/memory/cartridge.go,
// generalized from a single fixed magic to an arbitrary byte-literal anchor
// search.
package restable

import (
	"bytes"
	"fmt"

	"hifiecx/internal/firmware"
)

const rock26Magic = "ROCK26IMAGERES"

const (
	rock26EntryStride = 16
	rock26OffsetAt    = 12
	metadataEntrySize = 108
	metadataOffsetAt  = 20
	metadataNameAt    = 32
	metadataNameEnd   = 96
)

// MetadataEntry is one 108-byte record of the metadata table (spec.md §3).
type MetadataEntry struct {
	Offset uint32
	Width  uint32
	Height uint32
	Name   string
}

// DetectionInfo records which branch of §4.4's shift-detection algorithm
// produced a ShiftDecision, for provenance/diagnostics.
type DetectionInfo string

const (
	DetectionVoting   DetectionInfo = "voting"
	DetectionFallback DetectionInfo = "single_point_fallback"
	DetectionNoMatch  DetectionInfo = "no_match"
)

// ShiftDecision is the outcome of aligning the metadata table's index space
// to ROCK26's, per spec.md §4.4.
type ShiftDecision struct {
	Shift           int32
	FirstValidIndex int
	Votes           map[int32]uint32
	Detection       DetectionInfo
}

// Tables holds everything the resource-extraction pass (C5) needs: the raw
// Part-5 bytes (resource payloads are sliced from it by offset), the
// ROCK26 ground-truth offsets, the parsed metadata table, and the shift
// decision aligning the two.
type Tables struct {
	Part5    []byte
	Rock26   []uint32
	Metadata []MetadataEntry
	Shift    ShiftDecision
}

// Locate runs the full C4 pipeline over img: Part-5 slice, ROCK26 anchor
// search, metadata-table-start backward walk, metadata parse, and shift
// voting. It returns firmware.ErrTableNotFound if ROCK26 is absent or no
// metadata candidate matches the anchor.
func Locate(img *firmware.Image) (Tables, error) {
	part, err := img.HeaderPartition5()
	if err != nil {
		return Tables{}, err
	}
	part5, err := part.Slice(img)
	if err != nil {
		return Tables{}, err
	}

	anchorPos := bytes.Index(part5, []byte(rock26Magic))
	if anchorPos < 0 {
		return Tables{}, fmt.Errorf("restable: %w: %q not found in part 5", firmware.ErrTableNotFound, rock26Magic)
	}

	rock26, err := parseRock26(part5, anchorPos)
	if err != nil {
		return Tables{}, err
	}
	if len(rock26) == 0 {
		return Tables{}, fmt.Errorf("restable: %w: ROCK26 table has zero entries", firmware.ErrTableNotFound)
	}
	anchor := rock26[0]

	tableStart, ok := findMetadataTableStart(part5, anchor)
	if !ok {
		return Tables{}, fmt.Errorf("restable: %w: no metadata entry matches ROCK26 anchor %#x", firmware.ErrTableNotFound, anchor)
	}

	metadata := parseMetadataTable(part5, tableStart)
	shift := detectShift(rock26, metadata)

	return Tables{Part5: part5, Rock26: rock26, Metadata: metadata, Shift: shift}, nil
}

// parseRock26 reads the ROCK26 entry count at anchorPos+16 and the offset
// field of each of the following 16-byte entries, starting at anchorPos+32.
func parseRock26(part5 []byte, anchorPos int) ([]uint32, error) {
	countOff := anchorPos + 16
	if countOff+4 > len(part5) {
		return nil, fmt.Errorf("restable: %w: ROCK26 header truncated before count field", firmware.ErrTableNotFound)
	}
	count := le32(part5, countOff)

	entriesStart := anchorPos + 32
	offsets := make([]uint32, 0, count)
	for i := uint32(0); i < count; i++ {
		entryOff := entriesStart + int(i)*rock26EntryStride
		fieldOff := entryOff + rock26OffsetAt
		if fieldOff+4 > len(part5) {
			break
		}
		offsets = append(offsets, le32(part5, fieldOff))
	}
	return offsets, nil
}

// findMetadataTableStart implements spec.md §4.4's two-step search: a
// forward scan for the first 4-byte-aligned position whose entry matches
// the ROCK26 anchor and looks like a real metadata record, then a backward
// walk over contiguous well-formed entries to find the table's true start.
func findMetadataTableStart(part5 []byte, anchor uint32) (int, bool) {
	firstMatch := -1
	for p := 0; p+metadataEntrySize <= len(part5); p += 4 {
		entryOffset := le32(part5, p+metadataOffsetAt)
		name := readName(part5, p)
		if entryOffset == anchor && len(name) >= 3 && hasBMPSuffix(name) {
			firstMatch = p
			break
		}
	}
	if firstMatch < 0 {
		return 0, false
	}

	tableStart := firstMatch
	for tableStart-metadataEntrySize >= 0 {
		cand := tableStart - metadataEntrySize
		name := readName(part5, cand)
		if !isWellFormedMetadataName(name) {
			break
		}
		tableStart = cand
	}
	return tableStart, true
}

// parseMetadataTable reads sequential 108-byte entries from tableStart
// until a name is empty or shorter than 3 characters.
func parseMetadataTable(part5 []byte, tableStart int) []MetadataEntry {
	var entries []MetadataEntry
	for p := tableStart; p+metadataEntrySize <= len(part5); p += metadataEntrySize {
		name := readName(part5, p)
		if len(name) < 3 {
			break
		}
		entries = append(entries, MetadataEntry{
			Offset: le32(part5, p+metadataOffsetAt),
			Width:  le32(part5, p+24),
			Height: le32(part5, p+28),
			Name:   name,
		})
	}
	return entries
}

// detectShift implements spec.md §4.4's statistical voting between ROCK26's
// ground-truth offsets and the metadata table's own offset field, plus its
// single-point fallback for the no-votes case.
func detectShift(rock26 []uint32, metadata []MetadataEntry) ShiftDecision {
	r := rock26
	if len(r) > 20 {
		r = r[:20]
	}

	votes := make(map[int32]uint32)
	for i := range r {
		for s := int32(-3); s <= 3; s++ {
			idx := i + int(s)
			if idx < 0 || idx >= len(metadata) {
				continue
			}
			if metadata[idx].Offset == r[i] {
				votes[s]++
			}
		}
	}

	best, ok := argmaxLowestTie(votes)
	if !ok {
		return fallbackShift(r, metadata, votes)
	}

	switch {
	case best == 0:
		return ShiftDecision{Shift: 0, FirstValidIndex: 0, Votes: votes, Detection: DetectionVoting}
	case best > 0:
		return ShiftDecision{Shift: best, FirstValidIndex: 1, Votes: votes, Detection: DetectionVoting}
	default:
		fvi := 1 - int(best)
		if fvi < 1 {
			fvi = 1
		}
		return ShiftDecision{Shift: best, FirstValidIndex: fvi, Votes: votes, Detection: DetectionVoting}
	}
}

// fallbackShift is the single non-statistical decision path spec.md §4.4
// permits: when no (i, s) pair collects a vote, fall back to the lowest
// metadata index whose offset matches R[0].
func fallbackShift(r []uint32, metadata []MetadataEntry, votes map[int32]uint32) ShiftDecision {
	if len(r) == 0 {
		return ShiftDecision{Shift: 0, FirstValidIndex: 0, Votes: votes, Detection: DetectionNoMatch}
	}
	for j, m := range metadata {
		if m.Offset == r[0] {
			return ShiftDecision{Shift: int32(j - 1), FirstValidIndex: 1, Votes: votes, Detection: DetectionFallback}
		}
	}
	return ShiftDecision{Shift: 0, FirstValidIndex: 0, Votes: votes, Detection: DetectionNoMatch}
}

// argmaxLowestTie returns the vote bucket with the highest count, breaking
// ties by choosing the lowest shift value. ok is false when votes is empty.
func argmaxLowestTie(votes map[int32]uint32) (int32, bool) {
	var (
		best    int32
		bestN   uint32
		found   bool
	)
	for s, n := range votes {
		if !found || n > bestN || (n == bestN && s < best) {
			best, bestN, found = s, n, true
		}
	}
	return best, found
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

// readName reads the NUL-terminated ASCII name field of a metadata entry at
// base, ranging over intra-entry bytes [32,96).
func readName(part5 []byte, base int) string {
	start := base + metadataNameAt
	end := base + metadataNameEnd
	if end > len(part5) {
		end = len(part5)
	}
	if start >= end {
		return ""
	}
	field := part5[start:end]
	if nul := bytes.IndexByte(field, 0); nul >= 0 {
		field = field[:nul]
	}
	return string(field)
}

func hasBMPSuffix(name string) bool {
	return len(name) >= 4 && (name[len(name)-4:] == ".BMP" || name[len(name)-4:] == ".bmp")
}

// isWellFormedMetadataName reports whether name satisfies the backward-walk
// continuation predicate of spec.md §4.4.
func isWellFormedMetadataName(name string) bool {
	if len(name) < 3 || !hasBMPSuffix(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !isSafeNameByte(name[i]) {
			return false
		}
	}
	return true
}

// isSafeNameByte is spec.md §4.4's "[isprint] ∪ {'.','_','-','(',')',',',' '}"
// predicate; in practice every byte that set names is already printable
// ASCII, so this is just the printable-ASCII range.
func isSafeNameByte(b byte) bool {
	return b >= 0x20 && b < 0x7F
}
