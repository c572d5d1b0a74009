package extract

import "fmt"

// Range is a named, inclusive span of BMP-plane Unicode codepoints (spec.md
// §6's "range syntax" and its script-partitioned catalogue requirement).
type Range struct {
	Name  string
	Start rune
	End   rune
}

// DefaultRanges partitions the Basic Multilingual Plane (0x0000..0xFFFF) by
// script into the named ranges the extraction driver iterates over. The
// gaps between named scripts are covered by separate "Other" entries so
// every codepoint in 0x0000..0xFFFF belongs to exactly one range; nothing
// is extracted twice.
func DefaultRanges() []Range {
	return []Range{
		{Name: "Basic_Latin", Start: 0x0000, End: 0x007F},
		{Name: "Latin-1_Supplement", Start: 0x0080, End: 0x00FF},
		{Name: "Other", Start: 0x0100, End: 0x303F},
		{Name: "Hiragana", Start: 0x3040, End: 0x309F},
		{Name: "Katakana", Start: 0x30A0, End: 0x30FF},
		{Name: "Other", Start: 0x3100, End: 0x4DFF},
		{Name: "CJK_Unified", Start: 0x4E00, End: 0x9FFF},
		{Name: "Other", Start: 0xA000, End: 0xABFF},
		{Name: "Hangul_Syllables", Start: 0xAC00, End: 0xD7A3},
		{Name: "Other", Start: 0xD7A4, End: 0xFFFF},
	}
}

// DirName is the range's directory component, e.g. "U+4E00-9FFF_CJK_Unified"
// (spec.md §6's "<range_dir>").
func (r Range) DirName() string {
	return fmt.Sprintf("U+%04X-%04X_%s", uint32(r.Start), uint32(r.End), r.Name)
}
