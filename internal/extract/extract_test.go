package extract

import (
	"os"
	"path/filepath"
	"testing"

	"hifiecx/internal/firmware"
	"hifiecx/internal/fontlocate"
	"hifiecx/internal/restable"
)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"icon.bmp":        "icon.bmp",
		"a/b\\c.bmp":      "a_b_c.bmp",
		"weird*name?.bmp": "weird_name_.bmp",
		"noext":           "noext.bmp",
		"ICON.BMP":        "ICON.BMP",
	}
	for in, want := range cases {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRangeDirName(t *testing.T) {
	r := Range{Name: "CJK_Unified", Start: 0x4E00, End: 0x9FFF}
	if got, want := r.DirName(), "U+4E00-9FFF_CJK_Unified"; got != want {
		t.Fatalf("DirName() = %q, want %q", got, want)
	}
}

func TestDefaultRangesCoverBMPPlaneWithoutOverlap(t *testing.T) {
	covered := make([]bool, 0x10000)
	for _, r := range DefaultRanges() {
		for u := r.Start; u <= r.End; u++ {
			if covered[u] {
				t.Fatalf("codepoint %#x covered by more than one range", u)
			}
			covered[u] = true
		}
	}
	for u, ok := range covered {
		if !ok {
			t.Fatalf("codepoint %#x not covered by any range", u)
		}
	}
}

// buildSyntheticFirmware writes a single plausible SMALL cell at codepoint
// 'A' (0x41) and a single plausible LARGE cell at codepoint 0x4E00, so a
// narrow-range extraction pass has exactly one candidate per table.
func buildSyntheticFirmware(t *testing.T) (*firmware.Image, fontlocate.Addresses) {
	t.Helper()

	const smallBase = 0x2000
	const largeBase = 0x4000
	size := 0x82000 // must cover LookupTable (0x080000) + (0xFFFF>>3)
	raw := make([]byte, size)

	smallAddr := fontlocate.SmallAddr(smallBase, 'A')
	for i := 0; i < 32; i++ {
		raw[int(smallAddr)+i] = byte(i*7 + 1)
	}

	largeAddr := fontlocate.LargeAddr(largeBase, 0x4E00)
	for i := 0; i < 32; i++ {
		raw[int(largeAddr)+i] = byte(i*5 + 2)
	}

	img := firmware.New(raw)
	addrs := fontlocate.Addresses{
		SmallBase:   smallBase,
		LargeBase:   largeBase,
		LookupTable: fontlocate.LookupTable,
	}
	return img, addrs
}

func TestExtractGlyphsWritesFiles(t *testing.T) {
	img, addrs := buildSyntheticFirmware(t)
	outDir := t.TempDir()

	ranges := []Range{{Name: "Basic_Latin", Start: 'A', End: 'A'}}
	summary, err := ExtractGlyphs(img, addrs, ranges, outDir)
	if err != nil {
		t.Fatalf("ExtractGlyphs: %v", err)
	}
	if summary.Extracted == 0 {
		t.Fatalf("expected at least one extracted glyph, got summary %+v", summary)
	}

	found := false
	_ = filepath.Walk(outDir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() && filepath.Ext(path) == ".bmp" {
			found = true
		}
		return nil
	})
	if !found {
		t.Fatalf("expected at least one .bmp file under %s", outDir)
	}
}

func TestExtractResourcesWritesFiles(t *testing.T) {
	part5 := make([]byte, 4096)
	offset := 256
	w, h := 4, 4
	need := 2 * w * h
	for i := 0; i < need; i++ {
		part5[offset+i] = byte(i + 1)
	}

	metadata := []restable.MetadataEntry{
		{Offset: uint32(offset), Width: uint32(w), Height: uint32(h), Name: "icon0.bmp"},
		{Offset: uint32(offset), Width: uint32(w), Height: uint32(h), Name: "icon1.bmp"},
	}
	tables := restable.Tables{
		Part5:    part5,
		Metadata: metadata,
		Shift:    restable.ShiftDecision{Shift: 0, FirstValidIndex: 0, Detection: restable.DetectionVoting},
	}

	outDir := t.TempDir()
	summary, err := ExtractResources(tables, "v1", outDir)
	if err != nil {
		t.Fatalf("ExtractResources: %v", err)
	}
	if summary.Extracted != 2 {
		t.Fatalf("expected 2 extracted resources, got %+v", summary)
	}

	if _, err := os.Stat(filepath.Join(outDir, "v1", "icon0.bmp")); err != nil {
		t.Fatalf("icon0.bmp not written: %v", err)
	}
}

func TestExtractResourcesSkipsZeroOffset(t *testing.T) {
	part5 := make([]byte, 1024)
	metadata := []restable.MetadataEntry{
		{Offset: 0, Width: 4, Height: 4, Name: "zero.bmp"},
	}
	tables := restable.Tables{
		Part5:    part5,
		Metadata: metadata,
		Shift:    restable.ShiftDecision{Shift: 0, FirstValidIndex: 0},
	}

	summary, err := ExtractResources(tables, "v1", t.TempDir())
	if err != nil {
		t.Fatalf("ExtractResources: %v", err)
	}
	if summary.Extracted != 0 || summary.Skipped != 1 {
		t.Fatalf("expected the zero-offset entry to be skipped, got %+v", summary)
	}
}
