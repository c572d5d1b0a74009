// Package fontlocate implements the font-table locator (spec.md §4.3, C3):
// it recovers SMALL_BASE deterministically from a fixed header field, and
// LARGE_BASE by a progressive-refinement heuristic scan over the firmware's
// first partition, scoring candidate windows by the length of the longest
// run of plausible LARGE-cell footer bytes they contain.
package fontlocate

import (
	"hifiecx/internal/firmware"
)

// LookupTable is the fixed lookup-byte table base address (spec.md §4.3).
const LookupTable = 0x080000

// Confidence reports how many of the three probe codepoints per table
// point at a non-degenerate raw cell, plus the MOVW-immediate cross-check
// count. Neither validity score gates LARGE_BASE's computation; Locate
// rejects the result when either score is below 2, while LocateUnchecked
// leaves that decision to the caller (spec.md §4.3, §7).
type Confidence struct {
	SmallFontValid int
	LargeFontValid int
	Movw0042Count  uint32
}

// Addresses is the full result of a font-table location pass.
type Addresses struct {
	SmallBase   uint32
	LargeBase   uint32
	LookupTable uint32
	Confidence  Confidence
}

// Locate recovers SMALL_BASE, LARGE_BASE and a confidence report from a
// firmware image, using cfg's heuristic tunables. It returns
// firmware.ErrLocatorLowConfidence if either validity score is below 2, per
// spec.md §4.3's acceptance rule — callers that want the raw (possibly
// low-confidence) addresses anyway should call LocateUnchecked.
func Locate(img *firmware.Image, cfg Config) (Addresses, error) {
	addrs, err := LocateUnchecked(img, cfg)
	if err != nil {
		return Addresses{}, err
	}
	if addrs.Confidence.SmallFontValid < 2 || addrs.Confidence.LargeFontValid < 2 {
		return addrs, firmware.ErrLocatorLowConfidence
	}
	return addrs, nil
}

// LocateUnchecked behaves like Locate but never fails on low confidence; it
// still fails if the firmware is too short to read the required headers.
func LocateUnchecked(img *firmware.Image, cfg Config) (Addresses, error) {
	smallBase, err := smallBase(img)
	if err != nil {
		return Addresses{}, err
	}

	partition, err := img.HeaderPartition1()
	if err != nil {
		return Addresses{}, err
	}

	largeBase, err := searchLargeBase(img, partition, cfg)
	if err != nil {
		return Addresses{}, err
	}

	conf, err := computeConfidence(img, smallBase, largeBase, cfg)
	if err != nil {
		return Addresses{}, err
	}

	return Addresses{
		SmallBase:   smallBase,
		LargeBase:   largeBase,
		LookupTable: LookupTable,
		Confidence:  conf,
	}, nil
}

// smallBase implements spec.md §4.3's deterministic formula:
// (u16_le(fw[0x7A:0x7C]) << 16) | u16_le(fw[0x78:0x7A]).
func smallBase(img *firmware.Image) (uint32, error) {
	lo, err := img.ReadU16(0x78)
	if err != nil {
		return 0, err
	}
	hi, err := img.ReadU16(0x7A)
	if err != nil {
		return 0, err
	}
	return uint32(hi)<<16 | uint32(lo), nil
}

type window struct {
	start, end int64
	score      int
	firstAddr  int64
	ok         bool
}

// scoreWindow runs the streak/anomaly automaton of spec.md §4.3 over
// [ws, we), honoring an optional byte-33 alignment constraint.
func scoreWindow(img *firmware.Image, ws, we int64, alignment int, cfg Config) window {
	stride := int64(cfg.Stride)

	var (
		openStreak   bool
		streakStart  int64
		streakLen    int
		anomaly      int
		bestLen      int
		bestStart    int64
	)

	closeStreak := func() {
		if openStreak && streakLen > bestLen {
			bestLen = streakLen
			bestStart = streakStart
		}
		openStreak = false
		streakLen = 0
	}

	n := int64(img.Len())
	for addr := ws; addr < we && addr+32 < n; addr += stride {
		if alignment >= 0 && addr%33 != int64(alignment) {
			continue
		}
		b, err := img.ReadByte(int(addr + 32))
		if err != nil {
			break
		}

		switch {
		case cfg.isInvalid(b):
			closeStreak()
			anomaly = 0
		case cfg.isFooter(b):
			if !openStreak {
				streakStart = addr
				openStreak = true
				streakLen = 0
			}
			streakLen++
			anomaly = 0
		default:
			anomaly++
			if anomaly <= cfg.AnomalyTolerance {
				if !openStreak {
					streakStart = addr
					openStreak = true
					streakLen = 0
				}
				streakLen++
			} else {
				closeStreak()
				anomaly = 0
			}
		}
	}
	closeStreak()

	return window{start: ws, end: we, score: bestLen, firstAddr: bestStart, ok: bestLen > 0}
}

type region struct {
	start, end int64
}

// searchLargeBase implements spec.md §4.3's progressive refinement search.
func searchLargeBase(img *firmware.Image, p firmware.Partition, cfg Config) (uint32, error) {
	S := int64(p.Offset)
	L := int64(p.Size)
	n := int64(img.Len())
	if S+L > n {
		return 0, firmware.ErrShortFirmware
	}

	regions := []region{{S, S + L}}
	currentStride := int64(cfg.Window / 2)
	alignment := -1
	firstRound := true

	var best window

	for currentStride > int64(cfg.MinStride) && len(regions) > 0 {
		var windows []window
		for _, r := range regions {
			for ws := r.start; ws < r.end; ws += currentStride {
				we := ws + int64(cfg.Window)
				if we > n {
					we = n
				}
				w := scoreWindow(img, ws, we, alignment, cfg)
				windows = append(windows, w)
			}
		}

		sortWindowsDesc(windows)
		if len(windows) > 5 {
			windows = windows[:5]
		}

		if firstRound && len(windows) > 0 && windows[0].ok {
			alignment = int(windows[0].firstAddr % 33)
			firstRound = false
		}

		var nextRegions []region
		C := currentStride/33 + 1
		for _, w := range windows {
			if !w.ok {
				continue
			}
			if w.score > best.score {
				best = w
			}
			rs := w.firstAddr - C*33
			if rs < S {
				rs = S
			}
			re := w.firstAddr + C*33
			if re > S+L {
				re = S + L
			}
			nextRegions = append(nextRegions, region{rs, re})
		}

		regions = nextRegions
		currentStride /= 2
	}

	return uint32(best.firstAddr), nil
}

func sortWindowsDesc(windows []window) {
	for i := 1; i < len(windows); i++ {
		for j := i; j > 0 && windows[j].score > windows[j-1].score; j-- {
			windows[j], windows[j-1] = windows[j-1], windows[j]
		}
	}
}

// computeConfidence implements spec.md §4.3's confidence report.
func computeConfidence(img *firmware.Image, smallBase, largeBase uint32, cfg Config) (Confidence, error) {
	smallValid := 0
	for _, u := range cfg.SmallProbes {
		addr := SmallAddr(smallBase, u)
		if cellIsPlausible(img, addr, SmallStride) {
			smallValid++
		}
	}

	largeValid := 0
	for _, u := range cfg.LargeProbes {
		addr := LargeAddr(largeBase, u)
		if cellIsPlausible(img, addr, LargeStride) {
			largeValid++
		}
	}

	return Confidence{
		SmallFontValid: smallValid,
		LargeFontValid: largeValid,
		Movw0042Count:  countMovwImmediate0042(img),
	}, nil
}

// cellIsPlausible reports whether the stride-byte cell at addr is neither
// all-0x00 nor all-0xFF (spec.md §4.3). Out-of-range cells are implausible.
func cellIsPlausible(img *firmware.Image, addr int64, stride int) bool {
	if addr < 0 || addr+int64(stride) > int64(img.Len()) {
		return false
	}
	allZero, allFF := true, true
	for i := int64(0); i < int64(stride); i++ {
		b := img.Raw[addr+i]
		if b != 0x00 {
			allZero = false
		}
		if b != 0xFF {
			allFF = false
		}
	}
	return !allZero && !allFF
}

// countMovwImmediate0042 counts ARM MOVW-immediate-#0x42xx signatures
// (0xF2 0x40 .. .. 0x42) across the whole image, used only as an advisory
// cross-check (spec.md §4.3, Open Question 1).
func countMovwImmediate0042(img *firmware.Image) uint32 {
	var count uint32
	n := img.Len()
	for i := 0; i+4 < n; i++ {
		if img.Raw[i] == 0xF2 && img.Raw[i+1] == 0x40 && img.Raw[i+4] == 0x42 {
			count++
		}
	}
	return count
}
