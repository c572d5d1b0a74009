package fontlocate

// SmallStride and LargeStride are the fixed per-codepoint cell sizes
// (spec.md §3); LargeStride's 33rd byte is a footer signature, not pixel
// data.
const (
	SmallStride = 32
	LargeStride = 33
)

// SmallAddr returns the firmware offset of codepoint u's SMALL cell.
func SmallAddr(smallBase uint32, u rune) int64 {
	return int64(smallBase) + int64(u)*SmallStride
}

// LargeAddr returns the firmware offset of codepoint u's LARGE cell. It is
// only meaningful for u >= 0x4E00; callers must check that themselves (a
// negative or nonsensical result for u < 0x4E00 is the documented contract,
// not a panic).
func LargeAddr(largeBase uint32, u rune) int64 {
	return int64(largeBase) + (int64(u)-0x4E00)*LargeStride
}
