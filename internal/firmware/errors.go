package firmware

import "errors"

// Error kinds shared across the whole pipeline (spec.md §7). The first four
// abort the current firmware pass; ErrItemSkipped is tallied by the
// extraction driver and never propagated as a pass-ending error.
var (
	// ErrShortFirmware means a required header offset or field exceeds the
	// image length.
	ErrShortFirmware = errors.New("firmware: image too short for required header field")

	// ErrTableNotFound means the ROCK26 anchor is absent from Part 5, or no
	// metadata candidate matches it.
	ErrTableNotFound = errors.New("firmware: resource table not found")

	// ErrLocatorLowConfidence means the font-table locator's confidence
	// report fell below the acceptance threshold.
	ErrLocatorLowConfidence = errors.New("firmware: font locator confidence too low")

	// ErrInvalidDimensions means a BMP writer was asked to produce an image
	// with a non-positive width or height.
	ErrInvalidDimensions = errors.New("firmware: invalid bitmap dimensions")

	// ErrItemSkipped marks a single codepoint or resource that failed
	// validation; it is non-fatal and never aborts a pass.
	ErrItemSkipped = errors.New("firmware: item skipped")
)
