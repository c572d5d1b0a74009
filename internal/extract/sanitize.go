package extract

import "strings"

// SanitizeFilename implements spec.md §4.5's resource-name sanitization:
// '/' and '\' become '_', every other character outside
// [alnum] ∪ {'.','_','-','(',')',',',' '} becomes '_', and a ".bmp"
// extension is appended if the result doesn't already end in one.
func SanitizeFilename(name string) string {
	replaced := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return '_'
		}
		return r
	}, name)

	var b strings.Builder
	for _, r := range replaced {
		if isSafeFilenameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	out := b.String()

	if !strings.HasSuffix(strings.ToLower(out), ".bmp") {
		out += ".bmp"
	}
	return out
}

func isSafeFilenameRune(r rune) bool {
	switch {
	case r >= '0' && r <= '9':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= 'a' && r <= 'z':
		return true
	}
	switch r {
	case '.', '_', '-', '(', ')', ',', ' ':
		return true
	}
	return false
}
