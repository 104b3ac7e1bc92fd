package encoder

import "strings"

// SanitizeLabelValue replaces every character outside the permitted
// label-value alphabet with an underscore. It is total: any input string
// yields a valid label value, so a malformed name or error message can
// never block delivery of otherwise-valid metrics.
//
// The permitted alphabet covers what test identifiers and display names
// legitimately contain: ASCII letters, digits, underscore, dash, dot,
// colon, slash and space.
func SanitizeLabelValue(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	for _, r := range value {
		if permittedLabelRune(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteByte('_')
		}
	}

	return builder.String()
}

func permittedLabelRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-' || r == '.' || r == ':' || r == '/' || r == ' ':
		return true
	default:
		return false
	}
}
