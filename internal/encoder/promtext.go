package encoder

import (
	"bytes"
	"sort"
	"strconv"
)

// MarshalText renders samples as Prometheus text exposition lines, the
// format VictoriaMetrics-compatible backends accept on their import
// endpoint:
//
//	name{key="value",...} value timestamp_ms
//
// Label keys are emitted in sorted order so identical samples always
// produce byte-identical payloads.
func MarshalText(samples []Sample) []byte {
	var buf bytes.Buffer

	for _, sample := range samples {
		buf.WriteString(sample.Name)

		if len(sample.Labels) > 0 {
			keys := make([]string, 0, len(sample.Labels))
			for key := range sample.Labels {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			buf.WriteByte('{')
			for i, key := range keys {
				if i > 0 {
					buf.WriteByte(',')
				}

				buf.WriteString(key)
				buf.WriteString(`="`)
				writeEscapedLabelValue(&buf, sample.Labels[key])
				buf.WriteByte('"')
			}
			buf.WriteByte('}')
		}

		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatFloat(sample.Value, 'g', -1, 64))
		buf.WriteByte(' ')
		buf.WriteString(strconv.FormatInt(sample.TimestampMS, 10))
		buf.WriteByte('\n')
	}

	return buf.Bytes()
}

// writeEscapedLabelValue escapes backslash, double quote and newline as the
// exposition format requires. Sanitized values never contain these, but the
// serializer must not depend on that.
func writeEscapedLabelValue(buf *bytes.Buffer, value string) {
	for _, r := range value {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '"':
			buf.WriteString(`\"`)
		case '\n':
			buf.WriteString(`\n`)
		default:
			buf.WriteRune(r)
		}
	}
}
