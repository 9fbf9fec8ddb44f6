package extension

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// serializeCanonical renders v (built only from map[string]any, []any,
// string, bool, int, int64, and nil) as JSON with object keys sorted
// byte-wise, matching the ordered-map serializer Chromium's own preference
// writer uses. When escapeLT is set, '<' is rendered as the JSON unicode
// escape held in lessThanEscape —
// the rule applied only to the per-extension payload that feeds its own
// MAC, never to the file written to disk.
func serializeCanonical(v any, escapeLT bool) string {
	var b strings.Builder
	writeCanonicalValue(&b, v, escapeLT)
	return b.String()
}

func writeCanonicalValue(b *strings.Builder, v any, escapeLT bool) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if val {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		b.WriteString(strconv.Itoa(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case string:
		writeCanonicalString(b, val, escapeLT)
	case []any:
		writeCanonicalArray(b, val, escapeLT)
	case []string:
		arr := make([]any, len(val))
		for i, s := range val {
			arr[i] = s
		}
		writeCanonicalArray(b, arr, escapeLT)
	case map[string]any:
		writeCanonicalObject(b, val, escapeLT)
	default:
		panic(fmt.Sprintf("extension: unsupported canonical JSON value type %T", v))
	}
}

const lessThanEscape = "\\u003C"

func writeCanonicalString(b *strings.Builder, s string, escapeLT bool) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '<':
			if escapeLT {
				b.WriteString(lessThanEscape)
			} else {
				b.WriteByte('<')
			}
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

func writeCanonicalArray(b *strings.Builder, arr []any, escapeLT bool) {
	b.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonicalValue(b, elem, escapeLT)
	}
	b.WriteByte(']')
}

func writeCanonicalObject(b *strings.Builder, obj map[string]any, escapeLT bool) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonicalString(b, k, escapeLT)
		b.WriteByte(':')
		writeCanonicalValue(b, obj[k], escapeLT)
	}
	b.WriteByte('}')
}

// removeEmptyEntries recursively strips object members whose value is an
// empty string, empty array, or empty object (after cleaning) from v,
// matching the cleanup pass Chromium's own MAC computation applies before
// hashing an extension's preference entry. Array elements are cleaned but
// never removed, even when empty.
func removeEmptyEntries(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			cleaned := removeEmptyEntries(child)
			if isEmptyCanonical(cleaned) {
				continue
			}
			out[k] = cleaned
		}
		return out
	case []any:
		out := make([]any, 0, len(val))
		for _, elem := range val {
			out = append(out, removeEmptyEntries(elem))
		}
		return out
	default:
		return v
	}
}

func isEmptyCanonical(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case string:
		return val == ""
	default:
		return false
	}
}
