// File: extension/canonicaljson_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package extension

import "testing"

func TestSerializeCanonical_SortsObjectKeys(t *testing.T) {
	v := map[string]any{"zebra": 1, "apple": 2, "mango": 3}
	got := serializeCanonical(v, false)
	want := `{"apple":2,"mango":3,"zebra":1}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSerializeCanonical_EscapesControlAndQuote(t *testing.T) {
	got := serializeCanonical("line1\nline2\t\"quoted\"", false)
	want := `"line1\nline2\t\"quoted\""`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSerializeCanonical_LessThanEscapedOnlyWhenRequested(t *testing.T) {
	plain := serializeCanonical("a<b", false)
	if plain != `"a<b"` {
		t.Fatalf("got %q, want literal <", plain)
	}
	escaped := serializeCanonical("a<b", true)
	if escaped != `"a` + lessThanEscape + `b"` {
		t.Fatalf("got %q, want \\u003C escape", escaped)
	}
}

func TestSerializeCanonical_EmptyContainers(t *testing.T) {
	if got := serializeCanonical(map[string]any{}, false); got != "{}" {
		t.Fatalf("got %q, want {}", got)
	}
	if got := serializeCanonical([]any{}, false); got != "[]" {
		t.Fatalf("got %q, want []", got)
	}
}

func TestRemoveEmptyEntries_StripsEmptyValues(t *testing.T) {
	in := map[string]any{
		"keep":      "value",
		"emptystr":  "",
		"emptyarr":  []any{},
		"emptyobj":  map[string]any{},
		"nestedobj": map[string]any{"inner": ""},
		"arr":       []any{"a", ""},
	}
	out := removeEmptyEntries(in).(map[string]any)

	if _, ok := out["emptystr"]; ok {
		t.Fatal("empty string should be stripped")
	}
	if _, ok := out["emptyarr"]; ok {
		t.Fatal("empty array should be stripped")
	}
	if _, ok := out["emptyobj"]; ok {
		t.Fatal("empty object should be stripped")
	}
	if _, ok := out["nestedobj"]; ok {
		t.Fatal("object that becomes empty after cleaning should be stripped")
	}
	if out["keep"] != "value" {
		t.Fatalf("got keep = %v, want value", out["keep"])
	}
	arr := out["arr"].([]any)
	if len(arr) != 2 {
		t.Fatalf("array elements themselves are not pruned, want len 2, got %d", len(arr))
	}
}
