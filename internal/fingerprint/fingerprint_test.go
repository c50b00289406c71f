package fingerprint

import (
	"regexp"
	"testing"
)

func TestOf_Deterministic(t *testing.T) {
	inputs := []string{"", "func main() {}", "a\nb\nc", "  indented\n\ttabbed"}
	for _, in := range inputs {
		if Of(in) != Of(in) {
			t.Errorf("Of(%q) is not deterministic", in)
		}
	}
}

func TestOf_Shape(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]+$`)
	got := Of("return nil")
	if len(got) != Length {
		t.Errorf("len(Of) = %d, want %d", len(got), Length)
	}
	if !hexRe.MatchString(got) {
		t.Errorf("Of() = %q, want lowercase hex", got)
	}
	// SHA-256("") starts with e3b0c44298fc.
	if Of("") != "e3b0c44298fc" {
		t.Errorf("Of(\"\") = %q, want e3b0c44298fc", Of(""))
	}
}

func TestOf_SingleCharacterChangesDigest(t *testing.T) {
	pairs := [][2]string{
		{"x := 1", "x := 2"},
		{"a\nb", "a\nc"},
		{"trailing", "trailing "},
		{"line\n", "line"},
	}
	for _, p := range pairs {
		if Of(p[0]) == Of(p[1]) {
			t.Errorf("Of(%q) == Of(%q)", p[0], p[1])
		}
	}
}

func TestMatches(t *testing.T) {
	text := "if err != nil {"
	if !Matches(Of(text), text) {
		t.Error("Matches should accept the fingerprint of the same text")
	}
	if Matches(Of(text), text+" ") {
		t.Error("Matches should reject edited text")
	}
	if Matches("", "") {
		t.Error("empty stored fingerprint must never match")
	}
}
