package obj

import (
	"path/filepath"
	"testing"
)

func TestClassification(t *testing.T) {
	for _, c := range []byte{' ', '\t', '\r'} {
		if !isWhitespace(c) {
			t.Errorf("%q should be whitespace", c)
		}
	}
	if isWhitespace('\n') {
		t.Error("newline is not whitespace")
	}

	for _, c := range []byte{'\t', '\r', '\n'} {
		if !isEndOfName(c) {
			t.Errorf("%q should end a name", c)
		}
	}
	if isEndOfName(' ') {
		t.Error("space must not end a name")
	}

	if !isNewline('\n') || isNewline('\r') {
		t.Error("only LF is a newline")
	}
	if !isExponent('e') || !isExponent('E') || isExponent('x') {
		t.Error("unexpected exponent classification")
	}
}

func TestSkipLine(t *testing.T) {
	buf := []byte("abc\ndef\n")
	if p := skipLine(buf, 0); p != 4 {
		t.Errorf("expected 4, got %d", p)
	}
	if p := skipLine(buf, 4); p != 8 {
		t.Errorf("expected 8, got %d", p)
	}
	if p := skipLine([]byte("abc"), 0); p != 3 {
		t.Errorf("expected end of buffer, got %d", p)
	}
}

func TestHasKeyword(t *testing.T) {
	tests := []struct {
		input string
		kw    string
		want  bool
	}{
		{"mtllib a.mtl", "mtllib", true},
		{"mtllib\ta.mtl", "mtllib", true},
		{"mtllibx", "mtllib", false},
		{"mtllib\n", "mtllib", false},
		{"mtl", "mtllib", false},
	}

	for _, tc := range tests {
		if got := hasKeyword([]byte(tc.input), 0, tc.kw); got != tc.want {
			t.Errorf("hasKeyword(%q, %q) = %v, expected %v", tc.input, tc.kw, got, tc.want)
		}
	}
}

func TestNames(t *testing.T) {
	buf := []byte("name with spaces\tnext\n")
	end := scanName(buf, 0)
	if got := copyName(buf, 0, end); got != "name with spaces" {
		t.Errorf("unexpected name %q", got)
	}
	if !nameEqual("name with spaces", buf, 0, end) {
		t.Error("expected names to be equal")
	}
	if nameEqual("name", buf, 0, end) {
		t.Error("prefix must not compare equal")
	}
}

func TestFixSeparators(t *testing.T) {
	other := string(otherSeparator)
	native := string(filepath.Separator)

	got := fixSeparators("models" + other + "backpack" + other + "backpack.mtl")
	want := "models" + native + "backpack" + native + "backpack.mtl"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
