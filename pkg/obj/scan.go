package obj

import "path/filepath"

// otherSeparator is the path separator that fixSeparators rewrites.
var otherSeparator = func() byte {
	if filepath.Separator == '/' {
		return '\\'
	}
	return '/'
}()

// at returns buf[p], or 0 past the end of the buffer.
func at(buf []byte, p int) byte {
	if p < 0 || p >= len(buf) {
		return 0
	}
	return buf[p]
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r'
}

func isEndOfName(c byte) bool {
	return c == '\t' || c == '\r' || c == '\n'
}

func isNewline(c byte) bool {
	return c == '\n'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isExponent(c byte) bool {
	return c == 'e' || c == 'E'
}

func skipWhitespace(buf []byte, p int) int {
	for isWhitespace(at(buf, p)) {
		p++
	}
	return p
}

// skipLine advances past the next newline.
func skipLine(buf []byte, p int) int {
	for p < len(buf) {
		if isNewline(buf[p]) {
			return p + 1
		}
		p++
	}
	return len(buf)
}

// scanName returns the end of the name starting at p.
// Names run up to a tab, carriage return or newline; spaces are kept.
func scanName(buf []byte, p int) int {
	for p < len(buf) && !isEndOfName(buf[p]) {
		p++
	}
	return p
}

// hasKeyword reports whether buf[p:] starts with kw followed by whitespace.
func hasKeyword(buf []byte, p int, kw string) bool {
	for i := 0; i < len(kw); i++ {
		if at(buf, p+i) != kw[i] {
			return false
		}
	}
	return isWhitespace(at(buf, p+len(kw)))
}

func copyName(buf []byte, start, end int) string {
	return string(buf[start:end])
}

func nameEqual(name string, buf []byte, start, end int) bool {
	return len(name) == end-start && name == string(buf[start:end])
}

// fixSeparators rewrites foreign path separators to the native one.
func fixSeparators(path string) string {
	b := []byte(path)
	for i, c := range b {
		if c == otherSeparator {
			b[i] = filepath.Separator
		}
	}
	return string(b)
}
