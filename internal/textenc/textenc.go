// Package textenc decodes model names written in legacy code pages.
//
// OBJ and MTL files carry no encoding declaration. Exporters on Korean and
// Japanese systems commonly write group, material and texture names in
// EUC-KR or Shift-JIS, which shows up as mojibake when read as UTF-8.
package textenc

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/transform"

	"github.com/Faultbox/wavefront/pkg/obj"
)

// ErrUnknownEncoding is returned for encoding labels that cannot be resolved.
var ErrUnknownEncoding = errors.New("unknown text encoding")

// Decoder converts names from a legacy encoding to UTF-8.
// The zero value passes strings through unchanged.
type Decoder struct {
	name string
	enc  encoding.Encoding
}

// Lookup resolves an encoding label such as "euc-kr", "shift_jis" or
// "windows-1252". An empty label or "utf-8" yields a pass-through decoder.
func Lookup(label string) (Decoder, error) {
	label = strings.ToLower(strings.TrimSpace(label))

	switch label {
	case "", "utf-8", "utf8":
		return Decoder{}, nil
	case "euc-kr", "euckr", "cp949":
		return Decoder{name: "euc-kr", enc: korean.EUCKR}, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return Decoder{}, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}
	return Decoder{name: canonicalName(enc, label), enc: enc}, nil
}

// canonicalName returns the WHATWG name of enc, or label if it has none.
func canonicalName(enc encoding.Encoding, label string) string {
	name, err := htmlindex.Name(enc)
	if err != nil {
		return label
	}
	return name
}

// Name returns the canonical encoding name, or "utf-8" for pass-through.
func (d Decoder) Name() string {
	if d.enc == nil {
		return "utf-8"
	}
	return d.name
}

// IsPassThrough reports whether the decoder leaves strings unchanged.
func (d Decoder) IsPassThrough() bool {
	return d.enc == nil
}

// String decodes s. Strings that are plain ASCII, or that fail to decode,
// are returned as-is.
func (d Decoder) String(s string) string {
	if d.enc == nil || isASCII(s) {
		return s
	}
	result, _, err := transform.String(d.enc.NewDecoder(), s)
	if err != nil || !utf8.ValidString(result) {
		return s
	}
	return result
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// TranscodeMesh decodes every name held by m in place: groups, materials,
// texture maps and material library paths.
func TranscodeMesh(m *obj.Mesh, d Decoder) {
	if m == nil || d.IsPassThrough() {
		return
	}

	for i := range m.Groups {
		m.Groups[i].Name = d.String(m.Groups[i].Name)
	}
	for i := range m.MtlLibs {
		m.MtlLibs[i] = d.String(m.MtlLibs[i])
	}
	for i := range m.Materials {
		mat := &m.Materials[i]
		mat.Name = d.String(mat.Name)
		for _, tex := range mat.Textures() {
			tex.Name = d.String(tex.Name)
		}
	}
}
