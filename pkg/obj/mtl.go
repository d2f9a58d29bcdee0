package obj

import (
	"fmt"

	"github.com/Faultbox/wavefront/internal/dynarray"
)

// mtlParser holds the state of one material library pass.
type mtlParser struct {
	materials dynarray.Array[Material]

	current int          // index of the material set by newmtl, -1 before any
	foundD  map[int]bool // materials whose dissolve came from a "d" directive
	line    int
}

// ParseMTL parses a material library buffer into m.Materials.
// Materials already present in m are updated in place; new ones are appended.
func ParseMTL(m *Mesh, buf []byte) error {
	return ParseMTLWithOptions(m, buf, Options{})
}

// ParseMTLWithOptions parses a material library buffer into m.Materials.
func ParseMTLWithOptions(m *Mesh, buf []byte, opts Options) error {
	if m == nil {
		return ErrNilMesh
	}
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		return ErrMissingNewline
	}

	d := &mtlParser{
		materials: dynarray.Wrap(m.Materials, opts.MaxElements),
		current:   -1,
		foundD:    make(map[int]bool),
		line:      1,
	}

	err := d.parseBuffer(buf)

	// Keep whatever was parsed before an error.
	m.Materials = d.materials.Slice()

	return err
}

func (d *mtlParser) parseBuffer(buf []byte) error {
	var err error

	p := 0
	for p < len(buf) {
		p = skipWhitespace(buf, p)

		switch at(buf, p) {
		case 'n':
			if hasKeyword(buf, p, "newmtl") {
				p, err = d.parseNewmtl(buf, p+6)
			}

		case 'K':
			if slot := d.colorSlot(at(buf, p+1)); slot != nil && isWhitespace(at(buf, p+2)) {
				p, err = d.readTriple(buf, p+2, slot)
			}

		case 'N':
			switch {
			case hasKeyword(buf, p, "Ns"):
				p, err = d.readSingle(buf, p+2, func(m *Material) *float32 { return &m.Ns })
			case hasKeyword(buf, p, "Ni"):
				p, err = d.readSingle(buf, p+2, func(m *Material) *float32 { return &m.Ni })
			}

		case 'T':
			switch {
			case hasKeyword(buf, p, "Tr"):
				p, err = d.parseTr(buf, p+2)
			case hasKeyword(buf, p, "Tf"):
				p, err = d.readTriple(buf, p+2, func(m *Material) *[3]float32 { return &m.Tf })
			}

		case 'd':
			if isWhitespace(at(buf, p+1)) {
				p, err = d.parseDissolve(buf, p+1)
			}

		case 'i':
			if hasKeyword(buf, p, "illum") {
				p, err = d.parseIllum(buf, p+5)
			}

		case 'm', 'b':
			if slot, n := textureSlot(buf, p); slot != nil {
				p, err = d.readMap(buf, p+n, slot)
			}
		}

		if err != nil {
			return fmt.Errorf("line %d: %w", d.line, err)
		}

		p = skipLine(buf, p)
		d.line++
	}

	return nil
}

// material returns the material set by the last newmtl.
func (d *mtlParser) material() (*Material, error) {
	if d.current < 0 {
		return nil, ErrNoCurrentMaterial
	}
	return d.materials.At(d.current), nil
}

func (d *mtlParser) parseNewmtl(buf []byte, p int) (int, error) {
	p = skipWhitespace(buf, p)
	end := scanName(buf, p)

	idx, err := findOrAddMaterial(&d.materials, buf, p, end)
	if err != nil {
		return end, err
	}
	d.current = idx

	return end, nil
}

func (d *mtlParser) colorSlot(c byte) func(*Material) *[3]float32 {
	switch c {
	case 'a':
		return func(m *Material) *[3]float32 { return &m.Ka }
	case 'd':
		return func(m *Material) *[3]float32 { return &m.Kd }
	case 's':
		return func(m *Material) *[3]float32 { return &m.Ks }
	case 'e':
		return func(m *Material) *[3]float32 { return &m.Ke }
	case 't':
		return func(m *Material) *[3]float32 { return &m.Kt }
	}
	return nil
}

func (d *mtlParser) readTriple(buf []byte, p int, slot func(*Material) *[3]float32) (int, error) {
	m, err := d.material()
	if err != nil {
		return p, err
	}
	v := slot(m)
	for i := range v {
		v[i], p = parseFloat(buf, p)
	}
	return p, nil
}

func (d *mtlParser) readSingle(buf []byte, p int, slot func(*Material) *float32) (int, error) {
	m, err := d.material()
	if err != nil {
		return p, err
	}
	*slot(m), p = parseFloat(buf, p)
	return p, nil
}

// parseTr applies "Tr" as 1 - dissolve unless the material already has a "d".
func (d *mtlParser) parseTr(buf []byte, p int) (int, error) {
	m, err := d.material()
	if err != nil {
		return p, err
	}

	var tr float32
	tr, p = parseFloat(buf, p)
	if !d.foundD[d.current] {
		m.D = 1 - tr
	}
	return p, nil
}

func (d *mtlParser) parseDissolve(buf []byte, p int) (int, error) {
	m, err := d.material()
	if err != nil {
		return p, err
	}
	m.D, p = parseFloat(buf, p)
	d.foundD[d.current] = true
	return p, nil
}

func (d *mtlParser) parseIllum(buf []byte, p int) (int, error) {
	m, err := d.material()
	if err != nil {
		return p, err
	}
	var v int
	v, p = parseInt(buf, skipWhitespace(buf, p))
	m.Illum = IllumModel(v)
	return p, nil
}

// textureKeywords maps map directives to their texture slot.
var textureKeywords = []struct {
	keyword string
	slot    func(*Material) *Texture
}{
	{"map_Ka", func(m *Material) *Texture { return &m.MapKa }},
	{"map_Kd", func(m *Material) *Texture { return &m.MapKd }},
	{"map_Ks", func(m *Material) *Texture { return &m.MapKs }},
	{"map_Ke", func(m *Material) *Texture { return &m.MapKe }},
	{"map_Kt", func(m *Material) *Texture { return &m.MapKt }},
	{"map_Ns", func(m *Material) *Texture { return &m.MapNs }},
	{"map_Ni", func(m *Material) *Texture { return &m.MapNi }},
	{"map_d", func(m *Material) *Texture { return &m.MapD }},
	{"map_Bump", func(m *Material) *Texture { return &m.MapBump }},
	{"map_bump", func(m *Material) *Texture { return &m.MapBump }},
	{"bump", func(m *Material) *Texture { return &m.MapBump }},
}

// textureSlot matches a texture map keyword at p and returns its slot and length.
func textureSlot(buf []byte, p int) (func(*Material) *Texture, int) {
	for _, k := range textureKeywords {
		if hasKeyword(buf, p, k.keyword) {
			return k.slot, len(k.keyword)
		}
	}
	return nil, 0
}

// readMap reads a texture name. Map options ("-o", "-bm", ...) are not
// supported; a line carrying them is skipped.
func (d *mtlParser) readMap(buf []byte, p int, slot func(*Material) *Texture) (int, error) {
	m, err := d.material()
	if err != nil {
		return p, err
	}

	p = skipWhitespace(buf, p)
	if at(buf, p) == '-' {
		return p, nil
	}

	end := scanName(buf, p)
	slot(m).Name = copyName(buf, p, end)

	return end, nil
}
