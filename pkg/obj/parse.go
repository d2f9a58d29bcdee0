package obj

import (
	"fmt"

	"github.com/Faultbox/wavefront/internal/dynarray"
)

// objParser holds the state of one OBJ parse.
type objParser struct {
	positions     dynarray.Array[float32]
	texcoords     dynarray.Array[float32]
	normals       dynarray.Array[float32]
	faceVertices  dynarray.Array[uint32]
	faceMaterials dynarray.Array[uint32]
	indices       dynarray.Array[Index]
	materials     dynarray.Array[Material]
	groups        dynarray.Array[Group]
	mtllibs       dynarray.Array[string]

	group    *Group // nil until a face or "g" directive opens one
	material uint32 // bound by usemtl
	line     int

	objectsAsGroups bool
}

func newOBJParser(opts Options) *objParser {
	limit := opts.MaxElements
	return &objParser{
		positions:       dynarray.New[float32](limit),
		texcoords:       dynarray.New[float32](limit),
		normals:         dynarray.New[float32](limit),
		faceVertices:    dynarray.New[uint32](limit),
		faceMaterials:   dynarray.New[uint32](limit),
		indices:         dynarray.New[Index](limit),
		materials:       dynarray.New[Material](limit),
		groups:          dynarray.New[Group](limit),
		mtllibs:         dynarray.New[string](limit),
		line:            1,
		objectsAsGroups: opts.ObjectsAsGroups,
	}
}

// Parse parses an OBJ buffer with default options.
func Parse(buf []byte) (*Mesh, error) {
	return ParseWithOptions(buf, Options{})
}

// ParseWithOptions parses an OBJ buffer.
// The buffer must end in a newline; otherwise no mesh is returned.
func ParseWithOptions(buf []byte, opts Options) (*Mesh, error) {
	if len(buf) == 0 || buf[len(buf)-1] != '\n' {
		return nil, ErrMissingNewline
	}

	d := newOBJParser(opts)

	// Sentinel entries so 1-based face indices need no adjustment
	for _, v := range []float32{0, 0, 0} {
		if _, err := d.positions.Push(v); err != nil {
			return nil, err
		}
	}
	for _, v := range []float32{0, 0} {
		if _, err := d.texcoords.Push(v); err != nil {
			return nil, err
		}
	}
	for _, v := range []float32{0, 0, 1} {
		if _, err := d.normals.Push(v); err != nil {
			return nil, err
		}
	}

	if err := d.parseBuffer(buf); err != nil {
		return nil, err
	}

	if err := d.flushGroup(); err != nil {
		return nil, fmt.Errorf("%w: flushing final group", err)
	}

	return d.mesh(), nil
}

// parseBuffer dispatches each line on its leading keyword.
func (d *objParser) parseBuffer(buf []byte) error {
	var err error

	p := 0
	for p < len(buf) {
		p = skipWhitespace(buf, p)

		switch at(buf, p) {
		case 'v':
			switch at(buf, p+1) {
			case ' ', '\t':
				p, err = d.parseVertex(buf, p+2)
			case 't':
				p, err = d.parseTexcoord(buf, p+2)
			case 'n':
				p, err = d.parseNormal(buf, p+2)
			}

		case 'f':
			if c := at(buf, p+1); c == ' ' || c == '\t' {
				p, err = d.parseFace(buf, p+2)
			}

		case 'g':
			if c := at(buf, p+1); c == ' ' || c == '\t' {
				p, err = d.parseGroup(buf, p+2)
			}

		case 'o':
			if c := at(buf, p+1); d.objectsAsGroups && (c == ' ' || c == '\t') {
				p, err = d.parseGroup(buf, p+2)
			}

		case 'm':
			if hasKeyword(buf, p, "mtllib") {
				p, err = d.parseMtllib(buf, p+6)
			}

		case 'u':
			if hasKeyword(buf, p, "usemtl") {
				p, err = d.parseUsemtl(buf, p+6)
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

func (d *objParser) mesh() *Mesh {
	return &Mesh{
		Positions:     d.positions.Slice(),
		Texcoords:     d.texcoords.Slice(),
		Normals:       d.normals.Slice(),
		FaceVertices:  d.faceVertices.Slice(),
		FaceMaterials: d.faceMaterials.Slice(),
		Indices:       d.indices.Slice(),
		Materials:     d.materials.Slice(),
		Groups:        d.groups.Slice(),
		MtlLibs:       d.mtllibs.Slice(),
	}
}
