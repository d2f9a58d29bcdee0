package obj

import (
	"math"

	"github.com/Faultbox/wavefront/internal/dynarray"
)

func (d *objParser) parseVertex(buf []byte, p int) (int, error) {
	return readFloats(&d.positions, buf, p, 3)
}

func (d *objParser) parseTexcoord(buf []byte, p int) (int, error) {
	return readFloats(&d.texcoords, buf, p, 2)
}

func (d *objParser) parseNormal(buf []byte, p int) (int, error) {
	return readFloats(&d.normals, buf, p, 3)
}

func readFloats(dst *dynarray.Array[float32], buf []byte, p, n int) (int, error) {
	var v float32
	for i := 0; i < n; i++ {
		v, p = parseFloat(buf, p)
		if _, err := dst.Push(v); err != nil {
			return p, err
		}
	}
	return p, nil
}

// parseFace reads the vertex references of one polygon up to the end of line.
func (d *objParser) parseFace(buf []byte, p int) (int, error) {
	// Open the group before pushing so its offsets point at this face.
	g := d.openGroup()
	p = skipWhitespace(buf, p)

	var count uint32
	for p < len(buf) && !isNewline(buf[p]) {
		start := p

		var v, t, n int
		v, p = parseInt(buf, p)
		if at(buf, p) == '/' {
			p++
			if at(buf, p) != '/' {
				t, p = parseInt(buf, p)
			}
			if at(buf, p) == '/' {
				p++
				n, p = parseInt(buf, p)
			}
		}

		if p == start {
			// Not a vertex reference; drop the token.
			for p < len(buf) && !isWhitespace(buf[p]) && !isNewline(buf[p]) {
				p++
			}
			p = skipWhitespace(buf, p)
			continue
		}

		idx := Index{
			P: resolveIndex(v, d.positions.Len()/3),
			T: resolveIndex(t, d.texcoords.Len()/2),
			N: resolveIndex(n, d.normals.Len()/3),
		}
		if _, err := d.indices.Push(idx); err != nil {
			return p, err
		}
		count++

		p = skipWhitespace(buf, p)
	}

	if _, err := d.faceVertices.Push(count); err != nil {
		return p, err
	}
	if _, err := d.faceMaterials.Push(d.material); err != nil {
		return p, err
	}

	g.FaceCount++

	return p, nil
}

// resolveIndex maps a face reference to an attribute index. Negative values
// count back from the last entry; count includes the sentinel slot. 0 stays 0.
// References too large for uint32 saturate so Validate reports them.
func resolveIndex(v, count int) uint32 {
	if v >= 0 {
		if uint64(v) > math.MaxUint32 {
			return math.MaxUint32
		}
		return uint32(v)
	}
	r := count + v
	if r < 0 {
		return 0
	}
	return uint32(r)
}
