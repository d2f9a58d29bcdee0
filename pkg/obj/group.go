package obj

import "github.com/Faultbox/wavefront/internal/dynarray"

// openGroup returns the group in progress, starting the implicit nameless
// group if none is open.
func (d *objParser) openGroup() *Group {
	if d.group == nil {
		d.group = d.newGroup("")
	}
	return d.group
}

func (d *objParser) newGroup(name string) *Group {
	return &Group{
		Name:        name,
		FaceOffset:  uint32(d.faceVertices.Len()),
		IndexOffset: uint32(d.indices.Len()),
	}
}

// flushGroup closes the group in progress. Groups without faces are dropped.
func (d *objParser) flushGroup() error {
	g := d.group
	d.group = nil
	if g == nil || g.FaceCount == 0 {
		return nil
	}
	_, err := d.groups.Push(*g)
	return err
}

func (d *objParser) parseGroup(buf []byte, p int) (int, error) {
	p = skipWhitespace(buf, p)
	end := scanName(buf, p)

	if err := d.flushGroup(); err != nil {
		return end, err
	}
	d.group = d.newGroup(copyName(buf, p, end))

	return end, nil
}

func (d *objParser) parseUsemtl(buf []byte, p int) (int, error) {
	p = skipWhitespace(buf, p)
	end := scanName(buf, p)

	idx, err := findOrAddMaterial(&d.materials, buf, p, end)
	if err != nil {
		return end, err
	}
	d.material = uint32(idx)

	return end, nil
}

func (d *objParser) parseMtllib(buf []byte, p int) (int, error) {
	p = skipWhitespace(buf, p)
	end := scanName(buf, p)

	path := fixSeparators(copyName(buf, p, end))
	if _, err := d.mtllibs.Push(path); err != nil {
		return end, err
	}

	return end, nil
}

// findOrAddMaterial returns the index of the material named buf[start:end],
// appending a default material if there is none.
func findOrAddMaterial(materials *dynarray.Array[Material], buf []byte, start, end int) (int, error) {
	for i, m := range materials.Slice() {
		if nameEqual(m.Name, buf, start, end) {
			return i, nil
		}
	}
	return materials.Push(DefaultMaterial(copyName(buf, start, end)))
}
