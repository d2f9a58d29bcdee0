package obj

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/multierr"
)

// Mesh is the result of parsing one OBJ buffer.
//
// Positions, Texcoords and Normals are flat float arrays whose first entry is
// a sentinel, so the 1-based indices in Indices address them directly.
type Mesh struct {
	Positions []float32 // 3 per position
	Texcoords []float32 // 2 per texcoord
	Normals   []float32 // 3 per normal

	// One element per face
	FaceVertices  []uint32
	FaceMaterials []uint32

	// One element per face vertex
	Indices []Index

	Materials []Material
	Groups    []Group
	MtlLibs   []string

	destroyed bool
}

// PositionCount returns the number of positions, including the sentinel.
func (m *Mesh) PositionCount() int { return len(m.Positions) / 3 }

// TexcoordCount returns the number of texcoords, including the sentinel.
func (m *Mesh) TexcoordCount() int { return len(m.Texcoords) / 2 }

// NormalCount returns the number of normals, including the sentinel.
func (m *Mesh) NormalCount() int { return len(m.Normals) / 3 }

// FaceCount returns the number of faces.
func (m *Mesh) FaceCount() int { return len(m.FaceVertices) }

// MaterialCount returns the number of materials.
func (m *Mesh) MaterialCount() int { return len(m.Materials) }

// GroupCount returns the number of non-empty groups.
func (m *Mesh) GroupCount() int { return len(m.Groups) }

// Position returns position i.
func (m *Mesh) Position(i uint32) [3]float32 {
	p := m.Positions[3*i:]
	return [3]float32{p[0], p[1], p[2]}
}

// Texcoord returns texcoord i.
func (m *Mesh) Texcoord(i uint32) [2]float32 {
	t := m.Texcoords[2*i:]
	return [2]float32{t[0], t[1]}
}

// Normal returns normal i.
func (m *Mesh) Normal(i uint32) [3]float32 {
	n := m.Normals[3*i:]
	return [3]float32{n[0], n[1], n[2]}
}

// FindMaterial returns the material with the given name, or nil.
func (m *Mesh) FindMaterial(name string) *Material {
	for i := range m.Materials {
		if m.Materials[i].Name == name {
			return &m.Materials[i]
		}
	}
	return nil
}

// Destroy releases all memory owned by the mesh.
// The mesh must not be used afterwards.
func (m *Mesh) Destroy() {
	if m == nil {
		return
	}
	for i := range m.Materials {
		m.Materials[i] = Material{}
	}
	for i := range m.Groups {
		m.Groups[i] = Group{}
	}
	for i := range m.MtlLibs {
		m.MtlLibs[i] = ""
	}
	*m = Mesh{destroyed: true}
}

// Destroyed reports whether Destroy has been called.
func (m *Mesh) Destroyed() bool {
	return m.destroyed
}

// Validate checks the structural invariants of the mesh and reports every
// violation found.
func (m *Mesh) Validate() error {
	if m == nil {
		return ErrNilMesh
	}

	var errs error
	fail := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: %s", ErrInvalidMesh, fmt.Sprintf(format, args...)))
	}

	if m.PositionCount() == 0 || m.TexcoordCount() == 0 || m.NormalCount() == 0 {
		fail("missing sentinel attributes")
	}
	if len(m.FaceVertices) != len(m.FaceMaterials) {
		fail("%d face vertex counts but %d face materials", len(m.FaceVertices), len(m.FaceMaterials))
	}

	var total uint64
	for _, n := range m.FaceVertices {
		total += uint64(n)
	}
	if total != uint64(len(m.Indices)) {
		fail("faces reference %d vertices but there are %d indices", total, len(m.Indices))
	}

	positions := uint32(m.PositionCount())
	texcoords := uint32(m.TexcoordCount())
	normals := uint32(m.NormalCount())
	for i, idx := range m.Indices {
		switch {
		case idx.P == 0:
			fail("index %d: position references the sentinel slot", i)
		case idx.P >= positions:
			fail("index %d: position %d out of range [1,%d)", i, idx.P, positions)
		}
		if idx.T >= texcoords {
			fail("index %d: texcoord %d out of range [0,%d)", i, idx.T, texcoords)
		}
		if idx.N >= normals {
			fail("index %d: normal %d out of range [0,%d)", i, idx.N, normals)
		}
	}

	if len(m.Materials) > 0 {
		for i, mat := range m.FaceMaterials {
			if int(mat) >= len(m.Materials) {
				fail("face %d: material %d out of range [0,%d)", i, mat, len(m.Materials))
			}
		}
	}

	var faceEnd, indexEnd uint32
	for i, g := range m.Groups {
		if g.FaceCount == 0 {
			fail("group %d (%q) has no faces", i, g.Name)
		}
		if g.FaceOffset < faceEnd || g.IndexOffset < indexEnd {
			fail("group %d (%q) overlaps the previous group", i, g.Name)
		}
		if int(g.FaceOffset)+int(g.FaceCount) > len(m.FaceVertices) {
			fail("group %d (%q) faces exceed face count", i, g.Name)
			continue
		}
		faceEnd = g.FaceOffset + g.FaceCount
		indexEnd = g.IndexOffset + m.groupIndexCount(g)
		if int(indexEnd) > len(m.Indices) {
			fail("group %d (%q) indices exceed index count", i, g.Name)
		}
	}

	return errs
}

// groupIndexCount returns the number of face vertices in g.
func (m *Mesh) groupIndexCount(g Group) uint32 {
	var n uint32
	for _, c := range m.FaceVertices[g.FaceOffset : g.FaceOffset+g.FaceCount] {
		n += c
	}
	return n
}

// Bounds returns the axis-aligned bounding box of all parsed positions,
// excluding the sentinel. Both corners are zero for a mesh without positions.
func (m *Mesh) Bounds() (min, max mgl32.Vec3) {
	count := m.PositionCount()
	if count < 2 {
		return min, max
	}

	min = mgl32.Vec3(m.Position(1))
	max = min
	for i := 2; i < count; i++ {
		p := mgl32.Vec3(m.Position(uint32(i)))
		for k := 0; k < 3; k++ {
			if p[k] < min[k] {
				min[k] = p[k]
			}
			if p[k] > max[k] {
				max[k] = p[k]
			}
		}
	}
	return min, max
}
