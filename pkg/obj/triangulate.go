package obj

// Triangle is one triangle of face vertex references.
type Triangle [3]Index

// Triangulate fan-triangulates faceCount faces starting at faceOffset.
// Faces with fewer than three vertices produce no triangles.
func (m *Mesh) Triangulate(faceOffset, faceCount uint32) []Triangle {
	index := 0
	for _, n := range m.FaceVertices[:faceOffset] {
		index += int(n)
	}

	var tris []Triangle
	for _, n := range m.FaceVertices[faceOffset : faceOffset+faceCount] {
		face := m.Indices[index : index+int(n)]
		for i := 1; i+1 < len(face); i++ {
			tris = append(tris, Triangle{face[0], face[i], face[i+1]})
		}
		index += int(n)
	}
	return tris
}

// TriangulateGroup fan-triangulates the faces of g.
func (m *Mesh) TriangulateGroup(g Group) []Triangle {
	return m.Triangulate(g.FaceOffset, g.FaceCount)
}

// TriangleMaterials returns the material of each triangle Triangulate
// produces for the same face range.
func (m *Mesh) TriangleMaterials(faceOffset, faceCount uint32) []uint32 {
	var mats []uint32
	for f := faceOffset; f < faceOffset+faceCount; f++ {
		for n := m.FaceVertices[f]; n >= 3; n-- {
			mats = append(mats, m.FaceMaterials[f])
		}
	}
	return mats
}
