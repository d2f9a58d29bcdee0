// Package gltfexport converts parsed OBJ meshes into glTF 2.0 documents.
package gltfexport

import (
	"errors"
	"fmt"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/wavefront/pkg/obj"
)

// ErrEmptyMesh is returned when a mesh has no faces to export.
var ErrEmptyMesh = errors.New("mesh has no faces")

// Options controls the conversion.
type Options struct {
	// KeepTexcoordV writes texture coordinates as stored in the OBJ file.
	// By default V is flipped, since OBJ puts the origin at the bottom left
	// and glTF at the top left.
	KeepTexcoordV bool
}

// Build converts m into a glTF document with one mesh and node per group
// and one triangle primitive per material used in that group.
func Build(m *obj.Mesh, opts Options) (*gltf.Document, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	if m.FaceCount() == 0 {
		return nil, ErrEmptyMesh
	}

	doc := gltf.NewDocument()
	b := &builder{doc: doc, src: m, opts: opts, images: make(map[string]int)}

	for i := range m.Materials {
		doc.Materials = append(doc.Materials, b.material(&m.Materials[i]))
	}

	groups := m.Groups
	if len(groups) == 0 {
		groups = []obj.Group{{FaceCount: uint32(m.FaceCount())}}
	}

	for i, g := range groups {
		gm := b.mesh(g)
		if len(gm.Primitives) == 0 {
			continue
		}
		if gm.Name == "" {
			gm.Name = fmt.Sprintf("group%d", i)
		}

		doc.Meshes = append(doc.Meshes, gm)
		doc.Nodes = append(doc.Nodes, &gltf.Node{
			Name: gm.Name,
			Mesh: gltf.Index(len(doc.Meshes) - 1),
		})
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, len(doc.Nodes)-1)
	}

	if len(doc.Meshes) == 0 {
		return nil, ErrEmptyMesh
	}
	return doc, nil
}

// WriteBinary encodes doc as a .glb stream.
func WriteBinary(doc *gltf.Document, w io.Writer) error {
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding glb: %w", err)
	}
	return nil
}

// SaveBinary writes doc to path as a .glb file.
func SaveBinary(doc *gltf.Document, path string) error {
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

type builder struct {
	doc    *gltf.Document
	src    *obj.Mesh
	opts   Options
	images map[string]int // texture name -> texture index
}

// primitive accumulates the deduplicated vertices of one material.
type primitive struct {
	material uint32
	vertices map[obj.Index]uint32
	order    []obj.Index
	indices  []uint32
	normals  bool
	texcoord bool
}

func (p *primitive) add(idx obj.Index) {
	v, ok := p.vertices[idx]
	if !ok {
		v = uint32(len(p.order))
		p.vertices[idx] = v
		p.order = append(p.order, idx)
		if idx.N != 0 {
			p.normals = true
		}
		if idx.T != 0 {
			p.texcoord = true
		}
	}
	p.indices = append(p.indices, v)
}

func (b *builder) mesh(g obj.Group) *gltf.Mesh {
	m := b.src
	out := &gltf.Mesh{Name: g.Name}

	var prims []*primitive
	byMaterial := make(map[uint32]*primitive)

	tris := m.TriangulateGroup(g)
	mats := m.TriangleMaterials(g.FaceOffset, g.FaceCount)
	for i, tri := range tris {
		p, ok := byMaterial[mats[i]]
		if !ok {
			p = &primitive{material: mats[i], vertices: make(map[obj.Index]uint32)}
			byMaterial[mats[i]] = p
			prims = append(prims, p)
		}
		for _, idx := range tri {
			p.add(idx)
		}
	}

	for _, p := range prims {
		out.Primitives = append(out.Primitives, b.primitive(p))
	}
	return out
}

func (b *builder) primitive(p *primitive) *gltf.Primitive {
	m := b.src

	positions := make([][3]float32, len(p.order))
	for i, idx := range p.order {
		positions[i] = m.Position(idx.P)
	}

	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(b.doc, positions),
	}

	if p.normals {
		normals := make([][3]float32, len(p.order))
		for i, idx := range p.order {
			normals[i] = m.Normal(idx.N)
		}
		attrs[gltf.NORMAL] = modeler.WriteNormal(b.doc, normals)
	}

	if p.texcoord {
		uvs := make([][2]float32, len(p.order))
		for i, idx := range p.order {
			uv := m.Texcoord(idx.T)
			if !b.opts.KeepTexcoordV {
				uv[1] = 1 - uv[1]
			}
			uvs[i] = uv
		}
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(b.doc, uvs)
	}

	prim := &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(modeler.WriteIndices(b.doc, p.indices)),
		Mode:       gltf.PrimitiveTriangles,
	}
	if len(m.Materials) > 0 {
		prim.Material = gltf.Index(int(p.material))
	}
	return prim
}

func (b *builder) material(mat *obj.Material) *gltf.Material {
	out := &gltf.Material{
		Name: mat.Name,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float64{float64(mat.Kd[0]), float64(mat.Kd[1]), float64(mat.Kd[2]), float64(mat.D)},
			MetallicFactor:  gltf.Float(0),
			RoughnessFactor: gltf.Float(roughness(mat.Ns)),
		},
		EmissiveFactor: [3]float64{float64(mat.Ke[0]), float64(mat.Ke[1]), float64(mat.Ke[2])},
		AlphaMode:      gltf.AlphaOpaque,
	}

	if mat.IsTransparent() {
		out.AlphaMode = gltf.AlphaBlend
	}
	if mat.MapKd.IsSet() {
		out.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: b.texture(mat.MapKd.Name)}
	}
	if mat.MapBump.IsSet() {
		out.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(b.texture(mat.MapBump.Name))}
	}
	return out
}

// texture returns the texture index for an image URI, adding it on first use.
func (b *builder) texture(name string) int {
	if i, ok := b.images[name]; ok {
		return i
	}

	b.doc.Images = append(b.doc.Images, &gltf.Image{Name: name, URI: name})
	b.doc.Textures = append(b.doc.Textures, &gltf.Texture{Source: gltf.Index(len(b.doc.Images) - 1)})

	i := len(b.doc.Textures) - 1
	b.images[name] = i
	return i
}

// roughness maps a Phong specular exponent (0..1000) onto PBR roughness.
func roughness(ns float32) float64 {
	if ns <= 0 {
		return 1
	}
	if ns >= 1000 {
		return 0
	}
	return 1 - float64(ns)/1000
}
