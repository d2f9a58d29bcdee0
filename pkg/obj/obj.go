// Package obj provides parsers for Wavefront OBJ geometry and MTL material libraries.
//
// Both grammars are read from an in-memory buffer that must end in a newline.
// The parser performs no I/O; fetching files and referenced material libraries
// is left to the caller.
package obj

import (
	"errors"

	"github.com/Faultbox/wavefront/internal/dynarray"
)

// Parser errors.
var (
	ErrMissingNewline    = errors.New("buffer does not end in a newline")
	ErrNoCurrentMaterial = errors.New("property directive before newmtl")
	ErrInvalidMesh       = errors.New("invalid mesh")
	ErrNilMesh           = errors.New("nil mesh")

	// ErrOutOfMemory is returned when a collection exceeds Options.MaxElements.
	ErrOutOfMemory = dynarray.ErrOutOfMemory
)

// Index references one face vertex. T and N are 0 when absent.
type Index struct {
	P uint32
	T uint32
	N uint32
}

// Group is a contiguous run of faces.
type Group struct {
	Name        string // empty for the implicit group
	FaceCount   uint32
	FaceOffset  uint32 // first face in the FaceVertices/FaceMaterials arrays
	IndexOffset uint32 // first entry in the Indices array
}

// Texture is a texture map reference from an MTL file.
// The name is kept as written; an empty name means no map.
type Texture struct {
	Name string
}

// IsSet reports whether the material defines this map.
func (t Texture) IsSet() bool {
	return t.Name != ""
}

// IllumModel is the MTL illumination model number.
type IllumModel int

// Common illumination models.
const (
	IllumColor             IllumModel = 0 // Color on, ambient off
	IllumAmbient           IllumModel = 1 // Color on, ambient on
	IllumHighlight         IllumModel = 2 // Highlight on
	IllumReflection        IllumModel = 3 // Reflection on, ray trace on
	IllumGlass             IllumModel = 4 // Transparency: glass on
	IllumFresnel           IllumModel = 5 // Reflection: fresnel on
	IllumRefraction        IllumModel = 6 // Transparency: refraction on
	IllumRefractionFresnel IllumModel = 7 // Transparency: refraction and fresnel on
)

// Material holds the shading parameters of one MTL material.
type Material struct {
	Name string

	Ka [3]float32 // Ambient
	Kd [3]float32 // Diffuse
	Ks [3]float32 // Specular
	Ke [3]float32 // Emission
	Kt [3]float32 // Transmittance
	Ns float32    // Shininess
	Ni float32    // Index of refraction
	Tf [3]float32 // Transmission filter
	D  float32    // Dissolve (alpha)

	Illum IllumModel

	MapKa   Texture
	MapKd   Texture
	MapKs   Texture
	MapKe   Texture
	MapKt   Texture
	MapNs   Texture
	MapNi   Texture
	MapD    Texture
	MapBump Texture
}

// DefaultMaterial returns a material with the MTL default parameters.
func DefaultMaterial(name string) Material {
	return Material{
		Name:  name,
		Kd:    [3]float32{1, 1, 1},
		Ns:    1,
		Ni:    1,
		Tf:    [3]float32{1, 1, 1},
		D:     1,
		Illum: IllumAmbient,
	}
}

// Textures returns the material's texture slots keyed by MTL directive.
func (m *Material) Textures() map[string]*Texture {
	return map[string]*Texture{
		"map_Ka":   &m.MapKa,
		"map_Kd":   &m.MapKd,
		"map_Ks":   &m.MapKs,
		"map_Ke":   &m.MapKe,
		"map_Kt":   &m.MapKt,
		"map_Ns":   &m.MapNs,
		"map_Ni":   &m.MapNi,
		"map_d":    &m.MapD,
		"map_Bump": &m.MapBump,
	}
}

// IsTransparent reports whether the material is not fully opaque.
func (m *Material) IsTransparent() bool {
	return m.D < 1 || m.MapD.IsSet()
}

// Options control parsing.
type Options struct {
	// MaxElements caps every collection the parser builds; exceeding it
	// fails the parse with ErrOutOfMemory. 0 means no limit.
	MaxElements int

	// ObjectsAsGroups treats "o" directives like "g".
	ObjectsAsGroups bool
}
