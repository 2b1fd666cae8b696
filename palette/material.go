package palette

import (
	"github.com/voxelforge/tracecore/core"
)

// Material is a PBR-lite surface description for the path tracer's
// Fresnel-blend shading model: one material carries enough to
// importance-sample diffuse, specular reflection and refraction lobes,
// rather than a rasterizer's fixed shading equation.
type Material struct {
	Name string

	// Albedo is the flat base color, used whenever Texture is nil or a UV
	// lookup misses.
	Albedo core.Color

	Opaque bool
	Water  bool
	Solid  bool

	Emittance float32 // radiance emitted by the surface (watts/sr-equivalent, unitless here)
	Specular  float32 // 0 = fully diffuse lobe, 1 = fully specular/mirror lobe
	Roughness float32 // microfacet roughness for the specular lobe
	IOR       float32 // index of refraction, used when the material transmits light

	Texture *Texture // optional per-texel albedo; nil means flat Albedo

	// Water/lava voxels additionally carry a level and four corner heights,
	// bit-packed into the octree leaf's data bits rather than stored here —
	// see EncodeWaterData/DecodeWaterData. This flag alone marks the
	// material as needing that decode.
	IsWaterLike bool
}

// AirID and WaterID are reserved palette slots; every Palette guarantees
// they exist at these fixed indices regardless of scene-specific materials.
const (
	AirID   = 0
	WaterID = 1
)

// DefaultMaterial returns a plain white matte dielectric.
func DefaultMaterial() *Material {
	return &Material{
		Name:      "default",
		Albedo:    core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1},
		Opaque:    true,
		Solid:     true,
		Roughness: 0.8,
		Specular:  0.04,
		IOR:       1.0,
	}
}

func AirMaterial() *Material {
	return &Material{Name: "air", Albedo: core.Color{}, Opaque: false, Solid: false}
}

func WaterMaterial() *Material {
	return &Material{
		Name:        "water",
		Albedo:      core.Color{R: 0.2, G: 0.35, B: 0.5, A: 0.6},
		Opaque:      false,
		Water:       true,
		Solid:       false,
		Roughness:   0.02,
		Specular:    0.2,
		IOR:         1.33,
		IsWaterLike: true,
	}
}

func LavaMaterial() *Material {
	return &Material{
		Name:        "lava",
		Albedo:      core.Color{R: 0.9, G: 0.35, B: 0.05, A: 1},
		Opaque:      true,
		Solid:       true,
		Emittance:   4.0,
		Roughness:   0.6,
		IsWaterLike: true,
	}
}

func EmissiveMaterial(name string, c core.Color, emittance float32) *Material {
	return &Material{
		Name:      name,
		Albedo:    c,
		Opaque:    true,
		Solid:     true,
		Emittance: emittance,
		Roughness: 1,
	}
}

func GlassMaterial() *Material {
	return &Material{
		Name:      "glass",
		Albedo:    core.Color{R: 0.95, G: 0.97, B: 1, A: 0.1},
		Opaque:    false,
		Solid:     true,
		Roughness: 0.01,
		Specular:  1,
		IOR:       1.52,
	}
}

// Clone deep-copies a material; the texture pointer is shared rather than
// deep-copied, since textures are immutable once loaded.
func (m *Material) Clone(newName string) *Material {
	clone := *m
	clone.Name = newName
	return &clone
}

// --- water/lava level + corner-height bit packing ---------------------------

// EncodeWaterData packs a 4-bit level (0 = source, 7 = minimum) and four
// 3-bit corner heights into a 16-bit data word stored above a voxel's
// block-id bits in the octree leaf's raw u32 type.
func EncodeWaterData(level uint8, corners [4]uint8) uint32 {
	level &= 0xF
	data := uint32(level)
	for i, c := range corners {
		data |= uint32(c&0x7) << uint(4+3*i)
	}
	return data
}

// DecodeWaterData is the inverse of EncodeWaterData.
func DecodeWaterData(data uint32) (level uint8, corners [4]uint8) {
	level = uint8(data & 0xF)
	for i := range corners {
		corners[i] = uint8((data >> uint(4+3*i)) & 0x7)
	}
	return
}
