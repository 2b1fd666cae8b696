// Package sceneio round-trips a scene's `<name>.json` description — canvas
// size, camera, sun, sky, chunk list, material overrides, format version,
// output mode — plus its two gzipped side files, `<name>.octree2`
// (solid+water octrees + palette, see world.go) and `<name>.emittergrid`
// (see emitters.go).
//
// The JSON shape is one struct field per line, every fallible operation
// wrapped with fmt.Errorf("...: %w", err), mirroring the rest of the
// module's persistence code. There is no Objects/Lights tree the way a
// rasterizer's scene file would have one; instead a chunk list, sun/sky
// models, and material overrides that index into the palette the
// `.octree2` side file carries.
package sceneio

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/voxelforge/tracecore/camera"
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/palette"
	"github.com/voxelforge/tracecore/scene"
	"github.com/voxelforge/tracecore/skylight"
	"github.com/voxelforge/tracecore/vmath"
)

// sdfVersion is the on-disk scene-description format version.
const sdfVersion = 9

// OutputMode selects the image format a render's snapshot dispatch writes
// alongside the PNG.
type OutputMode string

const (
	OutputPNG    OutputMode = "PNG"
	OutputTIFF32 OutputMode = "TIFF_32"
	OutputPFM    OutputMode = "PFM"
)

// Description is the top-level `<name>.json` structure.
type Description struct {
	SDFVersion int    `json:"sdf_version"`
	Name       string `json:"name"`

	Width  int `json:"width"`
	Height int `json:"height"`

	OutputMode OutputMode `json:"output_mode"`

	Camera CameraData `json:"camera"`
	Sun    SunData    `json:"sun"`
	Sky    SkyData    `json:"sky"`

	Chunks            []ChunkRef         `json:"chunks,omitempty"`
	MaterialOverrides []MaterialOverride `json:"material_overrides,omitempty"`
}

// CameraData mirrors camera.Camera's position/orientation/fov, storing
// orientation as the quaternion the Camera actually carries rather than an
// orbit-camera's distance/yaw/pitch triple.
type CameraData struct {
	Position       [3]float32 `json:"position"`
	Rotation       [4]float32 `json:"rotation"` // quaternion (x, y, z, w)
	FOV            float32    `json:"fov"`
	Projection     string     `json:"projection"` // "pinhole", "fisheye", "panoramic", "stereoscopic"
	ApertureRadius float32    `json:"aperture_radius,omitempty"`
	FocusDistance  float32    `json:"focus_distance,omitempty"`
	EyeSeparation  float32    `json:"eye_separation,omitempty"`
}

// SunData mirrors skylight.Sun.
type SunData struct {
	Direction     [3]float32 `json:"direction"`
	Color         [4]float32 `json:"color"`
	Intensity     float32    `json:"intensity"`
	AngularRadius float32    `json:"angular_radius"`
}

// SkyData mirrors skylight.Sky.
type SkyData struct {
	Zenith        [4]float32 `json:"zenith"`
	Horizon       [4]float32 `json:"horizon"`
	Ground        [4]float32 `json:"ground"`
	FogColor      [4]float32 `json:"fog_color"`
	FogDensity    float32    `json:"fog_density"`
	SkyFogDensity float32    `json:"sky_fog_density"`
	Ambient       [4]float32 `json:"ambient"`
}

// ChunkRef names a chunk's position in the scene's octree. It is a plain
// value type, never interned or used as a map key — chunk positions don't
// need identity, only their X/Z coordinates. Turning a ChunkRef into actual
// voxel data is a world-file loader's job, outside this package; ChunkRef
// is only a record of which regions the `.octree2` side file covers.
type ChunkRef struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// MaterialOverride replaces or adds one palette.Material by name, applied
// on load after the `.octree2` palette so a scene description can retint
// materials without re-baking the octree.
type MaterialOverride struct {
	Name        string     `json:"name"`
	Albedo      [4]float32 `json:"albedo"`
	Emittance   float32    `json:"emittance,omitempty"`
	Specular    float32    `json:"specular,omitempty"`
	Roughness   float32    `json:"roughness,omitempty"`
	IOR         float32    `json:"ior,omitempty"`
	Opaque      bool       `json:"opaque,omitempty"`
	Water       bool       `json:"water,omitempty"`
	Solid       bool       `json:"solid,omitempty"`
	IsWaterLike bool       `json:"is_water_like,omitempty"`
}

// Save serializes desc to a `<name>.json` file.
func Save(path string, desc *Description) error {
	data, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return fmt.Errorf("sceneio: marshal scene description: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Load deserializes a `<name>.json` file.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("sceneio: read scene description %s: %w", path, err)
	}
	desc := &Description{}
	if err := json.Unmarshal(data, desc); err != nil {
		return nil, fmt.Errorf("sceneio: parse scene description %s: %w", path, err)
	}
	return desc, nil
}

// Default returns a new scene description with sensible defaults.
func Default(name string, width, height int) *Description {
	cam := camera.New(1.0472, float32(width)/float32(height))
	sun := skylight.DefaultSun()
	sky := skylight.Default()
	return &Description{
		SDFVersion: sdfVersion,
		Name:       name,
		Width:      width,
		Height:     height,
		OutputMode: OutputPNG,
		Camera:     cameraToData(cam),
		Sun:        sunToData(sun),
		Sky:        skyToData(sky),
	}
}

// Apply sets a Scene's camera, sun and sky from desc and applies every
// material override, requesting the appropriate resets on s exactly as if
// each field had been set individually through s's own setters.
func Apply(desc *Description, s *scene.Scene) {
	s.SetCamera(cameraFromData(desc.Camera, s.Camera.AspectRatio))
	s.SetSun(sunFromData(desc.Sun))
	s.SetSky(skyFromData(desc.Sky))
	for _, mo := range desc.MaterialOverrides {
		s.OverrideMaterial(materialFromOverride(mo))
	}
}

// Capture copies a Scene's current camera/sun/sky into desc, for saving the
// scene description back out after in-session edits (e.g. a moved camera).
func Capture(desc *Description, s *scene.Scene) {
	s.RLock()
	defer s.RUnlock()
	desc.Camera = cameraToData(s.Camera)
	desc.Sun = sunToData(s.Sun)
	desc.Sky = skyToData(s.Sky)
}

func cameraToData(c *camera.Camera) CameraData {
	return CameraData{
		Position:       [3]float32{c.Position.X, c.Position.Y, c.Position.Z},
		Rotation:       [4]float32{c.Rotation.X, c.Rotation.Y, c.Rotation.Z, c.Rotation.W},
		FOV:            c.FOV,
		Projection:     projectionToString(c.Projection),
		ApertureRadius: c.ApertureRadius,
		FocusDistance:  c.FocusDistance,
		EyeSeparation:  c.EyeSeparation,
	}
}

func cameraFromData(d CameraData, aspectRatio float32) *camera.Camera {
	c := camera.New(d.FOV, aspectRatio)
	c.Position = vmath.Vec3{X: d.Position[0], Y: d.Position[1], Z: d.Position[2]}
	c.Rotation = vmath.Quaternion{X: d.Rotation[0], Y: d.Rotation[1], Z: d.Rotation[2], W: d.Rotation[3]}
	c.Projection = projectionFromString(d.Projection)
	c.ApertureRadius = d.ApertureRadius
	c.FocusDistance = d.FocusDistance
	c.EyeSeparation = d.EyeSeparation
	return c
}

func projectionToString(p camera.ProjectionKind) string {
	switch p {
	case camera.Fisheye:
		return "fisheye"
	case camera.Panoramic:
		return "panoramic"
	case camera.Stereoscopic:
		return "stereoscopic"
	default:
		return "pinhole"
	}
}

func projectionFromString(s string) camera.ProjectionKind {
	switch s {
	case "fisheye":
		return camera.Fisheye
	case "panoramic":
		return camera.Panoramic
	case "stereoscopic":
		return camera.Stereoscopic
	default:
		return camera.Pinhole
	}
}

func sunToData(s skylight.Sun) SunData {
	return SunData{
		Direction:     [3]float32{s.Direction.X, s.Direction.Y, s.Direction.Z},
		Color:         [4]float32{s.Color.R, s.Color.G, s.Color.B, s.Color.A},
		Intensity:     s.Intensity,
		AngularRadius: s.AngularRadius,
	}
}

func sunFromData(d SunData) skylight.Sun {
	return skylight.Sun{
		Direction:     vmath.Vec3{X: d.Direction[0], Y: d.Direction[1], Z: d.Direction[2]}.Normalize(),
		Color:         core.Color{R: d.Color[0], G: d.Color[1], B: d.Color[2], A: d.Color[3]},
		Intensity:     d.Intensity,
		AngularRadius: d.AngularRadius,
	}
}

func skyToData(s skylight.Sky) SkyData {
	return SkyData{
		Zenith:        [4]float32{s.Zenith.R, s.Zenith.G, s.Zenith.B, s.Zenith.A},
		Horizon:       [4]float32{s.Horizon.R, s.Horizon.G, s.Horizon.B, s.Horizon.A},
		Ground:        [4]float32{s.Ground.R, s.Ground.G, s.Ground.B, s.Ground.A},
		FogColor:      [4]float32{s.FogColor.R, s.FogColor.G, s.FogColor.B, s.FogColor.A},
		FogDensity:    s.FogDensity,
		SkyFogDensity: s.SkyFogDensity,
		Ambient:       [4]float32{s.Ambient.R, s.Ambient.G, s.Ambient.B, s.Ambient.A},
	}
}

func skyFromData(d SkyData) skylight.Sky {
	return skylight.Sky{
		Zenith:        core.Color{R: d.Zenith[0], G: d.Zenith[1], B: d.Zenith[2], A: d.Zenith[3]},
		Horizon:       core.Color{R: d.Horizon[0], G: d.Horizon[1], B: d.Horizon[2], A: d.Horizon[3]},
		Ground:        core.Color{R: d.Ground[0], G: d.Ground[1], B: d.Ground[2], A: d.Ground[3]},
		FogColor:      core.Color{R: d.FogColor[0], G: d.FogColor[1], B: d.FogColor[2], A: d.FogColor[3]},
		FogDensity:    d.FogDensity,
		SkyFogDensity: d.SkyFogDensity,
		Ambient:       core.Color{R: d.Ambient[0], G: d.Ambient[1], B: d.Ambient[2], A: d.Ambient[3]},
	}
}

func materialFromOverride(mo MaterialOverride) *palette.Material {
	return &palette.Material{
		Name:        mo.Name,
		Albedo:      core.Color{R: mo.Albedo[0], G: mo.Albedo[1], B: mo.Albedo[2], A: mo.Albedo[3]},
		Opaque:      mo.Opaque,
		Water:       mo.Water,
		Solid:       mo.Solid,
		Emittance:   mo.Emittance,
		Specular:    mo.Specular,
		Roughness:   mo.Roughness,
		IOR:         mo.IOR,
		IsWaterLike: mo.IsWaterLike,
	}
}
