// Package skylight models the sun, sky, and fog for a single fixed lighting
// state: a zenith/horizon/ground gradient sky, fog color and density, and a
// directional sun with a small angular disk. There is no day/night cycle or
// time-of-day animation; a scene picks one Sky/Sun pair at load time and it
// never changes for the life of the render.
package skylight

import "github.com/voxelforge/tracecore/core"

// Sky is a 3-band gradient sky (zenith overhead, horizon at eye level,
// ground below it) plus the fog that blends into rays which miss the scene.
type Sky struct {
	Zenith  core.Color
	Horizon core.Color
	Ground  core.Color

	FogColor      core.Color
	FogDensity    float32 // 1/world-units; 0 disables volumetric fog entirely
	SkyFogDensity float32 // blends FogColor into missed-ray sky samples by height

	Ambient core.Color // flat ambient term added regardless of sky direction
}

// Default returns a reasonable bright-midday sky for scenes that don't
// specify their own.
func Default() Sky {
	return Sky{
		Zenith:        core.Color{R: 0.20, G: 0.42, B: 0.90, A: 1},
		Horizon:       core.Color{R: 0.58, G: 0.75, B: 0.95, A: 1},
		Ground:        core.Color{R: 0.12, G: 0.10, B: 0.08, A: 1},
		FogColor:      core.Color{R: 0.62, G: 0.78, B: 0.95, A: 1},
		FogDensity:    0.011,
		SkyFogDensity: 0.011,
		Ambient:       core.Color{R: 0.16, G: 0.18, B: 0.26, A: 1},
	}
}

// Sample returns the sky radiance for a normalized direction whose Y
// component is dirY (> 0 toward the zenith, < 0 toward the ground), linearly blending
// zenith/horizon or horizon/ground by the direction's elevation.
func (s Sky) Sample(dirY float32) core.Color {
	if dirY >= 0 {
		t := clamp01(dirY)
		return lerpColor(s.Horizon, s.Zenith, t)
	}
	t := clamp01(-dirY)
	return lerpColor(s.Horizon, s.Ground, t)
}

// SampleWithFog blends Sample's result toward FogColor as a function of the
// ray's downward-ness: mix(skyRadiance, fogColor, skyFogDensity *
// (1 - max(0, d.y))).
func (s Sky) SampleWithFog(dirY float32) core.Color {
	sky := s.Sample(dirY)
	mix := clamp01(s.SkyFogDensity * (1 - maxF(0, dirY)))
	return lerpColor(sky, s.FogColor, mix)
}

func lerpColor(a, b core.Color, t float32) core.Color {
	return core.Color{
		R: a.R*(1-t) + b.R*t,
		G: a.G*(1-t) + b.G*t,
		B: a.B*(1-t) + b.B*t,
		A: a.A*(1-t) + b.A*t,
	}
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func maxF(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
