package camera

import (
	"math"

	"github.com/voxelforge/tracecore/vmath"
)

// Orbit is a camera rig that keeps Position/Rotation derived from spherical
// coordinates around Target, letting scene-description tooling place a
// camera from a distance/yaw/pitch triple instead of a raw position and
// rotation.
type Orbit struct {
	Camera
	Target   vmath.Vec3
	Distance float32
	Yaw      float32
	Pitch    float32
}

func NewOrbit(target vmath.Vec3, distance, fov, aspectRatio float32) *Orbit {
	o := &Orbit{Target: target, Distance: distance, Pitch: 0.3}
	o.Camera = *New(fov, aspectRatio)
	o.update()
	return o
}

func (o *Orbit) update() {
	if o.Pitch > 1.5 {
		o.Pitch = 1.5
	}
	if o.Pitch < -1.5 {
		o.Pitch = -1.5
	}
	cosPitch := float32(math.Cos(float64(o.Pitch)))
	sinPitch := float32(math.Sin(float64(o.Pitch)))
	cosYaw := float32(math.Cos(float64(o.Yaw)))
	sinYaw := float32(math.Sin(float64(o.Yaw)))

	offset := vmath.Vec3{
		X: o.Distance * cosPitch * sinYaw,
		Y: o.Distance * sinPitch,
		Z: o.Distance * cosPitch * cosYaw,
	}
	o.Position = o.Target.Add(offset)
	o.LookAt(o.Target, vmath.Vec3Up)
}

func (o *Orbit) Rotate(deltaYaw, deltaPitch float32) {
	o.Yaw += deltaYaw
	o.Pitch += deltaPitch
	o.update()
}

func (o *Orbit) Zoom(delta float32) {
	o.Distance += delta
	if o.Distance < 0.1 {
		o.Distance = 0.1
	}
	o.update()
}
