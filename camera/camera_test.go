package camera

import (
	"math"
	"testing"

	"github.com/voxelforge/tracecore/vmath"
)

func TestPinholeCenterRayMatchesForward(t *testing.T) {
	c := New(math.Pi/2, 1)
	c.LookAt(vmath.Vec3{Z: 1}, vmath.Vec3Up)
	ray := c.ViewRay(0, 0, 0, 0)
	fwd := c.Forward()
	if cos := ray.Dir.Dot(fwd); cos < 0.999 {
		t.Fatalf("center ray direction %v should match forward %v (cos=%v)", ray.Dir, fwd, cos)
	}
}

func TestPinholeOffCenterRayDiverges(t *testing.T) {
	c := New(math.Pi/2, 1)
	center := c.ViewRay(0, 0, 0, 0)
	corner := c.ViewRay(1, 1, 0, 0)
	if center.Dir == corner.Dir {
		t.Fatal("corner ray should differ from center ray")
	}
}

func TestPanoramicWrapsFullCircle(t *testing.T) {
	c := New(math.Pi/2, 1)
	c.Projection = Panoramic
	left := c.ViewRay(-1, 0, 0, 0)
	right := c.ViewRay(1, 0, 0, 0)
	if left.Dir.Sub(right.Dir).LengthSqr() > 1e-4 {
		t.Fatalf("u=-1 and u=1 should map to (nearly) the same direction in a panoramic projection: %v vs %v", left.Dir, right.Dir)
	}
}

func TestThinLensJitterStaysNearPinhole(t *testing.T) {
	c := New(math.Pi/2, 1)
	c.ApertureRadius = 0.05
	c.FocusDistance = 10
	ray := c.ViewRay(0, 0, 0.5, 0.5)
	if ray.Origin.LengthSqr() > 1 {
		t.Fatalf("jittered origin should stay close to camera position, got %v", ray.Origin)
	}
}

func TestOrbitCameraFacesTarget(t *testing.T) {
	o := NewOrbit(vmath.Vec3{}, 10, math.Pi/2, 1)
	toTarget := o.Target.Sub(o.Position).Normalize()
	if cos := o.Forward().Dot(toTarget); cos < 0.99 {
		t.Fatalf("orbit camera should face its target, cos=%v", cos)
	}
}
