package octree

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/voxelforge/tracecore/vmath"
)

// setGetRoundTrip checks the core storage property: for any voxel region R,
// after setting every voxel in R to some raw value, reading it back returns
// that same value for every voxel.
func setGetRoundTrip(t *testing.T, o Octree) {
	t.Helper()
	size := o.Size()
	rng := rand.New(rand.NewSource(1))
	want := make(map[[3]int]uint32)
	for i := 0; i < 500; i++ {
		x, y, z := rng.Intn(size), rng.Intn(size), rng.Intn(size)
		raw := uint32(rng.Intn(64))
		if err := o.Set(raw, x, y, z); err != nil {
			t.Fatalf("Set(%d,%d,%d,%d): %v", raw, x, y, z, err)
		}
		want[[3]int{x, y, z}] = raw
	}
	for coord, raw := range want {
		got := o.Get(coord[0], coord[1], coord[2])
		if got != raw {
			t.Fatalf("Get%v = %d, want %d", coord, got, raw)
		}
	}
}

func TestPackedSetGetRoundTrip(t *testing.T) {
	setGetRoundTrip(t, NewPacked(4))
}

func TestNodeSetGetRoundTrip(t *testing.T) {
	setGetRoundTrip(t, NewNode(4))
}

func TestNodeSerializeDeserializeRoundTrip(t *testing.T) {
	o := NewNode(3)
	rng := rand.New(rand.NewSource(2))
	size := o.Size()
	for i := 0; i < 200; i++ {
		x, y, z := rng.Intn(size), rng.Intn(size), rng.Intn(size)
		raw := uint32(rng.Intn(8))
		if err := o.Set(raw, x, y, z); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	var buf bytes.Buffer
	if err := Serialize(o, &buf); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(&buf)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if got.Depth() != o.Depth() {
		t.Fatalf("Depth = %d, want %d", got.Depth(), o.Depth())
	}
	for z := 0; z < size; z++ {
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				want := o.Get(x, y, z)
				have := got.Get(x, y, z)
				if want != have {
					t.Fatalf("Get(%d,%d,%d) = %d, want %d", x, y, z, have, want)
				}
			}
		}
	}
}

func TestPackedTooBig(t *testing.T) {
	o := NewPacked(2)
	size := o.Size()
	var err error
	raw := uint32(0)
	for z := 0; z < size && err == nil; z++ {
		for y := 0; y < size && err == nil; y++ {
			for x := 0; x < size && err == nil; x++ {
				raw++
				err = o.Set(raw, x, y, z)
			}
		}
	}
	if err != nil {
		t.Fatalf("unexpected error filling a small octree: %v", err)
	}

	big := NewPacked(8) // 256^3 voxels, far more distinct ids than maxPackedIDs
	var sawErr bool
	id := uint32(0)
	for z := 0; z < big.Size() && !sawErr; z++ {
		for y := 0; y < big.Size() && !sawErr; y++ {
			for x := 0; x < big.Size() && !sawErr; x++ {
				id++
				if err := big.Set(id, x, y, z); err == ErrOctreeTooBig {
					sawErr = true
				}
			}
		}
	}
	if !sawErr {
		t.Fatal("expected ErrOctreeTooBig once distinct ids exceed maxPackedIDs")
	}
}

func TestEnterBlockFindsSolidVoxel(t *testing.T) {
	o := NewNode(4)
	if err := o.Set(1, 8, 8, 8); err != nil {
		t.Fatal(err)
	}
	ray := vmath.NewRay(vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, vmath.Vec3{Z: 1})
	hit, ok := o.EnterBlock(ray, func(raw uint32) bool { return raw == 0 })
	if !ok {
		t.Fatal("expected a hit")
	}
	if hit.Raw != 1 {
		t.Fatalf("Raw = %d, want 1", hit.Raw)
	}
	if hit.Distance < 12.9 || hit.Distance > 13.1 {
		t.Fatalf("Distance = %v, want ~13", hit.Distance)
	}
	if hit.Normal.Z != -1 {
		t.Fatalf("Normal = %v, want facing -Z", hit.Normal)
	}
}

func TestEnterBlockMissesEmptyOctree(t *testing.T) {
	o := NewPacked(4)
	ray := vmath.NewRay(vmath.Vec3{X: 8.5, Y: 8.5, Z: -5}, vmath.Vec3{Z: 1})
	if _, ok := o.EnterBlock(ray, func(raw uint32) bool { return raw == 0 }); ok {
		t.Fatal("expected no hit in an all-air octree")
	}
}
