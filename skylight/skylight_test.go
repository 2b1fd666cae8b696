package skylight

import "testing"

func TestSkySampleBlendsByElevation(t *testing.T) {
	sky := Default()
	zenith := sky.Sample(1)
	if zenith != sky.Zenith {
		t.Fatalf("Sample(1) = %v, want Zenith %v", zenith, sky.Zenith)
	}
	ground := sky.Sample(-1)
	if ground != sky.Ground {
		t.Fatalf("Sample(-1) = %v, want Ground %v", ground, sky.Ground)
	}
}

func TestSunRadianceScalesColor(t *testing.T) {
	sun := DefaultSun()
	r := sun.Radiance()
	want := sun.Color.R * sun.Intensity
	if r.R != want {
		t.Fatalf("Radiance().R = %v, want %v", r.R, want)
	}
}

func TestSunSampleDirectionStaysNearCenter(t *testing.T) {
	sun := DefaultSun()
	d := sun.SampleDirection(0.5, 0.5)
	cos := d.Dot(sun.Direction)
	if cos < 0.9 {
		t.Fatalf("sampled direction too far from center: cos=%v", cos)
	}
}

func TestEmitterGridSampleWeightedBySingleCell(t *testing.T) {
	g := NewEmitterGrid(16, 4)
	g.Accumulate(5, 5, 5, 10)
	g.Finalize()
	if g.Empty() {
		t.Fatal("grid should not be empty after Accumulate")
	}
	pos, pdf, ok := g.Sample(0.5, 0.5, 0.5)
	if !ok {
		t.Fatal("expected a sample")
	}
	if pdf != 1 {
		t.Fatalf("pdf = %v, want 1 (only one emitting cell)", pdf)
	}
	if pos.X < 4 || pos.X >= 8 {
		t.Fatalf("sampled position %v outside the accumulated cell", pos)
	}
}

func TestEmitterGridEmptyWithNoAccumulation(t *testing.T) {
	g := NewEmitterGrid(16, 4)
	g.Finalize()
	if !g.Empty() {
		t.Fatal("expected an empty grid")
	}
	if _, _, ok := g.Sample(0.1, 0.2, 0.3); ok {
		t.Fatal("expected Sample to fail on an empty grid")
	}
}
