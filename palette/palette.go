package palette

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math/bits"
)

// Palette is an indexed collection of materials — the octree stores small
// integer ids rather than full Material values. AirID and WaterID are
// always present at their reserved indices.
type Palette struct {
	materials []*Material
	byName    map[string]int
}

func New() *Palette {
	p := &Palette{byName: make(map[string]int)}
	p.materials = append(p.materials, AirMaterial())
	p.materials = append(p.materials, WaterMaterial())
	p.byName["air"] = AirID
	p.byName["water"] = WaterID
	return p
}

// Add appends a material and returns its block id. Re-adding a name already
// present replaces the existing entry in place instead of growing the
// palette, so material overrides (scene description "material overrides")
// don't shift ids out from under a loaded octree.
func (p *Palette) Add(m *Material) int {
	if id, ok := p.byName[m.Name]; ok {
		p.materials[id] = m
		return id
	}
	id := len(p.materials)
	p.materials = append(p.materials, m)
	p.byName[m.Name] = id
	return id
}

func (p *Palette) Get(id int) *Material {
	if id < 0 || id >= len(p.materials) {
		return p.materials[AirID]
	}
	return p.materials[id]
}

func (p *Palette) Len() int { return len(p.materials) }

// BlockIDBits is the number of low bits of an octree leaf's raw u32 type
// needed to address every material in the palette. The remaining high bits
// carry water/lava level + corner-height data.
func (p *Palette) BlockIDBits() uint {
	n := len(p.materials)
	if n <= 1 {
		return 1
	}
	b := bits.Len(uint(n - 1))
	if b < 1 {
		b = 1
	}
	return uint(b)
}

// Encode packs a block id and an auxiliary data word into one octree leaf
// type value.
func (p *Palette) Encode(id int, data uint32) uint32 {
	return uint32(id) | (data << p.BlockIDBits())
}

// Decode splits a raw octree leaf type back into its block id and data
// word.
func (p *Palette) Decode(raw uint32) (id int, data uint32) {
	bits := p.BlockIDBits()
	mask := uint32(1)<<bits - 1
	return int(raw & mask), raw >> bits
}

// Lookup decodes a raw leaf type directly to its Material and, for
// water/lava materials, the voxel's level and corner heights.
func (p *Palette) Lookup(raw uint32) (mat *Material, level uint8, corners [4]uint8) {
	id, data := p.Decode(raw)
	mat = p.Get(id)
	if mat.IsWaterLike {
		level, corners = DecodeWaterData(data)
	}
	return
}

// --- serialization ------------------------------------------------------
//
// Only the fields needed to reconstruct shading survive a round trip;
// textures are re-attached by the host after load, the same way mesh
// geometry is left for its own caller to reattach.

func (p *Palette) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var written int64
	writeU32 := func(v uint32) error {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], v)
		n, err := bw.Write(b[:])
		written += int64(n)
		return err
	}
	writeF32 := func(v float32) error { return writeU32(toBits(v)) }
	writeBool := func(v bool) error {
		b := byte(0)
		if v {
			b = 1
		}
		n, err := bw.Write([]byte{b})
		written += int64(n)
		return err
	}
	writeString := func(s string) error {
		if err := writeU32(uint32(len(s))); err != nil {
			return err
		}
		n, err := bw.Write([]byte(s))
		written += int64(n)
		return err
	}

	if err := writeU32(uint32(len(p.materials))); err != nil {
		return written, err
	}
	for _, m := range p.materials {
		if err := writeString(m.Name); err != nil {
			return written, err
		}
		for _, f := range []float32{m.Albedo.R, m.Albedo.G, m.Albedo.B, m.Albedo.A,
			m.Emittance, m.Specular, m.Roughness, m.IOR} {
			if err := writeF32(f); err != nil {
				return written, err
			}
		}
		for _, flag := range []bool{m.Opaque, m.Water, m.Solid, m.IsWaterLike} {
			if err := writeBool(flag); err != nil {
				return written, err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

func ReadFrom(r io.Reader) (*Palette, error) {
	br := bufio.NewReader(r)
	readU32 := func() (uint32, error) {
		var b [4]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return 0, err
		}
		return binary.BigEndian.Uint32(b[:]), nil
	}
	readF32 := func() (float32, error) {
		v, err := readU32()
		return fromBits(v), err
	}
	readBool := func() (bool, error) {
		b, err := br.ReadByte()
		return b != 0, err
	}
	readString := func() (string, error) {
		n, err := readU32()
		if err != nil {
			return "", err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return "", err
		}
		return string(buf), nil
	}

	count, err := readU32()
	if err != nil {
		return nil, fmt.Errorf("palette header: %w", err)
	}
	p := &Palette{byName: make(map[string]int)}
	for i := uint32(0); i < count; i++ {
		name, err := readString()
		if err != nil {
			return nil, fmt.Errorf("palette entry %d name: %w", i, err)
		}
		m := &Material{Name: name}
		var fs [8]float32
		for j := range fs {
			if fs[j], err = readF32(); err != nil {
				return nil, fmt.Errorf("palette entry %d float %d: %w", i, j, err)
			}
		}
		m.Albedo.R, m.Albedo.G, m.Albedo.B, m.Albedo.A = fs[0], fs[1], fs[2], fs[3]
		m.Emittance, m.Specular, m.Roughness, m.IOR = fs[4], fs[5], fs[6], fs[7]
		if m.Opaque, err = readBool(); err != nil {
			return nil, err
		}
		if m.Water, err = readBool(); err != nil {
			return nil, err
		}
		if m.Solid, err = readBool(); err != nil {
			return nil, err
		}
		if m.IsWaterLike, err = readBool(); err != nil {
			return nil, err
		}
		p.materials = append(p.materials, m)
		p.byName[name] = int(i)
	}
	return p, nil
}
