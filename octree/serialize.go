package octree

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// Serialize writes o as a depth header followed by a compact pre-order
// traversal: each node is a 1-byte tag (leaf or branch) followed by either a
// varint-encoded raw type (leaf) or its 8 children in octant order (branch).
// The palette itself round-trips separately via palette.Palette.WriteTo/
// ReadFrom — this format only carries structure and raw leaf values.
func Serialize(o Octree, w io.Writer) error {
	bw := bufio.NewWriter(w)
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(o.Depth()))
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}
	if err := serializeRec(o, 0, 0, 0, o.Size(), bw); err != nil {
		return err
	}
	return bw.Flush()
}

const (
	tagLeaf   byte = 0
	tagBranch byte = 1
)

func serializeRec(o Octree, x, y, z, size int, w *bufio.Writer) error {
	if size == 1 || isUniformRegion(o, x, y, z, size) {
		if err := w.WriteByte(tagLeaf); err != nil {
			return err
		}
		var buf [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(buf[:], uint64(o.Get(x, y, z)))
		_, err := w.Write(buf[:n])
		return err
	}
	if err := w.WriteByte(tagBranch); err != nil {
		return err
	}
	half := size / 2
	for i := 0; i < 8; i++ {
		cx, cy, cz := x, y, z
		if i&1 != 0 {
			cx += half
		}
		if i&2 != 0 {
			cy += half
		}
		if i&4 != 0 {
			cz += half
		}
		if err := serializeRec(o, cx, cy, cz, half, w); err != nil {
			return err
		}
	}
	return nil
}

// isUniformRegion reports whether every voxel in the [x,x+size) cube holds
// the same raw value. Serialize re-derives uniformity by scanning through
// Octree.Get rather than inspecting Node's internal tree directly, so the
// same encoder works for both storage variants (and for any future one).
func isUniformRegion(o Octree, x, y, z, size int) bool {
	first := o.Get(x, y, z)
	for dz := 0; dz < size; dz++ {
		for dy := 0; dy < size; dy++ {
			for dx := 0; dx < size; dx++ {
				if o.Get(x+dx, y+dy, z+dz) != first {
					return false
				}
			}
		}
	}
	return true
}

// Deserialize reads back a tree written by Serialize, always reconstructing
// a Node (the pointer-based variant reads naturally from the pre-order
// format; callers wanting Packed storage can Walk the result into a fresh
// Packed octree and handle ErrOctreeTooBig same as any other load path).
func Deserialize(r io.Reader) (*Node, error) {
	br := bufio.NewReader(r)
	var hdr [4]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, fmt.Errorf("octree header: %w", err)
	}
	depth := int(binary.BigEndian.Uint32(hdr[:]))
	root, err := deserializeRec(br, 1<<depth)
	if err != nil {
		return nil, fmt.Errorf("octree body: %w", err)
	}
	return &Node{depth: depth, root: root}, nil
}

func deserializeRec(r *bufio.Reader, size int) (*node, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case tagLeaf:
		raw, err := binary.ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		return &node{raw: uint32(raw)}, nil
	case tagBranch:
		children := &[8]*node{}
		half := size / 2
		for i := 0; i < 8; i++ {
			c, err := deserializeRec(r, half)
			if err != nil {
				return nil, err
			}
			children[i] = c
		}
		return &node{children: children}, nil
	default:
		return nil, fmt.Errorf("unknown node tag %d", tag)
	}
}
