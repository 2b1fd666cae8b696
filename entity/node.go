package entity

import (
	"github.com/voxelforge/tracecore/core"
	"github.com/voxelforge/tracecore/vmath"
)

// Node is an entity scene-graph node. There is no per-frame Update: nothing
// here animates. The dirty-flag world-matrix cache still matters, though,
// since BVH instance placement needs it whenever a glTF or OBJ import nests
// meshes under transformed parents.
type Node struct {
	Name      string
	Transform core.Transform
	Parent    *Node
	Children  []*Node
	Mesh      *Mesh
	Visible   bool
	Id        uint32

	worldMatrixDirty bool
	worldMatrix      vmath.Mat4
}

var nodeIdCounter uint32 = 0

func NewNode(name string) *Node {
	nodeIdCounter++
	return &Node{
		Name:             name,
		Transform:        core.NewTransform(),
		Children:         make([]*Node, 0),
		Visible:          true,
		Id:               nodeIdCounter,
		worldMatrixDirty: true,
	}
}

func (n *Node) AddChild(child *Node) {
	if child.Parent != nil {
		child.Parent.RemoveChild(child)
	}
	child.Parent = n
	n.Children = append(n.Children, child)
}

func (n *Node) RemoveChild(child *Node) {
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			child.MarkWorldMatrixDirty()
			return
		}
	}
}

func (n *Node) GetWorldMatrix() vmath.Mat4 {
	if n.worldMatrixDirty {
		localMatrix := n.Transform.GetMatrix()
		if n.Parent != nil {
			n.worldMatrix = n.Parent.GetWorldMatrix().Mul(localMatrix)
		} else {
			n.worldMatrix = localMatrix
		}
		n.worldMatrixDirty = false
	}
	return n.worldMatrix
}

func (n *Node) MarkWorldMatrixDirty() {
	n.worldMatrixDirty = true
	for _, child := range n.Children {
		child.MarkWorldMatrixDirty()
	}
}

func (n *Node) SetPosition(pos vmath.Vec3) {
	n.Transform.Position = pos
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetRotation(rot vmath.Quaternion) {
	n.Transform.Rotation = rot
	n.MarkWorldMatrixDirty()
}

func (n *Node) SetScale(scale vmath.Vec3) {
	n.Transform.Scale = scale
	n.MarkWorldMatrixDirty()
}

func (n *Node) Translate(delta vmath.Vec3) {
	n.Transform.Position = n.Transform.Position.Add(delta)
	n.MarkWorldMatrixDirty()
}

func (n *Node) Rotate(axis vmath.Vec3, angle float32) {
	rotation := vmath.QuaternionFromAxisAngle(axis, angle)
	n.Transform.Rotation = n.Transform.Rotation.Mul(rotation).Normalize()
	n.MarkWorldMatrixDirty()
}

func (n *Node) GetForward() vmath.Vec3 { return n.Transform.GetForward() }
func (n *Node) GetRight() vmath.Vec3   { return n.Transform.GetRight() }
func (n *Node) GetUp() vmath.Vec3      { return n.Transform.GetUp() }

// Traverse visits all nodes in the graph.
func (n *Node) Traverse(callback func(*Node)) {
	callback(n)
	for _, child := range n.Children {
		child.Traverse(callback)
	}
}

// Find finds a node by name.
func (n *Node) Find(name string) *Node {
	if n.Name == name {
		return n
	}
	for _, child := range n.Children {
		if found := child.Find(name); found != nil {
			return found
		}
	}
	return nil
}

// Flatten collects every mesh reachable from n, baking each triangle's
// world-space position and normal by its node's world matrix — the form
// the BVH builder consumes. Entities are static triangle soups at render
// start, not a live transform hierarchy.
func (n *Node) Flatten() []*Mesh {
	var out []*Mesh
	n.Traverse(func(node *Node) {
		if node.Mesh == nil || !node.Visible {
			return
		}
		out = append(out, node.Mesh.Transformed(node.GetWorldMatrix()))
	})
	return out
}
