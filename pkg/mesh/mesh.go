// Package mesh defines the indexed triangle mesh exchanged between the
// file loaders, the viewport, and the geometry transforms.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshstudio/pkg/math"
)

// Validation errors.
var (
	ErrIndexCount = errors.New("invalid mesh: index count not a multiple of 3")
	ErrIndexRange = errors.New("invalid mesh: index out of range")
)

// Mesh is an indexed triangle mesh. Positions and Normals are parallel
// arrays once normals have been computed; Indices holds three vertex
// indices per triangle.
type Mesh struct {
	Positions []math.Vec3
	Normals   []math.Vec3
	Indices   []uint32
}

// IsEmpty reports whether the mesh has no positions, normals, or indices.
func (m *Mesh) IsEmpty() bool {
	return len(m.Positions) == 0 || len(m.Normals) == 0 || len(m.Indices) == 0
}

// Clear empties all mesh data.
func (m *Mesh) Clear() {
	m.Positions = m.Positions[:0]
	m.Normals = m.Normals[:0]
	m.Indices = m.Indices[:0]
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Positions: make([]math.Vec3, len(m.Positions)),
		Normals:   make([]math.Vec3, len(m.Normals)),
		Indices:   make([]uint32, len(m.Indices)),
	}
	copy(c.Positions, m.Positions)
	copy(c.Normals, m.Normals)
	copy(c.Indices, m.Indices)
	return c
}

// Validate checks the structural invariants: the index count is a
// multiple of 3 and every index addresses an existing position.
func (m *Mesh) Validate() error {
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrIndexCount, len(m.Indices))
	}
	for i, idx := range m.Indices {
		if int(idx) >= len(m.Positions) {
			return fmt.Errorf("%w: index %d at position %d, have %d vertices",
				ErrIndexRange, idx, i, len(m.Positions))
		}
	}
	return nil
}

// RecalculateNormals rebuilds per-vertex normals by accumulating the
// unnormalized face normal of every incident triangle and normalizing
// the sums. Vertices with zero accumulated face area (degenerate or
// unreferenced) end up with the zero normal.
func (m *Mesh) RecalculateNormals() {
	if len(m.Normals) != len(m.Positions) {
		m.Normals = make([]math.Vec3, len(m.Positions))
	} else {
		for i := range m.Normals {
			m.Normals[i] = math.Vec3{}
		}
	}

	for i := 0; i+2 < len(m.Indices); i += 3 {
		i0, i1, i2 := m.Indices[i], m.Indices[i+1], m.Indices[i+2]
		v0 := m.Positions[i0]
		v1 := m.Positions[i1]
		v2 := m.Positions[i2]

		// Unnormalized cross product weights the contribution by face area.
		faceNormal := v1.Sub(v0).Cross(v2.Sub(v0))
		m.Normals[i0] = m.Normals[i0].Add(faceNormal)
		m.Normals[i1] = m.Normals[i1].Add(faceNormal)
		m.Normals[i2] = m.Normals[i2].Add(faceNormal)
	}
	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
}

// Centroid returns the mean of all vertex positions.
func (m *Mesh) Centroid() math.Vec3 {
	if len(m.Positions) == 0 {
		return math.Vec3{}
	}
	var sum math.Vec3
	for _, p := range m.Positions {
		sum = sum.Add(p)
	}
	return sum.Scale(1.0 / float32(len(m.Positions)))
}

// BoundingBox returns the component-wise min and max over all positions.
// An empty mesh yields two zero vectors.
func (m *Mesh) BoundingBox() (bbMin, bbMax math.Vec3) {
	if len(m.Positions) == 0 {
		return math.Vec3{}, math.Vec3{}
	}
	bbMin = m.Positions[0]
	bbMax = m.Positions[0]
	for _, p := range m.Positions[1:] {
		bbMin = bbMin.Min(p)
		bbMax = bbMax.Max(p)
	}
	return bbMin, bbMax
}
