// Package remesh provides uniform triangle subdivision: every pass
// replaces each triangle with three by fanning its edges to a new vertex
// at the centroid.
package remesh

import (
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

// Split applies iterations subdivision passes to m in place and
// recomputes its normals. Each pass triples the triangle count and adds
// one vertex per pre-pass triangle. Passes compose: every pass consumes
// the complete output of the previous one.
func Split(m *mesh.Mesh, iterations int) error {
	if err := m.Validate(); err != nil {
		return err
	}

	indices := m.Indices
	scratch := make([]uint32, 0, len(indices)*3)

	for it := 0; it < iterations; it++ {
		// The output buffer must start empty each pass; leftover
		// triangles from a previous pass would corrupt the result.
		scratch = scratch[:0]

		for i := 0; i+2 < len(indices); i += 3 {
			i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
			v0 := m.Positions[i0]
			v1 := m.Positions[i1]
			v2 := m.Positions[i2]

			centroid := v0.Add(v1).Add(v2).Scale(1.0 / 3.0)
			mid := uint32(len(m.Positions))
			m.Positions = append(m.Positions, centroid)

			scratch = append(scratch,
				i0, i1, mid,
				i1, i2, mid,
				i2, i0, mid,
			)
		}

		indices, scratch = scratch, indices
	}

	m.Indices = indices
	m.RecalculateNormals()
	return nil
}
