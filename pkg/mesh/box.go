package mesh

import "github.com/Faultbox/meshstudio/pkg/math"

// Box returns an axis-aligned box centered at the origin with the given
// edge lengths: 8 vertices, 12 triangles, outward-facing winding.
func Box(size math.Vec3) *Mesh {
	h := size.Scale(0.5)

	b := &Mesh{}
	b.Positions = append(b.Positions,
		math.Vec3{X: -h.X, Y: -h.Y, Z: -h.Z},
		math.Vec3{X: h.X, Y: -h.Y, Z: -h.Z},
		math.Vec3{X: -h.X, Y: h.Y, Z: -h.Z},
		math.Vec3{X: h.X, Y: h.Y, Z: -h.Z},

		math.Vec3{X: -h.X, Y: -h.Y, Z: h.Z},
		math.Vec3{X: h.X, Y: -h.Y, Z: h.Z},
		math.Vec3{X: -h.X, Y: h.Y, Z: h.Z},
		math.Vec3{X: h.X, Y: h.Y, Z: h.Z},
	)

	b.Indices = append(b.Indices,
		// back
		1, 0, 2,
		2, 3, 1,
		// right
		5, 1, 7,
		3, 7, 1,
		// front
		4, 5, 6,
		7, 6, 5,
		// left
		0, 4, 2,
		6, 2, 4,
		// top
		3, 2, 7,
		6, 7, 2,
		// bottom
		1, 4, 0,
		4, 1, 5,
	)

	b.RecalculateNormals()
	return b
}
