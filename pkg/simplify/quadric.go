package simplify

import "github.com/Faultbox/meshstudio/pkg/math"

// Quadric is a symmetric error matrix over homogeneous 4-vectors, stored
// as its 10 upper-triangle coefficients:
//
//	[m0 m1 m2 m3]
//	[m1 m4 m5 m6]
//	[m2 m5 m7 m8]
//	[m3 m6 m8 m9]
//
// The zero value is the zero quadric.
type Quadric struct {
	m [10]float32
}

// FromPlane builds the quadric of the plane ax + by + cz + d = 0.
func FromPlane(a, b, c, d float32) Quadric {
	return Quadric{m: [10]float32{
		a * a, a * b, a * c, a * d,
		b * b, b * c, b * d,
		c * c, c * d,
		d * d,
	}}
}

// Add returns the coefficient-wise sum of two quadrics.
func (q Quadric) Add(other Quadric) Quadric {
	var sum Quadric
	for i := range q.m {
		sum.m[i] = q.m[i] + other.m[i]
	}
	return sum
}

// Eval evaluates the quadric form at p.
func (q Quadric) Eval(p math.Vec3) float32 {
	return q.m[0]*p.X*p.X + 2*q.m[1]*p.X*p.Y + 2*q.m[2]*p.X*p.Z + 2*q.m[3]*p.X +
		q.m[4]*p.Y*p.Y + 2*q.m[5]*p.Y*p.Z + 2*q.m[6]*p.Y +
		q.m[7]*p.Z*p.Z + 2*q.m[8]*p.Z +
		q.m[9]
}

// det computes the determinant of the 3x3 submatrix whose entries live at
// the given coefficient slots.
func (q Quadric) det(a11, a12, a13, a21, a22, a23, a31, a32, a33 int) float32 {
	return q.m[a11]*q.m[a22]*q.m[a33] + q.m[a13]*q.m[a21]*q.m[a32] + q.m[a12]*q.m[a23]*q.m[a31] -
		q.m[a13]*q.m[a22]*q.m[a31] - q.m[a11]*q.m[a23]*q.m[a32] - q.m[a12]*q.m[a21]*q.m[a33]
}
