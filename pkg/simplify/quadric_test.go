package simplify

import (
	"testing"

	"github.com/Faultbox/meshstudio/pkg/math"
)

func TestQuadricAddCommutative(t *testing.T) {
	a := FromPlane(1, 2, 3, 4)
	b := FromPlane(-2, 0, 5, 1)

	if a.Add(b) != b.Add(a) {
		t.Errorf("a.Add(b) = %v, b.Add(a) = %v, want equal", a.Add(b), b.Add(a))
	}
}

func TestQuadricAddAssociative(t *testing.T) {
	// Integer-valued coefficients so float addition is exact.
	a := FromPlane(1, 0, 2, 3)
	b := FromPlane(0, 4, 1, 2)
	c := FromPlane(2, 1, 0, 5)

	left := a.Add(b).Add(c)
	right := a.Add(b.Add(c))
	if left != right {
		t.Errorf("(a+b)+c = %v, a+(b+c) = %v, want equal", left, right)
	}
}

func TestQuadricZeroIdentity(t *testing.T) {
	a := FromPlane(1, 2, 3, 4)
	if got := a.Add(Quadric{}); got != a {
		t.Errorf("a.Add(zero) = %v, want %v", got, a)
	}
}

func TestQuadricEvalPlaneDistance(t *testing.T) {
	// Quadric of the plane y = 0: error is the squared distance to it.
	q := FromPlane(0, 1, 0, 0)

	if got := q.Eval(math.Vec3{X: 3, Y: 0, Z: -7}); got != 0 {
		t.Errorf("Eval(on plane) = %v, want 0", got)
	}
	if got := q.Eval(math.Vec3{Y: 2}); got != 4 {
		t.Errorf("Eval(y=2) = %v, want 4", got)
	}
}
