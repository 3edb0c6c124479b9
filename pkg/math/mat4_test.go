package math

import (
	gomath "math"
	"testing"
)

func TestIdentityMul(t *testing.T) {
	m := LookAt(Vec3{0, 0, 5}, Vec3{}, Vec3{0, 1, 0})
	got := Identity().Mul(m)
	if got != m {
		t.Errorf("Identity().Mul(m) = %v, want %v", got, m)
	}
}

func TestLookAtTransformsCenterToNegativeZ(t *testing.T) {
	eye := Vec3{0, 0, 5}
	center := Vec3{0, 0, 0}
	view := LookAt(eye, center, Vec3{0, 1, 0})

	got := view.TransformPoint(center)
	// Center should land on the -Z axis at the eye distance.
	if gomath.Abs(float64(got.X)) > 1e-5 || gomath.Abs(float64(got.Y)) > 1e-5 {
		t.Errorf("view center = %v, want on -Z axis", got)
	}
	if gomath.Abs(float64(got.Z+5)) > 1e-5 {
		t.Errorf("view center Z = %v, want -5", got.Z)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(gomath.Pi/4, 1.0, 0.1, 100.0)

	near := proj.TransformPoint(Vec3{0, 0, -0.1})
	far := proj.TransformPoint(Vec3{0, 0, -100.0})

	if gomath.Abs(float64(near.Z+1)) > 1e-4 {
		t.Errorf("near plane NDC z = %v, want -1", near.Z)
	}
	if gomath.Abs(float64(far.Z-1)) > 1e-4 {
		t.Errorf("far plane NDC z = %v, want 1", far.Z)
	}
}
