package remesh

import (
	"testing"

	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

func TestSplitSingleTriangle(t *testing.T) {
	m := &mesh.Mesh{
		Positions: []math.Vec3{
			{X: 0, Y: 0, Z: 0},
			{X: 3, Y: 0, Z: 0},
			{X: 0, Y: 3, Z: 0},
		},
		Indices: []uint32{0, 1, 2},
	}

	if err := Split(m, 1); err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if got := m.TriangleCount(); got != 3 {
		t.Errorf("TriangleCount() = %d, want 3", got)
	}
	if got := len(m.Positions); got != 4 {
		t.Fatalf("len(Positions) = %d, want 4", got)
	}

	// The inserted vertex sits at the mean of the original corners.
	want := math.Vec3{X: 1, Y: 1, Z: 0}
	if got := m.Positions[3]; got != want {
		t.Errorf("centroid vertex = %v, want %v", got, want)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSplitBoxTwice(t *testing.T) {
	m := mesh.Box(math.Vec3{X: 1, Y: 1, Z: 1})

	if err := Split(m, 2); err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	// Two passes triple twice: 12 * 9. A stale output buffer between
	// passes would inflate this.
	if got := m.TriangleCount(); got != 108 {
		t.Errorf("TriangleCount() = %d, want 108", got)
	}
	// 8 originals + 12 first-pass centroids + 36 second-pass centroids.
	if got := len(m.Positions); got != 56 {
		t.Errorf("len(Positions) = %d, want 56", got)
	}
	if got, want := len(m.Normals), len(m.Positions); got != want {
		t.Errorf("len(Normals) = %d, want %d", got, want)
	}
	if err := m.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSplitZeroIterations(t *testing.T) {
	m := mesh.Box(math.Vec3{X: 1, Y: 1, Z: 1})

	if err := Split(m, 0); err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if got := m.TriangleCount(); got != 12 {
		t.Errorf("TriangleCount() = %d, want 12", got)
	}
	if got := len(m.Positions); got != 8 {
		t.Errorf("len(Positions) = %d, want 8", got)
	}
}

func TestSplitInvalidMesh(t *testing.T) {
	m := &mesh.Mesh{
		Positions: []math.Vec3{{}, {X: 1}, {Y: 1}},
		Indices:   []uint32{0, 1, 2, 0},
	}
	if err := Split(m, 1); err == nil {
		t.Error("Split() = nil error for truncated index list, want error")
	}
}
