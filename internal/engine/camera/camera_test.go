package camera

import (
	gomath "math"
	"testing"

	"github.com/Faultbox/meshstudio/pkg/math"
)

func TestPositionDistance(t *testing.T) {
	c := NewOrbitCamera()
	c.Center = math.Vec3{X: 1, Y: 2, Z: 3}
	c.Distance = 5

	pos := c.Position()
	got := float64(pos.Sub(c.Center).Length())
	if gomath.Abs(got-5) > 1e-4 {
		t.Errorf("distance from center = %v, want 5", got)
	}
}

func TestHandleDragClampsPitch(t *testing.T) {
	c := NewOrbitCamera()

	c.HandleDrag(0, 10000)
	if c.RotationX != c.MaxPitch {
		t.Errorf("RotationX = %v, want clamped to %v", c.RotationX, c.MaxPitch)
	}

	c.HandleDrag(0, -20000)
	if c.RotationX != c.MinPitch {
		t.Errorf("RotationX = %v, want clamped to %v", c.RotationX, c.MinPitch)
	}
}

func TestHandleZoomClampsDistance(t *testing.T) {
	c := NewOrbitCamera()

	for i := 0; i < 200; i++ {
		c.HandleZoom(1)
	}
	if c.Distance != c.MinDistance {
		t.Errorf("Distance = %v, want clamped to %v", c.Distance, c.MinDistance)
	}

	for i := 0; i < 200; i++ {
		c.HandleZoom(-10)
	}
	if c.Distance != c.MaxDistance {
		t.Errorf("Distance = %v, want clamped to %v", c.Distance, c.MaxDistance)
	}
}

func TestFitToBounds(t *testing.T) {
	c := NewOrbitCamera()
	min := math.Vec3{X: -1, Y: -1, Z: -1}
	max := math.Vec3{X: 1, Y: 1, Z: 1}

	c.FitToBounds(min, max)

	if c.Center != (math.Vec3{}) {
		t.Errorf("Center = %v, want origin", c.Center)
	}
	diagonal := max.Sub(min).Length()
	if got, want := c.Distance, diagonal*1.5; gomath.Abs(float64(got-want)) > 1e-4 {
		t.Errorf("Distance = %v, want %v", got, want)
	}
}

func TestFitToBoundsDegenerate(t *testing.T) {
	c := NewOrbitCamera()
	p := math.Vec3{X: 2, Y: 2, Z: 2}

	c.FitToBounds(p, p)

	if c.Center != p {
		t.Errorf("Center = %v, want %v", c.Center, p)
	}
	if c.Distance <= 0 {
		t.Errorf("Distance = %v, want positive for a point-sized box", c.Distance)
	}
}
