// Package camera provides the orbit camera used by the model viewport.
package camera

import (
	gomath "math"

	"github.com/Faultbox/meshstudio/pkg/math"
)

// OrbitCamera orbits around a center point.
type OrbitCamera struct {
	// Center point to orbit around
	Center math.Vec3

	// Spherical coordinates
	Distance  float32 // Distance from center
	RotationX float32 // Pitch (vertical angle, radians)
	RotationY float32 // Yaw (horizontal angle, radians)

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPitch    float32
	MaxPitch    float32

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
}

// NewOrbitCamera creates a new orbit camera with defaults scaled for
// meshes around unit size.
func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:        3.0,
		RotationX:       0.5,
		RotationY:       0.6,
		MinDistance:     0.05,
		MaxDistance:     1000.0,
		MinPitch:        -1.5,
		MaxPitch:        1.5,
		DragSensitivity: 0.008,
		ZoomSensitivity: 0.1,
	}
}

// Position returns the camera position in world space.
func (c *OrbitCamera) Position() math.Vec3 {
	x := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Sin(float64(c.RotationY)))
	y := c.Distance * float32(gomath.Sin(float64(c.RotationX)))
	z := c.Distance * float32(gomath.Cos(float64(c.RotationX))*gomath.Cos(float64(c.RotationY)))

	return c.Center.Add(math.Vec3{X: x, Y: y, Z: z})
}

// ViewMatrix returns the view matrix for this camera.
func (c *OrbitCamera) ViewMatrix() math.Mat4 {
	up := math.Vec3{X: 0, Y: 1, Z: 0}
	return math.LookAt(c.Position(), c.Center, up)
}

// HandleDrag updates rotation based on mouse drag delta.
func (c *OrbitCamera) HandleDrag(deltaX, deltaY float32) {
	c.RotationY -= deltaX * c.DragSensitivity
	c.RotationX += deltaY * c.DragSensitivity

	// Clamp pitch
	if c.RotationX < c.MinPitch {
		c.RotationX = c.MinPitch
	}
	if c.RotationX > c.MaxPitch {
		c.RotationX = c.MaxPitch
	}
}

// HandleZoom updates distance based on scroll wheel delta.
func (c *OrbitCamera) HandleZoom(delta float32) {
	c.Distance -= delta * c.Distance * c.ZoomSensitivity
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// FitToBounds centers the camera on the given bounding box and backs
// off far enough to see all of it.
func (c *OrbitCamera) FitToBounds(min, max math.Vec3) {
	c.Center = min.Add(max).Scale(0.5)

	diagonal := min.Distance(max)
	if diagonal < 1e-6 {
		diagonal = 1
	}

	c.Distance = diagonal * 1.5
	if c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}
