// Offscreen 3D viewport for the loaded mesh.
package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/Faultbox/meshstudio/internal/config"
	"github.com/Faultbox/meshstudio/internal/engine/camera"
	"github.com/Faultbox/meshstudio/internal/engine/framebuffer"
	"github.com/Faultbox/meshstudio/internal/engine/shader"
	"github.com/Faultbox/meshstudio/pkg/math"
	"github.com/Faultbox/meshstudio/pkg/mesh"
)

// MeshViewer renders the current mesh into an offscreen framebuffer
// that the UI displays as an imgui image.
type MeshViewer struct {
	fb     *framebuffer.Framebuffer
	camera *camera.OrbitCamera

	program      uint32
	locModel     int32
	locViewProj  int32
	locLightDir  int32
	locBaseColor int32

	vao        uint32
	vbo        uint32
	ebo        uint32
	indexCount int32

	background [3]float32
	meshColor  [3]float32
	wireframe  bool
}

// meshVertex is the interleaved vertex layout uploaded to the GPU.
type meshVertex struct {
	Position [3]float32
	Normal   [3]float32
}

const vertexShaderSource = `#version 410 core
layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;

uniform mat4 uModel;
uniform mat4 uViewProjection;

out vec3 vNormal;

void main() {
    vNormal = mat3(uModel) * aNormal;
    gl_Position = uViewProjection * uModel * vec4(aPosition, 1.0);
}
`

const fragmentShaderSource = `#version 410 core
in vec3 vNormal;

uniform vec3 uLightDir;
uniform vec3 uBaseColor;

out vec4 FragColor;

void main() {
    vec3 normal = normalize(vNormal);
    vec3 lightDir = normalize(uLightDir);
    // Two-sided shading so open meshes stay visible from the back.
    float diff = abs(dot(normal, lightDir));
    vec3 result = (0.35 + 0.65 * diff) * uBaseColor;
    FragColor = vec4(result, 1.0);
}
`

// NewMeshViewer creates a viewer with the given viewport size.
func NewMeshViewer(width, height int32, viewerCfg config.ViewerConfig) (*MeshViewer, error) {
	mv := &MeshViewer{
		camera:     camera.NewOrbitCamera(),
		background: viewerCfg.Background,
		meshColor:  viewerCfg.MeshColor,
		wireframe:  viewerCfg.Wireframe,
	}

	var err error
	mv.fb, err = framebuffer.New(width, height)
	if err != nil {
		return nil, err
	}

	mv.program, err = shader.CompileProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		mv.fb.Destroy()
		return nil, err
	}

	mv.locModel = shader.MustGetUniform(mv.program, "uModel")
	mv.locViewProj = shader.MustGetUniform(mv.program, "uViewProjection")
	mv.locLightDir = shader.MustGetUniform(mv.program, "uLightDir")
	mv.locBaseColor = shader.MustGetUniform(mv.program, "uBaseColor")

	return mv, nil
}

// SetMesh uploads m to the GPU and refits the camera. A nil or empty
// mesh clears the viewport.
func (mv *MeshViewer) SetMesh(m *mesh.Mesh) {
	mv.clearBuffers()

	if m == nil || m.IsEmpty() {
		return
	}

	vertices := make([]meshVertex, len(m.Positions))
	for i, p := range m.Positions {
		vertices[i].Position = [3]float32{p.X, p.Y, p.Z}
		if i < len(m.Normals) {
			n := m.Normals[i]
			vertices[i].Normal = [3]float32{n.X, n.Y, n.Z}
		}
	}

	gl.GenVertexArrays(1, &mv.vao)
	gl.BindVertexArray(mv.vao)

	gl.GenBuffers(1, &mv.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, mv.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*int(unsafe.Sizeof(meshVertex{})), unsafe.Pointer(&vertices[0]), gl.STATIC_DRAW)

	gl.GenBuffers(1, &mv.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, mv.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, unsafe.Pointer(&m.Indices[0]), gl.STATIC_DRAW)

	stride := int32(unsafe.Sizeof(meshVertex{}))
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 12)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	mv.indexCount = int32(len(m.Indices))

	min, max := m.BoundingBox()
	mv.camera.FitToBounds(min, max)
}

// ResetView refits the camera to the current mesh bounds.
func (mv *MeshViewer) ResetView(m *mesh.Mesh) {
	mv.camera.RotationX = 0.5
	mv.camera.RotationY = 0.6
	if m != nil && !m.IsEmpty() {
		min, max := m.BoundingBox()
		mv.camera.FitToBounds(min, max)
	}
}

// Resize adjusts the offscreen framebuffer to the panel size.
func (mv *MeshViewer) Resize(width, height int32) {
	mv.fb.Resize(width, height)
}

// HandleDrag rotates the camera.
func (mv *MeshViewer) HandleDrag(deltaX, deltaY float32) {
	mv.camera.HandleDrag(deltaX, deltaY)
}

// HandleZoom zooms the camera.
func (mv *MeshViewer) HandleZoom(delta float32) {
	mv.camera.HandleZoom(delta)
}

// SetWireframe toggles the wireframe overlay.
func (mv *MeshViewer) SetWireframe(on bool) {
	mv.wireframe = on
}

// Wireframe reports whether the wireframe overlay is on.
func (mv *MeshViewer) Wireframe() bool {
	return mv.wireframe
}

// Render draws the mesh into the framebuffer and returns the color
// texture ID for the UI to display.
func (mv *MeshViewer) Render() uint32 {
	var prevFBO int32
	var prevViewport [4]int32
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &prevFBO)
	gl.GetIntegerv(gl.VIEWPORT, &prevViewport[0])

	mv.fb.Bind()
	mv.fb.Clear(mv.background[0], mv.background[1], mv.background[2], 1.0)

	if mv.vao != 0 && mv.indexCount > 0 {
		gl.Enable(gl.DEPTH_TEST)
		gl.DepthFunc(gl.LESS)

		gl.UseProgram(mv.program)

		width, height := mv.fb.Size()
		aspect := float32(width) / float32(height)
		projection := math.Perspective(0.785398, aspect, 0.01, 2000.0)
		viewProjection := projection.Mul(mv.camera.ViewMatrix())
		model := math.Identity()

		gl.UniformMatrix4fv(mv.locViewProj, 1, false, viewProjection.Ptr())
		gl.UniformMatrix4fv(mv.locModel, 1, false, model.Ptr())
		gl.Uniform3f(mv.locLightDir, 0.5, 1.0, 0.7)

		gl.BindVertexArray(mv.vao)

		gl.Uniform3f(mv.locBaseColor, mv.meshColor[0], mv.meshColor[1], mv.meshColor[2])
		gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
		gl.DrawElements(gl.TRIANGLES, mv.indexCount, gl.UNSIGNED_INT, nil)

		if mv.wireframe {
			// Draw edges slightly toward the camera to avoid z-fighting.
			gl.Enable(gl.POLYGON_OFFSET_LINE)
			gl.PolygonOffset(-1.0, -1.0)
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.LINE)
			gl.Uniform3f(mv.locBaseColor, 0.1, 0.1, 0.1)
			gl.DrawElements(gl.TRIANGLES, mv.indexCount, gl.UNSIGNED_INT, nil)
			gl.PolygonMode(gl.FRONT_AND_BACK, gl.FILL)
			gl.Disable(gl.POLYGON_OFFSET_LINE)
		}

		gl.BindVertexArray(0)
	}

	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(prevFBO))
	gl.Viewport(prevViewport[0], prevViewport[1], prevViewport[2], prevViewport[3])

	return mv.fb.ColorTexture()
}

// SaveScreenshot writes the current framebuffer contents as a PNG.
func (mv *MeshViewer) SaveScreenshot(path string) error {
	width, height := mv.fb.Size()
	pixels := mv.fb.ReadPixels()

	// Flip vertically: GL rows start at the bottom.
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	rowLen := int(width) * 4
	for y := 0; y < int(height); y++ {
		src := pixels[(int(height)-1-y)*rowLen : (int(height)-y)*rowLen]
		copy(img.Pix[y*img.Stride:], src)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating screenshot file: %w", err)
	}
	defer f.Close()

	return png.Encode(f, img)
}

func (mv *MeshViewer) clearBuffers() {
	if mv.vao != 0 {
		gl.DeleteVertexArrays(1, &mv.vao)
		mv.vao = 0
	}
	if mv.vbo != 0 {
		gl.DeleteBuffers(1, &mv.vbo)
		mv.vbo = 0
	}
	if mv.ebo != 0 {
		gl.DeleteBuffers(1, &mv.ebo)
		mv.ebo = 0
	}
	mv.indexCount = 0
}

// Destroy releases all OpenGL resources.
func (mv *MeshViewer) Destroy() {
	mv.clearBuffers()
	if mv.program != 0 {
		gl.DeleteProgram(mv.program)
		mv.program = 0
	}
	if mv.fb != nil {
		mv.fb.Destroy()
		mv.fb = nil
	}
}
