// MeshStudio - a graphical tool for viewing, decimating and subdividing
// triangle meshes.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/AllenDang/cimgui-go/backend"
	"github.com/AllenDang/cimgui-go/backend/sdlbackend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/sqweek/dialog"
	"go.uber.org/zap"

	"github.com/Faultbox/meshstudio/internal/config"
	"github.com/Faultbox/meshstudio/internal/logger"
	"github.com/Faultbox/meshstudio/pkg/formats"
	"github.com/Faultbox/meshstudio/pkg/mesh"
	"github.com/Faultbox/meshstudio/pkg/remesh"
	"github.com/Faultbox/meshstudio/pkg/simplify"
)

func main() {
	runtime.LockOSThread()

	config.ParseFlags()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	app := NewApp(cfg)
	defer app.Close()

	if path := config.MeshPath(); path != "" {
		if err := app.OpenMesh(path); err != nil {
			logger.Error("opening mesh", zap.String("path", path), zap.Error(err))
		}
	}

	app.Run()
}

// lastMousePos tracks previous mouse position for drag delta calculation.
var lastMousePos imgui.Vec2

// tool identifies the active side-panel tool.
type tool int

const (
	toolNone tool = iota
	toolRemesh
	toolSimplify
)

// App holds the application state.
type App struct {
	backend backend.Backend[sdlbackend.SDLWindowFlags]
	cfg     *config.Config

	// Mesh state
	mesh     *mesh.Mesh
	meshPath string
	dirty    bool // viewer needs a re-upload

	// Viewer (created lazily, needs a current GL context)
	viewer *MeshViewer

	// Tool state. Entering a tool snapshots the mesh so Apply can be
	// re-run with different parameters and Cancel can restore it.
	activeTool         tool
	toolBackup         *mesh.Mesh
	remeshIterations   int32
	simplifyRatio      float32
	simplifyAggressive float32

	// File dialog results land here from a goroutine; the render loop
	// picks them up on the main thread (SDL/Cocoa requirement).
	pendingOpenPath string
	pendingSavePath string

	// Status bar notification
	statusMsg     string
	statusMsgTime time.Time
}

// NewApp creates the application window and backend.
func NewApp(cfg *config.Config) *App {
	app := &App{
		cfg:                cfg,
		mesh:               &mesh.Mesh{},
		remeshIterations:   int32(cfg.Remesh.Iterations),
		simplifyRatio:      cfg.Simplify.TargetRatio,
		simplifyAggressive: float32(cfg.Simplify.Aggressiveness),
	}
	if app.remeshIterations < 1 {
		app.remeshIterations = 1
	}

	var err error
	app.backend, err = backend.CreateBackend(sdlbackend.NewSDLBackend())
	if err != nil {
		logger.Fatal("creating backend", zap.Error(err))
	}

	bg := cfg.Viewer.Background
	app.backend.SetBgColor(imgui.NewVec4(bg[0], bg[1], bg[2], 1.0))
	app.backend.CreateWindow("MeshStudio", cfg.Graphics.Width, cfg.Graphics.Height)

	if err := gl.Init(); err != nil {
		logger.Fatal("initializing OpenGL", zap.Error(err))
	}

	return app
}

// Close persists settings and cleans up resources.
func (app *App) Close() {
	app.saveSettings()
	if app.viewer != nil {
		app.viewer.Destroy()
		app.viewer = nil
	}
}

// saveSettings writes the current UI state back to the user's config
// file so the next session starts from it.
func (app *App) saveSettings() {
	if app.viewer != nil {
		app.cfg.Viewer.Wireframe = app.viewer.Wireframe()
	}
	app.cfg.Remesh.Iterations = int(app.remeshIterations)
	app.cfg.Simplify.TargetRatio = app.simplifyRatio
	app.cfg.Simplify.Aggressiveness = float64(app.simplifyAggressive)

	if err := app.cfg.Save(); err != nil {
		logger.Warn("saving settings", zap.Error(err))
		return
	}
	logger.Debug("settings saved")
}

// Run starts the main application loop.
func (app *App) Run() {
	app.backend.Run(app.render)
}

// OpenMesh loads a mesh file and shows it in the viewport.
func (app *App) OpenMesh(path string) error {
	m, err := formats.Load(path)
	if err != nil {
		return err
	}

	app.mesh = m
	app.meshPath = path
	app.dirty = true
	app.activeTool = toolNone
	app.toolBackup = nil

	app.backend.SetWindowTitle(fmt.Sprintf("MeshStudio - %s", filepath.Base(path)))
	logger.Info("mesh loaded",
		zap.String("path", path),
		zap.Int("vertices", len(m.Positions)),
		zap.Int("triangles", m.TriangleCount()))
	return nil
}

// SaveMesh writes the current mesh to path, format by extension.
func (app *App) SaveMesh(path string) error {
	if err := formats.Save(path, app.mesh); err != nil {
		return err
	}
	logger.Info("mesh saved",
		zap.String("path", path),
		zap.Int("triangles", app.mesh.TriangleCount()))
	app.notify("Saved " + filepath.Base(path))
	return nil
}

// openFileDialog shows a native open dialog on a goroutine and queues
// the result for the main thread.
func (app *App) openFileDialog() {
	go func() {
		filename, err := dialog.File().
			Filter("Mesh Files", "stl", "ply", "obj").
			Filter("All Files", "*").
			Title("Open Mesh").
			Load()

		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("file dialog", zap.Error(err))
			}
			return
		}
		app.pendingOpenPath = filename
	}()
}

// saveFileDialog shows a native save dialog for the given format.
func (app *App) saveFileDialog(ext, description string) {
	go func() {
		filename, err := dialog.File().
			Filter(description, ext).
			Title("Save Mesh").
			Save()

		if err != nil {
			if err != dialog.ErrCancelled {
				logger.Error("file dialog", zap.Error(err))
			}
			return
		}
		if filepath.Ext(filename) == "" {
			filename += "." + ext
		}
		app.pendingSavePath = filename
	}()
}

func (app *App) notify(msg string) {
	app.statusMsg = msg
	app.statusMsgTime = time.Now()
}

// render is called each frame to draw the UI.
func (app *App) render() {
	// Process pending dialog results on the main thread.
	if app.pendingOpenPath != "" {
		path := app.pendingOpenPath
		app.pendingOpenPath = ""
		if err := app.OpenMesh(path); err != nil {
			logger.Error("opening mesh", zap.String("path", path), zap.Error(err))
			app.notify("Error: " + err.Error())
		}
	}
	if app.pendingSavePath != "" {
		path := app.pendingSavePath
		app.pendingSavePath = ""
		if err := app.SaveMesh(path); err != nil {
			logger.Error("saving mesh", zap.String("path", path), zap.Error(err))
			app.notify("Error: " + err.Error())
		}
	}

	// The viewer needs a live GL context, so it is created on the
	// first frame rather than in NewApp.
	if app.viewer == nil {
		viewer, err := NewMeshViewer(800, 600, app.cfg.Viewer)
		if err != nil {
			logger.Fatal("creating viewer", zap.Error(err))
		}
		app.viewer = viewer
		app.dirty = true
	}

	if app.dirty {
		app.viewer.SetMesh(app.mesh)
		app.dirty = false
	}

	app.renderMenuBar()

	viewport := imgui.MainViewport()
	workPos := viewport.WorkPos()
	workSize := viewport.WorkSize()

	sidePanelWidth := float32(280)
	statusBarHeight := float32(30)
	contentHeight := workSize.Y - statusBarHeight

	flags := imgui.WindowFlagsNoMove | imgui.WindowFlagsNoResize | imgui.WindowFlagsNoCollapse

	// Side panel - tools
	imgui.SetNextWindowPos(workPos)
	imgui.SetNextWindowSize(imgui.NewVec2(sidePanelWidth, contentHeight))
	if imgui.BeginV("Tools", nil, flags) {
		app.renderToolPanel()
	}
	imgui.End()

	// Viewport panel
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X+sidePanelWidth, workPos.Y))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X-sidePanelWidth, contentHeight))
	if imgui.BeginV("Viewport", nil, flags) {
		app.renderViewport()
	}
	imgui.End()

	// Status bar
	imgui.SetNextWindowPos(imgui.NewVec2(workPos.X, workPos.Y+contentHeight))
	imgui.SetNextWindowSize(imgui.NewVec2(workSize.X, statusBarHeight))
	statusFlags := flags | imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar
	if imgui.BeginV("##StatusBar", nil, statusFlags) {
		app.renderStatusBar()
	}
	imgui.End()
}

func (app *App) renderMenuBar() {
	if !imgui.BeginMainMenuBar() {
		return
	}

	if imgui.BeginMenu("File") {
		if imgui.MenuItemBool("Open...") {
			app.openFileDialog()
		}
		imgui.Separator()
		if imgui.MenuItemBoolV("Save As STL...", "", false, !app.mesh.IsEmpty()) {
			app.saveFileDialog("stl", "STL Files")
		}
		if imgui.MenuItemBoolV("Save As PLY...", "", false, !app.mesh.IsEmpty()) {
			app.saveFileDialog("ply", "PLY Files")
		}
		imgui.Separator()
		if imgui.MenuItemBool("Exit") {
			// os.Exit skips the deferred Close.
			app.saveSettings()
			os.Exit(0)
		}
		imgui.EndMenu()
	}

	if imgui.BeginMenu("View") {
		if imgui.MenuItemBool("Reset View") {
			app.viewer.ResetView(app.mesh)
		}
		wireframe := app.viewer != nil && app.viewer.Wireframe()
		if imgui.MenuItemBoolV("Wireframe", "", wireframe, app.viewer != nil) {
			app.viewer.SetWireframe(!wireframe)
		}
		if imgui.MenuItemBoolV("Save Screenshot", "", false, app.viewer != nil) {
			app.saveScreenshot()
		}
		imgui.EndMenu()
	}

	imgui.EndMainMenuBar()
}

func (app *App) saveScreenshot() {
	name := fmt.Sprintf("meshstudio-%s.png", time.Now().Format("20060102-150405"))
	path := filepath.Join(os.TempDir(), name)
	if err := app.viewer.SaveScreenshot(path); err != nil {
		logger.Error("saving screenshot", zap.Error(err))
		app.notify("Error: " + err.Error())
		return
	}
	app.notify("Screenshot: " + path)
}

// renderToolPanel renders the tool selection or the active tool's controls.
func (app *App) renderToolPanel() {
	if app.mesh.IsEmpty() {
		imgui.TextDisabled("Open a mesh to get started")
		return
	}

	switch app.activeTool {
	case toolNone:
		imgui.Text("Select a tool:")
		imgui.Spacing()
		if imgui.ButtonV("Remesh", imgui.NewVec2(-1, 0)) {
			app.enterTool(toolRemesh)
		}
		if imgui.ButtonV("Simplification", imgui.NewVec2(-1, 0)) {
			app.enterTool(toolSimplify)
		}
	case toolRemesh:
		app.renderRemeshPanel()
	case toolSimplify:
		app.renderSimplifyPanel()
	}
}

// enterTool snapshots the mesh so the tool can re-apply from the
// original and Cancel can restore it.
func (app *App) enterTool(t tool) {
	app.activeTool = t
	app.toolBackup = app.mesh.Clone()
}

// leaveTool returns to the tool list, keeping the current mesh.
func (app *App) leaveTool() {
	app.activeTool = toolNone
	app.toolBackup = nil
}

// cancelTool restores the snapshot taken on entry and returns.
func (app *App) cancelTool() {
	if app.toolBackup != nil {
		app.mesh = app.toolBackup
		app.dirty = true
	}
	app.leaveTool()
}

func (app *App) renderRemeshPanel() {
	imgui.Text("Remesh")
	imgui.Separator()
	imgui.TextWrapped("Each pass splits every triangle into three around its centroid.")
	imgui.Spacing()

	imgui.SliderIntV("Iterations", &app.remeshIterations, 1, 5, "%d", imgui.SliderFlagsNone)

	base := app.toolBackup.TriangleCount()
	predicted := base
	for i := int32(0); i < app.remeshIterations; i++ {
		predicted *= 3
	}
	imgui.Text(fmt.Sprintf("%d -> %d triangles", base, predicted))
	imgui.Spacing()

	if imgui.ButtonV("Apply", imgui.NewVec2(120, 0)) {
		m := app.toolBackup.Clone()
		if err := remesh.Split(m, int(app.remeshIterations)); err != nil {
			logger.Error("remesh", zap.Error(err))
			app.notify("Error: " + err.Error())
		} else {
			app.mesh = m
			app.dirty = true
			logger.Info("remesh applied",
				zap.Int("iterations", int(app.remeshIterations)),
				zap.Int("triangles", m.TriangleCount()))
		}
	}
	imgui.SameLine()
	if imgui.ButtonV("Back", imgui.NewVec2(80, 0)) {
		app.leaveTool()
	}
	imgui.SameLine()
	if imgui.ButtonV("Cancel", imgui.NewVec2(80, 0)) {
		app.cancelTool()
	}
}

func (app *App) renderSimplifyPanel() {
	imgui.Text("Simplification")
	imgui.Separator()
	imgui.TextWrapped("Collapses edges by quadric error until the target triangle count is reached.")
	imgui.Spacing()

	imgui.SliderFloatV("Ratio", &app.simplifyRatio, 0.001, 1.0, "%.3f", imgui.SliderFlagsNone)
	imgui.SliderFloatV("Aggressiveness", &app.simplifyAggressive, 1.0, 20.0, "%.0f", imgui.SliderFlagsNone)

	base := app.toolBackup.TriangleCount()
	target := int(float32(base) * app.simplifyRatio)
	imgui.Text(fmt.Sprintf("%d -> ~%d triangles", base, target))
	imgui.Spacing()

	if imgui.ButtonV("Apply", imgui.NewVec2(120, 0)) {
		out, err := simplify.Simplify(app.toolBackup, target, float64(app.simplifyAggressive))
		if err != nil {
			logger.Error("simplify", zap.Error(err))
			app.notify("Error: " + err.Error())
		} else {
			app.mesh = out
			app.dirty = true
			logger.Info("simplify applied",
				zap.Int("target", target),
				zap.Int("triangles", out.TriangleCount()))
		}
	}
	imgui.SameLine()
	if imgui.ButtonV("Back", imgui.NewVec2(80, 0)) {
		app.leaveTool()
	}
	imgui.SameLine()
	if imgui.ButtonV("Cancel", imgui.NewVec2(80, 0)) {
		app.cancelTool()
	}
}

// renderViewport draws the offscreen-rendered mesh and forwards mouse
// input to the orbit camera.
func (app *App) renderViewport() {
	avail := imgui.ContentRegionAvail()
	if avail.X < 1 || avail.Y < 1 {
		return
	}

	app.viewer.Resize(int32(avail.X), int32(avail.Y))
	textureID := app.viewer.Render()

	// Display rendered texture (flip V for OpenGL)
	texRef := imgui.NewTextureRefTextureID(imgui.TextureID(textureID))
	imgui.ImageWithBgV(
		*texRef,
		avail,
		imgui.NewVec2(0, 1), // UV flipped
		imgui.NewVec2(1, 0),
		imgui.NewVec4(0, 0, 0, 0),
		imgui.NewVec4(1, 1, 1, 1),
	)

	if imgui.IsItemHovered() {
		mousePos := imgui.MousePos()
		if imgui.IsMouseDragging(imgui.MouseButtonLeft) {
			app.viewer.HandleDrag(mousePos.X-lastMousePos.X, mousePos.Y-lastMousePos.Y)
		}
		lastMousePos = mousePos

		wheel := imgui.CurrentIO().MouseWheel()
		if wheel != 0 {
			app.viewer.HandleZoom(wheel)
		}
	}
}

func (app *App) renderStatusBar() {
	showNotify := app.statusMsg != "" && time.Since(app.statusMsgTime) < 4*time.Second

	if app.mesh.IsEmpty() {
		if showNotify {
			imgui.Text(app.statusMsg)
		} else {
			imgui.Text("No mesh loaded")
		}
		return
	}

	text := fmt.Sprintf("%d vertices | %d triangles", len(app.mesh.Positions), app.mesh.TriangleCount())
	if app.meshPath != "" {
		text += " | " + filepath.Base(app.meshPath)
	}
	if showNotify {
		text += " | " + app.statusMsg
	}
	imgui.Text(text)
}
