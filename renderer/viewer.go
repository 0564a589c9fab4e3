package renderer

import (
	"fmt"
	"image"
	"image/color"
	"unsafe"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/camera"
)

const (
	panelWidth  = 240
	panelHeight = 136
	panelMargin = 10
	lineHeight  = 20
)

// Status is the read-only information shown in the viewer panel.
type Status struct {
	Iteration   int
	Particles   int
	Populations int
	Palette     string
	TicksPerSec float64
	Paused      bool

	// Cell under the cursor and each population's trail value there
	CursorX, CursorY int
	CursorValues     []float32
}

// Viewer shows the visible part of a rendered image through a camera, with
// a status panel.
type Viewer struct {
	tex         rl.Texture2D
	texW, texH  int
	initialized bool
	showPanel   bool
}

// NewViewer creates a viewer. Init must be called after the raylib window exists.
func NewViewer() *Viewer {
	return &Viewer{showPanel: true}
}

// Init allocates the GPU texture for width×height images.
func (v *Viewer) Init(width, height int) {
	if v.initialized {
		return
	}
	v.texW = width
	v.texH = height

	img := rl.GenImageColor(width, height, rl.Black)
	v.tex = rl.LoadTextureFromImage(img)
	rl.SetTextureFilter(v.tex, rl.FilterBilinear)
	rl.SetTextureWrap(v.tex, rl.WrapRepeat)
	rl.UnloadImage(img)

	v.initialized = true
}

// TogglePanel shows or hides the status panel.
func (v *Viewer) TogglePanel() { v.showPanel = !v.showPanel }

// Update uploads img to the texture.
func (v *Viewer) Update(img *image.RGBA) {
	b := img.Bounds()
	if !v.initialized {
		v.Init(b.Dx(), b.Dy())
	}
	if b.Dx() != v.texW || b.Dy() != v.texH {
		return
	}
	// image.RGBA stores pixels as packed R,G,B,A bytes, the same layout as color.RGBA.
	pixels := unsafe.Slice((*color.RGBA)(unsafe.Pointer(unsafe.SliceData(img.Pix))), v.texW*v.texH)
	rl.UpdateTexture(v.tex, pixels)
}

// Draw renders the camera's view of the texture over the screen, then the panel.
func (v *Viewer) Draw(cam *camera.Camera, status Status) {
	if !v.initialized {
		return
	}

	x, y, w, h := cam.SourceRect()
	srcRect := rl.Rectangle{X: x, Y: y, Width: w, Height: h}
	dstRect := rl.Rectangle{X: 0, Y: 0, Width: cam.ViewportW, Height: cam.ViewportH}
	rl.DrawTexturePro(v.tex, srcRect, dstRect, rl.Vector2{}, 0, rl.White)

	if v.showPanel {
		drawStatusPanel(status)
	}
}

func drawStatusPanel(s Status) {
	x := float32(panelMargin)
	y := float32(panelMargin)
	gui.Panel(rl.Rectangle{X: x, Y: y, Width: panelWidth, Height: panelHeight}, "physarum")

	iteration := fmt.Sprintf("Iteration: %d", s.Iteration)
	if s.Paused {
		iteration += "  [paused]"
	}
	lines := []string{
		iteration,
		fmt.Sprintf("Particles: %d", s.Particles),
		fmt.Sprintf("Populations: %d  (%s)", s.Populations, s.Palette),
		fmt.Sprintf("Ticks/sec: %.1f", s.TicksPerSec),
		fmt.Sprintf("Cell (%d, %d): %s", s.CursorX, s.CursorY, formatValues(s.CursorValues)),
	}
	y += 28
	for _, line := range lines {
		gui.Label(rl.Rectangle{X: x + 8, Y: y, Width: panelWidth - 16, Height: lineHeight}, line)
		y += lineHeight
	}
}

func formatValues(values []float32) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%.2f", v)
	}
	return out
}

// Unload frees GPU resources.
func (v *Viewer) Unload() {
	if !v.initialized {
		return
	}
	rl.UnloadTexture(v.tex)
	v.initialized = false
}
