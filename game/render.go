package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/physarum/renderer"
)

// Draw renders the fields and the status panel. Graphical mode only.
func (g *Game) Draw() {
	if g.headless {
		return
	}
	g.perfCollector.RecordFrame()

	img := g.renderer.Render(g.sources, g.pal)
	g.viewer.Update(img)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)
	g.viewer.Draw(g.camera, g.status())
	rl.EndDrawing()
}

// status collects the panel contents, including trail values under the cursor.
func (g *Game) status() renderer.Status {
	mouse := rl.GetMousePosition()
	wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)

	fields := g.engine.Fields()
	values := make([]float32, len(fields))
	for i, f := range fields {
		values[i] = f.Data()[f.Index(wx, wy)]
	}

	return renderer.Status{
		Iteration:    g.engine.Iteration(),
		Particles:    g.engine.ParticleCount(),
		Populations:  len(fields),
		Palette:      g.pal.Name,
		TicksPerSec:  g.perfCollector.Stats().TicksPerSecond,
		Paused:       g.paused,
		CursorX:      int(wx),
		CursorY:      int(wy),
		CursorValues: values,
	}
}
