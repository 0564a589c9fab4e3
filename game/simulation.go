package game

// UpdateHeadless runs one update without graphics or input.
func (g *Game) UpdateHeadless() {
	g.step()
}

// Update processes input and advances the simulation unless paused.
func (g *Game) Update() {
	g.handleInput()
	if !g.paused {
		g.step()
	}
}

// step runs stepsPerUpdate engine iterations, flushing telemetry at
// window boundaries.
func (g *Game) step() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.engine.Step()
		g.flushTelemetry()
	}
}
