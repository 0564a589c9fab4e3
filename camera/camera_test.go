package camera

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	cam := New(1024, 1024, 512, 512)

	// Should be centered on world
	if cam.X != 256 || cam.Y != 256 {
		t.Errorf("expected camera at (256, 256), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 2 || cam.MinZoom != 2 {
		t.Errorf("expected fit zoom 2, got zoom %f min %f", cam.Zoom, cam.MinZoom)
	}
	if cam.MaxZoom != 2*maxZoomFactor {
		t.Errorf("expected max zoom %d, got %f", 2*maxZoomFactor, cam.MaxZoom)
	}
}

func TestSourceRectCoversWorldAtFitZoom(t *testing.T) {
	cam := New(1024, 1024, 512, 512)

	x, y, w, h := cam.SourceRect()
	if x != 0 || y != 0 || w != 512 || h != 512 {
		t.Errorf("expected (0,0,512,512), got (%f,%f,%f,%f)", x, y, w, h)
	}

	cam.ZoomBy(2)
	x, y, w, h = cam.SourceRect()
	if x != 128 || y != 128 || w != 256 || h != 256 {
		t.Errorf("expected (128,128,256,256) at 2x, got (%f,%f,%f,%f)", x, y, w, h)
	}
}

func TestScreenToWorld(t *testing.T) {
	cam := New(1024, 1024, 512, 512)

	testCases := []struct {
		sx, sy, wx, wy float32
	}{
		{512, 512, 256, 256}, // center
		{0, 0, 0, 0},         // top-left
		{1022, 2, 511, 1},
	}

	for _, tc := range testCases {
		wx, wy := cam.ScreenToWorld(tc.sx, tc.sy)
		if math.Abs(float64(wx-tc.wx)) > 0.01 || math.Abs(float64(wy-tc.wy)) > 0.01 {
			t.Errorf("(%f,%f) -> (%f,%f), want (%f,%f)", tc.sx, tc.sy, wx, wy, tc.wx, tc.wy)
		}
	}
}

func TestScreenToWorldWraps(t *testing.T) {
	cam := New(1024, 1024, 512, 512)
	cam.X = 10

	wx, _ := cam.ScreenToWorld(0, 512)
	if wx < 256 || wx >= 512 {
		t.Errorf("expected wrapped x on the far side, got %f", wx)
	}
}

func TestPanWraps(t *testing.T) {
	cam := New(1024, 1024, 512, 512)
	cam.X = 10

	// Pan left should wrap to right side of world
	cam.Pan(-100, 0)

	if cam.X != 472 {
		t.Errorf("expected X to wrap to 472, got %f", cam.X)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(800, 600, 1600, 800)

	// MinZoom should be max(800/1600, 600/800) = max(0.5, 0.75) = 0.75
	if math.Abs(float64(cam.MinZoom-0.75)) > 0.001 {
		t.Errorf("expected MinZoom 0.75, got %f", cam.MinZoom)
	}

	cam.SetZoom(0.1) // Below min
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.SetZoom(1000) // Above max
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to %f, got %f", cam.MaxZoom, cam.Zoom)
	}
}

func TestResizeRaisesZoom(t *testing.T) {
	cam := New(512, 512, 512, 512)
	if cam.Zoom != 1 {
		t.Fatalf("expected zoom 1, got %f", cam.Zoom)
	}

	cam.Resize(1024, 768)
	if cam.MinZoom != 2 || cam.Zoom != 2 {
		t.Errorf("expected zoom raised to 2 after resize, got zoom %f min %f", cam.Zoom, cam.MinZoom)
	}
}

func TestReset(t *testing.T) {
	cam := New(1024, 1024, 512, 512)
	cam.X = 50
	cam.Y = 60
	cam.ZoomBy(3)

	cam.Reset()

	if cam.X != 256 || cam.Y != 256 {
		t.Errorf("expected position (256, 256), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom %f, got %f", cam.MinZoom, cam.Zoom)
	}
}
