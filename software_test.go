package aspen

import (
	"image"
	"image/color"
	"testing"
)

func newSoftwareTestRig(t *testing.T, width, height int) (*Compositor, *SoftwareVisitor) {
	t.Helper()
	c, _, _ := newTestCompositor(width, height)
	v := NewSoftwareVisitor(width, height)
	c.SetDrawVisitor(v)
	return c, v
}

func assertPixel(t *testing.T, img *image.RGBA, x, y int, want color.RGBA) {
	t.Helper()
	if got := img.RGBAAt(x, y); got != want {
		t.Errorf("pixel (%d, %d) = %v, want %v", x, y, got, want)
	}
}

func TestSoftwareVisitorFillsStageColor(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	c.Stage().SetStageColor(Color{R: 1})
	c.Draw()

	assertPixel(t, v.Image(), 0, 0, color.RGBA{R: 255, A: 255})
	assertPixel(t, v.Image(), 63, 63, color.RGBA{R: 255, A: 255})
	if c.Stage().StageColorChanged() {
		t.Error("stage color change not acknowledged")
	}
}

func TestSoftwareVisitorDrawsQuadAtProjectedBounds(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	box := c.CreateColoredBox(16, 16, Color{G: 1})
	box.Move(8, 8, 0)
	c.Stage().AddActor(box)
	c.Draw()

	green := color.RGBA{G: 255, A: 255}
	assertPixel(t, v.Image(), 8, 8, green)
	assertPixel(t, v.Image(), 23, 23, green)
	// Outside the quad the background (black) shows through.
	assertPixel(t, v.Image(), 7, 8, color.RGBA{A: 255})
	assertPixel(t, v.Image(), 24, 24, color.RGBA{A: 255})
}

func TestSoftwareVisitorBlendsTranslucentQuad(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	c.Stage().SetStageColor(Color{R: 1})
	box := c.CreateColoredBox(64, 64, Color{B: 1})
	box.SetOpacity(0.5, 0)
	c.Stage().AddActor(box)
	c.Draw()

	got := v.Image().RGBAAt(32, 32)
	if got.B < 100 || got.B > 160 || got.R < 100 || got.R > 160 {
		t.Errorf("blended pixel = %v, want roughly half red half blue", got)
	}
}

func TestSoftwareVisitorSkipsOffscreenActors(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	box := c.CreateColoredBox(16, 16, Color{G: 1})
	box.Move(1000, 1000, 0)
	c.Stage().AddActor(box)
	c.Draw()

	for _, p := range []image.Point{{0, 0}, {32, 32}, {63, 63}} {
		assertPixel(t, v.Image(), p.X, p.Y, color.RGBA{A: 255})
	}
}

func TestSoftwareVisitorStacksTopmostLast(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	bottom := c.CreateColoredBox(64, 64, Color{R: 1})
	c.Stage().AddActor(bottom)
	top := c.CreateColoredBox(64, 64, Color{B: 1})
	c.Stage().AddActor(top)
	c.Draw()

	assertPixel(t, v.Image(), 32, 32, color.RGBA{B: 255, A: 255})
}

func TestSoftwareVisitorDrawsBoundImage(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)

	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			src.SetRGBA(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	actor := c.CreateImage()
	actor.SetImageData(NewImageContainer(src.Pix, 2, 2, src.Stride, FormatRGBX32))
	c.Stage().AddActor(actor)
	c.Draw()

	if actor.Width() != 2 || actor.Height() != 2 {
		t.Errorf("actor size = %dx%d, want 2x2", actor.Width(), actor.Height())
	}
	if actor.Texture() == nil {
		t.Fatal("no texture bound")
	}
	if !actor.ImageOpaque() {
		t.Error("RGBX texture reported as carrying alpha")
	}
	assertPixel(t, v.Image(), 0, 0, color.RGBA{R: 255, A: 255})
	assertPixel(t, v.Image(), 1, 1, color.RGBA{R: 255, A: 255})
}

func TestSoftwareVisitorDimsActor(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	box := c.CreateColoredBox(64, 64, Color{R: 1, G: 1, B: 1})
	box.ShowDimmed(true, 0)
	c.Stage().AddActor(box)
	c.Draw()

	got := v.Image().RGBAAt(32, 32)
	if got.R == 255 {
		t.Errorf("pixel = %v, want dimmed below full white", got)
	}
	if got.R < 100 {
		t.Errorf("pixel = %v, dimmed far darker than the 40%% overlay", got)
	}
}

func TestSoftwareVisitorClipsPartialUpdates(t *testing.T) {
	c, v := newSoftwareTestRig(t, 64, 64)
	a := c.CreateTexturePixmap()
	a.setSizeInternal(64, 64)
	c.Stage().AddActor(a)
	c.Draw()

	// Paint a marker, then run a partial frame whose damage excludes it.
	v.Image().SetRGBA(0, 0, color.RGBA{G: 255, A: 255})
	c.Stage().SetStageColor(Color{R: 1})
	c.dirty = false
	a.MergeDamagedRegion(Rect{X: 32, Y: 32, Width: 8, Height: 8})
	c.SetPartiallyDirty()
	c.Draw()

	assertPixel(t, v.Image(), 0, 0, color.RGBA{G: 255, A: 255})
	assertPixel(t, v.Image(), 32, 32, color.RGBA{R: 255, A: 255})
}
