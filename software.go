package aspen

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// SoftwareTexture is a TextureData backed by a plain in-memory RGBA
// image.
type SoftwareTexture struct {
	img      *image.RGBA
	hasAlpha bool
}

// NewSoftwareTexture wraps an RGBA image as a texture.
func NewSoftwareTexture(img *image.RGBA, hasAlpha bool) *SoftwareTexture {
	return &SoftwareTexture{img: img, hasAlpha: hasAlpha}
}

// HasAlpha reports whether the texture carries an alpha channel.
func (t *SoftwareTexture) HasAlpha() bool { return t.hasAlpha }

// Refresh is a no-op: the backing image is read directly at draw time.
func (t *SoftwareTexture) Refresh() {}

// Image returns the backing image.
func (t *SoftwareTexture) Image() *image.RGBA { return t.img }

// SoftwareVisitor composites the actor tree into an in-memory image.
// It needs no GPU or window, which makes it the backend for headless
// rendering and tests. It implements DrawVisitor and FrameVisitor.
type SoftwareVisitor struct {
	img *image.RGBA

	// dst is the frame's draw target: the whole image, or a sub-image
	// clipped to the damage rectangle in partial-update frames.
	dst *image.RGBA

	stage *Actor
}

// NewSoftwareVisitor returns a visitor rendering into a new image of
// the given size.
func NewSoftwareVisitor(width, height int) *SoftwareVisitor {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	return &SoftwareVisitor{img: img, dst: img}
}

// Image returns the image holding the most recently composited frame.
func (v *SoftwareVisitor) Image() *image.RGBA { return v.img }

// StartFrame clips drawing to the damage rectangle; a full redraw
// passes an empty rectangle and draws everywhere.
func (v *SoftwareVisitor) StartFrame(damage Rect, hasFullscreenActor bool) {
	v.dst = v.img
	if !damage.Empty() {
		clip := image.Rect(damage.X, damage.Y, damage.X+damage.Width, damage.Y+damage.Height)
		v.dst = v.img.SubImage(clip.Intersect(v.img.Bounds())).(*image.RGBA)
	}
}

// EndFrame completes the frame.
func (v *SoftwareVisitor) EndFrame() {
	v.dst = v.img
}

// VisitStage fills the background and composites the tree back to
// front.
func (v *SoftwareVisitor) VisitStage(stage *Actor) {
	v.stage = stage
	if stage.WasResized() {
		v.img = image.NewRGBA(image.Rect(0, 0, stage.Width(), stage.Height()))
		v.dst = v.img
		stage.UnsetWasResized()
	}
	stage.UnsetStageColorChanged()

	xdraw.Draw(v.dst, v.dst.Bounds(), image.NewUniform(rgbaColor(stage.StageColor(), 1)),
		image.Point{}, xdraw.Src)
	VisitChildrenBackToFront(v, stage)
}

// VisitContainer composites the container's children back to front.
func (v *SoftwareVisitor) VisitContainer(container *Actor) {
	if !container.IsVisible() {
		return
	}
	VisitChildrenBackToFront(v, container)
}

// VisitQuad fills the quad's projected bounds with its color, blended
// by its opacity.
func (v *SoftwareVisitor) VisitQuad(quad *Actor) {
	if !quad.IsVisible() {
		return
	}
	bounds := v.pixelBounds(quad)
	xdraw.Draw(v.dst, bounds, image.NewUniform(rgbaColor(quad.Color(), quad.Opacity())),
		image.Point{}, xdraw.Over)
	v.drawDimming(quad, bounds)
}

// VisitImage scales the bound texture into the actor's projected
// bounds. An unbound image actor draws nothing.
func (v *SoftwareVisitor) VisitImage(img *Actor) {
	v.drawTextured(img)
}

// VisitTexturePixmap draws like an image actor; the windowing glue is
// expected to have bound a texture holding the pixmap contents.
func (v *SoftwareVisitor) VisitTexturePixmap(pixmap *Actor) {
	v.drawTextured(pixmap)
}

// BindImage converts the decoded data to a software texture and
// installs it on the actor.
func (v *SoftwareVisitor) BindImage(container *ImageContainer, img *Actor) {
	img.SetTexture(NewSoftwareTexture(container.RGBA(), container.Format().UsesAlpha()))
}

func (v *SoftwareVisitor) drawTextured(a *Actor) {
	if !a.IsVisible() {
		return
	}
	tex, ok := a.Texture().(*SoftwareTexture)
	if !ok || tex == nil {
		return
	}
	bounds := v.pixelBounds(a)

	var opts *xdraw.Options
	if a.Opacity() < 1 {
		opts = &xdraw.Options{
			SrcMask: image.NewUniform(color.Alpha{A: uint8(a.Opacity()*255 + 0.5)}),
		}
	}
	xdraw.ApproxBiLinear.Scale(v.dst, bounds, tex.Image(), tex.Image().Bounds(), xdraw.Over, opts)
	v.drawDimming(a, bounds)
}

// drawDimming paints a flat black overlay approximating the dimming
// gradient by the mean of its edge opacities.
func (v *SoftwareVisitor) drawDimming(a *Actor, bounds image.Rectangle) {
	if !a.IsDimmed() {
		return
	}
	begin, end := a.DimmedOpacity()
	overlay := rgbaColor(Color{}, (begin+end)/2*a.Opacity())
	xdraw.Draw(v.dst, bounds, image.NewUniform(overlay), image.Point{}, xdraw.Over)
}

func (v *SoftwareVisitor) pixelBounds(a *Actor) image.Rectangle {
	r := ProjectedBounds(v.stage, a)
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// rgbaColor converts a float color and opacity to a premultiplied
// 8-bit color.
func rgbaColor(c Color, opacity float32) color.RGBA {
	clamp := func(v float32) uint8 {
		if v <= 0 {
			return 0
		}
		if v >= 1 {
			return 255
		}
		return uint8(v*255 + 0.5)
	}
	return color.RGBA{
		R: clamp(c.R * opacity),
		G: clamp(c.G * opacity),
		B: clamp(c.B * opacity),
		A: clamp(opacity),
	}
}
