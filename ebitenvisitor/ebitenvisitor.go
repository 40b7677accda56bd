// Package ebitenvisitor renders an aspen actor tree with Ebitengine.
//
// The visitor draws into a target *ebiten.Image supplied each frame,
// so it slots into an ebiten.Game's Draw method:
//
//	func (g *Game) Draw(screen *ebiten.Image) {
//		g.visitor.SetTarget(screen)
//		g.compositor.Draw()
//	}
package ebitenvisitor

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/phanxgames/aspen"
)

var whitePixelImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(1, 1)
		whitePixelImage.Fill(color.RGBA{R: 255, G: 255, B: 255, A: 255})
	}
	return whitePixelImage
}

// Texture is an aspen.TextureData backed by an ebiten image.
type Texture struct {
	img      *ebiten.Image
	hasAlpha bool
}

// NewTexture wraps an ebiten image as a texture.
func NewTexture(img *ebiten.Image, hasAlpha bool) *Texture {
	return &Texture{img: img, hasAlpha: hasAlpha}
}

// HasAlpha reports whether the texture carries an alpha channel.
func (t *Texture) HasAlpha() bool { return t.hasAlpha }

// Refresh is a no-op: ebiten images are their own backing store.
func (t *Texture) Refresh() {}

// Image returns the backing ebiten image.
func (t *Texture) Image() *ebiten.Image { return t.img }

// Visitor is an aspen.DrawVisitor drawing into an ebiten image. It
// also implements aspen.FrameVisitor to skip everything behind an
// opaque fullscreen actor.
type Visitor struct {
	target *ebiten.Image
	stage  *aspen.Actor
}

// NewVisitor returns a visitor with no target bound yet.
func NewVisitor() *Visitor {
	return &Visitor{}
}

// SetTarget binds the image the next frame is drawn into. Call once
// per ebiten Draw callback with the screen.
func (v *Visitor) SetTarget(target *ebiten.Image) {
	v.target = target
}

// StartFrame begins a frame. Ebiten has no scissor support on the
// screen image, so partial damage is drawn as a full frame.
func (v *Visitor) StartFrame(damage aspen.Rect, hasFullscreenActor bool) {}

// EndFrame completes a frame.
func (v *Visitor) EndFrame() {}

// VisitStage clears the target to the stage color and composites the
// tree back to front.
func (v *Visitor) VisitStage(stage *aspen.Actor) {
	if v.target == nil {
		return
	}
	v.stage = stage
	stage.UnsetWasResized()
	stage.UnsetStageColorChanged()

	c := stage.StageColor()
	v.target.Fill(color.RGBA{
		R: uint8(c.R*255 + 0.5),
		G: uint8(c.G*255 + 0.5),
		B: uint8(c.B*255 + 0.5),
		A: 255,
	})
	aspen.VisitChildrenBackToFront(v, stage)
}

// VisitContainer composites the container's children back to front.
func (v *Visitor) VisitContainer(container *aspen.Actor) {
	if !container.IsVisible() {
		return
	}
	aspen.VisitChildrenBackToFront(v, container)
}

// VisitQuad draws a colored box by scaling the shared white pixel.
func (v *Visitor) VisitQuad(quad *aspen.Actor) {
	if !quad.IsVisible() {
		return
	}
	c := quad.Color()
	a := quad.Opacity()

	var op ebiten.DrawImageOptions
	bounds := aspen.ProjectedBounds(v.stage, quad)
	op.GeoM.Scale(float64(bounds.Width), float64(bounds.Height))
	op.GeoM.Translate(float64(bounds.X), float64(bounds.Y))
	op.ColorScale.Scale(c.R*a, c.G*a, c.B*a, a)
	v.target.DrawImage(whitePixel(), &op)

	v.drawDimming(quad, bounds)
}

// VisitImage draws the actor's bound texture scaled into its projected
// bounds. An unbound image actor draws nothing.
func (v *Visitor) VisitImage(img *aspen.Actor) {
	v.drawTextured(img)
}

// VisitTexturePixmap draws like an image actor; the windowing glue is
// expected to have bound a texture holding the pixmap contents.
func (v *Visitor) VisitTexturePixmap(pixmap *aspen.Actor) {
	v.drawTextured(pixmap)
}

// BindImage uploads the decoded data to the GPU and installs the
// texture on the actor.
func (v *Visitor) BindImage(container *aspen.ImageContainer, img *aspen.Actor) {
	tex := ebiten.NewImageFromImage(container.RGBA())
	img.SetTexture(NewTexture(tex, container.Format().UsesAlpha()))
}

func (v *Visitor) drawTextured(a *aspen.Actor) {
	if !a.IsVisible() {
		return
	}
	tex, ok := a.Texture().(*Texture)
	if !ok || tex == nil {
		return
	}

	bounds := aspen.ProjectedBounds(v.stage, a)
	w := tex.Image().Bounds().Dx()
	h := tex.Image().Bounds().Dy()
	if w == 0 || h == 0 || bounds.Width <= 0 || bounds.Height <= 0 {
		return
	}

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(bounds.Width)/float64(w), float64(bounds.Height)/float64(h))
	op.GeoM.Translate(float64(bounds.X), float64(bounds.Y))
	op.ColorScale.ScaleAlpha(a.Opacity())
	op.Filter = ebiten.FilterLinear
	v.target.DrawImage(tex.Image(), &op)

	v.drawDimming(a, bounds)
}

// drawDimming paints a flat black overlay approximating the dimming
// gradient by the mean of its edge opacities.
func (v *Visitor) drawDimming(a *aspen.Actor, bounds aspen.Rect) {
	if !a.IsDimmed() {
		return
	}
	begin, end := a.DimmedOpacity()
	alpha := (begin + end) / 2 * a.Opacity()

	var op ebiten.DrawImageOptions
	op.GeoM.Scale(float64(bounds.Width), float64(bounds.Height))
	op.GeoM.Translate(float64(bounds.X), float64(bounds.Y))
	op.ColorScale.Scale(0, 0, 0, alpha)
	v.target.DrawImage(whitePixel(), &op)
}
