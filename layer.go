package aspen

import "github.com/chewxy/math32"

// Layer depths are projected into this range. The number of layers is
// not limited to 4096; the usable count depends on the actor count and
// the depth-buffer precision of the backend.
const (
	MinDepth float32 = 0
	MaxDepth float32 = 4096 + MinDepth
)

type cullingResult int

const (
	cullingOffscreen cullingResult = iota
	cullingOnscreen
	cullingFullscreen
)

// boundingBox is an axis-aligned box in normalized device coordinates,
// where (-1, -1) is the bottom-left of the stage and (1, 1) the
// top-right.
type boundingBox struct {
	xMin, xMax, yMin, yMax float32
}

func (b *boundingBox) clear() { *b = boundingBox{} }

// merge grows the box to cover other. Degenerate (zero-area) boxes on
// either side are treated as empty.
func (b *boundingBox) merge(other boundingBox) {
	if other.xMin == other.xMax || other.yMin == other.yMax {
		return
	}
	if b.xMin == b.xMax || b.yMin == b.yMax {
		*b = other
		return
	}
	b.xMin = math32.Min(b.xMin, other.xMin)
	b.xMax = math32.Max(b.xMax, other.xMax)
	b.yMin = math32.Min(b.yMin, other.yMin)
	b.yMax = math32.Max(b.yMax, other.yMax)
}

func (b boundingBox) onScreen() bool {
	return !(b.xMax <= -1 || b.xMin >= 1 || b.yMax <= -1 || b.yMin >= 1)
}

func (b boundingBox) fullScreen() bool {
	return b.xMax >= 1 && b.xMin <= -1 && b.yMax >= 1 && b.yMin <= -1
}

// transformedBoundingBox maps a region in the actor's unit coordinates
// (top-left (0, 0) to bottom-right (1, 1)) through the stage projection
// and the actor's model-view, with perspective divide, and returns the
// NDC bounding box of the result.
func transformedBoundingBox(stage, actor *Actor, region boundingBox) boundingBox {
	transform := stage.projection.Mul(actor.modelView)

	corners := [4]Vector4{
		{X: region.xMin, Y: region.yMin, W: 1},
		{X: region.xMin, Y: region.yMax, W: 1},
		{X: region.xMax, Y: region.yMax, W: 1},
		{X: region.xMax, Y: region.yMin, W: 1},
	}
	var box boundingBox
	for i, c := range corners {
		v := transform.MulVec4(c).PerspDiv()
		if i == 0 {
			box = boundingBox{xMin: v.X, xMax: v.X, yMin: v.Y, yMax: v.Y}
			continue
		}
		box.xMin = math32.Min(box.xMin, v.X)
		box.xMax = math32.Max(box.xMax, v.X)
		box.yMin = math32.Min(box.yMin, v.Y)
		box.yMax = math32.Max(box.yMax, v.Y)
	}
	return box
}

var unitRegion = boundingBox{xMin: 0, xMax: 1, yMin: 0, yMax: 1}

// cullingTest classifies the actor's projected quad against the stage.
func cullingTest(stage, actor *Actor) cullingResult {
	box := transformedBoundingBox(stage, actor, unitRegion)
	if !box.onScreen() {
		return cullingOffscreen
	}
	if box.fullScreen() {
		return cullingFullscreen
	}
	return cullingOnscreen
}

// ProjectedBounds maps the actor's quad through the stage projection
// and the actor's model-view and returns its bounding rectangle in
// stage pixel coordinates (origin top-left), rounded outward. Valid
// only after a layer pass. Backends use it to place quads.
func ProjectedBounds(stage, actor *Actor) Rect {
	box := transformedBoundingBox(stage, actor, unitRegion)
	return ndcToPixels(box, stage.width, stage.height)
}

// ndcToPixels converts an NDC box to an outward-rounded pixel rectangle
// with the origin at the top-left of the stage.
func ndcToPixels(box boundingBox, stageWidth, stageHeight int) Rect {
	xMin := (box.xMin + 1) / 2 * float32(stageWidth)
	xMax := (box.xMax + 1) / 2 * float32(stageWidth)
	// NDC Y points up; pixel Y points down.
	yMin := (1 - box.yMax) / 2 * float32(stageHeight)
	yMax := (1 - box.yMin) / 2 * float32(stageHeight)

	x := int(math32.Floor(xMin))
	y := int(math32.Floor(yMin))
	// To stay conservative the subtraction must happen after rounding.
	return Rect{
		X:      x,
		Y:      y,
		Width:  int(math32.Ceil(xMax)) - x,
		Height: int(math32.Ceil(yMax)) - y,
	}
}

// LayerVisitor updates actors' z-depths, opacity flags, model-view
// matrices, and culling state. It traverses the tree once per dirty
// frame, before the draw visitor, and records composition facts (top
// fullscreen actor, damage union) the compositor and backends use for
// optimization.
type LayerVisitor struct {
	depth          float32
	layerThickness float32
	count          int

	hasFullscreenActor bool
	stage              *Actor

	// True until the first visible quad has been visited; used to spot
	// the topmost visible actor.
	visitingTopVisibleActor bool

	// The texture-pixmap actor that is both topmost visible and
	// fullscreen this frame, or nil.
	topFullscreenActor *Actor

	// Union of damaged regions in NDC space, accumulated only in
	// partial-update mode.
	updatedArea       boundingBox
	usePartialUpdates bool
}

// NewLayerVisitor returns a visitor for a tree of actorCount actors.
// With usePartialUpdates, per-actor damage is unioned into a frame
// damage rectangle retrievable from DamagedRegion.
func NewLayerVisitor(actorCount int, usePartialUpdates bool) *LayerVisitor {
	return &LayerVisitor{
		count:                   actorCount,
		visitingTopVisibleActor: true,
		usePartialUpdates:       usePartialUpdates,
	}
}

// HasFullscreenActor reports whether an opaque actor covering the whole
// stage was found; everything behind it is culled.
func (v *LayerVisitor) HasFullscreenActor() bool { return v.hasFullscreenActor }

// TopFullscreenActor returns the texture-pixmap actor that is topmost
// visible and fullscreen this frame, or nil.
func (v *LayerVisitor) TopFullscreenActor() *Actor { return v.topFullscreenActor }

// VisitStage runs the layer pass over the stage's tree.
func (v *LayerVisitor) VisitStage(stage *Actor) {
	if !stage.IsVisible() {
		return
	}

	// Use the next power of two of the actor count to avoid roundoff
	// error when slicing the depth range, and reserve an empty guard
	// layer at each extreme so no actor lands on a range boundary.
	sliceCount := nextPowerOfTwo(uint32(v.count + 2))
	v.layerThickness = (MaxDepth - MinDepth) / float32(sliceCount)
	v.depth = MinDepth + v.layerThickness

	v.stage = stage
	v.topFullscreenActor = nil
	v.visitingTopVisibleActor = true
	v.hasFullscreenActor = false
	if v.usePartialUpdates {
		v.updatedArea.clear()
	}

	stage.UpdateProjection()
	v.visitContainer(stage)
}

// visit dispatches on the actor kind.
func (v *LayerVisitor) visit(a *Actor) {
	switch a.kind {
	case ActorContainer:
		v.visitContainer(a)
	case ActorColoredBox:
		// A plain colored box has no texture, so its pixels are opaque.
		v.visitTexturedQuad(a, true)
	case ActorImage:
		v.visitTexturedQuad(a, a.ImageOpaque())
	case ActorTexturePixmap:
		v.visitTexturePixmap(a)
	case ActorStage:
		v.VisitStage(a)
	}
}

// visitActor assigns the next depth slice and the base opacity flag.
func (v *LayerVisitor) visitActor(a *Actor) {
	a.setZ(v.depth)
	v.depth += v.layerThickness
	a.setIsOpaque(a.opacity > opaqueOpacityEpsilon)
}

// visitContainer visits the children front-to-back, then assigns the
// container a depth behind all of them. Containers are not culling
// targets: they have no visible bounds of their own.
func (v *LayerVisitor) visitContainer(a *Actor) {
	if !a.IsVisible() {
		return
	}

	// Containers don't use z in their model view, so there's no need to
	// assign the depth first.
	a.UpdateModelView()

	for _, child := range a.children {
		v.visit(child)
	}

	v.visitActor(a)
}

// visitTexturedQuad handles the shared quad path: depth assignment,
// opacity flag, and the culling test. textureOpaque tells whether the
// quad's pixels carry no alpha.
func (v *LayerVisitor) visitTexturedQuad(a *Actor, textureOpaque bool) {
	// Anything behind an opaque fullscreen actor is culled without
	// running its projection test.
	a.setCulled(v.hasFullscreenActor)
	if !a.IsVisible() {
		return
	}

	v.visitActor(a)
	a.setIsOpaque(a.isOpaque && textureOpaque)

	// The model-view must be current before the culling test.
	a.UpdateModelView()
	result := cullingTest(v.stage, a)

	a.setCulled(result == cullingOffscreen)
	if a.culled {
		return
	}

	if a.isOpaque && result == cullingFullscreen {
		v.hasFullscreenActor = true
	}
	v.visitingTopVisibleActor = false
}

// visitTexturePixmap extends the quad path with top-fullscreen tracking
// and damage accumulation.
func (v *LayerVisitor) visitTexturePixmap(a *Actor) {
	wasTopVisible := v.visitingTopVisibleActor
	// The pixmap's own opacity stands in for the texture's: backends
	// bind texture data only after this pass has run.
	v.visitTexturedQuad(a, a.pixmapOpaque)

	if !a.IsVisible() || a.width <= 0 || a.height <= 0 {
		return
	}

	if wasTopVisible && v.hasFullscreenActor {
		v.topFullscreenActor = a
	}

	if v.usePartialUpdates {
		v.updatedArea.merge(v.damageInNDC(a))
	}
	a.ResetDamagedRegion()
}

// damageInNDC maps the actor's damaged rectangle (actor pixel
// coordinates) into normalized device coordinates through the actor's
// current transform.
func (v *LayerVisitor) damageInNDC(a *Actor) boundingBox {
	d := a.DamagedRegion()
	region := boundingBox{
		xMin: float32(d.X) / float32(a.width),
		xMax: float32(d.X+d.Width) / float32(a.width),
		yMin: float32(d.Y) / float32(a.height),
		yMax: float32(d.Y+d.Height) / float32(a.height),
	}
	return transformedBoundingBox(v.stage, a, region)
}

// DamagedRegion returns the union of all damage seen during the
// traversal as a stage pixel rectangle (origin top-left), rounded
// outward to stay conservative. Empty unless the visitor was created
// with partial updates enabled.
func (v *LayerVisitor) DamagedRegion(stageWidth, stageHeight int) Rect {
	if !v.usePartialUpdates {
		return Rect{}
	}
	if v.updatedArea == (boundingBox{}) {
		return Rect{}
	}
	return ndcToPixels(v.updatedArea, stageWidth, stageHeight)
}
