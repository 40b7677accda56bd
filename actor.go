package aspen

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/chewxy/math32"
)

// Opacities of the dimming overlay a backend paints across a dimmed
// actor, at its left and right edges.
const (
	dimmedOpacityBegin = 0.2
	dimmedOpacityEnd   = 0.6
)

// animField identifies an animatable Actor field. Animations are keyed
// by this enum rather than by field pointer so that slot lookup never
// depends on pointer identity.
type animField uint8

const (
	fieldX animField = iota
	fieldY
	fieldScaleX
	fieldScaleY
	fieldOpacity
	fieldTilt
	fieldDimBegin
	fieldDimEnd
	numAnimFields
)

// TextureData is the native texture resource a draw backend binds to a
// quad actor. It is owned by the actor and released when the actor is
// destroyed or the texture is replaced.
type TextureData interface {
	// HasAlpha reports whether the texture carries an alpha channel.
	HasAlpha() bool
	// Refresh re-uploads the texture from its backing store (e.g. after
	// a pixmap damage event). Backends without such a notion may no-op.
	Refresh()
}

// Actor is a node in the scene graph. A single flat struct is used for
// all actor kinds, tagged by Kind, to avoid interface dispatch during
// traversal. Actors are created through their Compositor's factory
// methods and removed with Destroy.
type Actor struct {
	compositor *Compositor
	kind       ActorKind
	name       string

	// parent is a non-owning back-reference; an actor belongs to at
	// most one container at a time.
	parent   *Actor
	children []*Actor // front-to-back: index 0 is topmost

	x, y          int
	width, height int
	scaleX        float32
	scaleY        float32
	opacity       float32
	tilt          float32

	// z is assigned by the LayerVisitor each dirty frame; callers never
	// set it. culled, isOpaque, and modelView are likewise only valid
	// after a layer pass.
	z         float32
	culled    bool
	isOpaque  bool
	modelView Matrix4

	shown     bool
	destroyed bool

	dimmedBegin float32
	dimmedEnd   float32

	// Quad state.
	color   Color
	texture TextureData

	// Texture-pixmap state.
	pixmap       PixmapID
	pixmapOpaque bool
	damaged      Rect

	// Stage state.
	window            WindowID
	projection        Matrix4
	stageColor        Color
	stageColorChanged bool
	wasResized        bool

	anims            [numAnimFields]*Animation
	visibilityGroups map[int]struct{}
}

// newActor initializes the shared defaults and registers the actor with
// its compositor.
func newActor(c *Compositor, kind ActorKind) *Actor {
	a := &Actor{
		compositor: c,
		kind:       kind,
		width:      1,
		height:     1,
		scaleX:     1,
		scaleY:     1,
		opacity:    1,
		shown:      true,
		modelView:  Identity4(),
	}
	c.addActor(a)
	return a
}

// Destroy detaches the actor from its parent, cancels any in-flight
// animations on its fields, releases its texture, and deregisters it
// from the compositor. The actor must not be used afterwards.
func (a *Actor) Destroy() {
	if a.destroyed {
		return
	}
	for i := range a.anims {
		if a.anims[i] != nil {
			a.anims[i] = nil
			a.compositor.decrementAnimations()
		}
	}
	for _, child := range slices.Clone(a.children) {
		child.parent = nil
	}
	a.children = nil
	if a.parent != nil {
		a.parent.RemoveActor(a)
	}
	a.texture = nil
	a.compositor.removeActor(a)
	a.destroyed = true
	a.SetDirty()
}

// Kind returns the actor's kind tag.
func (a *Actor) Kind() ActorKind { return a.kind }

// Name returns the debugging name, which may be empty.
func (a *Actor) Name() string { return a.name }

// SetName assigns a debugging name.
func (a *Actor) SetName(name string) { a.name = name }

// Parent returns the container currently holding this actor, or nil.
func (a *Actor) Parent() *Actor { return a.parent }

// Children returns the actor's children, front-to-back. The slice is
// owned by the actor and must not be mutated.
func (a *Actor) Children() []*Actor { return a.children }

func (a *Actor) X() int          { return a.x }
func (a *Actor) Y() int          { return a.y }
func (a *Actor) Width() int      { return a.width }
func (a *Actor) Height() int     { return a.height }
func (a *Actor) ScaleX() float32 { return a.scaleX }
func (a *Actor) ScaleY() float32 { return a.scaleY }
func (a *Actor) Opacity() float32 {
	return a.opacity
}
func (a *Actor) Tilt() float32 { return a.tilt }

// Bounds returns the actor's untransformed bounding rectangle.
func (a *Actor) Bounds() Rect {
	return Rect{X: a.x, Y: a.y, Width: a.width, Height: a.height}
}

// Z returns the depth assigned by the most recent layer pass.
func (a *Actor) Z() float32 { return a.z }

func (a *Actor) setZ(z float32) { a.z = z }

// Culled reports whether the most recent layer pass determined the
// actor does not intersect the stage.
func (a *Actor) Culled() bool { return a.culled }

func (a *Actor) setCulled(culled bool) { a.culled = culled }

// IsOpaque reports whether the most recent layer pass determined the
// actor covers what is behind it completely.
func (a *Actor) IsOpaque() bool { return a.isOpaque }

func (a *Actor) setIsOpaque(opaque bool) { a.isOpaque = opaque }

// ModelView returns the model-view matrix computed by the most recent
// layer pass.
func (a *Actor) ModelView() Matrix4 { return a.modelView }

// IsDimmed reports whether a dimming overlay should be painted.
func (a *Actor) IsDimmed() bool { return a.dimmedEnd > visibleOpacityEpsilon }

// DimmedOpacity returns the dimming overlay opacities at the actor's
// left and right edges.
func (a *Actor) DimmedOpacity() (begin, end float32) {
	return a.dimmedBegin, a.dimmedEnd
}

// Color returns the quad fill color.
func (a *Actor) Color() Color { return a.color }

// Texture returns the texture a backend bound to this actor, or nil.
func (a *Actor) Texture() TextureData { return a.texture }

// SetTexture installs (or, with nil, releases) the backend texture for
// this actor. Called by DrawVisitor implementations from BindImage.
func (a *Actor) SetTexture(texture TextureData) { a.texture = texture }

// Show makes the actor eligible for drawing.
func (a *Actor) Show() { a.setIsShown(true) }

// Hide removes the actor (and, implicitly, its subtree) from drawing.
func (a *Actor) Hide() { a.setIsShown(false) }

// IsShown reports whether Show (rather than Hide) was called last.
func (a *Actor) IsShown() bool { return a.shown }

func (a *Actor) setIsShown(shown bool) {
	if a.shown == shown {
		return
	}
	a.shown = shown
	a.SetDirty()
}

// IsVisible reports whether the actor should be rendered: shown, not
// culled, not fully transparent, and in an active visibility group (or
// visibility groups are unused). The stage only checks shown; it has no
// use for groups or opacity.
func (a *Actor) IsVisible() bool {
	if a.kind == ActorStage {
		return a.shown
	}
	return a.shown && !a.culled && a.opacity > visibleOpacityEpsilon &&
		a.inActiveVisibilityGroup()
}

// SetDirty marks the owning compositor's scene as needing a redraw.
func (a *Actor) SetDirty() { a.compositor.SetDirty() }

// --- Mutators ---

// Move animates the actor to (x, y) over duration. A zero duration
// moves it immediately.
func (a *Actor) Move(x, y int, duration time.Duration) {
	a.MoveX(x, duration)
	a.MoveY(y, duration)
}

// MoveX animates the actor's X position.
func (a *Actor) MoveX(x int, duration time.Duration) {
	a.animateField(fieldX, float32(x), duration)
}

// MoveY animates the actor's Y position.
func (a *Actor) MoveY(y int, duration time.Duration) {
	a.animateField(fieldY, float32(y), duration)
}

// Scale animates the actor's scale factors.
func (a *Actor) Scale(scaleX, scaleY float32, duration time.Duration) {
	a.animateField(fieldScaleX, scaleX, duration)
	a.animateField(fieldScaleY, scaleY, duration)
}

// SetOpacity animates the actor's opacity in [0, 1].
func (a *Actor) SetOpacity(opacity float32, duration time.Duration) {
	a.animateField(fieldOpacity, opacity, duration)
}

// SetTilt animates the actor's tilt, a perspective amount in [0, 1]
// rotating the quad around its left edge.
func (a *Actor) SetTilt(tilt float32, duration time.Duration) {
	a.animateField(fieldTilt, tilt, duration)
}

// ShowDimmed fades a dimming overlay in or out over duration.
func (a *Actor) ShowDimmed(dimmed bool, duration time.Duration) {
	var begin, end float32
	if dimmed {
		begin, end = dimmedOpacityBegin, dimmedOpacityEnd
	}
	a.animateField(fieldDimBegin, begin, duration)
	a.animateField(fieldDimEnd, end, duration)
}

// SetSize resizes the actor immediately. Containers ignore the request
// (their bounds derive from their children); the stage also resizes its
// native window.
func (a *Actor) SetSize(width, height int) {
	switch a.kind {
	case ActorContainer:
		log.Warning("ignoring request to set size of a container actor")
	case ActorStage:
		a.setSizeInternal(width, height)
		a.wasResized = true
		if a.compositor.winsys != nil {
			if err := a.compositor.winsys.ResizeWindow(a.window, width, height); err != nil {
				log.Warningf("unable to resize stage window %d: %v", a.window, err)
			}
		}
	default:
		a.setSizeInternal(width, height)
	}
}

func (a *Actor) setSizeInternal(width, height int) {
	a.width = width
	a.height = height
	a.SetDirty()
}

// SetColor changes a colored box's fill color immediately.
func (a *Actor) SetColor(color Color) {
	a.color = color
	a.SetDirty()
}

// --- Field animation ---

func (a *Actor) fieldValue(f animField) float32 {
	switch f {
	case fieldX:
		return float32(a.x)
	case fieldY:
		return float32(a.y)
	case fieldScaleX:
		return a.scaleX
	case fieldScaleY:
		return a.scaleY
	case fieldOpacity:
		return a.opacity
	case fieldTilt:
		return a.tilt
	case fieldDimBegin:
		return a.dimmedBegin
	case fieldDimEnd:
		return a.dimmedEnd
	}
	panic(fmt.Sprintf("aspen: unknown animated field %d", f))
}

func (a *Actor) setFieldValue(f animField, value float32) {
	switch f {
	case fieldX:
		a.x = int(math32.Round(value))
	case fieldY:
		a.y = int(math32.Round(value))
	case fieldScaleX:
		a.scaleX = value
	case fieldScaleY:
		a.scaleY = value
	case fieldOpacity:
		a.opacity = value
	case fieldTilt:
		a.tilt = value
	case fieldDimBegin:
		a.dimmedBegin = value
	case fieldDimEnd:
		a.dimmedEnd = value
	default:
		panic(fmt.Sprintf("aspen: unknown animated field %d", f))
	}
}

// animateField moves a field to value over duration. With a zero (or
// negative) duration the field is set immediately and any running
// animation on it is cancelled; otherwise a new animation replaces
// whatever was running. Starting a new animation never blends with the
// old one.
func (a *Actor) animateField(f animField, value float32, duration time.Duration) {
	// Not animating and already at the target: nothing to do.
	if a.anims[f] == nil && value == a.fieldValue(f) {
		return
	}

	if duration > 0 {
		anim := NewAnimation(a.fieldValue(f), a.compositor.clock.Now())
		anim.AppendKeyframe(value, duration)
		if a.anims[f] == nil {
			a.compositor.incrementAnimations()
		}
		a.anims[f] = anim
	} else {
		if a.anims[f] != nil {
			a.anims[f] = nil
			a.compositor.decrementAnimations()
		}
		a.setFieldValue(f, value)
		a.SetDirty()
	}
}

// CreateMoveAnimation returns a keyframe animation pair for the actor's
// X and Y positions, starting at their current values. Install it with
// SetMoveAnimation after appending keyframes.
func (a *Actor) CreateMoveAnimation() *AnimationPair {
	now := a.compositor.clock.Now()
	return NewAnimationPair(
		NewAnimation(float32(a.x), now),
		NewAnimation(float32(a.y), now),
	)
}

// SetMoveAnimation installs a pair created by CreateMoveAnimation,
// replacing any running X/Y animations.
func (a *Actor) SetMoveAnimation(pair *AnimationPair) {
	a.setAnimation(fieldX, pair.First())
	a.setAnimation(fieldY, pair.Second())
}

func (a *Actor) setAnimation(f animField, anim *Animation) {
	if a.anims[f] == nil {
		a.compositor.incrementAnimations()
	}
	a.anims[f] = anim
}

func (a *Actor) hasAnimations() bool {
	for i := range a.anims {
		if a.anims[i] != nil {
			return true
		}
	}
	return false
}

// Update advances the actor's animations to now, retiring any that have
// finished, and counts the actors visited. Containers update their
// children first. Any actor with a live animation re-dirties the scene.
func (a *Actor) Update(count *int, now time.Time) {
	if a.kind == ActorContainer || a.kind == ActorStage {
		for _, child := range a.children {
			child.Update(count, now)
		}
	}
	*count++
	if !a.hasAnimations() {
		return
	}
	a.SetDirty()
	for f := animField(0); f < numAnimFields; f++ {
		anim := a.anims[f]
		if anim == nil {
			continue
		}
		a.setFieldValue(f, anim.GetValue(now))
		if anim.IsDone(now) {
			a.anims[f] = nil
			a.compositor.decrementAnimations()
		}
	}
}

// --- Tree manipulation ---

// AddActor inserts child as this container's topmost child. The child
// must not already have a parent, and adding it must not create a
// cycle; both are caller contract breaches.
func (a *Actor) AddActor(child *Actor) {
	if child == nil {
		panic("aspen: cannot add nil actor")
	}
	if a.kind != ActorContainer && a.kind != ActorStage {
		panic("aspen: cannot add a child to a non-container actor")
	}
	if child.parent != nil {
		panic("aspen: actor already belongs to a container")
	}
	if isAncestor(child, a) {
		panic("aspen: adding actor would create a cycle")
	}
	if globalDebug {
		debugCheckDestroyed(a, "AddActor (container)")
		debugCheckDestroyed(child, "AddActor (child)")
		debugCheckTreeDepth(child)
	}
	child.parent = a
	a.children = slices.Insert(a.children, 0, child)
	a.SetDirty()
}

// RemoveActor detaches child from this container, nulling its parent
// back-reference. Unknown children are ignored; the caller may be
// removing an actor mid-destruction.
func (a *Actor) RemoveActor(child *Actor) {
	i := slices.Index(a.children, child)
	if i < 0 {
		return
	}
	a.children = slices.Delete(a.children, i, i+1)
	child.parent = nil
	a.SetDirty()
}

// isAncestor reports whether candidate is node or one of its ancestors.
func isAncestor(candidate, node *Actor) bool {
	for p := node; p != nil; p = p.parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// HasChildren reports whether the actor currently holds children.
func (a *Actor) HasChildren() bool { return len(a.children) > 0 }

// --- Stacking ---

// Raise stacks the actor directly above other, which must be a sibling.
// Raising an actor above itself is a logged no-op; raising an actor
// with no parent is a caller contract breach.
func (a *Actor) Raise(other *Actor) {
	if a.parent == nil {
		panic("aspen: raising an actor that has no parent")
	}
	if other == a {
		log.Errorf("got request to raise actor %q above itself", a.name)
		return
	}
	a.parent.raiseChild(a, other)
	a.SetDirty()
}

// Lower stacks the actor directly below other, which must be a sibling.
func (a *Actor) Lower(other *Actor) {
	if a.parent == nil {
		panic("aspen: lowering an actor that has no parent")
	}
	if other == a {
		log.Errorf("got request to lower actor %q below itself", a.name)
		return
	}
	a.parent.lowerChild(a, other)
	a.SetDirty()
}

// RaiseToTop makes the actor its parent's topmost child.
func (a *Actor) RaiseToTop() {
	if a.parent == nil {
		panic("aspen: raising an actor that has no parent")
	}
	a.parent.raiseChild(a, nil)
	a.SetDirty()
}

// LowerToBottom makes the actor its parent's bottommost child.
func (a *Actor) LowerToBottom() {
	if a.parent == nil {
		panic("aspen: lowering an actor that has no parent")
	}
	a.parent.lowerChild(a, nil)
	a.SetDirty()
}

// raiseChild moves child directly above above in the child order, or to
// the top when above is nil.
func (a *Actor) raiseChild(child, above *Actor) {
	if child == above {
		return
	}
	i := slices.Index(a.children, child)
	if i < 0 {
		log.Warningf("attempted to raise actor %q that is not a child of %q", child.name, a.name)
		return
	}
	a.children = slices.Delete(a.children, i, i+1)
	if above == nil {
		a.children = slices.Insert(a.children, 0, child)
		return
	}
	j := slices.Index(a.children, above)
	if j < 0 {
		log.Warningf("attempted to raise actor %q above %q, which is not a sibling", child.name, above.name)
		a.children = slices.Insert(a.children, i, child)
		return
	}
	a.children = slices.Insert(a.children, j, child)
}

// lowerChild moves child directly below below in the child order, or to
// the bottom when below is nil.
func (a *Actor) lowerChild(child, below *Actor) {
	if child == below {
		return
	}
	i := slices.Index(a.children, child)
	if i < 0 {
		log.Warningf("attempted to lower actor %q that is not a child of %q", child.name, a.name)
		return
	}
	a.children = slices.Delete(a.children, i, i+1)
	if below == nil {
		a.children = append(a.children, child)
		return
	}
	j := slices.Index(a.children, below)
	if j < 0 {
		log.Warningf("attempted to lower actor %q below %q, which is not a sibling", child.name, below.name)
		a.children = slices.Insert(a.children, i, child)
		return
	}
	a.children = slices.Insert(a.children, j+1, child)
}

// --- Visibility groups ---

// AddToVisibilityGroup adds the actor to a visibility group. When the
// compositor's active-group set is non-empty, only actors belonging to
// an active group are drawn.
func (a *Actor) AddToVisibilityGroup(groupID int) {
	if a.visibilityGroups == nil {
		a.visibilityGroups = make(map[int]struct{})
	}
	a.visibilityGroups[groupID] = struct{}{}
	if a.compositor.usingVisibilityGroups() {
		a.SetDirty()
	}
}

// RemoveFromVisibilityGroup removes the actor from a visibility group.
func (a *Actor) RemoveFromVisibilityGroup(groupID int) {
	delete(a.visibilityGroups, groupID)
	if a.compositor.usingVisibilityGroups() {
		a.SetDirty()
	}
}

func (a *Actor) inActiveVisibilityGroup() bool {
	if !a.compositor.usingVisibilityGroups() {
		return true
	}
	for id := range a.visibilityGroups {
		if _, ok := a.compositor.activeVisibilityGroups[id]; ok {
			return true
		}
	}
	return false
}

// --- Model view ---

// tilt below this is treated as no tilt at all.
const tiltEpsilon = 0.001

// UpdateModelView recomputes the actor's model-view matrix from its
// parent's matrix and its own transform state. Called by the layer pass
// each dirty frame; the stage updates a projection instead (see
// UpdateProjection).
func (a *Actor) UpdateModelView() {
	if a.kind == ActorStage {
		return
	}

	mv := Identity4()
	if a.parent != nil {
		mv = a.parent.modelView
	}

	// Containers don't translate by Z: their children carry absolute
	// depths from the layer pass.
	z := a.z
	if a.kind == ActorContainer {
		z = 0
	}
	mv = mv.Mul(Translation4(float32(a.x), float32(a.y), z))
	mv = mv.Mul(Scaling4(float32(a.width)*a.scaleX, float32(a.height)*a.scaleY, 1))

	if a.kind != ActorContainer && a.tilt > tiltEpsilon {
		// Post-multiply the perspective shear and a Y rotation so that
		// all other model-view ops happen outside the perspective
		// transform.
		mv = mv.Mul(tiltShear)
		mv = mv.Mul(RotationY4(a.tilt * math32.Pi / 2))
	}
	a.modelView = mv
}

// IsTransformed reports whether the model-view matrix applies anything
// beyond mapping the actor's origin and dimensions directly to window
// coordinates at depth Z. Backends use it to take blit fast paths.
func (a *Actor) IsTransformed() bool {
	m := a.modelView
	// Off-axis entries must come from the identity.
	if m[1] != 0 || m[2] != 0 || m[3] != 0 ||
		m[4] != 0 || m[6] != 0 || m[7] != 0 ||
		m[8] != 0 || m[9] != 0 || m[10] != 1 || m[11] != 0 ||
		m[15] != 1 {
		return true
	}
	// Scale must be exactly the actor dimensions.
	if m[0] != float32(a.width) || m[5] != float32(a.height) {
		return true
	}
	// Translation must be exactly the actor origin.
	if m[12] != float32(a.x) || m[13] != float32(a.y) || m[14] != a.z {
		return true
	}
	return false
}

// --- Debugging ---

// DebugString returns a human-readable dump of the actor and, for
// containers, its subtree.
func (a *Actor) DebugString(indentLevel int) string {
	var b strings.Builder
	shown := ""
	if !a.shown {
		shown = "hidden "
	}
	fmt.Fprintf(&b, "%s%q (%s%s) (%d, %d) %dx%d scale=(%.2f, %.2f) %.2f%% tilt=%.2f\n",
		strings.Repeat("  ", indentLevel), a.name, shown, a.kind,
		a.x, a.y, a.width, a.height, a.scaleX, a.scaleY, a.opacity, a.tilt)
	for _, child := range a.children {
		b.WriteString(child.DebugString(indentLevel + 1))
	}
	return b.String()
}
