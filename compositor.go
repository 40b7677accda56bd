package aspen

import (
	"slices"
	"time"
)

// DefaultTickInterval is the minimum time between scene redraws.
const DefaultTickInterval = 16 * time.Millisecond

// Clock supplies the current time. The compositor never reads the wall
// clock directly so that tests can drive time by hand.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Scheduler is the slice of the event loop the compositor needs for its
// redraw timeout. EventLoop implements it.
type Scheduler interface {
	// AddTimeout schedules fn to run after initial and then every
	// recurring (one-shot when recurring is zero), returning a handle.
	AddTimeout(fn func(), initial, recurring time.Duration) int
	// ResetTimeout reschedules an existing timeout.
	ResetTimeout(id int, initial, recurring time.Duration)
	// SuspendTimeout stops a timeout from firing until it is reset.
	SuspendTimeout(id int)
	// RemoveTimeout deregisters a timeout.
	RemoveTimeout(id int)
}

// WindowSystem is the windowing-protocol boundary: it supplies pixmap
// geometry and manages the stage's native window. Implementations live
// outside this package.
type WindowSystem interface {
	// PixmapGeometry returns the size and bit depth of a pixmap.
	PixmapGeometry(pixmap PixmapID) (width, height, depth int, err error)
	ResizeWindow(window WindowID, width, height int) error
	DestroyWindow(window WindowID) error
}

// CompositionChangeListener is notified when the screen area consumed
// by the actors changes in a way backends and power management care
// about.
type CompositionChangeListener interface {
	// HandleTopFullscreenActorChange reports the texture-pixmap actor
	// that is topmost and fullscreen, or nil when no actor qualifies.
	HandleTopFullscreenActorChange(actor *Actor)
}

// Compositor owns the actor tree and the stage, runs the per-tick draw
// cycle, and manages the redraw timeout. All methods must be called
// from the event-loop goroutine; the compositor performs no locking.
type Compositor struct {
	sched  Scheduler
	clock  Clock
	winsys WindowSystem

	tickInterval time.Duration

	// dirty means the whole scene needs a redraw; partiallyDirty means
	// accumulated pixmap damage needs compositing but the scene
	// otherwise stands.
	dirty          bool
	partiallyDirty bool

	// Total number of in-progress animations, across all actors.
	numAnimations int

	// Flat registry of every live actor.
	actors []*Actor

	stage *Actor

	// Actor count as of the last Update pass; sizes the depth slices.
	actorCount int

	drawVisitor DrawVisitor

	lastDrawTime time.Time

	timeoutID      int
	timeoutEnabled bool

	// Visibility groups currently drawn. Empty means groups are unused
	// and every eligible actor is drawn.
	activeVisibilityGroups map[int]struct{}

	// Top fullscreen actor of the previous frame, to detect changes.
	prevTopFullscreenActor *Actor

	listeners []CompositionChangeListener
}

// NewCompositor creates a compositor whose stage is bound to the given
// native window with the given size. The scheduler and clock are
// injected so callers control ticking and time; winsys may be nil when
// no windowing layer is present (texture-pixmap actors then degrade to
// zero size).
func NewCompositor(sched Scheduler, clock Clock, winsys WindowSystem, window WindowID, width, height int) *Compositor {
	c := &Compositor{
		sched:        sched,
		clock:        clock,
		winsys:       winsys,
		tickInterval: DefaultTickInterval,
	}

	stage := newActor(c, ActorStage)
	stage.window = window
	stage.width = width
	stage.height = height
	stage.stageColorChanged = true
	stage.wasResized = true
	c.stage = stage

	c.timeoutID = c.sched.AddTimeout(c.Draw, 0, c.tickInterval)
	c.timeoutEnabled = true
	c.dirty = true
	return c
}

// Close removes the redraw timeout and destroys the stage window. The
// compositor must not be used afterwards.
func (c *Compositor) Close() {
	c.sched.RemoveTimeout(c.timeoutID)
	c.timeoutEnabled = false
	if c.winsys != nil {
		if err := c.winsys.DestroyWindow(c.stage.window); err != nil {
			log.Warningf("unable to destroy stage window %d: %v", c.stage.window, err)
		}
	}
}

// SetTickInterval overrides the minimum time between redraws. Must be
// called before any drawing starts.
func (c *Compositor) SetTickInterval(interval time.Duration) {
	c.tickInterval = interval
	c.sched.ResetTimeout(c.timeoutID, 0, interval)
}

// Stage returns the root stage actor.
func (c *Compositor) Stage() *Actor { return c.stage }

// SetDrawVisitor installs the backend that turns visited trees into
// pixels. Without one, Draw still advances animations and layer state.
func (c *Compositor) SetDrawVisitor(v DrawVisitor) {
	c.drawVisitor = v
	c.SetDirty()
}

// DrawVisitor returns the installed backend, or nil.
func (c *Compositor) DrawVisitor() DrawVisitor { return c.drawVisitor }

// Dirty reports whether a full redraw is pending.
func (c *Compositor) Dirty() bool { return c.dirty }

// ActorCount returns the number of actors seen by the last update pass.
func (c *Compositor) ActorCount() int { return c.actorCount }

// NumAnimations returns the number of in-progress animations.
func (c *Compositor) NumAnimations() int { return c.numAnimations }

// DrawTimeoutEnabled reports whether the redraw timeout is armed.
// Present for tests.
func (c *Compositor) DrawTimeoutEnabled() bool { return c.timeoutEnabled }

// --- Factories ---

// CreateGroup returns a new container actor.
func (c *Compositor) CreateGroup() *Actor {
	return newActor(c, ActorContainer)
}

// CreateColoredBox returns a new solid-color quad actor.
func (c *Compositor) CreateColoredBox(width, height int, color Color) *Actor {
	a := newActor(c, ActorColoredBox)
	a.width = width
	a.height = height
	a.color = color
	a.SetDirty()
	return a
}

// CreateImage returns a new image actor with no data bound yet.
func (c *Compositor) CreateImage() *Actor {
	a := newActor(c, ActorImage)
	a.width = 0
	a.height = 0
	return a
}

// CreateImageFromFile returns an image actor displaying the decoded
// contents of the named file.
func (c *Compositor) CreateImageFromFile(path string) (*Actor, error) {
	container, err := LoadImageFile(path)
	if err != nil {
		return nil, err
	}
	a := c.CreateImage()
	a.SetImageData(container)
	return a, nil
}

// CreateTexturePixmap returns a new texture-pixmap actor with no pixmap
// bound yet.
func (c *Compositor) CreateTexturePixmap() *Actor {
	a := newActor(c, ActorTexturePixmap)
	a.width = 0
	a.height = 0
	return a
}

func (c *Compositor) addActor(a *Actor) {
	c.actors = append(c.actors, a)
}

func (c *Compositor) removeActor(a *Actor) {
	if i := slices.Index(c.actors, a); i >= 0 {
		c.actors = slices.Delete(c.actors, i, i+1)
	}
}

// --- Visibility groups ---

// SetActiveVisibilityGroups restricts drawing to actors belonging to at
// least one of the given groups. With no arguments, groups are disabled
// and every eligible actor is drawn.
func (c *Compositor) SetActiveVisibilityGroups(groups ...int) {
	if len(groups) == 0 && len(c.activeVisibilityGroups) == 0 {
		return
	}
	if len(groups) == 0 {
		c.activeVisibilityGroups = nil
	} else {
		c.activeVisibilityGroups = make(map[int]struct{}, len(groups))
		for _, id := range groups {
			c.activeVisibilityGroups[id] = struct{}{}
		}
	}
	c.SetDirty()
}

func (c *Compositor) usingVisibilityGroups() bool {
	return len(c.activeVisibilityGroups) > 0
}

// --- Listeners ---

// RegisterCompositionChangeListener adds a listener. Registering the
// same listener twice is a caller error.
func (c *Compositor) RegisterCompositionChangeListener(l CompositionChangeListener) {
	if slices.Contains(c.listeners, l) {
		log.Errorf("composition change listener registered twice")
		return
	}
	c.listeners = append(c.listeners, l)
}

// UnregisterCompositionChangeListener removes a listener.
func (c *Compositor) UnregisterCompositionChangeListener(l CompositionChangeListener) {
	if i := slices.Index(c.listeners, l); i >= 0 {
		c.listeners = slices.Delete(c.listeners, i, i+1)
	}
}

func (c *Compositor) updateTopFullscreenActor(top *Actor) {
	if c.prevTopFullscreenActor == top {
		return
	}
	c.prevTopFullscreenActor = top
	for _, l := range c.listeners {
		l.HandleTopFullscreenActorChange(top)
	}
}

// --- Dirtying and scheduling ---

// SetDirty marks the whole scene as needing a redraw, arming the redraw
// timeout if the compositor was idle.
func (c *Compositor) SetDirty() {
	if !c.dirty && !c.partiallyDirty {
		c.enableDrawTimeout()
	}
	c.dirty = true
}

// SetPartiallyDirty requests compositing of accumulated pixmap damage
// without a full scene redraw.
func (c *Compositor) SetPartiallyDirty() {
	if c.dirty || c.partiallyDirty {
		return
	}
	c.enableDrawTimeout()
	c.partiallyDirty = true
}

// incrementAnimations is invoked by actors as animations start; the
// 0 -> 1 transition arms the redraw timeout.
func (c *Compositor) incrementAnimations() {
	c.numAnimations++
	if c.numAnimations == 1 {
		c.enableDrawTimeout()
	}
}

func (c *Compositor) decrementAnimations() {
	c.numAnimations--
	if c.numAnimations < 0 {
		log.Errorf("animation count dropped below zero")
		c.numAnimations = 0
	}
}

// enableDrawTimeout arms the redraw timeout so the next tick lands on
// the tick boundary: closely-spaced dirtying events coalesce onto one
// tick instead of each restarting the interval.
func (c *Compositor) enableDrawTimeout() {
	if c.timeoutEnabled {
		return
	}
	var sinceDraw time.Duration
	if !c.lastDrawTime.IsZero() {
		sinceDraw = c.clock.Now().Sub(c.lastDrawTime)
	}
	untilDraw := max(c.tickInterval-sinceDraw, 0)
	c.sched.ResetTimeout(c.timeoutID, untilDraw, c.tickInterval)
	c.timeoutEnabled = true
}

func (c *Compositor) disableDrawTimeout() {
	if c.timeoutEnabled {
		c.sched.SuspendTimeout(c.timeoutID)
		c.timeoutEnabled = false
	}
}

// Draw runs one tick: advance in-progress animations, rerun the layer
// pass if anything is dirty, hand the tree to the draw visitor, and
// disarm the redraw timeout once no animations remain.
func (c *Compositor) Draw() {
	now := c.clock.Now()
	if c.numAnimations > 0 || c.dirty {
		c.actorCount = 0
		c.stage.Update(&c.actorCount, now)
	}
	if c.dirty || c.partiallyDirty {
		c.lastDrawTime = now

		usePartialUpdates := !c.dirty && c.partiallyDirty
		layers := NewLayerVisitor(c.actorCount, usePartialUpdates)
		layers.VisitStage(c.stage)
		c.updateTopFullscreenActor(layers.TopFullscreenActor())
		damage := layers.DamagedRegion(c.stage.width, c.stage.height)

		// Partial dirtying can come from actors that turn out to be
		// covered or offscreen; the damage union is only known to be
		// empty after the layer pass has run.
		if (!usePartialUpdates || !damage.Empty()) && c.drawVisitor != nil {
			fv, hasFrames := c.drawVisitor.(FrameVisitor)
			if hasFrames {
				fv.StartFrame(damage, layers.HasFullscreenActor())
			}
			c.stage.Accept(c.drawVisitor)
			if hasFrames {
				fv.EndFrame()
			}
		}
		c.dirty = false
		c.partiallyDirty = false
	}
	if c.numAnimations == 0 {
		c.disableDrawTimeout()
	}
}
