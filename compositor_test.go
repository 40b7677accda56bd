package aspen

import (
	"errors"
	"testing"
	"time"
)

// --- Shared test doubles ---

// fakeClock hands out a manually-advanced time.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeScheduler records the compositor's timeout calls; tests invoke
// the registered callback by hand.
type fakeScheduler struct {
	fn                 func()
	initial, recurring time.Duration
	suspended          bool
	removed            bool
	resets             int
}

func (s *fakeScheduler) AddTimeout(fn func(), initial, recurring time.Duration) int {
	s.fn = fn
	s.initial = initial
	s.recurring = recurring
	return 1
}

func (s *fakeScheduler) ResetTimeout(id int, initial, recurring time.Duration) {
	s.initial = initial
	s.recurring = recurring
	s.suspended = false
	s.resets++
}

func (s *fakeScheduler) SuspendTimeout(id int) { s.suspended = true }

func (s *fakeScheduler) RemoveTimeout(id int) { s.removed = true }

// fakeWindowSystem serves pixmap geometry from a table.
type fakeWindowSystem struct {
	pixmaps map[PixmapID][3]int // width, height, depth
	resized []WindowID
}

func (w *fakeWindowSystem) PixmapGeometry(pixmap PixmapID) (int, int, int, error) {
	g, ok := w.pixmaps[pixmap]
	if !ok {
		return 0, 0, 0, errors.New("no such pixmap")
	}
	return g[0], g[1], g[2], nil
}

func (w *fakeWindowSystem) ResizeWindow(window WindowID, width, height int) error {
	w.resized = append(w.resized, window)
	return nil
}

func (w *fakeWindowSystem) DestroyWindow(window WindowID) error { return nil }

// recordVisitor records the order of visits and frame boundaries.
type recordVisitor struct {
	calls      []string
	frames     int
	lastDamage Rect
}

func (v *recordVisitor) record(call string, a *Actor) {
	name := a.Name()
	if name == "" {
		name = a.Kind().String()
	}
	v.calls = append(v.calls, call+" "+name)
}

func (v *recordVisitor) VisitStage(stage *Actor) {
	v.record("stage", stage)
	VisitChildrenBackToFront(v, stage)
}

func (v *recordVisitor) VisitContainer(container *Actor) {
	if !container.IsVisible() {
		return
	}
	v.record("container", container)
	VisitChildrenBackToFront(v, container)
}

func (v *recordVisitor) VisitQuad(quad *Actor) {
	if !quad.IsVisible() {
		return
	}
	v.record("quad", quad)
}

func (v *recordVisitor) VisitImage(img *Actor) {
	if !img.IsVisible() {
		return
	}
	v.record("image", img)
}

func (v *recordVisitor) VisitTexturePixmap(pixmap *Actor) {
	if !pixmap.IsVisible() {
		return
	}
	v.record("pixmap", pixmap)
}

func (v *recordVisitor) BindImage(container *ImageContainer, img *Actor) {}

func (v *recordVisitor) StartFrame(damage Rect, hasFullscreenActor bool) {
	v.lastDamage = damage
}

func (v *recordVisitor) EndFrame() { v.frames++ }

func newTestCompositor(width, height int) (*Compositor, *fakeScheduler, *fakeClock) {
	sched := &fakeScheduler{}
	clock := newFakeClock()
	c := NewCompositor(sched, clock, nil, 1, width, height)
	return c, sched, clock
}

// --- Tests ---

func TestNewCompositorStartsDirtyAndArmed(t *testing.T) {
	c, sched, _ := newTestCompositor(640, 480)
	if !c.Dirty() {
		t.Error("new compositor not dirty")
	}
	if !c.DrawTimeoutEnabled() {
		t.Error("draw timeout not armed")
	}
	if sched.fn == nil {
		t.Fatal("no timeout registered")
	}
	if sched.recurring != DefaultTickInterval {
		t.Errorf("recurring = %v, want %v", sched.recurring, DefaultTickInterval)
	}
}

func TestDrawClearsDirtyAndDisarmsWhenIdle(t *testing.T) {
	c, sched, _ := newTestCompositor(640, 480)
	c.Draw()
	if c.Dirty() {
		t.Error("still dirty after draw")
	}
	if !sched.suspended {
		t.Error("timeout not suspended with no animations pending")
	}
	if c.DrawTimeoutEnabled() {
		t.Error("timeout still reported enabled")
	}
}

func TestMutationsCoalesceIntoOneFrame(t *testing.T) {
	c, _, _ := newTestCompositor(640, 480)
	v := &recordVisitor{}
	c.SetDrawVisitor(v)

	box := c.CreateColoredBox(10, 10, Color{R: 1})
	c.Stage().AddActor(box)
	box.Move(5, 5, 0)
	box.SetOpacity(0.5, 0)
	c.Stage().AddActor(c.CreateColoredBox(20, 20, Color{G: 1}))

	c.Draw()
	if v.frames != 1 {
		t.Errorf("frames = %d, want 1", v.frames)
	}
	c.Draw()
	if v.frames != 1 {
		t.Errorf("clean draw composited another frame, frames = %d", v.frames)
	}
}

func TestRearmUsesRemainingTickInterval(t *testing.T) {
	c, sched, clock := newTestCompositor(640, 480)
	c.Draw()
	if !sched.suspended {
		t.Fatal("timeout not suspended after idle draw")
	}

	// Dirtying 6ms after the last draw leaves 10ms of the tick.
	clock.Advance(6 * time.Millisecond)
	c.SetDirty()
	if sched.suspended {
		t.Error("timeout still suspended after dirtying")
	}
	if want := DefaultTickInterval - 6*time.Millisecond; sched.initial != want {
		t.Errorf("initial delay = %v, want %v", sched.initial, want)
	}

	// Dirtying long after the last draw schedules an immediate draw.
	c.Draw()
	clock.Advance(time.Second)
	c.SetDirty()
	if sched.initial != 0 {
		t.Errorf("initial delay = %v, want 0", sched.initial)
	}
}

func TestAnimationDrivesRedrawsUntilDone(t *testing.T) {
	c, sched, clock := newTestCompositor(640, 480)
	box := c.CreateColoredBox(10, 10, Color{B: 1})
	c.Stage().AddActor(box)
	c.Draw()

	box.Move(100, 0, 160*time.Millisecond)
	if c.NumAnimations() != 1 {
		t.Fatalf("NumAnimations = %d, want 1", c.NumAnimations())
	}
	if sched.suspended {
		t.Fatal("timeout suspended while animating")
	}

	clock.Advance(80 * time.Millisecond)
	c.Draw()
	if box.X() <= 0 || box.X() >= 100 {
		t.Errorf("mid-animation X = %d, want in (0, 100)", box.X())
	}
	if sched.suspended {
		t.Error("timeout suspended mid-animation")
	}

	clock.Advance(80 * time.Millisecond)
	c.Draw()
	if box.X() != 100 {
		t.Errorf("final X = %d, want 100", box.X())
	}
	if c.NumAnimations() != 0 {
		t.Errorf("NumAnimations = %d, want 0", c.NumAnimations())
	}
	if !sched.suspended {
		t.Error("timeout not suspended after animation finished")
	}
}

func TestOpacityAnimationHidesActor(t *testing.T) {
	c, _, clock := newTestCompositor(640, 480)
	v := &recordVisitor{}
	c.SetDrawVisitor(v)

	box := c.CreateColoredBox(10, 10, Color{R: 1})
	box.SetName("fading")
	c.Stage().AddActor(box)
	c.Draw()

	box.SetOpacity(0, 100*time.Millisecond)
	clock.Advance(50 * time.Millisecond)
	c.Draw()
	if op := box.Opacity(); op <= 0 || op >= 1 {
		t.Errorf("mid-fade opacity = %f, want in (0, 1)", op)
	}

	clock.Advance(50 * time.Millisecond)
	v.calls = nil
	c.Draw()
	if box.Opacity() != 0 {
		t.Errorf("final opacity = %f, want 0", box.Opacity())
	}
	for _, call := range v.calls {
		if call == "quad fading" {
			t.Error("fully transparent actor was visited for drawing")
		}
	}
}

func TestDrawVisitsBackToFront(t *testing.T) {
	c, _, _ := newTestCompositor(640, 480)
	v := &recordVisitor{}
	c.SetDrawVisitor(v)

	bottom := c.CreateColoredBox(10, 10, Color{})
	bottom.SetName("bottom")
	top := c.CreateColoredBox(10, 10, Color{})
	top.SetName("top")
	c.Stage().AddActor(bottom)
	c.Stage().AddActor(top) // AddActor stacks on top

	c.Draw()
	want := []string{"stage StageActor", "quad bottom", "quad top"}
	if len(v.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", v.calls, want)
	}
	for i := range want {
		if v.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", v.calls, want)
		}
	}
}

func TestSetPixmapSizesActorFromGeometry(t *testing.T) {
	sched := &fakeScheduler{}
	winsys := &fakeWindowSystem{pixmaps: map[PixmapID][3]int{
		7: {320, 240, 24},
		8: {64, 64, 32},
	}}
	c := NewCompositor(sched, newFakeClock(), winsys, 1, 640, 480)

	opaque := c.CreateTexturePixmap()
	opaque.SetPixmap(7)
	if opaque.Width() != 320 || opaque.Height() != 240 {
		t.Errorf("size = %dx%d, want 320x240", opaque.Width(), opaque.Height())
	}
	if !opaque.PixmapOpaque() {
		t.Error("24-bit pixmap not reported opaque")
	}

	translucent := c.CreateTexturePixmap()
	translucent.SetPixmap(8)
	if translucent.PixmapOpaque() {
		t.Error("32-bit pixmap reported opaque")
	}
}

func TestSetPixmapDegradesOnLookupFailure(t *testing.T) {
	sched := &fakeScheduler{}
	winsys := &fakeWindowSystem{pixmaps: map[PixmapID][3]int{}}
	c := NewCompositor(sched, newFakeClock(), winsys, 1, 640, 480)

	a := c.CreateTexturePixmap()
	a.SetPixmap(99)
	if a.Pixmap() != 0 {
		t.Errorf("pixmap = %d, want 0 after failed lookup", a.Pixmap())
	}
	if a.Width() != 0 || a.Height() != 0 {
		t.Errorf("size = %dx%d, want 0x0 after failed lookup", a.Width(), a.Height())
	}
}

func TestUpdateTextureRequestsPartialRedraw(t *testing.T) {
	c, sched, _ := newTestCompositor(640, 480)
	a := c.CreateTexturePixmap()
	a.setSizeInternal(100, 100)
	c.Stage().AddActor(a)
	c.Draw()
	if !sched.suspended {
		t.Fatal("timeout not suspended after draw")
	}

	a.MergeDamagedRegion(Rect{X: 1, Y: 2, Width: 3, Height: 4})
	a.UpdateTexture()
	if c.Dirty() {
		t.Error("texture update fully dirtied the scene")
	}
	if sched.suspended {
		t.Error("partial dirtying did not re-arm the timeout")
	}
}

type recordListener struct {
	changes []*Actor
}

func (l *recordListener) HandleTopFullscreenActorChange(actor *Actor) {
	l.changes = append(l.changes, actor)
}

func TestTopFullscreenActorChangeNotifiesListeners(t *testing.T) {
	sched := &fakeScheduler{}
	winsys := &fakeWindowSystem{pixmaps: map[PixmapID][3]int{
		5: {640, 480, 24},
	}}
	c := NewCompositor(sched, newFakeClock(), winsys, 1, 640, 480)
	listener := &recordListener{}
	c.RegisterCompositionChangeListener(listener)

	c.Draw()
	if len(listener.changes) != 0 {
		t.Fatalf("notified %d times with an empty stage", len(listener.changes))
	}

	full := c.CreateTexturePixmap()
	full.SetPixmap(5)
	c.Stage().AddActor(full)
	c.Draw()
	if len(listener.changes) != 1 || listener.changes[0] != full {
		t.Fatalf("changes = %v, want one notification for the fullscreen actor", listener.changes)
	}

	full.Hide()
	c.Draw()
	if len(listener.changes) != 2 || listener.changes[1] != nil {
		t.Fatalf("changes = %v, want a nil notification after hiding", listener.changes)
	}

	c.UnregisterCompositionChangeListener(listener)
	full.Show()
	c.Draw()
	if len(listener.changes) != 2 {
		t.Error("unregistered listener was notified")
	}
}

func TestCloseRemovesTimeout(t *testing.T) {
	c, sched, _ := newTestCompositor(640, 480)
	c.Close()
	if !sched.removed {
		t.Error("timeout not removed on close")
	}
}

func TestStageResizeCallsWindowSystem(t *testing.T) {
	sched := &fakeScheduler{}
	winsys := &fakeWindowSystem{pixmaps: map[PixmapID][3]int{}}
	c := NewCompositor(sched, newFakeClock(), winsys, 42, 640, 480)

	c.Stage().SetSize(800, 600)
	if c.Stage().Width() != 800 || c.Stage().Height() != 600 {
		t.Errorf("stage size = %dx%d, want 800x600", c.Stage().Width(), c.Stage().Height())
	}
	if len(winsys.resized) != 1 || winsys.resized[0] != 42 {
		t.Errorf("resized windows = %v, want [42]", winsys.resized)
	}
	if !c.Stage().WasResized() {
		t.Error("WasResized not set")
	}
}

func TestSetActiveVisibilityGroups(t *testing.T) {
	c, _, _ := newTestCompositor(640, 480)
	grouped := c.CreateColoredBox(10, 10, Color{})
	other := c.CreateColoredBox(10, 10, Color{})
	c.Stage().AddActor(grouped)
	c.Stage().AddActor(other)
	grouped.AddToVisibilityGroup(3)

	c.SetActiveVisibilityGroups(3)
	if !grouped.IsVisible() {
		t.Error("actor in active group not visible")
	}
	if other.IsVisible() {
		t.Error("actor outside active groups visible")
	}

	c.SetActiveVisibilityGroups()
	if !other.IsVisible() {
		t.Error("actor not visible after groups disabled")
	}
}
