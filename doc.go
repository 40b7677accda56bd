// Package aspen is the rendering core of a compositing window manager: a
// retained-mode actor tree, a keyframe animation engine, a layering and
// culling pass, and a dirty-flag-driven redraw scheduler.
//
// Aspen does not draw pixels itself. It hands the actor tree to a
// [DrawVisitor] once per dirty frame; concrete backends (the software
// rasterizer in this package, the Ebitengine backend in
// aspen/ebitenvisitor, or an external GL/XRender visitor) turn the visit
// into graphics-API calls.
//
// # Actor tree
//
// Every scene element is an [Actor]. A single flat struct with an
// [ActorKind] tag covers all kinds, avoiding interface dispatch on the
// hot path. Actors are created through their owning [Compositor]:
//
//	comp := aspen.NewCompositor(loop, aspen.SystemClock{}, winsys, window, 1024, 768)
//	group := comp.CreateGroup()
//	comp.Stage().AddActor(group)
//
//	box := comp.CreateColoredBox(200, 100, aspen.Color{R: 0.3, G: 0.7, B: 1})
//	group.AddActor(box)
//
// Children are ordered front-to-back: index 0 is topmost. Stacking is
// changed with [Actor.Raise], [Actor.Lower], [Actor.RaiseToTop], and
// [Actor.LowerToBottom].
//
// # Animation
//
// Every mutator takes a duration. Zero applies the change immediately;
// anything longer creates a keyframe [Animation] for that field, which
// replaces any animation already running on it:
//
//	box.Move(500, 300, 250*time.Millisecond)
//	box.SetOpacity(0, time.Second)
//
// Values ease between keyframes with a raised-cosine curve, so motion
// starts and stops with zero velocity.
//
// # Scheduling
//
// The compositor is idle until something changes. Mutations set a dirty
// flag and arm a recurring draw timeout on the supplied scheduler
// (normally an [EventLoop]); each tick advances animations, runs the
// layer pass (depth assignment, opacity flags, culling, damage
// accumulation), and hands the tree to the draw visitor. When no
// animations remain and nothing is dirty, the timeout is suspended
// again. All of this happens on one event-loop goroutine; no locking is
// required around tree mutation.
package aspen
