package aspen

// Stage-specific Actor behavior. The stage is the single root container
// per compositor, bound 1:1 to a native window; it owns the projection
// matrix and background color.

// Window returns the native window the stage is bound to.
func (a *Actor) Window() WindowID { return a.window }

// Projection returns the stage's projection matrix, updated by the
// layer pass.
func (a *Actor) Projection() Matrix4 { return a.projection }

// StageColor returns the stage background color.
func (a *Actor) StageColor() Color { return a.stageColor }

// SetStageColor changes the stage background color.
func (a *Actor) SetStageColor(color Color) {
	a.stageColor = color
	a.stageColorChanged = true
	a.SetDirty()
}

// StageColorChanged reports whether the background color changed since
// a visitor last called UnsetStageColorChanged.
func (a *Actor) StageColorChanged() bool { return a.stageColorChanged }

// UnsetStageColorChanged acknowledges a background color change.
// Called by draw visitors after applying the new clear color.
func (a *Actor) UnsetStageColorChanged() { a.stageColorChanged = false }

// WasResized reports whether the stage was resized since a visitor last
// called UnsetWasResized.
func (a *Actor) WasResized() bool { return a.wasResized }

// UnsetWasResized acknowledges a resize. Called by draw visitors after
// adjusting their viewport.
func (a *Actor) UnsetWasResized() { a.wasResized = false }

// UpdateProjection recomputes the stage's orthographic projection: a
// pass-through mapping of stage pixel coordinates (origin top-left) to
// normalized device coordinates, with depth spanning the layer range.
func (a *Actor) UpdateProjection() {
	a.projection = Orthographic4(
		0, float32(a.width), float32(a.height), 0,
		-MinDepth, -MaxDepth)
}

// UsingPassthroughProjection reports whether the projection maps stage
// pixels 1:1 onto the viewport (always true for the orthographic
// projection above; backends check this before taking scissor-based
// partial-update paths).
func (a *Actor) UsingPassthroughProjection() bool { return true }
