package aspen

// Image- and texture-pixmap-specific Actor behavior.

// SetImageData sizes an image actor to the container and asks the
// compositor's draw visitor to bind a texture for it. Without a draw
// visitor the actor keeps its size and is drawn as an untextured quad.
func (a *Actor) SetImageData(container *ImageContainer) {
	if a.compositor.drawVisitor != nil {
		a.compositor.drawVisitor.BindImage(container, a)
	}
	a.setSizeInternal(container.Width(), container.Height())
	a.SetDirty()
}

// ImageOpaque reports whether an image actor's bound texture lacks an
// alpha channel. An unbound texture is treated as opaque, matching the
// plain colored-box case.
func (a *Actor) ImageOpaque() bool {
	return a.texture == nil || !a.texture.HasAlpha()
}

// Pixmap returns the native pixmap bound to a texture-pixmap actor, or
// zero.
func (a *Actor) Pixmap() PixmapID { return a.pixmap }

// PixmapOpaque reports whether the bound pixmap has no alpha channel
// (i.e. a non-32-bit depth).
func (a *Actor) PixmapOpaque() bool { return a.pixmapOpaque }

// SetPixmap points a texture-pixmap actor at a native pixmap, sizing
// the actor from the pixmap's geometry. A failed geometry lookup is an
// environment failure: the actor degrades to zero size with nothing to
// draw rather than aborting the frame.
func (a *Actor) SetPixmap(pixmap PixmapID) {
	a.texture = nil
	a.pixmap = pixmap
	a.pixmapOpaque = false

	if a.pixmap != 0 {
		if a.compositor.winsys == nil {
			log.Warningf("no window system to look up geometry for pixmap %d", pixmap)
			a.pixmap = 0
		} else if w, h, depth, err := a.compositor.winsys.PixmapGeometry(a.pixmap); err != nil {
			log.Warningf("unable to get geometry for pixmap %d: %v", pixmap, err)
			a.pixmap = 0
		} else {
			a.setSizeInternal(w, h)
			a.pixmapOpaque = depth != 32
		}
	}

	if a.pixmap == 0 {
		a.setSizeInternal(0, 0)
	}
	a.SetDirty()
}

// UpdateTexture refreshes the bound texture after the windowing layer
// reports new pixmap contents, and requests a partial redraw if the
// actor could be on screen.
func (a *Actor) UpdateTexture() {
	if a.texture != nil {
		a.texture.Refresh()
	}
	// The culled flag is one frame behind, but that is still valid
	// here: the scene is fully dirtied whenever an actor moves into or
	// out of view.
	if a.shown && !a.culled {
		a.compositor.SetPartiallyDirty()
	}
}

// MergeDamagedRegion unions a damage rectangle (in the actor's pixel
// coordinates) into the accumulated not-yet-composited region.
func (a *Actor) MergeDamagedRegion(region Rect) {
	a.damaged = a.damaged.Union(region)
}

// DamagedRegion returns the accumulated damage rectangle.
func (a *Actor) DamagedRegion() Rect { return a.damaged }

// ResetDamagedRegion clears the accumulated damage rectangle. Called by
// the layer pass once the damage has been folded into the frame.
func (a *Actor) ResetDamagedRegion() { a.damaged = Rect{} }
