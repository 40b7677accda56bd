package aspen

// DrawVisitor turns a visited actor tree into graphics-API calls. The
// compositor guarantees that the culled and is-opaque flags and the
// model-view matrices are valid for the current frame before any Visit
// call, and that children are presented back-to-front (see
// VisitChildrenBackToFront) so alpha blending composes correctly. A
// backend may skip a culled actor entirely.
//
// Backends own all native resources; the core only calls BindImage and
// the Visit entry points.
type DrawVisitor interface {
	VisitStage(stage *Actor)
	VisitContainer(container *Actor)
	VisitQuad(quad *Actor)
	VisitImage(img *Actor)
	VisitTexturePixmap(pixmap *Actor)

	// BindImage creates a native texture for the decoded image data and
	// installs it on the actor with SetTexture.
	BindImage(container *ImageContainer, img *Actor)
}

// FrameVisitor is an optional extension a DrawVisitor may implement to
// receive per-frame composition facts. StartFrame is called before the
// stage visit with the frame's damage rectangle (empty for a full
// redraw) and whether an opaque fullscreen actor was found; EndFrame is
// called after the stage visit completes.
type FrameVisitor interface {
	StartFrame(damage Rect, hasFullscreenActor bool)
	EndFrame()
}

// Accept dispatches the visitor method matching the actor's kind.
// Container recursion is the visitor's responsibility, normally via
// VisitChildrenBackToFront.
func (a *Actor) Accept(v DrawVisitor) {
	switch a.kind {
	case ActorStage:
		v.VisitStage(a)
	case ActorContainer:
		v.VisitContainer(a)
	case ActorColoredBox:
		v.VisitQuad(a)
	case ActorImage:
		v.VisitImage(a)
	case ActorTexturePixmap:
		v.VisitTexturePixmap(a)
	}
}

// VisitChildrenBackToFront presents a container's children to the
// visitor in back-to-front order (children are stored front-to-back),
// the order backends need for correct alpha blending.
func VisitChildrenBackToFront(v DrawVisitor, container *Actor) {
	children := container.children
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Accept(v)
	}
}
