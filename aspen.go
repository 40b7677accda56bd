package aspen

// Color is an RGB color with components in [0, 1]. Actors carry opacity
// separately, so there is no alpha component here.
type Color struct {
	R, G, B float32
}

// Rect is an axis-aligned rectangle with integer pixel coordinates,
// origin at the top-left.
type Rect struct {
	X, Y, Width, Height int
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rectangle containing both r and other.
// An empty rectangle on either side yields the other unchanged.
func (r Rect) Union(other Rect) Rect {
	if other.Empty() {
		return r
	}
	if r.Empty() {
		return other
	}
	x0 := min(r.X, other.X)
	y0 := min(r.Y, other.Y)
	x1 := max(r.X+r.Width, other.X+other.Width)
	y1 := max(r.Y+r.Height, other.Y+other.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// WindowID identifies a native window owned by the windowing layer.
type WindowID uint64

// PixmapID identifies an offscreen pixmap owned by the windowing layer.
type PixmapID uint64

// ActorKind distinguishes the drawable behavior of an Actor.
type ActorKind uint8

const (
	ActorContainer      ActorKind = iota // group node with no visible bounds of its own
	ActorColoredBox                      // solid-color quad
	ActorImage                           // quad textured from decoded image data
	ActorTexturePixmap                   // quad textured from a native pixmap, with damage tracking
	ActorStage                           // the root container, bound 1:1 to a native window
)

// String returns the actor kind name used in debug dumps.
func (k ActorKind) String() string {
	switch k {
	case ActorContainer:
		return "ContainerActor"
	case ActorColoredBox:
		return "ColoredBoxActor"
	case ActorImage:
		return "ImageActor"
	case ActorTexturePixmap:
		return "TexturePixmapActor"
	case ActorStage:
		return "StageActor"
	default:
		return "Actor"
	}
}

// Opacity below this is treated as fully transparent, above 1-this as
// fully opaque.
const (
	visibleOpacityEpsilon = 0.001
	opaqueOpacityEpsilon  = 0.999
)

// nextPowerOfTwo returns the smallest power of two >= n.
func nextPowerOfTwo(n uint32) uint32 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}
