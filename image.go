package aspen

import (
	"fmt"
	"image"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"

	// Decoders for LoadImage.
	_ "image/jpeg"
	_ "image/png"
)

// ImageFormat describes the in-memory pixel layout of an ImageContainer.
type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatRGBA32
	FormatRGBX32
	FormatBGRA32
	FormatBGRX32
	FormatRGB16
)

// UsesAlpha reports whether pixels in this format carry an alpha
// channel.
func (f ImageFormat) UsesAlpha() bool {
	return f == FormatRGBA32 || f == FormatBGRA32
}

// BitsPerPixel returns the storage size of one pixel.
func (f ImageFormat) BitsPerPixel() int {
	if f == FormatRGB16 {
		return 16
	}
	return 32
}

func (f ImageFormat) String() string {
	switch f {
	case FormatRGBA32:
		return "RGBA32"
	case FormatRGBX32:
		return "RGBX32"
	case FormatBGRA32:
		return "BGRA32"
	case FormatBGRX32:
		return "BGRX32"
	case FormatRGB16:
		return "RGB16"
	default:
		return "unknown"
	}
}

// ImageContainer holds decoded raw pixel data on its way to a backend
// texture. Rows are stride bytes apart; pixels are laid out per format.
type ImageContainer struct {
	pix    []byte
	width  int
	height int
	stride int
	format ImageFormat
}

// NewImageContainer wraps raw pixel data. A zero stride means rows are
// packed.
func NewImageContainer(pix []byte, width, height, stride int, format ImageFormat) *ImageContainer {
	if stride == 0 {
		stride = width * format.BitsPerPixel() / 8
	}
	return &ImageContainer{pix: pix, width: width, height: height, stride: stride, format: format}
}

func (c *ImageContainer) Width() int          { return c.width }
func (c *ImageContainer) Height() int         { return c.height }
func (c *ImageContainer) Stride() int         { return c.stride }
func (c *ImageContainer) Format() ImageFormat { return c.format }

// Pix returns the raw pixel bytes in the container's format.
func (c *ImageContainer) Pix() []byte { return c.pix }

// RGBA converts the container to a standard RGBA image, swizzling or
// expanding as the format requires.
func (c *ImageContainer) RGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	for y := 0; y < c.height; y++ {
		srcRow := c.pix[y*c.stride:]
		dstRow := dst.Pix[y*dst.Stride:]
		for x := 0; x < c.width; x++ {
			d := dstRow[x*4 : x*4+4]
			switch c.format {
			case FormatRGB16:
				// 5-6-5, little endian.
				v := uint16(srcRow[x*2]) | uint16(srcRow[x*2+1])<<8
				d[0] = byte(v >> 11 << 3)
				d[1] = byte(v >> 5 << 2)
				d[2] = byte(v << 3)
				d[3] = 0xff
			case FormatBGRA32, FormatBGRX32:
				s := srcRow[x*4 : x*4+4]
				d[0], d[1], d[2] = s[2], s[1], s[0]
				if c.format == FormatBGRA32 {
					d[3] = s[3]
				} else {
					d[3] = 0xff
				}
			default:
				s := srcRow[x*4 : x*4+4]
				d[0], d[1], d[2] = s[0], s[1], s[2]
				if c.format == FormatRGBA32 {
					d[3] = s[3]
				} else {
					d[3] = 0xff
				}
			}
		}
	}
	return dst
}

// LoadImage decodes PNG or JPEG data into an ImageContainer. Fully
// opaque images are reported as RGBX32 so backends and the culling pass
// can treat them as alpha-free.
func LoadImage(r io.Reader) (*ImageContainer, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), src, bounds.Min, xdraw.Src)

	format := FormatRGBA32
	if rgba.Opaque() {
		format = FormatRGBX32
	}
	return NewImageContainer(rgba.Pix, rgba.Rect.Dx(), rgba.Rect.Dy(), rgba.Stride, format), nil
}

// LoadImageFile decodes the named PNG or JPEG file.
func LoadImageFile(path string) (*ImageContainer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	container, err := LoadImage(f)
	if err != nil {
		return nil, fmt.Errorf("loading image %s: %w", path, err)
	}
	return container, nil
}
