// Package imaging provides the image plumbing around the recognition engine:
// decoding, a low-light enhancement pre-filter, face cropping, and drawing of
// annotated audit images.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Decode decodes photo bytes into an image.
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG encodes an image as JPEG with the quality used for stored
// annotated results.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Enhance applies global luma histogram equalization to improve detection and
// match quality on low-light photos. It is a pure transform; the input image
// is not modified.
func Enhance(img image.Image) image.Image {
	bounds := img.Bounds()
	rgba := toRGBA(img)

	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return rgba
	}

	lumaAt := func(x, y int) uint8 {
		r, g, b, _ := rgba.At(x, y).RGBA()
		// ITU-R BT.601 luma formula.
		l := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		if l > 255 {
			l = 255
		}
		return uint8(l)
	}

	var hist [256]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			hist[lumaAt(x, y)]++
		}
	}

	// Cumulative distribution mapped back to [0,255].
	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(255 * cum / total)
	}

	out := image.NewRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, a := rgba.At(x, y).RGBA()
			l := lumaAt(x, y)
			if l == 0 {
				out.Set(x, y, color.RGBA{0, 0, 0, uint8(a >> 8)})
				continue
			}
			// Scale channels by the luma gain, preserving hue.
			gain := float64(lut[l]) / float64(l)
			out.Set(x, y, color.RGBA{
				R: clamp8(float64(r>>8) * gain),
				G: clamp8(float64(g>>8) * gain),
				B: clamp8(float64(b>>8) * gain),
				A: uint8(a >> 8),
			})
		}
	}
	return out
}

// CropFace extracts the face region described by rect, clamped to the image
// bounds, and resizes it to a size x size square for the embedder.
func CropFace(img image.Image, rect image.Rectangle, size int) (image.Image, error) {
	region := rect.Intersect(img.Bounds())
	if region.Empty() {
		return nil, fmt.Errorf("face box %v outside image bounds %v", rect, img.Bounds())
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, region, xdraw.Over, nil)
	return dst, nil
}

// Annotation describes one box to draw on an audit image.
type Annotation struct {
	Rect  image.Rectangle
	Label string
	Known bool // false draws in red, true in green
}

var (
	knownColor   = color.RGBA{0, 200, 0, 255}
	unknownColor = color.RGBA{220, 0, 0, 255}
)

// Annotate draws bounding boxes and labels onto a copy of the photo.
func Annotate(img image.Image, annotations []Annotation) image.Image {
	out := toRGBA(img)

	for _, a := range annotations {
		col := unknownColor
		if a.Known {
			col = knownColor
		}
		drawRect(out, a.Rect, col, 2)
		drawLabel(out, a.Label, a.Rect.Min.X, a.Rect.Min.Y-4, col)
	}
	return out
}

// toRGBA returns a mutable RGBA copy of img.
func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	dst := image.NewRGBA(bounds)
	draw.Draw(dst, bounds, img, bounds.Min, draw.Src)
	return dst
}

// drawRect draws the outline of rect with the given stroke thickness.
func drawRect(dst *image.RGBA, rect image.Rectangle, col color.Color, thickness int) {
	rect = rect.Intersect(dst.Bounds())
	for t := 0; t < thickness; t++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, rect.Min.Y+t, col)
			dst.Set(x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(rect.Min.X+t, y, col)
			dst.Set(rect.Max.X-1-t, y, col)
		}
	}
}

// drawLabel renders text with the baseline at (x, y).
func drawLabel(dst *image.RGBA, text string, x, y int, col color.Color) {
	if y < basicfont.Face7x13.Ascent {
		y = basicfont.Face7x13.Ascent
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
