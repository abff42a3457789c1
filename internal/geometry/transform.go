package geometry

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Decode parses image bytes (JPEG or PNG).
func Decode(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// EncodeJPEG renders an image as JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// crop copies the given rectangle of src into a fresh image anchored at the origin.
func crop(src image.Image, rect image.Rectangle) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, rect.Min.Add(src.Bounds().Min), xdraw.Src)
	return dst
}

// Rotate turns the image by the given angle. Angles within 1 degree of a
// 90-degree multiple take the exact path with a swapped-dimension canvas;
// other angles take the general affine path with an enlarged canvas so no
// content is clipped.
func Rotate(img image.Image, degrees float64) image.Image {
	degrees = math.Mod(degrees, 360)
	if degrees < 0 {
		degrees += 360
	}
	if degrees < 0.1 || degrees > 359.9 {
		return img
	}

	switch {
	case closeToAngle(degrees, 90):
		return rotateQuarter(img, 90)
	case closeToAngle(degrees, 180):
		return rotateQuarter(img, 180)
	case closeToAngle(degrees, 270):
		return rotateQuarter(img, 270)
	}
	return rotateArbitrary(img, degrees)
}

func closeToAngle(angle, target float64) bool {
	return math.Abs(angle-target) < 1.0
}

// rotateQuarter performs an exact pixel remap for 90/180/270.
func rotateQuarter(img image.Image, degrees int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	var dst *image.NRGBA
	if degrees == 180 {
		dst = image.NewNRGBA(image.Rect(0, 0, w, h))
	} else {
		dst = image.NewNRGBA(image.Rect(0, 0, h, w))
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := img.At(bounds.Min.X+x, bounds.Min.Y+y)
			switch degrees {
			case 90:
				dst.Set(h-1-y, x, c)
			case 180:
				dst.Set(w-1-x, h-1-y, c)
			case 270:
				dst.Set(y, w-1-x, c)
			}
		}
	}
	return dst
}

// rotateArbitrary rotates by any angle about the image center, sizing the
// output canvas to ceil(w|cos|+h|sin|) x ceil(h|cos|+w|sin|).
func rotateArbitrary(img image.Image, degrees float64) image.Image {
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	radians := degrees * math.Pi / 180

	sin, cos := math.Sincos(radians)
	absSin, absCos := math.Abs(sin), math.Abs(cos)
	newW := int(math.Ceil(w*absCos + h*absSin))
	newH := int(math.Ceil(h*absCos + w*absSin))

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))

	// Map source coordinates onto the destination: rotate about the source
	// center, then translate that center onto the destination center.
	cx, cy := w/2, h/2
	dcx, dcy := float64(newW)/2, float64(newH)/2
	m := f64.Aff3{
		cos, -sin, dcx - cos*cx + sin*cy,
		sin, cos, dcy - sin*cx - cos*cy,
	}
	xdraw.BiLinear.Transform(dst, m, img, bounds, xdraw.Src, nil)
	return dst
}

// Resize scales the image so its longer dimension equals targetSize, preserving
// the aspect ratio, with bilinear interpolation.
func Resize(img image.Image, targetSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return img
	}

	var targetW, targetH int
	if w > h {
		targetW = targetSize
		targetH = int(math.Round(float64(targetSize) * float64(h) / float64(w)))
	} else {
		targetH = targetSize
		targetW = int(math.Round(float64(targetSize) * float64(w) / float64(h)))
	}
	if targetW < 1 {
		targetW = 1
	}
	if targetH < 1 {
		targetH = 1
	}

	dst := image.NewNRGBA(image.Rect(0, 0, targetW, targetH))
	xdraw.BiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}
