package geometry

import (
	"image"
	"image/color"
	"testing"
)

func solidImage(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestBoundingBoxValid(t *testing.T) {
	cases := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{"full frame", BoundingBox{0, 0, 1, 1}, true},
		{"centered card", BoundingBox{0.1, 0.1, 0.8, 0.8}, true},
		{"boundary values", BoundingBox{0.5, 0.5, 0.5, 0.5}, true},
		{"negative left", BoundingBox{-0.1, 0, 0.8, 0.8}, false},
		{"left too far", BoundingBox{0.6, 0, 0.5, 0.5}, false},
		{"top too far", BoundingBox{0, 0.6, 0.5, 0.5}, false},
		{"width too small", BoundingBox{0, 0, 0.4, 0.8}, false},
		{"width too large", BoundingBox{0, 0, 1.1, 0.8}, false},
		{"height too small", BoundingBox{0, 0, 0.8, 0.3}, false},
		{"overflows right", BoundingBox{0.4, 0, 0.7, 0.8}, false},
		{"overflows bottom", BoundingBox{0, 0.4, 0.8, 0.7}, false},
	}
	for _, tc := range cases {
		if got := tc.box.Valid(); got != tc.want {
			t.Errorf("%s: Valid() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRotateZeroIsNoOp(t *testing.T) {
	img := solidImage(10, 20, color.NRGBA{R: 255, A: 255})
	for _, degrees := range []float64{0, 360, 0.05, 359.95, -360} {
		got := Rotate(img, degrees)
		if got != image.Image(img) {
			t.Fatalf("Rotate(%v) should return the input unchanged", degrees)
		}
	}
}

func TestRotateQuarterSwapsDimensions(t *testing.T) {
	img := solidImage(40, 20, color.NRGBA{G: 255, A: 255})

	for _, degrees := range []float64{90, 270, 90.5, 269.2} {
		got := Rotate(img, degrees)
		b := got.Bounds()
		if b.Dx() != 20 || b.Dy() != 40 {
			t.Fatalf("Rotate(%v): got %dx%d, want 20x40", degrees, b.Dx(), b.Dy())
		}
	}

	got := Rotate(img, 180)
	b := got.Bounds()
	if b.Dx() != 40 || b.Dy() != 20 {
		t.Fatalf("Rotate(180): got %dx%d, want 40x20", b.Dx(), b.Dy())
	}
}

func TestRotateQuarterPixelMapping(t *testing.T) {
	// 2x1 image: red at (0,0), blue at (1,0).
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)

	rotated := Rotate(img, 90).(*image.NRGBA)
	if got := rotated.NRGBAAt(0, 0); got != red {
		t.Fatalf("90 degrees: expected red at (0,0), got %+v", got)
	}
	if got := rotated.NRGBAAt(0, 1); got != blue {
		t.Fatalf("90 degrees: expected blue at (0,1), got %+v", got)
	}

	flipped := Rotate(img, 180).(*image.NRGBA)
	if got := flipped.NRGBAAt(0, 0); got != blue {
		t.Fatalf("180 degrees: expected blue at (0,0), got %+v", got)
	}
	if got := flipped.NRGBAAt(1, 0); got != red {
		t.Fatalf("180 degrees: expected red at (1,0), got %+v", got)
	}
}

func TestRotateArbitraryEnlargesCanvas(t *testing.T) {
	img := solidImage(100, 50, color.NRGBA{B: 255, A: 255})
	got := Rotate(img, 45)
	b := got.Bounds()
	// At 45 degrees both output dimensions must cover the rotated diagonal.
	if b.Dx() < 100 || b.Dy() < 100 {
		t.Fatalf("expected enlarged canvas, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestRotateQuarterRoundTripPreservesDimensions(t *testing.T) {
	img := solidImage(30, 70, color.NRGBA{R: 128, A: 255})
	got := Rotate(Rotate(img, 90), 270)
	b := got.Bounds()
	if b.Dx() != 30 || b.Dy() != 70 {
		t.Fatalf("round trip changed dimensions: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestResizePreservesAspectRatio(t *testing.T) {
	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{1000, 500, 500, 250},
		{300, 600, 250, 500},
		{500, 500, 500, 500},
		{2000, 300, 500, 75},
	}
	for _, tc := range cases {
		got := Resize(solidImage(tc.w, tc.h, color.NRGBA{A: 255}), 500)
		b := got.Bounds()
		if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
			t.Fatalf("Resize(%dx%d): got %dx%d, want %dx%d",
				tc.w, tc.h, b.Dx(), b.Dy(), tc.wantW, tc.wantH)
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	img := solidImage(64, 32, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	data, err := EncodeJPEG(img)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 64 || b.Dy() != 32 {
		t.Fatalf("dimensions not preserved: got %dx%d", b.Dx(), b.Dy())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode([]byte("definitely not an image")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestCropHandlesNonZeroOrigin(t *testing.T) {
	// Source anchored away from the origin, as a sub-image would be.
	src := image.NewNRGBA(image.Rect(10, 10, 30, 30))
	marker := color.NRGBA{R: 255, A: 255}
	src.SetNRGBA(15, 15, marker)

	got := crop(src, image.Rect(5, 5, 15, 15)).(*image.NRGBA)
	b := got.Bounds()
	if b.Min.X != 0 || b.Min.Y != 0 || b.Dx() != 10 || b.Dy() != 10 {
		t.Fatalf("unexpected crop bounds %v", b)
	}
	if c := got.NRGBAAt(0, 0); c != marker {
		t.Fatalf("expected marker pixel at origin, got %+v", c)
	}
}
