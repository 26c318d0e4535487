package preprocess

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestScaleDims(t *testing.T) {

	tests := []struct {
		srcWidth  int
		srcHeight int
		shortSide int
		expectedW int
		expectedH int
	}{
		{1280, 720, 256, 455, 256},
		{800, 1000, 256, 256, 320},
		{800, 800, 256, 256, 256},
		{224, 448, 256, 256, 512},
	}

	for _, tc := range tests {

		w, h := ScaleDims(tc.srcWidth, tc.srcHeight, tc.shortSide)

		if w != tc.expectedW || h != tc.expectedH {
			t.Errorf("src (%d, %d): expected resize (%d, %d), got (%d, %d)",
				tc.srcWidth, tc.srcHeight, tc.expectedW, tc.expectedH, w, h)
		}
	}
}

func TestCropOffset(t *testing.T) {

	tests := []struct {
		resized  int
		crop     int
		expected int
	}{
		{256, 224, 16},
		{320, 224, 48},
		{455, 224, 115},
		{224, 224, 0},
	}

	for _, tc := range tests {
		if got := CropOffset(tc.resized, tc.crop); got != tc.expected {
			t.Errorf("resized %d crop %d: expected offset %d, got %d",
				tc.resized, tc.crop, tc.expected, got)
		}
	}
}

func TestImageToTensor(t *testing.T) {

	// uniform color survives bilinear resizing so every tensor value is
	// exactly predictable
	img := uniformImage(300, 400, color.RGBA{R: 200, G: 100, B: 50, A: 255})

	tensor, err := ImageToTensor(img, DefaultShortSide, DefaultCropSize,
		DefaultMean, DefaultScale)

	if err != nil {
		t.Fatalf("ImageToTensor failed: %v", err)
	}

	if len(tensor) != DefaultCropSize*DefaultCropSize*3 {
		t.Fatalf("expected %d tensor values, got %d",
			DefaultCropSize*DefaultCropSize*3, len(tensor))
	}

	// (v - 128) * 0.0078125 per channel
	expected := []float32{0.5625, -0.21875, -0.609375}

	for i := 0; i < len(tensor); i += 3 {
		for c := 0; c < 3; c++ {
			if math.Abs(float64(tensor[i+c]-expected[c])) > 1e-6 {
				t.Fatalf("tensor value %d: expected %f, got %f",
					i+c, expected[c], tensor[i+c])
			}
		}
	}
}

func TestImageToTensorTooSmall(t *testing.T) {

	img := uniformImage(10, 10, color.RGBA{A: 255})

	// a 10x10 source scaled to short side 8 cannot be cropped to 224
	_, err := ImageToTensor(img, 8, DefaultCropSize, DefaultMean, DefaultScale)

	if err == nil {
		t.Errorf("expected error for crop larger than resized image")
	}
}

func TestLoadImageTensorIdempotent(t *testing.T) {

	file := filepath.Join(t.TempDir(), "calib.png")

	img := image.NewRGBA(image.Rect(0, 0, 320, 240))

	for y := 0; y < 240; y++ {
		for x := 0; x < 320; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x + y), A: 255})
		}
	}

	f, err := os.Create(file)

	if err != nil {
		t.Fatalf("failed creating image file: %v", err)
	}

	err = png.Encode(f, img)
	f.Close()

	if err != nil {
		t.Fatalf("failed encoding image: %v", err)
	}

	first, err := LoadImageTensor(file)

	if err != nil {
		t.Fatalf("first LoadImageTensor failed: %v", err)
	}

	second, err := LoadImageTensor(file)

	if err != nil {
		t.Fatalf("second LoadImageTensor failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("tensor lengths differ, %d vs %d", len(first), len(second))
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("tensor value %d differs between runs, %f vs %f",
				i, first[i], second[i])
		}
	}
}

func TestLoadImageTensorMissingFile(t *testing.T) {

	_, err := LoadImageTensor(filepath.Join(t.TempDir(), "missing.jpg"))

	if err == nil {
		t.Errorf("expected error for missing image file")
	}
}

// uniformImage creates a solid color test image
func uniformImage(w, h int, clr color.RGBA) image.Image {

	img := image.NewRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, clr)
		}
	}

	return img
}
