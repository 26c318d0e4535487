package preprocess

import (
	"fmt"
	"image"
	"os"

	// register decoders for the common calibration image formats
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
)

// ImageToTensor scales, crops, and normalizes an image into a NHWC float32
// tensor (batch 1, cropSize, cropSize, 3 RGB channels) without using GoCV.
// This is the path used on x86 compilation hosts where OpenCV is not
// installed.
func ImageToTensor(img image.Image, shortSide, cropSize int, mean, scale float32) ([]float32, error) {

	bounds := img.Bounds()
	srcW := bounds.Dx()
	srcH := bounds.Dy()

	if srcW == 0 || srcH == 0 {
		return nil, fmt.Errorf("source image is empty")
	}

	resizeW, resizeH := ScaleDims(srcW, srcH, shortSide)

	if resizeW < cropSize || resizeH < cropSize {
		return nil, fmt.Errorf("resized image %dx%d is smaller than crop size %d",
			resizeW, resizeH, cropSize)
	}

	resized := resize.Resize(uint(resizeW), uint(resizeH), img, resize.Bilinear)

	xOff := CropOffset(resizeW, cropSize)
	yOff := CropOffset(resizeH, cropSize)

	origin := resized.Bounds().Min

	tensor := make([]float32, cropSize*cropSize*3)
	i := 0

	for y := 0; y < cropSize; y++ {
		for x := 0; x < cropSize; x++ {

			cr, cg, cb, _ := resized.At(origin.X+xOff+x, origin.Y+yOff+y).RGBA()

			// RGBA returns 16 bit channels, shift back to 8 bit
			tensor[i] = (float32(cr>>8) - mean) * scale
			tensor[i+1] = (float32(cg>>8) - mean) * scale
			tensor[i+2] = (float32(cb>>8) - mean) * scale
			i += 3
		}
	}

	return tensor, nil
}

// LoadImageTensor reads an image file and converts it to a normalized NHWC
// float32 tensor using the default ImageNet preprocessing parameters
func LoadImageTensor(file string) ([]float32, error) {

	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening image %s: %w", file, err)
	}

	defer f.Close()

	img, _, err := image.Decode(f)

	if err != nil {
		return nil, fmt.Errorf("error decoding image %s: %w", file, err)
	}

	return ImageToTensor(img, DefaultShortSide, DefaultCropSize,
		DefaultMean, DefaultScale)
}
