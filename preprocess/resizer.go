// Package preprocess prepares images for classification model input
// tensors.  Images are resized preserving aspect ratio so the shorter side
// reaches a target length, center cropped to the model's square input size,
// then normalized per channel with an affine transform.
package preprocess

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Default preprocessing parameters for ImageNet trained classification
// models with 224x224 input tensors
const (
	DefaultShortSide = 256
	DefaultCropSize  = 224
	DefaultMean      = float32(128)
	DefaultScale     = float32(0.0078125)
)

// Resizer defines the struct used for handling image scaling, cropping, and
// normalization using GoCV
type Resizer struct {
	// shortSide is the length the image's shorter side is scaled to
	shortSide int
	// cropSize is the square size center cropped from the resized image
	cropSize int
	// mean and scale are the per channel normalization parameters, a pixel
	// value v becomes (v - mean) * scale
	mean  float32
	scale float32
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
}

// NewResizer returns a resizer producing cropSize square tensors
func NewResizer(shortSide, cropSize int) *Resizer {
	return &Resizer{
		shortSide: shortSide,
		cropSize:  cropSize,
		mean:      DefaultMean,
		scale:     DefaultScale,
		tempMat:   gocv.NewMat(),
	}
}

// SetNormalization overrides the default normalization parameters
func (r *Resizer) SetNormalization(mean, scale float32) {
	r.mean = mean
	r.scale = scale
}

// Close frees memory allocated during the resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// Preprocess scales, crops, and normalizes the source image into a float32
// Mat shaped for the model input tensor.  The source must be an RGB image.
func (r *Resizer) Preprocess(src gocv.Mat, dest *gocv.Mat) error {

	srcW := src.Cols()
	srcH := src.Rows()

	if srcW == 0 || srcH == 0 {
		return fmt.Errorf("source image is empty")
	}

	resizeW, resizeH := ScaleDims(srcW, srcH, r.shortSide)

	if resizeW < r.cropSize || resizeH < r.cropSize {
		return fmt.Errorf("resized image %dx%d is smaller than crop size %d",
			resizeW, resizeH, r.cropSize)
	}

	gocv.Resize(src, &r.tempMat, image.Pt(resizeW, resizeH),
		0, 0, gocv.InterpolationArea)

	xOff := CropOffset(resizeW, r.cropSize)
	yOff := CropOffset(resizeH, r.cropSize)

	crop := r.tempMat.Region(image.Rect(xOff, yOff,
		xOff+r.cropSize, yOff+r.cropSize))
	defer crop.Close()

	// normalize to float32, dest = scale*v - scale*mean
	crop.ConvertToWithParams(dest, gocv.MatTypeCV32F, r.scale, -r.mean*r.scale)

	return nil
}

// ScaleDims returns the aspect preserving dimensions that bring the shorter
// side of a srcW x srcH image to shortSide
func ScaleDims(srcW, srcH, shortSide int) (int, int) {

	if srcW < srcH {
		return shortSide, srcH * shortSide / srcW
	}

	return srcW * shortSide / srcH, shortSide
}

// CropOffset returns the deterministic center crop start offset for one
// axis, half the resized dimension minus half the crop size
func CropOffset(resized, crop int) int {
	return resized/2 - crop/2
}
