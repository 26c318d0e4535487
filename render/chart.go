package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"strings"

	"gocv.io/x/gocv"
	"golang.org/x/image/font"
)

// chart layout constants in pixels
const (
	chartMargin   = 20
	chartTitleH   = 30
	chartBarH     = 26
	chartBarGap   = 10
	chartLabelW   = 140
	chartValueW   = 110
	chartBarMaxW  = 360
	ttfTitleColor = 215
)

var barColor = color.RGBA{R: 66, G: 133, B: 244, A: 255}

// BarChart renders a horizontal bar chart of benchmark values, one bar per
// labeled measurement
type BarChart struct {
	// Title is drawn above the bars
	Title string
	// Unit is appended to each rendered value
	Unit string
	// font used for labels and values
	font Font
	// ttfFace is an optional TTF face used for the title
	ttfFace font.Face
}

// NewBarChart returns a bar chart with default fonts
func NewBarChart(title, unit string) *BarChart {
	return &BarChart{
		Title: title,
		Unit:  unit,
		font:  DefaultFont(),
	}
}

// SetTTFFont loads a TTF font used to draw the chart title
func (c *BarChart) SetTTFFont(fontPath string, size float64) error {

	face, err := LoadTTFFace(fontPath, size)

	if err != nil {
		return err
	}

	c.ttfFace = face
	return nil
}

// Render draws the chart into a new Mat.  The caller owns the returned Mat
// and must Close it.
func (c *BarChart) Render(labels []string, values []float64) (gocv.Mat, error) {

	if len(labels) != len(values) {
		return gocv.Mat{}, fmt.Errorf("labels and values length mismatch, %d vs %d",
			len(labels), len(values))
	}

	if len(values) == 0 {
		return gocv.Mat{}, fmt.Errorf("no values to chart")
	}

	width := chartMargin*2 + chartLabelW + chartBarMaxW + chartValueW
	height := chartMargin*2 + chartTitleH + len(values)*(chartBarH+chartBarGap)

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0),
		height, width, gocv.MatTypeCV8UC3)

	// title
	titleY := chartMargin + chartTitleH/2

	if c.ttfFace != nil {
		amount := uint8(ttfTitleColor)
		err := putTTFText(&img, c.ttfFace, c.Title, chartMargin, titleY,
			color.RGBA{R: amount, G: amount, B: amount, A: 255})

		if err != nil {
			img.Close()
			return gocv.Mat{}, err
		}

	} else {
		gocv.PutTextWithParams(&img, c.Title, image.Pt(chartMargin, titleY),
			c.font.Face, c.font.Scale*1.4, c.font.Color, c.font.Thickness,
			c.font.LineType, false)
	}

	max := values[0]

	for _, v := range values {
		if v > max {
			max = v
		}
	}

	if max <= 0 {
		max = 1
	}

	// bars
	for i, v := range values {

		top := chartMargin + chartTitleH + i*(chartBarH+chartBarGap)
		left := chartMargin + chartLabelW
		barW := int(float64(chartBarMaxW) * v / max)

		gocv.PutTextWithParams(&img, labels[i],
			image.Pt(chartMargin, top+chartBarH/2+4),
			c.font.Face, c.font.Scale, c.font.Color, c.font.Thickness,
			c.font.LineType, false)

		gocv.Rectangle(&img, image.Rect(left, top, left+barW, top+chartBarH),
			barColor, -1)

		valueText := fmt.Sprintf("%.2f %s", v, c.Unit)
		gocv.PutTextWithParams(&img, valueText,
			image.Pt(left+barW+8, top+chartBarH/2+4),
			c.font.Face, c.font.Scale, c.font.Color, c.font.Thickness,
			c.font.LineType, false)
	}

	return img, nil
}

// Save renders the chart and writes it to an image file, format chosen by
// the file extension
func (c *BarChart) Save(labels []string, values []float64, file string) error {

	img, err := c.Render(labels, values)

	if err != nil {
		return err
	}

	defer img.Close()

	if ok := gocv.IMWrite(file, img); !ok {
		return fmt.Errorf("error writing chart image to %s", file)
	}

	return nil
}

// TextBars writes an ASCII bar chart for terminals and log files
func TextBars(w io.Writer, labels []string, values []float64, unit string) error {

	if len(labels) != len(values) {
		return fmt.Errorf("labels and values length mismatch, %d vs %d",
			len(labels), len(values))
	}

	max := 0.0
	labelW := 0

	for i, v := range values {
		if v > max {
			max = v
		}

		if len(labels[i]) > labelW {
			labelW = len(labels[i])
		}
	}

	if max <= 0 {
		max = 1
	}

	const barWidth = 40

	for i, v := range values {
		n := int(float64(barWidth) * v / max)
		fmt.Fprintf(w, "%-*s |%-*s| %.2f %s\n", labelW, labels[i],
			barWidth, strings.Repeat("#", n), v, unit)
	}

	return nil
}
