package tidlrt

import (
	"fmt"
	"sort"

	"github.com/mattn/go-tflite"
	"github.com/x448/float16"
	"gocv.io/x/gocv"
)

// f16LookupTable is a precomputed table for converting float16 output
// tensors to float32
var f16LookupTable [65536]float32

func init() {
	for i := range f16LookupTable {
		f16LookupTable[i] = float16.Frombits(uint16(i)).Float32()
	}
}

// Output holds the data of a single model output tensor
type Output struct {
	// Index is the output tensor index
	Index int
	// BufFloat holds the output data as float32.  Quantized tensors are
	// dequantized into it when the runtime wantFloat option is set
	BufFloat []float32
	// BufUint holds the raw quantized output data when wantFloat is false
	BufUint []uint8
	// Size is the output tensor byte size
	Size uint
}

// Outputs holds the results of a single inference invocation.  Buffers are
// copied out of the interpreter so they remain valid after the next
// invocation.
type Outputs struct {
	Output []Output
	// runtime instance
	rt *Runtime
}

// Inference runs the model on the given input images.  One Mat per model
// input tensor, already preprocessed to the tensor's spatial dimensions.
func (r *Runtime) Inference(mats []gocv.Mat) (*Outputs, error) {

	if len(mats) != len(r.inputAttrs) {
		return nil, fmt.Errorf("model expects %d input tensors, got %d images",
			len(r.inputAttrs), len(mats))
	}

	for idx, mat := range mats {

		// make mat continuous, releasing the clone once its data has been
		// copied into the input tensor
		if !mat.IsContinuous() {
			clone := mat.Clone()
			defer clone.Close()
			mat = clone
		}

		tensor := r.interpreter.GetInputTensor(idx)

		if r.inputTypeFloat32 {
			data, err := mat.DataPtrFloat32()

			if err != nil {
				return nil, fmt.Errorf("error getting data pointer to Mat: %w", err)
			}

			if status := tensor.CopyFromBuffer(data); status != tflite.OK {
				return nil, fmt.Errorf("error copying input tensor %d, status %d",
					idx, status)
			}

		} else {
			data, err := mat.DataPtrUint8()

			if err != nil {
				return nil, fmt.Errorf("error getting data pointer to Mat: %w", err)
			}

			if status := tensor.CopyFromBuffer(data); status != tflite.OK {
				return nil, fmt.Errorf("error copying input tensor %d, status %d",
					idx, status)
			}
		}
	}

	return r.invoke()
}

// InferenceTensor runs the model on a single preprocessed float32 tensor,
// for use with the pure Go preprocessing path
func (r *Runtime) InferenceTensor(data []float32) (*Outputs, error) {

	tensor := r.interpreter.GetInputTensor(0)

	if status := tensor.CopyFromBuffer(data); status != tflite.OK {
		return nil, fmt.Errorf("error copying input tensor, status %d", status)
	}

	return r.invoke()
}

// invoke runs the interpreter and collects all output tensors
func (r *Runtime) invoke() (*Outputs, error) {

	if status := r.interpreter.Invoke(); status != tflite.OK {
		return nil, fmt.Errorf("interpreter invoke failed, status %d", status)
	}

	outputs := &Outputs{
		Output: make([]Output, len(r.outputAttrs)),
		rt:     r,
	}

	for i, attr := range r.outputAttrs {

		tensor := r.interpreter.GetOutputTensor(i)

		out := Output{
			Index: i,
			Size:  attr.Size,
		}

		switch attr.Type {

		case tflite.Float32:
			out.BufFloat = make([]float32, attr.NumElements())
			copy(out.BufFloat, tensor.Float32s())

		case tflite.Float16:
			raw := make([]uint16, attr.NumElements())

			if status := tensor.CopyToBuffer(raw); status != tflite.OK {
				return nil, fmt.Errorf("error copying output tensor %d, status %d",
					i, status)
			}

			out.BufFloat = make([]float32, len(raw))

			for j, bits := range raw {
				out.BufFloat[j] = f16LookupTable[bits]
			}

		case tflite.UInt8:
			if r.wantFloat {
				out.BufFloat = dequantize(tensor.UInt8s(), attr.ZP, attr.Scale)
			} else {
				out.BufUint = make([]uint8, attr.NumElements())
				copy(out.BufUint, tensor.UInt8s())
			}

		default:
			return nil, fmt.Errorf("unsupported output tensor type %s",
				TensorTypeString(attr.Type))
		}

		outputs.Output[i] = out
	}

	return outputs, nil
}

// dequantize converts a quantized uint8 buffer back to float32 using the
// tensor's affine zero point and scale
func dequantize(buf []uint8, zp int, scale float32) []float32 {

	out := make([]float32, len(buf))

	for i, q := range buf {
		out[i] = (float32(q) - float32(zp)) * scale
	}

	return out
}

// InputAttribute of trained model input tensor
type InputAttribute struct {
	Width   int
	Height  int
	Channel int
}

// InputAttributes returns the Model input image dimensions.  TFLite image
// models use NHWC layout.
func (o *Outputs) InputAttributes() InputAttribute {

	dims := o.rt.inputAttrs[0].Dims

	if len(dims) != 4 {
		return InputAttribute{}
	}

	return InputAttribute{
		Height:  dims[1],
		Width:   dims[2],
		Channel: dims[3],
	}
}

// Probability is a single classification result
type Probability struct {
	LabelIndex  int
	Probability float32
}

// GetTop5 returns the Top5 classification matches of the first output
// tensor in descending order of probability.  Index 0 is skipped following
// the 1001 class ImageNet convention where it holds the background class.
func GetTop5(outputs []Output) []Probability {

	if len(outputs) == 0 {
		return nil
	}

	return TopK(outputs[0].BufFloat, 5, 1)
}

// TopK returns the k highest scoring classes in descending score order,
// ignoring class indices below startIndex.  Ties are broken by ascending
// index so results are deterministic.
func TopK(scores []float32, k, startIndex int) []Probability {

	if k < 0 {
		k = 0
	}

	if startIndex < 0 {
		startIndex = 0
	}

	if startIndex > len(scores) {
		startIndex = len(scores)
	}

	indices := make([]int, 0, len(scores)-startIndex)

	for i := startIndex; i < len(scores); i++ {
		indices = append(indices, i)
	}

	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})

	if k > len(indices) {
		k = len(indices)
	}

	probs := make([]Probability, k)

	for i := 0; i < k; i++ {
		probs[i] = Probability{
			LabelIndex:  indices[i],
			Probability: scores[indices[i]],
		}
	}

	return probs
}

// DecodeLabels converts classification results to their label strings.
// Indices outside the label table are rendered as the index number.
func DecodeLabels(probs []Probability, labels []string) []string {

	out := make([]string, len(probs))

	for i, p := range probs {
		if p.LabelIndex >= 0 && p.LabelIndex < len(labels) {
			out[i] = labels[p.LabelIndex]
		} else {
			out[i] = fmt.Sprintf("class %d", p.LabelIndex)
		}
	}

	return out
}
