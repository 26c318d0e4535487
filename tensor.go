package tidlrt

import (
	"fmt"
	"strings"

	"github.com/mattn/go-tflite"
)

// TensorAttr describes a model input or output tensor
type TensorAttr struct {
	Index int
	Name  string
	Dims  []int
	Type  tflite.TensorType
	// Size is the tensor byte size
	Size uint
	// ZP and Scale are the affine quantization parameters, zero valued for
	// float tensors
	ZP    int
	Scale float32
}

// queryTensors reads the attributes of all input or output tensors from the
// interpreter
func (r *Runtime) queryTensors(input bool) []TensorAttr {

	count := r.interpreter.GetOutputTensorCount()

	if input {
		count = r.interpreter.GetInputTensorCount()
	}

	attrs := make([]TensorAttr, count)

	for i := 0; i < count; i++ {

		var t *tflite.Tensor

		if input {
			t = r.interpreter.GetInputTensor(i)
		} else {
			t = r.interpreter.GetOutputTensor(i)
		}

		qnt := t.QuantizationParams()

		dims := make([]int, t.NumDims())

		for d := range dims {
			dims[d] = t.Dim(d)
		}

		attrs[i] = TensorAttr{
			Index: i,
			Name:  t.Name(),
			Dims:  dims,
			Type:  t.Type(),
			Size:  uint(t.ByteSize()),
			ZP:    qnt.ZeroPoint,
			Scale: float32(qnt.Scale),
		}
	}

	return attrs
}

// NumElements returns the total number of elements in the tensor
func (a TensorAttr) NumElements() int {

	n := 1

	for _, d := range a.Dims {
		n *= d
	}

	return n
}

// IsQuantized indicates if the tensor carries affine quantization parameters
func (a TensorAttr) IsQuantized() bool {
	return a.Scale != 0
}

// String returns the TensorAttr's attributes formatted as a string
func (a TensorAttr) String() string {

	dims := make([]string, len(a.Dims))

	for i, d := range a.Dims {
		dims[i] = fmt.Sprintf("%d", d)
	}

	return fmt.Sprintf("index=%d, name=%s, dims=[%s], size=%d, type=%s, "+
		"zp=%d, scale=%f",
		a.Index, a.Name, strings.Join(dims, ", "), a.Size,
		TensorTypeString(a.Type), a.ZP, a.Scale,
	)
}

// TensorTypeString returns a readable description of the TFLite tensor type
func TensorTypeString(t tflite.TensorType) string {
	switch t {
	case tflite.Float32:
		return "FP32"
	case tflite.Float16:
		return "FP16"
	case tflite.UInt8:
		return "UINT8"
	case tflite.Int8:
		return "INT8"
	case tflite.Int16:
		return "INT16"
	case tflite.Int32:
		return "INT32"
	case tflite.Int64:
		return "INT64"
	case tflite.Bool:
		return "BOOL"
	case tflite.String:
		return "STRING"
	default:
		return "UNKNOW"
	}
}
