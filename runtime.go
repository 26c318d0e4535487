package tidlrt

import (
	"fmt"
	"os"

	"github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates"
)

// Runtime defines a TFLite interpreter instance with an attached TIDL
// delegate
type Runtime struct {
	model       *tflite.Model
	options     *tflite.InterpreterOptions
	interpreter *tflite.Interpreter
	// delegate is the attached TIDL delegate, nil when running on the Arm
	// cores only
	delegate delegates.Delegater
	// inputAttrs caches the Input Tensor Attributes of the Model
	inputAttrs []TensorAttr
	// outputAttrs caches the Output Tensor Attributes of the Model
	outputAttrs []TensorAttr
	// wantFloat indicates if Outputs are dequantized to float32 or left as
	// uint8.  default option is True
	wantFloat bool
	// inputTypeFloat32 indicates if input data is passed to the interpreter
	// as float32 instead of uint8
	inputTypeFloat32 bool
}

// NewRuntime returns a Runtime instance for the given TFLite model file with
// the TIDL delegate attached.  Pass a nil delegate to run the model without
// hardware offload.  The runtime takes ownership of the delegate and deletes
// it on Close.
func NewRuntime(modelFile string, delegate delegates.Delegater) (*Runtime, error) {

	r := &Runtime{
		wantFloat: true,
		delegate:  delegate,
	}

	err := r.init(modelFile)

	if err != nil {
		r.Close()
		return nil, err
	}

	// cache tensor attributes
	r.inputAttrs = r.queryTensors(true)
	r.outputAttrs = r.queryTensors(false)

	return r, nil
}

// init loads the model file and builds the interpreter
func (r *Runtime) init(modelFile string) error {

	// check file exists in Go, before passing to C
	info, err := os.Stat(modelFile)

	if err != nil {
		return fmt.Errorf("model file does not exist at %s, error: %w",
			modelFile, err)
	}

	if info.IsDir() {
		return fmt.Errorf("model file is a directory")
	}

	r.model = tflite.NewModelFromFile(modelFile)

	if r.model == nil {
		return fmt.Errorf("failed to load model file %s", modelFile)
	}

	r.options = tflite.NewInterpreterOptions()
	r.options.SetNumThread(1)

	if r.delegate != nil {
		r.options.AddDelegate(r.delegate)
	}

	r.interpreter = tflite.NewInterpreter(r.model, r.options)

	if r.interpreter == nil {
		return fmt.Errorf("failed to create interpreter")
	}

	if status := r.interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("failed to allocate tensors, status %d", status)
	}

	return nil
}

// SetNumThreads sets the number of Arm core threads used for the model
// portions not offloaded to the delegate.  Must be called before the first
// Inference.
func (r *Runtime) SetNumThreads(n int) error {

	if n < 1 {
		return fmt.Errorf("number of threads must be at least 1, got %d", n)
	}

	r.options.SetNumThread(n)

	// the interpreter copies options at construction so rebuild it
	r.interpreter.Delete()
	r.interpreter = tflite.NewInterpreter(r.model, r.options)

	if r.interpreter == nil {
		return fmt.Errorf("failed to recreate interpreter")
	}

	if status := r.interpreter.AllocateTensors(); status != tflite.OK {
		return fmt.Errorf("failed to allocate tensors, status %d", status)
	}

	return nil
}

// Close releases the interpreter, options, model, and delegate resources
func (r *Runtime) Close() error {

	if r.interpreter != nil {
		r.interpreter.Delete()
		r.interpreter = nil
	}

	if r.options != nil {
		r.options.Delete()
		r.options = nil
	}

	if r.model != nil {
		r.model.Delete()
		r.model = nil
	}

	if r.delegate != nil {
		r.delegate.Delete()
		r.delegate = nil
	}

	return nil
}

// SetWantFloat defines if quantized Output tensors are dequantized to
// float32 for post processing, or left as raw uint8
func (r *Runtime) SetWantFloat(val bool) {
	r.wantFloat = val
}

// SetInputTypeFloat32 defines if input data is passed to the interpreter as
// float32.  Setting this overrides the default behaviour of passing input
// data as uint8.
func (r *Runtime) SetInputTypeFloat32(val bool) {
	r.inputTypeFloat32 = val
}

// InputAttrs returns the loaded model's input tensor attributes
func (r *Runtime) InputAttrs() []TensorAttr {
	return r.inputAttrs
}

// OutputAttrs returns the loaded model's output tensor attributes
func (r *Runtime) OutputAttrs() []TensorAttr {
	return r.outputAttrs
}
