package tidlrt

import (
	"fmt"
	"io"
)

// Query writes the loaded model's input and output tensor information in
// human readable format
func (r *Runtime) Query(w io.Writer) {

	fmt.Fprintf(w, "Model Input Number: %d, Output Number: %d\n",
		len(r.inputAttrs), len(r.outputAttrs))

	fmt.Fprintf(w, "Input tensors:\n")

	for _, attr := range r.inputAttrs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}

	fmt.Fprintf(w, "Output tensors:\n")

	for _, attr := range r.outputAttrs {
		fmt.Fprintf(w, "  %s\n", attr.String())
	}
}
