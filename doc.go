/*
go-tidlrt provides a Go toolkit for compiling and running TensorFlow Lite
models with the Texas Instruments TIDL delegate, the closed source plugin
that offloads model subgraphs to the C7x DSP and MMA accelerator on TI
edge AI SoCs (AM62A, AM68A, AM69A, TDA4VM).

The delegate itself is a vendor shared object driven through the standard
TFLite external delegate contract.  This package covers the glue around it:
image preprocessing, delegate option construction, artifact directory
bookkeeping, the offline calibration/compilation loop, on-device inference
with top-K label decoding, and benchmark reporting.

See example code and usage in the example subdirectory.
*/
package tidlrt
