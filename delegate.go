package tidlrt

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

// The TFLite external delegate contract every vendor delegate exports.
typedef void* (*tidl_create_fn)(char**, char**, size_t, void (*)(const char*));
typedef void (*tidl_destroy_fn)(void*);

static void* tidl_call_create(void* fn, char** keys, char** values, size_t n) {
	return ((tidl_create_fn)fn)(keys, values, n, NULL);
}

static void tidl_call_destroy(void* fn, void* delegate) {
	((tidl_destroy_fn)fn)(delegate);
}
*/
import "C"
import (
	"fmt"
	"os"
	"unsafe"
)

// symbol names of the TFLite external delegate entry points
const (
	createSymbol  = "tflite_plugin_create_delegate"
	destroySymbol = "tflite_plugin_destroy_delegate"
)

// Delegate wraps the vendor TIDL delegate shared object loaded through the
// TFLite external delegate contract.  It implements the go-tflite
// delegates.Delegater interface so it can be attached to interpreter
// options.
type Delegate struct {
	// handle is the dlopen handle of the vendor shared object
	handle unsafe.Pointer
	// createFn and destroyFn are the resolved entry points
	createFn  unsafe.Pointer
	destroyFn unsafe.Pointer
	// delegate is the TfLiteDelegate instance created by the vendor library
	delegate unsafe.Pointer
}

// LoadDelegate opens the delegate shared object at libPath and creates a
// delegate instance configured with the given options.  The option record is
// passed through to the vendor library verbatim, its semantics are owned
// entirely by the delegate.
func LoadDelegate(libPath string, opts []Option) (*Delegate, error) {

	// check file exists in Go, before passing to C
	if _, err := os.Stat(libPath); err != nil {
		return nil, fmt.Errorf("delegate library does not exist at %s, error: %w",
			libPath, err)
	}

	cPath := C.CString(libPath)
	defer C.free(unsafe.Pointer(cPath))

	// RTLD_GLOBAL so the delegate's own dependencies can resolve symbols
	// against the already loaded TFLite runtime
	handle := C.dlopen(cPath, C.RTLD_NOW|C.RTLD_GLOBAL)

	if handle == nil {
		return nil, fmt.Errorf("dlopen %s failed: %s", libPath,
			C.GoString(C.dlerror()))
	}

	d := &Delegate{
		handle: handle,
	}

	var err error
	d.createFn, err = d.symbol(createSymbol)

	if err != nil {
		d.closeHandle()
		return nil, err
	}

	d.destroyFn, err = d.symbol(destroySymbol)

	if err != nil {
		d.closeHandle()
		return nil, err
	}

	err = d.create(opts)

	if err != nil {
		d.closeHandle()
		return nil, err
	}

	return d, nil
}

// symbol resolves a symbol name in the loaded shared object
func (d *Delegate) symbol(name string) (unsafe.Pointer, error) {

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	sym := C.dlsym(d.handle, cName)

	if sym == nil {
		return nil, fmt.Errorf("delegate library does not export %s: %s",
			name, C.GoString(C.dlerror()))
	}

	return sym, nil
}

// create calls the vendor create entry point with the option record
// converted to parallel C string arrays
func (d *Delegate) create(opts []Option) error {

	n := len(opts)

	ptrSize := C.size_t(unsafe.Sizeof(uintptr(0)))

	cKeys := (**C.char)(C.malloc(C.size_t(n+1) * ptrSize))
	cValues := (**C.char)(C.malloc(C.size_t(n+1) * ptrSize))
	defer C.free(unsafe.Pointer(cKeys))
	defer C.free(unsafe.Pointer(cValues))

	keys := (*[1 << 28]*C.char)(unsafe.Pointer(cKeys))[: n+1 : n+1]
	values := (*[1 << 28]*C.char)(unsafe.Pointer(cValues))[: n+1 : n+1]

	for i, opt := range opts {
		keys[i] = C.CString(opt.Key)
		values[i] = C.CString(opt.Value)
	}

	defer func() {
		for i := 0; i < n; i++ {
			C.free(unsafe.Pointer(keys[i]))
			C.free(unsafe.Pointer(values[i]))
		}
	}()

	d.delegate = C.tidl_call_create(d.createFn, cKeys, cValues, C.size_t(n))

	if d.delegate == nil {
		return fmt.Errorf("delegate creation failed, check delegate options " +
			"and debug_level output")
	}

	return nil
}

// Delegate returns the underlying TfLiteDelegate pointer for attaching to
// go-tflite interpreter options
func (d *Delegate) Delegate() unsafe.Pointer {
	return d.delegate
}

// Delete destroys the delegate instance and unloads the shared object
func (d *Delegate) Delete() {

	if d.delegate != nil {
		C.tidl_call_destroy(d.destroyFn, d.delegate)
		d.delegate = nil
	}

	d.closeHandle()
}

// closeHandle releases the dlopen handle
func (d *Delegate) closeHandle() {

	if d.handle != nil {
		C.dlclose(d.handle)
		d.handle = nil
	}
}
