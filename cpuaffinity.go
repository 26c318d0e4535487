package tidlrt

import (
	"fmt"
	"strings"
	"syscall"
	"unsafe"
)

// CPU affinity masks for the Arm core clusters of TI edge AI SoCs.  Pinning
// the process to a fixed cluster keeps benchmark timings stable on devices
// where the scheduler would otherwise migrate between cores.
const (
	// AM62ACores is the cpu affinity mask of the four cortex A53 cores 0-3
	AM62ACores = uintptr(0b00001111)
	// AM67ACores is the cpu affinity mask of the four cortex A53 cores 0-3
	AM67ACores = uintptr(0b00001111)
	// AM68ACores is the cpu affinity mask of the two cortex A72 cores 0-1
	AM68ACores = uintptr(0b00000011)
	// AM69ACores is the cpu affinity mask of the eight cortex A72 cores 0-7
	AM69ACores = uintptr(0b11111111)
	// TDA4VMCores is the cpu affinity mask of the two cortex A72 cores 0-1
	TDA4VMCores = uintptr(0b00000011)
)

// coreMaskList defines the CPU core masks for lookup by device key
var coreMaskList = map[string]uintptr{
	"am62a":  AM62ACores,
	"am67a":  AM67ACores,
	"am68a":  AM68ACores,
	"am69a":  AM69ACores,
	"tda4vm": TDA4VMCores,
}

// SetCPUAffinity sets the CPU Affinity mask of the program to run on the
// specified cores
func SetCPUAffinity(mask uintptr) error {

	_, _, err := syscall.RawSyscall(syscall.SYS_SCHED_SETAFFINITY, 0,
		unsafe.Sizeof(mask), uintptr(unsafe.Pointer(&mask)))

	if err != 0 {
		return fmt.Errorf("failed to set CPU affinity: %w", err)
	}

	return nil
}

// GetCPUAffinity gets the current CPU Affinity mask the program is running
// on
func GetCPUAffinity() (uintptr, error) {

	var mask uintptr

	_, _, err := syscall.RawSyscall(syscall.SYS_SCHED_GETAFFINITY, 0,
		unsafe.Sizeof(mask), uintptr(unsafe.Pointer(&mask)))

	if err != 0 {
		return 0, fmt.Errorf("failed to get CPU affinity: %w", err)
	}

	return mask, nil
}

// SetCPUAffinityByDevice sets the CPU Affinity mask for the given TI device
// name, eg: "am62a" or "tda4vm"
func SetCPUAffinityByDevice(device string) error {

	mask, ok := coreMaskList[strings.ToLower(device)]

	if !ok {
		return fmt.Errorf("unknown device %s", device)
	}

	return SetCPUAffinity(mask)
}
