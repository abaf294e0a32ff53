//go:build windows

package wasapi

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	avrt                          = windows.NewLazySystemDLL("avrt.dll")
	procAvSetMmThreadCharacteristicsW = avrt.NewProc("AvSetMmThreadCharacteristicsW")
)

func init() {
	RaiseProAudioPriority = raiseProAudioPriorityWindows
}

// raiseProAudioPriorityWindows puts the calling thread in the "Pro
// Audio" MMCSS task class via avrt.dll, the low-latency scheduling
// class real-time exclusive-mode audio callbacks are expected to run
// in. A failure only costs scheduling latency, never correctness, so
// it is swallowed rather than surfaced (spec.md glossary "Pro Audio
// task").
func raiseProAudioPriorityWindows() {
	taskName, err := windows.UTF16PtrFromString("Pro Audio")
	if err != nil {
		return
	}
	var taskIndex uint32
	_, _, _ = procAvSetMmThreadCharacteristicsW.Call(
		uintptr(unsafe.Pointer(taskName)),
		uintptr(unsafe.Pointer(&taskIndex)),
	)
}
