//go:build windows

package wasapi

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// wcaEventHandle wraps the auto-reset Win32 event WASAPI signals at
// each buffer boundary in event-driven exclusive mode (spec.md §4.3
// "inner loop"). Grounded on windows.CreateEventEx +
// windows.WaitForSingleObject, the same pair
// _examples/josharian-oto/driver_wasapi_windows.go uses for its render
// wait loop.
type wcaEventHandle struct {
	handle windows.Handle
}

func newEventHandle() (*wcaEventHandle, error) {
	h, err := windows.CreateEventEx(nil, nil, 0, windows.EVENT_ALL_ACCESS)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &wcaEventHandle{handle: h}, nil
}

func (e *wcaEventHandle) Wait(timeoutMillis int) error {
	r, err := windows.WaitForSingleObject(e.handle, uint32(timeoutMillis))
	switch r {
	case windows.WAIT_OBJECT_0:
		return nil
	case uint32(windows.WAIT_TIMEOUT):
		return ErrWaitTimeout
	default:
		if err != nil {
			return err
		}
		return fmt.Errorf("wasapi: wait failed, code %d", r)
	}
}

func (e *wcaEventHandle) Close() error {
	return windows.CloseHandle(e.handle)
}
