//go:build windows

package wasapi

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/moutend/go-wca"
)

// wcaSessionControl wraps IAudioSessionControl's disconnect
// notification (spec.md §5 "session disconnect" — format changes and
// device removal both surface here). go-wca exposes the consumer side
// of IAudioSessionControl but, like every COM event source, the sink
// (IAudioSessionEvents) has to be implemented by the caller: there is
// no hand-rolled-sink example anywhere in the retrieval pack, so the
// vtable below is built directly against the documented layout the
// same way _examples/josharian-oto/driver_wasapi_windows.go builds its
// own consumer-side interface wrappers, just for an implemented
// (server) interface instead of a consumed one.
type wcaSessionControl struct {
	control *wca.IAudioSessionControl
	sink    *sessionEventsSink
}

func newSessionControl(control *wca.IAudioSessionControl) *wcaSessionControl {
	return &wcaSessionControl{control: control}
}

func (s *wcaSessionControl) RegisterDisconnectCallback(cb func(DisconnectReason)) error {
	sink := newSessionEventsSink(cb)
	if err := s.control.RegisterAudioSessionNotification((*wca.IAudioSessionEvents)(unsafe.Pointer(sink))); err != nil {
		return err
	}
	s.sink = sink
	return nil
}

func (s *wcaSessionControl) Close() error {
	if s.sink != nil {
		_ = s.control.UnregisterAudioSessionNotification((*wca.IAudioSessionEvents)(unsafe.Pointer(s.sink)))
		s.sink.release()
		s.sink = nil
	}
	s.control.Release()
	return nil
}

// audioSessionDisconnectReason mirrors AudioSessionDisconnectReason.
const audioSessionDisconnectReasonFormatChanged = 2

// sessionEventsVtbl is the IAudioSessionEvents vtable: IUnknown's three
// methods followed by the seven IAudioSessionEvents callbacks, each a
// stdcall-ABI-compatible syscall.NewCallback trampoline into the Go
// methods below.
type sessionEventsVtbl struct {
	queryInterface         uintptr
	addRef                 uintptr
	release                uintptr
	onDisplayNameChanged   uintptr
	onIconPathChanged      uintptr
	onSimpleVolumeChanged  uintptr
	onChannelVolumeChanged uintptr
	onGroupingParamChanged uintptr
	onStateChanged         uintptr
	onSessionDisconnected  uintptr
}

// sessionEventsSink is a minimal IAudioSessionEvents implementation:
// its only live behavior is forwarding OnSessionDisconnected, every
// other callback is a no-op success return. Must start with a *vtbl
// pointer to satisfy the COM interface layout expected by
// RegisterAudioSessionNotification.
type sessionEventsSink struct {
	vtbl *sessionEventsVtbl
	refs int32
	cb   func(DisconnectReason)
}

var sessionSinks sync.Map // *sessionEventsSink -> struct{}, keeps sinks alive against the GC while COM holds a raw pointer

var sharedSessionEventsVtbl = &sessionEventsVtbl{
	queryInterface:         syscall.NewCallback(sinkQueryInterface),
	addRef:                 syscall.NewCallback(sinkAddRef),
	release:                syscall.NewCallback(sinkRelease),
	onDisplayNameChanged:   syscall.NewCallback(sinkNoopReturnOK2),
	onIconPathChanged:      syscall.NewCallback(sinkNoopReturnOK2),
	onSimpleVolumeChanged:  syscall.NewCallback(sinkNoopReturnOK3),
	onChannelVolumeChanged: syscall.NewCallback(sinkNoopReturnOK4),
	onGroupingParamChanged: syscall.NewCallback(sinkNoopReturnOK2),
	onStateChanged:         syscall.NewCallback(sinkOnStateChanged),
	onSessionDisconnected:  syscall.NewCallback(sinkOnSessionDisconnected),
}

func newSessionEventsSink(cb func(DisconnectReason)) *sessionEventsSink {
	s := &sessionEventsSink{vtbl: sharedSessionEventsVtbl, refs: 1, cb: cb}
	sessionSinks.Store(s, struct{}{})
	return s
}

func (s *sessionEventsSink) release() {
	sessionSinks.Delete(s)
}

func sinkFromThis(this uintptr) *sessionEventsSink {
	return (*sessionEventsSink)(unsafe.Pointer(this))
}

func sinkQueryInterface(this uintptr, _ uintptr, ppv uintptr) uintptr {
	*(*uintptr)(unsafe.Pointer(ppv)) = this
	sinkAddRef(this)
	return 0 // S_OK
}

func sinkAddRef(this uintptr) uintptr {
	s := sinkFromThis(this)
	s.refs++
	return uintptr(s.refs)
}

func sinkRelease(this uintptr) uintptr {
	s := sinkFromThis(this)
	s.refs--
	return uintptr(s.refs)
}

func sinkNoopReturnOK2(_ uintptr, _ uintptr, _ uintptr) uintptr           { return 0 }
func sinkNoopReturnOK3(_ uintptr, _ uintptr, _ uintptr, _ uintptr) uintptr { return 0 }
func sinkNoopReturnOK4(_ uintptr, _ uintptr, _ uintptr, _ uintptr, _ uintptr) uintptr {
	return 0
}

func sinkOnStateChanged(_ uintptr, _ uintptr) uintptr { return 0 }

func sinkOnSessionDisconnected(this uintptr, reasonRaw uintptr) uintptr {
	s := sinkFromThis(this)
	reason := DisconnectError
	if uint32(reasonRaw) == audioSessionDisconnectReasonFormatChanged {
		reason = DisconnectFormatChanged
	}
	if s.cb != nil {
		s.cb(reason)
	}
	return 0
}
