// Package wasapi declares the collaborator contract the runtime talks to:
// device enumeration, exclusive-mode format negotiation, and the
// streaming primitives (event handle, render/capture clients, clock,
// session control) that WASAPI exposes. The real implementation
// (*_windows.go) is a thin COM wrapper built on go-ole, go-wca and
// golang.org/x/sys/windows; non-Windows builds and tests use the fakes
// in the sibling wasapitest package.
package wasapi

import "fmt"

// Direction is the data flow direction of a device or stream.
type Direction int

const (
	Render Direction = iota
	Capture
)

func (d Direction) String() string {
	if d == Render {
		return "render"
	}
	return "capture"
}

// ShareMode mirrors WASAPI's AUDCLNT_SHAREMODE. Only Exclusive is ever
// requested by this core (spec Non-goal: shared-mode support).
type ShareMode int

const (
	ShareModeExclusive ShareMode = iota
)

// SupportResult is the outcome of IsSupported for a candidate format.
type SupportResult int

const (
	Unsupported SupportResult = iota
	Supported
	SupportedSimilar
)

// WaveFormatCandidate is an opaque WASAPI-level descriptor: the
// analogue of WAVEFORMATEXTENSIBLE / WAVEFORMATEX. Multiple candidates
// may describe the same logical Format (internal/formats.Format).
type WaveFormatCandidate struct {
	StoreBits   int    // container bits per sample (e.g. 16, 24, 32)
	ValidBits   int    // significant bits per sample
	Rate        int    // samples per second
	Channels    int    // channel count
	ChannelMask uint32 // SPEAKER_* mask; 0 is a valid "unspecified" mask
	Extensible  bool   // WAVEFORMATEXTENSIBLE vs legacy WAVEFORMATEX
}

func (c WaveFormatCandidate) String() string {
	layout := "legacy"
	if c.Extensible {
		layout = "extensible"
	}
	return fmt.Sprintf("%dch@%dHz %d/%d-bit mask=%#x (%s)", c.Channels, c.Rate, c.ValidBits, c.StoreBits, c.ChannelMask, layout)
}

// BufferFlags mirrors the flags returned alongside a captured buffer.
type BufferFlags struct {
	Silent            bool
	DataDiscontinuity bool
	TimestampError    bool
}

// DisconnectReason classifies a session-disconnect notification.
type DisconnectReason int

const (
	DisconnectError DisconnectReason = iota
	DisconnectFormatChanged
)

// DeviceInfo is the static, enumerable description of a device.
type DeviceInfo struct {
	ID          string
	FriendlyName string
	Description string
	Direction   Direction
}

// Device is a single enumerated endpoint, not yet opened for streaming.
type Device interface {
	Info() (DeviceInfo, error)
	OpenAudioClient() (AudioClient, error)
}

// DeviceCollection is a direction-scoped enumeration of devices.
type DeviceCollection interface {
	Count() (int, error)
	At(index int) (Device, error)
}

// Clock exposes the device's hardware clock for position/drift queries.
type Clock interface {
	Frequency() (uint64, error)
	Position() (uint64, error)
}

// EventHandle is the OS synchronization primitive signaled at each
// buffer boundary.
type EventHandle interface {
	Wait(timeoutMillis int) error
	Close() error
}

// RenderClient writes frames into the device's exclusive-mode buffer.
type RenderClient interface {
	WriteToDevice(frames int, frameBytes int, data []byte) error
}

// CaptureClient reads frames out of the device's exclusive-mode buffer.
type CaptureClient interface {
	ReadFromDevice(frameBytes int, buf []byte) (framesRead int, flags BufferFlags, err error)
}

// SessionControl lets the runtime register for disconnect notifications.
// The callback must be safe to invoke from an arbitrary COM callback
// thread and must not block.
type SessionControl interface {
	RegisterDisconnectCallback(cb func(DisconnectReason)) error
	Close() error
}

// AudioClient is the per-device exclusive-mode streaming handle
// (IAudioClient + the sub-objects obtained from it).
type AudioClient interface {
	IsSupported(candidate WaveFormatCandidate, mode ShareMode) (SupportResult, *WaveFormatCandidate, error)
	GetPeriods() (defaultPeriod int64, minPeriod int64, err error)
	Initialize(candidate WaveFormatCandidate, periodTicks int64, dir Direction, mode ShareMode) error
	GetBufferFrameCount() (int, error)
	GetAvailableSpaceInFrames() (int, error)
	SetEventHandle() (EventHandle, error)
	GetAudioClock() (Clock, error)
	GetRenderClient() (RenderClient, error)
	GetCaptureClient() (CaptureClient, error)
	GetSessionControl() (SessionControl, error)
	Start() error
	Stop() error
	Reset() error
	Close() error
}
