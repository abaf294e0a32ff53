// Package wasapitest provides in-memory fakes of the internal/wasapi
// collaborator interfaces, so internal/directory, internal/prober,
// internal/opener and internal/runtime are unit-testable on any
// platform without real hardware — mirroring the teacher's split
// between hardware-free unit tests and its //go:build integration
// hardware suite (internal/audio/capture_integration_test.go).
package wasapitest

import (
	"errors"
	"sync"
	"time"

	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// ErrNotSupported is an error value tests can script into fakes; a
// FakeAudioClient whose Supports predicate rejects a candidate reports
// wasapi.Unsupported with a nil error instead.
var ErrNotSupported = errors.New("wasapitest: format not supported")

// FakeDevice is a scripted wasapi.Device.
type FakeDevice struct {
	DeviceInfo wasapi.DeviceInfo
	Client     *FakeAudioClient
	OpenErr    error
}

func (d *FakeDevice) Info() (wasapi.DeviceInfo, error) { return d.DeviceInfo, nil }

func (d *FakeDevice) OpenAudioClient() (wasapi.AudioClient, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	return d.Client, nil
}

// FakeCollection is a scripted wasapi.DeviceCollection.
type FakeCollection struct {
	Devices []*FakeDevice
}

func (c *FakeCollection) Count() (int, error) { return len(c.Devices), nil }

func (c *FakeCollection) At(index int) (wasapi.Device, error) {
	if index < 0 || index >= len(c.Devices) {
		return nil, errors.New("wasapitest: index out of range")
	}
	return c.Devices[index], nil
}

// FakeEventHandle is a manually-signaled wasapi.EventHandle, standing
// in for the OS auto-reset event WASAPI signals at each buffer
// boundary.
type FakeEventHandle struct {
	signal chan struct{}
	once   sync.Once
}

// NewFakeEventHandle returns a handle whose Wait blocks until Signal
// is called, consuming exactly one pending signal per Wait (auto-reset
// semantics, matching CreateEventW(..., bManualReset=FALSE, ...)).
func NewFakeEventHandle() *FakeEventHandle {
	return &FakeEventHandle{signal: make(chan struct{}, 64)}
}

func (h *FakeEventHandle) Signal() {
	select {
	case h.signal <- struct{}{}:
	default:
	}
}

func (h *FakeEventHandle) Wait(timeoutMillis int) error {
	select {
	case <-h.signal:
		return nil
	case <-time.After(time.Duration(timeoutMillis) * time.Millisecond):
		return wasapi.ErrWaitTimeout
	}
}

func (h *FakeEventHandle) Close() error {
	h.once.Do(func() { close(h.signal) })
	return nil
}

// FakeClock is a manually-advanced wasapi.Clock.
type FakeClock struct {
	mu    sync.Mutex
	freq  uint64
	pos   uint64
}

func NewFakeClock(freq uint64) *FakeClock { return &FakeClock{freq: freq} }

func (c *FakeClock) Frequency() (uint64, error) { return c.freq, nil }

func (c *FakeClock) Position() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos, nil
}

func (c *FakeClock) Advance(ticks uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pos += ticks
}

// FakeRenderClient records every frame handed to WriteToDevice by
// appending it to an in-memory slice the test can inspect.
type FakeRenderClient struct {
	mu      sync.Mutex
	Written []byte
	WriteErr error
}

func (r *FakeRenderClient) WriteToDevice(frames int, frameBytes int, data []byte) error {
	if r.WriteErr != nil {
		return r.WriteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	want := frames * frameBytes
	if want > len(data) {
		want = len(data)
	}
	r.Written = append(r.Written, data[:want]...)
	return nil
}

// FakeCaptureClient serves ReadFromDevice from a pre-loaded byte
// source, frameBytes at a time, so tests can simulate a device that
// has produced a known sequence of captured frames.
type FakeCaptureClient struct {
	mu        sync.Mutex
	Source    []byte
	offset    int
	FlagsFunc func(framesRead int) wasapi.BufferFlags
	ReadErr   error
}

func (r *FakeCaptureClient) ReadFromDevice(frameBytes int, buf []byte) (int, wasapi.BufferFlags, error) {
	if r.ReadErr != nil {
		return 0, wasapi.BufferFlags{}, r.ReadErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := len(r.Source) - r.offset
	if remaining <= 0 {
		return 0, wasapi.BufferFlags{}, nil
	}
	maxFrames := len(buf) / frameBytes
	availFrames := remaining / frameBytes
	frames := availFrames
	if frames > maxFrames {
		frames = maxFrames
	}
	n := frames * frameBytes
	copy(buf[:n], r.Source[r.offset:r.offset+n])
	r.offset += n

	var flags wasapi.BufferFlags
	if r.FlagsFunc != nil {
		flags = r.FlagsFunc(frames)
	}
	return frames, flags, nil
}

// FakeSessionControl lets tests fire a disconnect notification on demand.
type FakeSessionControl struct {
	mu     sync.Mutex
	cb     func(wasapi.DisconnectReason)
	closed bool
}

func (s *FakeSessionControl) RegisterDisconnectCallback(cb func(wasapi.DisconnectReason)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cb = cb
	return nil
}

func (s *FakeSessionControl) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Fire invokes the registered callback, if any, simulating a
// session-disconnect event delivered by WASAPI on its own callback
// thread.
func (s *FakeSessionControl) Fire(reason wasapi.DisconnectReason) {
	s.mu.Lock()
	cb := s.cb
	s.mu.Unlock()
	if cb != nil {
		cb(reason)
	}
}

// FakeAudioClient is a fully scripted wasapi.AudioClient: every method
// a test cares about can be overridden via the exported fields, with
// reasonable defaults otherwise.
type FakeAudioClient struct {
	SupportsFunc   func(candidate wasapi.WaveFormatCandidate) (wasapi.SupportResult, *wasapi.WaveFormatCandidate)
	DefaultPeriod  int64
	MinPeriod      int64
	BufferFrames   int
	AvailFrames    int
	Event          *FakeEventHandle
	Clock          *FakeClock
	Render         *FakeRenderClient
	Capture        *FakeCaptureClient
	Session        *FakeSessionControl
	InitializeErr  error
	StartErr       error
	StopErr        error

	mu        sync.Mutex
	started   bool
	initDir   wasapi.Direction
	initCand  wasapi.WaveFormatCandidate
}

func (a *FakeAudioClient) IsSupported(candidate wasapi.WaveFormatCandidate, mode wasapi.ShareMode) (wasapi.SupportResult, *wasapi.WaveFormatCandidate, error) {
	if a.SupportsFunc == nil {
		return wasapi.Supported, &candidate, nil
	}
	result, similar := a.SupportsFunc(candidate)
	if result == wasapi.Unsupported {
		return result, nil, nil
	}
	return result, similar, nil
}

func (a *FakeAudioClient) GetPeriods() (int64, int64, error) { return a.DefaultPeriod, a.MinPeriod, nil }

func (a *FakeAudioClient) Initialize(candidate wasapi.WaveFormatCandidate, periodTicks int64, dir wasapi.Direction, mode wasapi.ShareMode) error {
	if a.InitializeErr != nil {
		return a.InitializeErr
	}
	a.mu.Lock()
	a.initDir = dir
	a.initCand = candidate
	a.mu.Unlock()
	return nil
}

func (a *FakeAudioClient) GetBufferFrameCount() (int, error) { return a.BufferFrames, nil }

func (a *FakeAudioClient) GetAvailableSpaceInFrames() (int, error) { return a.AvailFrames, nil }

func (a *FakeAudioClient) SetEventHandle() (wasapi.EventHandle, error) {
	if a.Event == nil {
		a.Event = NewFakeEventHandle()
	}
	return a.Event, nil
}

func (a *FakeAudioClient) GetAudioClock() (wasapi.Clock, error) {
	if a.Clock == nil {
		a.Clock = NewFakeClock(10_000_000)
	}
	return a.Clock, nil
}

func (a *FakeAudioClient) GetRenderClient() (wasapi.RenderClient, error) {
	if a.Render == nil {
		a.Render = &FakeRenderClient{}
	}
	return a.Render, nil
}

func (a *FakeAudioClient) GetCaptureClient() (wasapi.CaptureClient, error) {
	if a.Capture == nil {
		a.Capture = &FakeCaptureClient{}
	}
	return a.Capture, nil
}

func (a *FakeAudioClient) GetSessionControl() (wasapi.SessionControl, error) {
	if a.Session == nil {
		a.Session = &FakeSessionControl{}
	}
	return a.Session, nil
}

func (a *FakeAudioClient) Start() error {
	if a.StartErr != nil {
		return a.StartErr
	}
	a.mu.Lock()
	a.started = true
	a.mu.Unlock()
	return nil
}

func (a *FakeAudioClient) Stop() error {
	if a.StopErr != nil {
		return a.StopErr
	}
	a.mu.Lock()
	a.started = false
	a.mu.Unlock()
	return nil
}

func (a *FakeAudioClient) Reset() error { return nil }

func (a *FakeAudioClient) Close() error { return nil }

// Started reports whether Start has been called more recently than Stop.
func (a *FakeAudioClient) Started() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.started
}
