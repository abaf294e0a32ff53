//go:build windows

package wasapi

import (
	"fmt"

	"github.com/moutend/go-wca"
)

const (
	audclntShareModeExclusive      = 1
	audclntStreamflagsEventCallback = 0x00040000
)

// wcaAudioClient wraps IAudioClient, grounded on the Initialize /
// GetBufferSize / GetService / Start / Stop sequence in
// _examples/other_examples's moutend/go-wca loopback example, adapted
// from AUDCLNT_SHAREMODE_SHARED to AUDCLNT_SHAREMODE_EXCLUSIVE with
// AUDCLNT_STREAMFLAGS_EVENTCALLBACK (spec.md §4.1/§4.3: this core only
// ever opens exclusive-mode, event-driven streams).
type wcaAudioClient struct {
	client *wca.IAudioClient
}

func (c *wcaAudioClient) IsSupported(candidate WaveFormatCandidate, _ ShareMode) (SupportResult, *WaveFormatCandidate, error) {
	wfxe := toWaveFormat(candidate)
	err := c.client.IsFormatSupported(audclntShareModeExclusive, wfxe.asBase(), nil)
	if err == nil {
		return Supported, &candidate, nil
	}
	return Unsupported, nil, nil
}

func (c *wcaAudioClient) GetPeriods() (int64, int64, error) {
	var defaultPeriod, minPeriod int64
	if err := c.client.GetDevicePeriod(&defaultPeriod, &minPeriod); err != nil {
		return 0, 0, fmt.Errorf("get device period: %w", err)
	}
	return defaultPeriod, minPeriod, nil
}

func (c *wcaAudioClient) Initialize(candidate WaveFormatCandidate, periodTicks int64, _ Direction, _ ShareMode) error {
	wfxe := toWaveFormat(candidate)
	err := c.client.Initialize(
		audclntShareModeExclusive,
		audclntStreamflagsEventCallback,
		periodTicks,
		periodTicks,
		wfxe.asBase(),
		nil,
	)
	if err != nil {
		return fmt.Errorf("initialize audio client: %w", err)
	}
	return nil
}

func (c *wcaAudioClient) GetBufferFrameCount() (int, error) {
	var frames uint32
	if err := c.client.GetBufferSize(&frames); err != nil {
		return 0, err
	}
	return int(frames), nil
}

func (c *wcaAudioClient) GetAvailableSpaceInFrames() (int, error) {
	var padding uint32
	if err := c.client.GetCurrentPadding(&padding); err != nil {
		return 0, err
	}
	total, err := c.GetBufferFrameCount()
	if err != nil {
		return 0, err
	}
	return total - int(padding), nil
}

func (c *wcaAudioClient) SetEventHandle() (EventHandle, error) {
	evt, err := newEventHandle()
	if err != nil {
		return nil, err
	}
	if err := c.client.SetEventHandle(uintptr(evt.handle)); err != nil {
		evt.Close()
		return nil, fmt.Errorf("set event handle: %w", err)
	}
	return evt, nil
}

func (c *wcaAudioClient) GetAudioClock() (Clock, error) {
	var clock *wca.IAudioClock
	if err := c.client.GetService(wca.IID_IAudioClock, &clock); err != nil {
		return nil, fmt.Errorf("get audio clock: %w", err)
	}
	return &wcaClock{clock: clock}, nil
}

func (c *wcaAudioClient) GetRenderClient() (RenderClient, error) {
	var render *wca.IAudioRenderClient
	if err := c.client.GetService(wca.IID_IAudioRenderClient, &render); err != nil {
		return nil, fmt.Errorf("get render client: %w", err)
	}
	return &wcaRenderClient{client: render}, nil
}

func (c *wcaAudioClient) GetCaptureClient() (CaptureClient, error) {
	var capture *wca.IAudioCaptureClient
	if err := c.client.GetService(wca.IID_IAudioCaptureClient, &capture); err != nil {
		return nil, fmt.Errorf("get capture client: %w", err)
	}
	return &wcaCaptureClient{client: capture}, nil
}

func (c *wcaAudioClient) GetSessionControl() (SessionControl, error) {
	var control *wca.IAudioSessionControl
	if err := c.client.GetService(wca.IID_IAudioSessionControl, &control); err != nil {
		return nil, fmt.Errorf("get session control: %w", err)
	}
	return newSessionControl(control), nil
}

func (c *wcaAudioClient) Start() error { return c.client.Start() }
func (c *wcaAudioClient) Stop() error  { return c.client.Stop() }
func (c *wcaAudioClient) Reset() error { return c.client.Reset() }

func (c *wcaAudioClient) Close() error {
	c.client.Release()
	return nil
}
