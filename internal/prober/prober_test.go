package prober

import (
	"errors"
	"testing"

	"github.com/cleansine/wasapi-exclusive/internal/formats"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
	"github.com/cleansine/wasapi-exclusive/internal/wasapitest"
)

func TestProbeRejectsDirectionMismatch(t *testing.T) {
	cat := formats.Build([]int{44100}, []int{2}, nil)
	dev := &wasapitest.FakeDevice{
		DeviceInfo: wasapi.DeviceInfo{Direction: wasapi.Capture},
		Client:     &wasapitest.FakeAudioClient{},
	}

	_, err := Probe(cat, dev, wasapi.Render)
	if !errors.Is(err, ErrDirectionMismatch) {
		t.Fatalf("Probe() = %v, want ErrDirectionMismatch", err)
	}
}

func TestProbeCollectsSupportedFormatsAndSentinels(t *testing.T) {
	cat := formats.Build([]int{44100, 48000}, []int{2}, nil)

	client := &wasapitest.FakeAudioClient{
		SupportsFunc: func(c wasapi.WaveFormatCandidate) (wasapi.SupportResult, *wasapi.WaveFormatCandidate) {
			if c.Rate == 44100 && c.StoreBits == 16 {
				return wasapi.Supported, &c
			}
			return wasapi.Unsupported, nil
		},
	}
	dev := &wasapitest.FakeDevice{
		DeviceInfo: wasapi.DeviceInfo{Direction: wasapi.Render},
		Client:     client,
	}

	got, err := Probe(cat, dev, wasapi.Render)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	wantConcrete := formats.Format{ValidBits: 16, FrameBytes: 4, Channels: 2, Rate: 44100}
	var sawConcrete, sawSentinel bool
	for _, f := range got {
		if f == wantConcrete {
			sawConcrete = true
		}
		if IsArbitraryShapeSentinel(f) && f.ValidBits == 16 {
			sawSentinel = true
		}
		if f.Rate == 48000 {
			t.Errorf("48000 Hz format should not have probed supported, got %v", f)
		}
	}
	if !sawConcrete {
		t.Errorf("expected concrete 44100Hz/16-bit format in results, got %+v", got)
	}
	if !sawSentinel {
		t.Errorf("expected arbitrary-shape sentinel for validbits=16 in results, got %+v", got)
	}
}

func TestProbeReturnsEmptyWhenNothingSupported(t *testing.T) {
	cat := formats.Build([]int{44100}, []int{2}, nil)
	client := &wasapitest.FakeAudioClient{
		SupportsFunc: func(wasapi.WaveFormatCandidate) (wasapi.SupportResult, *wasapi.WaveFormatCandidate) {
			return wasapi.Unsupported, nil
		},
	}
	dev := &wasapitest.FakeDevice{DeviceInfo: wasapi.DeviceInfo{Direction: wasapi.Render}, Client: client}

	got, err := Probe(cat, dev, wasapi.Render)
	if err != nil {
		t.Fatalf("Probe() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %+v, want empty", got)
	}
}
