//go:build windows

package wasapi

import (
	"fmt"
	"unsafe"

	"github.com/moutend/go-wca"
)

// wcaRenderClient wraps IAudioRenderClient's GetBuffer/ReleaseBuffer
// cycle, grounded on the render loop in
// _examples/josharian-oto/driver_wasapi_windows.go and on
// _examples/other_examples's moutend/go-wca loopback-capture example's
// capture-side equivalent.
type wcaRenderClient struct {
	client *wca.IAudioRenderClient
}

func (r *wcaRenderClient) WriteToDevice(frames int, frameBytes int, data []byte) error {
	var ptr *byte
	if err := r.client.GetBuffer(uint32(frames), &ptr); err != nil {
		return fmt.Errorf("get render buffer: %w", err)
	}
	want := frames * frameBytes
	if want > len(data) {
		want = len(data)
	}
	dst := unsafe.Slice(ptr, want)
	copy(dst, data[:want])
	if want < frames*frameBytes {
		for i := want; i < frames*frameBytes; i++ {
			dst[i] = 0
		}
	}
	if err := r.client.ReleaseBuffer(uint32(frames), 0); err != nil {
		return fmt.Errorf("release render buffer: %w", err)
	}
	return nil
}

// wcaCaptureClient wraps IAudioCaptureClient's GetBuffer/ReleaseBuffer
// cycle.
type wcaCaptureClient struct {
	client *wca.IAudioCaptureClient
}

const (
	audclntBufferflagsSilent            = 0x2
	audclntBufferflagsDataDiscontinuity = 0x1
	audclntBufferflagsTimestampError    = 0x4
)

func (r *wcaCaptureClient) ReadFromDevice(frameBytes int, buf []byte) (int, BufferFlags, error) {
	var ptr *byte
	var framesAvail uint32
	var flagsRaw uint32
	if err := r.client.GetBuffer(&ptr, &framesAvail, &flagsRaw, nil, nil); err != nil {
		return 0, BufferFlags{}, fmt.Errorf("get capture buffer: %w", err)
	}
	if framesAvail == 0 {
		return 0, BufferFlags{}, nil
	}

	flags := BufferFlags{
		Silent:            flagsRaw&audclntBufferflagsSilent != 0,
		DataDiscontinuity: flagsRaw&audclntBufferflagsDataDiscontinuity != 0,
		TimestampError:    flagsRaw&audclntBufferflagsTimestampError != 0,
	}

	avail := int(framesAvail) * frameBytes
	if avail > len(buf) {
		avail = len(buf)
	}
	if !flags.Silent {
		src := unsafe.Slice(ptr, avail)
		copy(buf[:avail], src)
	} else {
		for i := 0; i < avail; i++ {
			buf[i] = 0
		}
	}

	framesRead := avail / frameBytes
	if err := r.client.ReleaseBuffer(framesAvail); err != nil {
		return framesRead, flags, fmt.Errorf("release capture buffer: %w", err)
	}
	return framesRead, flags, nil
}
