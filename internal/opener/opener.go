// Package opener implements the Device Opener component (spec.md
// §4.4): it resolves period/alignment geometry, sizes the interthread
// queues, and hands off to internal/runtime.SpawnAndOpen to negotiate
// the final format and spawn the inner loop. Grounded on
// _examples/original_source/src/wasapi_impl.rs's do_open_dev.
package opener

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/formats"
	"github.com/cleansine/wasapi-exclusive/internal/runtime"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

const (
	hundredNsPerSecond = 10_000_000
	minApproxPeriodNs  = 30 * 10_000 // 30ms expressed in 100-ns ticks
	intelHDAAlignBytes = 128
)

// preallocHeadroom is the capacity multiplier spec.md §4.4 step 6
// applies to capture's prealloc buffers over the chunk_frames_est
// estimate, absorbing devices that deliver slightly more than
// expected per event.
const preallocHeadroom = 1.5

// Open implements spec.md §4.4 in full: steps 1-6 run here; steps 7-9
// (handshake and disconnect channels, format negotiation, client
// init, inner-thread spawn, handshake) are runtime.SpawnAndOpen's
// job, since they need exclusive access to the device after handoff.
func Open(deviceID string, dev wasapi.Device, cat *formats.Catalog, direction wasapi.Direction, rate, validBits, frameBytes, channels, bufferBytes int) (*runtime.RuntimeData, error) {
	info, err := dev.Info()
	if err != nil {
		return nil, fmt.Errorf("opener: device info: %w", err)
	}
	if info.Direction != direction {
		return nil, &runtime.Error{Kind: runtime.KindDirectionMismatch, Op: "open"}
	}

	client, err := dev.OpenAudioClient()
	if err != nil {
		return nil, fmt.Errorf("opener: open audio client: %w", err)
	}

	_, minPeriod, err := client.GetPeriods()
	if err != nil {
		return nil, &runtime.Error{Kind: runtime.KindClientInit, Op: "open", Err: fmt.Errorf("get periods: %w", err)}
	}

	approxPeriod := int64(minApproxPeriodNs)
	if minPeriod > approxPeriod {
		approxPeriod = minPeriod
	}

	alignBytes := frameBytes
	if channels <= 16 {
		alignBytes = lcm(frameBytes, intelHDAAlignBytes)
	}
	alignTicks := int64(alignBytes) * hundredNsPerSecond / int64(rate)
	if alignTicks <= 0 {
		alignTicks = 1
	}

	segments := roundDiv(approxPeriod, alignTicks)
	if segments < 1 {
		segments = 1
	}
	period := segments * alignTicks
	if period < minPeriod {
		segments++
		period = segments * alignTicks
	}

	chunkFramesEst := int(int64(rate) * period / hundredNsPerSecond)
	if chunkFramesEst < 1 {
		chunkFramesEst = 1
	}

	framesPerBuffer := bufferBytes / frameBytes
	chunks := framesPerBuffer / chunkFramesEst
	if chunks < 1 {
		chunks = 1
	}

	storeBits := (8 * frameBytes) / channels
	format := formats.Format{ValidBits: validBits, FrameBytes: frameBytes, Channels: channels, Rate: rate}
	candidates, ok := cat.Candidates(format)
	if !ok || len(candidates) == 0 {
		return nil, &runtime.Error{Kind: runtime.KindFormatUnsupported, Op: "open", Err: fmt.Errorf("no catalog entry for %v (storebits=%d)", format, storeBits)}
	}

	var queues runtime.Queues
	switch direction {
	case wasapi.Render:
		queues.Play = make(chan []byte, chunks)
	case wasapi.Capture:
		queues.Capt = make(chan runtime.CaptureChunk, chunks)
		queues.Prealloc = make(chan []byte, 2*chunks)
		bufCap := int(preallocHeadroom * float64(chunkFramesEst) * float64(frameBytes))
		for i := 0; i < 2*chunks; i++ {
			queues.Prealloc <- make([]byte, 0, bufCap)
		}
	}

	negotiation := runtime.NegotiationParams{
		Candidates:  candidates,
		PeriodTicks: period,
	}

	return runtime.SpawnAndOpen(deviceID, info.FriendlyName, direction, rate, frameBytes, chunkFramesEst, chunks, client, negotiation, queues)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}

// roundDiv rounds a/b to the nearest integer (ties away from zero),
// matching the original's `round(approx_period / align_ticks)`.
func roundDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if (a < 0) != (b < 0) {
		return -roundDiv(-a, b)
	}
	return (a + b/2) / b
}
