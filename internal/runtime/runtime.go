// Package runtime implements the steady-state engine (spec.md §2.5,
// §3 RuntimeData, §4.5-§4.10, §5): the outer operations a host calls
// (write/read/start/stop/drain/flush/close/position queries) plus the
// inner per-device goroutine that talks directly to the WASAPI
// collaborator (internal/wasapi). Grounded throughout on
// _examples/original_source/src/wasapi_impl.rs, with the atomic-flag
// and channel idioms carried over from the teacher's
// internal/audio/capture.go.
package runtime

import (
	"sync"
	"sync/atomic"

	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// CaptureChunk is one unit of interthread transfer on the capture
// side: a monotonic sequence number plus the captured bytes (spec.md
// §4.6 "blocking-receive (chunk_nbr, data)").
type CaptureChunk struct {
	Nbr  uint64
	Data []byte
}

// Queues holds the three interthread channels a RuntimeData needs.
// Exactly one of Play or (Capt, Prealloc) is populated, matching
// spec.md §3's invariant that "the other side's endpoints are
// absent". Unlike the Rust original's two receiver clones per
// direction (a "live" and a "draining" one), Go channels natively
// support multiple concurrent receivers on one channel, so flush
// drains straight from Play/Capt — no second handle is needed; see
// DESIGN.md.
type Queues struct {
	Play     chan []byte
	Capt     chan CaptureChunk
	Prealloc chan []byte
}

// RuntimeData is the per-opened-device owning record (spec.md §3).
type RuntimeData struct {
	DeviceID   string
	DeviceName string
	Direction  wasapi.Direction

	frameBytes  int
	rate        int // sample rate, used only to derive DeviceTimeTracker's nominal frame time
	chunkFrames int // set to the actual client buffer frame count after negotiation

	queueCapacity int // chunks; used by GetBufferBytes

	queues Queues

	start atomic.Bool
	stop  atomic.Bool
	exit  atomic.Bool

	bufferfillBytes atomic.Int64

	// leftovers and leftoversPos are touched only by the outer
	// write/read/flush calls for this RuntimeData, each of which holds
	// leftoversMu while it uses them.
	leftoversMu  sync.Mutex
	leftovers    []byte
	leftoversPos atomic.Int64

	captLastChunkNbr uint64
	captFlushedCnt   uint64

	// done is closed when the inner loop returns, for any reason: a
	// clean exit, or a fatal collaborator error. Close does not join on
	// it (SPEC_FULL.md Open Question resolution #2), but the outer
	// write and drain paths select on it to detect a dead inner loop
	// instead of blocking forever. Read needs no such check: the capture
	// loop closes Capt when it returns. Play and Prealloc are never
	// closed, since each has a sender on the outer side and closing a
	// channel out from under a concurrent send would panic.
	done chan struct{}
}

// ChunkBytes returns chunk_frames × frame_bytes, the fixed transfer
// unit size for this device.
func (r *RuntimeData) ChunkBytes() int { return r.chunkFrames * r.frameBytes }

// ChunkFrames returns the negotiated device buffer size in frames.
func (r *RuntimeData) ChunkFrames() int { return r.chunkFrames }

// rateHint returns the sample rate used to derive the tracker's
// nominal frame time (free_frames / rate).
func (r *RuntimeData) rateHint() int { return r.rate }

// Done returns a channel closed once the inner loop has exited.
func (r *RuntimeData) Done() <-chan struct{} { return r.done }

// isDead reports whether the inner loop has already exited, without
// blocking.
func (r *RuntimeData) isDead() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func newRuntimeData(deviceID, deviceName string, direction wasapi.Direction, rate, frameBytes, chunkFrames, queueCapacity int, queues Queues) *RuntimeData {
	r := &RuntimeData{
		DeviceID:      deviceID,
		DeviceName:    deviceName,
		Direction:     direction,
		rate:          rate,
		frameBytes:    frameBytes,
		chunkFrames:   chunkFrames,
		queueCapacity: queueCapacity,
		queues:        queues,
		leftovers:     make([]byte, frameBytes*chunkFrames),
		done:          make(chan struct{}),
	}
	return r
}
