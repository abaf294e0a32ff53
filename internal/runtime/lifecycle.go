package runtime

import (
	"time"

	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

const (
	drainPollInterval                    = 5 * time.Millisecond
	renderDirection    wasapi.Direction  = wasapi.Render
	captureDirection   wasapi.Direction  = wasapi.Capture
)

// VerifyDirection implements the direction check the host-boundary
// layer performs before every lifecycle/position call (spec.md §4.10:
// "verify direction"; §6 lists is_render alongside every such
// operation's handle argument).
func (r *RuntimeData) VerifyDirection(want wasapi.Direction) error {
	if r.Direction != want {
		return newError(KindDirectionMismatch, "verify_direction", nil)
	}
	return nil
}

// Start sets the edge-triggered start signal the inner loop consumes
// at its next iteration (spec.md §4.10).
func (r *RuntimeData) Start() error {
	r.start.Store(true)
	return nil
}

// Stop sets the edge-triggered stop signal.
func (r *RuntimeData) Stop() error {
	r.stop.Store(true)
	return nil
}

// Close sets exit, causing the inner loop to terminate at its next
// observation point (spec.md §5: close is asynchronous, not joined).
func (r *RuntimeData) Close() error {
	r.exit.Store(true)
	return nil
}

// Drain implements spec.md §4.10's drain: render busy-waits until the
// playback queue is empty and bufferfill_bytes is zero before setting
// stop; capture sets stop immediately, then waits for its queue to
// drain (SPEC_FULL.md Open Question resolution #3 — not deferred
// uniformly across directions).
func (r *RuntimeData) Drain() error {
	switch r.Direction {
	case renderDirection:
		for !r.isDead() && (len(r.queues.Play) != 0 || r.bufferfillBytes.Load() != 0) {
			time.Sleep(drainPollInterval)
		}
		r.stop.Store(true)
	case captureDirection:
		r.stop.Store(true)
		for !r.isDead() && len(r.queues.Capt) != 0 {
			time.Sleep(drainPollInterval)
		}
	}
	if r.isDead() {
		return newError(KindChannelClosed, "drain", nil)
	}
	return nil
}

// Flush drains pending chunks without touching the device: render
// discards them, capture recycles each emptied buffer into the
// prealloc pool and credits capt_flushed_cnt so the next Read's
// chunk-number accounting accounts for the gap (spec.md §4.10).
func (r *RuntimeData) Flush() error {
	switch r.Direction {
	case renderDirection:
		for {
			select {
			case <-r.queues.Play:
			default:
				return nil
			}
		}
	case captureDirection:
		r.leftoversMu.Lock()
		defer r.leftoversMu.Unlock()
		var drained uint64
		for {
			select {
			case chunk := <-r.queues.Capt:
				select {
				case r.queues.Prealloc <- chunk.Data[:0]:
				default:
				}
				drained++
			default:
				r.captFlushedCnt += drained
				return nil
			}
		}
	}
	return nil
}

// GetBufferBytes returns queue_capacity × chunk_bytes (spec.md §4.10).
func (r *RuntimeData) GetBufferBytes() int {
	return r.queueCapacity * r.ChunkBytes()
}

// GetAvailBytes returns the bytes immediately available for a
// non-blocking write (render) or read (capture), per spec.md §4.10.
func (r *RuntimeData) GetAvailBytes() int {
	chunkBytes := r.ChunkBytes()
	switch r.Direction {
	case renderDirection:
		freeSlots := r.queueCapacity - len(r.queues.Play)
		return freeSlots * chunkBytes
	case captureDirection:
		pending := len(r.queues.Capt)
		return pending*chunkBytes + int(r.leftoversPos.Load())
	}
	return 0
}

// GetBytePos returns the device-relative byte position implied by
// hostPos (the host's own cumulative byte counter), adjusting for
// bytes still queued on the interthread path (spec.md §4.10).
func (r *RuntimeData) GetBytePos(hostPos int64) int64 {
	chunkBytes := int64(r.ChunkBytes())
	switch r.Direction {
	case renderDirection:
		pending := int64(len(r.queues.Play))
		queued := pending*chunkBytes + r.leftoversPos.Load()
		return hostPos - queued
	case captureDirection:
		pending := int64(len(r.queues.Capt))
		queued := pending*chunkBytes + r.leftoversPos.Load()
		return hostPos + queued
	}
	return hostPos
}
