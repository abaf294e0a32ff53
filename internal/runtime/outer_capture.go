package runtime

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// Read implements the Capture Outer operation (spec.md §4.6): drains
// the leftovers buffer first, then blocking-receives chunks from the
// inner loop until hostOut is full, tracking dropped chunks via the
// monotonic chunk-number sequence and recycling emptied buffers back
// into the prealloc pool.
func (r *RuntimeData) Read(hostOut []byte, offset, length int) (int, error) {
	if r.Direction != wasapi.Capture {
		return 0, newError(KindDirectionMismatch, "read", nil)
	}

	r.leftoversMu.Lock()
	defer r.leftoversMu.Unlock()

	out := hostOut[offset : offset+length]
	filled := 0

	lp := int(r.leftoversPos.Load())
	if lp > 0 {
		n := lp
		if n > length {
			n = length
		}
		copy(out[:n], r.leftovers[:n])
		if n == length && n < lp {
			// Leftovers satisfied the whole request without being
			// fully drained; shift the remainder down.
			remaining := lp - n
			copy(r.leftovers[:remaining], r.leftovers[n:lp])
			r.leftoversPos.Store(int64(remaining))
			return length, nil
		}
		// Leftovers fully drained (n == lp); may still need more from
		// the queue to fill the request.
		filled = n
		r.leftoversPos.Store(0)
	}

	chunkBytes := r.ChunkBytes()

	for filled < length {
		chunk, ok := <-r.queues.Capt
		if !ok {
			return filled, newError(KindChannelClosed, "read", nil)
		}

		expected := r.captLastChunkNbr + 1 + r.captFlushedCnt
		r.captFlushedCnt = 0

		if chunk.Nbr > expected {
			logging.Warn("capture sample drop detected", "id", r.DeviceID, "expected", expected, "got", chunk.Nbr)
			expected = chunk.Nbr
		}
		if len(chunk.Data) != chunkBytes {
			logging.Warn("exclusive-mode anomaly: unexpected chunk size", "id", r.DeviceID, "want", chunkBytes, "got", len(chunk.Data))
		}

		n := len(chunk.Data)
		if n > length-filled {
			n = length - filled
		}
		copy(out[filled:filled+n], chunk.Data[:n])
		filled += n

		if n < len(chunk.Data) {
			tail := len(chunk.Data) - n
			copy(r.leftovers[:tail], chunk.Data[n:])
			r.leftoversPos.Store(int64(tail))
		}

		r.captLastChunkNbr = expected

		empty := chunk.Data[:0]
		select {
		case r.queues.Prealloc <- empty:
		default:
			return filled, newError(KindIoFailure, "read", fmt.Errorf("prealloc queue full, buffer dropped"))
		}
	}

	return length, nil
}
