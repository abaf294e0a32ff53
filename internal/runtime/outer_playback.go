package runtime

import "github.com/cleansine/wasapi-exclusive/internal/wasapi"

// Write implements the Playback Outer operation (spec.md §4.5):
// assembles fixed chunk_bytes chunks from host input plus the
// single-chunk leftovers buffer, sending completed chunks to the
// inner loop over the bounded playback queue. Returns len on success;
// if the inner loop has exited, returns 0 and a KindChannelClosed
// error.
func (r *RuntimeData) Write(hostBytes []byte, offset, length int) (int, error) {
	if r.Direction != wasapi.Render {
		return 0, newError(KindDirectionMismatch, "write", nil)
	}

	r.leftoversMu.Lock()
	defer r.leftoversMu.Unlock()

	chunkBytes := r.ChunkBytes()
	input := hostBytes[offset : offset+length]
	lp := int(r.leftoversPos.Load())

	if lp+length < chunkBytes {
		copy(r.leftovers[lp:lp+length], input)
		r.leftoversPos.Store(int64(lp + length))
		return length, nil
	}

	cursor := 0
	if lp > 0 {
		need := chunkBytes - lp
		chunk := make([]byte, chunkBytes)
		copy(chunk, r.leftovers[:lp])
		copy(chunk[lp:], input[:need])
		if err := r.sendPlaybackChunk(chunk); err != nil {
			return 0, err
		}
		cursor = need
		lp = 0
	}

	for length-cursor >= chunkBytes {
		chunk := make([]byte, chunkBytes)
		copy(chunk, input[cursor:cursor+chunkBytes])
		if err := r.sendPlaybackChunk(chunk); err != nil {
			return 0, err
		}
		cursor += chunkBytes
	}

	tail := length - cursor
	if tail > 0 {
		copy(r.leftovers[:tail], input[cursor:])
	}
	r.leftoversPos.Store(int64(tail))

	return length, nil
}

// sendPlaybackChunk hands a chunk to the inner loop, or reports the
// inner loop as dead instead of blocking on it forever: the playback
// queue itself is never closed (its sender is the outer side), so a
// dead inner loop is detected via rtd.done instead.
func (r *RuntimeData) sendPlaybackChunk(chunk []byte) error {
	select {
	case <-r.done:
		return newError(KindChannelClosed, "write", nil)
	default:
	}
	select {
	case r.queues.Play <- chunk:
		return nil
	case <-r.done:
		return newError(KindChannelClosed, "write", nil)
	}
}
