package runtime

import (
	"time"

	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

const (
	captureEventTimeout   = 250 * time.Millisecond
	captureRetryInterval  = 2 * time.Millisecond
	captureRetryMaxWait   = 100 * time.Millisecond
	captureIdleSleep      = 2 * time.Millisecond
)

// captureLoop is the capture-direction inner state machine (spec.md
// §4.8).
func (rtd *RuntimeData) captureLoop(client wasapi.AudioClient, event wasapi.EventHandle, clock wasapi.Clock, disconnectCh chan wasapi.DisconnectReason) {
	// rtd.queues.Capt has exactly one sender (this goroutine), so it is
	// safe to close here: Read's blocking receive then observes the
	// close instead of hanging forever on a dead inner loop (spec.md
	// §4.5 "a send error (channel closed) is returned to the host").
	defer close(rtd.queues.Capt)

	captureClient, err := client.GetCaptureClient()
	if err != nil {
		logging.Error("get capture client failed", "id", rtd.DeviceID, "err", err)
		return
	}

	deviceFreq, err := clock.Frequency()
	if err != nil {
		logging.Error("get clock frequency failed", "id", rtd.DeviceID, "err", err)
		return
	}

	wasapi.RaiseProAudioPriority()

	availableFrames, err := client.GetAvailableSpaceInFrames()
	if err != nil {
		logging.Error("get available space failed", "id", rtd.DeviceID, "err", err)
		return
	}
	if availableFrames != rtd.chunkFrames {
		logging.Error("exclusive-mode frame count mismatch", "id", rtd.DeviceID, "available", availableFrames, "expected", rtd.chunkFrames)
		return
	}
	chunkBytes := availableFrames * rtd.frameBytes

	var running bool
	var inactive bool
	var loggedInactive bool
	var savedBuffer []byte
	var chunkNbr uint64
	var tracker DeviceTimeTracker

	for {
		if rtd.exit.CompareAndSwap(true, false) {
			client.Stop()
			return
		}
		if rtd.start.CompareAndSwap(true, false) {
			if !running {
				if err := client.Start(); err != nil {
					logging.Error("start stream failed", "id", rtd.DeviceID, "err", err)
					return
				}
				running = true
				tracker.Reset()
			}
		}
		if rtd.stop.CompareAndSwap(true, false) {
			if running {
				client.Stop()
				running = false
				tracker.Reset()
			}
			continue
		}
		if !running {
			time.Sleep(captureIdleSleep)
			continue
		}

		select {
		case reason := <-disconnectCh:
			_ = reason
			if rtd.exit.Load() {
				client.Stop()
				return
			}
			logging.Error("unrecoverable disconnect while running", "id", rtd.DeviceID)
			return
		default:
		}

		if err := event.Wait(int(captureEventTimeout / time.Millisecond)); err != nil {
			if !loggedInactive {
				logging.Warn("capture device inactive: no event within timeout", "id", rtd.DeviceID)
				loggedInactive = true
			}
			inactive = true
			continue
		}
		inactive = false
		loggedInactive = false

		if rtd.stop.Load() || rtd.exit.Load() {
			continue
		}

		buf := savedBuffer
		savedBuffer = nil
		if buf == nil {
			// Prealloc has two outer-side senders (Read's tail, Flush's
			// capture branch) and is never closed, so this is a plain
			// blocking receive.
			buf = <-rtd.queues.Prealloc
		}
		if len(buf) != chunkBytes {
			if cap(buf) >= chunkBytes {
				buf = buf[:chunkBytes]
			} else {
				buf = make([]byte, chunkBytes)
			}
		}

		var framesRead int
		var flags wasapi.BufferFlags
		var slept time.Duration
		for {
			framesRead, flags, err = captureClient.ReadFromDevice(rtd.frameBytes, buf)
			if err != nil {
				logging.Error("read from device failed", "id", rtd.DeviceID, "err", err)
				return
			}
			if framesRead != 0 {
				break
			}
			if slept >= captureRetryMaxWait {
				logging.Warn("gave up waiting for captured frames", "id", rtd.DeviceID, "waited", slept)
				break
			}
			time.Sleep(captureRetryInterval)
			slept += captureRetryInterval
		}

		if framesRead != 0 && framesRead != availableFrames {
			logging.Warn("exclusive-mode frame count anomaly on read", "id", rtd.DeviceID, "got", framesRead, "want", availableFrames)
		}

		if flags.Silent {
			for i := range buf {
				buf[i] = 0
			}
		}
		if flags.DataDiscontinuity {
			logging.Warn("capture data discontinuity", "id", rtd.DeviceID)
		}
		if flags.TimestampError {
			logging.Warn("capture timestamp error", "id", rtd.DeviceID)
		}

		select {
		case rtd.queues.Capt <- CaptureChunk{Nbr: chunkNbr, Data: buf}:
			chunkNbr++
		default:
			logging.Debug("capture queue full, stashing chunk for retry", "id", rtd.DeviceID, "chunk_nbr", chunkNbr)
			savedBuffer = buf
		}

		pos, err := clock.Position()
		if err != nil {
			logging.Error("clock position failed", "id", rtd.DeviceID, "err", err)
			return
		}
		deviceTime := float64(pos) / float64(deviceFreq)
		frameTime := float64(availableFrames) / float64(rtd.rateHint())
		if tracker.EventMissing(deviceTime, frameTime) {
			logging.Warn("missed capture event detected", "id", rtd.DeviceID)
		}

		_ = inactive
	}
}
