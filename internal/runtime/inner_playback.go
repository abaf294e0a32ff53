package runtime

import (
	"time"

	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

const (
	playbackReceiveTimeout = 5 * time.Millisecond
	playbackEventTimeout   = 1000 * time.Millisecond
)

// playbackLoop is the render-direction inner state machine (spec.md
// §4.7). It runs on its own goroutine for the lifetime of the opened
// device.
func (rtd *RuntimeData) playbackLoop(client wasapi.AudioClient, event wasapi.EventHandle, clock wasapi.Clock, disconnectCh chan wasapi.DisconnectReason) {
	renderClient, err := client.GetRenderClient()
	if err != nil {
		logging.Error("get render client failed", "id", rtd.DeviceID, "err", err)
		return
	}

	deviceFreq, err := clock.Frequency()
	if err != nil {
		logging.Error("get clock frequency failed", "id", rtd.DeviceID, "err", err)
		return
	}

	wasapi.RaiseProAudioPriority()

	var running bool
	var tracker DeviceTimeTracker

	for {
		availFrames, err := client.GetAvailableSpaceInFrames()
		if err != nil {
			logging.Error("get available space failed", "id", rtd.DeviceID, "err", err)
			return
		}

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
		}

		select {
		case reason := <-disconnectCh:
			if reason == wasapi.DisconnectFormatChanged {
				logging.Warn("device disconnected: format changed", "id", rtd.DeviceID)
			} else {
				logging.Warn("device disconnected", "id", rtd.DeviceID)
			}
			if rtd.exit.Load() {
				client.Stop()
				return
			}
			logging.Error("unrecoverable disconnect while running", "id", rtd.DeviceID)
			return
		default:
		}

		select {
		// rtd.queues.Play's sender is the outer Write call, never this
		// goroutine, so it is never closed here; a dead inner loop is
		// instead surfaced to Write via rtd.done (see sendPlaybackChunk).
		case chunk := <-rtd.queues.Play:
			if !running {
				logging.Warn("auto-starting stream on first chunk", "id", rtd.DeviceID)
				if err := client.Start(); err != nil {
					logging.Error("auto-start failed", "id", rtd.DeviceID, "err", err)
					return
				}
				running = true
				tracker.Reset()
			}

			frames := len(chunk) / rtd.frameBytes
			if err := renderClient.WriteToDevice(frames, rtd.frameBytes, chunk); err != nil {
				logging.Error("write to device failed", "id", rtd.DeviceID, "err", err)
				return
			}
			rtd.bufferfillBytes.Store(int64(len(chunk)))

			if err := event.Wait(int(playbackEventTimeout / time.Millisecond)); err != nil {
				logging.Error("playback event timeout", "id", rtd.DeviceID, "err", err)
				client.Stop()
				return
			}
			rtd.bufferfillBytes.Store(0)

		case <-time.After(playbackReceiveTimeout):
			if running {
				client.Stop()
				running = false
				tracker.Reset()
			}
		}

		pos, err := clock.Position()
		if err != nil {
			logging.Error("clock position failed", "id", rtd.DeviceID, "err", err)
			return
		}
		deviceTime := float64(pos) / float64(deviceFreq)
		frameTime := float64(availFrames) / float64(rtd.rateHint())
		if tracker.EventMissing(deviceTime, frameTime) {
			logging.Warn("missed playback event detected, resetting stream", "id", rtd.DeviceID)
			if running {
				client.Stop()
				tracker.Reset()
				if err := client.Start(); err != nil {
					logging.Error("stream reset restart failed", "id", rtd.DeviceID, "err", err)
					return
				}
				tracker.Reset()
			}
		}
	}
}
