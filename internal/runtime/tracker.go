package runtime

// DeviceTimeTracker detects missed audio events by correlating WASAPI
// clock progression against nominal frame time (spec.md §4.9).
// Grounded on wasapi_impl.rs's DeviceTimeTracker/event_missing.
type DeviceTimeTracker struct {
	prevDevTime          *float64
	accumulatedFrameTime float64
}

// EventMissing reports whether the device clock advanced, since the
// last valid sample, by more than the nominal frame time accumulated
// over that span plus half a frame interval, meaning a buffer event
// was missed. devTime is the current device-clock position in
// seconds; frameTime is the nominal seconds-per-event this call
// represents.
func (t *DeviceTimeTracker) EventMissing(devTime, frameTime float64) bool {
	if devTime == 0.0 {
		// 0.0 is indistinguishable from "position not yet valid"; keep
		// accumulating nominal frame time against the last known-good
		// device time instead of treating this as a real sample.
		if t.prevDevTime != nil {
			t.accumulatedFrameTime += frameTime
		}
		return false
	}

	if t.prevDevTime != nil {
		elapsedDev := devTime - *t.prevDevTime
		elapsedFrame := t.accumulatedFrameTime + frameTime
		if elapsedFrame > 0 && elapsedDev > elapsedFrame+0.5*frameTime {
			t.Reset()
			return true
		}
	}

	prev := devTime
	t.prevDevTime = &prev
	t.accumulatedFrameTime = 0
	return false
}

// Reset clears tracked state, used both by EventMissing itself and by
// callers that just performed a stream reset (start/stop/start).
func (t *DeviceTimeTracker) Reset() {
	t.prevDevTime = nil
	t.accumulatedFrameTime = 0
}
