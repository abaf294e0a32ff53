package bridge

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/opener"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
)

// Open implements §6's open: resolves the device, delegates to
// internal/opener.Open, and registers the resulting RuntimeData under
// a fresh opaque handle. Returns 0 (never a valid handle) on failure.
func Open(deviceID string, isRender bool, rate, validBits, frameBytes, channels, bufferBytes int) int64 {
	var handle int64
	err := recovery.Guard(func() error {
		if state.catalog == nil || state.dir == nil {
			return fmt.Errorf("bridge: not initialized")
		}
		direction := directionOf(isRender)
		dev, nativeDir, err := state.dir.Lookup(deviceID)
		if err != nil {
			return fmt.Errorf("bridge: lookup device %q: %w", deviceID, err)
		}
		if nativeDir != direction {
			return fmt.Errorf("bridge: device %q is %s, requested %s", deviceID, nativeDir, direction)
		}

		rtd, err := opener.Open(deviceID, dev, state.catalog, direction, rate, validBits, frameBytes, channels, bufferBytes)
		if err != nil {
			return fmt.Errorf("bridge: open %q: %w", deviceID, err)
		}
		handle = handles.put(rtd)
		return nil
	})
	if err != nil {
		logging.Error("bridge: open failed", "device_id", deviceID, "is_render", isRender, "rate", rate, "err", err)
		return 0
	}
	return handle
}
