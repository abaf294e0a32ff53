package bridge

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/formats"
	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/prober"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
)

// GetFormats implements §6's get_formats: device_id, is_render →
// out_list, an empty slice on any failure (never nil vs. empty
// distinguished at this boundary).
func GetFormats(deviceID string, isRender bool) []formats.Format {
	var list []formats.Format
	err := recovery.Guard(func() error {
		if state.catalog == nil || state.dir == nil {
			return fmt.Errorf("bridge: not initialized")
		}
		dev, nativeDir, err := state.dir.Lookup(deviceID)
		if err != nil {
			return fmt.Errorf("bridge: lookup device %q: %w", deviceID, err)
		}
		want := directionOf(isRender)
		if nativeDir != want {
			return fmt.Errorf("bridge: device %q is %s, requested %s", deviceID, nativeDir, want)
		}
		list, err = prober.Probe(state.catalog, dev, want)
		return err
	})
	if err != nil {
		logging.Error("bridge: get_formats failed", "device_id", deviceID, "is_render", isRender, "err", err)
		return nil
	}
	return list
}
