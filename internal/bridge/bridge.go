// Package bridge implements spec.md §6's host boundary: the exact
// operation table (init, device_count, make_mixer_info, get_formats,
// open, start/stop/close/drain/flush, write, read, get_buffer_bytes,
// get_avail_bytes, get_byte_pos) a native host calls across the FFI
// edge. Every exported function recovers panics locally (spec.md §6:
// "the native process must not abort") and reports failure the way
// the table documents — a sentinel value, never a Go error, since
// there is no Go caller on the other side of this boundary.
//
// Grounded on _examples/original_source/src/lib.rs, whose JNI
// marshalling this package replaces with a plain exported-function
// boundary; the marshalling itself stays out of scope (spec.md §1).
package bridge

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/directory"
	"github.com/cleansine/wasapi-exclusive/internal/formats"
	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

var (
	state = struct {
		catalog *formats.Catalog
		dir     *directory.Directory
	}{}
	handles = newRegistry()
)

// Init implements §6's init: builds the process-wide Format Catalog
// and Device Directory, and configures logging. Returns false (never
// a panic or an error) on any failure, per the host boundary's
// documented init error value.
func Init(logLevel, logTarget string, rateVariants, channelVariants []int, maxRateLimit, maxChannelsLimit int) bool {
	var ok bool
	err := recovery.Guard(func() error {
		if err := logging.Init(logLevel, logTarget); err != nil {
			return fmt.Errorf("bridge: init logging: %w", err)
		}

		render, capture, err := wasapi.EnumerateCollections()
		if err != nil {
			return fmt.Errorf("bridge: enumerate devices: %w", err)
		}

		accept := func(rate, channels int) bool {
			return rate <= maxRateLimit && channels <= maxChannelsLimit
		}
		state.catalog = formats.Build(rateVariants, channelVariants, accept)
		state.dir = directory.New(render, capture)
		ok = true
		return nil
	})
	if err != nil {
		logging.Error("bridge: init failed", "err", err)
		return false
	}
	return ok
}

// DeviceCount implements §6's device_count: 0 on any failure,
// including "not yet initialized".
func DeviceCount() int32 {
	var count int
	err := recovery.Guard(func() error {
		if state.dir == nil {
			return fmt.Errorf("bridge: not initialized")
		}
		var err error
		count, err = state.dir.Count()
		return err
	})
	if err != nil {
		logging.Error("bridge: device_count failed", "err", err)
		return 0
	}
	return int32(count)
}

// MakeMixerInfo implements §6's make_mixer_info: idx → info or null.
func MakeMixerInfo(idx int) *directory.MixerInfo {
	var info *directory.MixerInfo
	err := recovery.Guard(func() error {
		if state.dir == nil {
			return fmt.Errorf("bridge: not initialized")
		}
		info = state.dir.MakeMixerInfo(idx)
		return nil
	})
	if err != nil {
		logging.Error("bridge: make_mixer_info failed", "idx", idx, "err", err)
		return nil
	}
	return info
}
