// Package prober implements the Format Prober component (spec.md
// §4.3): given a device, it filters the process-wide Format Catalog
// down to the formats that device actually supports in exclusive
// mode. Grounded on
// _examples/original_source/src/wasapi_impl.rs's do_get_formats /
// get_supported_format / get_device_formats.
package prober

import (
	"errors"
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/formats"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// ErrDirectionMismatch is returned when the requested direction
// disagrees with the device's native direction (spec.md §4.3).
var ErrDirectionMismatch = errors.New("prober: direction mismatch")

// sentinelFrameBytes / sentinelChannels / sentinelRate mark the
// "arbitrary shape" sentinel Format spec.md §4.3 describes: a depth
// that probed successfully is supported for shapes outside the
// catalog's fixed grid too.
const (
	sentinelFrameBytes = -1
	sentinelChannels   = -1
	sentinelRate       = -1
)

// Probe walks cat in Formats() order, asking dev whether any
// candidate for each Format is supported under exclusive mode, and
// returns every Format that had at least one supported candidate plus
// one sentinel Format per distinct validbits depth seen.
func Probe(cat *formats.Catalog, dev wasapi.Device, direction wasapi.Direction) ([]formats.Format, error) {
	info, err := dev.Info()
	if err != nil {
		return nil, fmt.Errorf("prober: device info: %w", err)
	}
	if info.Direction != direction {
		return nil, ErrDirectionMismatch
	}

	client, err := dev.OpenAudioClient()
	if err != nil {
		return nil, fmt.Errorf("prober: open audio client: %w", err)
	}
	defer client.Close()

	var supported []formats.Format
	seenValidBits := make(map[int]bool)

	for _, f := range cat.Formats() {
		candidates, _ := cat.Candidates(f)
		for _, candidate := range candidates {
			result, _, err := client.IsSupported(candidate, wasapi.ShareModeExclusive)
			if err != nil {
				continue
			}
			if result == wasapi.Supported || result == wasapi.SupportedSimilar {
				supported = append(supported, f)
				seenValidBits[f.ValidBits] = true
				break
			}
		}
	}

	for validBits := range seenValidBits {
		supported = append(supported, formats.Format{
			ValidBits:  validBits,
			FrameBytes: sentinelFrameBytes,
			Channels:   sentinelChannels,
			Rate:       sentinelRate,
		})
	}

	return supported, nil
}

// IsArbitraryShapeSentinel reports whether f is the "arbitrary shape"
// sentinel Format Probe emits for a validbits depth, rather than a
// concrete probed grid entry.
func IsArbitraryShapeSentinel(f formats.Format) bool {
	return f.FrameBytes == sentinelFrameBytes && f.Channels == sentinelChannels && f.Rate == sentinelRate
}
