// Package directory implements the Device Directory component
// (spec.md §4.2): a flat render++capture index over two
// wasapi.DeviceCollection enumerations, with string device ids
// (decimal positions) opaque to the host. Grounded on
// _examples/original_source/src/wasapi_impl.rs's get_device_cnt /
// get_colls / get_device_at_idx / get_device_by_id / do_get_mixer_desc.
package directory

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// ErrDeviceNotFound is returned whenever a device id or flat index
// does not resolve to a live device — spec.md §4.2 "Lookup failures
// surface as DeviceNotFound".
var ErrDeviceNotFound = errors.New("directory: device not found")

// Descriptor is spec.md §3's DeviceDescriptor: {device_id, name,
// description, direction, max_lines=1}. max_lines is always 1 — this
// core never multiplexes more than one stream per device (§1 scope).
type Descriptor struct {
	DeviceID    string
	Name        string
	Description string
	Direction   wasapi.Direction
	MaxLines    int
}

// Directory is a flat index over a render collection followed by a
// capture collection. The device at flat index i is render-direction
// if i < render count, else capture at local index i − render count.
type Directory struct {
	render  wasapi.DeviceCollection
	capture wasapi.DeviceCollection
}

// New builds a Directory over the given render and capture
// collections. Neither collection is enumerated eagerly; counts and
// device lookups are live, matching the original's per-call
// get_device_cnt/get_colls.
func New(render, capture wasapi.DeviceCollection) *Directory {
	return &Directory{render: render, capture: capture}
}

// Count returns the total device count across both directions, the
// value behind the host boundary's device_count operation (§6).
func (d *Directory) Count() (int, error) {
	renderCount, err := d.render.Count()
	if err != nil {
		return 0, fmt.Errorf("directory: render count: %w", err)
	}
	captureCount, err := d.capture.Count()
	if err != nil {
		return 0, fmt.Errorf("directory: capture count: %w", err)
	}
	return renderCount + captureCount, nil
}

// deviceAtIndex resolves a flat index to its collection-local device
// and direction.
func (d *Directory) deviceAtIndex(index int) (wasapi.Device, wasapi.Direction, error) {
	if index < 0 {
		return nil, 0, ErrDeviceNotFound
	}
	renderCount, err := d.render.Count()
	if err != nil {
		return nil, 0, fmt.Errorf("directory: render count: %w", err)
	}
	if index < renderCount {
		dev, err := d.render.At(index)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
		}
		return dev, wasapi.Render, nil
	}
	captureCount, err := d.capture.Count()
	if err != nil {
		return nil, 0, fmt.Errorf("directory: capture count: %w", err)
	}
	localIndex := index - renderCount
	if localIndex >= captureCount {
		return nil, 0, ErrDeviceNotFound
	}
	dev, err := d.capture.At(localIndex)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	return dev, wasapi.Capture, nil
}

// ParseDeviceID converts the host-facing decimal device id string
// back into a flat index. A malformed id is always ErrDeviceNotFound,
// never a parse error leaking to the host.
func ParseDeviceID(deviceID string) (int, error) {
	index, err := strconv.Atoi(deviceID)
	if err != nil || index < 0 {
		return 0, ErrDeviceNotFound
	}
	return index, nil
}

// Lookup resolves a host-facing device id string to its device and
// native direction.
func (d *Directory) Lookup(deviceID string) (wasapi.Device, wasapi.Direction, error) {
	index, err := ParseDeviceID(deviceID)
	if err != nil {
		return nil, 0, err
	}
	return d.deviceAtIndex(index)
}

// Descriptor returns the DeviceDescriptor for the device at a flat
// index, with DeviceID set to the index's decimal string form.
func (d *Directory) Descriptor(index int) (Descriptor, error) {
	dev, dir, err := d.deviceAtIndex(index)
	if err != nil {
		return Descriptor{}, err
	}
	info, err := dev.Info()
	if err != nil {
		return Descriptor{}, fmt.Errorf("directory: device info: %w", err)
	}
	return Descriptor{
		DeviceID:    strconv.Itoa(index),
		Name:        info.FriendlyName,
		Description: mixerDescription(info.FriendlyName),
		Direction:   dir,
		MaxLines:    1,
	}, nil
}

// mixerDescriptionPrefix is the original's do_get_mixer_desc marker:
// the friendly name is prefixed so a host presenting multiple audio
// backends can tell this one is the exclusive-mode path.
const mixerDescriptionPrefix = "EXCL: "

func mixerDescription(friendlyName string) string {
	return mixerDescriptionPrefix + friendlyName
}

// MixerInfo is the host-boundary's opaque "mixer info struct" (§6
// make_mixer_info): the host never interprets these fields beyond
// displaying them.
type MixerInfo struct {
	DeviceID    string
	Name        string
	Description string
	Direction   wasapi.Direction
	MaxLines    int
}

// MakeMixerInfo implements §6's make_mixer_info: idx → info or nil.
// A nil return, not an error, is the documented failure signal —
// callers at the host boundary translate it to a null/None value.
func (d *Directory) MakeMixerInfo(index int) *MixerInfo {
	desc, err := d.Descriptor(index)
	if err != nil {
		return nil
	}
	return &MixerInfo{
		DeviceID:    desc.DeviceID,
		Name:        desc.Name,
		Description: desc.Description,
		Direction:   desc.Direction,
		MaxLines:    desc.MaxLines,
	}
}
