//go:build windows

package wasapi

import (
	"fmt"

	"github.com/moutend/go-wca"
)

const deviceStateActive = 0x1

func init() {
	EnumerateCollections = enumerateWasapiCollections
}

// enumerateWasapiCollections builds the render and capture collections
// from the system's default IMMDeviceEnumerator, grounded on
// wca.CoCreateInstance(wca.CLSID_MMDeviceEnumerator, ...) +
// EnumAudioEndpoints in _examples/other_examples's moutend/go-wca
// loopback-capture example (that example uses GetDefaultAudioEndpoint
// for a single device; spec.md §3's device enumeration needs every
// active endpoint, hence EnumAudioEndpoints with DEVICE_STATE_ACTIVE).
func enumerateWasapiCollections() (DeviceCollection, DeviceCollection, error) {
	var enumerator *wca.IMMDeviceEnumerator
	if err := wca.CoCreateInstance(
		wca.CLSID_MMDeviceEnumerator,
		0,
		wca.CLSCTX_ALL,
		wca.IID_IMMDeviceEnumerator,
		&enumerator,
	); err != nil {
		return nil, nil, fmt.Errorf("create device enumerator: %w", err)
	}
	defer enumerator.Release()

	var renderColl *wca.IMMDeviceCollection
	if err := enumerator.EnumAudioEndpoints(wca.ERender, deviceStateActive, &renderColl); err != nil {
		return nil, nil, fmt.Errorf("enumerate render endpoints: %w", err)
	}
	var captureColl *wca.IMMDeviceCollection
	if err := enumerator.EnumAudioEndpoints(wca.ECapture, deviceStateActive, &captureColl); err != nil {
		renderColl.Release()
		return nil, nil, fmt.Errorf("enumerate capture endpoints: %w", err)
	}

	return &wcaDeviceCollection{coll: renderColl, direction: Render},
		&wcaDeviceCollection{coll: captureColl, direction: Capture},
		nil
}
