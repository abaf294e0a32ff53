//go:build windows

package wasapi

import "github.com/moutend/go-wca"

// wcaClock wraps IAudioClock for hardware-position queries; the inner
// loops feed its position to their DeviceTimeTracker.
type wcaClock struct {
	clock *wca.IAudioClock
}

func (c *wcaClock) Frequency() (uint64, error) {
	var freq uint64
	if err := c.clock.GetFrequency(&freq); err != nil {
		return 0, err
	}
	return freq, nil
}

func (c *wcaClock) Position() (uint64, error) {
	var pos uint64
	if err := c.clock.GetPosition(&pos, nil); err != nil {
		return 0, err
	}
	return pos, nil
}
