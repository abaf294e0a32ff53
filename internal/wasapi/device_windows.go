//go:build windows

package wasapi

import (
	"fmt"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca"
	"golang.org/x/sys/windows"
)

// wcaDevice wraps IMMDevice, grounded on the
// GetDefaultAudioEndpoint → OpenPropertyStore → Activate(IAudioClient)
// sequence in _examples/other_examples's moutend/go-wca loopback
// example.
type wcaDevice struct {
	dev       *wca.IMMDevice
	direction Direction
}

func (d *wcaDevice) Info() (DeviceInfo, error) {
	var idPtr *uint16
	if err := d.dev.GetId(&idPtr); err != nil {
		return DeviceInfo{}, fmt.Errorf("get device id: %w", err)
	}
	id := windows.UTF16PtrToString(idPtr)
	ole.CoTaskMemFree(uintptr(unsafe.Pointer(idPtr)))

	var store *wca.IPropertyStore
	if err := d.dev.OpenPropertyStore(wca.STGM_READ, &store); err != nil {
		return DeviceInfo{}, fmt.Errorf("open property store: %w", err)
	}
	defer store.Release()

	var pv wca.PROPVARIANT
	friendly := id
	if err := store.GetValue(&wca.PKEY_Device_FriendlyName, &pv); err == nil {
		friendly = pv.String()
	}

	return DeviceInfo{
		ID:           id,
		FriendlyName: friendly,
		Description:  fmt.Sprintf("EXCL: %s", friendly),
		Direction:    d.direction,
	}, nil
}

func (d *wcaDevice) OpenAudioClient() (AudioClient, error) {
	var client *wca.IAudioClient
	if err := d.dev.Activate(wca.IID_IAudioClient, wca.CLSCTX_ALL, nil, &client); err != nil {
		return nil, fmt.Errorf("activate audio client: %w", err)
	}
	return &wcaAudioClient{client: client}, nil
}

// wcaDeviceCollection wraps IMMDeviceCollection.
type wcaDeviceCollection struct {
	coll      *wca.IMMDeviceCollection
	direction Direction
}

func (c *wcaDeviceCollection) Count() (int, error) {
	var n uint32
	if err := c.coll.GetCount(&n); err != nil {
		return 0, err
	}
	return int(n), nil
}

func (c *wcaDeviceCollection) At(index int) (Device, error) {
	var dev *wca.IMMDevice
	if err := c.coll.Item(uint32(index), &dev); err != nil {
		return nil, err
	}
	return &wcaDevice{dev: dev, direction: c.direction}, nil
}
