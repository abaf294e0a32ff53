package directory

import (
	"errors"
	"testing"

	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
	"github.com/cleansine/wasapi-exclusive/internal/wasapitest"
)

func newTestDirectory() *Directory {
	render := &wasapitest.FakeCollection{Devices: []*wasapitest.FakeDevice{
		{DeviceInfo: wasapi.DeviceInfo{ID: "r0", FriendlyName: "Speakers", Direction: wasapi.Render}},
		{DeviceInfo: wasapi.DeviceInfo{ID: "r1", FriendlyName: "Headphones", Direction: wasapi.Render}},
	}}
	capture := &wasapitest.FakeCollection{Devices: []*wasapitest.FakeDevice{
		{DeviceInfo: wasapi.DeviceInfo{ID: "c0", FriendlyName: "Microphone", Direction: wasapi.Capture}},
	}}
	return New(render, capture)
}

func TestCountSumsBothDirections(t *testing.T) {
	d := newTestDirectory()
	n, err := d.Count()
	if err != nil || n != 3 {
		t.Fatalf("Count() = %d, %v, want 3, nil", n, err)
	}
}

func TestFlatIndexingCrossesDirectionBoundary(t *testing.T) {
	d := newTestDirectory()

	desc, err := d.Descriptor(0)
	if err != nil || desc.Direction != wasapi.Render || desc.Name != "Speakers" {
		t.Fatalf("index 0 = %+v, %v, want render Speakers", desc, err)
	}

	desc, err = d.Descriptor(1)
	if err != nil || desc.Direction != wasapi.Render || desc.Name != "Headphones" {
		t.Fatalf("index 1 = %+v, %v, want render Headphones", desc, err)
	}

	desc, err = d.Descriptor(2)
	if err != nil || desc.Direction != wasapi.Capture || desc.Name != "Microphone" {
		t.Fatalf("index 2 = %+v, %v, want capture Microphone", desc, err)
	}

	if _, err := d.Descriptor(3); !errors.Is(err, ErrDeviceNotFound) {
		t.Fatalf("index 3 = %v, want ErrDeviceNotFound", err)
	}
}

func TestDescriptorIDIsDecimalIndex(t *testing.T) {
	d := newTestDirectory()
	desc, err := d.Descriptor(2)
	if err != nil {
		t.Fatal(err)
	}
	if desc.DeviceID != "2" {
		t.Errorf("DeviceID = %q, want %q", desc.DeviceID, "2")
	}
}

func TestLookupByDeviceID(t *testing.T) {
	d := newTestDirectory()

	_, dir, err := d.Lookup("2")
	if err != nil || dir != wasapi.Capture {
		t.Fatalf("Lookup(\"2\") = %v, %v, want capture, nil", dir, err)
	}

	if _, _, err := d.Lookup("not-a-number"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Lookup with malformed id = %v, want ErrDeviceNotFound", err)
	}

	if _, _, err := d.Lookup("-1"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Lookup(\"-1\") = %v, want ErrDeviceNotFound", err)
	}
}

func TestMakeMixerInfoPrefixesDescription(t *testing.T) {
	d := newTestDirectory()

	info := d.MakeMixerInfo(0)
	if info == nil {
		t.Fatal("MakeMixerInfo(0) = nil, want non-nil")
	}
	if info.Description != "EXCL: Speakers" {
		t.Errorf("Description = %q, want %q", info.Description, "EXCL: Speakers")
	}
	if info.MaxLines != 1 {
		t.Errorf("MaxLines = %d, want 1", info.MaxLines)
	}

	if got := d.MakeMixerInfo(99); got != nil {
		t.Errorf("MakeMixerInfo(99) = %+v, want nil", got)
	}
}
