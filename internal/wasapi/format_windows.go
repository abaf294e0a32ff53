//go:build windows

package wasapi

import (
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/moutend/go-wca"
)

// waveFormatExtensible mirrors the Win32 WAVEFORMATEXTENSIBLE layout.
// go-wca's exported WAVEFORMATEX covers the legacy fields only; the
// exclusive-mode candidates this core builds (internal/formats) always
// need the extensible tail, so the struct is declared locally and its
// pointer handed to go-wca's *wca.WAVEFORMATEX parameters via
// unsafe.Pointer — the same cast-a-bigger-struct-into-the-base-pointer
// technique _examples/josharian-oto/driver_wasapi_windows.go uses for
// its own hand-rolled WAVEFORMATEXTENSIBLE.
type waveFormatExtensible struct {
	wca.WAVEFORMATEX
	validBitsPerSample uint16
	channelMask        uint32
	subFormat          ole.GUID
}

const waveFormatExtensibleTag = 0xFFFE

// subFormatPCM is KSDATAFORMAT_SUBTYPE_PCM.
var subFormatPCM = ole.NewGUID("00000001-0000-0010-8000-00AA00389B71")

// toWaveFormat builds the WASAPI wire descriptor for a candidate. Every
// candidate this core ever probes or initializes with goes through the
// extensible layout (legacy WAVEFORMATEX is only ever used as a probe
// fallback, spec.md §4.1 point 4, and is expressed the same way with
// Extensible=false skipping the tail).
func toWaveFormat(c WaveFormatCandidate) *waveFormatExtensible {
	blockAlign := uint16(c.StoreBits/8) * uint16(c.Channels)
	wfxe := &waveFormatExtensible{
		WAVEFORMATEX: wca.WAVEFORMATEX{
			NChannels:       uint16(c.Channels),
			NSamplesPerSec:  uint32(c.Rate),
			NBlockAlign:     blockAlign,
			NAvgBytesPerSec: uint32(c.Rate) * uint32(blockAlign),
			WBitsPerSample:  uint16(c.StoreBits),
		},
		validBitsPerSample: uint16(c.ValidBits),
		channelMask:        c.ChannelMask,
		subFormat:          *subFormatPCM,
	}
	if c.Extensible {
		wfxe.WFormatTag = waveFormatExtensibleTag
		wfxe.CbSize = 22
	} else {
		wfxe.WFormatTag = 1 // WAVE_FORMAT_PCM
		wfxe.CbSize = 0
	}
	return wfxe
}

// fromWaveFormat reads a WAVEFORMATEX(TENSIBLE) the device handed back
// (e.g. IsFormatSupported's closest-match pointer) into a candidate.
func fromWaveFormat(p *wca.WAVEFORMATEX) WaveFormatCandidate {
	c := WaveFormatCandidate{
		StoreBits: int(p.WBitsPerSample),
		ValidBits: int(p.WBitsPerSample),
		Rate:      int(p.NSamplesPerSec),
		Channels:  int(p.NChannels),
	}
	if p.WFormatTag == waveFormatExtensibleTag && p.CbSize >= 22 {
		c.Extensible = true
		ext := (*waveFormatExtensible)(unsafe.Pointer(p))
		c.ValidBits = int(ext.validBitsPerSample)
		c.ChannelMask = ext.channelMask
	}
	return c
}

func (w *waveFormatExtensible) asBase() *wca.WAVEFORMATEX {
	return (*wca.WAVEFORMATEX)(unsafe.Pointer(w))
}
