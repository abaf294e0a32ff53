// Package formats builds and serves the process-wide Format Catalog
// (spec.md §3, §4.1): the map from a logical Format (validbits,
// framebytes, channels, rate) to the ordered list of WASAPI
// WaveFormatCandidate descriptors worth probing for it. It is grounded
// directly on _examples/original_source/src/formats.rs
// (init_format_variants / get_possible_formats / CHANNEL_MASKS).
package formats

import (
	"fmt"
	"sync"

	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// Speaker position bits, as defined by the Windows SDK's ksmedia.h.
const (
	speakerFrontLeft          uint32 = 0x1
	speakerFrontRight         uint32 = 0x2
	speakerFrontCenter        uint32 = 0x4
	speakerLowFrequency       uint32 = 0x8
	speakerBackLeft           uint32 = 0x10
	speakerBackRight          uint32 = 0x20
	speakerFrontLeftOfCenter  uint32 = 0x40
	speakerFrontRightOfCenter uint32 = 0x80
	speakerBackCenter         uint32 = 0x100
	speakerSideLeft           uint32 = 0x200
	speakerSideRight          uint32 = 0x400
)

// Named layouts mirroring formats.rs's SPEAKER_* combinations, kept as
// separate constants because several channel counts probe two of them.
const (
	speakerStereo          = speakerFrontLeft | speakerFrontRight
	speakerQuad            = speakerFrontLeft | speakerFrontRight | speakerBackLeft | speakerBackRight
	speakerSurround        = speakerFrontLeft | speakerFrontRight | speakerFrontCenter | speakerBackCenter
	speaker5Point1         = speakerFrontLeft | speakerFrontRight | speakerFrontCenter | speakerLowFrequency | speakerBackLeft | speakerBackRight
	speaker7Point1         = speakerFrontLeft | speakerFrontRight | speakerFrontCenter | speakerLowFrequency | speakerBackLeft | speakerBackRight | speakerFrontLeftOfCenter | speakerFrontRightOfCenter
	speaker5Point1Surround = speakerFrontLeft | speakerFrontRight | speakerFrontCenter | speakerLowFrequency | speakerSideLeft | speakerSideRight
	speaker7Point1Surround = speakerFrontLeft | speakerFrontRight | speakerFrontCenter | speakerLowFrequency | speakerBackLeft | speakerBackRight | speakerSideLeft | speakerSideRight
)

// channelMasks is the PortAudio-style per-channel-count layout table,
// indexed by channels-1. Channel counts of 4, 5, 6, 7 and 8 each carry
// two candidate layouts — a "back" variant and a "side"/"surround"
// variant — matching formats.rs's CHANNEL_MASKS exactly; every other
// entry has one. Entries beyond 8 channels have no fixed layout and
// fall back to the sequential mask only.
var channelMasks = [8][]uint32{
	{speakerFrontCenter}, // 1.0
	{speakerStereo},      // 2.0
	{speakerStereo | speakerLowFrequency}, // 2.1
	{speakerQuad, speakerSurround},                         // 4.0: quad, surround
	{speakerQuad | speakerLowFrequency, speakerSurround | speakerLowFrequency}, // 4.1
	{speaker5Point1, speaker5Point1Surround},                                   // 5.1: back, side
	{speaker5Point1 | speakerBackCenter, speaker5Point1Surround | speakerBackCenter}, // 6.1
	{speaker7Point1, speaker7Point1Surround},                                   // 7.1: back, side
}

// bitDepthPairs is the fixed (validbits, storebits) table spec.md §4.1
// iterates for every (rate, channels) combination the host allows.
var bitDepthPairs = [4][2]int{
	{16, 16},
	{24, 24},
	{24, 32},
	{32, 32},
}

// Format is the catalog key (spec.md §3): equality of these four
// fields identifies one logical PCM format regardless of how many
// WaveFormatCandidate wire shapes can realize it.
type Format struct {
	ValidBits  int
	FrameBytes int
	Channels   int
	Rate       int
}

func (f Format) String() string {
	return fmt.Sprintf("%dch@%dHz validbits=%d framebytes=%d", f.Channels, f.Rate, f.ValidBits, f.FrameBytes)
}

// sequentialChannelMask is the naive fallback layout used as the
// "default mask" candidate for channel counts with no PortAudio entry,
// and as the >2-channel alternate candidate alongside the table entry:
// one bit per channel, assigned in order starting at front-left.
func sequentialChannelMask(channels int) uint32 {
	if channels <= 0 {
		return 0
	}
	if channels >= 32 {
		return 0xFFFFFFFF
	}
	return (uint32(1) << uint(channels)) - 1
}

// candidatesFor implements get_possible_formats: for one (storebits,
// validbits,rate,channels) combination, produce the ordered list of
// WaveFormatCandidate shapes to probe, richest-first.
//
//  1. the PortAudio-style per-channel-count extensible mask(s), when
//     the channel count has a table entry — two, for the channel
//     counts with both a "back" and a "side"/"surround" layout;
//  2. for channels > 2, an extensible candidate using the sequential
//     default mask, when it differs from every mask in (1);
//  3. an extensible candidate with a zero channel mask (WASAPI accepts
//     this as "use the device's own default positions");
//  4. for channels <= 2 and storebits <= 16, a legacy (non-extensible,
//     plain WAVEFORMATEX) candidate.
func candidatesFor(storeBits, validBits, rate, channels int) []wasapi.WaveFormatCandidate {
	var out []wasapi.WaveFormatCandidate

	base := wasapi.WaveFormatCandidate{
		StoreBits:  storeBits,
		ValidBits:  validBits,
		Rate:       rate,
		Channels:   channels,
		Extensible: true,
	}

	var tableMasks []uint32
	if channels >= 1 && channels <= len(channelMasks) {
		tableMasks = channelMasks[channels-1]
		for _, mask := range tableMasks {
			c := base
			c.ChannelMask = mask
			out = append(out, c)
		}
	}

	if channels > 2 {
		seq := sequentialChannelMask(channels)
		isNew := true
		for _, mask := range tableMasks {
			if mask == seq {
				isNew = false
				break
			}
		}
		if isNew {
			c := base
			c.ChannelMask = seq
			out = append(out, c)
		}
	}

	zero := base
	zero.ChannelMask = 0
	out = append(out, zero)

	if channels <= 2 && storeBits <= 16 {
		legacy := base
		legacy.Extensible = false
		legacy.ChannelMask = 0
		out = append(out, legacy)
	}

	return out
}

// Catalog is the process-wide, build-once Format→candidates map
// (spec.md §4.1). All access is mutex-guarded; the map itself is
// immutable after Build returns, but the mutex also lets tests rebuild
// a fresh Catalog without racing a production Build elsewhere in the
// same process image (unit tests construct their own Catalog rather
// than sharing the package-level singleton).
type Catalog struct {
	mu         sync.Mutex
	byFormat   map[Format][]wasapi.WaveFormatCandidate
}

// Build constructs a Catalog covering every (rate, channels) pair for
// which accept returns true, across the fixed bit-depth table. accept
// is how the host's max_rate_limit/max_channels_limit configuration
// (SPEC_FULL.md Configuration) narrows the otherwise-combinatorial
// sweep; a nil accept admits every combination.
func Build(rateVariants []int, channelsVariants []int, accept func(rate, channels int) bool) *Catalog {
	cat := &Catalog{byFormat: make(map[Format][]wasapi.WaveFormatCandidate)}
	if accept == nil {
		accept = func(int, int) bool { return true }
	}
	for _, rate := range rateVariants {
		for _, channels := range channelsVariants {
			if !accept(rate, channels) {
				continue
			}
			for _, pair := range bitDepthPairs {
				validBits, storeBits := pair[0], pair[1]
				frameBytes := (storeBits / 8) * channels
				key := Format{
					ValidBits:  validBits,
					FrameBytes: frameBytes,
					Channels:   channels,
					Rate:       rate,
				}
				cat.byFormat[key] = candidatesFor(storeBits, validBits, rate, channels)
			}
		}
	}
	return cat
}

// Candidates returns the candidate list for a Format, and whether the
// catalog was built with that key at all.
func (c *Catalog) Candidates(f Format) ([]wasapi.WaveFormatCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	candidates, ok := c.byFormat[f]
	return candidates, ok
}

// Formats returns every Format key the catalog was built with, in no
// particular order; callers that need a stable order should sort.
func (c *Catalog) Formats() []Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Format, 0, len(c.byFormat))
	for f := range c.byFormat {
		out = append(out, f)
	}
	return out
}
