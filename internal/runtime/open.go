package runtime

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// NegotiationParams carries everything the inner goroutine needs to
// pick and apply the final exclusive-mode format (spec.md §4.4 step
// 8): "negotiate the final exclusive wave format by re-probing the
// candidate list for the requested (rate, validbits, channels,
// storebits)".
type NegotiationParams struct {
	Candidates  []wasapi.WaveFormatCandidate
	PeriodTicks int64
}

// SpawnAndOpen implements spec.md §4.4 steps 8-9: it spawns the inner
// thread (a goroutine), which performs COM apartment init, format
// negotiation, client initialization, event handle creation, and
// buffer-size query, then reports back over a rendezvous handshake
// channel (capacity 0 — SPEC_FULL.md Open Question resolution #1).
// The caller (internal/opener) has already resolved the device,
// computed alignment/period/queue sizing, and created queues sized
// from the period estimate; SpawnAndOpen blocks until the inner
// goroutine answers, then returns a fully usable RuntimeData or the
// error it reported.
func SpawnAndOpen(deviceID, deviceName string, direction wasapi.Direction, rate, frameBytes, chunkFramesEstimate, queueCapacity int, client wasapi.AudioClient, params NegotiationParams, queues Queues) (*RuntimeData, error) {
	rtd := newRuntimeData(deviceID, deviceName, direction, rate, frameBytes, chunkFramesEstimate, queueCapacity, queues)

	handshake := make(chan error) // capacity 0: rendezvous
	go rtd.runInner(client, params, handshake)

	if err := <-handshake; err != nil {
		return nil, err
	}
	return rtd, nil
}

// runInner is the inner thread's setup procedure followed by its
// steady-state loop. It runs entirely on its own goroutine; after the
// handshake send, nothing here touches rtd's outer-facing state
// except through the atomics and channels already shared with the
// outer side (spec.md §3 invariant: "the inner thread owns exclusive
// mutable access to the audio client after handoff").
func (rtd *RuntimeData) runInner(client wasapi.AudioClient, params NegotiationParams, handshake chan<- error) {
	defer close(rtd.done)

	alreadyInit, err := wasapi.InitApartment()
	if err != nil {
		handshake <- newError(KindApartmentInit, "open", err)
		return
	}
	if alreadyInit {
		logging.Debug("COM apartment already initialized on inner thread", "dir", rtd.Direction, "id", rtd.DeviceID)
	}
	defer wasapi.UninitApartment()

	candidate, err := negotiateFormat(client, params.Candidates)
	if err != nil {
		handshake <- newError(KindFormatUnsupported, "open", err)
		return
	}

	if err := client.Initialize(candidate, params.PeriodTicks, rtd.Direction, wasapi.ShareModeExclusive); err != nil {
		handshake <- newError(KindClientInit, "open", err)
		return
	}

	frames, err := client.GetBufferFrameCount()
	if err != nil {
		handshake <- newError(KindClientInit, "open", fmt.Errorf("get buffer frame count: %w", err))
		return
	}
	rtd.chunkFrames = frames
	rtd.leftovers = make([]byte, rtd.ChunkBytes())

	event, err := client.SetEventHandle()
	if err != nil {
		handshake <- newError(KindClientInit, "open", fmt.Errorf("set event handle: %w", err))
		return
	}
	defer event.Close()

	clock, err := client.GetAudioClock()
	if err != nil {
		handshake <- newError(KindClientInit, "open", fmt.Errorf("get audio clock: %w", err))
		return
	}

	disconnectCh := make(chan wasapi.DisconnectReason, 8)
	if session, err := client.GetSessionControl(); err == nil {
		session.RegisterDisconnectCallback(func(reason wasapi.DisconnectReason) {
			select {
			case disconnectCh <- reason:
			default:
			}
		})
		defer session.Close()
	}

	handshake <- nil

	switch rtd.Direction {
	case wasapi.Render:
		rtd.playbackLoop(client, event, clock, disconnectCh)
	case wasapi.Capture:
		rtd.captureLoop(client, event, clock, disconnectCh)
	}
}

// negotiateFormat re-probes candidates in order under exclusive mode
// and returns the first one the device accepts, preferring an exact
// match over a "supported similar" substitute WASAPI proposes.
func negotiateFormat(client wasapi.AudioClient, candidates []wasapi.WaveFormatCandidate) (wasapi.WaveFormatCandidate, error) {
	for _, candidate := range candidates {
		result, similar, err := client.IsSupported(candidate, wasapi.ShareModeExclusive)
		if err != nil {
			continue
		}
		switch result {
		case wasapi.Supported:
			return candidate, nil
		case wasapi.SupportedSimilar:
			if similar != nil {
				return *similar, nil
			}
			return candidate, nil
		}
	}
	return wasapi.WaveFormatCandidate{}, fmt.Errorf("no candidate accepted by device")
}
