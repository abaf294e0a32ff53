package bridge

import (
	"fmt"

	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
	"github.com/cleansine/wasapi-exclusive/internal/runtime"
)

// resolve looks up handle and checks its direction agrees with
// is_render, the check every lifecycle and position operation in §6
// performs before touching the RuntimeData.
func resolve(handle int64, isRender bool) (*runtime.RuntimeData, error) {
	rtd, ok := handles.get(handle)
	if !ok {
		return nil, fmt.Errorf("bridge: unknown handle %d", handle)
	}
	if err := rtd.VerifyDirection(directionOf(isRender)); err != nil {
		return nil, fmt.Errorf("bridge: handle %d: %w", handle, err)
	}
	return rtd, nil
}

func lifecycleOp(op string, handle int64, isRender bool, fn func(*runtime.RuntimeData) error) {
	err := recovery.Guard(func() error {
		rtd, err := resolve(handle, isRender)
		if err != nil {
			return err
		}
		return fn(rtd)
	})
	if err != nil {
		logging.Error("bridge: "+op+" failed", "handle", handle, "is_render", isRender, "err", err)
	}
}

// Start implements §6's start.
func Start(handle int64, isRender bool) {
	lifecycleOp("start", handle, isRender, (*runtime.RuntimeData).Start)
}

// Stop implements §6's stop.
func Stop(handle int64, isRender bool) {
	lifecycleOp("stop", handle, isRender, (*runtime.RuntimeData).Stop)
}

// Close implements §6's close: the handle is consumed and removed
// from the registry even if the underlying Close reports an error,
// since spec.md §5 treats close as fire-and-forget (the inner loop is
// never joined — see SPEC_FULL.md's Open Question resolution #2).
func Close(handle int64, isRender bool) {
	lifecycleOp("close", handle, isRender, (*runtime.RuntimeData).Close)
	handles.remove(handle)
}

// Drain implements §6's drain.
func Drain(handle int64, isRender bool) {
	lifecycleOp("drain", handle, isRender, (*runtime.RuntimeData).Drain)
}

// Flush implements §6's flush.
func Flush(handle int64, isRender bool) {
	lifecycleOp("flush", handle, isRender, (*runtime.RuntimeData).Flush)
}
