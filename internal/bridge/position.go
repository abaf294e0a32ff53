package bridge

import (
	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
)

// GetBufferBytes implements §6's get_buffer_bytes: −1 on failure.
func GetBufferBytes(handle int64, isRender bool) int32 {
	var bytes int
	err := recovery.Guard(func() error {
		rtd, err := resolve(handle, isRender)
		if err != nil {
			return err
		}
		bytes = rtd.GetBufferBytes()
		return nil
	})
	if err != nil {
		logging.Error("bridge: get_buffer_bytes failed", "handle", handle, "err", err)
		return -1
	}
	return int32(bytes)
}

// GetAvailBytes implements §6's get_avail_bytes: −1 on failure.
func GetAvailBytes(handle int64, isRender bool) int32 {
	var bytes int
	err := recovery.Guard(func() error {
		rtd, err := resolve(handle, isRender)
		if err != nil {
			return err
		}
		bytes = rtd.GetAvailBytes()
		return nil
	})
	if err != nil {
		logging.Error("bridge: get_avail_bytes failed", "handle", handle, "err", err)
		return -1
	}
	return int32(bytes)
}

// GetBytePos implements §6's get_byte_pos: −1 on failure.
func GetBytePos(handle int64, isRender bool, hostPos int64) int64 {
	var pos int64
	err := recovery.Guard(func() error {
		rtd, err := resolve(handle, isRender)
		if err != nil {
			return err
		}
		pos = rtd.GetBytePos(hostPos)
		return nil
	})
	if err != nil {
		logging.Error("bridge: get_byte_pos failed", "handle", handle, "err", err)
		return -1
	}
	return pos
}
