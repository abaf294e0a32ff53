package bridge

import (
	"github.com/cleansine/wasapi-exclusive/internal/logging"
	"github.com/cleansine/wasapi-exclusive/internal/recovery"
)

// Write implements §6's write: −1 on any failure.
func Write(handle int64, data []byte, offset, length int) int32 {
	var n int
	err := recovery.Guard(func() error {
		rtd, err := resolve(handle, true)
		if err != nil {
			return err
		}
		n, err = rtd.Write(data, offset, length)
		return err
	})
	if err != nil {
		logging.Error("bridge: write failed", "handle", handle, "err", err)
		return -1
	}
	return int32(n)
}

// Read implements §6's read: −1 on any failure.
func Read(handle int64, data []byte, offset, length int) int32 {
	var n int
	err := recovery.Guard(func() error {
		rtd, err := resolve(handle, false)
		if err != nil {
			return err
		}
		n, err = rtd.Read(data, offset, length)
		return err
	})
	if err != nil {
		logging.Error("bridge: read failed", "handle", handle, "err", err)
		return -1
	}
	return int32(n)
}
