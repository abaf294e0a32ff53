//go:build windows

package wasapi

import (
	"errors"

	"github.com/go-ole/go-ole"
)

func init() {
	InitApartment = initApartmentOle
	UninitApartment = ole.CoUninitialize
}

// initApartmentOle calls CoInitializeEx via go-ole, the same
// CoInitialize family go-musicfox's windows_player.go drives its
// WMPlayer.OCX automation object through. S_FALSE ("already
// initialized in this mode") and RPC_E_CHANGEDMODE ("apartment mode
// already set differently by this thread") are both treated as
// success per spec.md §5.
func initApartmentOle() (bool, error) {
	err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED)
	if err == nil {
		return false, nil
	}
	var oleErr *ole.OleError
	if errors.As(err, &oleErr) {
		switch oleErr.Code() {
		case 0x00000001, // S_FALSE
			0x80010106: // RPC_E_CHANGEDMODE
			return true, nil
		}
	}
	return false, err
}
