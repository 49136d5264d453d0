//go:build windows

package osutils

import (
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"

	"edgekvm/internal/input"
)

var (
	user32        = windows.NewLazySystemDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputMouse      = 0
	mouseeventfMove = 0x0001
)

type mouseInput struct {
	Dx          int32
	Dy          int32
	MouseData   uint32
	DwFlags     uint32
	Time        uint32
	DwExtraInfo uintptr
}

type mouseINPUT struct {
	Type uint32
	Mi   mouseInput
	_    [8]byte // pad to sizeof(INPUT)
}

func wakeUp() error {
	log.Debug().Msg("Wake: nudging pointer")
	in := [2]mouseINPUT{
		{Type: inputMouse, Mi: mouseInput{Dx: 1, Dy: 1, DwFlags: mouseeventfMove}},
		{Type: inputMouse, Mi: mouseInput{Dx: -1, Dy: -1, DwFlags: mouseeventfMove}},
	}
	n, _, err := procSendInput.Call(2, uintptr(unsafe.Pointer(&in[0])), unsafe.Sizeof(in[0]))
	if n != 2 {
		return input.PlatformError("SendInput", err)
	}
	return nil
}
