//go:build !linux

package rpi

import (
	"errors"
	"runtime"
)

func Realtime(cpu int) (release func(), err error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, errors.New("realtime scheduling needs linux")
}
