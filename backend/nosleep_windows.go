//go:build windows

package backend

import (
	"sync/atomic"
	"syscall"
)

const (
	esContinuous      uint = 0x80000000
	esSystemRequired  uint = 0x00000001
	esDisplayRequired uint = 0x00000002
)

var (
	sleepDisabled  atomic.Bool
	executionState = syscall.NewLazyDLL("kernel32.dll").NewProc("SetThreadExecutionState")
)

// SetSystemSleepDisabled keeps the system and display awake while disable is true.
func SetSystemSleepDisabled(disable bool) {
	if old := sleepDisabled.Swap(disable); old == disable {
		return
	}
	uType := esContinuous
	if disable {
		uType |= esSystemRequired | esDisplayRequired
	}
	syscall.SyscallN(executionState.Addr(), uintptr(uType))
}
