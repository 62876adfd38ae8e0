//go:build linux

package logger

import (
	"syscall"
	"unsafe"
)

const ioctlReadTermios = 0x5401 // TCGETS

func isTerminal(fd uintptr) bool {
	var termios syscall.Termios
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, ioctlReadTermios,
		uintptr(unsafe.Pointer(&termios)))
	return errno == 0
}
