//go:build !darwin && !freebsd && !netbsd && !openbsd && !linux
// +build !darwin,!freebsd,!netbsd,!openbsd,!linux

package logger

import "os"

const SupportsColorEscapes = false

func GetTerminalInfo(*os.File) TerminalInfo {
	return TerminalInfo{}
}
