//go:build unix

package server

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isPlatformAddrInUse(err error) bool {
	return errors.Is(err, unix.EADDRINUSE)
}
