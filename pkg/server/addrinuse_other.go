//go:build !unix && !windows

package server

func isPlatformAddrInUse(error) bool { return false }
