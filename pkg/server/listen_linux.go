//go:build linux

package server

import (
	"net"
	"syscall"

	"github.com/downfa11-org/aesdchar/util"
	"golang.org/x/sys/unix"
)

func listenConfig(reuseAddr bool) net.ListenConfig {
	if !reuseAddr {
		return net.ListenConfig{}
	}
	return net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var sockErr error
			err := c.Control(func(fd uintptr) {
				sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			if sockErr != nil {
				util.Warn("SO_REUSEADDR on %s failed: %v", address, sockErr)
			}
			return nil
		},
	}
}
