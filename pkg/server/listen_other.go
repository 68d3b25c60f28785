//go:build !linux

package server

import "net"

func listenConfig(reuseAddr bool) net.ListenConfig {
	return net.ListenConfig{}
}
