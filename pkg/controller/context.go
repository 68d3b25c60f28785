package controller

import "github.com/downfa11-org/aesdchar/pkg/device"

// ClientContext carries the per-client state of a command session.
type ClientContext struct {
	Handle   *device.Handle
	Commands int
}

func NewClientContext(h *device.Handle) *ClientContext {
	return &ClientContext{Handle: h}
}
