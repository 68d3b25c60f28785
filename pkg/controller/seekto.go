package controller

import (
	"fmt"
	"strconv"
	"strings"
)

// SeekToPrefix starts a packet that repositions the reader instead of
// being written to the device.
const SeekToPrefix = "AESDCHAR_IOCSEEKTO:"

// SeekTo addresses byte WriteCmdOffset of the WriteCmd-th retained write.
type SeekTo struct {
	WriteCmd       int
	WriteCmdOffset int
}

// IsSeekTo reports whether packet is a seek-to command.
func IsSeekTo(packet []byte) bool {
	return strings.HasPrefix(string(packet), SeekToPrefix)
}

// ParseSeekTo parses "AESDCHAR_IOCSEEKTO:X,Y" with an optional trailing
// newline.
func ParseSeekTo(packet string) (SeekTo, error) {
	body, ok := strings.CutPrefix(strings.TrimRight(packet, "\r\n"), SeekToPrefix)
	if !ok {
		return SeekTo{}, fmt.Errorf("missing %s prefix", SeekToPrefix)
	}

	cmdStr, offStr, ok := strings.Cut(body, ",")
	if !ok {
		return SeekTo{}, fmt.Errorf("expected %sX,Y, got %q", SeekToPrefix, packet)
	}
	cmd, err := strconv.ParseUint(strings.TrimSpace(cmdStr), 10, 31)
	if err != nil {
		return SeekTo{}, fmt.Errorf("invalid write command index %q: %w", cmdStr, err)
	}
	off, err := strconv.ParseUint(strings.TrimSpace(offStr), 10, 31)
	if err != nil {
		return SeekTo{}, fmt.Errorf("invalid write command offset %q: %w", offStr, err)
	}
	return SeekTo{WriteCmd: int(cmd), WriteCmdOffset: int(off)}, nil
}
