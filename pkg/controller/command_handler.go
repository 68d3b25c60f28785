package controller

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/downfa11-org/aesdchar/pkg/device"
	"github.com/downfa11-org/aesdchar/util"
)

const defaultReadMax = 64 * 1024

type CommandHandler struct {
	Device     *device.Device
	Terminator byte
}

func NewCommandHandler(d *device.Device, terminator byte) *CommandHandler {
	return &CommandHandler{Device: d, Terminator: terminator}
}

// HandleCommand runs one text command against the client's handle and
// returns the response to print.
func (ch *CommandHandler) HandleCommand(rawCmd string, ctx *ClientContext) string {
	cmd := strings.TrimSpace(rawCmd)
	if cmd == "" {
		return "ERROR: empty command"
	}
	ctx.Commands++

	name, rest, _ := strings.Cut(cmd, " ")
	var resp string
	switch strings.ToUpper(name) {
	case "HELP":
		resp = ch.handleHelp()
	case "WRITE":
		resp = ch.handleWrite(rest, ctx, true)
	case "APPEND":
		resp = ch.handleWrite(rest, ctx, false)
	case "READ":
		resp = ch.handleRead(rest, ctx)
	case "SEEK":
		resp = ch.handleSeek(rest, ctx)
	case "SEEKTO":
		resp = ch.handleSeekTo(rest, ctx)
	case "DUMP":
		resp = string(ch.Device.Snapshot())
	case "STATS":
		resp = ch.handleStats()
	default:
		if IsSeekTo([]byte(cmd)) {
			st, err := ParseSeekTo(cmd)
			if err != nil {
				resp = fmt.Sprintf("ERROR: %v", err)
				break
			}
			resp = ch.seekTo(ctx, st)
			break
		}
		resp = fmt.Sprintf("ERROR: unknown command %q, type HELP", name)
	}

	ch.logCommandResult(cmd, resp)
	return resp
}

func (ch *CommandHandler) handleHelp() string {
	return `Available commands:
WRITE message=<text> - write text followed by the record terminator
APPEND message=<text> - write text without terminating the record
READ [max=<N>] - read from the current position to the end of the log
SEEK offset=<N> [whence=<set|cur|end>] - move the position in the flat stream
SEEKTO cmd=<N> offset=<N> - move to byte <offset> of the <cmd>-th retained write
AESDCHAR_IOCSEEKTO:<cmd>,<offset> - same as SEEKTO
DUMP - print every retained record
STATS - show log occupancy
HELP - show this help
EXIT - exit`
}

func (ch *CommandHandler) handleWrite(args string, ctx *ClientContext, terminate bool) string {
	kv := parseKeyValueArgs(args)
	msg, ok := kv["message"]
	if !ok {
		return "ERROR: missing message parameter. Expected: WRITE message=<text>"
	}

	data := []byte(msg)
	if terminate {
		data = append(data, ch.Terminator)
	}
	if _, err := ctx.Handle.Write(data); err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	return fmt.Sprintf("OK %d bytes", len(data))
}

func (ch *CommandHandler) handleRead(args string, ctx *ClientContext) string {
	kv := parseKeyValueArgs(args)
	limit := defaultReadMax
	if s, ok := kv["max"]; ok {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return "ERROR: max must be a positive integer"
		}
		limit = n
	}

	data, err := io.ReadAll(io.LimitReader(ctx.Handle, int64(limit)))
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	if len(data) == 0 {
		return "(eof)"
	}
	return string(data)
}

func (ch *CommandHandler) handleSeek(args string, ctx *ClientContext) string {
	kv := parseKeyValueArgs(args)
	offStr, ok := kv["offset"]
	if !ok {
		return "ERROR: missing offset parameter. Expected: SEEK offset=<N> [whence=<set|cur|end>]"
	}
	off, err := strconv.ParseInt(offStr, 10, 64)
	if err != nil {
		return "ERROR: offset must be an integer"
	}

	whence := io.SeekStart
	switch strings.ToLower(kv["whence"]) {
	case "", "set":
	case "cur":
		whence = io.SeekCurrent
	case "end":
		whence = io.SeekEnd
	default:
		return "ERROR: whence must be one of set, cur, end"
	}

	pos, err := ctx.Handle.Seek(off, whence)
	if err != nil {
		return fmt.Sprintf("ERROR: %v", err)
	}
	return fmt.Sprintf("OK position=%d", pos)
}

func (ch *CommandHandler) handleSeekTo(args string, ctx *ClientContext) string {
	kv := parseKeyValueArgs(args)
	cmd, err1 := strconv.Atoi(kv["cmd"])
	off, err2 := strconv.Atoi(kv["offset"])
	if err1 != nil || err2 != nil {
		return "ERROR: invalid SEEKTO syntax. Expected: SEEKTO cmd=<N> offset=<N>"
	}
	return ch.seekTo(ctx, SeekTo{WriteCmd: cmd, WriteCmdOffset: off})
}

func (ch *CommandHandler) seekTo(ctx *ClientContext, st SeekTo) string {
	if err := ctx.Handle.SeekTo(st.WriteCmd, st.WriteCmdOffset); err != nil {
		if errors.Is(err, device.ErrInvalidSeek) {
			return fmt.Sprintf("ERROR: no byte %d in retained write %d", st.WriteCmdOffset, st.WriteCmd)
		}
		return fmt.Sprintf("ERROR: %v", err)
	}
	return fmt.Sprintf("OK position=%d", ctx.Handle.Position())
}

func (ch *CommandHandler) handleStats() string {
	st := ch.Device.Stats()
	return fmt.Sprintf("records=%d/%d bytes=%d full=%v pending=%d handles=%d",
		st.Retained, st.Capacity, st.TotalSize, st.Full, st.PendingBytes, st.OpenHandles)
}

func (ch *CommandHandler) logCommandResult(cmd, resp string) {
	if strings.HasPrefix(resp, "ERROR") {
		util.Warn("command %q failed: %s", cmd, resp)
		return
	}
	util.Debug("command %q ok", cmd)
}

// parseKeyValueArgs splits "k=v k2=v2" pairs. message= swallows the rest of
// the line so it may contain spaces.
func parseKeyValueArgs(argsStr string) map[string]string {
	result := make(map[string]string)

	messageIdx := strings.Index(argsStr, "message=")
	if messageIdx != -1 {
		result["message"] = argsStr[messageIdx+8:]
		argsStr = argsStr[:messageIdx]
	}

	for _, part := range strings.Fields(argsStr) {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}
	return result
}
