package controller_test

import (
	"strings"
	"testing"

	"github.com/downfa11-org/aesdchar/pkg/controller"
	"github.com/downfa11-org/aesdchar/pkg/device"
)

func newSession(t *testing.T, capacity int) (*controller.CommandHandler, *controller.ClientContext) {
	t.Helper()
	d := device.New(device.Options{MaxWriteOps: capacity, Terminator: '\n'})
	h, err := d.Open()
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	t.Cleanup(func() {
		h.Close()
		d.Close()
	})
	return controller.NewCommandHandler(d, '\n'), controller.NewClientContext(h)
}

func TestHandleCommand_WriteReadDump(t *testing.T) {
	ch, ctx := newSession(t, 10)

	if resp := ch.HandleCommand("WRITE message=hello world", ctx); resp != "OK 12 bytes" {
		t.Fatalf("unexpected WRITE response %q", resp)
	}
	ch.HandleCommand("APPEND message=par", ctx)
	ch.HandleCommand("WRITE message=tial", ctx)

	if resp := ch.HandleCommand("DUMP", ctx); resp != "hello world\npartial\n" {
		t.Fatalf("unexpected DUMP %q", resp)
	}
	if resp := ch.HandleCommand("READ max=5", ctx); resp != "hello" {
		t.Fatalf("unexpected READ %q", resp)
	}
	if resp := ch.HandleCommand("READ", ctx); resp != " world\npartial\n" {
		t.Fatalf("unexpected READ %q", resp)
	}
	if resp := ch.HandleCommand("READ", ctx); resp != "(eof)" {
		t.Fatalf("expected eof, got %q", resp)
	}
	if ctx.Commands != 7 {
		t.Fatalf("expected 7 commands counted, got %d", ctx.Commands)
	}
}

func TestHandleCommand_Seek(t *testing.T) {
	ch, ctx := newSession(t, 10)
	ch.HandleCommand("WRITE message=abc", ctx)
	ch.HandleCommand("WRITE message=defg", ctx)

	tests := []struct {
		cmd  string
		want string
	}{
		{"SEEK offset=2", "OK position=2"},
		{"SEEK offset=1 whence=cur", "OK position=3"},
		{"SEEK offset=-2 whence=end", "OK position=7"},
		{"SEEK offset=100", "ERROR"},
		{"SEEK offset=x", "ERROR: offset must be an integer"},
		{"SEEK offset=0 whence=middle", "ERROR: whence must be one of set, cur, end"},
		{"SEEK", "ERROR: missing offset parameter"},
	}

	for _, tt := range tests {
		if resp := ch.HandleCommand(tt.cmd, ctx); !strings.HasPrefix(resp, tt.want) {
			t.Errorf("%s: got %q, want prefix %q", tt.cmd, resp, tt.want)
		}
	}
}

func TestHandleCommand_SeekTo(t *testing.T) {
	ch, ctx := newSession(t, 3)
	for _, w := range []string{"ab", "cde", "fg", "h"} {
		ch.HandleCommand("WRITE message="+w, ctx)
	}

	if resp := ch.HandleCommand("SEEKTO cmd=1 offset=1", ctx); resp != "OK position=5" {
		t.Fatalf("unexpected SEEKTO response %q", resp)
	}
	if resp := ch.HandleCommand("READ", ctx); resp != "g\nh\n" {
		t.Fatalf("unexpected READ after SEEKTO %q", resp)
	}

	if resp := ch.HandleCommand("AESDCHAR_IOCSEEKTO:0,2", ctx); resp != "OK position=2" {
		t.Fatalf("unexpected seek-to packet response %q", resp)
	}
	if resp := ch.HandleCommand("SEEKTO cmd=3 offset=0", ctx); !strings.HasPrefix(resp, "ERROR: no byte 0 in retained write 3") {
		t.Fatalf("expected out of range error, got %q", resp)
	}
	if resp := ch.HandleCommand("SEEKTO cmd=a", ctx); !strings.HasPrefix(resp, "ERROR: invalid SEEKTO syntax") {
		t.Fatalf("expected syntax error, got %q", resp)
	}
	if resp := ch.HandleCommand("AESDCHAR_IOCSEEKTO:nope", ctx); !strings.HasPrefix(resp, "ERROR") {
		t.Fatalf("expected parse error, got %q", resp)
	}
}

func TestHandleCommand_StatsHelpUnknown(t *testing.T) {
	ch, ctx := newSession(t, 2)
	ch.HandleCommand("WRITE message=x", ctx)

	if resp := ch.HandleCommand("STATS", ctx); resp != "records=1/2 bytes=2 full=false pending=0 handles=1" {
		t.Fatalf("unexpected STATS %q", resp)
	}
	if resp := ch.HandleCommand("help", ctx); !strings.Contains(resp, "SEEKTO") {
		t.Fatalf("HELP does not describe SEEKTO: %q", resp)
	}
	if resp := ch.HandleCommand("FROB", ctx); !strings.HasPrefix(resp, "ERROR: unknown command") {
		t.Fatalf("unexpected response to unknown command %q", resp)
	}
	if resp := ch.HandleCommand("   ", ctx); resp != "ERROR: empty command" {
		t.Fatalf("unexpected response to empty command %q", resp)
	}
}

func TestParseSeekTo(t *testing.T) {
	tests := []struct {
		in      string
		want    controller.SeekTo
		wantErr bool
	}{
		{"AESDCHAR_IOCSEEKTO:1,2\n", controller.SeekTo{WriteCmd: 1, WriteCmdOffset: 2}, false},
		{"AESDCHAR_IOCSEEKTO: 0 , 10", controller.SeekTo{WriteCmd: 0, WriteCmdOffset: 10}, false},
		{"AESDCHAR_IOCSEEKTO:1", controller.SeekTo{}, true},
		{"AESDCHAR_IOCSEEKTO:-1,2", controller.SeekTo{}, true},
		{"AESDCHAR_IOCSEEKTO:1,x", controller.SeekTo{}, true},
		{"SEEKTO:1,2", controller.SeekTo{}, true},
	}

	for _, tt := range tests {
		got, err := controller.ParseSeekTo(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSeekTo(%q) err=%v, wantErr=%v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSeekTo(%q) = %+v; want %+v", tt.in, got, tt.want)
		}
	}

	if !controller.IsSeekTo([]byte("AESDCHAR_IOCSEEKTO:1,1\n")) || controller.IsSeekTo([]byte("hello\n")) {
		t.Fatalf("IsSeekTo misclassified packets")
	}
}
