package server

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/downfa11-org/aesdchar/pkg/accumulator"
	"github.com/downfa11-org/aesdchar/pkg/config"
	"github.com/downfa11-org/aesdchar/pkg/controller"
	"github.com/downfa11-org/aesdchar/pkg/device"
	"github.com/downfa11-org/aesdchar/pkg/metrics"
	"github.com/downfa11-org/aesdchar/util"
	"github.com/google/uuid"
)

// Server accepts clients on a TCP port and appends every packet they send
// to the device, answering with the retained log contents.
type Server struct {
	cfg *config.Config
	dev *device.Device
}

func NewServer(cfg *config.Config, dev *device.Device) *Server {
	return &Server{cfg: cfg, dev: dev}
}

// RunServer listens on the configured port with optional TLS and serves
// until ctx is cancelled.
func (s *Server) RunServer(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	lc := listenConfig(s.cfg.ReuseAddr)
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	if s.cfg.UseTLS {
		ln = tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{s.cfg.TLSCert}})
	}

	util.Info("aesdsocket listening on %s (TLS=%v, workers=%d)", addr, s.cfg.UseTLS, s.cfg.Workers)
	return s.Serve(ctx, ln)
}

// Serve accepts connections from ln and hands them to a fixed worker pool.
// It closes ln when ctx is cancelled and returns after every in-flight
// connection has finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}

	workerCh := make(chan net.Conn, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for conn := range workerCh {
				s.HandleConnection(ctx, conn)
			}
		}()
	}

	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var serveErr error
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				util.Warn("Accept error: %v", err)
				time.Sleep(10 * time.Millisecond)
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			serveErr = err
			break
		}
		metrics.ConnectionsTotal.Inc()
		workerCh <- conn
	}

	close(workerCh)
	wg.Wait()
	util.Info("aesdsocket stopped accepting connections")
	return serveErr
}

// HandleConnection serves one client until it disconnects, goes idle past
// the configured timeout or ctx is cancelled.
func (s *Server) HandleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	metrics.ActiveConnections.Inc()
	defer metrics.ActiveConnections.Dec()

	connID := uuid.New().String()
	util.Info("Accepted connection from %s (%s)", conn.RemoteAddr(), connID)
	defer util.Info("Closed connection from %s (%s)", conn.RemoteAddr(), connID)

	h, err := s.dev.Open()
	if err != nil {
		util.Error("%s: open device: %v", connID, err)
		return
	}
	defer h.Close()

	chunk := s.cfg.ReadChunkSize
	if chunk < 16 {
		chunk = 16
	}
	terminator := s.cfg.TerminatorByte()
	reader := bufio.NewReaderSize(conn, chunk)
	buf := make([]byte, chunk)
	midPacket := false

	for {
		if s.cfg.ConnTimeout > 0 {
			conn.SetReadDeadline(time.Now().Add(s.cfg.ConnTimeout))
		}

		packet, err := reader.ReadSlice(terminator)
		switch {
		case err == nil:
			start := time.Now()
			kind, handleErr := s.handlePacket(conn, h, packet, midPacket, buf)
			midPacket = false
			if handleErr != nil {
				util.Warn("%s: %v", connID, handleErr)
				if isConnError(handleErr) {
					return
				}
			}
			metrics.PushPacket(kind, time.Since(start).Seconds())

		case errors.Is(err, bufio.ErrBufferFull):
			// packet longer than one chunk; the device accumulates it
			if _, werr := h.Write(packet); werr != nil {
				util.Warn("%s: write fragment: %v", connID, werr)
			}
			midPacket = true

		default:
			if len(packet) > 0 {
				if _, werr := h.Write(packet); werr != nil {
					util.Warn("%s: write trailing fragment: %v", connID, werr)
				}
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				util.Debug("%s: read error: %v", connID, err)
			}
			return
		}
	}
}

// handlePacket processes one terminator-delimited packet. A seek-to command
// is only recognised when it arrived whole.
func (s *Server) handlePacket(conn net.Conn, h *device.Handle, packet []byte, midPacket bool, buf []byte) (string, error) {
	if !midPacket && controller.IsSeekTo(packet) {
		st, err := controller.ParseSeekTo(string(packet))
		if err != nil {
			return "seekto", err
		}
		if err := h.SeekTo(st.WriteCmd, st.WriteCmdOffset); err != nil {
			return "seekto", err
		}
		return "seekto", sendFrom(conn, h, buf)
	}

	if _, err := h.Write(packet); err != nil {
		if !errors.Is(err, accumulator.ErrRecordTooLarge) {
			return "write", err
		}
		util.Warn("dropped oversized packet: %v", err)
	}
	if _, err := h.Seek(0, io.SeekStart); err != nil {
		return "write", err
	}
	return "write", sendFrom(conn, h, buf)
}

type connError struct{ err error }

func (e *connError) Error() string { return "send response: " + e.err.Error() }
func (e *connError) Unwrap() error { return e.err }

func isConnError(err error) bool {
	var ce *connError
	return errors.As(err, &ce)
}

// sendFrom streams the device from the handle position to its end.
func sendFrom(conn net.Conn, h *device.Handle, buf []byte) error {
	for {
		n, err := h.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return &connError{werr}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
