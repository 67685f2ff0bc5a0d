// G-code command link to a Marlin firmware
//
// One command is in flight at a time. A reader goroutine splits the
// firmware output into lines; Command collects them until "ok".
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package marlin

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"time"

	"babystep-go/pkg/errors"
	"babystep-go/pkg/log"
	"babystep-go/pkg/serial"
)

// DefaultCommandTimeout bounds how long Command waits for "ok".
const DefaultCommandTimeout = 5 * time.Second

// Link sends G-code lines and gathers their replies.
type Link struct {
	rw      io.ReadWriter
	timeout time.Duration
	log     *log.Logger

	mu    sync.Mutex // one command in flight
	lines chan string
	done  chan struct{}
	quit  chan struct{}

	errMu   sync.Mutex
	readErr error

	closeOnce sync.Once
}

// LinkOption configures a Link.
type LinkOption func(*Link)

// WithCommandTimeout overrides DefaultCommandTimeout.
func WithCommandTimeout(d time.Duration) LinkOption {
	return func(l *Link) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithLinkLogger sets the link logger.
func WithLinkLogger(logger *log.Logger) LinkOption {
	return func(l *Link) { l.log = logger }
}

// NewLink starts reading from rw. rw is closed by Close when it is an
// io.Closer.
func NewLink(rw io.ReadWriter, opts ...LinkOption) *Link {
	l := &Link{
		rw:      rw,
		timeout: DefaultCommandTimeout,
		log:     log.GetLogger("marlin"),
		lines:   make(chan string, 64),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	go l.readLoop()
	return l
}

func (l *Link) readLoop() {
	defer close(l.done)
	buf := make([]byte, 256)
	var partial []byte
	for {
		n, err := l.rw.Read(buf)
		if n > 0 {
			partial = append(partial, buf[:n]...)
			for {
				idx := bytes.IndexByte(partial, '\n')
				if idx < 0 {
					break
				}
				line := strings.TrimRight(string(partial[:idx]), "\r")
				partial = partial[idx+1:]
				if line == "" {
					continue
				}
				l.log.Debug("<- %s", line)
				select {
				case l.lines <- line:
				case <-l.quit:
					return
				}
			}
		}
		if err != nil {
			if stderrors.Is(err, serial.ErrTimeout) {
				continue
			}
			l.errMu.Lock()
			l.readErr = err
			l.errMu.Unlock()
			return
		}
	}
}

func (l *Link) failure() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if l.readErr == nil {
		return io.EOF
	}
	return l.readErr
}

// Command sends one G-code line and returns the reply lines preceding "ok".
func (l *Link) Command(cmd string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()
	return l.CommandContext(ctx, cmd)
}

// CommandContext is Command bounded by ctx instead of the link timeout.
func (l *Link) CommandContext(ctx context.Context, cmd string) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.drain()

	l.log.Debug("-> %s", cmd)
	if _, err := io.WriteString(l.rw, cmd+"\n"); err != nil {
		return nil, errors.TransportError("write "+cmd, err)
	}

	var reply []string
	var replyErr string
	for {
		select {
		case <-ctx.Done():
			return reply, errors.TransportError("wait ok for "+cmd, ctx.Err())
		case <-l.done:
			// Lines read before the failure are still buffered.
			if ok, err := l.consumeBuffered(cmd, &reply, &replyErr); ok {
				return reply, err
			}
			return reply, errors.TransportError("read reply for "+cmd, l.failure())
		case line := <-l.lines:
			if ok, err := l.handleLine(cmd, line, &reply, &replyErr); ok {
				return reply, err
			}
		}
	}
}

func (l *Link) consumeBuffered(cmd string, reply *[]string, replyErr *string) (bool, error) {
	for {
		select {
		case line := <-l.lines:
			if ok, err := l.handleLine(cmd, line, reply, replyErr); ok {
				return true, err
			}
		default:
			return false, nil
		}
	}
}

// handleLine reports true once the command completed.
func (l *Link) handleLine(cmd, line string, reply *[]string, replyErr *string) (bool, error) {
	switch {
	case line == "ok" || strings.HasPrefix(line, "ok "):
		if *replyErr != "" {
			return true, errors.TransportReplyError(cmd, *replyErr)
		}
		return true, nil
	case strings.HasPrefix(line, "echo:busy:"), line == "wait":
		// keepalive
	case strings.HasPrefix(line, "Error:"), strings.HasPrefix(line, "!!"):
		*replyErr = line
	case strings.HasPrefix(line, "echo:Unknown command"):
		*replyErr = line
	default:
		*reply = append(*reply, line)
	}
	return false, nil
}

// drain discards unsolicited output left over from earlier traffic.
func (l *Link) drain() {
	for {
		select {
		case line := <-l.lines:
			l.log.Debug("unsolicited: %s", line)
		default:
			return
		}
	}
}

// Close closes the underlying stream.
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.quit)
		if c, ok := l.rw.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

// Handshake sends M115 until the firmware answers or ctx is done, which
// covers the boot time after a DTR reset. It returns the M115 reply.
func (l *Link) Handshake(ctx context.Context) ([]string, error) {
	for {
		attempt, cancel := context.WithTimeout(ctx, l.timeout)
		lines, err := l.CommandContext(attempt, "M115")
		cancel()
		if err == nil {
			return lines, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		select {
		case <-l.done:
			return nil, err
		default:
		}
		l.log.Debug("handshake retry: %v", err)
	}
}
