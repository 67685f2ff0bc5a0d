// TCP serial bridges
//
// ser2net, ESP3D telnet and similar bridges carry the printer's serial
// stream over TCP.
//
// Copyright (C) 2026  babystep-go authors
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serial

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"
)

// TCPPort is a serial stream carried over TCP.
type TCPPort struct {
	conn        net.Conn
	address     string
	mu          sync.Mutex
	readTimeout time.Duration
	closed      bool
}

// OpenTCP connects to a serial bridge at host:port. Refused connections
// are retried until timeout.
func OpenTCP(address string, timeout time.Duration) (*TCPPort, error) {
	if address == "" {
		return nil, errors.New("serial: TCP address required")
	}
	if _, _, err := net.SplitHostPort(address); err != nil {
		return nil, fmt.Errorf("serial: parse address %s: %w", address, err)
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.DialTimeout("tcp", address, time.Until(deadline))
		if err == nil {
			return &TCPPort{conn: conn, address: address, readTimeout: time.Second}, nil
		}
		if !errors.Is(err, syscall.ECONNREFUSED) || time.Now().After(deadline) {
			return nil, fmt.Errorf("serial: connect to %s: %w", address, err)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Read reads up to len(buf) bytes, returning ErrTimeout when nothing
// arrives within the read timeout.
func (p *TCPPort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return 0, ErrClosed
	}
	timeout := p.readTimeout
	p.mu.Unlock()

	if err := p.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, fmt.Errorf("serial: set deadline: %w", err)
	}
	n, err := p.conn.Read(buf)
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return n, ErrTimeout
	}
	return n, err
}

// Write writes buf to the bridge.
func (p *TCPPort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return 0, ErrClosed
	}
	n, err := p.conn.Write(buf)
	if err != nil {
		return n, fmt.Errorf("serial: write: %w", err)
	}
	return n, nil
}

// Close closes the connection.
func (p *TCPPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}

// Device returns the bridge address.
func (p *TCPPort) Device() string {
	return p.address
}

// SetReadTimeout sets the read timeout.
func (p *TCPPort) SetReadTimeout(d time.Duration) {
	p.mu.Lock()
	p.readTimeout = d
	p.mu.Unlock()
}

// Flush is a no-op: a TCP stream has no line buffers to discard.
func (p *TCPPort) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	return nil
}
