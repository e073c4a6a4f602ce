// SPDX-License-Identifier: MIT
package metrics

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"syscall"

	applog "spettro/internal/log"
)

// Sender handles sending data packets over a UDP connection. It uses a
// "connected" UDP socket (via net.DialUDP) since the destination
// address is fixed upon creation, and it conditionally logs common
// network errors like "connection refused" to avoid log spam.
type Sender struct {
	conn       *net.UDPConn
	targetAddr *net.UDPAddr
	mu         sync.Mutex
	closed     bool
	debug      bool
}

// NewSender resolves targetAddress and establishes a connected UDP
// socket. debug controls whether transient "connection refused" errors
// are logged at Debug level or suppressed during Send.
func NewSender(targetAddress string, debug bool) (*Sender, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", targetAddress)
	if err != nil {
		return nil, fmt.Errorf("resolve UDP target address %q: %w", targetAddress, err)
	}

	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, fmt.Errorf("dial UDP for target %q: %w", targetAddress, err)
	}
	applog.Infof("metrics: sender connected to %s", conn.RemoteAddr().String())

	return &Sender{conn: conn, targetAddr: udpAddr, debug: debug}, nil
}

// Send transmits data as a single UDP packet to the configured target.
func (s *Sender) Send(data []byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("metrics: sender is closed")
	}
	_, err := s.conn.Write(data)
	s.mu.Unlock()

	if err != nil {
		if s.debug || !isConnRefused(err) {
			applog.Debugf("metrics: send error: %v", err)
		}
		return fmt.Errorf("send UDP packet: %w", err)
	}
	return nil
}

func isConnRefused(err error) bool {
	var opErr *net.OpError
	if !errors.As(err, &opErr) {
		return false
	}
	var sysErr *os.SyscallError
	if errors.As(opErr.Err, &sysErr) && errors.Is(sysErr.Err, syscall.ECONNREFUSED) {
		return true
	}
	return strings.Contains(opErr.Err.Error(), "connection refused")
}

// Close closes the underlying UDP connection. Safe to call more than once.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return fmt.Errorf("close UDP connection: %w", err)
	}
	return nil
}

var _ interface{ Close() error } = (*Sender)(nil)
