package kwire

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"
)

// timedConn is a deadline-bounded byte channel to a single broker, hiding the
// difference between plaintext and TLS connections behind one
// blocking-with-deadline contract. Every ReadFull and Write arms a fresh
// deadline for that call, and expiry surfaces as the matching typed error.
// Retrying across a timeout is the caller's business; timedConn never does.
type timedConn struct {
	conn net.Conn

	readTimeout  time.Duration
	writeTimeout time.Duration

	closed int32
}

// dialTimedConn resolves and connects to addr under conf.Net.DialTimeout.
// When TLS is enabled, the handshake itself runs under the same deadline:
// unlike plain TCP, a completed handshake cannot be inferred from
// connectedness alone, so the deadline has to cover the handshake I/O too.
func dialTimedConn(addr string, conf *Config) (*timedConn, error) {
	dialer := conf.getDialer()

	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, mapTimeout(err, ErrConnectTimeout)
	}

	if conf.Net.TLS.Enable {
		tlsConn := tls.Client(conn, validServerNameTLS(addr, conf.Net.TLS.Config))
		if err := tlsConn.SetDeadline(time.Now().Add(conf.Net.DialTimeout)); err != nil {
			_ = conn.Close()
			return nil, err
		}
		if err := tlsConn.Handshake(); err != nil {
			_ = conn.Close()
			return nil, mapTimeout(err, ErrConnectTimeout)
		}
		if err := tlsConn.SetDeadline(time.Time{}); err != nil {
			_ = tlsConn.Close()
			return nil, err
		}
		conn = tlsConn
	}

	return &timedConn{
		conn:         conn,
		readTimeout:  conf.Net.ReadTimeout,
		writeTimeout: conf.Net.WriteTimeout,
	}, nil
}

// ReadFull reads exactly len(buf) bytes, accumulating partial reads, or fails
// with ErrReadTimeout once this call's deadline expires. The TLS layer handles
// any write-readiness it needs during renegotiation beneath the same deadline.
func (tc *timedConn) ReadFull(buf []byte) (int, error) {
	if err := tc.conn.SetReadDeadline(time.Now().Add(tc.readTimeout)); err != nil {
		return 0, err
	}

	n, err := io.ReadFull(tc.conn, buf)
	return n, mapTimeout(err, ErrReadTimeout)
}

// Write delivers the whole buffer in order; the net layer resubmits the
// unwritten suffix after partial writes. Fails with ErrWriteTimeout once this
// call's deadline expires.
func (tc *timedConn) Write(buf []byte) (int, error) {
	if err := tc.conn.SetWriteDeadline(time.Now().Add(tc.writeTimeout)); err != nil {
		return 0, err
	}

	n, err := tc.conn.Write(buf)
	return n, mapTimeout(err, ErrWriteTimeout)
}

// Close releases the connection and, for TLS, the encryption layer with it.
// It is safe to call more than once.
func (tc *timedConn) Close() error {
	if !atomic.CompareAndSwapInt32(&tc.closed, 0, 1) {
		return nil
	}
	return tc.conn.Close()
}

func (tc *timedConn) LocalAddr() net.Addr {
	return tc.conn.LocalAddr()
}

func (tc *timedConn) RemoteAddr() net.Addr {
	return tc.conn.RemoteAddr()
}

// mapTimeout rewrites deadline-expiry errors to the typed sentinel for the
// operation in progress, leaving every other failure untouched.
func mapTimeout(err error, sentinel error) error {
	if err == nil {
		return nil
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return sentinel
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return sentinel
	}

	return err
}

// validServerNameTLS returns a TLS config with a ServerName derived from the
// broker address when the supplied config (which may be nil) lacks one.
func validServerNameTLS(addr string, cfg *tls.Config) *tls.Config {
	if cfg == nil {
		cfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}
	if cfg.ServerName != "" {
		return cfg
	}

	c := cfg.Clone()
	sn, _, err := net.SplitHostPort(addr)
	if err != nil {
		Logger.Println(fmt.Errorf("failed to get ServerName from addr: %w", err))
	}
	c.ServerName = sn
	return c
}
