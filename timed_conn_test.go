package kwire

import (
	"io"
	"math/rand"
	"net"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/require"
)

// silentListener accepts connections and holds them open without ever
// reading or writing. Server goroutines exit when the test closes it.
func silentListener(t *testing.T) (net.Listener, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				<-done
				_ = conn.Close()
			}()
		}
	}()

	return ln, func() {
		close(done)
		_ = ln.Close()
	}
}

func testConnConfig() *Config {
	conf := NewConfig()
	conf.Net.DialTimeout = 200 * time.Millisecond
	conf.Net.ReadTimeout = 100 * time.Millisecond
	conf.Net.WriteTimeout = 200 * time.Millisecond
	return conf
}

func TestTimedConnReadTimeout(t *testing.T) {
	defer leaktest.Check(t)()

	ln, stop := silentListener(t)
	defer stop()

	tc, err := dialTimedConn(ln.Addr().String(), testConnConfig())
	require.NoError(t, err)
	defer tc.Close()

	start := time.Now()
	_, err = tc.ReadFull(make([]byte, 4))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrReadTimeout)
	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	require.Less(t, elapsed, 2*time.Second)
}

func TestTimedConnDeadlineRearmsPerCall(t *testing.T) {
	defer leaktest.Check(t)()

	ln, stop := silentListener(t)
	defer stop()

	tc, err := dialTimedConn(ln.Addr().String(), testConnConfig())
	require.NoError(t, err)
	defer tc.Close()

	// each call gets its own full window, an expiry does not poison the next
	_, err = tc.ReadFull(make([]byte, 1))
	require.ErrorIs(t, err, ErrReadTimeout)

	start := time.Now()
	_, err = tc.ReadFull(make([]byte, 1))
	require.ErrorIs(t, err, ErrReadTimeout)
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestTimedConnWriteTimeout(t *testing.T) {
	defer leaktest.Check(t)()

	ln, stop := silentListener(t)
	defer stop()

	tc, err := dialTimedConn(ln.Addr().String(), testConnConfig())
	require.NoError(t, err)
	defer tc.Close()

	// the peer never reads, so a large enough write has to stall on a full
	// send buffer until the deadline expires
	payload := make([]byte, 64*1024*1024)
	_, err = tc.Write(payload)
	require.ErrorIs(t, err, ErrWriteTimeout)
}

func TestTimedConnWriteDelivery(t *testing.T) {
	defer leaktest.Check(t)()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	payload := make([]byte, 1024*1024)
	_, err = rand.New(rand.NewSource(1)).Read(payload)
	require.NoError(t, err)

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf, _ := io.ReadAll(conn)
		received <- buf
	}()

	conf := testConnConfig()
	conf.Net.WriteTimeout = 10 * time.Second
	tc, err := dialTimedConn(ln.Addr().String(), conf)
	require.NoError(t, err)

	n, err := tc.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.NoError(t, tc.Close())

	select {
	case buf := <-received:
		require.Equal(t, payload, buf)
	case <-time.After(10 * time.Second):
		t.Fatal("server never saw the payload")
	}
}

func TestTimedConnTLSHandshakeTimeout(t *testing.T) {
	defer leaktest.Check(t)()

	// the listener accepts TCP but never answers the ClientHello, so only
	// the handshake deadline can get us out
	ln, stop := silentListener(t)
	defer stop()

	conf := testConnConfig()
	conf.Net.TLS.Enable = true

	start := time.Now()
	_, err := dialTimedConn(ln.Addr().String(), conf)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrConnectTimeout)
	require.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	require.Less(t, elapsed, 5*time.Second)
}

func TestTimedConnConnectionRefused(t *testing.T) {
	defer leaktest.Check(t)()

	// grab a port that nothing listens on
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = dialTimedConn(addr, testConnConfig())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrConnectTimeout)
}

func TestTimedConnCloseIdempotent(t *testing.T) {
	defer leaktest.Check(t)()

	ln, stop := silentListener(t)
	defer stop()

	tc, err := dialTimedConn(ln.Addr().String(), testConnConfig())
	require.NoError(t, err)
	require.NotNil(t, tc.LocalAddr())
	require.Equal(t, ln.Addr().String(), tc.RemoteAddr().String())

	require.NoError(t, tc.Close())
	require.NoError(t, tc.Close())
}
