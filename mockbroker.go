package kwire

import (
	"encoding/binary"
	"io"
	"net"
	"strconv"
	"time"
)

// TestState is a generic interface for a test state, implemented e.g. by
// testing.T
type TestState interface {
	Error(args ...interface{})
	Fatal(args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
}

// MockBroker is a mock Kafka broker. It consists of a TCP server on a
// kernel-selected localhost port that accepts a single connection. It reads
// Kafka requests from that connection and returns each response from the
// expectations provided at creation time.
//
// When running tests with one of these, it is strongly recommended to specify
// a timeout to `go test` so that if the broker hangs waiting for a response,
// the test panics.
//
// It is not necessary to prefix message length or correlation ID to your
// response bytes, the server does that automatically as a convenience.
type MockBroker struct {
	brokerID     int32
	port         int32
	stopper      chan bool
	expectations chan *BrokerExpectation
	listener     net.Listener
	t            TestState
}

type callback func()

// BrokerExpectation allows you to specify how the MockBroker will respond to
// a request it receives. See MockBroker's Expects method.
type BrokerExpectation struct {
	Before   callback      // Before is called after a request has been received, before sending the response
	Latency  time.Duration // Latency to wait before the response is sent
	Response encoder       // Response holds what will be sent back to the client

	// IgnoreConnectionErrors should be set to true if connectivity issues
	// while receiving the request or sending the response are to be expected,
	// e.g. because the client gives up on a slow response and closes the
	// connection.
	IgnoreConnectionErrors bool
}

// BrokerID returns the node id of the fake broker.
func (b *MockBroker) BrokerID() int32 {
	return b.brokerID
}

// Port is the kernel-selected TCP port the broker is listening on.
func (b *MockBroker) Port() int32 {
	return b.port
}

// Addr returns the host:port of the fake broker.
func (b *MockBroker) Addr() string {
	return b.listener.Addr().String()
}

// Expects queues an expectation for a single request/response exchange.
func (b *MockBroker) Expects(e *BrokerExpectation) {
	b.expectations <- e
}

// Returns queues an expectation responding with the given body and no frills.
func (b *MockBroker) Returns(body encoder) {
	b.Expects(&BrokerExpectation{Response: body})
}

// Close checks that all expectations were satisfied, then shuts the fake
// broker down.
func (b *MockBroker) Close() {
	if len(b.expectations) > 0 {
		b.t.Errorf("Not all expectations were satisfied in mock broker with ID=%d! Still waiting on %d requests.",
			b.BrokerID(), len(b.expectations))
	}
	close(b.expectations)
	<-b.stopper
}

func (b *MockBroker) serverLoop() {
	defer close(b.stopper)

	conn, err := b.listener.Accept()
	if err != nil {
		b.serverError(err, conn, false)
		return
	}

	reqHeader := make([]byte, 4)
	resHeader := make([]byte, 8)
	for expectation := range b.expectations {
		if _, err = io.ReadFull(conn, reqHeader); err != nil {
			b.serverError(err, conn, expectation.IgnoreConnectionErrors)
			return
		}

		body := make([]byte, binary.BigEndian.Uint32(reqHeader))
		if len(body) < 10 {
			b.serverError(PacketDecodingError{"request too short"}, conn, false)
			return
		}
		if _, err = io.ReadFull(conn, body); err != nil {
			b.serverError(err, conn, expectation.IgnoreConnectionErrors)
			return
		}

		if expectation.Before != nil {
			expectation.Before()
		}

		if expectation.Latency > 0 {
			time.Sleep(expectation.Latency)
		}

		response, err := encode(expectation.Response, nil)
		if err != nil {
			b.t.Error(err)
			continue
		}
		if len(response) == 0 {
			continue
		}

		binary.BigEndian.PutUint32(resHeader, uint32(len(response)+4))
		binary.BigEndian.PutUint32(resHeader[4:], binary.BigEndian.Uint32(body[4:]))
		if _, err = conn.Write(resHeader); err != nil {
			b.serverError(err, conn, expectation.IgnoreConnectionErrors)
			return
		}
		if _, err = conn.Write(response); err != nil {
			b.serverError(err, conn, expectation.IgnoreConnectionErrors)
			return
		}
	}

	if err = conn.Close(); err != nil {
		b.serverError(err, nil, false)
		return
	}
	if err = b.listener.Close(); err != nil {
		b.t.Error(err)
	}
}

func (b *MockBroker) serverError(err error, conn net.Conn, ignore bool) {
	if !ignore {
		b.t.Error(err)
	}
	if conn != nil {
		_ = conn.Close()
	}
	_ = b.listener.Close()
}

// NewMockBroker launches a fake Kafka broker. It takes a TestState (e.g. a
// *testing.T) and a node id, and returns a broker listening on a
// kernel-selected localhost port. If an error occurs it is simply logged to
// the TestState and the broker exits.
func NewMockBroker(t TestState, brokerID int32) *MockBroker {
	var err error

	broker := &MockBroker{
		stopper:      make(chan bool),
		t:            t,
		brokerID:     brokerID,
		expectations: make(chan *BrokerExpectation, 512),
	}

	broker.listener, err = net.Listen("tcp", "localhost:0")
	if err != nil {
		t.Fatal(err)
	}
	_, portStr, err := net.SplitHostPort(broker.listener.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	tmp, err := strconv.ParseInt(portStr, 10, 32)
	if err != nil {
		t.Fatal(err)
	}
	broker.port = int32(tmp)

	go withRecover(broker.serverLoop)

	return broker
}
