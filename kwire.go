/*
Package kwire implements the transport and wire-protocol core of a client for
Apache Kafka: the binary encoding and decoding of broker requests and
responses, a deadline-bounded socket to exchange them over (plaintext or TLS),
a per-node broker registry, and the round-robin partition assignor used during
consumer-group rebalances.

The core of the package is the Broker. It represents a connection to a single
Kafka broker and has one typed method per request it knows how to send, for
example:

	broker := kwire.NewBroker("localhost:9092")
	err := broker.Open(nil)
	if err != nil {
		return err
	}

	request := kwire.MetadataRequest{Topics: []string{"myTopic"}}
	response, err := broker.GetMetadata(&request)

	// do things with response

	broker.Close()

A Broker performs strictly sequential request/response exchanges; it does not
pipeline. Use one Broker (and one goroutine) per node, or independent Brokers
for concurrent requests to the same node. A BrokerPool keeps the Brokers of a
session keyed by node id.

Wire-level details follow the protocol guide published by the Kafka project.
*/
package kwire

import (
	"io"
	"log"
)

var (
	// Logger is the instance of a StdLogger interface that kwire writes
	// connection management events to. By default it is set to discard all log
	// messages, but you can set it to redirect wherever you want.
	Logger StdLogger = log.New(io.Discard, "[kwire] ", log.LstdFlags)

	// DebugLogger is the instance of a StdLogger interface that kwire writes
	// more verbose debug information to. By default it is set to redirect to
	// Logger.
	DebugLogger StdLogger = &debugLogger{}

	// PanicHandler is called for recovering from panics spawned internally to
	// the library (and spawned goroutines in particular). Defaults to nil,
	// which means panics are not recovered.
	PanicHandler func(interface{})

	// MaxRequestSize is the maximum size (in bytes) of any request that kwire
	// will attempt to send. Trying to send a request larger than this will
	// result in a PacketEncodingError.
	MaxRequestSize int32 = 100 * 1024 * 1024

	// MaxResponseSize is the maximum size (in bytes) of any response that
	// kwire will attempt to parse. If a broker returns a response of larger
	// size, decoding fails with a PacketDecodingError.
	MaxResponseSize int32 = 100 * 1024 * 1024
)

// StdLogger is used to log error messages.
type StdLogger interface {
	Print(v ...interface{})
	Printf(format string, v ...interface{})
	Println(v ...interface{})
}

type debugLogger struct{}

func (d *debugLogger) Print(v ...interface{}) {
	Logger.Print(v...)
}

func (d *debugLogger) Printf(format string, v ...interface{}) {
	Logger.Printf(format, v...)
}

func (d *debugLogger) Println(v ...interface{}) {
	Logger.Println(v...)
}
