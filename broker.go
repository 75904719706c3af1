package kwire

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Broker represents a single Kafka broker connection, identified by node id.
// It performs strictly sequential request/response exchanges: only one request
// is in flight at a time and there is no pipelining. Use independent Broker
// instances for concurrent requests to the same node.
type Broker struct {
	conf *Config

	id   int32
	addr string

	conn          *timedConn
	connErr       error
	lock          sync.Mutex
	opened        int32
	correlationID int32

	incomingByteRate metrics.Meter
	requestRate      metrics.Meter
	requestSize      metrics.Histogram
	requestLatency   metrics.Histogram
	outgoingByteRate metrics.Meter
	responseRate     metrics.Meter
	responseSize     metrics.Histogram

	brokerIncomingByteRate metrics.Meter
	brokerRequestRate      metrics.Meter
	brokerRequestSize      metrics.Histogram
	brokerRequestLatency   metrics.Histogram
	brokerOutgoingByteRate metrics.Meter
	brokerResponseRate     metrics.Meter
	brokerResponseSize     metrics.Histogram
}

// NewBroker creates and returns a Broker targeting the given host:port
// address. This does not attempt to actually connect, you have to call Open()
// for that. A broker created this way has no node id yet (-1); registering one
// in a BrokerPool is what binds it to an id. Bootstrap connections stay
// anonymous and are never registered.
func NewBroker(addr string) *Broker {
	return &Broker{id: -1, addr: addr}
}

// Open dials the broker. Unlike some clients this is fully synchronous: when
// it returns nil the connection is established, TLS handshake included. The
// dial and handshake run under conf.Net.DialTimeout and fail with
// ErrConnectTimeout once it elapses. If conf is nil, the result of NewConfig()
// is used.
func (b *Broker) Open(conf *Config) error {
	if !atomic.CompareAndSwapInt32(&b.opened, 0, 1) {
		return ErrAlreadyConnected
	}

	if conf == nil {
		conf = NewConfig()
	}

	err := conf.Validate()
	if err != nil {
		atomic.StoreInt32(&b.opened, 0)
		return err
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.conn, b.connErr = dialTimedConn(b.addr, conf)
	if b.connErr != nil {
		Logger.Printf("Failed to connect to broker %s: %s\n", b.addr, b.connErr)
		b.conn = nil
		atomic.StoreInt32(&b.opened, 0)
		return b.connErr
	}

	b.conf = conf

	// Create or reuse the global metrics shared between brokers
	b.incomingByteRate = metrics.GetOrRegisterMeter("incoming-byte-rate", conf.MetricRegistry)
	b.requestRate = metrics.GetOrRegisterMeter("request-rate", conf.MetricRegistry)
	b.requestSize = getOrRegisterHistogram("request-size", conf.MetricRegistry)
	b.requestLatency = getOrRegisterHistogram("request-latency-in-ms", conf.MetricRegistry)
	b.outgoingByteRate = metrics.GetOrRegisterMeter("outgoing-byte-rate", conf.MetricRegistry)
	b.responseRate = metrics.GetOrRegisterMeter("response-rate", conf.MetricRegistry)
	b.responseSize = getOrRegisterHistogram("response-size", conf.MetricRegistry)

	// Do not gather metrics for seeded brokers (only used during bootstrap)
	// because they share the same id (-1) and are already exposed through the
	// global metrics above
	if b.id >= 0 {
		b.registerMetrics()
	}

	if b.id >= 0 {
		DebugLogger.Printf("Connected to broker at %s (registered as #%d)\n", b.addr, b.id)
	} else {
		DebugLogger.Printf("Connected to broker at %s (unregistered)\n", b.addr)
	}

	return nil
}

// Connected returns true if the broker is connected and false otherwise. If
// the broker is not connected but it had tried to connect, the error from that
// connection attempt is also returned.
func (b *Broker) Connected() (bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.conn != nil, b.connErr
}

// Close releases the broker's connection and unregisters its metrics.
func (b *Broker) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.conn == nil {
		return ErrNotConnected
	}

	err := b.conn.Close()

	b.conn = nil
	b.connErr = nil

	b.unregisterMetrics()

	if err == nil {
		DebugLogger.Printf("Closed connection to broker %s\n", b.addr)
	} else {
		Logger.Printf("Error while closing connection to broker %s: %s\n", b.addr, err)
	}

	atomic.StoreInt32(&b.opened, 0)

	return err
}

// ID returns the broker ID retrieved from Kafka's metadata, or -1 if that is
// not known.
func (b *Broker) ID() int32 {
	return b.id
}

// Addr returns the broker address as either retrieved from Kafka's metadata or
// passed to NewBroker.
func (b *Broker) Addr() string {
	return b.addr
}

// GetMetadata sends a metadata request and returns the cluster's view of the
// requested topics.
func (b *Broker) GetMetadata(request *MetadataRequest) (*MetadataResponse, error) {
	response := new(MetadataResponse)

	err := b.sendAndReceive(request, response)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// FetchOffset sends an offset fetch request and returns the group's committed
// offsets.
func (b *Broker) FetchOffset(request *OffsetFetchRequest) (*OffsetFetchResponse, error) {
	response := new(OffsetFetchResponse)

	err := b.sendAndReceive(request, response)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// SyncGroup sends a sync group request and returns the assignment the
// coordinator hands back to this member.
func (b *Broker) SyncGroup(request *SyncGroupRequest) (*SyncGroupResponse, error) {
	response := new(SyncGroupResponse)

	err := b.sendAndReceive(request, response)
	if err != nil {
		return nil, err
	}

	return response, nil
}

// sendAndReceive performs one synchronous exchange: frame and write the
// request, then read the length-prefixed response and decode it into the type
// the caller declared. The correlation id the broker echoes must match the one
// sent or the exchange fails with a PacketDecodingError.
func (b *Broker) sendAndReceive(req protocolBody, res decoder) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.conn == nil {
		if b.connErr != nil {
			return b.connErr
		}
		return ErrNotConnected
	}

	fullRequest := &request{correlationID: b.correlationID, clientID: b.conf.ClientID, body: req}
	buf, err := encode(fullRequest, b.conf.MetricRegistry)
	if err != nil {
		return err
	}

	requestTime := time.Now()
	bytesWritten, err := b.conn.Write(buf)
	b.updateOutgoingCommunicationMetrics(bytesWritten)
	if err != nil {
		return err
	}
	b.correlationID++

	header := make([]byte, 8)
	bytesRead, err := b.conn.ReadFull(header)
	if err != nil {
		b.updateIncomingCommunicationMetrics(bytesRead, time.Since(requestTime))
		return err
	}

	decodedHeader := responseHeader{}
	err = decode(header, &decodedHeader)
	if err != nil {
		b.updateIncomingCommunicationMetrics(bytesRead, time.Since(requestTime))
		return err
	}

	if decodedHeader.correlationID != fullRequest.correlationID {
		b.updateIncomingCommunicationMetrics(bytesRead, time.Since(requestTime))
		return PacketDecodingError{fmt.Sprintf("correlation ID didn't match, wanted %d, got %d", fullRequest.correlationID, decodedHeader.correlationID)}
	}

	payload := make([]byte, decodedHeader.length-4)
	bytesReadBody, err := b.conn.ReadFull(payload)
	b.updateIncomingCommunicationMetrics(bytesRead+bytesReadBody, time.Since(requestTime))
	if err != nil {
		return err
	}

	return decode(payload, res)
}

func (b *Broker) decode(pd packetDecoder) (err error) {
	b.id, err = pd.getInt32()
	if err != nil {
		return err
	}

	host, err := pd.getString()
	if err != nil {
		return err
	}

	port, err := pd.getInt32()
	if err != nil {
		return err
	}

	b.addr = net.JoinHostPort(host, fmt.Sprint(port))
	if _, _, err := net.SplitHostPort(b.addr); err != nil {
		return err
	}

	return nil
}

func (b *Broker) encode(pe packetEncoder) (err error) {
	host, portstr, err := net.SplitHostPort(b.addr)
	if err != nil {
		return err
	}

	port, err := strconv.ParseInt(portstr, 10, 32)
	if err != nil {
		return err
	}

	pe.putInt32(b.id)

	err = pe.putString(host)
	if err != nil {
		return err
	}

	pe.putInt32(int32(port))

	return nil
}

func (b *Broker) updateIncomingCommunicationMetrics(bytes int, requestLatency time.Duration) {
	b.responseRate.Mark(1)
	if b.brokerResponseRate != nil {
		b.brokerResponseRate.Mark(1)
	}

	requestLatencyInMs := int64(requestLatency / time.Millisecond)
	b.requestLatency.Update(requestLatencyInMs)
	if b.brokerRequestLatency != nil {
		b.brokerRequestLatency.Update(requestLatencyInMs)
	}

	responseSize := int64(bytes)
	b.incomingByteRate.Mark(responseSize)
	if b.brokerIncomingByteRate != nil {
		b.brokerIncomingByteRate.Mark(responseSize)
	}
	b.responseSize.Update(responseSize)
	if b.brokerResponseSize != nil {
		b.brokerResponseSize.Update(responseSize)
	}
}

func (b *Broker) updateOutgoingCommunicationMetrics(bytes int) {
	b.requestRate.Mark(1)
	if b.brokerRequestRate != nil {
		b.brokerRequestRate.Mark(1)
	}

	requestSize := int64(bytes)
	b.outgoingByteRate.Mark(requestSize)
	if b.brokerOutgoingByteRate != nil {
		b.brokerOutgoingByteRate.Mark(requestSize)
	}
	b.requestSize.Update(requestSize)
	if b.brokerRequestSize != nil {
		b.brokerRequestSize.Update(requestSize)
	}
}

func (b *Broker) registerMetrics() {
	b.brokerIncomingByteRate = getOrRegisterBrokerMeter("incoming-byte-rate", b, b.conf.MetricRegistry)
	b.brokerRequestRate = getOrRegisterBrokerMeter("request-rate", b, b.conf.MetricRegistry)
	b.brokerRequestSize = getOrRegisterBrokerHistogram("request-size", b, b.conf.MetricRegistry)
	b.brokerRequestLatency = getOrRegisterBrokerHistogram("request-latency-in-ms", b, b.conf.MetricRegistry)
	b.brokerOutgoingByteRate = getOrRegisterBrokerMeter("outgoing-byte-rate", b, b.conf.MetricRegistry)
	b.brokerResponseRate = getOrRegisterBrokerMeter("response-rate", b, b.conf.MetricRegistry)
	b.brokerResponseSize = getOrRegisterBrokerHistogram("response-size", b, b.conf.MetricRegistry)
}

func (b *Broker) unregisterMetrics() {
	for _, name := range []string{
		"incoming-byte-rate",
		"request-rate",
		"request-size",
		"request-latency-in-ms",
		"outgoing-byte-rate",
		"response-rate",
		"response-size",
	} {
		b.conf.MetricRegistry.Unregister(getMetricNameForBroker(name, b))
	}

	b.brokerIncomingByteRate = nil
	b.brokerRequestRate = nil
	b.brokerRequestSize = nil
	b.brokerRequestLatency = nil
	b.brokerOutgoingByteRate = nil
	b.brokerResponseRate = nil
	b.brokerResponseSize = nil
}
