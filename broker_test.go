package kwire

import (
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

func testBrokerConfig() *Config {
	conf := NewConfig()
	conf.Net.DialTimeout = 5 * time.Second
	conf.Net.ReadTimeout = 5 * time.Second
	conf.Net.WriteTimeout = 5 * time.Second
	return conf
}

func TestBrokerAccessors(t *testing.T) {
	broker := NewBroker("abc:123")

	if broker.ID() != -1 {
		t.Error("New broker didn't have an ID of -1.")
	}
	if broker.Addr() != "abc:123" {
		t.Error("New broker didn't have the correct address")
	}

	broker.id = 34
	if broker.ID() != 34 {
		t.Error("Manually setting broker ID did not take effect.")
	}
}

func TestBrokerConnectionLifecycle(t *testing.T) {
	defer leaktest.Check(t)()

	mb := NewMockBroker(t, 0)
	defer mb.Close()

	broker := NewBroker(mb.Addr())

	ok, err := broker.Connected()
	require.False(t, ok)
	require.NoError(t, err)

	require.NoError(t, broker.Open(testBrokerConfig()))

	ok, err = broker.Connected()
	require.True(t, ok)
	require.NoError(t, err)

	// a second Open on a live broker must refuse, not redial
	require.ErrorIs(t, broker.Open(testBrokerConfig()), ErrAlreadyConnected)

	require.NoError(t, broker.Close())
	require.ErrorIs(t, broker.Close(), ErrNotConnected)
}

func TestBrokerOpenInvalidConfig(t *testing.T) {
	conf := NewConfig()
	conf.Net.DialTimeout = 0

	broker := NewBroker("localhost:0")
	err := broker.Open(conf)
	target := ConfigurationError("")
	require.ErrorAs(t, err, &target)

	// the failed Open must leave the broker reusable
	require.ErrorIs(t, broker.sendAndReceive(&MetadataRequest{}, &MetadataResponse{}), ErrNotConnected)
}

func TestSimpleBrokerCommunication(t *testing.T) {
	defer leaktest.Check(t)()

	assignment, err := encode(&ConsumerGroupMemberAssignment{
		Topics: map[string][]int32{"payments": {0, 2, 4}},
	}, nil)
	require.NoError(t, err)

	mb := NewMockBroker(t, 0)
	defer mb.Close()

	metadataResponse := new(MetadataResponse)
	metadataResponse.AddBroker(mb.Addr(), mb.BrokerID())
	metadataResponse.AddTopicPartition("payments", 0, 0, nil, nil, ErrNoError)
	mb.Returns(metadataResponse)

	offsetResponse := new(OffsetFetchResponse)
	offsetResponse.AddBlock("payments", 0, &OffsetFetchResponseBlock{Offset: 42, Metadata: "snapshot"})
	mb.Returns(offsetResponse)

	mb.Returns(&SyncGroupResponse{MemberAssignment: assignment})

	conf := testBrokerConfig()
	broker := NewBroker(mb.Addr())
	require.NoError(t, broker.Open(conf))
	defer broker.Close()

	metadata, err := broker.GetMetadata(&MetadataRequest{Topics: []string{"payments"}})
	require.NoError(t, err)
	require.Len(t, metadata.Brokers, 1)
	require.Equal(t, mb.Addr(), metadata.Brokers[0].Addr())
	require.Len(t, metadata.Topics, 1)
	require.Equal(t, "payments", metadata.Topics[0].Name)

	offsets, err := broker.FetchOffset(&OffsetFetchRequest{ConsumerGroup: "group"})
	require.NoError(t, err)
	block := offsets.GetBlock("payments", 0)
	require.NotNil(t, block)
	require.Equal(t, int64(42), block.Offset)
	require.Equal(t, "snapshot", block.Metadata)

	sync, err := broker.SyncGroup(&SyncGroupRequest{GroupID: "group", MemberID: "me"})
	require.NoError(t, err)
	require.Equal(t, ErrNoError, sync.Err)
	decoded, err := sync.GetMemberAssignment()
	require.NoError(t, err)
	require.Equal(t, []int32{0, 2, 4}, decoded.Topics["payments"])

	// every exchange shows up in the shared metrics
	require.Equal(t, int64(3), metrics.GetOrRegisterMeter("request-rate", conf.MetricRegistry).Count())
	require.Equal(t, int64(3), metrics.GetOrRegisterMeter("response-rate", conf.MetricRegistry).Count())
}

func TestBrokerCorrelationIDSequence(t *testing.T) {
	defer leaktest.Check(t)()

	mb := NewMockBroker(t, 0)
	defer mb.Close()
	mb.Returns(&MetadataResponse{})
	mb.Returns(&MetadataResponse{})

	broker := NewBroker(mb.Addr())
	require.NoError(t, broker.Open(testBrokerConfig()))
	defer broker.Close()

	_, err := broker.GetMetadata(&MetadataRequest{})
	require.NoError(t, err)
	_, err = broker.GetMetadata(&MetadataRequest{})
	require.NoError(t, err)
	require.Equal(t, int32(2), broker.correlationID)
}

func TestBrokerReadTimeout(t *testing.T) {
	defer leaktest.Check(t)()

	mb := NewMockBroker(t, 0)
	mb.Expects(&BrokerExpectation{
		Response:               &MetadataResponse{},
		Latency:                500 * time.Millisecond,
		IgnoreConnectionErrors: true,
	})

	conf := testBrokerConfig()
	conf.Net.ReadTimeout = 100 * time.Millisecond

	broker := NewBroker(mb.Addr())
	require.NoError(t, broker.Open(conf))

	start := time.Now()
	_, err := broker.GetMetadata(&MetadataRequest{})
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrReadTimeout)
	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	require.Less(t, elapsed, 500*time.Millisecond)

	require.NoError(t, broker.Close())
	mb.Close()
}

func TestBrokerCorrelationMismatch(t *testing.T) {
	defer leaktest.Check(t)()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		header := make([]byte, 4)
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}
		body := make([]byte, binary.BigEndian.Uint32(header))
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		// echo back a frame bearing the wrong correlation id
		res := make([]byte, 10)
		binary.BigEndian.PutUint32(res, 6)
		binary.BigEndian.PutUint32(res[4:], 0xbad)
		_, _ = conn.Write(res)
	}()

	broker := NewBroker(ln.Addr().String())
	require.NoError(t, broker.Open(testBrokerConfig()))
	defer broker.Close()

	_, err = broker.GetMetadata(&MetadataRequest{})
	require.Error(t, err)
	target := PacketDecodingError{}
	require.ErrorAs(t, err, &target)
	require.Contains(t, err.Error(), "correlation ID didn't match")

	<-done
}

func TestBrokerNotConnected(t *testing.T) {
	broker := NewBroker("localhost:0")
	_, err := broker.GetMetadata(&MetadataRequest{})
	require.ErrorIs(t, err, ErrNotConnected)
}
