package kwire

import (
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

func TestBrokerPoolMemoizesByNodeID(t *testing.T) {
	built := 0
	builder := func(host string, port int32, nodeID int32) (*Broker, error) {
		built++
		return NewBroker("fake:9092"), nil
	}

	pool := NewBrokerPool(builder)
	require.Equal(t, 0, pool.Len())

	first, err := pool.Connect("hostA", 9092, 7)
	require.NoError(t, err)
	require.Equal(t, int32(7), first.ID())
	require.Equal(t, 1, pool.Len())

	// same node id, different endpoint: the cached broker wins and the
	// builder is not consulted again
	second, err := pool.Connect("hostB", 9093, 7)
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, built)

	third, err := pool.Connect("hostA", 9092, 8)
	require.NoError(t, err)
	require.NotSame(t, first, third)
	require.Equal(t, 2, built)
	require.Equal(t, 2, pool.Len())

	require.Same(t, first, pool.Broker(7))
	require.Same(t, third, pool.Broker(8))
	require.Nil(t, pool.Broker(99))
}

func TestBrokerPoolBuilderFailure(t *testing.T) {
	boom := ConfigurationError("no route")
	pool := NewBrokerPool(func(host string, port int32, nodeID int32) (*Broker, error) {
		return nil, boom
	})

	_, err := pool.Connect("host", 9092, 1)
	require.ErrorIs(t, err, boom)
	// a failed dial leaves no registration behind
	require.Equal(t, 0, pool.Len())
	require.Nil(t, pool.Broker(1))
}

func TestBrokerPoolClose(t *testing.T) {
	defer leaktest.Check(t)()

	mocks := []*MockBroker{NewMockBroker(t, 1), NewMockBroker(t, 2)}

	conf := NewConfig()
	conf.Net.DialTimeout = 5 * time.Second
	pool := NewBrokerPool(DefaultConnectionBuilder(conf))

	for _, mb := range mocks {
		broker, err := pool.Connect("localhost", mb.Port(), mb.BrokerID())
		require.NoError(t, err)
		require.Equal(t, mb.BrokerID(), broker.ID())

		ok, err := broker.Connected()
		require.NoError(t, err)
		require.True(t, ok)
	}

	brokers := []*Broker{pool.Broker(1), pool.Broker(2)}
	require.NoError(t, pool.Close())

	for _, broker := range brokers {
		ok, _ := broker.Connected()
		require.False(t, ok)
	}

	// the pool is done: late calls fail instead of re-dialing
	_, err := pool.Connect("localhost", 9092, 3)
	require.ErrorIs(t, err, ErrPoolClosed)
	require.ErrorIs(t, pool.Close(), ErrPoolClosed)

	for _, mb := range mocks {
		mb.Close()
	}
}

func TestBrokerPoolRegistersBrokerMetrics(t *testing.T) {
	defer leaktest.Check(t)()

	mb := NewMockBroker(t, 1)
	mb.Returns(&MetadataResponse{})

	conf := NewConfig()
	conf.Net.DialTimeout = 5 * time.Second
	pool := NewBrokerPool(DefaultConnectionBuilder(conf))

	broker, err := pool.Connect("localhost", mb.Port(), mb.BrokerID())
	require.NoError(t, err)

	_, err = broker.GetMetadata(&MetadataRequest{})
	require.NoError(t, err)

	// a pool-registered broker reports under its node id as well as the
	// shared meters
	meter := conf.MetricRegistry.Get("request-rate-for-broker-1")
	require.NotNil(t, meter)
	require.Equal(t, int64(1), meter.(metrics.Meter).Count())

	require.NoError(t, pool.Close())

	// closing tears the per-broker names back down
	require.Nil(t, conf.MetricRegistry.Get("request-rate-for-broker-1"))

	mb.Close()
}

func TestBrokerPoolCloseToleratesUnconnected(t *testing.T) {
	pool := NewBrokerPool(func(host string, port int32, nodeID int32) (*Broker, error) {
		// never opened, so closing it reports ErrNotConnected
		return NewBroker("fake:9092"), nil
	})

	_, err := pool.Connect("host", 9092, 1)
	require.NoError(t, err)

	// ErrNotConnected from individual brokers is not a pool-level failure
	require.NoError(t, pool.Close())
}
