package kwire

import (
	"net"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"
)

// ConnectionBuilder turns a node's endpoint and id into an opened Broker. The
// pool dials through it so callers and tests control how connections come to
// be. The node id must be bound before Open so the per-broker metrics get
// registered.
type ConnectionBuilder func(host string, port int32, nodeID int32) (*Broker, error)

// DefaultConnectionBuilder returns a ConnectionBuilder that dials with the
// supplied config.
func DefaultConnectionBuilder(conf *Config) ConnectionBuilder {
	return func(host string, port int32, nodeID int32) (*Broker, error) {
		broker := NewBroker(net.JoinHostPort(host, strconv.Itoa(int(port))))
		broker.id = nodeID
		if err := broker.Open(conf); err != nil {
			return nil, err
		}
		return broker, nil
	}
}

// BrokerPool is the registry of the Brokers known to a session, keyed by node
// id. A pool belongs to a single goroutine and is not reusable after Close.
type BrokerPool struct {
	builder ConnectionBuilder
	brokers map[int32]*Broker
	closed  bool
}

// NewBrokerPool returns an empty pool dialing through builder.
func NewBrokerPool(builder ConnectionBuilder) *BrokerPool {
	return &BrokerPool{
		builder: builder,
		brokers: make(map[int32]*Broker),
	}
}

// Connect returns the Broker registered under nodeID, dialing it first when
// the node has not been seen before. The node id is the identity: for a known
// id the cached Broker is returned as-is and a differing host or port is
// deliberately ignored. The builder runs exactly once per node id.
func (p *BrokerPool) Connect(host string, port int32, nodeID int32) (*Broker, error) {
	if p.closed {
		return nil, ErrPoolClosed
	}

	if broker, ok := p.brokers[nodeID]; ok {
		return broker, nil
	}

	broker, err := p.builder(host, port, nodeID)
	if err != nil {
		return nil, err
	}

	broker.id = nodeID
	p.brokers[nodeID] = broker
	DebugLogger.Printf("Registered broker #%d at %s\n", nodeID, broker.Addr())

	return broker, nil
}

// Broker returns the registered Broker for a node id, or nil.
func (p *BrokerPool) Broker(nodeID int32) *Broker {
	return p.brokers[nodeID]
}

// Len returns the number of registered brokers.
func (p *BrokerPool) Len() int {
	return len(p.brokers)
}

// Close disconnects every registered broker, in ascending node-id order so
// teardown is deterministic, and logs each disconnect. The registry is kept in
// place so that late calls fail with ErrPoolClosed instead of re-dialing.
func (p *BrokerPool) Close() error {
	if p.closed {
		return ErrPoolClosed
	}
	p.closed = true

	ids := make([]int32, 0, len(p.brokers))
	for id := range p.brokers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var errs error
	for _, id := range ids {
		broker := p.brokers[id]
		Logger.Printf("Closing connection to broker #%d at %s\n", id, broker.Addr())
		if err := broker.Close(); err != nil && err != ErrNotConnected {
			errs = multierror.Append(errs, err)
		}
	}

	return errs
}
