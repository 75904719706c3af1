package kwire

import (
	"net"
	"regexp"
	"time"

	"crypto/tls"

	"github.com/rcrowley/go-metrics"
	"golang.org/x/net/proxy"
)

const defaultClientID = "kwire"

var validClientID = regexp.MustCompile(`\A[A-Za-z0-9._-]+\z`)

// Config is used to pass multiple configuration options to kwire's
// constructors.
type Config struct {
	// Net is the namespace for network-level properties used by the Broker,
	// and shared by the BrokerPool's default connection builder.
	Net struct {
		// How long to wait for the initial connection, TLS handshake
		// included (default 30s).
		DialTimeout time.Duration
		// How long to wait for a response before timing out and returning
		// ErrReadTimeout (default 30s). The deadline is re-armed per read.
		ReadTimeout time.Duration
		// How long to wait for a transmit before timing out and returning
		// ErrWriteTimeout (default 30s). The deadline is re-armed per write.
		WriteTimeout time.Duration

		TLS struct {
			// Whether or not to use TLS when connecting to the broker
			// (defaults to false).
			Enable bool
			// The TLS configuration to use for secure connections if
			// enabled (defaults to nil). The config is treated as opaque:
			// certificate and verification setup belongs to the caller.
			Config *tls.Config
		}

		// Proxy is the namespace for proxy management of broker connections.
		Proxy struct {
			// Whether or not to use proxy when connecting to the broker
			// (defaults to false).
			Enable bool
			// The proxy dialer to use enabled (defaults to nil).
			Dialer proxy.Dialer
		}

		// KeepAlive specifies the keep-alive period for an active network
		// connection (defaults to 0, the operating system default).
		KeepAlive time.Duration

		// LocalAddr is the local address to use when dialing an address. The
		// address must be of a compatible type for the network being dialed.
		// If nil, a local address is automatically chosen.
		LocalAddr net.Addr
	}

	// ClientID is a user-provided string sent with every request to the
	// brokers for logging, debugging, and auditing purposes (defaults to
	// "kwire").
	ClientID string

	// MetricRegistry is the registry to define metrics into. Defaults to a
	// fresh registry; set it to metrics.UseNilMetrics to disable gathering.
	MetricRegistry metrics.Registry
}

// NewConfig returns a new configuration instance with sane defaults.
func NewConfig() *Config {
	c := &Config{}

	c.Net.DialTimeout = 30 * time.Second
	c.Net.ReadTimeout = 30 * time.Second
	c.Net.WriteTimeout = 30 * time.Second

	c.ClientID = defaultClientID
	c.MetricRegistry = metrics.NewRegistry()

	return c
}

// Validate checks a Config instance. It will return a ConfigurationError if
// the specified values don't make sense.
func (c *Config) Validate() error {
	switch {
	case c.Net.DialTimeout <= 0:
		return ConfigurationError("Net.DialTimeout must be > 0")
	case c.Net.ReadTimeout <= 0:
		return ConfigurationError("Net.ReadTimeout must be > 0")
	case c.Net.WriteTimeout <= 0:
		return ConfigurationError("Net.WriteTimeout must be > 0")
	case c.Net.KeepAlive < 0:
		return ConfigurationError("Net.KeepAlive must be >= 0")
	case c.ClientID == "":
		return ConfigurationError("ClientID must not be empty")
	}

	if c.Net.Proxy.Enable && c.Net.Proxy.Dialer == nil {
		return ConfigurationError("Net.Proxy.Enable requires Net.Proxy.Dialer")
	}

	if !validClientID.MatchString(c.ClientID) {
		Logger.Println("ClientID is invalid, it should match [A-Za-z0-9._-]+")
	}

	return nil
}

func (c *Config) getDialer() proxy.Dialer {
	if c.Net.Proxy.Enable {
		DebugLogger.Println("using proxy")
		return c.Net.Proxy.Dialer
	}

	return &net.Dialer{
		Timeout:   c.Net.DialTimeout,
		KeepAlive: c.Net.KeepAlive,
		LocalAddr: c.Net.LocalAddr,
	}
}
