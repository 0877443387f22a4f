package api

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"

	"keyword-research-go/pkg/logger"
)

// ConnectionConfig holds configuration for outbound HTTP connections
type ConnectionConfig struct {
	MaxConnsPerHost     int           `mapstructure:"max_conns_per_host"`
	MaxIdleConnDuration time.Duration `mapstructure:"max_idle_conn_duration"`
	ReadTimeout         time.Duration `mapstructure:"read_timeout"`
	WriteTimeout        time.Duration `mapstructure:"write_timeout"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	UserAgent           string        `mapstructure:"user_agent"`
	MaxInFlight         int           `mapstructure:"max_in_flight"`
	AcquireTimeout      time.Duration `mapstructure:"acquire_timeout"`
}

// DefaultConnectionConfig returns connection settings suited to a few slow API calls per run
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		MaxConnsPerHost:     16,
		MaxIdleConnDuration: 90 * time.Second,
		ReadTimeout:         60 * time.Second,
		WriteTimeout:        10 * time.Second,
		RequestTimeout:      60 * time.Second,
		UserAgent:           "keyword-research-go/1.0",
		MaxInFlight:         8,
		AcquireTimeout:      30 * time.Second,
	}
}

// ConnectionManager owns the shared fasthttp client used by every upstream collaborator
type ConnectionManager struct {
	config  ConnectionConfig
	client  *fasthttp.Client
	limiter *RequestLimiter
	log     *logger.Logger
}

// NewConnectionManager creates a connection manager with the specified config
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return NewConnectionManagerWithDialer(config, nil)
}

// NewConnectionManagerWithDialer creates a connection manager that opens connections through dial.
// A nil dial uses the default TCP dialer.
func NewConnectionManagerWithDialer(config ConnectionConfig, dial fasthttp.DialFunc) *ConnectionManager {
	client := &fasthttp.Client{
		Name:                config.UserAgent,
		MaxConnsPerHost:     config.MaxConnsPerHost,
		MaxIdleConnDuration: config.MaxIdleConnDuration,
		ReadTimeout:         config.ReadTimeout,
		WriteTimeout:        config.WriteTimeout,
		Dial:                dial,
	}

	return &ConnectionManager{
		config:  config,
		client:  client,
		limiter: NewRequestLimiter(config.MaxInFlight, config.AcquireTimeout),
		log:     logger.GetLogger().WithField("component", "connection_manager"),
	}
}

// Do executes req within the request timeout, shortened to the context deadline.
// It waits for a free slot when MaxInFlight requests are already running.
func (cm *ConnectionManager) Do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := cm.limiter.Acquire(ctx); err != nil {
		cm.log.WithError(err).WithField("host", string(req.Host())).Warn("Upstream request not admitted")
		return err
	}
	defer cm.limiter.Release()

	timeout := cm.config.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	err := cm.client.DoTimeout(req, resp, timeout)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Stats returns the request limiter counters.
func (cm *ConnectionManager) Stats() LimiterStats {
	return cm.limiter.Stats()
}

// Close closes all idle connections
func (cm *ConnectionManager) Close() {
	cm.log.Debug("Closing connection manager")
	cm.client.CloseIdleConnections()
}
