package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"streamingapp/metrics"
	"streamingapp/util"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultConnectTimeout bounds a single handshake (connect + ping)
	DefaultConnectTimeout = 10 * time.Second

	disconnectTimeout = 5 * time.Second
	handshakeKey      = "handshake"
)

// Connection owns the single shared MongoDB handle of the process.
//
// EnsureConnected performs the network handshake at most once per successful
// connection: concurrent callers share one in-flight attempt, and callers arriving
// after success get the existing handle without touching the network.
type Connection struct {
	endpoint               string
	database               string
	appName                string
	connectTimeout         time.Duration
	serverSelectionTimeout time.Duration
	maxPoolSize            uint64
	connector              Connector
	logger                 *zap.SugaredLogger
	tracer                 trace.Tracer

	mu      sync.RWMutex
	state   ReadyState
	db      *MongoDB
	lastErr error
	closed  bool

	flight singleflight.Group
}

// Option configures a Connection
type Option func(*Connection)

// WithConnector replaces the driver connector, mainly for tests
func WithConnector(connector Connector) Option {
	return func(c *Connection) {
		c.connector = connector
	}
}

// WithLogger sets the logger used for bootstrap events
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Connection) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used to span the handshake
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Connection) {
		c.tracer = tracer
	}
}

// WithDatabase overrides the default database named in the connection string
func WithDatabase(name string) Option {
	return func(c *Connection) {
		c.database = name
	}
}

// WithAppName sets the application name reported to the server in the handshake
func WithAppName(name string) Option {
	return func(c *Connection) {
		c.appName = name
	}
}

// WithConnectTimeout bounds a single handshake. Non-positive values keep the default.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *Connection) {
		if d > 0 {
			c.connectTimeout = d
		}
	}
}

// WithServerSelectionTimeout sets how long the driver waits for a suitable server
func WithServerSelectionTimeout(d time.Duration) Option {
	return func(c *Connection) {
		c.serverSelectionTimeout = d
	}
}

// WithMaxPoolSize sets the driver connection pool ceiling
func WithMaxPoolSize(n uint64) Option {
	return func(c *Connection) {
		c.maxPoolSize = n
	}
}

// NewConnection creates a disconnected Connection for the given endpoint.
// An empty endpoint resolves to DefaultURI.
func NewConnection(endpoint string, opts ...Option) *Connection {
	c := &Connection{
		endpoint:       ResolveEndpoint(endpoint),
		connectTimeout: DefaultConnectTimeout,
		connector:      driverConnector{},
		logger:         zap.NewNop().Sugar(),
		tracer:         noop.NewTracerProvider().Tracer("streamingapp/storage"),
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the resolved connection string
func (c *Connection) Endpoint() string {
	return c.endpoint
}

// RedactedEndpoint returns the resolved connection string with its password masked
func (c *Connection) RedactedEndpoint() string {
	return RedactURI(c.endpoint)
}

// DatabaseName returns the database the handle will point at
func (c *Connection) DatabaseName() string {
	if c.database != "" {
		return c.database
	}
	if name := DatabaseFromURI(c.endpoint); name != "" {
		return name
	}
	return DefaultDatabase
}

// State returns the current readiness state
func (c *Connection) State() ReadyState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// LastError returns the error of the most recent failed handshake, if any
func (c *Connection) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Handle returns the shared handle, or ErrNotConnected before a successful handshake
func (c *Connection) Handle() (*MongoDB, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrDatabaseClosed
	}
	if c.state != StateConnected || c.db == nil {
		return nil, ErrNotConnected
	}
	return c.db, nil
}

// EnsureConnected returns the shared handle, performing the handshake if no
// connection exists yet. A caller whose ctx ends while waiting on an in-flight
// handshake gets ctx.Err(); the handshake itself keeps running for the others.
//
// Every handshake failure is returned as a *ConnectionError matching ErrConnectionFailure.
func (c *Connection) EnsureConnected(ctx context.Context) (*MongoDB, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrDatabaseClosed
	}
	if c.state == StateConnected && c.db != nil {
		db := c.db
		c.mu.RUnlock()
		return db, nil
	}
	c.mu.RUnlock()

	ch := c.flight.DoChan(handshakeKey, func() (interface{}, error) {
		return c.handshake()
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*MongoDB), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// handshake runs at most once at a time, under the single-flight guard
func (c *Connection) handshake() (*MongoDB, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrDatabaseClosed
	}
	// A flight that finished between the caller's check and DoChan already connected us
	if c.state == StateConnected && c.db != nil {
		db := c.db
		c.mu.Unlock()
		return db, nil
	}
	c.setStateLocked(StateConnecting)
	c.mu.Unlock()

	attemptID := uuid.NewString()
	redacted := c.RedactedEndpoint()

	c.logger.Infow("Connecting to MongoDB at: "+util.SanitizeString(redacted),
		"attempt_id", attemptID,
		"database", c.DatabaseName(),
		"use_new_url_parser", defaultHandshakeOptions.UseNewURLParser,
		"use_unified_topology", defaultHandshakeOptions.UseUnifiedTopology)

	ctx, cancel := context.WithTimeout(context.Background(), c.connectTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "mongodb.handshake",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "mongodb"),
			attribute.String("db.name", c.DatabaseName()),
			attribute.String("server.address", HostsFromURI(c.endpoint)),
			attribute.String("streamingapp.attempt_id", attemptID),
		))
	defer span.End()

	start := time.Now()
	db, err := c.dial(ctx)
	metrics.HandshakeDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		connErr := &ConnectionError{Endpoint: redacted, Err: err}

		c.mu.Lock()
		closed := c.closed
		if !closed {
			c.lastErr = connErr
			c.setStateLocked(StateFailed)
		}
		c.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, "handshake failed")
		metrics.HandshakesTotal.WithLabelValues(metrics.ResultFailure).Inc()
		c.logger.Errorw("MongoDB connection error",
			"attempt_id", attemptID,
			"endpoint", redacted,
			"error", util.SanitizeError(err))
		if closed {
			return nil, ErrDatabaseClosed
		}
		return nil, connErr
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.disconnect(db.Client)
		return nil, ErrDatabaseClosed
	}
	c.db = db
	c.lastErr = nil
	c.setStateLocked(StateConnected)
	c.mu.Unlock()

	span.SetStatus(codes.Ok, "")
	metrics.HandshakesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	c.logger.Infow("MongoDB connection established",
		"attempt_id", attemptID,
		"database", db.Name,
		"duration", time.Since(start))

	return db, nil
}

// dial opens a client and pings the primary to prove the connection is usable
func (c *Connection) dial(ctx context.Context) (*MongoDB, error) {
	client, err := c.connector.Connect(ctx, c.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		c.disconnect(client)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return newMongoDB(client, c.DatabaseName()), nil
}

// clientOptions builds the driver options for the handshake
func (c *Connection) clientOptions() *options.ClientOptions {
	opts := options.Client().ApplyURI(c.endpoint).SetConnectTimeout(c.connectTimeout)
	if c.appName != "" {
		opts.SetAppName(c.appName)
	}
	if c.serverSelectionTimeout > 0 {
		opts.SetServerSelectionTimeout(c.serverSelectionTimeout)
	}
	if c.maxPoolSize > 0 {
		opts.SetMaxPoolSize(c.maxPoolSize)
	}
	return opts
}

// HealthCheck pings the shared handle
func (c *Connection) HealthCheck(ctx context.Context) error {
	db, err := c.Handle()
	if err != nil {
		return err
	}
	return db.HealthCheck(ctx)
}

// Close disconnects the shared handle. The Connection cannot be reused afterwards.
func (c *Connection) Close(ctx context.Context) error {
	c.mu.Lock()
	db := c.db
	c.db = nil
	c.closed = true
	c.setStateLocked(StateDisconnected)
	c.mu.Unlock()

	if db == nil {
		return nil
	}
	if err := db.Close(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	c.logger.Info("MongoDB connection closed")
	return nil
}

type disconnecter interface {
	Disconnect(ctx context.Context) error
}

func (c *Connection) disconnect(d disconnecter) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := d.Disconnect(ctx); err != nil {
		c.logger.Warnw("Failed to disconnect abandoned MongoDB client", "error", err)
	}
}

// setStateLocked requires c.mu held for writing. The gauge is published on transitions only.
func (c *Connection) setStateLocked(state ReadyState) {
	if c.state == state {
		return
	}
	c.state = state
	c.publishState(state)
}

func (c *Connection) publishState(state ReadyState) {
	all := make([]string, len(AllReadyStates))
	for i, s := range AllReadyStates {
		all[i] = s.String()
	}
	metrics.SetConnectionState(state.String(), all)
}
