package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Client is the subset of *mongo.Client used by the bootstrap, extracted for mocking
type Client interface {
	Ping(ctx context.Context, rp *readpref.ReadPref) error
	Disconnect(ctx context.Context) error
	Database(name string, opts ...*options.DatabaseOptions) *mongo.Database
}

// Connector opens a client for the given options. The default implementation
// wraps mongo.Connect; tests substitute their own.
type Connector interface {
	Connect(ctx context.Context, opts *options.ClientOptions) (Client, error)
}

// ConnectorFunc adapts a function to the Connector interface
type ConnectorFunc func(ctx context.Context, opts *options.ClientOptions) (Client, error)

// Connect calls f(ctx, opts)
func (f ConnectorFunc) Connect(ctx context.Context, opts *options.ClientOptions) (Client, error) {
	return f(ctx, opts)
}

// driverConnector connects through the official MongoDB Go driver
type driverConnector struct{}

func (driverConnector) Connect(ctx context.Context, opts *options.ClientOptions) (Client, error) {
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// HandshakeOptions records the driver compatibility contract the connection was opened with.
// The Go driver always parses connection strings with its modern parser and always runs the
// unified topology, so both are true for every handle.
type HandshakeOptions struct {
	UseNewURLParser    bool
	UseUnifiedTopology bool
}

// defaultHandshakeOptions is the contract every handshake is made under
var defaultHandshakeOptions = HandshakeOptions{
	UseNewURLParser:    true,
	UseUnifiedTopology: true,
}

// MongoDB holds the MongoDB client and database
type MongoDB struct {
	Client   Client
	Database *mongo.Database
	Name     string
	Options  HandshakeOptions
}

func newMongoDB(client Client, dbName string) *MongoDB {
	return &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
		Name:     dbName,
		Options:  defaultHandshakeOptions,
	}
}

// DriverClient returns the underlying *mongo.Client when the handle was opened by the
// official driver, for callers that need the full client API.
func (m *MongoDB) DriverClient() (*mongo.Client, bool) {
	client, ok := m.Client.(*mongo.Client)
	return client, ok
}

// Collection returns a handle to the named collection of the default database
func (m *MongoDB) Collection(name string, opts ...*options.CollectionOptions) *mongo.Collection {
	return m.Database.Collection(name, opts...)
}

// HealthCheck performs a health check on the MongoDB connection
func (m *MongoDB) HealthCheck(ctx context.Context) error {
	if err := m.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection
func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
