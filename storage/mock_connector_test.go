package storage

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MockConnector is a mock implementation of the Connector interface.
type MockConnector struct {
	mock.Mock
}

func (m *MockConnector) Connect(ctx context.Context, opts *options.ClientOptions) (Client, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Client), args.Error(1)
}

// MockClient is a mock implementation of the Client interface.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Ping(ctx context.Context, rp *readpref.ReadPref) error {
	args := m.Called(ctx, rp)
	return args.Error(0)
}

func (m *MockClient) Disconnect(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Database records the requested name; the returned handle is nil since no server exists
func (m *MockClient) Database(name string, opts ...*options.DatabaseOptions) *mongo.Database {
	m.Called(name)
	return nil
}

// newHealthyClient returns a client that accepts a ping and a database lookup for dbName
func newHealthyClient(dbName string) *MockClient {
	client := &MockClient{}
	client.On("Ping", mock.Anything, mock.Anything).Return(nil)
	client.On("Database", dbName).Return()
	client.On("Disconnect", mock.Anything).Return(nil).Maybe()
	return client
}
