package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"streamingapp/storage"
	"streamingapp/util"

	"go.mongodb.org/mongo-driver/mongo"
)

// ClassifyConnectionError provides specific error messages based on the type of connection failure.
// endpoint must already be redacted.
func ClassifyConnectionError(err error, endpoint string) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	if errors.Is(err, storage.ErrDatabaseClosed) {
		return fmt.Sprintf("MongoDB connection to %s was closed during shutdown.", endpoint)
	}

	// The driver reports a refused dial inside a server selection timeout, so
	// specific causes are checked before the generic timeout.
	var opErr *net.OpError
	if (errors.As(err, &opErr) && errors.Is(opErr.Err, syscall.ECONNREFUSED)) ||
		containsIgnoreCase(errStr, "connection refused") ||
		containsIgnoreCase(errStr, "actively refused") {
		return fmt.Sprintf("Connection refused by MongoDB at %s.\n"+
			"  This usually means mongod is not running.\n"+
			"  Remediation:\n"+
			"  - Start MongoDB: docker compose up -d mongodb\n"+
			"  - Check MongoDB logs: docker logs streamingapp-mongodb-1\n"+
			"  - Verify mongodb.uri in config.yaml or MONGO_URI", endpoint)
	}

	if containsIgnoreCase(errStr, "no such host") || containsIgnoreCase(errStr, "lookup") {
		return fmt.Sprintf("Cannot resolve hostname in MongoDB address %s.\n"+
			"  Remediation:\n"+
			"  - Verify the hostname is correct\n"+
			"  - For mongodb+srv:// URIs, check the SRV record exists\n"+
			"  - Try using IP address (127.0.0.1) instead of hostname", endpoint)
	}

	if containsIgnoreCase(errStr, "authentication failed") || containsIgnoreCase(errStr, "auth error") ||
		containsIgnoreCase(errStr, "unauthorized") {
		return fmt.Sprintf("Authentication failed for MongoDB at %s.\n"+
			"  Remediation:\n"+
			"  - Verify the credentials in the connection string\n"+
			"  - Check authSource names the database that holds the user\n"+
			"  - Check the secrets provider returns the expected mongodb_uri", endpoint)
	}

	if containsIgnoreCase(errStr, "x509") || containsIgnoreCase(errStr, "certificate") ||
		containsIgnoreCase(errStr, "tls:") {
		return fmt.Sprintf("TLS handshake with MongoDB at %s failed.\n"+
			"  Remediation:\n"+
			"  - Verify tls=true and tlsCAFile in the connection string\n"+
			"  - Check the server certificate matches the hostname", endpoint)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Sprintf("Connection to MongoDB at %s timed out.\n"+
			"  Possible causes:\n"+
			"  - MongoDB is starting up (wait and retry)\n"+
			"  - Network latency or firewall blocking the connection\n"+
			"  - No replica set member matches the read preference\n"+
			"  Remediation:\n"+
			"  - Check if MongoDB is running: docker ps | grep mongo\n"+
			"  - Increase mongodb.connect_timeout", endpoint)
	}

	return fmt.Sprintf("Failed to connect to MongoDB at %s: %v\n"+
		"  Remediation:\n"+
		"  - Ensure MongoDB is running and accessible\n"+
		"  - Check config.yaml mongodb.uri setting\n"+
		"  - Verify network connectivity", endpoint, util.SanitizeError(err))
}

// containsIgnoreCase checks if a string contains a substring (case-insensitive).
func containsIgnoreCase(s, substr string) bool {
	if len(substr) == 0 {
		return true
	}
	if len(s) < len(substr) {
		return false
	}
	for i := 0; i <= len(s)-len(substr); i++ {
		if equalFoldAt(s, substr, i) {
			return true
		}
	}
	return false
}

func equalFoldAt(s, substr string, start int) bool {
	for i := 0; i < len(substr); i++ {
		c1, c2 := s[start+i], substr[i]
		if c1 == c2 {
			continue
		}
		if 'A' <= c1 && c1 <= 'Z' {
			c1 += 'a' - 'A'
		}
		if 'A' <= c2 && c2 <= 'Z' {
			c2 += 'a' - 'A'
		}
		if c1 != c2 {
			return false
		}
	}
	return true
}
