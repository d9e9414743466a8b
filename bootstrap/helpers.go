package bootstrap

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// MongoHosts returns the host list of uri without credentials, for use in
// operator-facing messages.
func MongoHosts(uri string) string {
	cs, err := connstring.Parse(uri)
	if err != nil || len(cs.Hosts) == 0 {
		return "<unparseable uri>"
	}
	return strings.Join(cs.Hosts, ",")
}

// ClassifyConnectionError provides specific error messages based on the type of connection failure.
func ClassifyConnectionError(err error, addr string) string {
	if err == nil {
		return ""
	}

	errStr := err.Error()

	if containsIgnoreCase(errStr, "error parsing uri") || containsIgnoreCase(errStr, "scheme must be") {
		return fmt.Sprintf("The MongoDB connection string is invalid: %v\n"+
			"  Remediation:\n"+
			"  - The URI must start with mongodb:// or mongodb+srv://\n"+
			"  - Check MONGO_URL or TODOAPI_MONGODB_URI", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) ||
			(opErr.Err != nil && containsIgnoreCase(opErr.Err.Error(), "connection refused")) {
			return connectionRefusedMessage(addr)
		}
	}
	if containsIgnoreCase(errStr, "connection refused") {
		return connectionRefusedMessage(addr)
	}

	if containsIgnoreCase(errStr, "no such host") || containsIgnoreCase(errStr, "lookup") {
		return fmt.Sprintf("Cannot resolve hostname in MongoDB address %s.\n"+
			"  Remediation:\n"+
			"  - Verify the hostname is correct\n"+
			"  - Check DNS configuration (mongodb+srv:// needs SRV records)\n"+
			"  - Try using IP address (127.0.0.1) instead of hostname", addr)
	}

	if containsIgnoreCase(errStr, "authentication") || containsIgnoreCase(errStr, "auth error") || containsIgnoreCase(errStr, "unauthorized") {
		return fmt.Sprintf("Authentication failed for MongoDB at %s.\n"+
			"  Remediation:\n"+
			"  - Verify the username and password in the connection string\n"+
			"  - Check the authSource parameter matches the user's database", addr)
	}

	if mongo.IsTimeout(err) || containsIgnoreCase(errStr, "server selection") || containsIgnoreCase(errStr, "deadline exceeded") {
		return fmt.Sprintf("Connection to MongoDB at %s timed out.\n"+
			"  Possible causes:\n"+
			"  - MongoDB is starting up (wait and retry)\n"+
			"  - Network latency or firewall blocking the connection\n"+
			"  - Replica set name mismatch\n"+
			"  Remediation:\n"+
			"  - Check if MongoDB is running: docker ps | grep mongo\n"+
			"  - Raise mongodb.connect_timeout", addr)
	}

	return fmt.Sprintf("Failed to connect to MongoDB at %s: %v\n"+
		"  Remediation:\n"+
		"  - Ensure MongoDB is running and accessible\n"+
		"  - Check the MONGO_URL setting\n"+
		"  - Verify network connectivity", addr, err)
}

func connectionRefusedMessage(addr string) string {
	return fmt.Sprintf("Connection refused by MongoDB at %s.\n"+
		"  This usually means MongoDB is not running.\n"+
		"  Remediation:\n"+
		"  - Start MongoDB: docker run -d -p 27017:27017 mongo:7\n"+
		"  - Verify the host and port in MONGO_URL", addr)
}

// containsIgnoreCase checks if a string contains a substring (case-insensitive).
func containsIgnoreCase(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
