package db

import (
	"fmt"
	"net/http"
)

// CouchDBConfig provides generic CouchDB connection configuration.
// This configuration structure supports advanced connection options including
// TLS security, connection pooling, and automatic database creation.
//
// Configuration Options:
//   - URL: CouchDB server URL (e.g., "http://localhost:5984")
//   - Database: Target database name for operations
//   - Username: Authentication username for CouchDB access
//   - Password: Authentication password for secure connections
//   - MaxConnections: Connection pool size for concurrent operations
//   - Timeout: Request timeout in milliseconds
//   - CreateIfMissing: Automatically create database if it doesn't exist
//   - TLS: Optional TLS/SSL configuration for secure connections
//
// Example Usage:
//
//	config := &CouchDBConfig{
//	    URL:             "https://couchdb.example.com:6984",
//	    Database:        "graphium",
//	    Username:        "admin",
//	    Password:        "secure-password",
//	    MaxConnections:  100,
//	    Timeout:         30000,
//	    CreateIfMissing: true,
//	    TLS: &TLSConfig{
//	        Enabled:  true,
//	        CAFile:   "/path/to/ca.crt",
//	        CertFile: "/path/to/client.crt",
//	        KeyFile:  "/path/to/client.key",
//	    },
//	}
type CouchDBConfig struct {
	URL             string     // CouchDB server URL
	Database        string     // Database name
	Username        string     // Authentication username
	Password        string     // Authentication password
	MaxConnections  int        // Maximum number of concurrent connections
	Timeout         int        // Request timeout in milliseconds
	CreateIfMissing bool       // Create database if it doesn't exist
	TLS             *TLSConfig // Optional TLS configuration
}

// TLSConfig provides TLS/SSL configuration for secure CouchDB connections.
// This configuration enables encrypted communication between the client and
// CouchDB server with optional client certificate authentication.
//
// Security Options:
//   - Enabled: Enable TLS/SSL for the connection
//   - CertFile: Client certificate file for mutual TLS authentication
//   - KeyFile: Client private key file for certificate authentication
//   - CAFile: Certificate Authority file for server verification
//   - InsecureSkipVerify: Skip server certificate verification (not recommended)
//
// Example Usage:
//
//	tlsConfig := &TLSConfig{
//	    Enabled:  true,
//	    CAFile:   "/etc/ssl/certs/ca-bundle.crt",
//	    CertFile: "/etc/ssl/certs/client.crt",
//	    KeyFile:  "/etc/ssl/private/client.key",
//	    InsecureSkipVerify: false,
//	}
type TLSConfig struct {
	Enabled            bool   // Enable TLS/SSL
	CertFile           string // Client certificate file path
	KeyFile            string // Client private key file path
	CAFile             string // Certificate Authority file path
	InsecureSkipVerify bool   // Skip certificate verification (development only)
}

// CouchDBError represents a CouchDB-specific error with HTTP status information.
// This error type provides structured error handling with helper methods for
// common CouchDB error conditions like conflicts, not found, and authorization.
//
// Error Fields:
//   - StatusCode: HTTP status code from CouchDB response
//   - ErrorType: Error type identifier (e.g., "conflict", "not_found")
//   - Reason: Human-readable error description
//
// Common Error Types:
//   - 404 Not Found: Document or database doesn't exist
//   - 409 Conflict: Document revision conflict (MVCC)
//   - 401 Unauthorized: Authentication required or failed
//   - 403 Forbidden: Insufficient permissions
//   - 412 Precondition Failed: Missing or invalid revision
//
// Example Usage:
//
//	err := service.GetGenericDocument("missing-doc", &doc)
//	if err != nil {
//	    if couchErr, ok := err.(*CouchDBError); ok {
//	        if couchErr.IsNotFound() {
//	            fmt.Println("Document not found")
//	        } else if couchErr.IsConflict() {
//	            fmt.Println("Revision conflict - retry needed")
//	        }
//	    }
//	}
type CouchDBError struct {
	StatusCode int    `json:"status_code"` // HTTP status code
	ErrorType  string `json:"error"`       // Error type identifier
	Reason     string `json:"reason"`      // Human-readable error description
}

// Error implements the error interface for CouchDBError.
// Returns a formatted error message containing status code, error type, and reason.
func (e *CouchDBError) Error() string {
	return fmt.Sprintf("CouchDB error (status %d): %s - %s", e.StatusCode, e.ErrorType, e.Reason)
}

// IsConflict checks if the error is a document conflict error (HTTP 409).
// Conflicts occur when attempting to update a document with an outdated revision,
// indicating that another process has modified the document since it was retrieved.
func (e *CouchDBError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsNotFound checks if the error is a not found error (HTTP 404).
// Not found errors occur when attempting to access a document or database
// that doesn't exist in CouchDB.
func (e *CouchDBError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error is an authorization error (HTTP 401 or 403).
// Authorization errors occur when authentication fails or the authenticated user
// lacks sufficient permissions for the requested operation.
func (e *CouchDBError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// MangoQuery represents a CouchDB Mango query (MongoDB-style queries).
// Mango queries provide a declarative JSON-based query language for filtering
// documents without writing MapReduce views.
//
// Query Components:
//   - Selector: MongoDB-style selector with operators ($eq, $gt, $and, etc.)
//   - Fields: Array of field names to return (projection)
//   - Sort: Array of sort specifications
//   - Limit: Maximum number of results
//   - Skip: Number of results to skip for pagination
//   - UseIndex: Hint for which index to use
//
// Example Usage:
//
//	query := MangoQuery{
//	    Selector: map[string]interface{}{
//	        "status": "in_review",
//	    },
//	    Sort:  []map[string]string{{"created_at": "asc"}},
//	    Limit: 100,
//	}
//	results, _ := service.Find(query)
type MangoQuery struct {
	Selector map[string]interface{} `json:"selector"`            // MongoDB-style selector
	Fields   []string               `json:"fields,omitempty"`    // Fields to return
	Sort     []map[string]string    `json:"sort,omitempty"`      // Sort specifications
	Limit    int                    `json:"limit,omitempty"`     // Maximum results
	Skip     int                    `json:"skip,omitempty"`      // Pagination offset
	UseIndex string                 `json:"use_index,omitempty"` // Index hint
}
