// Package db provides CouchDB integration for document-based data storage.
// The client is deliberately narrow: a connection/session type
// (CouchDBService) plus the generic-document CRUD (couchdb_generic.go) and
// Mango query builder (couchdb_query.go) that storage.DocStore and
// auth.IdentityDirectory's CouchDB adapters actually call. CouchDB's
// MapReduce views, the changes feed, bulk operations, and graph traversal
// have no counterpart in this engine's domain and are not implemented here.
package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	kivik "github.com/go-kivik/kivik/v4"
	_ "github.com/go-kivik/kivik/v4/couchdb" // The CouchDB driver
)

// CouchDBService wraps a single CouchDB database connection.
type CouchDBService struct {
	client   *kivik.Client // CouchDB client connection
	database *kivik.DB     // Active database handle
	dbName   string        // Database name for operations
}

// Close releases the underlying CouchDB client connection.
func (c *CouchDBService) Close() error {
	return c.client.Close()
}

// NewCouchDBServiceFromConfig creates a CouchDBService from a CouchDBConfig,
// optionally creating the target database if it does not yet exist.
//
// Example Usage:
//
//	config := CouchDBConfig{
//	    URL:             "https://couchdb.example.com:6984",
//	    Database:        "tmf_documents",
//	    Username:        "admin",
//	    Password:        "secure-password",
//	    Timeout:         30000,
//	    CreateIfMissing: true,
//	}
//
//	service, err := NewCouchDBServiceFromConfig(config)
//	if err != nil {
//	    log.Fatal("Failed to create service:", err)
//	}
//	defer service.Close()
func NewCouchDBServiceFromConfig(config CouchDBConfig) (*CouchDBService, error) {
	// Build connection URL with authentication
	connectionURL := config.URL
	if config.Username != "" && config.Password != "" {
		// Parse URL to inject credentials
		if !strings.Contains(connectionURL, "@") {
			// Insert credentials into URL
			parts := strings.SplitN(connectionURL, "://", 2)
			if len(parts) == 2 {
				connectionURL = fmt.Sprintf("%s://%s:%s@%s",
					parts[0], config.Username, config.Password, parts[1])
			}
		}
	}

	// Create CouchDB client
	client, err := kivik.New("couch", connectionURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to CouchDB: %w", err)
	}

	ctx := context.Background()

	// Apply timeout if specified
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(config.Timeout)*time.Millisecond)
		defer cancel()
	}

	// Check if database exists
	exists, err := client.DBExists(ctx, config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to check if database exists: %w", err)
	}

	// Create database if it doesn't exist and CreateIfMissing is true
	if !exists {
		if config.CreateIfMissing {
			err = client.CreateDB(ctx, config.Database)
			if err != nil {
				return nil, fmt.Errorf("failed to create database: %w", err)
			}
		} else {
			return nil, fmt.Errorf("database %s does not exist", config.Database)
		}
	}

	db := client.DB(config.Database)

	return &CouchDBService{
		client:   client,
		database: db,
		dbName:   config.Database,
	}, nil
}
