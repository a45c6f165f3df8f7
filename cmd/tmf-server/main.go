// Command tmf-server is the entry point for the document-lifecycle
// engine's request surface: it wires the Document Store, Blob Store,
// Identity Directory, and Sequence Allocator implementations selected
// by TMF_BACKEND, constructs engine.Engine, starts the background
// supersession reconciler, and serves httpapi over HTTP.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"tmf.evalgo.org/auth"
	"tmf.evalgo.org/common"
	"tmf.evalgo.org/config"
	"tmf.evalgo.org/db"
	"tmf.evalgo.org/db/bolt"
	"tmf.evalgo.org/engine"
	"tmf.evalgo.org/httpapi"
	"tmf.evalgo.org/model"
	"tmf.evalgo.org/storage"

	httpcommon "tmf.evalgo.org/http"
)

const serviceName = "tmf-server"

func main() {
	svcCfg := config.LoadServiceConfig("TMF")
	log := common.ServiceLogger(serviceName, svcCfg.Version)

	env := config.NewEnvConfig("TMF")
	backend := env.GetString("BACKEND", "memory")

	docs, blobs, identity, sequences, err := wireBackend(backend, log)
	if err != nil {
		log.WithError(err).Fatal("failed to wire storage backend")
	}

	eng := engine.New(docs, blobs, identity, sequences)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng.RunReconciler(ctx, env.GetDuration("RECONCILE_INTERVAL", time.Minute))

	authCfg := config.LoadAuthConfig("TMF")
	if authCfg.JWTSecret == "" {
		log.Warn("TMF_JWT_SECRET is unset; using an ephemeral secret, which invalidates every issued token on restart")
		authCfg.JWTSecret = uuid.NewString() + uuid.NewString()
	}
	tokens := auth.NewTokenService(authCfg.JWTSecret, authCfg.JWTExpiry)

	srvCfg := httpcommon.DefaultServerConfig()
	srvCfg.Port = config.LoadServerConfig("TMF").Port
	srvCfg.Debug = svcCfg.Environment == "development"

	server := httpapi.NewServer(eng, tokens, srvCfg)

	go func() {
		if err := httpcommon.StartServer(server, srvCfg); err != nil {
			log.WithError(err).Error("server stopped")
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	<-shutdown

	cancel()
	if err := httpcommon.GracefulShutdown(server, srvCfg.ShutdownTimeout); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}

// wireBackend selects the engine's four storage collaborators.
// "memory" is for smoke tests: every collaborator lives in-process and
// nothing persists across restarts, including the document-number
// sequence, so restarting the process resets document numbering.
// "bbolt" is the single-node/dev deployment: documents and identities
// still live in memory, but the document-number sequence is durable
// across restarts in a local bbolt file, since a dev operator resetting
// document numbers on every restart is a more surprising failure mode
// than an in-memory document store. "production" (any other value;
// TMF_BACKEND itself defaults to "memory") wires
// CouchDB (Document Store, Identity Directory), S3-compatible object
// storage (Blob Store), and Postgres (Sequence Allocator) per
// SPEC_FULL.md's domain stack.
func wireBackend(backend string, log *common.ContextLogger) (storage.DocStore, storage.BlobStore, auth.IdentityDirectory, db.SequenceAllocator, error) {
	switch backend {
	case "memory":
		log.WithField("backend", backend).Info("wiring in-memory storage backend")
		return storage.NewMemoryDocStore(), storage.NewMemoryBlobStore(), auth.NewMemoryIdentityDirectory(devPrincipals()), db.NewMemorySequenceAllocator(), nil

	case "bbolt":
		log.WithField("backend", backend).Info("wiring bbolt-backed sequence allocator")
		sequences, err := wireBoltSequenceAllocator()
		if err != nil {
			return nil, nil, nil, nil, err
		}
		return storage.NewMemoryDocStore(), storage.NewMemoryBlobStore(), auth.NewMemoryIdentityDirectory(devPrincipals()), sequences, nil

	default:
		log.WithField("backend", backend).Info("wiring production storage backend")
		return wireProductionBackend()
	}
}

func devPrincipals() []model.Principal {
	return []model.Principal{
		{ID: "admin", Username: "admin", Role: model.RoleAdmin},
	}
}

func wireBoltSequenceAllocator() (db.SequenceAllocator, error) {
	boltCfg := config.LoadBoltConfig("TMF_BOLT")
	boltDB, err := bolt.Open(boltCfg.Path)
	if err != nil {
		return nil, err
	}
	return bolt.NewSequenceAllocator(boltDB)
}

func wireProductionBackend() (storage.DocStore, storage.BlobStore, auth.IdentityDirectory, db.SequenceAllocator, error) {
	docsCfg := config.LoadDatabaseConfig("TMF_DOCS")
	docsService, err := db.NewCouchDBServiceFromConfig(db.CouchDBConfig{
		URL:             docsCfg.URL,
		Database:        orDefault(docsCfg.Database, "tmf_documents"),
		Username:        docsCfg.Username,
		Password:        docsCfg.Password,
		MaxConnections:  docsCfg.MaxConnections,
		Timeout:         int(docsCfg.Timeout.Milliseconds()),
		CreateIfMissing: docsCfg.CreateIfMissing,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	docs := storage.NewCouchDocStore(docsService)

	identityCfg := config.LoadDatabaseConfig("TMF_IDENTITY")
	identityService, err := db.NewCouchDBServiceFromConfig(db.CouchDBConfig{
		URL:             identityCfg.URL,
		Database:        orDefault(identityCfg.Database, "tmf_principals"),
		Username:        identityCfg.Username,
		Password:        identityCfg.Password,
		MaxConnections:  identityCfg.MaxConnections,
		Timeout:         int(identityCfg.Timeout.Milliseconds()),
		CreateIfMissing: identityCfg.CreateIfMissing,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}
	identity := auth.NewCouchIdentityDirectory(identityService)

	blobCfg := config.LoadBlobStoreConfig("TMF_BLOBS")
	blobs, err := storage.NewS3BlobStore(context.Background(), storage.S3BlobStoreConfig{
		Endpoint:        blobCfg.Endpoint,
		Region:          blobCfg.Region,
		Bucket:          blobCfg.Bucket,
		AccessKeyID:     blobCfg.AccessKeyID,
		SecretAccessKey: blobCfg.SecretAccessKey,
		UsePathStyle:    blobCfg.UsePathStyle,
	})
	if err != nil {
		return nil, nil, nil, nil, err
	}

	pgCfg := config.LoadPostgresConfig("TMF_SEQUENCES")
	pgDB, err := db.NewPostgresDB(pgCfg.DSN)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	sequences := db.NewPostgresSequenceAllocator(pgDB.Pool())

	return docs, blobs, identity, sequences, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
