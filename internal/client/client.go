// Package client wires configuration into the driveline services.
package client

import (
	"github.com/driveline/driveline/internal/config"
	"github.com/driveline/driveline/internal/events"
	"github.com/driveline/driveline/internal/index"
	"github.com/driveline/driveline/internal/services/auth"
	"github.com/driveline/driveline/internal/services/drive"
	"github.com/driveline/driveline/internal/storage"
)

// Client bundles the assembled services.
type Client struct {
	Drive *drive.Service
	Auth  *auth.Service
	Store index.Store

	config *config.Config
	logger *events.Logger
	blobs  storage.BlobStore
}

// New assembles a client from configuration: the SQLite index, the local
// blob store and the services on top of them.
func New(cfg *config.Config, logger *events.Logger) (*Client, error) {
	store, err := index.NewSQLiteStore(cfg.Storage.IndexPath, cfg.Quota.TotalBytes, logger)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.NewLocalStore(cfg.Storage.DataDir, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Client{
		Drive:  drive.NewService(store, blobs, logger),
		Auth:   auth.NewService(store, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, logger),
		Store:  store,
		config: cfg,
		logger: logger,
		blobs:  blobs,
	}, nil
}

// Close releases held resources.
func (c *Client) Close() error {
	return c.Store.Close()
}
