// ABOUTME: Charm KV client wrapper using transactional Do API
// ABOUTME: Short-lived connections to avoid lock contention with other processes

package charm

import (
	"errors"
	"os"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

const (
	// DefaultCharmHost is the Charm server used when CHARM_HOST is unset.
	DefaultCharmHost = "charm.2389.dev"

	// DBName is the name of the charm kv database for readlist.
	DBName = "readlist"
)

// Client holds configuration for KV operations. It does not hold a
// persistent connection: each operation opens the database, runs, and
// closes it.
type Client struct {
	dbName   string
	autoSync bool
}

// NewClient creates a client for the default database with auto-sync on.
func NewClient() *Client {
	if os.Getenv("CHARM_HOST") == "" {
		os.Setenv("CHARM_HOST", DefaultCharmHost)
	}
	return &Client{dbName: DBName, autoSync: true}
}

// NewClientWithDBName creates a client for a custom database name.
// Tests use this with autoSync disabled for isolated local databases.
func NewClientWithDBName(dbName string, autoSync bool) *Client {
	return &Client{dbName: dbName, autoSync: autoSync}
}

// DoReadOnly executes fn with read-only database access.
func (c *Client) DoReadOnly(fn func(k *kv.KV) error) error {
	return kv.DoReadOnly(c.dbName, fn)
}

// Do executes fn with write access, syncing afterwards when enabled.
func (c *Client) Do(fn func(k *kv.KV) error) error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}

// SetAutoSync enables or disables automatic sync after writes.
func (c *Client) SetAutoSync(enabled bool) {
	c.autoSync = enabled
}

// Sync manually triggers a sync with the Charm server.
func (c *Client) Sync() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// Reset wipes all local data.
func (c *Client) Reset() error {
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Reset()
	})
}

// ID returns the user's Charm ID for status display.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", err
	}
	return cc.ID()
}

// Get returns the value for key, or nil when the key does not exist.
func Get(k *kv.KV, key []byte) ([]byte, error) {
	data, err := k.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return data, err
}
