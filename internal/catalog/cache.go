package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const keyPrefix = "menu:"

// Cache is a read-through Provider backed by badger. Entries expire after
// ttl so menu edits made elsewhere show up without a restart.
type Cache struct {
	db   *badger.DB
	next Provider
	ttl  time.Duration
}

// OpenCacheDB opens the badger store. An empty dir keeps it in memory.
func OpenCacheDB(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(log.StandardLogger()).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open catalog cache: %w", err)
	}
	return db, nil
}

// NewCache wraps next with a badger cache.
func NewCache(db *badger.DB, next Provider, ttl time.Duration) *Cache {
	return &Cache{db: db, next: next, ttl: ttl}
}

func (c *Cache) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	key := []byte(keyPrefix + id.String())

	var item MenuItem
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		entry, err := txn.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return entry.Value(func(val []byte) error {
			found = true
			return json.Unmarshal(val, &item)
		})
	})
	if err != nil {
		// A broken cache entry must not block order taking.
		log.WithError(err).WithField("menu_item_id", id).Warn("read catalog cache")
	} else if found {
		return item, nil
	}

	item, err = c.next.GetMenuItem(ctx, id)
	if err != nil {
		return MenuItem{}, err
	}

	val, err := json.Marshal(item)
	if err != nil {
		return item, nil
	}
	if err := c.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(key, val).WithTTL(c.ttl))
	}); err != nil {
		log.WithError(err).WithField("menu_item_id", id).Warn("write catalog cache")
	}
	return item, nil
}

// Invalidate drops a cached menu item.
func (c *Cache) Invalidate(id uuid.UUID) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(keyPrefix + id.String()))
	})
}
