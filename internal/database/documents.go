package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

type Collection string

const (
	Users         Collection = "users"
	Stores        Collection = "stores"
	Orders        Collection = "orders"
	Notifications Collection = "notifications"
)

// AllCollections lists every collection the service persists, in bootstrap order.
var AllCollections = []Collection{Users, Stores, Orders, Notifications}

// Backend reads and writes whole JSON documents. Write must replace the prior
// content completely or not at all.
type Backend interface {
	Read(ctx context.Context, c Collection) ([]byte, error)
	Write(ctx context.Context, c Collection, data []byte) error
	Close() error
}

// DocStore wraps a Backend with JSON encoding, default fallbacks and one
// in-process lock per collection. It does not protect against other
// processes writing the same backend: the last full write wins.
type DocStore struct {
	backend Backend
	log     *zap.Logger

	mu    sync.Mutex
	locks map[Collection]*sync.Mutex
}

func NewDocStore(backend Backend, log *zap.Logger) *DocStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocStore{
		backend: backend,
		log:     log,
		locks:   make(map[Collection]*sync.Mutex),
	}
}

func (d *DocStore) Close() error {
	return d.backend.Close()
}

func (d *DocStore) lock(c Collection) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()

	l, ok := d.locks[c]
	if !ok {
		l = &sync.Mutex{}
		d.locks[c] = l
	}
	return l
}

// Exists reports whether c has ever been saved.
func (d *DocStore) Exists(ctx context.Context, c Collection) (bool, error) {
	_, err := d.backend.Read(ctx, c)
	if errors.Is(err, ErrCollectionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", c, err)
	}
	return true, nil
}

// Load returns the stored value of c, or def when the document is missing,
// unreadable or malformed.
func Load[T any](ctx context.Context, d *DocStore, c Collection, def T) T {
	l := d.lock(c)
	l.Lock()
	defer l.Unlock()

	v, _ := load(ctx, d, c, def)
	return v
}

// load returns the decoded document, or def. When the stored bytes exist but
// do not decode, they are returned alongside def.
func load[T any](ctx context.Context, d *DocStore, c Collection, def T) (T, []byte) {
	data, err := d.backend.Read(ctx, c)
	if err != nil {
		if !errors.Is(err, ErrCollectionNotFound) {
			d.log.Warn("read collection, using default",
				zap.String("collection", string(c)), zap.Error(err))
		}
		return def, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		d.log.Warn("malformed collection, using default",
			zap.String("collection", string(c)), zap.Error(err))
		return def, data
	}
	return v, nil
}

// CorruptCollection names where Update keeps the last malformed copy of c.
func CorruptCollection(c Collection) Collection {
	return c + ".corrupt"
}

// Save replaces the stored value of c with v.
func Save[T any](ctx context.Context, d *DocStore, c Collection, v T) error {
	l := d.lock(c)
	l.Lock()
	defer l.Unlock()

	return save(ctx, d, c, v)
}

func save[T any](ctx context.Context, d *DocStore, c Collection, v T) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", c, err)
	}
	if err := d.backend.Write(ctx, c, data); err != nil {
		return fmt.Errorf("save %s: %w", c, err)
	}
	return nil
}

// Update runs a load / mutate / save cycle on c while holding its lock. fn
// reports whether it changed the value; when it did not, nothing is written.
// An error from fn abandons the cycle without writing. Before a malformed
// document is replaced, its bytes are copied to CorruptCollection(c); if that
// copy fails nothing is written.
func Update[T any](ctx context.Context, d *DocStore, c Collection, def T, fn func(v *T) (bool, error)) error {
	l := d.lock(c)
	l.Lock()
	defer l.Unlock()

	v, malformed := load(ctx, d, c, def)
	changed, err := fn(&v)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if malformed != nil {
		if err := d.backend.Write(ctx, CorruptCollection(c), malformed); err != nil {
			return fmt.Errorf("keep malformed %s: %w", c, err)
		}
		d.log.Warn("replacing malformed collection, previous content kept",
			zap.String("collection", string(c)),
			zap.String("copy", string(CorruptCollection(c))))
	}
	return save(ctx, d, c, v)
}
