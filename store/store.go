// Package store persists generated trees as JSON documents keyed by map id.
package store

import (
	"context"
	"encoding/json"
	"time"

	"deepmap_research/config"
	"deepmap_research/tree"

	"github.com/cockroachdb/errors"
	nanoid "github.com/matoous/go-nanoid/v2"
)

var (
	// ErrNotFound is returned by Load and Delete for unknown ids.
	ErrNotFound = errors.New("map not found")

	// ErrCorruptRecord is returned when a stored document does not decode to a
	// valid tree, e.g. a null map_data or a null branch.
	ErrCorruptRecord = errors.New("corrupt map record")
)

// Record is one stored tree. Expanding a map saves a new record whose ParentID
// points at the map it grew from, so earlier versions stay loadable.
type Record struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	// Prompt is the root prompt, kept beside the tree for listings.
	Prompt    string     `json:"prompt,omitempty"`
	Tree      *tree.Node `json:"map_data"`
	CreatedAt time.Time  `json:"created_at"`
}

type Store interface {
	Save(ctx context.Context, rec *Record) error
	Load(ctx context.Context, id string) (*Record, error)
	// List returns ids ordered by creation time, oldest first.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

const idLength = 21

// NewID returns a fresh map id.
func NewID() string {
	id, err := nanoid.New(idLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return "map_" + id
}

// Open builds the store selected by cfg.Driver.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			WithPrefix(cfg.RedisPrefix), WithTTL(cfg.RedisTTL)), nil
	case "badger":
		return NewBadger(BadgerOptions{Dir: cfg.BadgerDir})
	default:
		return nil, errors.Newf("store driver %s not supported", cfg.Driver)
	}
}

// decodeRecord unmarshals a stored document and checks its tree.
func decodeRecord(id string, data []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "record %s: %v", id, err)
	}
	if err := rec.Tree.Validate(); err != nil {
		return nil, errors.Wrapf(ErrCorruptRecord, "record %s: %v", id, err)
	}
	return &rec, nil
}

func checkRecord(rec *Record) error {
	if rec == nil || rec.ID == "" {
		return errors.New("record id is required")
	}
	return rec.Tree.Validate()
}
