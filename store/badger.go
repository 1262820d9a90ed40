package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	badger "github.com/dgraph-io/badger/v4"
)

var badgerPrefix = []byte("map/")

// Badger is a Store backed by an embedded BadgerDB.
type Badger struct {
	db *badger.DB
}

type BadgerOptions struct {
	// Dir is the directory for BadgerDB data files. Required unless InMemory.
	Dir string

	// InMemory runs BadgerDB without touching disk.
	InMemory bool
}

func NewBadger(opts BadgerOptions) (*Badger, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("store: BadgerOptions.Dir is required for on-disk mode")
	}
	dbOpts := badger.DefaultOptions(opts.Dir)
	if opts.InMemory {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	}
	dbOpts = dbOpts.WithLogger(badgerLogger{})
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger")
	}
	return &Badger{db: db}, nil
}

func badgerKey(id string) []byte {
	return append(append([]byte{}, badgerPrefix...), id...)
}

func (b *Badger) Save(_ context.Context, rec *Record) error {
	if err := checkRecord(rec); err != nil {
		return err
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to marshal record")
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(rec.ID), data)
	})
}

func (b *Badger) Load(_ context.Context, id string) (*Record, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeRecord(id, val)
}

func (b *Badger) List(_ context.Context) ([]string, error) {
	var recs []Record
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: badgerPrefix, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(string(bytes.TrimPrefix(item.Key(), badgerPrefix)), val)
				if err != nil {
					return err
				}
				recs = append(recs, Record{ID: rec.ID, CreatedAt: rec.CreatedAt})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	ids := make([]string, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	return ids, nil
}

func (b *Badger) Delete(_ context.Context, id string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(badgerKey(id))
	})
}

func (b *Badger) Close() error {
	return b.db.Close()
}

// badgerLogger routes badger output to slog, dropping its chatty info lines.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error("badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn("badger: " + strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Infof(string, ...any)  {}
func (badgerLogger) Debugf(string, ...any) {}
