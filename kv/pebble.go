package kv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
)

type Pebbledb struct {
	db *pebble.DB

	// pebble batches are not isolated from each other, serialise writers instead
	writeLock sync.Mutex
}

type PebbleWrite struct {
	p        *Pebbledb
	batch    *pebble.Batch
	err      error
	finished bool
}

func (p *Pebbledb) Write() Write {
	p.writeLock.Lock()
	return &PebbleWrite{p: p, batch: p.db.NewIndexedBatch()}
}

func (w *PebbleWrite) finish() {
	if w.finished {
		return
	}
	w.finished = true
	w.batch.Close()
	w.p.writeLock.Unlock()
}

func (w *PebbleWrite) Commit(ctx context.Context) error {
	if w.finished {
		return ErrCommitted
	}
	defer w.finish()

	if w.err != nil {
		return w.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := w.batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("pebble commit: %w", err)
	}
	return nil
}

func (w *PebbleWrite) Rollback() error {
	if w.finished {
		return nil
	}
	w.finish()
	return w.err
}

func (w *PebbleWrite) Close() {
	w.Rollback()
}

func (w *PebbleWrite) Put(key []byte, value []byte) error {
	if w.finished {
		return ErrCommitted
	}
	if w.err != nil {
		return w.err
	}
	if err := w.batch.Set(key, value, nil); err != nil {
		w.err = err
	}
	log.Debug("[pebble].Put", "key", string(key), "err", w.err)
	return w.err
}

func (w *PebbleWrite) Del(key []byte) error {
	if w.finished {
		return ErrCommitted
	}
	if w.err != nil {
		return w.err
	}
	if err := w.batch.Delete(key, nil); err != nil {
		w.err = err
	}
	return w.err
}

func (w *PebbleWrite) Get(ctx context.Context, key []byte) ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return get(w.batch, key)
}

func (w *PebbleWrite) Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error] {
	return scan(ctx, w.batch.NewIter, start, end)
}

type PebbleRead struct {
	snapshot *pebble.Snapshot
}

func (p *Pebbledb) Read() Read {
	return &PebbleRead{snapshot: p.db.NewSnapshot()}
}

func (r *PebbleRead) Get(ctx context.Context, key []byte) ([]byte, error) {
	return get(r.snapshot, key)
}

func (r *PebbleRead) Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error] {
	return scan(ctx, r.snapshot.NewIter, start, end)
}

func (r *PebbleRead) Close() {
	r.snapshot.Close()
}

type getter interface {
	Get(key []byte) ([]byte, io.Closer, error)
}

func get(g getter, key []byte) ([]byte, error) {
	val, closer, err := g.Get(key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		log.Debug("[pebble].Get", "key", string(key), "err", err)
		return nil, err
	}
	defer closer.Close()

	// the value is only valid until closer.Close
	return append([]byte(nil), val...), nil
}

func scan(ctx context.Context, newIter func(*pebble.IterOptions) (*pebble.Iterator, error), start, end []byte) iter.Seq2[KeyAndValue, error] {
	return func(yield func(KeyAndValue, error) bool) {
		it, err := newIter(&pebble.IterOptions{LowerBound: start, UpperBound: end})
		if err != nil {
			yield(KeyAndValue{}, err)
			return
		}
		defer it.Close()

		for it.First(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				yield(KeyAndValue{}, err)
				return
			}
			kv := KeyAndValue{
				K: append([]byte(nil), it.Key()...),
				V: append([]byte(nil), it.Value()...),
			}
			if !yield(kv, nil) {
				return
			}
		}

		if err := it.Error(); err != nil {
			yield(KeyAndValue{}, err)
		}
	}
}

func (p *Pebbledb) Ping() error {
	_, closer, err := p.db.Get([]byte("\x00ping"))
	if err == nil {
		closer.Close()
		return nil
	}
	if errors.Is(err, pebble.ErrNotFound) {
		return nil
	}
	return err
}

func (p *Pebbledb) Close() error {
	return p.db.Close()
}

// NewPebble opens (or creates) the on-disk store in dir.
func NewPebble(dir string) (KV, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", dir, err)
	}
	return &Pebbledb{db: db}, nil
}

// NewMemPebble creates an in-memory store for tests.
func NewMemPebble() (KV, error) {
	db, err := pebble.Open("", &pebble.Options{FS: vfs.NewMem()})
	if err != nil {
		return nil, err
	}
	return &Pebbledb{db: db}, nil
}
