package kv

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

var log = slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: slog.LevelWarn}))

var ErrCommitted = errors.New("kv: transaction already committed")

type KeyAndValue struct {
	K []byte
	V []byte
}

// KV is the local state store. It holds operator state (session, view preferences),
// never fetched records.
type KV interface {
	Close() error
	Write() Write
	Read() Read
	Ping() error
}

type Read interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key []byte) ([]byte, error)
	Iter(ctx context.Context, start []byte, end []byte) iter.Seq2[KeyAndValue, error]
	Close()
}

type Write interface {
	Read
	Put(key []byte, value []byte) error
	Del(key []byte) error
	Commit(ctx context.Context) error
	Rollback() error
}

// PrefixEnd returns the exclusive upper bound for iterating every key under prefix.
func PrefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
