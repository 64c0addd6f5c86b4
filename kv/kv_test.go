package kv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPebbleReadYourWrites(t *testing.T) {
	k, err := NewMemPebble()
	require.NoError(t, err)
	defer k.Close()

	ctx := context.Background()

	w := k.Write()
	require.NoError(t, w.Put([]byte("session/token"), []byte("abc")))
	v, err := w.Get(ctx, []byte("session/token"))
	require.NoError(t, err)
	require.Equal(t, "abc", string(v))
	require.NoError(t, w.Commit(ctx))

	r := k.Read()
	defer r.Close()
	v, err = r.Get(ctx, []byte("session/token"))
	require.NoError(t, err)
	require.Equal(t, "abc", string(v))

	v, err = r.Get(ctx, []byte("missing"))
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestPebbleRollbackDiscards(t *testing.T) {
	k, err := NewMemPebble()
	require.NoError(t, err)
	defer k.Close()

	ctx := context.Background()

	w := k.Write()
	require.NoError(t, w.Put([]byte("a"), []byte("1")))
	require.NoError(t, w.Rollback())

	r := k.Read()
	defer r.Close()
	v, err := r.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.Nil(t, v)

	require.ErrorIs(t, w.Commit(ctx), ErrCommitted)
}

func TestPebbleIterPrefix(t *testing.T) {
	k, err := NewMemPebble()
	require.NoError(t, err)
	defer k.Close()

	ctx := context.Background()

	w := k.Write()
	for _, key := range []string{"view/orders", "view/chefs", "viewx", "session/token"} {
		require.NoError(t, w.Put([]byte(key), []byte(key)))
	}
	require.NoError(t, w.Commit(ctx))

	r := k.Read()
	defer r.Close()

	prefix := []byte("view/")
	var keys []string
	for kv, err := range r.Iter(ctx, prefix, PrefixEnd(prefix)) {
		require.NoError(t, err)
		keys = append(keys, string(kv.K))
	}
	require.Equal(t, []string{"view/chefs", "view/orders"}, keys)
}

func TestPrefixEnd(t *testing.T) {
	require.Equal(t, []byte("b"), PrefixEnd([]byte("a")))
	require.Equal(t, []byte{'a', 0x01}, PrefixEnd([]byte{'a', 0x00}))
	require.Equal(t, []byte{'b'}, PrefixEnd([]byte{'a', 0xff}))
	require.Nil(t, PrefixEnd([]byte{0xff, 0xff}))
}

func TestPebblePing(t *testing.T) {
	k, err := NewMemPebble()
	require.NoError(t, err)
	defer k.Close()
	require.NoError(t, k.Ping())
}
