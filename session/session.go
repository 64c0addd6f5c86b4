// Package session holds the operator's bearer token for the marketplace API.
//
// There is exactly one session per process. It is persisted in the local kv store so
// a login survives restarts, and it is the only place the HTTP client reads the token
// from.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/homy/homyadmin/kv"
)

var ErrNoSession = errors.New("not logged in")

var tokenKey = []byte("session/token")

type Session struct {
	kv kv.KV

	m     sync.RWMutex
	token string
}

// Open loads the persisted token, if any. A nil store gives a memory-only session.
func Open(ctx context.Context, store kv.KV) (*Session, error) {
	s := &Session{kv: store}
	if store == nil {
		return s, nil
	}

	r := store.Read()
	defer r.Close()

	b, err := r.Get(ctx, tokenKey)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	s.token = string(b)
	return s, nil
}

func (s *Session) Get() string {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.token
}

// Token is Get for callers that need a token to proceed.
func (s *Session) Token(ctx context.Context) (string, error) {
	t := s.Get()
	if t == "" {
		return "", ErrNoSession
	}
	return t, nil
}

func (s *Session) Set(ctx context.Context, token string) error {
	s.m.Lock()
	defer s.m.Unlock()

	if err := s.persist(ctx, []byte(token)); err != nil {
		return err
	}
	s.token = token
	return nil
}

func (s *Session) Clear(ctx context.Context) error {
	s.m.Lock()
	defer s.m.Unlock()

	if err := s.persist(ctx, nil); err != nil {
		return err
	}
	s.token = ""
	return nil
}

func (s *Session) persist(ctx context.Context, token []byte) error {
	if s.kv == nil {
		return nil
	}

	w := s.kv.Write()
	defer w.Rollback()

	var err error
	if len(token) == 0 {
		err = w.Del(tokenKey)
	} else {
		err = w.Put(tokenKey, token)
	}
	if err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	if err := w.Commit(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}
