// Package bus is the in-process message bus views use to learn that their data changed.
package bus

import (
	"context"
	"errors"
	"time"
)

var ErrLocked = errors.New("locked")
var ErrNotLocked = errors.New("not locked")
var ErrClosed = errors.New("bus closed")

type Lock interface {
	context.Context
	Unlock()
	KeepAlive() error
}

type Bus interface {
	Lock(ctx context.Context, key string, ka time.Duration) (Lock, error)

	Send(topic string, v []byte) error
	Subscribe(topic string) (<-chan []byte, func())

	Close() error
}
