package bus

import (
	"context"
	"sync"
	"time"
)

// subscriber channels are buffered; a slow subscriber misses messages instead of
// blocking the sender
const subBuffer = 16

type SoloLock struct {
	ctx context.Context

	expectedKeepAlive time.Duration
	lastKeepAlive     time.Time
	cancel            func()
	fKeepalive        func() error
	fUnlock           func()
}

func (self *SoloLock) Deadline() (deadline time.Time, ok bool) {
	return self.ctx.Deadline()
}

func (self *SoloLock) Done() <-chan struct{} {
	return self.ctx.Done()
}

func (self *SoloLock) Err() error {
	return self.ctx.Err()
}

func (self *SoloLock) Value(key any) any {
	return self.ctx.Value(key)
}

func (self *SoloLock) KeepAlive() error {
	return self.fKeepalive()
}

func (self *SoloLock) Unlock() {
	self.fUnlock()
}

type SoloBus struct {
	m      sync.Mutex
	locks  map[string]*SoloLock
	subs   map[string]map[int]chan []byte
	nextID int
	closed bool
	stop   chan struct{}
}

func (s *SoloBus) Lock(ctx context.Context, key string, ka time.Duration) (Lock, error) {
	s.m.Lock()
	defer s.m.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.locks[key] != nil {
		return nil, ErrLocked
	}

	ctx, cancel := context.WithCancel(ctx)
	sl := &SoloLock{
		expectedKeepAlive: ka,
		lastKeepAlive:     time.Now(),
		ctx:               ctx,
		cancel:            cancel,
	}
	sl.fUnlock = func() {
		s.m.Lock()
		defer s.m.Unlock()
		sl.cancel()
		// the lock may have expired and been taken by someone else meanwhile
		if s.locks[key] == sl {
			delete(s.locks, key)
		}
	}
	sl.fKeepalive = func() error {
		s.m.Lock()
		defer s.m.Unlock()

		if s.locks[key] != sl {
			return ErrNotLocked
		}
		sl.lastKeepAlive = time.Now()
		return nil
	}
	s.locks[key] = sl

	return sl, nil
}

func (self *SoloBus) Send(topic string, v []byte) error {
	self.m.Lock()
	defer self.m.Unlock()

	if self.closed {
		return ErrClosed
	}

	for _, ch := range self.subs[topic] {
		select {
		case ch <- v:
		default:
		}
	}

	return nil
}

// Subscribe registers a listener on topic. The returned func unsubscribes and closes
// the channel.
func (self *SoloBus) Subscribe(topic string) (<-chan []byte, func()) {
	self.m.Lock()
	defer self.m.Unlock()

	ch := make(chan []byte, subBuffer)
	if self.closed {
		close(ch)
		return ch, func() {}
	}

	id := self.nextID
	self.nextID++
	if self.subs[topic] == nil {
		self.subs[topic] = make(map[int]chan []byte)
	}
	self.subs[topic][id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			self.m.Lock()
			defer self.m.Unlock()
			if c, ok := self.subs[topic][id]; ok {
				delete(self.subs[topic], id)
				if len(self.subs[topic]) == 0 {
					delete(self.subs, topic)
				}
				close(c)
			}
		})
	}
}

func (self *SoloBus) Close() error {
	self.m.Lock()
	defer self.m.Unlock()

	if self.closed {
		return nil
	}
	self.closed = true
	close(self.stop)

	for _, l := range self.locks {
		l.cancel()
	}
	self.locks = map[string]*SoloLock{}

	for topic, subs := range self.subs {
		for _, ch := range subs {
			close(ch)
		}
		delete(self.subs, topic)
	}
	return nil
}

func NewSolo() (Bus, error) {

	self := &SoloBus{
		locks: make(map[string]*SoloLock),
		subs:  make(map[string]map[int]chan []byte),
		stop:  make(chan struct{}),
	}

	go func() {
		t := time.NewTicker(time.Millisecond * 200)
		defer t.Stop()
		for {
			select {
			case <-self.stop:
				return
			case <-t.C:
			}
			self.m.Lock()
			for k, v := range self.locks {
				if time.Since(v.lastKeepAlive) > v.expectedKeepAlive {
					v.cancel()
					delete(self.locks, k)
				}
			}
			self.m.Unlock()
		}
	}()

	return self, nil
}
