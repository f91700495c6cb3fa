package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mall-parking/internal/parking"
)

// Locker is a per-key mutex for a single process. ttl bounds how long Lock
// waits for the key. A key is forgotten once nobody holds or waits for it.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

var _ parking.Locker = (*Locker)(nil)

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*keyLock)}
}

func (l *Locker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	kl := l.acquire(key)

	if ttl > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ttl)
		defer cancel()
	}

	select {
	case kl.ch <- struct{}{}:
		return sync.OnceFunc(func() {
			<-kl.ch
			l.release(key, kl)
		}), nil
	case <-ctx.Done():
		l.release(key, kl)
		return nil, fmt.Errorf("key %s: %w", key, parking.ErrLockTimeout)
	}
}

func (l *Locker) acquire(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.locks[key] = kl
	}
	kl.refs++
	return kl
}

func (l *Locker) release(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.locks, key)
	}
}

