package lock

import (
	"context"
	"sync"
)

// LocalLocker 进程内账户锁，单实例部署与测试环境使用
// 每个账户对应一个容量为 1 的 channel，入队即持锁；
// 等待时间由调用方 ctx 限定，不会无限阻塞
type LocalLocker struct {
	mu    sync.Mutex
	locks map[int64]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[int64]chan struct{})}
}

func (l *LocalLocker) get(accountID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[accountID] = ch
	}
	return ch
}

func (l *LocalLocker) Lock(ctx context.Context, accountID int64) (func(), error) {
	ch := l.get(accountID)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ErrLockFailed
	}
}

var _ AccountLocker = (*LocalLocker)(nil)
