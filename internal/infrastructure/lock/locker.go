package lock

import (
	"context"
	"errors"
	"sort"
)

var ErrLockFailed = errors.New("获取账户锁失败")

// AccountLocker 按账户维度的互斥锁
//
// 余额变更的"读余额 → 校验 → 写余额 + 落流水"序列必须在持锁状态下执行，
// 否则两个并发请求可能同时读到同一份旧余额并双双通过校验（超扣）。
//
// Lock 成功后返回释放函数；获取锁的等待时间有界，
// 超时或重试耗尽返回 ErrLockFailed，不允许无限阻塞。
type AccountLocker interface {
	Lock(ctx context.Context, accountID int64) (release func(), err error)
}

// LockAccounts 按账户 ID 升序依次加锁，返回统一的释放函数
//
// 转账涉及两个账户，若加锁顺序随转账方向而变，
// 两笔方向相反的并发转账会互相持有对方等待的锁而死锁；
// 固定全局顺序（ID 升序）后环路不可能出现。
// 任一锁获取失败时，已持有的锁按逆序回滚释放。
func LockAccounts(ctx context.Context, locker AccountLocker, accountIDs ...int64) (func(), error) {
	ids := make([]int64, len(accountIDs))
	copy(ids, accountIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	releases := make([]func(), 0, len(ids))
	for _, id := range ids {
		release, err := locker.Lock(ctx, id)
		if err != nil {
			for i := len(releases) - 1; i >= 0; i-- {
				releases[i]()
			}
			return nil, err
		}
		releases = append(releases, release)
	}

	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}, nil
}
