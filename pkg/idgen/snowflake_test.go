package idgen

import (
	"strings"
	"sync"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	Init(1)

	const n = 1000
	var mu sync.Mutex
	seen := make(map[int64]bool, n)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < n/4; j++ {
				id := NextID()
				mu.Lock()
				if seen[id] {
					t.Errorf("ID 重复: %d", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestMovementNoPrefix(t *testing.T) {
	Init(1)

	cases := []struct {
		no     string
		prefix string
	}{
		{GenerateActionNo(), "ACT"},
		{GenerateTransactionNo(), "TXN"},
		{GenerateTransferNo(), "TRF"},
	}
	for _, c := range cases {
		if !strings.HasPrefix(c.no, c.prefix) {
			t.Errorf("流水号 %s 缺少前缀 %s", c.no, c.prefix)
		}
		if len(c.no) != len(c.prefix)+14+8 {
			t.Errorf("流水号长度异常: %s", c.no)
		}
	}
}
