package booth

import "sync"

// completionBarrier は決まった数の完了を数え、全件完了した時点で一度だけ fire を呼ぶ
// 完了の順序には依存しない
type completionBarrier struct {
	mu     sync.Mutex
	target int
	count  int
	fired  bool
	fire   func()
}

func newCompletionBarrier(target int, fire func()) *completionBarrier {
	return &completionBarrier{
		target: target,
		fire:   fire,
	}
}

// Done は完了を1件記録する。この呼び出しで確定した場合にtrueを返す
func (b *completionBarrier) Done() bool {
	b.mu.Lock()
	if b.fired {
		b.mu.Unlock()
		return false
	}
	b.count++
	if b.count < b.target {
		b.mu.Unlock()
		return false
	}
	b.fired = true
	b.mu.Unlock()

	b.fire()
	return true
}
