package booth

import "sync"

// DefaultReelCapacity はリールのデフォルト最大枚数
const DefaultReelCapacity = 3

// Reel は撮影画像を新しい順に保持する固定長のリール
// 容量を超えると最も古い画像から捨てる
type Reel struct {
	slots []Artifact
	head  int // 最新の画像の位置
	size  int
	mu    sync.RWMutex
}

// NewReel は新しいReelを作成する
func NewReel(capacity int) *Reel {
	if capacity <= 0 {
		capacity = DefaultReelCapacity
	}
	return &Reel{
		slots: make([]Artifact, capacity),
	}
}

// Insert は画像を先頭に追加する
func (r *Reel) Insert(a Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()

	capacity := len(r.slots)

	// 満杯の場合、新しい先頭位置は最も古い画像の位置と一致する
	r.head = (r.head - 1 + capacity) % capacity
	r.slots[r.head] = a
	if r.size < capacity {
		r.size++
	}
}

// Snapshot は新しい順の画像一覧を返す
func (r *Reel) Snapshot() []Artifact {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Artifact, r.size)
	for i := range out {
		out[i] = r.slots[(r.head+i)%len(r.slots)]
	}
	return out
}

// Len は保持している枚数を返す
func (r *Reel) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

// Capacity は最大枚数を返す
func (r *Reel) Capacity() int {
	return len(r.slots)
}
