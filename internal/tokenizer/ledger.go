package tokenizer

import "sync"

// Ledger 记录页面区域是否已经处理过；一旦标记，在页面生命周期内不会清除。
// Claim 只交出一次区域；翻译失败的那一轮由会话自行保留区域重跑，
// 此时该区域会被再次切词，失败轮的计数已丢弃。
type Ledger struct {
	mu        sync.Mutex
	processed map[int]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{processed: make(map[int]struct{})}
}

// Claim 标记并返回其中尚未处理的区域下标，保持输入顺序，重复下标只返回一次
func (l *Ledger) Claim(indices []int) []int {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]int, 0, len(indices))
	for _, i := range indices {
		if _, ok := l.processed[i]; ok {
			continue
		}
		l.processed[i] = struct{}{}
		out = append(out, i)
	}
	return out
}

func (l *Ledger) Processed(i int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.processed[i]
	return ok
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.processed)
}
