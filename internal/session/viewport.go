package session

import "sort"

// RegionSelector 选出参与翻译的区域，按文档顺序编号
const RegionSelector = "p, div, a"

// Viewport 决定本轮哪些区域算作可见
type Viewport interface {
	Indices(total int) []int
}

// RegionRange 为半开区间 [From, To)
type RegionRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r RegionRange) Indices(total int) []int {
	from, to := max(r.From, 0), min(r.To, total)
	if from >= to {
		return nil
	}
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}

type allRegions struct{}

func (allRegions) Indices(total int) []int {
	return RegionRange{From: 0, To: total}.Indices(total)
}

// AllRegions 整页处理，命令行模式使用
var AllRegions Viewport = allRegions{}

// IndexSet 是渲染器计算出的可见下标，越界与重复的会被忽略
type IndexSet []int

func (s IndexSet) Indices(total int) []int {
	seen := make(map[int]struct{}, len(s))
	out := make([]int, 0, len(s))
	for _, i := range s {
		if i < 0 || i >= total {
			continue
		}
		if _, ok := seen[i]; ok {
			continue
		}
		seen[i] = struct{}{}
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}
