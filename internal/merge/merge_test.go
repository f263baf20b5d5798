package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/selector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTranslator struct {
	name   string
	out    map[string]string
	err    error
	called [][]string
}

func (f *fakeTranslator) Name() string { return f.name }

func (f *fakeTranslator) GetTranslations(_ context.Context, tokens []string) (map[string]string, error) {
	f.called = append(f.called, tokens)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]string)
	for _, t := range tokens {
		if v, ok := f.out[t]; ok {
			out[t] = v
		}
	}
	return out, nil
}

func TestPartition(t *testing.T) {
	hits, misses := Partition([]string{"the", "fox", "dog"}, map[string]string{"the": "le", "cat": "chat"})
	assert.Equal(t, map[string]string{"the": "le"}, hits)
	assert.Equal(t, []string{"fox", "dog"}, misses)
}

func TestMergePrecedence(t *testing.T) {
	m := Merge(Sources{
		Cached:      map[string]string{"fox": "c-fox", "dog": "c-dog", "cat": "c-cat"},
		Fetched:     map[string]string{"fox": "f-fox", "dog": "f-dog"},
		UserDefined: map[string]string{"fox": "u-fox", "owl": "hibou"},
	})
	assert.Equal(t, "u-fox", m["fox"].Translated)
	assert.Equal(t, UserDefined, m["fox"].Provenance)
	assert.Equal(t, "f-dog", m["dog"].Translated)
	assert.Equal(t, Fetched, m["dog"].Provenance)
	assert.Equal(t, "c-cat", m["cat"].Translated)
	assert.Equal(t, Cached, m["cat"].Provenance)
	// 用户词表即使不在候选里也生效
	assert.Equal(t, "hibou", m["owl"].Translated)
}

func TestMergeValidityFilter(t *testing.T) {
	m := Merge(Sources{
		Fetched: map[string]string{
			"fox":   "renard",
			"same":  "same",
			"empty": "",
			"num":   "n3",
			"brace": "{x}",
			"dot":   "a.b",
			"colon": "a:b",
		},
		UserDefined: map[string]string{"owl": "h1bou"},
	})
	assert.Equal(t, map[string]string{"fox": "renard"}, m.Plain())
	for w, e := range m {
		assert.NotEqual(t, w, e.Translated)
	}
}

func TestApplyLearnt(t *testing.T) {
	learnt, err := selector.CompileWordPattern("(Renard|chat)")
	require.NoError(t, err)

	m := Merge(Sources{Fetched: map[string]string{"fox": "renard", "cat": "chat", "dog": "chien"}})
	m = ApplyLearnt(m, learnt)
	assert.Equal(t, []string{"dog"}, m.Keys())

	trivial, _ := selector.CompileWordPattern("()")
	m2 := ApplyLearnt(Merge(Sources{Fetched: map[string]string{"fox": "renard"}}), trivial)
	assert.Len(t, m2, 1)
}

func TestEngineFetchesOnlyMisses(t *testing.T) {
	tr := &fakeTranslator{name: "Free", out: map[string]string{"fox": "renard", "dog": "chien"}}
	e := NewEngine(tr)

	res, err := e.Run(context.Background(), Request{
		Candidates:  []string{"the", "fox", "dog"},
		Cache:       map[string]string{"the": "le"},
		UserDefined: map[string]string{"dog": "toutou"},
	})
	require.NoError(t, err)
	require.Len(t, tr.called, 1)
	assert.Equal(t, []string{"fox", "dog"}, tr.called[0])
	assert.Equal(t, map[string]string{"the": "le", "fox": "renard", "dog": "toutou"}, res.Map.Plain())
	assert.Equal(t, 1, res.Hits)
	assert.Equal(t, 2, res.Misses)
	assert.Equal(t, Delta{Words: 3, Chars: 2 + 6 + 6, Provider: "Free", ProviderCounted: true}, res.Delta)
}

func TestEngineSkipsProviderWhenAllCached(t *testing.T) {
	tr := &fakeTranslator{name: "Free"}
	res, err := NewEngine(tr).Run(context.Background(), Request{
		Candidates: []string{"the"},
		Cache:      map[string]string{"the": "le"},
	})
	require.NoError(t, err)
	assert.Empty(t, tr.called)
	assert.Equal(t, "le", res.Map["the"].Translated)
}

func TestEngineFetchFailureAborts(t *testing.T) {
	tr := &fakeTranslator{name: "Free", err: errors.New("dial tcp: connection refused")}
	res, err := NewEngine(tr).Run(context.Background(), Request{
		Candidates:  []string{"fox"},
		UserDefined: map[string]string{"dog": "chien"},
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, apperrors.Is(err, apperrors.KindFetchFailure))

	_, err = NewEngine(nil).Run(context.Background(), Request{Candidates: []string{"fox"}})
	assert.True(t, apperrors.Is(err, apperrors.KindFetchFailure))
}

func TestEngineUserDefinedOnly(t *testing.T) {
	tr := &fakeTranslator{name: "Free"}
	res, err := NewEngine(tr).Run(context.Background(), Request{
		Candidates:      []string{"fox"},
		UserDefined:     map[string]string{"fox": "renard", "dog": "dog"},
		UserDefinedOnly: true,
	})
	require.NoError(t, err)
	assert.Empty(t, tr.called)
	assert.Equal(t, map[string]string{"fox": "renard"}, res.Map.Plain())
	assert.False(t, res.Delta.ProviderCounted)
}

func TestStatsApply(t *testing.T) {
	providers := []string{"Free", "Google"}
	day1 := time.Date(2026, 3, 31, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

	s := NewStats()
	s.Apply(Delta{Words: 2, Chars: 9, Provider: "Free", ProviderCounted: true}, providers, day1)
	s.Apply(Delta{Words: 1, Chars: 4, Provider: "Free", ProviderCounted: true}, providers, day1)
	assert.Equal(t, 3, s.TotalWordsTranslated)
	assert.Equal(t, Counter{3, 13, 13}, s.Current(0, "Free", day1))
	assert.Equal(t, Counter{3, 13, 13}, s.Current(1, "Free", day1))
	assert.Equal(t, Counter{}, s.Current(1, "Google", day1))

	// 跨月：两个桶都重置
	s.Apply(Delta{Words: 5, Chars: 20, ProviderCounted: false}, providers, day2)
	assert.Equal(t, 8, s.TotalWordsTranslated)
	assert.Equal(t, Counter{}, s.Current(0, "Free", day2))
	assert.Len(t, s.TranslatorWiseWordCount[0], 1)
	assert.Len(t, s.TranslatorWiseWordCount[1], 1)

	raw, err := s.Marshal()
	require.NoError(t, err)
	back, err := ParseStats(raw)
	require.NoError(t, err)
	assert.Equal(t, s, back)

	empty, err := ParseStats("")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalWordsTranslated)
	_, err = ParseStats("{bad")
	assert.Error(t, err)
}
