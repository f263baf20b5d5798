package settings

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/LJTian/WordWeave/internal/apperrors"
	"github.com/LJTian/WordWeave/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T, overrides map[string]string) *storage.MemoryKV {
	t.Helper()
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	for k, v := range overrides {
		require.NoError(t, kv.Set(ctx, k, v))
	}
	require.NoError(t, Seed(ctx, kv))
	return kv
}

func TestSeedKeepsExistingValues(t *testing.T) {
	kv := seeded(t, map[string]string{KeyTargetLanguage: "de"})
	v, ok, err := kv.Get(context.Background(), KeyTargetLanguage)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "de", v)

	v, _, _ = kv.Get(context.Background(), KeyNgramMax)
	assert.Equal(t, "1", v)
}

func TestLoadDefaults(t *testing.T) {
	s, err := Load(context.Background(), storage.NewMemoryKV())
	require.NoError(t, err)
	assert.True(t, s.Activation)
	assert.Equal(t, "en", s.SourceLanguage)
	assert.Equal(t, 15, s.TranslationProbability)
	assert.True(t, s.Blacklist.Trivial())
	assert.Equal(t, 0, ActivePattern(s.SavedPatterns))
	assert.NotNil(t, s.Stats)
	assert.NoError(t, s.Gate("https://example.com/"))
}

func TestLoadMalformedOverride(t *testing.T) {
	for _, key := range []string{KeyUserDefinedTranslations, KeyDifficultyBuckets, KeySavedPatterns} {
		t.Run(key, func(t *testing.T) {
			kv := seeded(t, map[string]string{key: "{not json"})
			_, err := Load(context.Background(), kv)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.KindMalformedOverride))
		})
	}
}

func TestLoadBadRegex(t *testing.T) {
	kv := seeded(t, map[string]string{KeyUserBlacklistedWords: "(a|"})
	_, err := Load(context.Background(), kv)
	assert.True(t, apperrors.Is(err, apperrors.KindMalformedOverride))
}

func TestLoadCorruptedCacheIsReset(t *testing.T) {
	kv := seeded(t, map[string]string{KeyCWMap: "nope", KeyCWAvailable: "true", KeyStats: "[1,2"})
	s, err := Load(context.Background(), kv)
	require.NoError(t, err)
	assert.False(t, s.CWAvailable)
	assert.Empty(t, s.CWMap)
	assert.Equal(t, 0, s.Stats.TotalWordsTranslated)
}

func TestGate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		url       string
		wantGap   bool
	}{
		{"active", nil, "https://news.example.com/a", false},
		{"activation off", map[string]string{KeyActivation: "false"}, "https://a.com", true},
		{"do not translate", map[string]string{KeyDoNotTranslate: "true"}, "https://a.com", true},
		{"blacklisted", map[string]string{KeyBlacklist: "(mail.example|bank)"}, "https://mail.example.com/inbox", true},
		{"blacklist miss", map[string]string{KeyBlacklist: "(bank)"}, "https://news.example.com", false},
		{"no active pattern", map[string]string{KeySavedPatterns: `[["en","fr","15",false,"Free",0]]`}, "https://a.com", true},
		{"user defined only ignores patterns", map[string]string{KeySavedPatterns: `[]`, KeyUserDefinedOnly: "true"}, "https://a.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Load(context.Background(), seeded(t, tt.overrides))
			require.NoError(t, err)
			err = s.Gate(tt.url)
			if !tt.wantGap {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperrors.Is(err, apperrors.KindConfigurationGap), "got %v", err)
		})
	}
}

func TestBumpActivePattern(t *testing.T) {
	raw := `[["en","de","10",false,"Free",3],["en","fr","15",true,"Free",4]]`
	out, ok, err := BumpActivePattern(raw, 5)
	require.NoError(t, err)
	require.True(t, ok)

	var got [][]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, float64(3), got[0][5])
	assert.Equal(t, float64(9), got[1][5])

	_, ok, err = BumpActivePattern(`[["en","fr","15",false,"Free",0]]`, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = BumpActivePattern("broken", 1)
	assert.Error(t, err)
}

func TestBumpPadsShortPattern(t *testing.T) {
	out, ok, err := BumpActivePattern(`[["en","fr","15","true"]]`, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[["en","fr","15","true",0,2]]`, out)
}
