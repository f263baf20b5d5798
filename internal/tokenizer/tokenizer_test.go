package tokenizer

import (
	"reflect"
	"testing"

	"github.com/LJTian/WordWeave/internal/script"
)

func TestCountUnigrams(t *testing.T) {
	got := Count([]string{"the quick brown fox the fox"}, 1, 1)
	want := TokenCount{"the": 2, "quick": 1, "brown": 1, "fox": 2}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Count = %v, want %v", got, want)
	}
}

func TestCountBigramsFullWindowsOnly(t *testing.T) {
	got := Count([]string{"a b c"}, 1, 2)
	want := TokenCount{"a": 1, "b": 1, "c": 1, "a b": 1, "b c": 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Count = %v, want %v", got, want)
	}
}

func TestUnitsDelimitedSeparators(t *testing.T) {
	units, s := Units("Hello, world. (v2) of 3 apps")
	if s != script.Delimited {
		t.Fatalf("script = %v, want delimited", s)
	}
	want := []string{"Hello", "world", "v", "of", "apps"}
	if !reflect.DeepEqual(units, want) {
		t.Fatalf("Units = %q, want %q", units, want)
	}
}

func TestUnitsLogographicStripsDigitsAndParens(t *testing.T) {
	units, s := Units("我有 2 只(狐狸)")
	if s != script.Logographic {
		t.Fatalf("script = %v, want logographic", s)
	}
	want := []string{"我", "有", "只", "狐", "狸"}
	if !reflect.DeepEqual(units, want) {
		t.Fatalf("Units = %q, want %q", units, want)
	}

	// 表意文字的 n-gram 直接拼接
	counts := Count([]string{"狐狸狐狸"}, 2, 2)
	if counts["狐狸"] != 2 || counts["狸狐"] != 1 {
		t.Fatalf("logographic bigrams = %v", counts)
	}
}

func TestCountEmptyRegions(t *testing.T) {
	got := Count([]string{"", "   \n\t", "12 34"}, 1, 3)
	if len(got) != 0 {
		t.Fatalf("empty regions should contribute nothing: %v", got)
	}
	if len(Count([]string{"a b"}, 3, 2)) != 0 {
		t.Fatalf("max < min should yield nothing")
	}
	if Count([]string{"a"}, 0, 1)["a"] != 1 {
		t.Fatalf("min < 1 should be raised to 1")
	}
}

func TestLedgerClaimIsMonotonic(t *testing.T) {
	l := NewLedger()

	first := l.Claim([]int{0, 1, 2, 1})
	if !reflect.DeepEqual(first, []int{0, 1, 2}) {
		t.Fatalf("first Claim = %v", first)
	}
	second := l.Claim([]int{1, 2, 3})
	if !reflect.DeepEqual(second, []int{3}) {
		t.Fatalf("second Claim = %v, want [3]", second)
	}
	if len(l.Claim([]int{0, 1, 2, 3})) != 0 {
		t.Fatalf("all regions already processed")
	}
	if !l.Processed(3) || l.Processed(4) || l.Len() != 4 {
		t.Fatalf("ledger state mismatch: len=%d", l.Len())
	}
}

// 同一区域在多次调用中只计数一次
func TestRegionTokensCountedOnce(t *testing.T) {
	regions := []string{"fox", "the fox", "fox fox"}
	l := NewLedger()
	total := make(TokenCount)
	for _, visible := range [][]int{{0, 1}, {0, 1, 2}, {2}, {0, 1, 2}} {
		var texts []string
		for _, i := range l.Claim(visible) {
			texts = append(texts, regions[i])
		}
		for k, v := range Count(texts, 1, 1) {
			total.Add(k, v)
		}
	}
	if total["fox"] != 4 || total["the"] != 1 {
		t.Fatalf("total = %v", total)
	}
}
