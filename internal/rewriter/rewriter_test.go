package rewriter

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body>" + body + "</body></html>"))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func opts(strategy Strategy, p int) Options {
	return Options{SourceLang: "en", TargetLang: "fr", Strategy: strategy, Probability: p, Rand: rand.New(rand.NewSource(1))}
}

func rewrite(doc *goquery.Document, m map[string]string, o Options) Report {
	return Rewrite(doc.Find("p, div, a"), m, BuildInverse(m, o), o)
}

func TestDeepReplacesAllMatchesAndToggles(t *testing.T) {
	doc := mustDoc(t, "<p>the quick brown fox the fox</p>")
	m := map[string]string{"fox": "renard"}

	rep := rewrite(doc, m, opts(Deep, 100))
	if rep.Replacements != 2 || rep.Nodes != 1 {
		t.Fatalf("report = %+v, want 2 replacements in 1 node", rep)
	}
	p := doc.Find("p")
	if got := p.Text(); got != "the quick brown renard the renard" {
		t.Fatalf("text = %q", got)
	}
	if p.Find("span."+UnitClass).Length() != 1 {
		t.Fatalf("text node should be wrapped in a unit span")
	}
	rendered, _ := p.Html()

	if n := Toggle(doc.Selection); n != 2 {
		t.Fatalf("Toggle = %d, want 2", n)
	}
	if got := p.Text(); got != "the quick brown fox the fox" {
		t.Fatalf("toggled text = %q", got)
	}
	Toggle(doc.Selection)
	again, _ := p.Html()
	if again != rendered {
		t.Fatalf("toggle twice should restore markup:\n%s\n%s", rendered, again)
	}
}

// 多个原词共用一个译词时，每个标记仍保留自己的原词
func TestSharedTranslationKeepsEachOriginal(t *testing.T) {
	doc := mustDoc(t, "<p>le chat et la souris</p>")
	m := map[string]string{"le": "the", "la": "the"}

	rep := rewrite(doc, m, opts(Deep, 100))
	if rep.Replacements != 2 {
		t.Fatalf("replacements = %d, want 2", rep.Replacements)
	}
	p := doc.Find("p")
	if got := p.Text(); got != "the chat et the souris" {
		t.Fatalf("text = %q", got)
	}

	got := Markers(doc.Selection)
	if len(got) != 2 || got[0].Original != "le" || got[1].Original != "la" {
		t.Fatalf("markers = %+v, want originals le, la", got)
	}
	for i, mk := range got {
		if mk.Original != rep.Markers[i].Original || mk.Translated != "the" {
			t.Fatalf("marker %d = %+v, report = %+v", i, mk, rep.Markers[i])
		}
	}

	rendered, _ := p.Html()
	Toggle(doc.Selection)
	if got := p.Text(); got != "le chat et la souris" {
		t.Fatalf("toggled text = %q", got)
	}
	Toggle(doc.Selection)
	if again, _ := p.Html(); again != rendered {
		t.Fatalf("toggle twice should restore markup:\n%s\n%s", rendered, again)
	}
}

func TestBuildInverseKeyedBySource(t *testing.T) {
	inv := BuildInverse(map[string]string{"der": "the", "die": "the", "das": "the"}, opts(Deep, 100))
	if len(inv) != 3 {
		t.Fatalf("len(inv) = %d, want 3", len(inv))
	}
	for _, src := range []string{"der", "die", "das"} {
		if !strings.Contains(inv[src], `data-original="`+src+`"`) {
			t.Fatalf("fragment for %q = %s", src, inv[src])
		}
	}
}

func TestDeepTargetCount(t *testing.T) {
	doc := mustDoc(t, "<p>fox fox fox fox</p>")
	rep := rewrite(doc, map[string]string{"fox": "renard"}, opts(Deep, 50))
	if rep.Replacements != 2 {
		t.Fatalf("replacements = %d, want 2", rep.Replacements)
	}
	if got := doc.Find("p").Text(); got != "renard renard fox fox" {
		t.Fatalf("text = %q", got)
	}

	doc = mustDoc(t, "<p>fox dog</p>")
	if rep := rewrite(doc, map[string]string{"fox": "renard"}, opts(Deep, 10)); rep.Replacements != 0 {
		t.Fatalf("target 0 should replace nothing, got %d", rep.Replacements)
	}
	if doc.Find("span").Length() != 0 {
		t.Fatalf("untouched node should not be wrapped")
	}
}

func TestOneWordAtMostOnePerSentence(t *testing.T) {
	doc := mustDoc(t, "<p>The fox and the dog run. The fox sleeps. Nothing here</p>")
	m := map[string]string{"fox": "renard", "dog": "chien"}

	rep := rewrite(doc, m, opts(OneWord, 100))
	if rep.Replacements != 2 {
		t.Fatalf("replacements = %d, want 2", rep.Replacements)
	}
	text := doc.Find("p").Text()
	first := strings.Split(text, ".")[0]
	if strings.Contains(first, "renard") == strings.Contains(first, "chien") {
		t.Fatalf("first sentence should have exactly one replacement: %q", first)
	}
	if !strings.HasSuffix(text, ". The renard sleeps. Nothing here") {
		t.Fatalf("delimiters should be preserved: %q", text)
	}
}

func TestOneWordLogographic(t *testing.T) {
	doc := mustDoc(t, "<div>我喜欢狐狸。狐狸很快。</div>")
	rep := rewrite(doc, map[string]string{"狐": "fox"}, opts(OneWord, 100))
	if rep.Replacements != 2 {
		t.Fatalf("replacements = %d, want 2", rep.Replacements)
	}
	if got := doc.Find("div").Text(); got != "我喜欢fox狸。fox狸很快。" {
		t.Fatalf("text = %q", got)
	}
}

func TestOnlyDirectTextNodes(t *testing.T) {
	doc := mustDoc(t, "<p>fox <b>fox</b> fox</p>")
	rep := rewrite(doc, map[string]string{"fox": "renard"}, opts(Deep, 100))
	if rep.Replacements != 2 {
		t.Fatalf("replacements = %d, want 2", rep.Replacements)
	}
	if got := doc.Find("b").Text(); got != "fox" {
		t.Fatalf("markup-bearing node changed: %q", got)
	}
}

func TestTextIsEscaped(t *testing.T) {
	doc := mustDoc(t, "<p>a &lt;b&gt; fox</p>")
	rewrite(doc, map[string]string{"fox": "renard"}, opts(Deep, 100))
	if doc.Find("p b").Length() != 0 {
		t.Fatalf("escaped text must not become markup")
	}
	if got := doc.Find("p").Text(); got != "a <b> renard" {
		t.Fatalf("text = %q", got)
	}
}

func TestPunctuationKeptOutsideMarker(t *testing.T) {
	doc := mustDoc(t, "<p>The fox, and (fox).</p>")
	rep := rewrite(doc, map[string]string{"fox": "renard"}, opts(Deep, 100))
	if rep.Replacements != 2 {
		t.Fatalf("replacements = %d", rep.Replacements)
	}
	if got := doc.Find("p").Text(); got != "The renard, and (renard)." {
		t.Fatalf("text = %q", got)
	}
}

func TestMarkersAndDifficulty(t *testing.T) {
	doc := mustDoc(t, "<p>the fox</p>")
	o := opts(Deep, 100)
	o.Difficulty = map[string]string{"renard": "h"}
	rewrite(doc, map[string]string{"fox": "renard"}, o)

	mk := Markers(doc.Selection)
	if len(mk) != 1 {
		t.Fatalf("markers = %d", len(mk))
	}
	want := Marker{Original: "fox", Translated: "renard", Showing: ShowingTranslated, Difficulty: "h"}
	if mk[0] != want {
		t.Fatalf("marker = %+v, want %+v", mk[0], want)
	}
	span := doc.Find("span." + MarkerClass)
	if span.AttrOr("data-tl", "") != "fr" || span.AttrOr("data-actions", "") == "" {
		t.Fatalf("marker attributes missing: %v", span.Nodes[0].Attr)
	}

	Toggle(doc.Selection)
	if Markers(doc.Selection)[0].Showing != ShowingOriginal {
		t.Fatalf("marker should show original after toggle")
	}
}

func TestFragmentEscapesAttributes(t *testing.T) {
	f := Fragment(`a"b`, "x<y", Options{SourceLang: "en", TargetLang: "fr"})
	if strings.Contains(f, `a"b`) || strings.Contains(f, "x<y") {
		t.Fatalf("fragment not escaped: %s", f)
	}
}
