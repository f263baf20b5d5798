package commonwords

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
)

func TestEmbeddedFallsBackToBaseLanguage(t *testing.T) {
	e := NewEmbedded()
	words, err := e.Fetch(context.Background(), "en-US")
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if len(words) == 0 || words[0] != "the" {
		t.Fatalf("unexpected words: %v", words)
	}

	none, err := e.Fetch(context.Background(), "xx")
	if err != nil || none != nil {
		t.Fatalf("missing list should be (nil, nil), got %v, %v", none, err)
	}
}

func TestEmbeddedDecodeError(t *testing.T) {
	e := &Embedded{FS: fstest.MapFS{"en.json": {Data: []byte("{bad")}}}
	if _, err := e.Fetch(context.Background(), "en"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fr.json":
			_, _ = w.Write([]byte(`{"words":["le"," ","chat"]}`))
		case "/boom.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h := NewHTTP(srv.URL + "/")
	words, err := h.Fetch(context.Background(), "fr-CA")
	if err != nil || len(words) != 2 || words[1] != "chat" {
		t.Fatalf("Fetch = %v, %v", words, err)
	}
	if words, err := h.Fetch(context.Background(), "ja"); err != nil || words != nil {
		t.Fatalf("404 should be absent, got %v, %v", words, err)
	}
	if _, err := h.Fetch(context.Background(), "boom"); err == nil {
		t.Fatalf("500 should be an error")
	}

	c := Chain{h, NewEmbedded()}
	words, err = c.Fetch(context.Background(), "de")
	if err != nil || len(words) == 0 {
		t.Fatalf("chain should fall through to embedded: %v, %v", words, err)
	}
}
