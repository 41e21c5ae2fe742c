package stockimg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
)

func TestSearch_NoDeficit(t *testing.T) {
	// WHAT: deficit ≤ 0 returns nil without any network call.
	// WHY: Items that already meet their image quota must not be touched.
	p := New(Config{}, nil)
	if got := p.Search(context.Background(), "blue mosque", 0); got != nil {
		t.Errorf("got %v, want nil", got)
	}
	if got := p.Search(context.Background(), "blue mosque", -3); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestSearch_PlaceholdersWithoutKey(t *testing.T) {
	// WHAT: No access key → exactly deficit deterministic placeholders.
	// WHY: The offline path must keep the image-count invariant intact.
	p := New(Config{}, nil)
	got := p.Search(context.Background(), "Hagia Sophia", 3)
	if len(got) != 3 {
		t.Fatalf("got %d urls, want 3", len(got))
	}
	again := p.Search(context.Background(), "Hagia Sophia", 3)
	if !reflect.DeepEqual(got, again) {
		t.Errorf("placeholders not deterministic:\n%v\n%v", got, again)
	}
	if !strings.Contains(got[0], "hagia-sophia-0") {
		t.Errorf("seed slug missing: %q", got[0])
	}
}

func TestSearch_LiveResults(t *testing.T) {
	// WHAT: Live search scopes the query by city and honors the count.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("query") != "grand bazaar Istanbul" {
			t.Errorf("query: %q", q.Get("query"))
		}
		if q.Get("per_page") != "2" {
			t.Errorf("per_page: %q", q.Get("per_page"))
		}
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"urls": map[string]string{"regular": "https://img.example.com/a.jpg"}},
				{"urls": map[string]string{"regular": "https://img.example.com/b.jpg"}},
			},
		})
	}))
	defer srv.Close()

	p := New(Config{AccessKey: "key", BaseURL: srv.URL}, nil)
	got := p.Search(context.Background(), "grand bazaar", 2)
	want := []string{"https://img.example.com/a.jpg", "https://img.example.com/b.jpg"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestSearch_TopUpShortResults(t *testing.T) {
	// WHAT: A short live result is topped up to exactly deficit entries.
	// WHY: Callers rely on len(result) == deficit, never less.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{
				{"urls": map[string]string{"regular": "https://img.example.com/only.jpg"}},
			},
		})
	}))
	defer srv.Close()

	p := New(Config{AccessKey: "key", BaseURL: srv.URL}, nil)
	got := p.Search(context.Background(), "galata tower", 4)
	if len(got) != 4 {
		t.Fatalf("got %d urls, want 4", len(got))
	}
	if got[0] != "https://img.example.com/only.jpg" {
		t.Errorf("live result not first: %q", got[0])
	}
	for i, u := range got[1:] {
		if !strings.Contains(u, "galata-tower") {
			t.Errorf("top-up %d not a placeholder: %q", i+1, u)
		}
	}
}

func TestSearch_FallbackOnServerError(t *testing.T) {
	// WHAT: A failing search degrades to all placeholders, never to fewer
	// images.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := New(Config{AccessKey: "key", BaseURL: srv.URL}, nil)
	got := p.Search(context.Background(), "basilica cistern", 5)
	if len(got) != 5 {
		t.Fatalf("got %d urls, want 5", len(got))
	}
	for _, u := range got {
		if !strings.Contains(u, "basilica-cistern") {
			t.Errorf("expected placeholder, got %q", u)
		}
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Blue Mosque":         "blue-mosque",
		"  Topkapı  Palace  ": "topkapı-palace",
		"café & bar 42":       "café-bar-42",
		"":                    "",
	}
	for in, want := range cases {
		if got := slug(in); got != want {
			t.Errorf("slug(%q): got %q, want %q", in, got, want)
		}
	}
}
