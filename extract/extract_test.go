package extract

import (
	"strings"
	"testing"
)

const landmarkPage = `<!DOCTYPE html>
<html><head><title>Blue Mosque — Official Site</title></head>
<body>
<nav><a href="/">Home</a> <a href="/tickets">Tickets</a> <a href="/visit">Visit</a></nav>
<main>
<h1>Blue Mosque</h1>
<p>The Sultan Ahmed Mosque is an Ottoman-era imperial mosque located in Istanbul,
famous for the hand-painted blue tiles that adorn its interior walls and its six minarets.</p>
</main>
<footer>© Example — all rights reserved — contact — privacy — terms</footer>
</body></html>`

func TestExtract_PrefersLandmark(t *testing.T) {
	// WHAT: <main> content is returned; nav and footer text is not.
	// WHY: Enrichment must not fold menus and legal footers into venue content.
	res, err := Extract([]byte(landmarkPage), Options{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "Ottoman-era imperial mosque") {
		t.Errorf("main text missing: %q", res.Text)
	}
	if strings.Contains(res.Text, "Tickets") {
		t.Errorf("nav text leaked into content: %q", res.Text)
	}
	if strings.Contains(res.Text, "all rights reserved") {
		t.Errorf("footer text leaked into content: %q", res.Text)
	}
	if res.Title != "Blue Mosque — Official Site" {
		t.Errorf("title: got %q", res.Title)
	}
}

func TestExtract_DensityFallback(t *testing.T) {
	// WHAT: Without landmarks, the densest non-link subtree wins.
	// WHY: Many venue sites are plain div soup.
	page := `<html><body>
<div class="menu"><a href="/a">A</a><a href="/b">B</a><a href="/c">C</a><a href="/d">D</a></div>
<div>` + strings.Repeat("A long paragraph about the venue and its history. ", 10) + `</div>
</body></html>`
	res, err := Extract([]byte(page), Options{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.Contains(res.Text, "long paragraph about the venue") {
		t.Errorf("dense content missing: %q", res.Text)
	}
}

func TestExtract_BoilerplateClassHints(t *testing.T) {
	// WHAT: class hints like "cookie" exclude a subtree from density scoring.
	// WHY: Cookie banners routinely out-weigh short venue descriptions.
	page := `<html><body>
<div class="cookie-consent">` + strings.Repeat("We value your privacy and use cookies. ", 20) + `</div>
<div class="about">` + strings.Repeat("The venue opened in 1616 and welcomes visitors daily. ", 5) + `</div>
</body></html>`
	res, err := Extract([]byte(page), Options{MinTextLen: 40})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if strings.Contains(res.Text, "We value your privacy") {
		t.Errorf("cookie banner won density scoring: %q", res.Text)
	}
	if !strings.Contains(res.Text, "opened in 1616") {
		t.Errorf("content missing: %q", res.Text)
	}
}

func TestExtract_EmptyPage(t *testing.T) {
	// WHAT: A page with no qualifying content returns an empty Result, not an error.
	// WHY: Callers treat empty text as "nothing to enrich", not a failure.
	res, err := Extract([]byte(`<html><body><p>hi</p></body></html>`), Options{})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Text != "" {
		t.Errorf("expected empty text, got %q", res.Text)
	}
}

func TestCleanText(t *testing.T) {
	in := "  a   b \n\n\n c\t d  \n"
	want := "a b\nc d"
	if got := CleanText(in); got != want {
		t.Errorf("CleanText: got %q, want %q", got, want)
	}
}
