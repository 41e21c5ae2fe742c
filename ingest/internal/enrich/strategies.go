package enrich

import (
	"net/url"
	"regexp"
	"strings"
)

// ImageStrategy extracts candidate image URLs from raw page markup. Each
// strategy covers one markup pattern so they can be tested and swapped
// independently of the network call.
type ImageStrategy interface {
	Name() string
	Extract(markup string) []string
}

// DefaultStrategies returns the built-in extraction passes in merge order.
func DefaultStrategies() []ImageStrategy {
	return []ImageStrategy{
		imgTagStrategy{},
		lazyAttrStrategy{},
		cssBackgroundStrategy{},
		srcsetStrategy{},
	}
}

// imgTagStrategy matches standard <img src="..."> tags.
type imgTagStrategy struct{}

var imgTagRe = regexp.MustCompile(`(?i)<img[^>]+\bsrc\s*=\s*["']([^"']+)["']`)

func (imgTagStrategy) Name() string { return "img_tag" }

func (imgTagStrategy) Extract(markup string) []string {
	return firstGroups(imgTagRe, markup)
}

// lazyAttrStrategy matches lazy-loading attributes used by common galleries.
type lazyAttrStrategy struct{}

var lazyAttrRe = regexp.MustCompile(`(?i)\b(?:data-src|data-lazy-src|data-original)\s*=\s*["']([^"']+)["']`)

func (lazyAttrStrategy) Name() string { return "lazy_attr" }

func (lazyAttrStrategy) Extract(markup string) []string {
	return firstGroups(lazyAttrRe, markup)
}

// cssBackgroundStrategy matches inline CSS background-image declarations.
type cssBackgroundStrategy struct{}

var cssBackgroundRe = regexp.MustCompile(`(?i)background-image\s*:\s*url\(\s*['"]?([^'")]+)['"]?\s*\)`)

func (cssBackgroundStrategy) Name() string { return "css_background" }

func (cssBackgroundStrategy) Extract(markup string) []string {
	return firstGroups(cssBackgroundRe, markup)
}

// srcsetStrategy matches responsive srcset attributes, taking the first
// candidate of each entry.
type srcsetStrategy struct{}

var srcsetRe = regexp.MustCompile(`(?i)\b(?:srcset|data-srcset)\s*=\s*["']([^"']+)["']`)

func (srcsetStrategy) Name() string { return "srcset" }

func (srcsetStrategy) Extract(markup string) []string {
	var urls []string
	for _, set := range firstGroups(srcsetRe, markup) {
		for _, entry := range strings.Split(set, ",") {
			fields := strings.Fields(strings.TrimSpace(entry))
			if len(fields) > 0 {
				urls = append(urls, fields[0])
			}
		}
	}
	return urls
}

func firstGroups(re *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

// junkFragments mark obvious non-content assets: chrome, branding, ads,
// and tracking pixels.
var junkFragments = []string{
	"icon", "logo", "sprite", "favicon", "placeholder", "spacer", "blank",
	"1x1", "pixel", "tracking", "tracker", "advert", "banner", "badge",
	"avatar", "emoji", "captcha",
}

// ExtractImages runs every strategy over the raw markup, resolves relative
// URLs against base, drops junk assets, and deduplicates while preserving
// strategy order.
func ExtractImages(markup, base string, strategies ...ImageStrategy) []string {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		baseURL = nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, strat := range strategies {
		for _, raw := range strat.Extract(markup) {
			u := resolveImage(raw, baseURL)
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// resolveImage normalizes one candidate URL, returning "" for junk.
func resolveImage(raw string, base *url.URL) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "#") {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	lower := strings.ToLower(u.String())
	if strings.HasSuffix(u.Path, ".svg") || strings.HasSuffix(u.Path, ".gif") {
		return ""
	}
	for _, junk := range junkFragments {
		if strings.Contains(lower, junk) {
			return ""
		}
	}
	return u.String()
}
