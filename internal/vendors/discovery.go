package vendors

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"goldradar/internal/fetch"
	"goldradar/internal/model"
)

const (
	maxURLsPerDomain = 200
	maxSitemaps      = 10
	requestDelay     = 900 * time.Millisecond
	// minDiscovered is the threshold below which the home page is crawled
	// as a last discovery fallback.
	minDiscovered = 20
)

// productPathKeywords flags paths that look like bullion product pages.
var productPathKeywords = []string{
	"gold", "goldmuenzen", "goldbarren",
	"barren", "bar", "muenze", "münze",
	"maple", "kruger", "krügerrand", "kruegerrand",
	"coin", "unze", "1oz", "100g", "100-g", "1-oz",
}

// PathRule decides whether a path is a product-detail candidate. Layout
// conventions differ per shop, so domains may plug in their own rule.
type PathRule func(path string) bool

var domainPathRules = map[string]PathRule{
	"philoro.de": philoroProductPath,
}

func looksProductPathGeneric(path string) bool {
	p := strings.ToLower(path)
	for _, k := range productPathKeywords {
		if strings.Contains(p, k) {
			return true
		}
	}
	return false
}

// philoro keeps product detail pages under /shop/<slug> where the last
// segment is a hyphenated slug; the bare category roots are not products.
func philoroProductPath(path string) bool {
	p := strings.TrimRight(strings.ToLower(path), "/")
	if !strings.HasPrefix(p, "/shop") {
		return false
	}
	switch p {
	case "/shop/goldbarren", "/shop/goldmuenzen-krugerrand", "/shop/goldbarren-100g":
		return false
	}
	last := p[strings.LastIndex(p, "/")+1:]
	if strings.Contains(last, "-") && len(last) >= 6 {
		return true
	}
	if strings.Contains(p, "/shop/goldmuenzen-") || strings.Contains(p, "/shop/goldbarren-") {
		return true
	}
	return looksProductPathGeneric(p)
}

func looksProductPath(domain, path string) bool {
	if rule, ok := domainPathRules[domain]; ok {
		return rule(path)
	}
	return looksProductPathGeneric(path)
}

// blockSignatures mark bot-wall and consent-wall pages. Matching pages are
// counted in diagnostics and excluded from parsing.
var blockSignatures = []string{
	"cf-browser-verification",
	"cf-chl-",
	"captcha",
	"are you a robot",
	"access denied",
	"consent.cookiebot",
	"usercentrics",
	"onetrust",
}

func isBlockedContent(body []byte) bool {
	lower := bytes.ToLower(body)
	for _, sig := range blockSignatures {
		if bytes.Contains(lower, []byte(sig)) {
			return true
		}
	}
	return false
}

// Crawler fetches vendor pages for one run: robots-checked, rate limited,
// and bounded per domain.
type Crawler struct {
	Client *fetch.Client
	Robots *RobotsCache
	Delay  time.Duration
	// Sleep is the politeness-delay hook, replaceable in tests.
	Sleep func(time.Duration)
}

// NewCrawler creates a crawler with the default politeness delay.
func NewCrawler(client *fetch.Client) *Crawler {
	return &Crawler{
		Client: client,
		Robots: NewRobotsCache(client),
		Delay:  requestDelay,
		Sleep:  time.Sleep,
	}
}

// FetchPage fetches one page with the courtesy delay applied afterwards.
// A bot-wall page is reported as blocked, not as content.
func (c *Crawler) FetchPage(rawURL string) (body []byte, blocked bool, err error) {
	body, err = c.Client.Fetch(rawURL)
	c.Sleep(c.Delay)
	if err != nil {
		return nil, false, err
	}
	if isBlockedContent(body) {
		return nil, true, nil
	}
	return body, false, nil
}

// DiscoverCandidates enumerates product-candidate URLs for one domain from
// seed category pages, sitemaps, and finally the home page when too little
// was found. The result is deduplicated and capped at maxURLsPerDomain.
func (c *Crawler) DiscoverCandidates(domain string, seeds []string, diag *model.DomainDiag) []string {
	seen := make(map[string]struct{})
	var urls []string
	add := func(u string) bool {
		if len(urls) >= maxURLsPerDomain {
			return false
		}
		if _, dup := seen[u]; dup {
			return true
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
		return true
	}

	for _, seed := range seeds {
		if len(urls) >= maxURLsPerDomain {
			break
		}
		if !c.Robots.Allowed(domain, seed) {
			diag.Notes = append(diag.Notes, "blocked robots: "+seed)
			continue
		}
		body, blocked, err := c.FetchPage(seed)
		if err != nil {
			diag.Notes = append(diag.Notes, fmt.Sprintf("seed failed: %s (%v)", seed, err))
			continue
		}
		if blocked {
			diag.PagesBlocked++
			continue
		}
		for _, u := range c.extractLinks(seed, domain, body) {
			if !add(u) {
				break
			}
		}
	}

	if len(urls) < maxURLsPerDomain {
		for _, u := range c.discoverFromSitemaps(domain) {
			if !add(u) {
				break
			}
		}
	}

	if len(urls) < minDiscovered {
		home := "https://" + domain + "/"
		if c.Robots.Allowed(domain, home) {
			if body, blocked, err := c.FetchPage(home); err == nil && !blocked {
				for _, u := range c.extractLinks(home, domain, body) {
					if !add(u) {
						break
					}
				}
			} else if blocked {
				diag.PagesBlocked++
			}
		}
	}

	return urls
}

// extractLinks pulls product-candidate anchors out of a page, resolved
// against the page URL and restricted to the owning domain.
func (c *Crawler) extractLinks(pageURL, domain string, body []byte) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	var out []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if !strings.HasSuffix(abs.Hostname(), domain) {
			return
		}
		if looksProductPath(domain, abs.Path) {
			out = append(out, abs.String())
		}
	})
	return out
}

func (c *Crawler) discoverFromSitemaps(domain string) []string {
	var out []string
	for _, sm := range []string{
		"https://" + domain + "/sitemap.xml",
		"https://" + domain + "/sitemap_index.xml",
	} {
		if len(out) >= maxURLsPerDomain {
			break
		}
		if !c.Robots.Allowed(domain, sm) {
			continue
		}
		body, blocked, err := c.FetchPage(sm)
		if err != nil || blocked {
			continue
		}
		locs := sitemapLocs(body)

		// Sitemap indexes point at sub-sitemaps; traverse a bounded number.
		var submaps []string
		for _, l := range locs {
			if strings.HasSuffix(l, ".xml") {
				submaps = append(submaps, l)
			}
		}
		if len(submaps) > maxSitemaps {
			submaps = submaps[:maxSitemaps]
		}
		for _, sub := range submaps {
			if !c.Robots.Allowed(domain, sub) {
				continue
			}
			subBody, subBlocked, err := c.FetchPage(sub)
			if err != nil || subBlocked {
				continue
			}
			locs = append(locs, sitemapLocs(subBody)...)
		}

		for _, l := range locs {
			u, err := url.Parse(l)
			if err != nil || !strings.HasSuffix(u.Hostname(), domain) {
				continue
			}
			if looksProductPath(domain, u.Path) {
				out = append(out, l)
				if len(out) >= maxURLsPerDomain {
					break
				}
			}
		}
	}
	if len(out) > 0 {
		log.Printf("[INFO] sitemap discovery %s: %d candidates", domain, len(out))
	}
	return out
}

// sitemapLocs extracts every <loc> text from a sitemap or sitemap index.
func sitemapLocs(body []byte) []string {
	dec := xml.NewDecoder(bytes.NewReader(body))
	var out []string
	var inLoc bool
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch t := tok.(type) {
		case xml.StartElement:
			inLoc = t.Name.Local == "loc"
		case xml.EndElement:
			inLoc = false
		case xml.CharData:
			if inLoc {
				if s := strings.TrimSpace(string(t)); s != "" {
					out = append(out, s)
				}
			}
		}
	}
}
