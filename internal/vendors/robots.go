package vendors

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/temoto/robotstxt"

	"goldradar/internal/fetch"
)

// botAgent is the product token robots.txt groups are matched against.
const botAgent = "GoldradarBot"

// denyFallback lists path fragments refused when robots.txt cannot be read.
// Everything else is permitted in that case.
var denyFallback = []string{"/wp-admin", "/admin", "/cart"}

// RobotsCache holds one parsed robots.txt policy per domain for a single run.
// It is populated once per domain on first access and never shared across
// runs. Not safe for concurrent writers; the pipeline is single-threaded.
type RobotsCache struct {
	client *fetch.Client
	groups map[string]*robotstxt.Group
	// The robots.txt fetch counts against the courtesy budget like any
	// other request.
	delay time.Duration
	sleep func(time.Duration)
}

// NewRobotsCache creates an empty cache fetching through the given client.
func NewRobotsCache(client *fetch.Client) *RobotsCache {
	return &RobotsCache{
		client: client,
		groups: make(map[string]*robotstxt.Group),
		delay:  requestDelay,
		sleep:  time.Sleep,
	}
}

// Allowed reports whether the bot may fetch rawURL on the given domain. A
// robots.txt that cannot be fetched or parsed degrades to permissive, except
// for the deny fallback list.
func (rc *RobotsCache) Allowed(domain, rawURL string) bool {
	g, cached := rc.groups[domain]
	if !cached {
		g = rc.load(domain)
		rc.groups[domain] = g
	}
	if g == nil {
		for _, seg := range denyFallback {
			if strings.Contains(rawURL, seg) {
				return false
			}
		}
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	// Rules may target query strings (e.g. faceted-search parameters).
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return g.Test(path)
}

func (rc *RobotsCache) load(domain string) *robotstxt.Group {
	raw, err := rc.client.Fetch("https://" + domain + "/robots.txt")
	rc.sleep(rc.delay)
	if err != nil {
		log.Printf("[WARN] robots %s: %v, defaulting to permissive", domain, err)
		return nil
	}
	robots, err := robotstxt.FromBytes(raw)
	if err != nil {
		log.Printf("[WARN] robots %s: parse: %v, defaulting to permissive", domain, err)
		return nil
	}
	return robots.FindGroup(botAgent)
}
