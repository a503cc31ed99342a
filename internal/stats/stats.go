// Package stats computes aggregate views over the mined event log: distinct
// queries, root-domain tallies and normalized-URL tallies.
package stats

import (
	"net/url"
	"sort"
	"strings"

	"github.com/MikeSquared-Agency/quarry/internal/dedup"
	"github.com/MikeSquared-Agency/quarry/internal/search"
	"github.com/MikeSquared-Agency/quarry/internal/summary"
)

// multiPartTLDs lists two-part public suffixes where the registrable domain
// keeps three labels instead of two (example.co.uk, not co.uk).
var multiPartTLDs = map[string]bool{
	"co.uk": true, "org.uk": true, "ac.uk": true, "gov.uk": true, "me.uk": true,
	"net.uk": true, "sch.uk": true,
	"com.au": true, "net.au": true, "org.au": true, "edu.au": true, "gov.au": true,
	"co.nz": true, "org.nz": true, "net.nz": true, "govt.nz": true, "ac.nz": true,
	"co.jp": true, "or.jp": true, "ne.jp": true, "ac.jp": true, "go.jp": true,
	"com.br": true, "org.br": true, "net.br": true, "gov.br": true, "edu.br": true,
	"co.in": true, "org.in": true, "net.in": true, "gov.in": true, "ac.in": true,
	"com.mx": true, "org.mx": true, "gob.mx": true, "edu.mx": true,
	"co.za": true, "org.za": true, "gov.za": true, "ac.za": true,
	"com.cn": true, "org.cn": true, "net.cn": true, "gov.cn": true, "edu.cn": true,
	"co.kr": true, "or.kr": true, "ne.kr": true, "go.kr": true, "ac.kr": true,
	"com.tw": true, "org.tw": true, "net.tw": true, "gov.tw": true, "edu.tw": true,
	"co.il": true, "org.il": true, "net.il": true, "gov.il": true, "ac.il": true,
	"com.sg": true, "org.sg": true, "net.sg": true, "gov.sg": true, "edu.sg": true,
	"com.hk": true, "org.hk": true, "net.hk": true, "gov.hk": true, "edu.hk": true,
	"co.id": true, "or.id": true, "go.id": true, "ac.id": true, "web.id": true,
	"com.gh": true, "org.gh": true, "gov.gh": true, "edu.gh": true,
	"com.ng": true, "org.ng": true, "gov.ng": true, "edu.ng": true,
	"co.ke": true, "or.ke": true, "go.ke": true, "ac.ke": true,
}

// RootDomain extracts a URL's registrable domain, correcting for multi-label
// public suffixes. Unparseable URLs yield "".
func RootDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	parts := strings.FieldsFunc(host, func(r rune) bool { return r == '.' })
	if len(parts) < 2 {
		return host
	}
	lastTwo := parts[len(parts)-2] + "." + parts[len(parts)-1]
	if multiPartTLDs[lastTwo] && len(parts) >= 3 {
		return parts[len(parts)-3] + "." + lastTwo
	}
	return lastTwo
}

// trackingParam reports whether a query parameter is a known tracking key.
func trackingParam(key string) bool {
	return strings.HasPrefix(key, "utm_") || key == "ref" || key == "trk"
}

// NormalizeURL strips known tracking parameters so repeated results count as
// one URL. Unparseable URLs pass through unchanged.
func NormalizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	q := u.Query()
	for key := range q {
		if trackingParam(key) {
			q.Del(key)
		}
	}
	origin := u.Scheme + "://" + u.Host + u.Path
	if encoded := q.Encode(); encoded != "" {
		return origin + "?" + encoded
	}
	return origin
}

type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

type URLCount struct {
	URL   string `json:"url"`
	Count int    `json:"count"`
}

// Snapshot is one aggregate view over the deduplicated event log.
type Snapshot struct {
	Events  int           `json:"events"`
	Queries []string      `json:"queries"`
	Domains []DomainCount `json:"domains"`
	URLs    []URLCount    `json:"urls"`
}

// Build computes aggregate statistics over the stored events. URL tallies key
// on normalized URLs; domain extraction uses the original URL's host.
func Build(events []search.Event) Snapshot {
	all := dedup.ParseAndDedupe(events)

	queries := make(map[string]bool)
	domains := make(map[string]int)
	urls := make(map[string]int)
	for _, ev := range all {
		for _, q := range ev.Queries {
			if !strings.Contains(strings.ToLower(q.Query), summary.NoQuery) {
				queries[q.Query] = true
			}
			for _, r := range q.Results {
				if r.URL == "" {
					continue
				}
				urls[NormalizeURL(r.URL)]++
				if d := RootDomain(r.URL); d != "" {
					domains[d]++
				}
			}
		}
	}

	snap := Snapshot{Events: len(all)}
	for q := range queries {
		snap.Queries = append(snap.Queries, q)
	}
	sort.Strings(snap.Queries)
	for d, c := range domains {
		snap.Domains = append(snap.Domains, DomainCount{Domain: d, Count: c})
	}
	sort.Slice(snap.Domains, func(i, j int) bool {
		if snap.Domains[i].Count != snap.Domains[j].Count {
			return snap.Domains[i].Count > snap.Domains[j].Count
		}
		return snap.Domains[i].Domain < snap.Domains[j].Domain
	})
	for u, c := range urls {
		snap.URLs = append(snap.URLs, URLCount{URL: u, Count: c})
	}
	sort.Slice(snap.URLs, func(i, j int) bool {
		if snap.URLs[i].Count != snap.URLs[j].Count {
			return snap.URLs[i].Count > snap.URLs[j].Count
		}
		return snap.URLs[i].URL < snap.URLs[j].URL
	})
	return snap
}
