package model

import (
	"net/url"
	"sort"
	"strings"
)

// HostCount is the number of annotated links pointing to one host.
type HostCount struct {
	Host  string `json:"host"`
	Links int    `json:"links"`
}

// LinkHost returns the lowercased host an annotated href points to. An
// absolute URL embedded later in the href, as in a redirect parameter,
// is used when the href itself is relative. It returns "" when no host
// can be found.
func LinkHost(href string) string {
	if u, err := url.Parse(href); err == nil && u.Host != "" {
		return strings.ToLower(u.Hostname())
	}

	i := max(strings.LastIndex(href, "https://"), strings.LastIndex(href, "http://"))
	if i <= 0 {
		return ""
	}
	u, err := url.Parse(href[i:])
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// Hosts counts annotated links per host across all pages, most linked
// first. Ties are ordered by host name. Links without a host are omitted.
func (r *RunReport) Hosts() []HostCount {
	counts := make(map[string]int)
	for _, p := range r.Pages {
		if p == nil {
			continue
		}
		for _, href := range p.Annotated {
			if host := LinkHost(href); host != "" {
				counts[host]++
			}
		}
	}

	hosts := make([]HostCount, 0, len(counts))
	for host, n := range counts {
		hosts = append(hosts, HostCount{Host: host, Links: n})
	}
	sort.Slice(hosts, func(i, j int) bool {
		if hosts[i].Links != hosts[j].Links {
			return hosts[i].Links > hosts[j].Links
		}
		return hosts[i].Host < hosts[j].Host
	})
	return hosts
}
