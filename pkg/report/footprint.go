package report

import (
	"sort"

	"golang.org/x/net/publicsuffix"

	"keyword-research-go/pkg/cluster"
)

// DomainCount is the number of clusters in which a registrable domain ranks.
type DomainCount struct {
	Domain   string `json:"domain" yaml:"domain"`
	Clusters int    `json:"clusters" yaml:"clusters"`
}

// CompetitorFootprint groups cluster competitor hosts by registrable domain
// (shop.nike.com and nike.com count as nike.com) and counts, per domain, the
// clusters it appears in. Ordered by count, then domain.
func CompetitorFootprint(clusters []*cluster.Cluster) []DomainCount {
	counts := make(map[string]int)
	for _, c := range clusters {
		seen := make(map[string]bool)
		for _, host := range c.CompetitorDomains {
			domain := RegistrableDomain(host)
			if domain == "" || seen[domain] {
				continue
			}
			seen[domain] = true
			counts[domain]++
		}
	}

	footprint := make([]DomainCount, 0, len(counts))
	for domain, n := range counts {
		footprint = append(footprint, DomainCount{Domain: domain, Clusters: n})
	}
	sort.Slice(footprint, func(i, j int) bool {
		if footprint[i].Clusters != footprint[j].Clusters {
			return footprint[i].Clusters > footprint[j].Clusters
		}
		return footprint[i].Domain < footprint[j].Domain
	})
	return footprint
}

// RegistrableDomain returns the eTLD+1 of host, or host itself when it has none.
func RegistrableDomain(host string) string {
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
