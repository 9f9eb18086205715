package monitor

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/hazyhaar/rankwatch/store"
)

// checkDomainRanking probes one keyword and reduces the raw result list to
// a single ranking observation for the target domain. It never writes to
// the store, and a prober failure never propagates: it degrades to a
// "not found" observation so one broken probe cannot take down the loop.
func (m *Monitor) checkDomainRanking(ctx context.Context, keyword, domain string) *store.Ranking {
	m.mu.Lock()
	params := make(map[string]string, len(m.searchParams))
	for k, v := range m.searchParams {
		params[k] = v
	}
	m.mu.Unlock()

	obs := &store.Ranking{
		Keyword: keyword,
		Domain:  domain,
	}
	if data, err := json.Marshal(params); err == nil {
		obs.SearchParamsJSON = string(data)
	}

	resp, err := m.prober.Search(ctx, keyword, params)
	if err != nil {
		m.logger.Warn("monitor: probe failed",
			"keyword", keyword, "domain", domain, "error", err)
		return obs
	}
	if resp == nil {
		return obs
	}

	obs.TotalResults = resp.SearchInformation.TotalResults

	// First result whose raw link contains the domain wins. This is a
	// plain substring match with no URL normalisation, so a link like
	// https://shop.example.com/dataget.ai/page matches "dataget.ai".
	// Known to be permissive; kept until the matching policy is revised.
	for _, result := range resp.OrganicResults {
		if result.Link == "" || !strings.Contains(result.Link, domain) {
			continue
		}
		position := result.Position
		link := result.Link
		title := result.Title
		snippet := result.Snippet

		obs.Found = true
		obs.Position = &position
		obs.Link = &link
		obs.Title = &title
		obs.Snippet = &snippet

		m.logger.Debug("monitor: domain found",
			"keyword", keyword, "domain", domain, "position", position)
		return obs
	}

	m.logger.Debug("monitor: domain not in results",
		"keyword", keyword, "domain", domain)
	return obs
}
