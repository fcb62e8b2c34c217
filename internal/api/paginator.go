package api

import (
	"go-civitai-mirror/internal/models"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxPages guards against unbounded or malformed pagination.
const DefaultMaxPages = 1000

// ApiPage is one decoded listing page, numbered from 1.
type ApiPage struct {
	Number   int
	Response models.ApiResponse
}

// Paginator walks the listing for one username page by page. Each Run is a
// fresh traversal from page one; the sequence is finite by construction
// (visited-URL cycle detection plus the page cap).
type Paginator struct {
	client   *Client
	maxPages int
}

func NewPaginator(client *Client, maxPages int) *Paginator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Paginator{client: client, maxPages: maxPages}
}

// Run fetches pages for username and hands each decoded page to handle.
// It returns the number of pages completed. Anomalies (cycle, page cap,
// malformed next URL, empty metadata) end traversal cleanly with a nil
// error; a fetch failure after retry exhaustion returns that error, but
// pages already handled stay processed by the caller.
func (p *Paginator) Run(username string, handle func(page ApiPage) error) (int, error) {
	next := p.client.ListingURL(username)
	seen := make(map[string]struct{})
	pages := 0

	for next != "" {
		if pages >= p.maxPages {
			log.Warnf("Page limit (%d) reached for %s, stopping traversal", p.maxPages, username)
			break
		}
		if _, visited := seen[next]; visited {
			log.Warnf("Circular pagination detected for %s, stopping traversal", username)
			break
		}
		seen[next] = struct{}{}

		resp, err := p.client.GetModelsPage(next)
		if err != nil {
			log.WithError(err).Errorf("Catalog traversal for %s ended after %d completed page(s)", username, pages)
			return pages, err
		}
		pages++

		if err := handle(ApiPage{Number: pages, Response: resp}); err != nil {
			return pages, err
		}

		if len(resp.Items) == 0 && resp.Metadata == (models.PaginationMetadata{}) {
			log.Debugf("Empty page and metadata for %s, end of data", username)
			break
		}

		raw := resp.Metadata.NextPage
		if raw == "" {
			break
		}
		validated, err := p.client.ValidateNextPageURL(raw)
		if err != nil {
			log.WithError(err).Warnf("Rejected next-page URL for %s, stopping traversal", username)
			break
		}
		next = validated
	}

	return pages, nil
}
