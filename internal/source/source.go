// Package source implements the per-site listing fetchers. Each fetcher
// queries one Tunisian job board for a keyword and normalizes the results
// into model.Candidate values. Markup selectors are site-specific and
// expected to churn; the fetch contract is the stable part.
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// fetchDocument GETs url with the shared user agent and parses the response
// body. Non-200 statuses come back as *model.HTTPError so the retry layer
// can distinguish transient failures.
func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Err:        fmt.Errorf("fetching %s: unexpected status %d", url, resp.StatusCode),
		}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", url, err)
	}
	return doc, nil
}

// cleanText collapses runs of whitespace and trims the result.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// siblingText returns the trimmed text node immediately following the first
// matched element. The listing sites hang dates and locations off icon tags
// this way.
func siblingText(sel *goquery.Selection) string {
	if len(sel.Nodes) == 0 {
		return ""
	}
	next := sel.Nodes[0].NextSibling
	if next == nil {
		return ""
	}
	return cleanText(next.Data)
}

// resolveLink makes a listing href absolute against the site's base URL.
// Listing pages mix root-relative and absolute hrefs (sponsored cards link
// off-site), so plain concatenation would mangle the absolute ones.
func resolveLink(base, href string) string {
	bu, err := url.Parse(base)
	if err != nil {
		return href
	}
	hu, err := url.Parse(href)
	if err != nil {
		return href
	}
	return bu.ResolveReference(hu).String()
}
