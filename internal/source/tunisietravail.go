package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aminebalti55/ChemistryJobs/internal/dateparse"
	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

const tunisietravailBaseURL = "https://www.tunisietravail.net"

// maxListingAge drops tunisietravail postings older than a month at parse
// time; the site keeps years of stale listings on its search pages.
const maxListingAge = 30 * 24 * time.Hour

// TunisieTravailFetcher fetches job listings from tunisietravail.net.
type TunisieTravailFetcher struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewTunisieTravailFetcher creates a fetcher for tunisietravail.net.
func NewTunisieTravailFetcher(client *http.Client) *TunisieTravailFetcher {
	return &TunisieTravailFetcher{
		baseURL: tunisietravailBaseURL,
		client:  client,
		now:     time.Now,
	}
}

func (f *TunisieTravailFetcher) Name() string { return "tunisietravail" }

// Fetch retrieves the search page for keyword. Fresh, unknown postings get a
// detail fetch for their description; a failed detail fetch drops only that
// candidate.
func (f *TunisieTravailFetcher) Fetch(ctx context.Context, keyword string, known model.KnownLinkFunc) ([]model.Candidate, error) {
	searchURL := fmt.Sprintf("%s/search/%s", f.baseURL, url.PathEscape(keyword))
	doc, err := fetchDocument(ctx, f.client, searchURL)
	if err != nil {
		return nil, fmt.Errorf("tunisietravail fetch for %q: %w", keyword, err)
	}

	cutoff := f.now().Add(-maxListingAge)

	type listing struct {
		title       string
		link        string
		location    string
		publishDate time.Time
	}
	var listings []listing
	doc.Find("div.Post").Each(func(_ int, card *goquery.Selection) {
		rawDate := cleanText(card.Find("p.PostDateIndexRed strong.month").First().Text())
		if rawDate == "" {
			return
		}
		publishDate := dateparse.Parse(rawDate, f.now())
		if publishDate.Before(cutoff) {
			return
		}

		titleTag := card.Find("a.h1titleall").First()
		title := cleanText(titleTag.Text())
		link, ok := titleTag.Attr("href")
		if title == "" || !ok {
			return
		}
		if known != nil && known(link) {
			return
		}

		location := ""
		card.Find("p.PostInfo a").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			if href, _ := a.Attr("href"); href != "" && !strings.Contains(href, "category") {
				location = cleanText(a.Text())
				return false
			}
			return true
		})

		listings = append(listings, listing{
			title:       title,
			link:        link,
			location:    location,
			publishDate: publishDate,
		})
	})

	var candidates []model.Candidate
	for _, l := range listings {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}
		description, err := f.fetchDescription(ctx, l.link)
		if err != nil {
			continue
		}
		candidates = append(candidates, model.Candidate{
			Title:       l.title,
			Link:        l.link,
			PublishDate: l.publishDate,
			Location:    l.location,
			Description: description,
			Experience:  extractExperiencePhrase(description),
		})
	}
	return candidates, nil
}

func (f *TunisieTravailFetcher) fetchDescription(ctx context.Context, link string) (string, error) {
	doc, err := fetchDocument(ctx, f.client, link)
	if err != nil {
		return "", fmt.Errorf("tunisietravail detail %s: %w", link, err)
	}
	return cleanText(doc.Find("div.PostContent").First().Text()), nil
}
