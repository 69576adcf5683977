package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/aminebalti55/ChemistryJobs/internal/dateparse"
	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

const keejobBaseURL = "https://www.keejob.com"

// KeejobFetcher fetches job listings from keejob.com. The listing page only
// carries title, location and date; descriptions come from a per-job detail
// page, which is skipped entirely for links the store already knows.
type KeejobFetcher struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewKeejobFetcher creates a fetcher for keejob.com.
func NewKeejobFetcher(client *http.Client) *KeejobFetcher {
	return &KeejobFetcher{
		baseURL: keejobBaseURL,
		client:  client,
		now:     time.Now,
	}
}

func (f *KeejobFetcher) Name() string { return "keejob" }

// Fetch retrieves the listing page for keyword, then a detail page per
// unknown job. A failed detail fetch drops that candidate only.
func (f *KeejobFetcher) Fetch(ctx context.Context, keyword string, known model.KnownLinkFunc) ([]model.Candidate, error) {
	listURL := fmt.Sprintf("%s/offres-emploi/?keywords=%s", f.baseURL, url.QueryEscape(keyword))
	doc, err := fetchDocument(ctx, f.client, listURL)
	if err != nil {
		return nil, fmt.Errorf("keejob fetch for %q: %w", keyword, err)
	}

	type listing struct {
		title    string
		link     string
		location string
		rawDate  string
	}
	var listings []listing
	doc.Find("div.block_white_a").Each(func(_ int, card *goquery.Selection) {
		titleTag := card.Find("a[style]").First()
		title := cleanText(titleTag.Text())
		href, ok := titleTag.Attr("href")
		if title == "" || !ok {
			return
		}
		link := resolveLink(f.baseURL, href)
		if known != nil && known(link) {
			return
		}
		listings = append(listings, listing{
			title:    title,
			link:     link,
			location: siblingText(card.Find("i.fa-map-marker").First()),
			rawDate:  siblingText(card.Find("i.fa-clock-o").First()),
		})
	})

	var candidates []model.Candidate
	for _, l := range listings {
		if ctx.Err() != nil {
			return candidates, ctx.Err()
		}
		description, err := f.fetchDescription(ctx, l.link)
		if err != nil {
			// Detail failures drop the single candidate, not the keyword.
			continue
		}
		candidates = append(candidates, model.Candidate{
			Title:       l.title,
			Link:        l.link,
			PublishDate: dateparse.Parse(l.rawDate, f.now()),
			Location:    l.location,
			Description: description,
			Experience:  extractExperiencePhrase(description),
		})
	}
	return candidates, nil
}

func (f *KeejobFetcher) fetchDescription(ctx context.Context, link string) (string, error) {
	doc, err := fetchDocument(ctx, f.client, link)
	if err != nil {
		return "", fmt.Errorf("keejob detail %s: %w", link, err)
	}
	return cleanText(doc.Find("div.block_a").First().Text()), nil
}
