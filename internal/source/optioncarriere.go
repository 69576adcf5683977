package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/aminebalti55/ChemistryJobs/internal/dateparse"
	"github.com/aminebalti55/ChemistryJobs/internal/model"
)

const optioncarriereBaseURL = "https://www.optioncarriere.tn"

// OptionCarriereFetcher fetches job listings from optioncarriere.tn. The
// listing page carries the description inline, so no detail fetch is needed.
type OptionCarriereFetcher struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewOptionCarriereFetcher creates a fetcher for optioncarriere.tn.
func NewOptionCarriereFetcher(client *http.Client) *OptionCarriereFetcher {
	return &OptionCarriereFetcher{
		baseURL: optioncarriereBaseURL,
		client:  client,
		now:     time.Now,
	}
}

func (f *OptionCarriereFetcher) Name() string { return "optioncarriere" }

// Fetch retrieves the listing page for keyword and normalizes every job card.
// Cards that fail to parse are skipped individually.
func (f *OptionCarriereFetcher) Fetch(ctx context.Context, keyword string, known model.KnownLinkFunc) ([]model.Candidate, error) {
	listURL := fmt.Sprintf("%s/emploi?s=%s&l=Tunisie", f.baseURL, url.QueryEscape(keyword))
	doc, err := fetchDocument(ctx, f.client, listURL)
	if err != nil {
		return nil, fmt.Errorf("optioncarriere fetch for %q: %w", keyword, err)
	}

	var candidates []model.Candidate
	doc.Find("article.job").Each(func(_ int, card *goquery.Selection) {
		titleTag := card.Find("h2 a").First()
		title := cleanText(titleTag.Text())
		href, ok := titleTag.Attr("href")
		if title == "" || !ok {
			return
		}
		link := resolveLink(f.baseURL, href)
		if known != nil && known(link) {
			return
		}

		location := ""
		card.Find("ul.location li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if loc := cleanText(li.Text()); loc != "" {
				location = loc
				return false
			}
			return true
		})

		publishDate := dateparse.Parse(cleanText(card.Find("span.badge").First().Text()), f.now())
		description := cleanText(card.Find("div.desc").First().Text())

		candidates = append(candidates, model.Candidate{
			Title:       title,
			Link:        link,
			PublishDate: publishDate,
			Location:    location,
			Description: description,
			Experience:  extractExperiencePhrase(description),
		})
	})

	return candidates, nil
}

// extractExperiencePhrase pulls a short stated-experience snippet out of the
// description, for display alongside the record. Empty when none is stated.
// The snippet is lowercased: ToLower shifts byte offsets, so index and slice
// must both work on the lowered string.
func extractExperiencePhrase(description string) string {
	lower := strings.ToLower(description)
	for _, marker := range []string{"ans d'expérience", "ans d’expérience", "years of experience", "années d'expérience"} {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		start := idx - 12
		if start < 0 {
			start = 0
		}
		for start > 0 && !utf8.RuneStart(lower[start]) {
			start--
		}
		return cleanText(lower[start : idx+len(marker)])
	}
	return ""
}
