package comps

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/brotli"
)

const scraperBaseURL = "https://www.ebay.com/sch/i.html"

var priceRe = regexp.MustCompile(`\$([0-9,]+\.?[0-9]*)`)

// Scraper reads sold prices off the public sold-listings search page. It
// needs no credentials, so it serves as the fallback comparables source.
type Scraper struct {
	baseURL   string
	client    *http.Client
	userAgent string
}

var _ Provider = (*Scraper)(nil)

// NewScraper creates the sold-listings page scraper.
func NewScraper(timeout time.Duration) *Scraper {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scraper{
		baseURL:   scraperBaseURL,
		client:    &http.Client{Timeout: timeout},
		userAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// SetBaseURL overrides the page endpoint for tests.
func (s *Scraper) SetBaseURL(u string) {
	s.baseURL = u
}

func (s *Scraper) Available() bool {
	return true
}

func (s *Scraper) ProviderName() string {
	return "sold-page"
}

// SoldPrices fetches the sold-listings page for the title and extracts the
// sale prices. The daysBack window is approximated by the page's own
// recency ordering; prices beyond the first page are not fetched.
func (s *Scraper) SoldPrices(ctx context.Context, title string, daysBack int) ([]float64, error) {
	params := url.Values{}
	params.Set("_nkw", title)
	params.Set("LH_Sold", "1")
	params.Set("LH_Complete", "1")
	params.Set("_ipg", "60")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	s.setBrowserHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}
	return extractPrices(doc), nil
}

func (s *Scraper) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

// extractPrices pulls sale prices out of the result tiles. Ranged prices
// ("$40.00 to $60.00") are skipped; they describe variation listings, not
// single sales.
func extractPrices(doc *goquery.Document) []float64 {
	var prices []float64
	doc.Find(".s-item .s-item__price, .su-styled-text.positive").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if strings.Contains(text, " to ") {
			return
		}
		m := priceRe.FindStringSubmatch(text)
		if m == nil {
			return
		}
		price, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil || price <= 0 {
			return
		}
		prices = append(prices, price)
	})
	return prices
}
