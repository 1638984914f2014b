package ebay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/flipscout/flipscout/internal/model"
)

const defaultBaseURL = "https://api.ebay.com"

// ErrThrottled is returned when the marketplace rejects a request for rate
// limiting. Callers treat it differently from transport failures: back off
// instead of retrying.
var ErrThrottled = errors.New("ebay: request throttled")

// Source is the live-listing search surface. Satisfied by Client and by
// mocks in tests.
type Source interface {
	// Available reports whether the source is configured with credentials.
	Available() bool
	// Search returns active listings matching the request.
	Search(ctx context.Context, req SearchRequest) ([]model.Listing, error)
	// SearchSold returns sale prices for completed listings matching the
	// title over the trailing window.
	SearchSold(ctx context.Context, title string, daysBack int) ([]float64, error)
}

// Config carries the knobs for constructing a Client.
type Config struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	BaseURL      string
	Timeout      time.Duration
	MinDelay     time.Duration
}

// Client talks to the eBay Browse API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenManager
	limiter    *rateLimiter
	log        *logrus.Entry
}

var _ Source = (*Client)(nil)

// NewClient creates a Browse API client. Credentials may be empty; the
// client then reports unavailable and every call fails fast.
func NewClient(cfg Config, log *logrus.Entry) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	minDelay := cfg.MinDelay
	if minDelay <= 0 {
		minDelay = time.Second
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     NewTokenManager(cfg.ClientID, cfg.ClientSecret, cfg.RefreshToken),
		limiter:    &rateLimiter{minDelay: minDelay},
		log:        log.WithField("component", "ebay"),
	}
}

// Tokens exposes the token manager so callers can point it at a sandbox or
// seed a static token.
func (c *Client) Tokens() *TokenManager {
	return c.tokens
}

// Available reports whether credentials were supplied.
func (c *Client) Available() bool {
	return c.tokens.clientID != "" && c.tokens.clientSecret != ""
}

// Search runs one Browse API item_summary search.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]model.Listing, error) {
	if !c.Available() {
		return nil, fmt.Errorf("ebay client not configured")
	}
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/buy/browse/v1/item_summary/search?" + req.queryValues().Encode()
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload browseResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing search response: %w", err)
	}

	listings := make([]model.Listing, 0, len(payload.ItemSummaries))
	for _, item := range payload.ItemSummaries {
		listing, ok := item.toListing()
		if !ok {
			c.log.WithField("item_id", item.ItemID).Debug("skipping listing with unparsable price")
			continue
		}
		listings = append(listings, listing)
	}
	return listings, nil
}

// SearchSold returns sale prices for completed listings matching the title.
// It drops non-positive prices but leaves statistical treatment to the
// caller.
func (c *Client) SearchSold(ctx context.Context, title string, daysBack int) ([]float64, error) {
	if daysBack <= 0 {
		daysBack = 30
	}
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	values := SearchRequest{Keywords: title, Limit: 50}.queryValues()
	since := time.Now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	values.Set("filter", fmt.Sprintf("soldItems,lastSoldDate:[%s..]", since))
	endpoint := c.baseURL + "/buy/browse/v1/item_summary/search?" + values.Encode()
	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload browseResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parsing sold response: %w", err)
	}

	prices := make([]float64, 0, len(payload.ItemSummaries))
	for _, item := range payload.ItemSummaries {
		price, err := strconv.ParseFloat(item.Price.Value, 64)
		if err != nil || price <= 0 {
			continue
		}
		prices = append(prices, price)
	}
	return prices, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("obtaining access token: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("X-EBAY-C-MARKETPLACE-ID", "EBAY_US")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrThrottled
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed with status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// rateLimiter spaces calls by a minimum delay. Reservation-style: the slot
// is claimed under the lock, the sleep happens outside it so concurrent
// callers queue rather than serialize on the mutex.
type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	minDelay time.Duration
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	now := time.Now()
	next := r.lastCall.Add(r.minDelay)
	if next.Before(now) {
		next = now
	}
	r.lastCall = next
	r.mu.Unlock()

	d := time.Until(next)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type browseResponse struct {
	ItemSummaries []itemSummary `json:"itemSummaries"`
	Total         int           `json:"total"`
}

type priceValue struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type shippingOption struct {
	ShippingCostType string      `json:"shippingCostType"`
	ShippingCost     *priceValue `json:"shippingCost"`
}

type itemSummary struct {
	ItemID          string           `json:"itemId"`
	Title           string           `json:"title"`
	Price           priceValue       `json:"price"`
	Condition       string           `json:"condition"`
	BuyingOptions   []string         `json:"buyingOptions"`
	ShippingOptions []shippingOption `json:"shippingOptions"`
	ItemWebURL      string           `json:"itemWebUrl"`
	Seller          struct {
		FeedbackScore int `json:"feedbackScore"`
	} `json:"seller"`
	ItemLocation struct {
		Country string `json:"country"`
	} `json:"itemLocation"`
}

// toListing converts one Browse API summary into the domain model. Returns
// false when the price cannot be parsed.
func (s itemSummary) toListing() (model.Listing, bool) {
	price, err := strconv.ParseFloat(s.Price.Value, 64)
	if err != nil || price <= 0 {
		return model.Listing{}, false
	}

	options := make([]model.BuyingOption, 0, len(s.BuyingOptions))
	for _, o := range s.BuyingOptions {
		options = append(options, model.BuyingOption(o))
	}

	listing := model.Listing{
		ItemID:        s.ItemID,
		Title:         s.Title,
		Price:         price,
		Currency:      s.Price.Currency,
		Condition:     model.ParseCondition(s.Condition),
		BuyingOptions: options,
		SellerScore:   s.Seller.FeedbackScore,
		Location:      s.ItemLocation.Country,
		URL:           s.ItemWebURL,
	}

	if len(s.ShippingOptions) > 0 {
		opt := s.ShippingOptions[0]
		info := &model.ShippingInfo{Type: model.ShippingUnknown}
		switch opt.ShippingCostType {
		case "FIXED":
			info.Type = model.ShippingFixed
			if opt.ShippingCost != nil {
				if cost, err := strconv.ParseFloat(opt.ShippingCost.Value, 64); err == nil {
					info.Cost = cost
				}
			}
		case "CALCULATED":
			info.Type = model.ShippingCalculated
		}
		listing.Shipping = info
	}
	return listing, true
}
