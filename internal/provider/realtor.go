// Package provider talks to the third-party listings API that feeds the
// properties table.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"property-browser/internal/ratelimit"
)

// ErrMissingAPIKey is returned when no RapidAPI key is configured.
var ErrMissingAPIKey = errors.New("RAPIDAPI_KEY is not set")

const listForSalePath = "/properties/v2/list-for-sale"

// Query is one list-for-sale request.
type Query struct {
	City         string
	MinPrice     int64
	MaxPrice     int64
	Bedrooms     int
	PropertyType string
	Offset       int
}

// Record is one listing as returned by the provider. Only the fields the
// ingestion maps are decoded.
type Record struct {
	PropertyID  string       `json:"property_id"`
	ListingID   string       `json:"listing_id"`
	Description *Description `json:"description"`
	Address     *Address     `json:"address"`
	Price       float64      `json:"price"`
	ListPrice   float64      `json:"list_price"`
	Beds        float64      `json:"beds"`
	Baths       float64      `json:"baths"`
	Building    *Size        `json:"building_size"`
	Lot         *Size        `json:"lot_size"`
	YearBuilt   int          `json:"year_built"`
	PropType    string       `json:"prop_type"`
	Status      string       `json:"status"`
	Photos      []Photo      `json:"photos"`
	Features    []any        `json:"features"`
	Agents      []Agent      `json:"agents"`
	ListDate    string       `json:"list_date"`
}

type Description struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

type Address struct {
	Line       string  `json:"line"`
	City       string  `json:"city"`
	State      string  `json:"state"`
	PostalCode string  `json:"postal_code"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

type Size struct {
	Size  float64 `json:"size"`
	Units string  `json:"units"`
}

type Photo struct {
	Href string `json:"href"`
}

type Agent struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

type listResponse struct {
	Properties []Record `json:"properties"`
}

// StatusError is returned for a non-2xx provider response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API request failed: %d", e.StatusCode)
}

// Config configures a RealtorClient.
type Config struct {
	BaseURL  string
	APIKey   string
	Host     string
	Timeout  time.Duration
	PageSize int
}

// RealtorClient calls the Realtor list-for-sale endpoint on RapidAPI.
type RealtorClient struct {
	baseURL    string
	apiKey     string
	host       string
	pageSize   int
	limiter    *ratelimit.RateLimiter
	httpClient *http.Client
	logger     *zap.Logger
}

// NewRealtorClient creates a client. limiter may be nil.
func NewRealtorClient(cfg Config, limiter *ratelimit.RateLimiter, logger *zap.Logger) *RealtorClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://realtor.p.rapidapi.com"
	}
	if cfg.Host == "" {
		if u, err := url.Parse(cfg.BaseURL); err == nil {
			cfg.Host = u.Host
		}
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &RealtorClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		host:       cfg.Host,
		pageSize:   cfg.PageSize,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// ListForSale fetches one page of listings for the query.
func (c *RealtorClient) ListForSale(ctx context.Context, q Query) ([]Record, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for provider rate limit: %w", err)
		}
	}

	params := url.Values{}
	params.Set("city", q.City)
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("price_min", strconv.FormatInt(q.MinPrice, 10))
	params.Set("price_max", strconv.FormatInt(q.MaxPrice, 10))
	params.Set("beds_min", strconv.Itoa(q.Bedrooms))
	params.Set("type", q.PropertyType)
	params.Set("sort", "relevance")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+listForSalePath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.host)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}

	c.logger.Info("Fetched listings from provider",
		zap.String("city", q.City),
		zap.Int("count", len(body.Properties)),
		zap.Duration("duration", time.Since(start)))
	return body.Properties, nil
}

// RateLimitStats exposes the limiter's counters.
func (c *RealtorClient) RateLimitStats() ratelimit.Stats {
	if c.limiter == nil {
		return ratelimit.Stats{Enabled: false}
	}
	return c.limiter.GetStats()
}
