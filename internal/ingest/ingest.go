// Package ingest pulls listings from the provider and upserts them into the
// properties table.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"property-browser/internal/metrics"
	"property-browser/internal/models"
	"property-browser/internal/provider"
)

// Request defaults, used when a field is empty.
const (
	DefaultCity         = "Mumbai"
	DefaultMinPrice     = "1000000"
	DefaultMaxPrice     = "100000000"
	DefaultBedrooms     = "1"
	DefaultPropertyType = "apartment"
	defaultTitle        = "Property Listing"
	defaultStatus       = "for_sale"
	defaultAgentName    = "Real Estate Agent"
)

// ErrInvalidRequest is returned when a numeric request field does not parse.
var ErrInvalidRequest = errors.New("invalid ingest request")

// Request selects what to ingest.
type Request struct {
	City         string `json:"city" form:"city"`
	MinPrice     string `json:"minPrice" form:"minPrice"`
	MaxPrice     string `json:"maxPrice" form:"maxPrice"`
	Bedrooms     string `json:"bedrooms" form:"bedrooms"`
	PropertyType string `json:"propertyType" form:"propertyType"`
}

func (r Request) withDefaults() Request {
	r.City = orDefault(r.City, DefaultCity)
	r.MinPrice = orDefault(r.MinPrice, DefaultMinPrice)
	r.MaxPrice = orDefault(r.MaxPrice, DefaultMaxPrice)
	r.Bedrooms = orDefault(r.Bedrooms, DefaultBedrooms)
	r.PropertyType = orDefault(r.PropertyType, DefaultPropertyType)
	return r
}

func (r Request) query() (provider.Query, error) {
	minPrice, err := strconv.ParseInt(r.MinPrice, 10, 64)
	if err != nil {
		return provider.Query{}, fmt.Errorf("%w: minPrice %q", ErrInvalidRequest, r.MinPrice)
	}
	maxPrice, err := strconv.ParseInt(r.MaxPrice, 10, 64)
	if err != nil {
		return provider.Query{}, fmt.Errorf("%w: maxPrice %q", ErrInvalidRequest, r.MaxPrice)
	}
	beds, err := strconv.Atoi(r.Bedrooms)
	if err != nil {
		return provider.Query{}, fmt.Errorf("%w: bedrooms %q", ErrInvalidRequest, r.Bedrooms)
	}
	return provider.Query{
		City:         r.City,
		MinPrice:     minPrice,
		MaxPrice:     maxPrice,
		Bedrooms:     beds,
		PropertyType: r.PropertyType,
	}, nil
}

// Lister fetches listings from the provider.
type Lister interface {
	ListForSale(ctx context.Context, q provider.Query) ([]provider.Record, error)
}

// Upserter writes rows keyed by property_id.
type Upserter interface {
	UpsertProperty(ctx context.Context, p *models.Property) error
}

// Indexer makes rows searchable.
type Indexer interface {
	IndexProperties(rows []models.Property) error
}

// Result summarizes a run.
type Result struct {
	Properties []models.Property `json:"properties"`
	Upserted   int               `json:"upserted"`
	Failed     int               `json:"failed"`
}

// Service runs ingestion.
type Service struct {
	lister  Lister
	store   Upserter
	indexer Indexer
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a Service. indexer may be nil.
func NewService(lister Lister, store Upserter, indexer Indexer, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		lister:  lister,
		store:   store,
		indexer: indexer,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Run fetches one page for req and upserts every mapped row. A failed row is
// logged and skipped; only provider and request errors fail the run.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	req = req.withDefaults()
	q, err := req.query()
	if err != nil {
		return nil, err
	}

	records, err := s.lister.ListForSale(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch listings for %s: %w", req.City, err)
	}

	result := &Result{Properties: make([]models.Property, 0, len(records))}
	stored := make([]models.Property, 0, len(records))
	for _, rec := range records {
		row := s.mapRecord(rec, req)
		if err := s.store.UpsertProperty(ctx, &row); err != nil {
			s.logger.Error("Error upserting property",
				zap.String("property_id", row.PropertyID), zap.Error(err))
			s.metrics.Ingested(false)
			result.Failed++
		} else {
			s.metrics.Ingested(true)
			result.Upserted++
			stored = append(stored, row)
		}
		result.Properties = append(result.Properties, row)
	}

	if s.indexer != nil && len(stored) > 0 {
		if err := s.indexer.IndexProperties(stored); err != nil {
			s.logger.Warn("Failed to index properties", zap.Int("count", len(stored)), zap.Error(err))
		}
	}

	s.logger.Info("Ingestion finished",
		zap.String("city", req.City),
		zap.Int("fetched", len(records)),
		zap.Int("upserted", result.Upserted),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *Service) mapRecord(rec provider.Record, req Request) models.Property {
	p := models.Property{
		PropertyID:   firstNonEmpty(rec.PropertyID, rec.ListingID),
		PropertyType: models.Ptr(firstNonEmpty(rec.PropType, req.PropertyType)),
		Status:       models.Ptr(firstNonEmpty(rec.Status, defaultStatus)),
		AgentName:    models.Ptr(defaultAgentName),
		Images:       models.JSONList[string]{},
		Amenities:    models.JSONList[any]{},
	}
	if p.PropertyID == "" {
		p.PropertyID = uuid.NewString()
	}

	var name, text, line string
	if rec.Description != nil {
		name, text = rec.Description.Name, rec.Description.Text
	}
	if rec.Address != nil {
		line = rec.Address.Line
	}
	p.Title = models.Ptr(firstNonEmpty(name, line, defaultTitle))
	p.Description = models.Ptr(stripHTML(firstNonEmpty(text, name)))

	if price := firstPositive(rec.Price, rec.ListPrice); price > 0 {
		p.Price = models.Ptr(int64(price))
	}
	if rec.Beds > 0 {
		p.Bedrooms = models.Ptr(int(rec.Beds))
	}
	if rec.Baths > 0 {
		p.Bathrooms = models.Ptr(int(rec.Baths))
	}
	var building, lot float64
	if rec.Building != nil {
		building = rec.Building.Size
	}
	if rec.Lot != nil {
		lot = rec.Lot.Size
	}
	if sqft := firstPositive(building, lot); sqft > 0 {
		p.Sqft = models.Ptr(int(sqft))
	}
	if lot > 0 {
		p.LotSize = models.Ptr(int(lot))
	}
	if rec.YearBuilt > 0 {
		p.YearBuilt = models.Ptr(rec.YearBuilt)
	}

	city := req.City
	if a := rec.Address; a != nil {
		p.Address = models.Ptr(a.Line)
		city = firstNonEmpty(a.City, req.City)
		p.State = models.Ptr(a.State)
		p.ZipCode = models.Ptr(a.PostalCode)
		if a.Lat != 0 {
			p.Latitude = models.Ptr(a.Lat)
		}
		if a.Lon != 0 {
			p.Longitude = models.Ptr(a.Lon)
		}
	} else {
		p.Address = models.Ptr("")
		p.State = models.Ptr("")
		p.ZipCode = models.Ptr("")
	}
	p.City = models.Ptr(city)

	for _, photo := range rec.Photos {
		if photo.Href != "" {
			p.Images = append(p.Images, photo.Href)
		}
	}
	if rec.Features != nil {
		p.Amenities = models.JSONList[any](rec.Features)
	}

	if len(rec.Agents) > 0 {
		agent := rec.Agents[0]
		p.AgentName = models.Ptr(firstNonEmpty(agent.Name, defaultAgentName))
		if agent.Phone != "" {
			p.AgentPhone = models.Ptr(agent.Phone)
		}
		if agent.Email != "" {
			p.AgentEmail = models.Ptr(agent.Email)
		}
	}

	listed := s.now().UTC()
	if rec.ListDate != "" {
		if t, err := time.Parse(time.RFC3339, rec.ListDate); err == nil {
			listed = t
		}
	}
	p.ListingDate = &listed

	return p
}

// stripHTML returns the text content of an HTML fragment.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
