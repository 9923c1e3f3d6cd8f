package search

import (
	"encoding/json"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	"property-browser/internal/filter"
	"property-browser/internal/listing"
	"property-browser/internal/models"
)

const defaultIndex = "properties"

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})

	return &SearchClient{
		client: client,
		index:  defaultIndex,
	}
}

// Document is the indexed form of a listing.
type Document struct {
	ID           string   `json:"id"`
	PropertyID   string   `json:"property_id"`
	Title        string   `json:"title"`
	Price        int64    `json:"price"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    int      `json:"bathrooms"`
	Sqft         int      `json:"sqft"`
	Image        string   `json:"image"`
	Images       []string `json:"images"`
	Address      string   `json:"address"`
	City         string   `json:"city"`
	PropertyType string   `json:"property_type"`
	AgentName    string   `json:"agent_name"`
	AgentPhone   string   `json:"agent_phone,omitempty"`
	AgentEmail   string   `json:"agent_email,omitempty"`
	Description  string   `json:"description,omitempty"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
	// CreatedAt is a unix timestamp so that it sorts.
	CreatedAt int64 `json:"created_at"`
}

// NewDocument normalizes a stored row into its indexed form.
func NewDocument(p models.Property) Document {
	l := listing.Normalize(p)
	var city string
	if p.City != nil {
		city = *p.City
	}
	var createdAt int64
	if !l.CreatedAt.IsZero() {
		createdAt = l.CreatedAt.Unix()
	}
	return Document{
		ID:           l.ID,
		PropertyID:   l.PropertyID,
		Title:        l.Title,
		Price:        l.Price,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		Sqft:         l.Sqft,
		Image:        l.Image,
		Images:       l.Images,
		Address:      l.Address,
		City:         city,
		PropertyType: l.Type,
		AgentName:    l.AgentName,
		AgentPhone:   l.AgentPhone,
		AgentEmail:   l.AgentEmail,
		Description:  l.Description,
		Lat:          l.Lat,
		Lng:          l.Lng,
		CreatedAt:    createdAt,
	}
}

// Listing converts a document back into a listing.
func (d Document) Listing() models.Listing {
	l := models.Listing{
		ID:          d.ID,
		PropertyID:  d.PropertyID,
		Title:       d.Title,
		Price:       d.Price,
		Bedrooms:    d.Bedrooms,
		Bathrooms:   d.Bathrooms,
		Sqft:        d.Sqft,
		Image:       d.Image,
		Images:      d.Images,
		Address:     d.Address,
		Type:        d.PropertyType,
		AgentName:   d.AgentName,
		AgentPhone:  d.AgentPhone,
		AgentEmail:  d.AgentEmail,
		Description: d.Description,
		Lat:         d.Lat,
		Lng:         d.Lng,
	}
	if d.CreatedAt > 0 {
		l.CreatedAt = unixTime(d.CreatedAt)
	}
	return listing.Canonicalize(l)
}

// InitIndex creates the index and configures its attributes.
func (s *SearchClient) InitIndex() error {
	// Creation is asynchronous; an existing index only fails the task.
	if _, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	}); err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	idx := s.client.Index(s.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{
		"title",
		"address",
		"agent_name",
		"city",
	}); err != nil {
		return fmt.Errorf("update searchable attributes: %w", err)
	}

	if _, err := idx.UpdateFilterableAttributes(&[]string{
		"price",
		"bedrooms",
		"bathrooms",
		"property_type",
		"city",
	}); err != nil {
		return fmt.Errorf("update filterable attributes: %w", err)
	}

	if _, err := idx.UpdateSortableAttributes(&[]string{
		"price",
		"created_at",
	}); err != nil {
		return fmt.Errorf("update sortable attributes: %w", err)
	}

	return nil
}

// IndexProperties adds or replaces the given rows in the index.
func (s *SearchClient) IndexProperties(rows []models.Property) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]Document, 0, len(rows))
	for _, p := range rows {
		docs = append(docs, NewDocument(p))
	}
	if _, err := s.client.Index(s.index).AddDocuments(docs, "id"); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}
	return nil
}

// SearchResult is one page of hits.
type SearchResult struct {
	Hits           []models.Listing `json:"hits"`
	TotalHits      int64            `json:"total_hits"`
	ProcessingTime int64            `json:"processing_time_ms"`
}

// Search runs a full-text query restricted by the criteria, newest first.
func (s *SearchClient) Search(query string, c filter.Criteria, limit int64) (*SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}

	req := &meilisearch.SearchRequest{
		Limit: limit,
		Sort:  []string{"created_at:desc"},
	}
	if f := FilterExpression(c); f != "" {
		req.Filter = f
	}

	res, err := s.client.Index(s.index).Search(query, req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	hits := make([]models.Listing, 0, len(res.Hits))
	for _, hit := range res.Hits {
		// Hits arrive as generic maps; round-trip them through Document.
		raw, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		hits = append(hits, doc.Listing())
	}

	return &SearchResult{
		Hits:           hits,
		TotalHits:      res.EstimatedTotalHits,
		ProcessingTime: res.ProcessingTimeMs,
	}, nil
}
