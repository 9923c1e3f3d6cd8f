package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"property-browser/internal/browser"
	"property-browser/internal/database"
	"property-browser/internal/filter"
	"property-browser/internal/listing"
	"property-browser/internal/models"
	"property-browser/internal/search"
)

// Fetcher runs the fetch cycle for a set of criteria.
type Fetcher interface {
	Fetch(ctx context.Context, c filter.Criteria) ([]models.Listing, error)
}

// PropertyGetter loads a single stored row.
type PropertyGetter interface {
	GetProperty(ctx context.Context, id string) (*models.Property, error)
}

// Searcher runs full-text queries.
type Searcher interface {
	Search(query string, c filter.Criteria, limit int64) (*search.SearchResult, error)
}

// PropertyHandler serves listing reads.
type PropertyHandler struct {
	fetcher Fetcher
	store   PropertyGetter
	search  Searcher
	logger  *zap.Logger
}

// NewPropertyHandler creates a PropertyHandler. searcher may be nil when
// full-text search is disabled.
func NewPropertyHandler(fetcher Fetcher, store PropertyGetter, searcher Searcher, logger *zap.Logger) *PropertyHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyHandler{fetcher: fetcher, store: store, search: searcher, logger: logger}
}

// parseCriteria writes a 400 and returns false for malformed filters.
func parseCriteria(c *gin.Context) (filter.Criteria, bool) {
	criteria, err := filter.Parse(filter.FromQuery(c.Request.URL.Query()))
	if err != nil {
		var verr *filter.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":  err.Error(),
				"fields": verr.Fields,
			})
			return criteria, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return criteria, false
	}
	return criteria, true
}

// List returns the listings matching the filter query parameters, narrowed
// by the free-text "q" parameter.
func (h *PropertyHandler) List(c *gin.Context) {
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}
	query := c.Query("q")

	listings, err := h.fetcher.Fetch(c.Request.Context(), criteria)
	view := browser.NewView(criteria, query, listings, err)

	resp := gin.H{
		"properties": view.Listings,
		"count":      len(view.Listings),
		"notice":     view.Notice(),
	}
	if err != nil {
		resp["error"] = err.Error()
		// Nothing to show at all: the query failed and no fallback answered.
		if listings == nil {
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one normalized listing.
func (h *PropertyHandler) Get(c *gin.Context) {
	id := c.Param("id")

	property, err := h.store.GetProperty(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load property", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	l := listing.Normalize(*property)
	c.JSON(http.StatusOK, gin.H{
		"property": l,
		// Listings without coordinates get no map pin.
		"has_location": l.HasLocation(),
	})
}

// Search runs a full-text query with the same filters pushed down.
func (h *PropertyHandler) Search(c *gin.Context) {
	if h.search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is not enabled"})
		return
	}
	criteria, ok := parseCriteria(c)
	if !ok {
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}

	result, err := h.search.Search(c.Query("q"), criteria, limit)
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"properties":         result.Hits,
		"count":              len(result.Hits),
		"total_hits":         result.TotalHits,
		"processing_time_ms": result.ProcessingTime,
	})
}
